package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizmentor/internal/ui/theme"
)

const bannerArt = `
  ██████╗ ██╗   ██╗██╗███████╗
 ██╔═══██╗██║   ██║██║╚══███╔╝
 ██║   ██║██║   ██║██║  ███╔╝
 ██║▄▄ ██║██║   ██║██║ ███╔╝
 ╚██████╔╝╚██████╔╝██║███████╗
  ╚══▀▀═╝  ╚═════╝ ╚═╝╚══════╝
        M E N T O R`

const bannerCompact = "Q U I Z M E N T O R"

// RenderBanner returns the QUIZMENTOR banner styled in the primary color.
// Uses a compact fallback for terminals narrower than 40 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 40 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
