package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizmentor/internal/router"
	"github.com/abhisek/quizmentor/internal/screen"
	"github.com/abhisek/quizmentor/internal/session"
	"github.com/abhisek/quizmentor/internal/ui/components"
	"github.com/abhisek/quizmentor/internal/ui/layout"
	"github.com/abhisek/quizmentor/internal/ui/theme"
)

// SummaryScreen displays the outcome of a finished test.
type SummaryScreen struct {
	summary *session.Summary
	offset  int
}

var (
	_ screen.Screen          = (*SummaryScreen)(nil)
	_ screen.KeyHintProvider = (*SummaryScreen)(nil)
	_ screen.BackHandler     = (*SummaryScreen)(nil)
)

// New creates a new SummaryScreen.
func New(summary *session.Summary) *SummaryScreen {
	return &SummaryScreen{summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Test Summary"
}

func (s *SummaryScreen) HandlesBack() bool {
	return true
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Enter", Description: "Topics"},
		{Key: "Esc", Description: "Topics"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			s.offset++
		case "enter", "esc":
			// The test screen was replaced by this one, so unwinding to the
			// root lands on the topic list and reloads it.
			return s, func() tea.Msg { return router.ResetScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	lines := s.lines(width)
	if s.offset > len(lines)-1 {
		s.offset = max(len(lines)-1, 0)
	}
	visible := lines[s.offset:]
	if height > 0 && len(visible) > height {
		visible = visible[:height]
	}
	return strings.Join(visible, "\n")
}

func (s *SummaryScreen) lines(width int) []string {
	sum := s.summary
	var b strings.Builder

	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	b.WriteString(center.Foreground(theme.Primary).Bold(true).Render(sum.Topic.Title))
	b.WriteString("\n\n")

	scoreLine := fmt.Sprintf("Score: %d%%   Correct: %d of %d", sum.Result.Score, sum.Result.Correct, sum.Result.Total)
	b.WriteString(center.Foreground(theme.Text).Render(scoreLine))
	b.WriteString("\n")
	bar := components.NewProgressBar("", float64(sum.Result.Score)/100, false, min(width-8, 40))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n")
	if sum.Result.Passed {
		b.WriteString(center.Render(theme.Correct.Render("All answers are correct. You can move on to the next topic.")))
	} else {
		b.WriteString(center.Render(theme.Incorrect.Render("Some answers contain mistakes.")))
	}
	b.WriteString("\n")
	if sum.Provisional {
		b.WriteString(center.Render(theme.Warning.Render("Your result could not be saved yet. It will be stored automatically.")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))

	section := func(name string) {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render(name)))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n\n")
	}

	section("Answers")
	for i, a := range sum.Answers {
		mark := theme.Correct.Render("✓")
		if !a.Correct {
			mark = theme.Incorrect.Render("✗")
		}
		fmt.Fprintf(&b, "  %s %d. %s\n", mark, i+1, theme.Question.Render(a.Prompt))
		fmt.Fprintf(&b, "       %s\n", theme.Body.Render("Your answer: "+a.Answer))
		if a.Comment != "" {
			fmt.Fprintf(&b, "       %s\n", theme.Hint.Render(a.Comment))
		}
	}

	if len(sum.Remediation) > 0 {
		b.WriteString("\n")
		section("Follow-up questions")
		for _, e := range sum.Remediation {
			fmt.Fprintf(&b, "  %s %s\n", theme.Incorrect.Render("Mistake in question:"), e.Question)
			if len(e.Followups) == 0 {
				b.WriteString("     " + theme.Hint.Render("(no follow-up questions available)") + "\n")
			}
			for j, f := range e.Followups {
				fmt.Fprintf(&b, "     %d. %s\n", j+1, f)
			}
			b.WriteString("\n")
		}
	}

	return strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
}
