package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizmentor/internal/ui/components"
	"github.com/abhisek/quizmentor/internal/ui/theme"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (s *SessionScreen) View(width, height int) string {
	if s.fatal != "" {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Incorrect.Render(s.fatal)+"\n\n"+theme.Hint.Render("press any key to return to the topic list"))
	}

	barWidth := width - 8
	if barWidth > 60 {
		barWidth = 60
	}
	// Progress counts answered questions, so the bar starts empty.
	bar := components.NewQuestionProgress(s.reply.Number-1, s.reply.Total, barWidth)
	bar.Label = lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(questionLabel(s.reply.Number, s.reply.Total))

	questionWidth := width - 12
	if questionWidth < 20 {
		questionWidth = 20
	}
	card := theme.Card.Width(questionWidth).Render(theme.Question.Render(s.reply.Question))

	sections := []string{bar.View(), "", card, ""}

	switch {
	case s.confirmQuit:
		sections = append(sections, theme.Warning.Render("Leave this test? Your answers so far will be discarded. (y/n)"))
	case s.checking:
		frame := spinnerFrames[s.spinnerFrame%len(spinnerFrames)]
		sections = append(sections, theme.Hint.Render(frame+" Checking your answer..."))
	default:
		sections = append(sections, s.input.View())
		if s.notice != "" {
			sections = append(sections, "", theme.Warning.Render(s.notice))
		} else if s.reply.Number == 1 {
			sections = append(sections, "", theme.Hint.Render("Keep your answers short."))
		}
	}

	content := strings.Join(sections, "\n")
	return lipgloss.NewStyle().Padding(1, 4).Render(content)
}

func questionLabel(n, total int) string {
	return fmt.Sprintf("Question %d of %d", n, total)
}
