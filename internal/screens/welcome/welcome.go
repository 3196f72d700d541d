// Package welcome is the first console screen. It shows the banner and asks a
// new learner for the full name used in reports.
package welcome

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/router"
	"github.com/abhisek/quizmentor/internal/screen"
	"github.com/abhisek/quizmentor/internal/ui/components"
	"github.com/abhisek/quizmentor/internal/ui/layout"
	"github.com/abhisek/quizmentor/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	introDur     = 800 * time.Millisecond
)

// Registrar records a learner's full name.
type Registrar interface {
	Register(ctx context.Context, id int64, fullName string, role quiz.Role) (quiz.User, error)
}

type tickMsg time.Time

type registeredMsg struct {
	user quiz.User
	err  error
}

// WelcomeScreen plays a short banner intro, then collects the full name.
type WelcomeScreen struct {
	registrar   Registrar
	userID      int64
	homeFactory func(quiz.User) screen.Screen

	input    components.TextInput
	elapsed  time.Duration
	saving   bool
	errMsg   string
	finished bool
}

var (
	_ screen.Screen          = (*WelcomeScreen)(nil)
	_ screen.KeyHintProvider = (*WelcomeScreen)(nil)
)

// New creates a WelcomeScreen that registers userID and then replaces itself
// with the screen produced by homeFactory.
func New(registrar Registrar, userID int64, homeFactory func(quiz.User) screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{
		registrar:   registrar,
		userID:      userID,
		homeFactory: homeFactory,
		input:       components.NewTextInput("First and last name", 80),
	}
}

func (w *WelcomeScreen) Title() string {
	return "Welcome"
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tea.Batch(w.input.Init(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) introDone() bool {
	return w.elapsed >= introDur
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if w.introDone() {
			return w, nil
		}
		w.elapsed += tickInterval
		return w, tick()

	case registeredMsg:
		w.saving = false
		if msg.err != nil {
			w.errMsg = "Could not save your name: " + msg.err.Error()
			return w, nil
		}
		return w, w.transition(msg.user)

	case tea.KeyPressMsg:
		// Any key skips the intro.
		if !w.introDone() {
			w.elapsed = introDur
			return w, nil
		}
		if w.saving {
			return w, nil
		}
		if msg.String() == "enter" {
			return w, w.submit()
		}
	}

	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	return w, cmd
}

func (w *WelcomeScreen) submit() tea.Cmd {
	name, err := quiz.NormalizeFullName(w.input.Value())
	if err != nil {
		w.errMsg = "Please enter your first and last name."
		return nil
	}
	w.errMsg = ""
	w.saving = true
	registrar, id := w.registrar, w.userID
	return func() tea.Msg {
		user, err := registrar.Register(context.Background(), id, name, quiz.RoleStudent)
		return registeredMsg{user: user, err: err}
	}
}

func (w *WelcomeScreen) transition(user quiz.User) tea.Cmd {
	if w.finished {
		return nil
	}
	w.finished = true
	next := w.homeFactory(user)
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func (w *WelcomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	sections := []string{RenderBanner(width), ""}

	if w.introDone() {
		sections = append(sections,
			theme.Body.Bold(true).Render("Welcome! What is your full name?"),
			theme.Hint.Render("It appears on the reports your teacher receives."),
			"",
			w.input.View(),
		)
		switch {
		case w.saving:
			sections = append(sections, "", theme.Hint.Render("Saving..."))
		case w.errMsg != "":
			sections = append(sections, "", theme.Incorrect.Render(w.errMsg))
		}
	} else {
		sections = append(sections, theme.Hint.Render("press any key to continue"))
	}

	content := strings.Join(sections, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
