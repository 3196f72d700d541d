// Package app hosts the console front end: a Bubble Tea program whose
// screens drive the session controller for a single local learner.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/router"
	"github.com/abhisek/quizmentor/internal/screen"
	"github.com/abhisek/quizmentor/internal/screens/home"
	"github.com/abhisek/quizmentor/internal/screens/welcome"
	"github.com/abhisek/quizmentor/internal/store"
	"github.com/abhisek/quizmentor/internal/ui/layout"
)

// Users is the user directory as seen by the console.
type Users interface {
	welcome.Registrar
	Get(ctx context.Context, id int64) (quiz.User, error)
}

// Options configures the console program.
type Options struct {
	Engine home.Engine
	Users  Users

	// UserID identifies the local learner in the user directory.
	UserID int64
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	user   string
	width  int
	height int
}

// userNamedMsg updates the name shown in the header after registration.
type userNamedMsg string

// newAppModel opens on the topic list for a registered learner and on the
// registration screen otherwise.
func newAppModel(ctx context.Context, opts Options) (AppModel, error) {
	user, err := opts.Users.Get(ctx, opts.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return AppModel{}, fmt.Errorf("look up user %d: %w", opts.UserID, err)
	}

	var first screen.Screen
	if user.Registered() {
		first = home.New(opts.Engine, user)
	} else {
		first = welcome.New(opts.Users, opts.UserID, func(u quiz.User) screen.Screen {
			return &named{Screen: home.New(opts.Engine, u), name: u.FullName}
		})
	}

	return AppModel{
		router: router.New(first),
		user:   user.FullName,
	}, nil
}

// named announces the user's name to the app when the wrapped screen starts.
type named struct {
	screen.Screen
	name string
	sent bool
}

func (n *named) Init() tea.Cmd {
	cmd := n.Screen.Init()
	if n.sent {
		return cmd
	}
	n.sent = true
	name := n.name
	return tea.Batch(cmd, func() tea.Msg { return userNamedMsg(name) })
}

func (n *named) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	updated, cmd := n.Screen.Update(msg)
	n.Screen = updated
	return n, cmd
}

func (n *named) KeyHints() []layout.KeyHint {
	if kh, ok := n.Screen.(screen.KeyHintProvider); ok {
		return kh.KeyHints()
	}
	return nil
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case userNamedMsg:
		m.user = string(msg)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if bh, ok := m.router.Active().(screen.BackHandler); ok && bh.HandlesBack() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	var footerHints []layout.KeyHint
	if active != nil {
		title = active.Title()
		if kh, ok := active.(screen.KeyHintProvider); ok {
			footerHints = kh.KeyHints()
		}
	}
	if footerHints == nil {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	header := layout.RenderHeader(title, m.user, m.width)
	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	model, err := newAppModel(ctx, opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
