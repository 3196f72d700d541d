// Package home is the console topic list. Choosing a topic starts a test.
package home

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/router"
	"github.com/abhisek/quizmentor/internal/screen"
	sessionscreen "github.com/abhisek/quizmentor/internal/screens/session"
	"github.com/abhisek/quizmentor/internal/session"
	"github.com/abhisek/quizmentor/internal/ui/components"
	"github.com/abhisek/quizmentor/internal/ui/layout"
	"github.com/abhisek/quizmentor/internal/ui/theme"
)

// Engine is the part of the session controller the console drives.
type Engine interface {
	sessionscreen.Engine
	BeginTopicChoice(ctx context.Context, userID int64) ([]quiz.Topic, error)
	ChooseTopic(ctx context.Context, userID int64, topicIDText string) (session.Reply, error)
}

type topicsLoadedMsg struct {
	topics []quiz.Topic
	err    error
}

type testStartedMsg struct {
	reply session.Reply
	err   error
}

// HomeScreen lists the available topics.
type HomeScreen struct {
	engine Engine
	user   quiz.User

	menu     components.Menu
	loading  bool
	starting bool
	errMsg   string
}

var (
	_ screen.Screen          = (*HomeScreen)(nil)
	_ screen.KeyHintProvider = (*HomeScreen)(nil)
)

// New creates a HomeScreen for a registered user.
func New(engine Engine, user quiz.User) *HomeScreen {
	return &HomeScreen{engine: engine, user: user}
}

// Init (re)loads the topic list. It runs again whenever the router unwinds
// back to this screen.
func (h *HomeScreen) Init() tea.Cmd {
	h.loading = true
	h.starting = false
	engine, userID := h.engine, h.user.ID
	return func() tea.Msg {
		topics, err := engine.BeginTopicChoice(context.Background(), userID)
		return topicsLoadedMsg{topics: topics, err: err}
	}
}

func (h *HomeScreen) Title() string {
	return "Topics"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Start test"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case topicsLoadedMsg:
		h.loading = false
		h.errMsg = ""
		if msg.err != nil {
			var nf *session.NotFoundError
			if errors.As(msg.err, &nf) {
				h.errMsg = "There are no tests yet. Ask your teacher to add a topic."
			} else {
				h.errMsg = "Could not load topics: " + msg.err.Error()
			}
		}
		h.menu = components.NewMenu(h.menuItems(msg.topics))
		return h, nil

	case testStartedMsg:
		h.starting = false
		if msg.err != nil {
			h.errMsg = startError(msg.err)
			// A failed start leaves the controller idle, so choosing again
			// needs a fresh topic list.
			return h, h.Init()
		}
		next := sessionscreen.New(h.engine, h.user.ID, msg.reply)
		return h, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
	}

	if h.loading || h.starting {
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) menuItems(topics []quiz.Topic) []components.MenuItem {
	items := make([]components.MenuItem, 0, len(topics)+2)
	for _, t := range topics {
		id := t.ID
		items = append(items, components.MenuItem{
			Label:  t.Title,
			Detail: fmt.Sprintf("#%d", id),
			Action: func() tea.Cmd { return h.start(id) },
		})
	}
	items = append(items,
		components.MenuItem{Label: "Refresh", Action: h.Init},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)
	return items
}

func (h *HomeScreen) start(topicID int64) tea.Cmd {
	h.starting = true
	h.errMsg = ""
	engine, userID := h.engine, h.user.ID
	return func() tea.Msg {
		reply, err := engine.ChooseTopic(context.Background(), userID, strconv.FormatInt(topicID, 10))
		return testStartedMsg{reply: reply, err: err}
	}
}

func startError(err error) string {
	var nf *session.NotFoundError
	if errors.As(err, &nf) {
		return fmt.Sprintf("That %s is not available any more.", nf.What)
	}
	return "Could not start the test: " + err.Error()
}

func (h *HomeScreen) View(width, height int) string {
	var sections []string

	greeting := "Choose a topic"
	if h.user.FullName != "" {
		greeting = "Hello, " + strings.Fields(h.user.FullName)[0] + "! Choose a topic"
	}
	sections = append(sections, theme.Title.Render(greeting), "")

	switch {
	case h.loading:
		sections = append(sections, theme.Hint.Render("Loading topics..."))
	case h.starting:
		sections = append(sections, theme.Hint.Render("Preparing your test..."))
	default:
		sections = append(sections, h.menu.View())
	}

	if h.errMsg != "" {
		sections = append(sections, theme.Warning.Render(h.errMsg))
	}

	box := theme.Card.Width(min(width-4, 64)).Render(strings.Join(sections, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
