// Package session is the console screen that walks a learner through one
// test, a question at a time.
package session

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizmentor/internal/router"
	"github.com/abhisek/quizmentor/internal/screen"
	"github.com/abhisek/quizmentor/internal/screens/summary"
	sess "github.com/abhisek/quizmentor/internal/session"
	"github.com/abhisek/quizmentor/internal/ui/components"
	"github.com/abhisek/quizmentor/internal/ui/layout"
)

const (
	spinnerInterval = 120 * time.Millisecond
	answerLimit     = 500
)

// Engine is the part of the session controller this screen drives.
type Engine interface {
	SubmitAnswer(ctx context.Context, userID int64, text string) (sess.Reply, error)
	Abandon(userID int64) bool
}

// SessionScreen shows the current question and collects the answer.
type SessionScreen struct {
	engine Engine
	userID int64
	reply  sess.Reply

	input        components.TextInput
	checking     bool
	spinnerFrame int
	confirmQuit  bool
	notice       string
	fatal        string
}

var (
	_ screen.Screen          = (*SessionScreen)(nil)
	_ screen.KeyHintProvider = (*SessionScreen)(nil)
	_ screen.BackHandler     = (*SessionScreen)(nil)
)

// New creates a test screen positioned on the question carried by first.
func New(engine Engine, userID int64, first sess.Reply) *SessionScreen {
	return &SessionScreen{
		engine: engine,
		userID: userID,
		reply:  first,
		input:  components.NewTextInput("Your answer", answerLimit),
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *SessionScreen) Title() string {
	return s.reply.Topic.Title
}

func (s *SessionScreen) HandlesBack() bool {
	return true
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.fatal != "":
		return []layout.KeyHint{{Key: "Any key", Description: "Back to topics"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave test"},
			{Key: "N", Description: "Keep going"},
		}
	default:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Leave test"},
		}
	}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case answerJudgedMsg:
		return s.handleJudged(msg)
	case spinnerTickMsg:
		if !s.checking {
			return s, nil
		}
		s.spinnerFrame++
		return s, spinnerCmd()
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.fatal != "" {
		return s, backToTopics()
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			s.engine.Abandon(s.userID)
			return s, backToTopics()
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	// Keys are ignored while the answer is being checked.
	if s.checking {
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "enter":
		return s.submitAnswer()
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *SessionScreen) submitAnswer() (screen.Screen, tea.Cmd) {
	if s.input.Blank() {
		s.notice = "Type an answer before pressing Enter."
		return s, nil
	}
	s.notice = ""
	s.checking = true

	engine, userID, text := s.engine, s.userID, s.input.Value()
	submit := func() tea.Msg {
		reply, err := engine.SubmitAnswer(context.Background(), userID, text)
		return answerJudgedMsg{Reply: reply, Err: err}
	}
	return s, tea.Batch(submit, spinnerCmd())
}

func (s *SessionScreen) handleJudged(msg answerJudgedMsg) (screen.Screen, tea.Cmd) {
	s.checking = false

	var persistErr *sess.PersistenceError
	switch {
	case msg.Err == nil, errors.As(msg.Err, &persistErr):
		// A provisional summary is still shown; the outbox stores it later.
	default:
		var invalid *sess.InvalidStateError
		if errors.As(msg.Err, &invalid) {
			s.fatal = "This test is no longer active: " + invalid.Reason + "."
		} else {
			s.fatal = "Something went wrong: " + msg.Err.Error()
		}
		return s, nil
	}

	if msg.Reply.Summary != nil {
		next := summary.New(msg.Reply.Summary)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
	}

	s.reply = msg.Reply
	s.input.Reset()
	return s, nil
}

func backToTopics() tea.Cmd {
	return func() tea.Msg { return router.ResetScreenMsg{} }
}

func spinnerCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
