package session

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/router"
	"github.com/abhisek/quizmentor/internal/scoring"
	"github.com/abhisek/quizmentor/internal/screens/summary"
	sess "github.com/abhisek/quizmentor/internal/session"
)

type scriptedEngine struct {
	answers   []string
	replies   []sess.Reply
	errs      []error
	abandoned int
}

func (e *scriptedEngine) SubmitAnswer(_ context.Context, _ int64, text string) (sess.Reply, error) {
	i := len(e.answers)
	e.answers = append(e.answers, text)
	var err error
	if i < len(e.errs) {
		err = e.errs[i]
	}
	return e.replies[i], err
}

func (e *scriptedEngine) Abandon(int64) bool {
	e.abandoned++
	return true
}

var topic = quiz.Topic{ID: 1, Title: "Fractions"}

func first() sess.Reply {
	return sess.Reply{State: sess.StateInTest, Topic: topic, Question: "1/2 + 1/2?", Number: 1, Total: 2}
}

func typeAndSubmit(t *testing.T, s *SessionScreen, text string) tea.Msg {
	t.Helper()
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.True(t, s.checking)
	return runBatch(cmd)
}

// runBatch executes a batched command and returns the engine result,
// skipping spinner ticks.
func runBatch(cmd tea.Cmd) tea.Msg {
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return msg
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if m, ok := c().(answerJudgedMsg); ok {
			return m
		}
	}
	return nil
}

func TestAnswerAdvancesQuestion(t *testing.T) {
	e := &scriptedEngine{replies: []sess.Reply{
		{State: sess.StateInTest, Topic: topic, Question: "2 x 1/4?", Number: 2, Total: 2},
	}}
	s := New(e, 7, first())

	msg := typeAndSubmit(t, s, "1")
	s.Update(msg)

	assert.Equal(t, []string{"1"}, e.answers)
	assert.False(t, s.checking)
	assert.Equal(t, 2, s.reply.Number)
	assert.Empty(t, s.input.Value(), "input is cleared for the next question")
	assert.Contains(t, s.View(100, 30), "2 x 1/4?")
}

func TestBlankAnswerIsNotSubmitted(t *testing.T) {
	e := &scriptedEngine{}
	s := New(e, 7, first())

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, e.answers)
	assert.Contains(t, s.View(100, 30), "Type an answer")
}

func TestFinalAnswerShowsSummary(t *testing.T) {
	sum := &sess.Summary{Topic: topic, Result: scoring.Result{Correct: 2, Total: 2, Score: 100, Passed: true}}
	e := &scriptedEngine{replies: []sess.Reply{{State: sess.StateCompleted, Topic: topic, Summary: sum}}}
	s := New(e, 7, first())

	_, cmd := s.Update(typeAndSubmit(t, s, "1"))
	require.NotNil(t, cmd)
	replace, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)
	_, isSummary := replace.Screen.(*summary.SummaryScreen)
	assert.True(t, isSummary)
}

func TestProvisionalSummaryStillShown(t *testing.T) {
	sum := &sess.Summary{Topic: topic, Provisional: true}
	e := &scriptedEngine{
		replies: []sess.Reply{{State: sess.StateCompleted, Topic: topic, Summary: sum}},
		errs:    []error{&sess.PersistenceError{RecordID: "r1", Err: errors.New("locked")}},
	}
	s := New(e, 7, first())

	_, cmd := s.Update(typeAndSubmit(t, s, "1"))
	require.NotNil(t, cmd)
	_, ok := cmd().(router.ReplaceScreenMsg)
	assert.True(t, ok)
	assert.Empty(t, s.fatal)
}

func TestExpiredSessionReturnsToTopics(t *testing.T) {
	e := &scriptedEngine{
		replies: []sess.Reply{{}},
		errs:    []error{&sess.InvalidStateError{Op: "answer", State: sess.StateIdle, Reason: "session expired"}},
	}
	s := New(e, 7, first())

	s.Update(typeAndSubmit(t, s, "1"))
	assert.Contains(t, s.View(100, 30), "session expired")

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	require.NotNil(t, cmd)
	_, ok := cmd().(router.ResetScreenMsg)
	assert.True(t, ok)
}

func TestEscapeAsksBeforeAbandoning(t *testing.T) {
	e := &scriptedEngine{}
	s := New(e, 7, first())

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.True(t, s.confirmQuit)

	s.Update(tea.KeyPressMsg{Code: 'n', Text: "n"})
	assert.False(t, s.confirmQuit)
	assert.Zero(t, e.abandoned)

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'y', Text: "y"})
	require.NotNil(t, cmd)
	assert.Equal(t, 1, e.abandoned)
	_, ok := cmd().(router.ResetScreenMsg)
	assert.True(t, ok)
}

func TestKeysIgnoredWhileChecking(t *testing.T) {
	e := &scriptedEngine{replies: []sess.Reply{first()}}
	s := New(e, 7, first())
	typeAndSubmit(t, s, "1")

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Len(t, e.answers, 1)

	_, tick := s.Update(spinnerTickMsg(time.Now()))
	assert.NotNil(t, tick, "spinner keeps ticking while checking")
}
