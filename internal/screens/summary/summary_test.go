package summary

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/remediation"
	"github.com/abhisek/quizmentor/internal/router"
	"github.com/abhisek/quizmentor/internal/scoring"
	"github.com/abhisek/quizmentor/internal/session"
)

func testSummary() *session.Summary {
	return &session.Summary{
		RecordID: "rec-1",
		Topic:    quiz.Topic{ID: 1, Title: "Fractions"},
		Result:   scoring.Result{Correct: 1, Total: 2, Score: 50},
		Answers: []quiz.AnswerRecord{
			{Prompt: "1/2 + 1/4?", Answer: "3/4", Correct: true, Comment: "Right."},
			{Prompt: "2/3 of 9?", Answer: "3", Correct: false, Comment: "Multiply, then divide."},
		},
		Remediation: remediation.Plan{
			{Question: "2/3 of 9?", Answer: "3", Followups: []string{"What is 1/3 of 9?", "What is 2 x 3?"}},
		},
	}
}

func TestSummaryScreen_Title(t *testing.T) {
	s := New(testSummary())
	if s.Title() != "Test Summary" {
		t.Errorf("Title = %q, want %q", s.Title(), "Test Summary")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	s := New(testSummary())
	view := s.View(100, 60)
	for _, want := range []string{"Fractions", "Score: 50%", "Mistake in question:", "What is 1/3 of 9?", "Multiply, then divide."} {
		if !strings.Contains(view, want) {
			t.Errorf("summary view missing %q", want)
		}
	}
	if strings.Contains(view, "could not be saved") {
		t.Error("non-provisional summary should not warn about saving")
	}
}

func TestSummaryScreen_Passed(t *testing.T) {
	sum := testSummary()
	sum.Result = scoring.Result{Correct: 2, Total: 2, Score: 100, Passed: true}
	sum.Remediation = nil
	view := New(sum).View(100, 60)
	if !strings.Contains(view, "move on to the next topic") {
		t.Error("passed summary should invite the learner to move on")
	}
	if strings.Contains(view, "Follow-up questions") {
		t.Error("passed summary should have no follow-up section")
	}
}

func TestSummaryScreen_Provisional(t *testing.T) {
	sum := testSummary()
	sum.Provisional = true
	if !strings.Contains(New(sum).View(100, 60), "could not be saved yet") {
		t.Error("provisional summary should say so")
	}
}

func TestSummaryScreen_Scroll(t *testing.T) {
	s := New(testSummary())
	top := s.View(100, 3)
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.View(100, 3) == top {
		t.Error("expected scrolling down to change the view")
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if s.offset != 0 {
		t.Errorf("offset = %d, want 0", s.offset)
	}
}

func TestSummaryScreen_Navigation(t *testing.T) {
	for _, key := range []tea.KeyPressMsg{{Code: tea.KeyEnter}, {Code: tea.KeyEscape}} {
		s := New(testSummary())
		_, cmd := s.Update(key)
		if cmd == nil {
			t.Fatalf("expected command for %q", key.String())
		}
		if _, ok := cmd().(router.ResetScreenMsg); !ok {
			t.Errorf("expected ResetScreenMsg for %q", key.String())
		}
	}
}
