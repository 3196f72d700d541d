package judge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/quizmentor/internal/llm"
)

func TestEvaluate_Correct(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"correct":true,"comment":"Right, Paris it is."}`),
	})
	j := New(mock, DefaultConfig())

	v := j.Evaluate(context.Background(), "Capital of France?", "Paris", "paris")
	if !v.Correct || v.Degraded {
		t.Fatalf("expected a correct, non-degraded verdict, got %+v", v)
	}
	if v.Comment != "Right, Paris it is." {
		t.Errorf("comment = %q", v.Comment)
	}

	req := mock.Calls[0]
	if req.Schema != VerdictSchema {
		t.Error("expected the verdict schema to be requested")
	}
	msg := req.Messages[0].Content
	for _, want := range []string{"Capital of France?", "Reference answer: Paris", "Student answer: paris", "English"} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q:\n%s", want, msg)
		}
	}
}

func TestEvaluate_Incorrect(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"correct":false,"comment":"Lyon is not the capital."}`),
	})
	v := New(mock, DefaultConfig()).Evaluate(context.Background(), "Capital of France?", "Paris", "Lyon")
	if v.Correct || v.Degraded {
		t.Fatalf("expected a genuine incorrect verdict, got %+v", v)
	}
}

func TestEvaluate_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"provider error", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}}},
		{"not json", llm.MockResponse{Content: json.RawMessage(`yes, correct`)}},
		{"missing field", llm.MockResponse{Content: json.RawMessage(`{"correct":true}`)}},
		{"wrong type", llm.MockResponse{Content: json.RawMessage(`{"correct":"yes","comment":""}`)}},
		{"extra field", llm.MockResponse{Content: json.RawMessage(`{"correct":true,"comment":"","confidence":1}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(tt.resp)
			v := New(mock, DefaultConfig()).Evaluate(context.Background(), "q", "r", "a")
			if v.Correct {
				t.Fatal("fallback must never mark an answer correct")
			}
			if !v.Degraded || v.Comment != FallbackComment {
				t.Fatalf("expected fallback verdict, got %+v", v)
			}
		})
	}
}

func TestEvaluate_TimeoutFallsBack(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"correct":true,"comment":"late"}`),
		Delay:   time.Second,
	})
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond

	start := time.Now()
	v := New(mock, cfg).Evaluate(context.Background(), "q", "r", "a")
	if !v.Degraded || v.Correct {
		t.Fatalf("expected fallback after timeout, got %+v", v)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("evaluation was not bounded by the timeout")
	}
}

func TestEvaluate_EmptyAnswerStillJudged(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"correct":false,"comment":"No answer given."}`),
	})
	v := New(mock, DefaultConfig()).Evaluate(context.Background(), "q", "r", "")
	if mock.CallCount() != 1 {
		t.Fatalf("expected the judge to be consulted, got %d calls", mock.CallCount())
	}
	if v.Correct || v.Degraded {
		t.Fatalf("unexpected verdict %+v", v)
	}
}

func TestEvaluate_Language(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"correct":true,"comment":"Верно"}`)})
	cfg := DefaultConfig()
	cfg.Language = "Russian"
	New(mock, cfg).Evaluate(context.Background(), "q", "r", "a")
	if !strings.Contains(mock.Calls[0].Messages[0].Content, "Russian") {
		t.Fatal("expected the configured language in the prompt")
	}
}
