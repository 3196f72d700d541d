// Package judge decides whether a free-text answer is semantically
// correct. Any failure of the underlying model degrades to a conservative
// "incorrect" verdict rather than an error.
package judge

import (
	"context"
	"log/slog"
	"time"

	"github.com/abhisek/quizmentor/internal/llm"
)

// FallbackComment accompanies every verdict the judge could not obtain.
const FallbackComment = "Unable to automatically verify the answer."

// Verdict is the judgment of one answer.
type Verdict struct {
	Correct bool
	Comment string

	// Degraded is set when the verdict is the conservative fallback.
	Degraded bool
}

// Judge evaluates answers. Implementations never fail: they return the
// fallback verdict instead.
type Judge interface {
	Evaluate(ctx context.Context, question, reference, answer string) Verdict
}

// Config holds configuration for the LLM judge.
type Config struct {
	MaxTokens   int
	Temperature float64

	// Timeout bounds a single evaluation.
	Timeout time.Duration

	// Language is the language comments are written in.
	Language string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   300,
		Temperature: 0,
		Timeout:     30 * time.Second,
		Language:    "English",
	}
}

// LLMJudge is a Judge backed by an llm.Provider.
type LLMJudge struct {
	provider llm.Provider
	cfg      Config
}

var _ Judge = (*LLMJudge)(nil)

// New creates an LLM-backed judge.
func New(provider llm.Provider, cfg Config) *LLMJudge {
	if cfg.Language == "" {
		cfg.Language = "English"
	}
	return &LLMJudge{provider: provider, cfg: cfg}
}

type verdictOutput struct {
	Correct bool   `json:"correct"`
	Comment string `json:"comment"`
}

// Evaluate asks the model for a verdict. A transport error, a timeout, or
// a reply that does not match VerdictSchema all yield the fallback.
func (j *LLMJudge) Evaluate(ctx context.Context, question, reference, answer string) Verdict {
	ctx = llm.WithPurpose(ctx, llm.PurposeJudge)
	if j.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.Timeout)
		defer cancel()
	}

	msg, err := buildUserMessage(promptInput{
		Question:  question,
		Reference: reference,
		Answer:    answer,
		Language:  j.cfg.Language,
	})
	if err != nil {
		return fallback("build prompt", err)
	}

	resp, err := j.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(msg),
		Schema:      VerdictSchema,
		MaxTokens:   j.cfg.MaxTokens,
		Temperature: j.cfg.Temperature,
	})
	if err != nil {
		return fallback("generate", err)
	}

	// Providers validate natively, but not every provider (or mock) does.
	if err := llm.ValidateJSON(VerdictSchema, resp.Content); err != nil {
		return fallback("validate", err)
	}
	var out verdictOutput
	if err := resp.Decode(&out); err != nil {
		return fallback("decode", err)
	}

	return Verdict{Correct: out.Correct, Comment: out.Comment}
}

func fallback(stage string, err error) Verdict {
	slog.Warn("answer evaluation degraded", "stage", stage, "err", err)
	return Verdict{Correct: false, Comment: FallbackComment, Degraded: true}
}
