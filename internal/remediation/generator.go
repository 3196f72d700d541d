package remediation

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/quizmentor/internal/llm"
)

// Generator produces follow-up questions for an incorrectly answered
// question.
type Generator interface {
	Followups(ctx context.Context, question, answer string, count int) ([]string, error)
}

// GeneratorConfig holds configuration for the LLM generator.
type GeneratorConfig struct {
	MaxTokens   int
	Temperature float64
	Language    string
}

// DefaultGeneratorConfig returns sensible defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxTokens:   600,
		Temperature: 0.7,
		Language:    "English",
	}
}

// LLMGenerator is a Generator backed by an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	cfg      GeneratorConfig
}

var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator creates an LLM-backed follow-up generator.
func NewLLMGenerator(provider llm.Provider, cfg GeneratorConfig) *LLMGenerator {
	if cfg.Language == "" {
		cfg.Language = "English"
	}
	return &LLMGenerator{provider: provider, cfg: cfg}
}

const systemPrompt = `You are a tutor helping a student who answered a test question incorrectly.

Rules:
- Write short, self-contained questions that lead the student back to the concept they missed.
- Start from the most fundamental idea and build towards the original question.
- Do not give away the answer to the original question.
- Each question must be answerable in one or two sentences.`

var userTemplate = template.Must(template.New("followup").Parse(`Original question: {{.Question}}
Student's answer: {{.Answer}}

Write exactly {{.Count}} follow-up questions in {{.Language}}.`))

type followupOutput struct {
	Questions []string `json:"questions"`
}

// Followups asks the model for count follow-up questions. A reply with
// none or more than count fails validation. The result is trimmed and
// stripped of blank entries; an empty result is an error.
func (g *LLMGenerator) Followups(ctx context.Context, question, answer string, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeFollowup)

	var buf bytes.Buffer
	err := userTemplate.Execute(&buf, map[string]any{
		"Question": question,
		"Answer":   answer,
		"Count":    count,
		"Language": g.cfg.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("build follow-up prompt: %w", err)
	}

	schema := FollowupSchema(count)
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(buf.String()),
		Schema:      schema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate follow-ups: %w", err)
	}
	if err := llm.ValidateJSON(schema, resp.Content); err != nil {
		return nil, err
	}

	var out followupOutput
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}

	questions := clean(out.Questions, count)
	if len(questions) == 0 {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("no usable follow-up questions")}
	}
	return questions, nil
}

func clean(in []string, limit int) []string {
	out := make([]string, 0, min(len(in), limit))
	for _, q := range in {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	return out
}
