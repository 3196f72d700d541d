// Package authoring creates test definitions, either by asking an LLM for
// questions on a topic or by importing them from a spreadsheet.
package authoring

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/quizmentor/internal/llm"
	"github.com/abhisek/quizmentor/internal/quiz"
)

// Config holds configuration for the test generator.
type Config struct {
	MaxTokens   int
	Temperature float64
	Language    string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1500,
		Temperature: 0.2,
		Language:    "English",
	}
}

// Generator writes tests with an LLM.
type Generator struct {
	provider llm.Provider
	cfg      Config
}

// NewGenerator creates an LLM-backed test generator.
func NewGenerator(provider llm.Provider, cfg Config) *Generator {
	if cfg.Language == "" {
		cfg.Language = "English"
	}
	return &Generator{provider: provider, cfg: cfg}
}

const systemPrompt = `You write assessment tests for a teacher.

Rules:
- Every question is short, open-ended and can be answered in one or two sentences.
- Every reference answer is correct, concise and unambiguous.
- Questions must not depend on each other or on any material the student cannot see.
- Use a strict, businesslike tone without emotional language.`

var userTemplate = template.Must(template.New("test").Parse(`Topic: {{.Topic}}

Write exactly {{.Count}} questions with reference answers in {{.Language}}.`))

type testOutput struct {
	Questions []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"questions"`
}

// Generate asks for count questions on topic. Items with an empty question
// or answer are dropped and extras are cut off; a reply with no usable
// question is an error.
func (g *Generator) Generate(ctx context.Context, topic string, count int) ([]quiz.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", count)
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeAuthor)

	var buf bytes.Buffer
	err := userTemplate.Execute(&buf, map[string]any{
		"Topic":    topic,
		"Count":    count,
		"Language": g.cfg.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("build test prompt: %w", err)
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(buf.String()),
		Schema:      TestSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate test for %q: %w", topic, err)
	}
	if err := llm.ValidateJSON(TestSchema, resp.Content); err != nil {
		return nil, err
	}

	var out testOutput
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}

	questions := make([]quiz.Question, 0, count)
	for _, item := range out.Questions {
		q := quiz.Question{
			Prompt:    strings.TrimSpace(item.Question),
			Reference: strings.TrimSpace(item.Answer),
		}
		if q.Prompt == "" || q.Reference == "" {
			continue
		}
		questions = append(questions, q)
		if len(questions) == count {
			break
		}
	}
	if len(questions) == 0 {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("no usable questions")}
	}
	return questions, nil
}
