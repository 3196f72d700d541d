package authoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/quizmentor/internal/quiz"
)

// Catalog is where authored tests are stored.
type Catalog interface {
	EnsureTopic(ctx context.Context, title string) (quiz.Topic, error)
	AddDefinition(ctx context.Context, topicID int64, questions []quiz.Question) (quiz.TestDefinition, error)
}

// Service adds topics and their tests to the catalog.
type Service struct {
	catalog Catalog
	gen     *Generator
}

// NewService creates an authoring service. gen may be nil when only
// imports are needed.
func NewService(catalog Catalog, gen *Generator) *Service {
	return &Service{catalog: catalog, gen: gen}
}

// Authored is a stored test along with its topic.
type Authored struct {
	Topic      quiz.Topic
	Definition quiz.TestDefinition
}

// Generate creates (or reuses) the topic titled title and stores a newly
// generated test of count questions for it. The new test supersedes any
// earlier one.
func (s *Service) Generate(ctx context.Context, title string, count int) (Authored, error) {
	if s.gen == nil {
		return Authored{}, fmt.Errorf("test generation is not configured")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Authored{}, fmt.Errorf("topic title is required")
	}

	questions, err := s.gen.Generate(ctx, title, count)
	if err != nil {
		return Authored{}, err
	}
	return s.Import(ctx, title, questions)
}

// Import stores questions as the latest test of the topic titled title.
func (s *Service) Import(ctx context.Context, title string, questions []quiz.Question) (Authored, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Authored{}, fmt.Errorf("topic title is required")
	}
	if err := (quiz.TestDefinition{Questions: questions}).Validate(); err != nil {
		return Authored{}, err
	}

	topic, err := s.catalog.EnsureTopic(ctx, title)
	if err != nil {
		return Authored{}, fmt.Errorf("ensure topic %q: %w", title, err)
	}
	def, err := s.catalog.AddDefinition(ctx, topic.ID, questions)
	if err != nil {
		return Authored{}, fmt.Errorf("add test to topic %q: %w", title, err)
	}

	slog.Info("test added", "topic_id", topic.ID, "topic", topic.Title, "test_id", def.ID, "questions", len(questions))
	return Authored{Topic: topic, Definition: def}, nil
}
