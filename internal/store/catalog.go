package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizmentor/internal/quiz"
)

// CatalogRepo stores topics and their test definitions.
type CatalogRepo struct {
	s *Store
}

// Catalog returns the test catalog backed by this store.
func (s *Store) Catalog() *CatalogRepo {
	return &CatalogRepo{s: s}
}

// EnsureTopic returns the topic with the given title, creating it first if
// it does not exist yet.
func (r *CatalogRepo) EnsureTopic(ctx context.Context, title string) (quiz.Topic, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return quiz.Topic{}, fmt.Errorf("topic title is empty")
	}

	t, err := r.TopicByTitle(ctx, title)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return quiz.Topic{}, err
	}

	now := time.Now().UTC()
	ins := r.s.sqlb().Insert(topicsTable.Name).
		Columns("title", "created_at").
		Values(title, now)
	id, err := r.s.insertID(ctx, r.s.drv, ins)
	if err != nil {
		return quiz.Topic{}, fmt.Errorf("create topic %q: %w", title, err)
	}
	return quiz.Topic{ID: id, Title: title, CreatedAt: now}, nil
}

// Topic returns the topic with the given id.
func (r *CatalogRepo) Topic(ctx context.Context, id int64) (quiz.Topic, error) {
	return r.topicWhere(ctx, entsql.EQ("id", id))
}

// TopicByTitle returns the topic with the given title.
func (r *CatalogRepo) TopicByTitle(ctx context.Context, title string) (quiz.Topic, error) {
	return r.topicWhere(ctx, entsql.EQ("title", strings.TrimSpace(title)))
}

func (r *CatalogRepo) topicWhere(ctx context.Context, p *entsql.Predicate) (quiz.Topic, error) {
	q := r.s.sqlb().Select("id", "title", "created_at").
		From(r.s.sqlb().Table(topicsTable.Name)).
		Where(p)

	var t quiz.Topic
	if err := queryOne(ctx, r.s.drv, q, &t.ID, &t.Title, &t.CreatedAt); err != nil {
		return quiz.Topic{}, fmt.Errorf("get topic: %w", err)
	}
	return t, nil
}

// ListTopics returns every topic in creation order.
func (r *CatalogRepo) ListTopics(ctx context.Context) ([]quiz.Topic, error) {
	q := r.s.sqlb().Select("id", "title", "created_at").
		From(r.s.sqlb().Table(topicsTable.Name)).
		OrderBy("id")

	var topics []quiz.Topic
	err := queryRows(ctx, r.s.drv, q, func(rows *entsql.Rows) error {
		var t quiz.Topic
		if err := rows.Scan(&t.ID, &t.Title, &t.CreatedAt); err != nil {
			return err
		}
		topics = append(topics, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// AddDefinition stores a new immutable test definition for the topic. It
// becomes the latest definition.
func (r *CatalogRepo) AddDefinition(ctx context.Context, topicID int64, questions []quiz.Question) (quiz.TestDefinition, error) {
	def := quiz.TestDefinition{TopicID: topicID, Questions: questions, CreatedAt: time.Now().UTC()}
	if err := def.Validate(); err != nil {
		return quiz.TestDefinition{}, err
	}

	raw, err := json.Marshal(questions)
	if err != nil {
		return quiz.TestDefinition{}, fmt.Errorf("marshal questions: %w", err)
	}

	ins := r.s.sqlb().Insert(testsTable.Name).
		Columns("topic_id", "questions_json", "created_at").
		Values(topicID, string(raw), def.CreatedAt)
	def.ID, err = r.s.insertID(ctx, r.s.drv, ins)
	if err != nil {
		return quiz.TestDefinition{}, fmt.Errorf("add test definition to topic %d: %w", topicID, err)
	}
	return def, nil
}

// LatestDefinition returns the most recently created definition for the
// topic, with ties broken by id. ErrNotFound when the topic has none.
func (r *CatalogRepo) LatestDefinition(ctx context.Context, topicID int64) (quiz.TestDefinition, error) {
	q := r.s.sqlb().Select("id", "topic_id", "questions_json", "created_at").
		From(r.s.sqlb().Table(testsTable.Name)).
		Where(entsql.EQ("topic_id", topicID)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(1)

	var def quiz.TestDefinition
	var raw string
	if err := queryOne(ctx, r.s.drv, q, &def.ID, &def.TopicID, &raw, &def.CreatedAt); err != nil {
		return quiz.TestDefinition{}, fmt.Errorf("latest definition for topic %d: %w", topicID, err)
	}
	if err := json.Unmarshal([]byte(raw), &def.Questions); err != nil {
		return quiz.TestDefinition{}, fmt.Errorf("decode questions of test %d: %w", def.ID, err)
	}
	return def, nil
}
