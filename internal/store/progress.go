package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizmentor/internal/quiz"
)

// ProgressRepo is the append-only history of completed sessions.
type ProgressRepo struct {
	s *Store
}

// Progress returns the progress store backed by this store.
func (s *Store) Progress() *ProgressRepo {
	return &ProgressRepo{s: s}
}

// Append persists rec and its answers in one transaction. Appending a
// record whose ID is already stored is a no-op, so a retry after an
// ambiguous failure cannot duplicate history.
func (r *ProgressRepo) Append(ctx context.Context, rec quiz.ProgressRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("progress record has no id")
	}
	resultJSON, err := json.Marshal(rec.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	return r.s.withTx(ctx, func(tx dialect.Tx) error {
		var existing int64
		exists := r.s.sqlb().Select("id").
			From(r.s.sqlb().Table(progressTable.Name)).
			Where(entsql.EQ("record_id", rec.ID))
		err := queryOne(ctx, tx, exists, &existing)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("check progress record %s: %w", rec.ID, err)
		}

		ins := r.s.sqlb().Insert(progressTable.Name).
			Columns("record_id", "user_id", "topic_id", "test_id", "score", "passed", "result_json", "completed_at").
			Values(rec.ID, rec.UserID, rec.TopicID, rec.TestID, rec.Score, rec.Passed, string(resultJSON), rec.CompletedAt.UTC())
		progressID, err := r.s.insertID(ctx, tx, ins)
		if err != nil {
			return fmt.Errorf("insert progress record %s: %w", rec.ID, err)
		}

		if len(rec.Answers) == 0 {
			return nil
		}
		answers := r.s.sqlb().Insert(progressAnswersTable.Name).
			Columns("progress_id", "ordinal", "prompt", "reference", "answer", "correct", "comment")
		for i, a := range rec.Answers {
			answers.Values(progressID, i, a.Prompt, a.Reference, a.Answer, a.Correct, a.Comment)
		}
		if err := execStmt(ctx, tx, answers); err != nil {
			return fmt.Errorf("insert answers of %s: %w", rec.ID, err)
		}
		return nil
	})
}

// Get loads a single record by its id, answers included.
func (r *ProgressRepo) Get(ctx context.Context, recordID string) (quiz.ProgressRecord, error) {
	recs, err := r.list(ctx, entsql.EQ("record_id", recordID))
	if err != nil {
		return quiz.ProgressRecord{}, err
	}
	if len(recs) == 0 {
		return quiz.ProgressRecord{}, fmt.Errorf("progress record %s: %w", recordID, ErrNotFound)
	}
	return recs[0], nil
}

// ForUser returns the user's history, oldest first, answers included.
func (r *ProgressRepo) ForUser(ctx context.Context, userID int64) ([]quiz.ProgressRecord, error) {
	return r.list(ctx, entsql.EQ("user_id", userID))
}

func (r *ProgressRepo) list(ctx context.Context, where *entsql.Predicate) ([]quiz.ProgressRecord, error) {
	q := r.s.sqlb().Select("id", "record_id", "user_id", "topic_id", "test_id", "score", "passed", "completed_at").
		From(r.s.sqlb().Table(progressTable.Name)).
		Where(where).
		OrderBy("completed_at", "id")

	var recs []quiz.ProgressRecord
	var ids []int64
	err := queryRows(ctx, r.s.drv, q, func(rows *entsql.Rows) error {
		var id int64
		var rec quiz.ProgressRecord
		if err := rows.Scan(&id, &rec.ID, &rec.UserID, &rec.TopicID, &rec.TestID, &rec.Score, &rec.Passed, &rec.CompletedAt); err != nil {
			return err
		}
		ids = append(ids, id)
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	for i, id := range ids {
		answers, err := r.answers(ctx, id)
		if err != nil {
			return nil, err
		}
		recs[i].Answers = answers
	}
	return recs, nil
}

func (r *ProgressRepo) answers(ctx context.Context, progressID int64) ([]quiz.AnswerRecord, error) {
	q := r.s.sqlb().Select("prompt", "reference", "answer", "correct", "comment").
		From(r.s.sqlb().Table(progressAnswersTable.Name)).
		Where(entsql.EQ("progress_id", progressID)).
		OrderBy("ordinal")

	var out []quiz.AnswerRecord
	err := queryRows(ctx, r.s.drv, q, func(rows *entsql.Rows) error {
		var a quiz.AnswerRecord
		if err := rows.Scan(&a.Prompt, &a.Reference, &a.Answer, &a.Correct, &a.Comment); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list answers of progress %d: %w", progressID, err)
	}
	return out, nil
}

// ResultsForTopic returns every completed attempt on the topic with the
// participant's name, oldest first. Answers come from the JSON snapshot
// stored with each record.
func (r *ProgressRepo) ResultsForTopic(ctx context.Context, topicID int64) ([]quiz.Result, error) {
	b := r.s.sqlb()
	p, u, t := b.Table(progressTable.Name), b.Table(usersTable.Name), b.Table(topicsTable.Name)

	q := b.Select(
		p.C("record_id"), p.C("user_id"), p.C("topic_id"), p.C("test_id"),
		p.C("score"), p.C("passed"), p.C("result_json"), p.C("completed_at"),
		u.C("full_name"), t.C("title"),
	).
		From(p).
		Join(u).On(p.C("user_id"), u.C("id")).
		Join(t).On(p.C("topic_id"), t.C("id")).
		Where(entsql.EQ(p.C("topic_id"), topicID)).
		OrderBy(p.C("completed_at"), p.C("id"))

	var out []quiz.Result
	err := queryRows(ctx, r.s.drv, q, func(rows *entsql.Rows) error {
		var res quiz.Result
		var raw string
		if err := rows.Scan(&res.ID, &res.UserID, &res.TopicID, &res.TestID, &res.Score, &res.Passed,
			&raw, &res.CompletedAt, &res.FullName, &res.TopicTitle); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(raw), &res.Answers); err != nil {
			return fmt.Errorf("decode answers of %s: %w", res.ID, err)
		}
		out = append(out, res)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("results for topic %d: %w", topicID, err)
	}
	return out, nil
}
