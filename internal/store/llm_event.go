package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// LLMEvent is a recorded LLM request.
type LLMEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates calls sharing a purpose or a model.
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMEventsRepo stores and queries LLM request events.
type LLMEventsRepo struct {
	s *Store
}

// LLMEvents returns the LLM event repository backed by this store.
func (s *Store) LLMEvents() *LLMEventsRepo {
	return &LLMEventsRepo{s: s}
}

var _ LLMEventRepo = (*LLMEventsRepo)(nil)

func (r *LLMEventsRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	ins := r.s.sqlb().Insert(llmEventsTable.Name).
		Columns("created_at", "provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "success", "error_message", "request_body", "response_body").
		Values(time.Now().UTC(), data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
			data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody)
	if err := execStmt(ctx, r.s.drv, ins); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

var llmEventColumns = []string{
	"id", "created_at", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

func scanLLMEvent(rows *entsql.Rows) (LLMEvent, error) {
	var e LLMEvent
	err := rows.Scan(&e.ID, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose, &e.InputTokens, &e.OutputTokens,
		&e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	return e, err
}

// Query returns events newest first.
func (r *LLMEventsRepo) Query(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	q := r.s.sqlb().Select(llmEventColumns...).
		From(r.s.sqlb().Table(llmEventsTable.Name)).
		OrderBy(entsql.Desc("id"))

	var preds []*entsql.Predicate
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", opts.To.UTC()))
	}
	if len(preds) > 0 {
		q.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}

	var events []LLMEvent
	err := queryRows(ctx, r.s.drv, q, func(rows *entsql.Rows) error {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return err
		}
		events = append(events, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return events, nil
}

// Get returns one event, or nil when it does not exist.
func (r *LLMEventsRepo) Get(ctx context.Context, id int64) (*LLMEvent, error) {
	q := r.s.sqlb().Select(llmEventColumns...).
		From(r.s.sqlb().Table(llmEventsTable.Name)).
		Where(entsql.EQ("id", id))

	var found *LLMEvent
	err := queryRows(ctx, r.s.drv, q, func(rows *entsql.Rows) error {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return err
		}
		found = &e
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return found, nil
}

// UsageByPurpose aggregates token usage per purpose.
func (r *LLMEventsRepo) UsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usageBy(ctx, "purpose")
}

// UsageByModel aggregates token usage per model.
func (r *LLMEventsRepo) UsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usageBy(ctx, "model")
}

func (r *LLMEventsRepo) usageBy(ctx context.Context, column string) ([]LLMUsage, error) {
	q := r.s.sqlb().Select(
		column,
		entsql.Count("*"),
		entsql.Sum("input_tokens"),
		entsql.Sum("output_tokens"),
		entsql.Avg("latency_ms"),
	).
		From(r.s.sqlb().Table(llmEventsTable.Name)).
		GroupBy(column).
		OrderBy(column)

	var out []LLMUsage
	err := queryRows(ctx, r.s.drv, q, func(rows *entsql.Rows) error {
		var u LLMUsage
		var in, outTok int64
		var avg float64
		if err := rows.Scan(&u.Key, &u.Calls, &in, &outTok, &avg); err != nil {
			return err
		}
		u.InputTokens, u.OutputTokens, u.AvgLatencyMs = int(in), int(outTok), int64(avg)
		out = append(out, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by %s: %w", column, err)
	}
	return out, nil
}
