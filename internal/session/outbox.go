package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abhisek/quizmentor/internal/quiz"
)

// Outbox holds progress records whose append failed, until a later flush
// stores them. Appends are idempotent on the record ID, so flushing a
// record that did reach the store is harmless.
type Outbox struct {
	store ProgressStore

	flushMu sync.Mutex

	mu      sync.Mutex
	pending []quiz.ProgressRecord
}

// NewOutbox creates an outbox that flushes into store.
func NewOutbox(store ProgressStore) *Outbox {
	return &Outbox{store: store}
}

// Add queues rec. A record already queued is not added twice.
func (o *Outbox) Add(rec quiz.ProgressRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.pending {
		if p.ID == rec.ID {
			return
		}
	}
	o.pending = append(o.pending, rec)
}

// Len returns the number of queued records.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Pending returns a copy of the queued records.
func (o *Outbox) Pending() []quiz.ProgressRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]quiz.ProgressRecord, len(o.pending))
	copy(out, o.pending)
	return out
}

// Flush tries to store every queued record and drops the ones that
// succeed. It returns how many were stored and the joined errors of the
// rest. Concurrent flushes run one at a time.
func (o *Outbox) Flush(ctx context.Context) (int, error) {
	o.flushMu.Lock()
	defer o.flushMu.Unlock()

	batch := o.Pending()
	if len(batch) == 0 {
		return 0, nil
	}

	stored := make(map[string]bool, len(batch))
	var errs []error
	for _, rec := range batch {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := o.store.Append(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", rec.ID, err))
			continue
		}
		stored[rec.ID] = true
		slog.Info("queued progress record stored", "record_id", rec.ID, "user_id", rec.UserID, "topic_id", rec.TopicID)
	}

	o.mu.Lock()
	kept := o.pending[:0]
	for _, p := range o.pending {
		if !stored[p.ID] {
			kept = append(kept, p)
		}
	}
	o.pending = kept
	o.mu.Unlock()

	return len(stored), errors.Join(errs...)
}
