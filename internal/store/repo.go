package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match
	From    time.Time // created_at >= From
	To      time.Time // created_at <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRepo records LLM API calls.
type LLMEventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// sqlb returns a statement builder for the store's dialect.
func (s *Store) sqlb() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// execStmt runs a statement that returns no rows.
func execStmt(ctx context.Context, eq dialect.ExecQuerier, q entsql.Querier) error {
	query, args := q.Query()
	return eq.Exec(ctx, query, args, nil)
}

// queryRows runs q and calls scan once per row.
func queryRows(ctx context.Context, eq dialect.ExecQuerier, q entsql.Querier, scan func(*entsql.Rows) error) error {
	query, args := q.Query()
	var rows entsql.Rows
	if err := eq.Query(ctx, query, args, &rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(&rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// queryOne scans the first row of q, or returns ErrNotFound.
func queryOne(ctx context.Context, eq dialect.ExecQuerier, q entsql.Querier, dest ...any) error {
	found := false
	err := queryRows(ctx, eq, q, func(rows *entsql.Rows) error {
		if found {
			return nil
		}
		found = true
		return rows.Scan(dest...)
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// insertID runs an insert and returns the generated id. Postgres reports
// it through RETURNING, SQLite through the driver's last insert id.
func (s *Store) insertID(ctx context.Context, eq dialect.ExecQuerier, ins *entsql.InsertBuilder) (int64, error) {
	if s.dialect == dialect.Postgres {
		var id int64
		if err := queryOne(ctx, eq, ins.Returning("id"), &id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args := ins.Query()
	var res sql.Result
	if err := eq.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
