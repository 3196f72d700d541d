package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutProvider bounds every Generate call with a deadline. A call that
// runs out of time fails with ErrTimeout rather than hanging the session
// that issued it.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider so each call is cancelled after d.
// A non-positive d returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		resp *Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := t.inner.Generate(ctx, req)
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return nil, &ErrTimeout{After: t.timeout, Err: r.err}
		}
		return r.resp, r.err
	case <-ctx.Done():
		// Providers that ignore the context must not hold the caller.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &ErrTimeout{After: t.timeout, Err: ctx.Err()}
		}
		return nil, ctx.Err()
	}
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
