package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls atomic.Int32
	ttl   atomic.Int64
}

func (f *fakeSweeper) Sweep(ttl time.Duration) int {
	f.calls.Add(1)
	f.ttl.Store(int64(ttl))
	return 1
}

type fakeFlusher struct {
	pending atomic.Int32
	flushes atomic.Int32
	fail    bool
}

func (f *fakeFlusher) Len() int { return int(f.pending.Load()) }

func (f *fakeFlusher) Flush(ctx context.Context) (int, error) {
	f.flushes.Add(1)
	if f.fail {
		return 0, errors.New("still down")
	}
	n := f.pending.Swap(0)
	return int(n), nil
}

func TestScheduler_RunsJobs(t *testing.T) {
	sw := &fakeSweeper{}
	fl := &fakeFlusher{}
	fl.pending.Store(2)

	s := New(sw, fl, Config{
		IdleTTL:    time.Hour,
		SweepEvery: 20 * time.Millisecond,
		FlushEvery: 20 * time.Millisecond,
	})
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	assert.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return fl.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(time.Hour), sw.ttl.Load())
}

func TestScheduler_FlushSkipsEmptyOutbox(t *testing.T) {
	fl := &fakeFlusher{}
	s := New(nil, fl, DefaultConfig())

	s.flush()
	assert.Zero(t, fl.flushes.Load())

	fl.pending.Store(1)
	fl.fail = true
	s.flush()
	assert.Equal(t, int32(1), fl.flushes.Load())
	assert.Equal(t, 1, fl.Len())
}

func TestScheduler_NilCollaborators(t *testing.T) {
	s := New(nil, nil, DefaultConfig())
	require.NoError(t, s.Start())
	s.Stop()
}
