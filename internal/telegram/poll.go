package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateSource fetches updates by long polling. *tgbotapi.BotAPI
// satisfies it.
type UpdateSource interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

const (
	pollTimeoutSec = 30
	baseDelay      = time.Second
	maxDelay       = 15 * time.Second
	idleDelay      = 200 * time.Millisecond
)

// Poll long-polls src until ctx is cancelled and hands each update to
// handle. Updates from different chats run concurrently; updates from the
// same chat are handled one at a time in arrival order. Poll returns after
// in-flight updates finish.
func Poll(ctx context.Context, src UpdateSource, handle func(context.Context, tgbotapi.Update)) error {
	d := newDispatcher(func(upd tgbotapi.Update) { handle(ctx, upd) })
	defer d.wait()

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = pollTimeoutSec

		updates, err := src.GetUpdates(u)
		if err != nil {
			delay := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			slog.Warn("telegram polling error", "error", err, "retry_in", delay)
			if !sleep(ctx, delay) {
				return nil
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			d.dispatch(chatKey(upd), upd)
		}

		if len(updates) == 0 && !sleep(ctx, idleDelay) {
			return nil
		}
	}
}

func chatKey(upd tgbotapi.Update) int64 {
	if upd.Message != nil {
		return upd.Message.Chat.ID
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return time.Duration(tgErr.RetryAfter) * time.Second
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return baseDelay
}

// dispatcher runs one worker goroutine per busy chat. A chat's worker
// drains its queue and exits when the queue is empty.
type dispatcher struct {
	handle func(tgbotapi.Update)

	mu     sync.Mutex
	queues map[int64][]tgbotapi.Update
	wg     sync.WaitGroup
}

func newDispatcher(handle func(tgbotapi.Update)) *dispatcher {
	return &dispatcher{handle: handle, queues: make(map[int64][]tgbotapi.Update)}
}

func (d *dispatcher) dispatch(key int64, upd tgbotapi.Update) {
	d.mu.Lock()
	q, running := d.queues[key]
	d.queues[key] = append(q, upd)
	d.mu.Unlock()

	if running {
		return
	}
	d.wg.Add(1)
	go d.drain(key)
}

func (d *dispatcher) drain(key int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[key]
		if len(q) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		upd := q[0]
		d.queues[key] = q[1:]
		d.mu.Unlock()

		d.handle(upd)
	}
}

func (d *dispatcher) wait() {
	d.wg.Wait()
}
