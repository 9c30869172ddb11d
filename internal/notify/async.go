package notify

import (
	"context"
	"log/slog"
	"sync"
)

type pending struct {
	ctx     context.Context
	userID  string
	balance int64
}

// Async runs a slow sink on its own goroutine behind a bounded queue.
// Notifications that do not fit into the queue are dropped and logged.
type Async struct {
	next  Notifier
	queue chan pending
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsync(next Notifier, size int) *Async {
	if size <= 0 {
		size = 1
	}

	a := &Async{
		next:  next,
		queue: make(chan pending, size),
		done:  make(chan struct{}),
	}

	go a.run()

	return a
}

func (a *Async) run() {
	defer close(a.done)

	for p := range a.queue {
		a.next.Notify(p.ctx, p.userID, p.balance)
	}
}

func (a *Async) Notify(ctx context.Context, userID string, balance int64) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return
	}

	select {
	case a.queue <- pending{ctx: context.WithoutCancel(ctx), userID: userID, balance: balance}:
	default:
		slog.WarnContext(ctx, "notification queue full, dropping balance update",
			"user_id", userID,
			"balance", balance)
	}
}

// Close stops accepting notifications and waits for the queue to drain or
// for ctx to expire.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
