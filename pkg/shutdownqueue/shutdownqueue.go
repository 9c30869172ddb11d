// Package shutdownqueue is a process-wide LIFO queue of named cleanup tasks.
//
// Resources register their release right after they are acquired, and main
// drains the queue once on exit:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	err := shutdownqueue.Shutdown(ctx)
//
// Each task runs once, newest first, with panics recovered. Task errors are
// prefixed with the task name and joined.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task releases one resource. It should honor ctx.
type Task func(ctx context.Context) error

type entry struct {
	name string
	run  Task
}

type queue struct {
	mu     sync.Mutex
	tasks  []entry
	closed bool
}

var q = &queue{tasks: make([]entry, 0, 8)}

// Add registers a task under name. Nil tasks and tasks added after
// Shutdown has started are ignored.
func Add(name string, t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		slog.Warn("shutdown already started, task ignored", "task", name)
		return
	}

	q.tasks = append(q.tasks, entry{name: name, run: t})
}

// Shutdown drains the queue in LIFO order. Later calls are no-ops.
// When ctx ends mid-drain the remaining tasks are skipped and the context
// error is joined into the result.
func Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	var errs []error

	for i := len(tasks) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("shutdown canceled before %q: %w", tasks[i].name, ctx.Err()))

			return errors.Join(errs...)
		}

		err := runTask(ctx, tasks[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, e entry) (err error) {
	start := time.Now()

	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task %q: %v", e.name, r)
		}

		if err != nil {
			slog.Error("shutdown task failed", "task", e.name, "duration", time.Since(start), "error", err)
			return
		}

		slog.Info("shutdown task done", "task", e.name, "duration", time.Since(start))
	}()

	err = e.run(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", e.name, err)
	}

	return nil
}
