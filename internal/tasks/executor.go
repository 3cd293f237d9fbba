// Package tasks runs long operations on a bounded worker pool. Each
// submitted unit carries the context it was submitted with, so whatever
// identity or deadline the caller bound stays with the unit regardless of
// which worker picks it up.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/logsift-systems/logsift/internal/logging"
)

// ErrClosed is returned by Submit after Close has been called.
var ErrClosed = errors.New("executor closed")

// Task is a single unit of work.
type Task func(ctx context.Context) error

// Handle tracks a submitted task until completion.
type Handle struct {
	key  string
	done chan struct{}
	err  error
}

// Key returns the task's unique identifier.
func (h *Handle) Key() string { return h.key }

// Wait blocks until the task finishes and returns its terminal error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Done returns a channel closed when the task finishes.
func (h *Handle) Done() <-chan struct{} { return h.done }

type unit struct {
	ctx    context.Context
	task   Task
	handle *Handle
}

// Executor is a fixed-size worker pool for background jobs.
type Executor struct {
	queue  chan unit
	logger *logging.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewExecutor starts workers goroutines consuming a queue of the given
// capacity.
func NewExecutor(workers, capacity int, logger *logging.Logger) *Executor {
	if workers <= 0 {
		workers = 1
	}
	if capacity < 0 {
		capacity = 0
	}
	e := &Executor{
		queue:  make(chan unit, capacity),
		logger: logger,
	}
	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker()
	}
	return e
}

// Submit enqueues a task bound to the given context. It blocks while the
// queue is full and returns a handle the caller can wait on.
func (e *Executor) Submit(ctx context.Context, task Task) (*Handle, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	handle := &Handle{
		key:  uuid.NewString(),
		done: make(chan struct{}),
	}
	e.queue <- unit{ctx: ctx, task: task, handle: handle}
	e.mu.Unlock()
	return handle, nil
}

// Close stops accepting tasks and waits for queued work to drain.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for u := range e.queue {
		u.handle.err = e.run(u)
		close(u.handle.done)
	}
}

func (e *Executor) run(u unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
			e.logger.Error("background task panicked", logging.Error(err))
		}
	}()
	return u.task(u.ctx)
}
