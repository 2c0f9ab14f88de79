package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrShutdown is returned by Go once Shutdown has been called.
var ErrShutdown = errors.New("dispatch pool shut down")

// Task is a unit of background work.
type Task func(ctx context.Context) error

// PanicError is logged when a Task panics.
type PanicError struct {
	Name  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.Name, e.Value)
}

// Pool runs Tasks on their own goroutines.
type Pool struct {
	wg       sync.WaitGroup
	sem      *semaphore.Weighted
	shutdown atomic.Bool
	logFn    func() *slog.Logger
}

// New creates a Pool. If maxConcurrent <= 0, concurrency is unlimited.
// logFn is consulted each time a failure is logged; nil disables logging.
func New(maxConcurrent int, logFn func() *slog.Logger) *Pool {
	p := &Pool{logFn: logFn}
	if maxConcurrent > 0 {
		p.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	if p.logFn == nil {
		p.logFn = func() *slog.Logger { return nil }
	}

	return p
}

// Go schedules fn and returns immediately. The returned error only reports
// whether fn was accepted; the outcome of fn is logged, never returned.
func (p *Pool) Go(ctx context.Context, name string, fn Task) error {
	if p.shutdown.Load() {
		return ErrShutdown
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.sem != nil {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				p.fail(ctx, name, fmt.Errorf("waiting for slot: %w", err))
				return
			}
			defer p.sem.Release(1)
		}

		if err := p.run(ctx, name, fn); err != nil {
			p.fail(ctx, name, err)
		}
	}()

	return nil
}

// Wait blocks until every accepted Task has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Shutdown stops the Pool from accepting new Tasks. Tasks already accepted
// keep running.
func (p *Pool) Shutdown() {
	p.shutdown.Store(true)
}

func (p *Pool) run(ctx context.Context, name string, fn Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Name: name, Value: rec, Stack: debug.Stack()}
		}
	}()

	return fn(ctx)
}

// fail logs err and drops it. Nothing is retained, so a Pool that is
// never waited on does not accumulate failures.
func (p *Pool) fail(ctx context.Context, name string, err error) {
	if l := p.logFn(); l != nil {
		attrs := []any{slog.String("task", name), slog.String("error", err.Error())}
		var pe *PanicError
		if errors.As(err, &pe) {
			attrs = append(attrs, slog.String("stack", string(pe.Stack)))
		}
		l.ErrorContext(ctx, "background task failed", attrs...)
	}
}
