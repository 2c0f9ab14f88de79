package dispatch_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamwoolhether/httpspider/internal/dispatch"
)

func TestPool_RunsAll(t *testing.T) {
	p := dispatch.New(0, nil)

	var n atomic.Int32
	for range 20 {
		if err := p.Go(t.Context(), "count", func(context.Context) error {
			n.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("scheduling: %v", err)
		}
	}

	p.Wait()
	if got := n.Load(); got != 20 {
		t.Errorf("exp 20 tasks run, got %d", got)
	}
}

func TestPool_GoDoesNotBlock(t *testing.T) {
	p := dispatch.New(0, nil)

	release := make(chan struct{})
	start := time.Now()
	if err := p.Go(t.Context(), "blocked", func(context.Context) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("scheduling: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("exp Go to return immediately, took %v", elapsed)
	}

	close(release)
	p.Wait()
}

func TestPool_Concurrency(t *testing.T) {
	const limit = 2
	p := dispatch.New(limit, nil)

	var cur, peak atomic.Int32
	for range 10 {
		_ = p.Go(t.Context(), "bounded", func(context.Context) error {
			c := cur.Add(1)
			for {
				old := peak.Load()
				if c <= old || peak.CompareAndSwap(old, c) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			cur.Add(-1)
			return nil
		})
	}

	p.Wait()
	if got := peak.Load(); got > limit {
		t.Errorf("exp at most %d concurrent tasks, got %d", limit, got)
	}
}

func TestPool_FailuresAreLoggedAndDiscarded(t *testing.T) {
	var (
		mu  sync.Mutex
		buf bytes.Buffer
	)
	logger := slog.New(slog.NewTextHandler(&lockedWriter{mu: &mu, w: &buf}, nil))
	p := dispatch.New(0, func() *slog.Logger { return logger })

	_ = p.Go(t.Context(), "fails", func(context.Context) error { return errors.New("boom") })
	_ = p.Go(t.Context(), "panics", func(context.Context) error { panic("kaboom") })
	p.Wait()

	mu.Lock()
	out := buf.String()
	buf.Reset()
	mu.Unlock()
	for _, exp := range []string{"task=fails", "error=boom", "task=panics", "kaboom", "stack=", "background task failed"} {
		if !strings.Contains(out, exp) {
			t.Errorf("exp log to contain %q, got:\n%s", exp, out)
		}
	}

	// A later batch logs only its own failures.
	const failures = 100
	for range failures {
		_ = p.Go(t.Context(), "again", func(context.Context) error { return errors.New("again") })
	}
	p.Wait()

	mu.Lock()
	out = buf.String()
	mu.Unlock()
	if strings.Contains(out, "task=fails") || strings.Contains(out, "task=panics") {
		t.Errorf("exp earlier failures not to be reported again, got:\n%s", out)
	}
	if got := strings.Count(out, "background task failed"); got != failures {
		t.Errorf("exp %d logged failures, got %d", failures, got)
	}
}

func TestPool_Shutdown(t *testing.T) {
	p := dispatch.New(0, nil)
	p.Shutdown()

	err := p.Go(t.Context(), "late", func(context.Context) error {
		t.Error("task must not run after shutdown")
		return nil
	})
	if !errors.Is(err, dispatch.ErrShutdown) {
		t.Errorf("exp %v, got: %v", dispatch.ErrShutdown, err)
	}
	p.Wait()
}

func TestPool_CanceledWhileWaitingForSlot(t *testing.T) {
	var (
		mu  sync.Mutex
		buf bytes.Buffer
	)
	logger := slog.New(slog.NewTextHandler(&lockedWriter{mu: &mu, w: &buf}, nil))
	p := dispatch.New(1, func() *slog.Logger { return logger })

	release := make(chan struct{})
	_ = p.Go(t.Context(), "holder", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	var ran atomic.Bool
	_ = p.Go(ctx, "waiter", func(context.Context) error {
		ran.Store(true)
		return nil
	})

	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(release)

	p.Wait()

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	if !strings.Contains(out, "task=waiter") || !strings.Contains(out, context.Canceled.Error()) {
		t.Errorf("exp canceled wait to be logged, got:\n%s", out)
	}
	if ran.Load() {
		t.Error("exp canceled task not to run")
	}
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
