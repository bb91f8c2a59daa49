package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fieldops/leadextract/internal/pipeline/worker"
)

func fastOpts(workers, attempts int) worker.Options {
	return worker.Options{
		Workers:        workers,
		MaxAttempts:    attempts,
		RequestTimeout: 1 * time.Second,
		BackoffBase:    1 * time.Millisecond,
		BackoffMin:     1 * time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
	}
}

func TestProcessAll_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0
	failUntil := 2

	fn := func(_ context.Context, _ string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= failUntil {
			return "", errors.New("try again")
		}
		return "ok", nil
	}

	out, err := worker.ProcessAll(context.Background(), []string{"card-001.jpg"}, fn, fastOpts(1, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output, got %d", len(out))
	}
	if out[0].Err != nil || out[0].Output != "ok" {
		t.Fatalf("unexpected output: %#v", out[0])
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestProcessAll_ExhaustsAttemptsAndKeepsLastError(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0

	fn := func(_ context.Context, _ string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 3 {
			return "", errors.New("rate limited, final")
		}
		return "", errors.New("rate limited")
	}

	out, err := worker.ProcessAll(context.Background(), []string{"card-001.jpg"}, fn, fastOpts(1, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output, got %d", len(out))
	}
	if out[0].Err == nil || out[0].Err.Error() != "rate limited, final" {
		t.Fatalf("expected last attempt's error, got %#v", out[0].Err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestProcessAll_NeverExceedsWorkerCap(t *testing.T) {
	t.Parallel()

	var inFlight atomic.Int64
	var peak atomic.Int64

	fn := func(_ context.Context, in string) (string, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return in, nil
	}

	items := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}
	out, err := worker.ProcessAll(context.Background(), items, fn, fastOpts(2, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 outputs, got %d", len(out))
	}
	for i, res := range out {
		if res.Err != nil || res.Output != items[i] {
			t.Fatalf("unexpected output[%d]: %#v", i, res)
		}
	}
	if got := peak.Load(); got > 2 {
		t.Fatalf("observed %d concurrent calls, cap is 2", got)
	}
}

func TestProcessAll_EmptyInput(t *testing.T) {
	t.Parallel()

	fn := func(_ context.Context, in string) (string, error) {
		t.Fatal("processor must not run for empty input")
		return in, nil
	}

	out, err := worker.ProcessAll(context.Background(), nil, fn, fastOpts(4, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
}

func TestProcessAll_FailingItemDoesNotAffectOthers(t *testing.T) {
	t.Parallel()

	fn := func(_ context.Context, in string) (string, error) {
		if in == "bad.jpg" {
			return "", errors.New("always fails")
		}
		return in, nil
	}

	items := []string{"one.jpg", "bad.jpg", "three.jpg"}
	out, err := worker.ProcessAll(context.Background(), items, fn, fastOpts(3, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(out))
	}
	if out[0].Err != nil || out[0].Output != "one.jpg" {
		t.Fatalf("unexpected output[0]: %#v", out[0])
	}
	if out[1].Err == nil {
		t.Fatalf("expected failure for bad.jpg, got %#v", out[1])
	}
	if out[2].Err != nil || out[2].Output != "three.jpg" {
		t.Fatalf("unexpected output[2]: %#v", out[2])
	}
}

func TestProcessAllWithCallback_ReportsEveryCompletion(t *testing.T) {
	t.Parallel()

	fn := func(_ context.Context, in string) (string, error) {
		return in, nil
	}

	items := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}
	completed := 0
	out, err := worker.ProcessAllWithCallback(context.Background(), items, fn,
		func(_ worker.Result[string, string]) { completed++ },
		fastOpts(2, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 outputs, got %d", len(out))
	}
	if completed != 4 {
		t.Fatalf("expected 4 completion callbacks, got %d", completed)
	}
}

func TestProcessAll_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := func(_ context.Context, in string) (string, error) {
		return in, nil
	}

	_, err := worker.ProcessAll(ctx, []string{"a.jpg"}, fn, fastOpts(1, 3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
