package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunEmpty(t *testing.T) {
	results, err := Run(context.Background(), []Task[int]{}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results")
	}
}

func TestRunPreservesOrder(t *testing.T) {
	tasks := make([]Task[int], 20)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (int, error) {
			// Later tasks finish first.
			time.Sleep(time.Duration(20-i) * time.Millisecond)
			return i * 10, nil
		}
	}

	results, err := Run(context.Background(), tasks, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range results {
		if v != i*10 {
			t.Fatalf("slot %d: got %d want %d", i, v, i*10)
		}
	}
}

func TestRunConcurrencyCap(t *testing.T) {
	const limit = 3
	var inFlight, peak int32

	tasks := make([]Task[int], 12)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return 0, nil
		}
	}

	if _, err := Run(context.Background(), tasks, limit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := atomic.LoadInt32(&peak); p > limit {
		t.Fatalf("peak concurrency %d exceeds limit %d", p, limit)
	}
}

func TestRunFailFast(t *testing.T) {
	boom := errors.New("boom")
	var started int32

	tasks := make([]Task[int], 10)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (int, error) {
			atomic.AddInt32(&started, 1)
			if i == 0 {
				return 0, boom
			}
			time.Sleep(10 * time.Millisecond)
			return i, nil
		}
	}

	_, err := Run(context.Background(), tasks, 2)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	// The failure must prevent most queued tasks from starting.
	if s := atomic.LoadInt32(&started); s == 10 {
		t.Fatalf("expected scheduling to stop after failure")
	}
}

func TestRunAllCollectsErrors(t *testing.T) {
	tasks := make([]Task[string], 6)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (string, error) {
			if i%2 == 1 {
				return "", fmt.Errorf("task %d failed", i)
			}
			return fmt.Sprintf("ok-%d", i), nil
		}
	}

	results := RunAll(context.Background(), tasks, 3)
	if len(results) != 6 {
		t.Fatalf("expected one result per task, got %d", len(results))
	}
	for i, r := range results {
		if i%2 == 1 {
			if r.Err == nil {
				t.Fatalf("slot %d: expected error", i)
			}
			continue
		}
		if r.Err != nil {
			t.Fatalf("slot %d: unexpected error %v", i, r.Err)
		}
		if r.Value != fmt.Sprintf("ok-%d", i) {
			t.Fatalf("slot %d: got %q", i, r.Value)
		}
	}
}

func TestRunAllEmpty(t *testing.T) {
	results := RunAll(context.Background(), []Task[int]{}, 2)
	if len(results) != 0 {
		t.Fatalf("expected empty results")
	}
}

func TestRunParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	ran := 0
	tasks := make([]Task[int], 4)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) {
			mu.Lock()
			ran++
			mu.Unlock()
			<-ctx.Done()
			return 0, ctx.Err()
		}
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := Run(ctx, tasks, 2); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
