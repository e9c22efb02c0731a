package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testSink records pool events for assertions.
type testSink struct {
	started atomic.Int64
	adjust  atomic.Int64
	workers atomic.Int64

	mu      sync.Mutex
	results []sinkResult
}

type sinkResult struct {
	success    bool
	service    time.Duration
	queue      time.Duration
	queueKnown bool
}

func (s *testSink) RequestStarted() { s.started.Add(1) }

func (s *testSink) StepResult(success bool, service, queue time.Duration, queueKnown bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, sinkResult{success, service, queue, queueKnown})
}

func (s *testSink) SetWorkerThreads(n int) { s.workers.Store(int64(n)) }

func (s *testSink) AdjustInFlight(delta int64) { s.adjust.Add(delta) }

func (s *testSink) resultCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func waitDone(t *testing.T, p Pool, timeout time.Duration) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(timeout):
		t.Fatal("pool did not drain in time")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorkerCount(t *testing.T) {
	cpus := runtime.NumCPU()

	tests := []struct {
		name        string
		maxWorkers  int
		concurrency int
		want        int
	}{
		{"explicit wins", 7, 100000, 7},
		{"small concurrency uses cpu base", 0, 1, cpus * 2},
		{"scales with concurrency", 0, cpus * 100, minInt(cpus*10, minInt(1000, cpus*50))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorkerCount(tt.maxWorkers, tt.concurrency); got != tt.want {
				t.Errorf("WorkerCount(%d, %d) = %d, want %d", tt.maxWorkers, tt.concurrency, got, tt.want)
			}
		})
	}

	// The ceiling holds regardless of concurrency.
	ceil := cpus * 50
	if ceil > 1000 {
		ceil = 1000
	}
	if got := WorkerCount(0, 10_000_000); got != ceil {
		t.Errorf("WorkerCount(0, 10M) = %d, want ceiling %d", got, ceil)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func TestHybrid_ExecutesAll(t *testing.T) {
	sink := &testSink{}
	op := func(ctx context.Context) error { return nil }

	p := NewHybrid(context.Background(), op, sink, HybridConfig{Workers: 4})
	for i := 0; i < 100; i++ {
		if err := p.Submit(context.Background()); err != nil {
			t.Fatalf("Submit() error: %v", err)
		}
	}
	p.Close()
	waitDone(t, p, 5*time.Second)

	if got := sink.started.Load(); got != 100 {
		t.Errorf("started = %d, want 100", got)
	}
	if got := sink.resultCount(); got != 100 {
		t.Errorf("results = %d, want 100", got)
	}
	if got := sink.workers.Load(); got != 4 {
		t.Errorf("workers reported = %d, want 4", got)
	}
	if got := p.Abandoned(); got != 0 {
		t.Errorf("Abandoned() = %d, want 0", got)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, r := range sink.results {
		if !r.success {
			t.Error("operation result recorded as failure, want success")
			break
		}
		if !r.queueKnown {
			t.Error("hybrid pool must report queue time")
			break
		}
		if r.queue < 0 {
			t.Errorf("negative queue time %v", r.queue)
			break
		}
	}
}

func TestHybrid_ErrorAndPanicAreFailures(t *testing.T) {
	sink := &testSink{}
	var calls atomic.Int64
	op := func(ctx context.Context) error {
		switch calls.Add(1) % 3 {
		case 0:
			panic("synthetic panic")
		case 1:
			return errors.New("synthetic error")
		default:
			return nil
		}
	}

	p := NewHybrid(context.Background(), op, sink, HybridConfig{Workers: 2})
	for i := 0; i < 30; i++ {
		p.Submit(context.Background())
	}
	p.Close()
	waitDone(t, p, 5*time.Second)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	var success, failure int
	for _, r := range sink.results {
		if r.success {
			success++
		} else {
			failure++
		}
	}
	if success != 10 || failure != 20 {
		t.Errorf("success/failure = %d/%d, want 10/20", success, failure)
	}
}

func TestHybrid_CancellationAbandonsStartedItems(t *testing.T) {
	sink := &testSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	op := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	p := NewHybrid(ctx, op, sink, HybridConfig{Workers: 4})
	for i := 0; i < 10; i++ {
		p.Submit(context.Background())
	}

	// All four workers pick up an item and block in the operation.
	waitFor(t, 2*time.Second, func() bool { return sink.started.Load() == 4 })

	cancel()
	p.Close()
	waitDone(t, p, 5*time.Second)

	if got := sink.resultCount(); got != 0 {
		t.Errorf("results = %d, want 0 (cancelled operations contribute no results)", got)
	}
	if got := p.Abandoned(); got != 4 {
		t.Errorf("Abandoned() = %d, want 4", got)
	}
	// Every abandoned start is reconciled.
	if got := sink.adjust.Load(); got != -4 {
		t.Errorf("in-flight adjustment = %d, want -4", got)
	}
	// Queued-but-unstarted items are dropped without events.
	if got := sink.started.Load(); got != 4 {
		t.Errorf("started = %d, want 4", got)
	}
}

func TestHybrid_BoundedCapacityBackpressure(t *testing.T) {
	sink := &testSink{}
	release := make(chan struct{})
	op := func(ctx context.Context) error {
		<-release
		return nil
	}

	p := NewHybrid(context.Background(), op, sink, HybridConfig{Workers: 1, Capacity: 1})

	// First item occupies the worker, second fills the queue.
	if err := p.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return sink.started.Load() == 1 })
	if err := p.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	// Third submission must back-pressure until the context expires.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Submit(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Submit() on full queue = %v, want context.DeadlineExceeded", err)
	}

	close(release)
	p.Close()
	waitDone(t, p, 5*time.Second)

	if got := sink.resultCount(); got != 2 {
		t.Errorf("results = %d, want 2", got)
	}
}

func TestHybrid_UnboundedSubmitNeverBlocks(t *testing.T) {
	sink := &testSink{}
	release := make(chan struct{})
	op := func(ctx context.Context) error {
		<-release
		return nil
	}

	p := NewHybrid(context.Background(), op, sink, HybridConfig{Workers: 1})

	// Far more submissions than the single blocked worker can absorb.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			p.Submit(context.Background())
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("unbounded submission blocked")
	}

	close(release)
	p.Close()
	waitDone(t, p, 10*time.Second)

	if got := sink.resultCount(); got != 10000 {
		t.Errorf("results = %d, want 10000", got)
	}
}
