package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{MaxConcurrency: 4, MaxQueueSize: 10}, wantErr: false},
		{name: "zero concurrency", cfg: Config{MaxConcurrency: 0, MaxQueueSize: 10}, wantErr: true},
		{name: "negative concurrency", cfg: Config{MaxConcurrency: -1, MaxQueueSize: 10}, wantErr: true},
		{name: "negative queue size", cfg: Config{MaxConcurrency: 4, MaxQueueSize: -1}, wantErr: true},
		{name: "zero queue size is valid", cfg: Config{MaxConcurrency: 4, MaxQueueSize: 0}, wantErr: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewPool[int](tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPool() error = %v, wantErr %v", err, tt.wantErr)
			}
			if p != nil {
				defer p.Shutdown(true)
			}
		})
	}
}

// Scenario 1 from the spec: 5 workers, 10-slot queue, 100 units each
// sleeping briefly; every unit must resolve, and the observed in-flight
// count must never exceed max_concurrency.
func TestPool_ConcurrencyBound(t *testing.T) {
	p, err := NewPool[int](Config{MaxConcurrency: 5, MaxQueueSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Shutdown(true)

	var inFlight atomic.Int64
	var maxObserved atomic.Int64

	const n = 100
	fns := make([]Func[int], n)
	for i := 0; i < n; i++ {
		i := i
		fns[i] = func(ctx context.Context) (int, error) {
			cur := inFlight.Add(1)
			for {
				m := maxObserved.Load()
				if cur <= m || maxObserved.CompareAndSwap(m, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return i, nil
		}
	}

	values, err := p.BatchRun(context.Background(), fns, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != n {
		t.Fatalf("got %d results, want %d", len(values), n)
	}
	for i, v := range values {
		if v != i {
			t.Fatalf("result[%d] = %d, want %d (BatchRun must preserve order)", i, v, i)
		}
	}
	if got := maxObserved.Load(); got > 5 {
		t.Fatalf("observed %d concurrent units in flight, want <= 5", got)
	}
}

// Scenario 2: max_concurrency=2, max_queue_size=0, non-blocking submit;
// first two accepted, the rest fail with ErrQueueFull.
func TestPool_NonBlockingQueueFull(t *testing.T) {
	block := make(chan struct{})
	p, err := NewPool[int](Config{MaxConcurrency: 2, MaxQueueSize: 0})
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		close(block)
		p.Shutdown(true)
	}()

	slow := func(ctx context.Context) (int, error) {
		<-block
		return 0, nil
	}

	accepted := 0
	rejected := 0
	for i := 0; i < 5; i++ {
		_, err := p.Submit(context.Background(), slow, false)
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrQueueFull):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
		// give the two workers a moment to pick up their jobs before the
		// next non-blocking submit races the (zero-capacity) queue
		time.Sleep(5 * time.Millisecond)
	}

	if accepted != 2 {
		t.Fatalf("accepted = %d, want 2", accepted)
	}
	if rejected != 3 {
		t.Fatalf("rejected = %d, want 3", rejected)
	}
}

// Scenario 5: a failing unit surfaces its original error through Future,
// and the pool keeps accepting work afterward.
func TestPool_ErrorPropagation(t *testing.T) {
	p, err := NewPool[int](Config{MaxConcurrency: 2, MaxQueueSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Shutdown(true)

	boom := errors.New("x")
	_, err = p.Run(context.Background(), func(ctx context.Context) (int, error) {
		return 0, boom
	}, true)
	if !errors.Is(err, boom) {
		t.Fatalf("got err %v, want %v", err, boom)
	}

	v, err := p.Run(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	}, true)
	if err != nil || v != 42 {
		t.Fatalf("pool did not accept work after a failure: v=%d err=%v", v, err)
	}
}

func TestPool_PanicRecovered(t *testing.T) {
	p, err := NewPool[int](Config{MaxConcurrency: 1, MaxQueueSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Shutdown(true)

	_, err = p.Run(context.Background(), func(ctx context.Context) (int, error) {
		panic("boom")
	}, true)
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("got err %v, want *PanicError", err)
	}

	v, err := p.Run(context.Background(), func(ctx context.Context) (int, error) {
		return 7, nil
	}, true)
	if err != nil || v != 7 {
		t.Fatalf("worker did not survive the panic: v=%d err=%v", v, err)
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p, err := NewPool[int](Config{MaxConcurrency: 1, MaxQueueSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	p.Shutdown(true)

	_, err = p.Submit(context.Background(), func(ctx context.Context) (int, error) {
		return 0, nil
	}, true)
	if !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("got %v, want ErrPoolClosed", err)
	}
}

func TestPool_ShutdownIdempotent(t *testing.T) {
	p, err := NewPool[int](Config{MaxConcurrency: 1, MaxQueueSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Shutdown(true); err != nil {
		t.Fatal(err)
	}
	if err := p.Shutdown(true); err != nil {
		t.Fatal(err)
	}
}

// No-loss under drain: every accepted unit resolves after Shutdown(true).
func TestPool_NoLossUnderDrain(t *testing.T) {
	p, err := NewPool[int](Config{MaxConcurrency: 3, MaxQueueSize: 20})
	if err != nil {
		t.Fatal(err)
	}

	const n = 50
	futures := make([]*Future[int], n)
	for i := 0; i < n; i++ {
		i := i
		f, err := p.Submit(context.Background(), func(ctx context.Context) (int, error) {
			return i, nil
		}, true)
		if err != nil {
			t.Fatal(err)
		}
		futures[i] = f
	}

	p.Shutdown(true)

	seen := make(map[int]bool, n)
	for _, f := range futures {
		select {
		case <-f.Done():
		default:
			t.Fatal("future not resolved after Shutdown(true)")
		}
		v, err := f.Get(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct resolved values, want %d", len(seen), n)
	}
}

func TestUse_ShutsDownOnReturn(t *testing.T) {
	var p *Pool[int]
	err := Use(Config{MaxConcurrency: 2, MaxQueueSize: 2}, func(pp *Pool[int]) error {
		p = pp
		_, err := pp.Run(context.Background(), func(ctx context.Context) (int, error) {
			return 1, nil
		}, true)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if !p.closed.Load() {
		t.Fatal("Use did not shut down the pool on return")
	}
}

func TestUse_ShutsDownOnPanic(t *testing.T) {
	var p *Pool[int]
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to propagate out of Use")
		}
		if !p.closed.Load() {
			t.Fatal("Use did not shut down the pool before re-panicking")
		}
	}()
	Use(Config{MaxConcurrency: 1, MaxQueueSize: 1}, func(pp *Pool[int]) error {
		p = pp
		panic("boom")
	})
}
