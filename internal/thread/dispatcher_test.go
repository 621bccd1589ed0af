package thread

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// waitPending spins until n calls are queued.
func waitPending(t *testing.T, d *Dispatcher, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for d.Pending() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d queued calls (have %d)", n, d.Pending())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDoRunsOnPump(t *testing.T) {
	d := New(0)
	defer d.Close()

	ran := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		errc <- d.Do(context.Background(), func() error {
			close(ran)
			return nil
		})
	}()

	waitPending(t, d, 1)
	select {
	case <-ran:
		t.Fatal("call ran before Pump")
	default:
	}
	if n := d.Pump(); n != 1 {
		t.Errorf("Pump() = %d, want 1", n)
	}
	if err := <-errc; err != nil {
		t.Errorf("Do() = %v", err)
	}
	if d.Executed() != 1 {
		t.Errorf("Executed() = %d, want 1", d.Executed())
	}
}

func TestPumpPreservesOrder(t *testing.T) {
	d := New(16)
	defer d.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := range 5 {
		waitPending(t, d, i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Do(context.Background(), func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
	}
	waitPending(t, d, 5)
	d.Pump()
	wg.Wait()

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
}

func TestDoPropagatesErrors(t *testing.T) {
	d := New(1)
	defer d.Close()
	boom := errors.New("boom")

	errc := make(chan error, 2)
	go func() { errc <- d.Do(context.Background(), func() error { return boom }) }()
	waitPending(t, d, 1)
	d.Pump()
	if err := <-errc; !errors.Is(err, boom) {
		t.Errorf("Do() = %v, want boom", err)
	}

	go func() { errc <- d.Do(context.Background(), func() error { panic("bad") }) }()
	waitPending(t, d, 1)
	d.Pump()
	var pe *PanicError
	if err := <-errc; !errors.As(err, &pe) || pe.Value != "bad" {
		t.Errorf("Do() = %v, want PanicError", err)
	}
}

func TestDoContextCanceled(t *testing.T) {
	d := New(1)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Do(ctx, func() error { return nil }) }()
	waitPending(t, d, 1)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Do() = %v, want context.Canceled", err)
	}
}

func TestCloseFailsQueuedCalls(t *testing.T) {
	d := New(4)
	errc := make(chan error, 1)
	go func() { errc <- d.Do(context.Background(), func() error { return nil }) }()
	waitPending(t, d, 1)

	d.Close()
	d.Close()
	if err := <-errc; !errors.Is(err, ErrClosed) {
		t.Errorf("queued Do() = %v, want ErrClosed", err)
	}
	if err := d.Do(context.Background(), func() error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Do after Close = %v, want ErrClosed", err)
	}
	if n := d.Pump(); n != 0 {
		t.Errorf("Pump after Close = %d", n)
	}
}
