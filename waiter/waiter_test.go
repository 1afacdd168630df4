package waiter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResolveIsIdempotent(t *testing.T) {
	w := New()

	if !w.Resolve(5) {
		t.Fatal("expect first Resolve to take effect")
	}
	if w.Resolve(6) {
		t.Fatal("expect second Resolve to be a no-op")
	}
	if w.Fail(ErrCancelled) {
		t.Fatal("expect Fail after Resolve to be a no-op")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	value, err := w.Wait(ctx)
	if err != nil {
		t.Fatalf("expect no error, got %v", err)
	}
	if value.(int) != 5 {
		t.Fatalf("expect resolved value 5, got %v", value)
	}
}

func TestCancelIsTerminal(t *testing.T) {
	w := New()
	cancelled, err := w.Cancel()
	if !cancelled {
		t.Fatal("expect first Cancel to take effect")
	}
	if err != nil {
		t.Fatalf("expect no cancel hook error, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, waitErr := w.Wait(ctx)
	if waitErr != ErrCancelled {
		t.Fatalf("expect ErrCancelled, got %v", waitErr)
	}
}

func TestWaitRespectsContext(t *testing.T) {
	w := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := w.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("expect deadline exceeded, got %v", err)
	}
}

func TestCancelRunsHookExactlyOnce(t *testing.T) {
	w := New()
	calls := 0
	w.SetCancelHook(func() error {
		calls++
		return nil
	})

	cancelled1, _ := w.Cancel()
	cancelled2, _ := w.Cancel()
	if !cancelled1 || cancelled2 {
		t.Fatalf("expect only the first Cancel to take effect, got %v %v", cancelled1, cancelled2)
	}
	if calls != 1 {
		t.Fatalf("expect cancel hook to run exactly once, ran %d times", calls)
	}
}

func TestCancelSurfacesHookError(t *testing.T) {
	w := New()
	wantErr := errors.New("cleanup failed")
	w.SetCancelHook(func() error { return wantErr })

	cancelled, err := w.Cancel()
	if !cancelled {
		t.Fatal("expect Cancel to still terminate the waiter despite hook error")
	}
	if err != wantErr {
		t.Fatalf("expect hook error surfaced, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, waitErr := w.Wait(ctx); waitErr != ErrCancelled {
		t.Fatalf("expect waiter terminated as cancelled, got %v", waitErr)
	}
}

func TestIDAllocatorMonotonic(t *testing.T) {
	var a IDAllocator
	first := a.Next()
	if first != 1 {
		t.Fatalf("expect first id 1, got %d", first)
	}
	seen := map[int32]bool{first: true}
	for i := 0; i < 100; i++ {
		id := a.Next()
		if seen[id] {
			t.Fatalf("id %d allocated twice", id)
		}
		seen[id] = true
	}
}

func TestRegistryTakeIsExactlyOnce(t *testing.T) {
	var reg Registry
	w := New()
	reg.Insert(1, w)

	got, ok := reg.Take(1)
	if !ok || got != w {
		t.Fatalf("expect Take to return the inserted waiter")
	}

	if _, ok := reg.Take(1); ok {
		t.Fatal("expect second Take for the same id to miss")
	}
}

func TestRegistryTakeUnknownID(t *testing.T) {
	var reg Registry
	if _, ok := reg.Take(999); ok {
		t.Fatal("expect Take for an unregistered id to miss, not crash")
	}
}

func TestRegistryDrainEmptiesAndCancels(t *testing.T) {
	var reg Registry
	w1, w2 := New(), New()
	reg.Insert(1, w1)
	reg.Insert(2, w2)

	all := reg.Drain()
	if len(all) != 2 {
		t.Fatalf("expect 2 drained waiters, got %d", len(all))
	}
	if reg.Size() != 0 {
		t.Fatalf("expect registry empty after drain, got size %d", reg.Size())
	}

	for _, w := range all {
		w.Cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := w1.Wait(ctx); err != ErrCancelled {
		t.Errorf("expect w1 cancelled, got %v", err)
	}
	if _, err := w2.Wait(ctx); err != ErrCancelled {
		t.Errorf("expect w2 cancelled, got %v", err)
	}
}
