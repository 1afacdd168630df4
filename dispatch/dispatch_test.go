package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"hubrpc/waiter"
)

func TestMapDispatcherResolveSuccess(t *testing.T) {
	d := NewMapDispatcher()
	d.HandleResponse(7, func(payload []byte) (any, error) {
		return string(payload), nil
	})

	w := waiter.New()
	if err := d.Resolve(7, w, []byte("hello")); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	value, err := w.Wait(ctx)
	if err != nil {
		t.Fatalf("expect no waiter error, got %v", err)
	}
	if value.(string) != "hello" {
		t.Fatalf("expect decoded value 'hello', got %v", value)
	}
}

func TestMapDispatcherResolveDecodeFailureCompletesWaiter(t *testing.T) {
	d := NewMapDispatcher()
	wantErr := errors.New("malformed payload")
	d.HandleResponse(7, func(payload []byte) (any, error) {
		return nil, wantErr
	})

	w := waiter.New()
	if err := d.Resolve(7, w, nil); err != nil {
		t.Fatalf("Resolve must never re-raise a decode error, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := w.Wait(ctx)
	if err != wantErr {
		t.Fatalf("expect waiter failed with decode error, got %v", err)
	}
}

func TestMapDispatcherResolveUnknownMethod(t *testing.T) {
	d := NewMapDispatcher()
	w := waiter.New()

	if err := d.Resolve(99, w, nil); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := w.Wait(ctx); err == nil {
		t.Fatal("expect waiter failed for unknown method id")
	}
}

func TestMapDispatcherInvokeBroadcast(t *testing.T) {
	d := NewMapDispatcher()
	var got []byte
	d.HandleBroadcast(42, func(payload []byte) error {
		got = payload
		return nil
	})

	if err := d.Invoke(42, []byte("ping")); err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if string(got) != "ping" {
		t.Fatalf("expect receiver to see payload 'ping', got %s", got)
	}
}

func TestMapDispatcherInvokeUnknownBroadcastIsDropped(t *testing.T) {
	d := NewMapDispatcher()
	if err := d.Invoke(1, []byte("x")); err != nil {
		t.Fatalf("expect unknown broadcast method id to be dropped silently, got %v", err)
	}
}
