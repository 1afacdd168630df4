package protocol

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestEncodeDecodeInvocation(t *testing.T) {
	payload := []byte("hello world")

	buf, err := EncodeInvocation(nil, 1, 7, payload)
	if err != nil {
		t.Fatalf("EncodeInvocation failed: %v", err)
	}

	frame, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	if frame.Kind != KindResponse {
		t.Errorf("expect KindResponse shape for array length 3, got %v", frame.Kind)
	}
	if frame.InvocationID != 1 {
		t.Errorf("InvocationID mismatch: got %d, want 1", frame.InvocationID)
	}
	if frame.MethodID != 7 {
		t.Errorf("MethodID mismatch: got %d, want 7", frame.MethodID)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Errorf("Payload mismatch: got %s, want %s", frame.Payload, payload)
	}
}

func TestEncodeDecodeFireAndForget(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}

	buf, err := EncodeFireAndForget(nil, 42, payload)
	if err != nil {
		t.Fatalf("EncodeFireAndForget failed: %v", err)
	}

	frame, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	if frame.Kind != KindBroadcast {
		t.Errorf("expect KindBroadcast shape for array length 2, got %v", frame.Kind)
	}
	if frame.MethodID != 42 {
		t.Errorf("MethodID mismatch: got %d, want 42", frame.MethodID)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Errorf("Payload mismatch: got %v, want %v", frame.Payload, payload)
	}
}

func TestDecodeResponseError(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.EncodeArrayLen(3)
	enc.EncodeInt32(2)
	enc.EncodeNil()
	enc.EncodeString("boom")

	frame, err := DecodeFrame(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	if frame.Kind != KindResponseError {
		t.Fatalf("expect KindResponseError, got %v", frame.Kind)
	}
	if frame.InvocationID != 2 {
		t.Errorf("InvocationID mismatch: got %d, want 2", frame.InvocationID)
	}
	if frame.ErrorMessage != "boom" {
		t.Errorf("ErrorMessage mismatch: got %q, want %q", frame.ErrorMessage, "boom")
	}
}

func TestDecodeFrameInvalidArrayLength(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.EncodeArrayLen(5)

	_, err := DecodeFrame(buf.Bytes())
	if err == nil {
		t.Fatal("expected error for array length 5, got nil")
	}
}

func TestRoundTripPreservesBufferReuse(t *testing.T) {
	scratch := make([]byte, 0, 64)
	buf, err := EncodeInvocation(scratch, 9, 1, []byte("x"))
	if err != nil {
		t.Fatalf("EncodeInvocation failed: %v", err)
	}
	frame, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if frame.InvocationID != 9 {
		t.Errorf("InvocationID mismatch: got %d, want 9", frame.InvocationID)
	}
}
