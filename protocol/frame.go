// Package protocol implements the compact binary envelope shared by the three
// frame shapes that cross a hub connection: invocations (client to server),
// responses (server to client, success or error), and broadcasts (server to
// client, unsolicited).
//
// Each shape is a MessagePack array whose length alone discriminates it: array
// length 3 is an invocation or a response, array length 2 is a fire-and-forget
// invocation or a broadcast. A response of array length 3 is further split into
// success and error by peeking the second element — a nil sentinel marks an
// error response. Payloads are returned as freshly allocated copies made by
// the MessagePack decoder; they do not alias the input buffer.
package protocol

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// FrameKind discriminates the decoded shape of a Frame.
type FrameKind int

const (
	KindResponse FrameKind = iota
	KindResponseError
	KindBroadcast
)

// Frame is the result of decoding one envelope off the response stream. Only
// the fields relevant to Kind are populated.
type Frame struct {
	Kind         FrameKind
	InvocationID int32
	MethodID     int32
	Payload      []byte
	ErrorMessage string
}

// EncodeInvocation writes [invocation_id, method_id, payload] to out and
// returns the encoded bytes. out is reused as scratch space when it has
// sufficient capacity.
func EncodeInvocation(out []byte, invocationID, methodID int32, payload []byte) ([]byte, error) {
	buf := bytes.NewBuffer(out[:0])
	enc := msgpack.NewEncoder(buf)
	if err := enc.EncodeArrayLen(3); err != nil {
		return nil, fmt.Errorf("protocol: encode invocation header: %w", err)
	}
	if err := enc.EncodeInt32(invocationID); err != nil {
		return nil, fmt.Errorf("protocol: encode invocation id: %w", err)
	}
	if err := enc.EncodeInt32(methodID); err != nil {
		return nil, fmt.Errorf("protocol: encode method id: %w", err)
	}
	if err := enc.EncodeBytes(payload); err != nil {
		return nil, fmt.Errorf("protocol: encode payload: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeFireAndForget writes [method_id, payload] to out and returns the
// encoded bytes.
func EncodeFireAndForget(out []byte, methodID int32, payload []byte) ([]byte, error) {
	return encodeMethodPayload(out, 2, methodID, payload)
}

// EncodeResponse writes a successful response [invocation_id, method_id,
// payload] to out. Same wire shape as EncodeInvocation — the array length
// and field order are identical; only the direction of travel differs —
// but named for the server side of the protocol, which is where a
// concrete hub implementation (see internal/fakehub) produces it.
func EncodeResponse(out []byte, invocationID, methodID int32, payload []byte) ([]byte, error) {
	return EncodeInvocation(out, invocationID, methodID, payload)
}

// EncodeResponseError writes [invocation_id, nil, message] to out: the
// nil in the second slot is the sentinel DecodeFrame uses to distinguish
// an error response from a successful one of the same array length.
func EncodeResponseError(out []byte, invocationID int32, message string) ([]byte, error) {
	buf := bytes.NewBuffer(out[:0])
	enc := msgpack.NewEncoder(buf)
	if err := enc.EncodeArrayLen(3); err != nil {
		return nil, fmt.Errorf("protocol: encode response-error header: %w", err)
	}
	if err := enc.EncodeInt32(invocationID); err != nil {
		return nil, fmt.Errorf("protocol: encode invocation id: %w", err)
	}
	if err := enc.EncodeNil(); err != nil {
		return nil, fmt.Errorf("protocol: encode nil sentinel: %w", err)
	}
	if err := enc.EncodeString(message); err != nil {
		return nil, fmt.Errorf("protocol: encode error message: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBroadcast writes [method_id, payload] to out: the same wire shape
// as EncodeFireAndForget, named for the server side which emits broadcasts
// unsolicited rather than in response to a fire-and-forget call.
func EncodeBroadcast(out []byte, methodID int32, payload []byte) ([]byte, error) {
	return encodeMethodPayload(out, 2, methodID, payload)
}

func encodeMethodPayload(out []byte, arrayLen int, methodID int32, payload []byte) ([]byte, error) {
	buf := bytes.NewBuffer(out[:0])
	enc := msgpack.NewEncoder(buf)
	if err := enc.EncodeArrayLen(arrayLen); err != nil {
		return nil, fmt.Errorf("protocol: encode header: %w", err)
	}
	if err := enc.EncodeInt32(methodID); err != nil {
		return nil, fmt.Errorf("protocol: encode method id: %w", err)
	}
	if err := enc.EncodeBytes(payload); err != nil {
		return nil, fmt.Errorf("protocol: encode payload: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeFrame inspects the leading array header of in and decodes it into a
// Frame. Any array length other than 2 or 3 is a protocol violation and is
// reported as an error; callers (the reader loop) are expected to log and
// skip such frames rather than treat them as fatal.
func DecodeFrame(in []byte) (Frame, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(in))

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return Frame{}, fmt.Errorf("protocol: decode array header: %w", err)
	}

	switch n {
	case 3:
		invocationID, err := dec.DecodeInt32()
		if err != nil {
			return Frame{}, fmt.Errorf("protocol: decode invocation id: %w", err)
		}

		code, err := dec.PeekCode()
		if err != nil {
			return Frame{}, fmt.Errorf("protocol: peek second element: %w", err)
		}
		if code == msgpcode.Nil {
			if err := dec.DecodeNil(); err != nil {
				return Frame{}, fmt.Errorf("protocol: decode nil sentinel: %w", err)
			}
			msg, err := dec.DecodeString()
			if err != nil {
				return Frame{}, fmt.Errorf("protocol: decode error message: %w", err)
			}
			return Frame{Kind: KindResponseError, InvocationID: invocationID, ErrorMessage: msg}, nil
		}

		methodID, err := dec.DecodeInt32()
		if err != nil {
			return Frame{}, fmt.Errorf("protocol: decode method id: %w", err)
		}
		payload, err := dec.DecodeBytes()
		if err != nil {
			return Frame{}, fmt.Errorf("protocol: decode payload: %w", err)
		}
		return Frame{Kind: KindResponse, InvocationID: invocationID, MethodID: methodID, Payload: payload}, nil

	case 2:
		methodID, err := dec.DecodeInt32()
		if err != nil {
			return Frame{}, fmt.Errorf("protocol: decode method id: %w", err)
		}
		payload, err := dec.DecodeBytes()
		if err != nil {
			return Frame{}, fmt.Errorf("protocol: decode payload: %w", err)
		}
		return Frame{Kind: KindBroadcast, MethodID: methodID, Payload: payload}, nil

	default:
		return Frame{}, fmt.Errorf("protocol: unexpected array length %d", n)
	}
}
