package codec

import (
	"fmt"

	"github.com/golang/snappy"
)

// Compressed wraps another Codec with Snappy compression on the encoded
// bytes. It implements Codec itself, so a compressed codec is a drop-in
// replacement wherever a plain one is accepted — the core never
// distinguishes the two, since payloads are opaque bytes either way.
type compressed struct {
	inner Codec
}

// Compressed returns a Codec that Snappy-compresses inner's encoded output
// and decompresses before handing bytes back to inner.
func Compressed(inner Codec) Codec {
	return compressed{inner: inner}
}

func (c compressed) Encode(v any) ([]byte, error) {
	raw, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func (c compressed) Decode(data []byte, v any) error {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("codec: snappy decode: %w", err)
	}
	return c.inner.Decode(raw, v)
}
