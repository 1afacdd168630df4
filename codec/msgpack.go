package codec

import "github.com/vmihailenco/msgpack/v5"

// MsgPack serializes payloads with MessagePack's struct-tag reflection path
// (msgpack.Marshal/Unmarshal), unlike package protocol's use of the same
// library's low-level primitive encoder for the envelope itself. This is
// the binary alternative to JSON, able to serialize any user payload type.
type MsgPack struct{}

func (MsgPack) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgPack) Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
