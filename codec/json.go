package codec

import "encoding/json"

// JSON uses the standard library's encoding/json for payload serialization.
// Pros: human-readable, cross-language, easy to debug. Cons: slower than a
// binary codec and larger on the wire.
type JSON struct{}

func (JSON) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
