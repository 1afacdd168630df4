// Package codec implements the body codec collaborator: serialization of
// request/response payloads carried as opaque bytes by the protocol
// envelope. The core never depends on a concrete Codec; it only needs the
// interface defined here.
package codec

// Codec encodes and decodes hub call payloads. Frame shape lives entirely
// in package protocol, so a Codec here only ever sees user payload values,
// never envelope fields.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}
