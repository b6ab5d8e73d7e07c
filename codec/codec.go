// Package codec provides serialization for dispatched event envelopes
// leaving the process through sinks or journals.
//
// Supported formats:
//   - JSON (default, human-readable)
//   - MessagePack (binary, compact)
package codec

import "errors"

// Codec errors
var (
	ErrEncodeFailure = errors.New("failed to encode value")
	ErrDecodeFailure = errors.New("failed to decode value")
)

// Codec handles value serialization/deserialization.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode serializes a value to bytes.
	Encode(v any) ([]byte, error)

	// Decode deserializes bytes into the target.
	Decode(data []byte, v any) error

	// ContentType returns the MIME type for this codec.
	ContentType() string

	// Name returns a short identifier for this codec (e.g., "json").
	Name() string
}

// Default returns the default codec (JSON).
func Default() Codec {
	return JSON{}
}
