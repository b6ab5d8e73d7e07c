package codec

import (
	"encoding/json"
	"fmt"
)

// JSON implements Codec using encoding/json. Human-readable and
// interoperable; the default choice.
type JSON struct{}

// Encode serializes the value to JSON bytes.
func (JSON) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailure, err)
	}
	return data, nil
}

// Decode deserializes JSON bytes into the target.
func (JSON) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return nil
}

// ContentType returns the MIME type for JSON.
func (JSON) ContentType() string {
	return "application/json"
}

// Name returns "json".
func (JSON) Name() string {
	return "json"
}

// Compile-time check.
var _ Codec = JSON{}
