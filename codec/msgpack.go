package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack implements Codec using MessagePack serialization. A binary
// format more compact than JSON while staying schema-less.
type Msgpack struct{}

// Encode serializes the value to MessagePack bytes.
func (Msgpack) Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailure, err)
	}
	return data, nil
}

// Decode deserializes MessagePack bytes into the target.
func (Msgpack) Decode(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return nil
}

// ContentType returns the MIME type for MessagePack.
func (Msgpack) ContentType() string {
	return "application/msgpack"
}

// Name returns "msgpack".
func (Msgpack) Name() string {
	return "msgpack"
}

// Compile-time check.
var _ Codec = Msgpack{}
