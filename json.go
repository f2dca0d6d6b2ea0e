package typedws

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/typedws/typedws/internal/bpool"
)

// JSONCodec encodes messages as JSON and transmits them as text frames.
// It is the codec used when no codec is configured.
//
// Decoding accepts both text and binary frames so peers using
// BinaryJSONCodec interoperate.
type JSONCodec struct{}

// Encode implements Codec.
func (JSONCodec) Encode(v any) (MessageType, []byte, error) {
	p, err := marshalJSON(v)
	if err != nil {
		return 0, nil, err
	}
	return MessageText, p, nil
}

// Decode implements Codec.
func (JSONCodec) Decode(_ MessageType, p []byte, v any) error {
	return unmarshalJSON(p, v)
}

// BinaryJSONCodec encodes messages as JSON and transmits them as binary
// frames. Decoding accepts both text and binary frames.
type BinaryJSONCodec struct{}

// Encode implements Codec.
func (BinaryJSONCodec) Encode(v any) (MessageType, []byte, error) {
	p, err := marshalJSON(v)
	if err != nil {
		return 0, nil, err
	}
	return MessageBinary, p, nil
}

// Decode implements Codec.
func (BinaryJSONCodec) Decode(_ MessageType, p []byte, v any) error {
	return unmarshalJSON(p, v)
}

func marshalJSON(v any) ([]byte, error) {
	b := bpool.Get()
	defer bpool.Put(b)

	err := json.NewEncoder(b).Encode(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}

	// The buffer is pooled so the bytes must be copied out.
	// Encode appends a trailing newline, drop it.
	p := b.Bytes()
	if n := len(p); n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

func unmarshalJSON(p []byte, v any) error {
	err := json.Unmarshal(p, v)
	if err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}
	return nil
}
