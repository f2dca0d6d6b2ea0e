// Package wsmsgpack provides a MessagePack Codec for typed WebSocket messages.
//
// Importing this package is how MessagePack support is opted into;
// the root package only carries the JSON codecs.
package wsmsgpack

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/typedws/typedws"
)

// Codec encodes messages as MessagePack and transmits them as binary frames.
//
// Decoding accepts text frames as well, treating the payload as raw
// MessagePack bytes.
type Codec struct{}

var _ typedws.Codec = Codec{}

// Encode implements typedws.Codec.
func (Codec) Encode(v any) (typedws.MessageType, []byte, error) {
	p, err := msgpack.Marshal(v)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode msgpack: %w", err)
	}
	return typedws.MessageBinary, p, nil
}

// Decode implements typedws.Codec.
func (Codec) Decode(_ typedws.MessageType, p []byte, v any) error {
	err := msgpack.Unmarshal(p, v)
	if err != nil {
		return fmt.Errorf("failed to decode msgpack: %w", err)
	}
	return nil
}
