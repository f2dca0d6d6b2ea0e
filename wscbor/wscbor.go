// Package wscbor provides a CBOR Codec for typed WebSocket messages.
package wscbor

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/typedws/typedws"
)

// Codec encodes messages as CBOR and transmits them as binary frames.
type Codec struct{}

var _ typedws.Codec = Codec{}

// Encode implements typedws.Codec.
func (Codec) Encode(v any) (typedws.MessageType, []byte, error) {
	p, err := cbor.Marshal(v)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode cbor: %w", err)
	}
	return typedws.MessageBinary, p, nil
}

// Decode implements typedws.Codec.
func (Codec) Decode(_ typedws.MessageType, p []byte, v any) error {
	err := cbor.Unmarshal(p, v)
	if err != nil {
		return fmt.Errorf("failed to decode cbor: %w", err)
	}
	return nil
}
