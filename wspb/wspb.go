// Package wspb provides a protobuf Codec for typed WebSocket messages.
//
// The message types used with it must implement proto.Message.
package wspb

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"

	"github.com/typedws/typedws"
)

// Codec encodes messages as protobuf and transmits them as binary frames.
//
// Values that do not implement proto.Message fail with a descriptive error.
type Codec struct{}

var _ typedws.Codec = Codec{}

// Encode implements typedws.Codec.
func (Codec) Encode(v any) (typedws.MessageType, []byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return 0, nil, fmt.Errorf("expected proto.Message but got %T", v)
	}

	p, err := proto.Marshal(m)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal protobuf: %w", err)
	}
	return typedws.MessageBinary, p, nil
}

// Decode implements typedws.Codec.
//
// v may be a proto.Message or a pointer to one, which is what the typed
// connection hands codecs. A nil message pointer is allocated.
func (Codec) Decode(_ typedws.MessageType, p []byte, v any) error {
	m, err := asMessage(v)
	if err != nil {
		return err
	}

	err = proto.Unmarshal(p, m)
	if err != nil {
		return fmt.Errorf("failed to unmarshal protobuf: %w", err)
	}
	return nil
}

func asMessage(v any) (proto.Message, error) {
	if m, ok := v.(proto.Message); ok {
		return m, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		elem := rv.Elem()
		if elem.Kind() == reflect.Pointer && elem.IsNil() && elem.CanSet() {
			elem.Set(reflect.New(elem.Type().Elem()))
		}
		if m, ok := elem.Interface().(proto.Message); ok {
			return m, nil
		}
	}

	return nil, fmt.Errorf("expected proto.Message but got %T", v)
}
