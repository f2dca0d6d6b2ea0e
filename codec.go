package typedws

// MessageType represents the frame type an encoded message travels as.
// See https://tools.ietf.org/html/rfc6455#section-5.6
//
// The values match the host transport's TextMessage and BinaryMessage.
type MessageType int

// MessageType constants.
const (
	// MessageText is for UTF-8 encoded text messages like JSON.
	MessageText MessageType = iota + 1
	// MessageBinary is for binary messages like MessagePack or Protobufs.
	MessageBinary
)

func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "MessageText"
	case MessageBinary:
		return "MessageBinary"
	default:
		return "MessageType(unknown)"
	}
}

// Codec encodes and decodes the typed values carried by data messages.
//
// Encode reports the frame type the payload must travel as. Decode receives
// the frame type the payload arrived as; codecs that transmit one frame type
// should still accept both where the encoding permits, so that peers with
// text and binary variants of the same codec interoperate.
//
// Implementations must be safe for concurrent use.
type Codec interface {
	Encode(v any) (MessageType, []byte, error)
	Decode(typ MessageType, p []byte, v any) error
}
