package typedws

// MessageKind discriminates the variants of a Message.
type MessageKind int

// MessageKind constants.
const (
	// KindItem is a data message carrying a typed value.
	KindItem MessageKind = iota + 1
	// KindPing is a ping control message.
	KindPing
	// KindPong is a pong control message.
	KindPong
	// KindClose is a close control message with an optional close frame.
	KindClose
)

func (k MessageKind) String() string {
	switch k {
	case KindItem:
		return "MessageKind(item)"
	case KindPing:
		return "MessageKind(ping)"
	case KindPong:
		return "MessageKind(pong)"
	case KindClose:
		return "MessageKind(close)"
	default:
		return "MessageKind(unknown)"
	}
}

// Message is a WebSocket message containing a value of a known type.
//
// Exactly one variant is meaningful, selected by Kind: Item for KindItem,
// Payload for KindPing and KindPong, Close for KindClose.
type Message[T any] struct {
	Kind MessageKind

	// Item is the typed value of a KindItem message.
	Item T

	// Payload is the control payload of a KindPing or KindPong message.
	// It must be at most 125 bytes to fit in a control frame.
	Payload []byte

	// Close is the close frame of a KindClose message.
	// It is nil when the peer closed without a status code.
	Close *CloseError
}

// Item returns a data message carrying v.
func Item[T any](v T) Message[T] {
	return Message[T]{Kind: KindItem, Item: v}
}

// Ping returns a ping message with the given payload.
func Ping[T any](p []byte) Message[T] {
	return Message[T]{Kind: KindPing, Payload: p}
}

// Pong returns a pong message with the given payload.
func Pong[T any](p []byte) Message[T] {
	return Message[T]{Kind: KindPong, Payload: p}
}

// CloseMessage returns a close message with the given status code and reason.
func CloseMessage[T any](code StatusCode, reason string) Message[T] {
	return Message[T]{Kind: KindClose, Close: &CloseError{Code: code, Reason: reason}}
}
