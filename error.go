package typedws

import "fmt"

// CodecError wraps an error returned by a Codec so that serialization
// failures can be told apart from transport failures with errors.As.
//
// A decode failure consumes exactly one message and an encode failure
// writes nothing, so the connection remains usable after a CodecError.
type CodecError struct {
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: %v", e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}
