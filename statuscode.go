package typedws

import (
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// StatusCode represents a WebSocket status code.
// https://tools.ietf.org/html/rfc6455#section-7.4
type StatusCode int

// These are only the status codes defined by the protocol.
//
// You can define custom codes in the 3000-4999 range.
// The 3000-3999 range is reserved for use by libraries, frameworks and applications.
// The 4000-4999 range is reserved for private use.
//
// These codes were retrieved from:
// https://www.iana.org/assignments/websocket/websocket.xhtml#close-code-number
const (
	StatusNormalClosure StatusCode = 1000 + iota
	StatusGoingAway
	StatusProtocolError
	StatusUnsupportedData

	_ // 1004 is reserved.

	StatusNoStatusRcvd

	// StatusAbnormalClosure is only used for reading.
	// It is never sent as it is the synthetic status for a
	// connection dropped without a close frame.
	StatusAbnormalClosure

	StatusInvalidFramePayloadData
	StatusPolicyViolation
	StatusMessageTooBig
	StatusMandatoryExtension
	StatusInternalError
	StatusServiceRestart
	StatusTryAgainLater
	StatusBadGateway

	// StatusTLSHandshake is only used for reading.
	StatusTLSHandshake
)

// CloseError is returned when the connection is closed with a status and reason.
//
// Use CloseStatus to extract the status code from any error.
type CloseError struct {
	Code   StatusCode
	Reason string
}

func (ce CloseError) Error() string {
	return fmt.Sprintf("status = %v and reason = %q", ce.Code, ce.Reason)
}

// CloseStatus is a convenience wrapper around errors.As to grab
// the status code from a CloseError. It understands close errors
// from the host transport as well.
//
// -1 will be returned if the passed error is not a close error.
func CloseStatus(err error) StatusCode {
	var ce CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var hce *websocket.CloseError
	if errors.As(err, &hce) {
		return StatusCode(hce.Code)
	}
	return -1
}
