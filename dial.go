package typedws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// DialOptions represents Dial's options.
type DialOptions struct {
	// HTTPHeader specifies the HTTP headers included in the handshake request.
	HTTPHeader http.Header

	// Subprotocols lists the WebSocket subprotocols to negotiate with the server.
	Subprotocols []string

	// HandshakeTimeout bounds the handshake.
	// Defaults to 45 seconds.
	HandshakeTimeout time.Duration

	// CompressionEnabled negotiates permessage-deflate with the server.
	CompressionEnabled bool

	// Codec encodes and decodes the typed messages.
	// A nil Codec means JSONCodec.
	//
	// Both peers must of course agree on the codec.
	Codec Codec
}

// Dial performs a WebSocket handshake on url and returns a typed connection
// sending messages of type S and receiving messages of type R.
//
// The response is returned even on handshake failure to aid debugging.
func Dial[S, R any](ctx context.Context, url string, opts *DialOptions) (*Conn[S, R], *http.Response, error) {
	c, resp, err := dial[S, R](ctx, url, opts)
	if err != nil {
		return nil, resp, fmt.Errorf("failed to dial websocket: %w", err)
	}
	return c, resp, nil
}

func dial[S, R any](ctx context.Context, url string, opts *DialOptions) (*Conn[S, R], *http.Response, error) {
	if opts == nil {
		opts = &DialOptions{}
	}

	handshakeTimeout := opts.HandshakeTimeout
	if handshakeTimeout == 0 {
		handshakeTimeout = time.Second * 45
	}

	d := websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  handshakeTimeout,
		Subprotocols:      opts.Subprotocols,
		EnableCompression: opts.CompressionEnabled,
	}

	wsc, resp, err := d.DialContext(ctx, url, opts.HTTPHeader)
	if err != nil {
		return nil, resp, err
	}

	return newConn[S, R](wsc, opts.Codec), resp, nil
}
