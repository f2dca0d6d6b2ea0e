package typedws

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gorilla/websocket"
)

// AcceptOptions represents Accept's options.
type AcceptOptions struct {
	// Subprotocols lists the WebSocket subprotocols that Accept will negotiate
	// with the client. The empty subprotocol will always be negotiated as per
	// RFC 6455. If you would like to reject it, close the connection when
	// c.Subprotocol() == "".
	Subprotocols []string

	// InsecureSkipVerify is used to disable Accept's origin verification
	// behaviour.
	//
	// You probably want to use OriginPatterns instead.
	InsecureSkipVerify bool

	// OriginPatterns lists the host patterns for authorized origins.
	// The request host is always authorized.
	// Use this to enable cross origin WebSockets.
	//
	// i.e javascript running on example.com wants to access a WebSocket server
	// at chat.example.com. In such a case, example.com is the origin and
	// chat.example.com is the request host. One would set this field to
	// []string{"example.com"} to authorize example.com to connect.
	//
	// Each pattern is matched case insensitively against the request origin
	// host with filepath.Match.
	//
	// Please ensure you understand the ramifications of enabling this.
	// If used incorrectly your WebSocket server will be open to CSRF attacks.
	OriginPatterns []string

	// CompressionEnabled negotiates permessage-deflate with the client.
	// Compression itself is handled entirely by the host transport.
	CompressionEnabled bool

	// Codec encodes and decodes the typed messages.
	// A nil Codec means JSONCodec.
	Codec Codec
}

// Accept accepts a WebSocket handshake from a client and upgrades the
// connection to a typed WebSocket sending messages of type S and receiving
// messages of type R.
//
// Accept will write a response to w on all errors, including a 403 when the
// Origin is not authorized.
func Accept[S, R any](w http.ResponseWriter, r *http.Request, opts *AcceptOptions) (*Conn[S, R], error) {
	c, err := accept[S, R](w, r, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to accept websocket connection: %w", err)
	}
	return c, nil
}

func accept[S, R any](w http.ResponseWriter, r *http.Request, opts *AcceptOptions) (*Conn[S, R], error) {
	if opts == nil {
		opts = &AcceptOptions{}
	}

	u := websocket.Upgrader{
		Subprotocols:      opts.Subprotocols,
		EnableCompression: opts.CompressionEnabled,
	}
	switch {
	case opts.InsecureSkipVerify:
		u.CheckOrigin = func(*http.Request) bool { return true }
	case len(opts.OriginPatterns) > 0:
		patterns := opts.OriginPatterns
		u.CheckOrigin = func(r *http.Request) bool {
			return authorizedOrigin(r, patterns)
		}
	}
	// A nil CheckOrigin leaves the transport's same origin check in place.

	wsc, err := u.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	return newConn[S, R](wsc, opts.Codec), nil
}

func authorizedOrigin(r *http.Request, originPatterns []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(r.Host, u.Host) {
		return true
	}
	for _, pattern := range originPatterns {
		matched, err := filepath.Match(strings.ToLower(pattern), strings.ToLower(u.Host))
		if err != nil {
			return false
		}
		if matched {
			return true
		}
	}
	return false
}
