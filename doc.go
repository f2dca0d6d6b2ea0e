// Package typedws wraps a WebSocket connection with statically typed messages.
//
// A Conn[S, R] sends messages of type S and receives messages of type R,
// serialized by a pluggable Codec. JSON is the default codec; import
// the wsmsgpack, wscbor or wspb subpackages for the other encodings.
//
// The WebSocket protocol itself is delegated to github.com/gorilla/websocket.
// Use Accept and Dial for the handshake, or Wrap to adopt a connection
// upgraded elsewhere (e.g. by a gin handler owning its own Upgrader).
package typedws
