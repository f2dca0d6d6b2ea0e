// Package bpool implements a shared pool of byte buffers.
package bpool

import (
	"bytes"
	"sync"
)

var pool sync.Pool

// Get grabs a buffer from the pool or allocates one if the pool is empty.
func Get() *bytes.Buffer {
	b, ok := pool.Get().(*bytes.Buffer)
	if !ok {
		b = &bytes.Buffer{}
	}
	return b
}

// Put resets b and returns it to the pool.
//
// The contents of b must not be retained past Put, the buffer will be
// handed out again.
func Put(b *bytes.Buffer) {
	b.Reset()
	pool.Put(b)
}
