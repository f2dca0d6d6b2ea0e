package typedws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// controlTimeout bounds control frame writes that have no context deadline.
const controlTimeout = time.Second * 5

// Conn is a WebSocket connection with statically typed messages.
// It sends messages of type S and receives messages of type R.
//
// All methods may be called concurrently except for Recv: only one Recv may
// run at a time and a second concurrent call blocks until the first returns.
//
// You must always be reading from the connection, otherwise control frames
// are not processed and Ping never observes its pong.
//
// Every transport error from Recv or Send poisons the connection. Codec
// errors do not; see CodecError.
type Conn[S, R any] struct {
	conn  *websocket.Conn
	codec Codec

	readMu  cmu
	writeMu cmu

	// queue holds control frames surfaced by the handlers during a read,
	// interleaved with decoded items. Only the goroutine holding readMu
	// touches it.
	queue          []Message[R]
	closeDelivered bool

	closed    chan struct{}
	closeOnce sync.Once
	closeMu   sync.Mutex
	closeErr  error

	pingCounter   int32
	activePingsMu sync.Mutex
	activePings   map[string]chan struct{}
}

func newConn[S, R any](wsc *websocket.Conn, codec Codec) *Conn[S, R] {
	if codec == nil {
		codec = JSONCodec{}
	}
	c := &Conn[S, R]{
		conn:        wsc,
		codec:       codec,
		closed:      make(chan struct{}),
		activePings: make(map[string]chan struct{}),
	}
	wsc.SetPingHandler(c.pingHandler)
	wsc.SetPongHandler(c.pongHandler)
	return c
}

// Wrap adopts a connection upgraded by an external extractor, e.g. a handler
// owning its own websocket.Upgrader, and gives it typed messages.
//
// A nil codec means JSONCodec.
func Wrap[S, R any](wsc *websocket.Conn, codec Codec) *Conn[S, R] {
	return newConn[S, R](wsc, codec)
}

// Subprotocol returns the negotiated subprotocol.
// An empty string means the default protocol.
func (c *Conn[S, R]) Subprotocol() string {
	return c.conn.Subprotocol()
}

// SetReadLimit sets the maximum size in bytes for an incoming message.
// A peer exceeding it is sent StatusMessageTooBig and the connection fails.
func (c *Conn[S, R]) SetReadLimit(n int64) {
	c.conn.SetReadLimit(n)
}

// Underlying returns the host transport connection.
//
// Reading from it directly defeats the typed layer; it is an escape hatch
// for configuration the options do not cover.
func (c *Conn[S, R]) Underlying() *websocket.Conn {
	return c.conn
}

// Recv reads the next message from the connection.
//
// Data messages are decoded into R with the connection's codec; a decode
// failure returns a *CodecError and consumes only the offending message.
// Received pings and pongs are returned in arrival order interleaved with
// items, except pongs answering a pending Ping call, which are consumed.
// The first close frame from the peer is returned as a KindClose message;
// every call after that returns the CloseError.
func (c *Conn[S, R]) Recv(ctx context.Context) (Message[R], error) {
	err := c.readMu.lock(ctx)
	if err != nil {
		return Message[R]{}, err
	}
	defer c.readMu.unlock()

	for {
		if msg, ok := c.popQueued(); ok {
			return msg, nil
		}

		stop := c.watch(ctx, c.conn.SetReadDeadline)
		typ, p, err := c.conn.ReadMessage()
		stop()

		if err != nil {
			// Control frames observed before the failure still get delivered;
			// the transport returns the same error on every later call.
			if msg, ok := c.popQueued(); ok {
				return msg, nil
			}
			rerr := c.recvErr(ctx, err)
			if rerr != nil {
				return Message[R]{}, rerr
			}
			// The close frame was queued for delivery.
			continue
		}

		// The handlers may have queued control frames while the data frame
		// was being read. Append the item so delivery stays in order.
		var v R
		err = c.codec.Decode(MessageType(typ), p, &v)
		if err != nil {
			return Message[R]{}, &CodecError{Err: err}
		}
		c.queue = append(c.queue, Message[R]{Kind: KindItem, Item: v})
	}
}

func (c *Conn[S, R]) popQueued() (Message[R], bool) {
	if len(c.queue) == 0 {
		return Message[R]{}, false
	}
	msg := c.queue[0]
	c.queue = c.queue[1:]
	return msg, true
}

func (c *Conn[S, R]) recvErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		c.setCloseErr(ctx.Err())
		return fmt.Errorf("failed to read: %w", ctx.Err())
	}

	var hce *websocket.CloseError
	if errors.As(err, &hce) {
		ce := CloseError{Code: StatusCode(hce.Code), Reason: hce.Text}
		c.setCloseErr(ce)
		if !c.closeDelivered {
			c.closeDelivered = true
			msg := Message[R]{Kind: KindClose}
			if ce.Code != StatusNoStatusRcvd {
				frame := ce
				msg.Close = &frame
			}
			c.queue = append(c.queue, msg)
			return nil
		}
		return ce
	}

	c.setCloseErr(err)
	return fmt.Errorf("failed to read: %w", err)
}

// Send writes a message to the connection.
//
// KindItem messages are encoded with the connection's codec; an encode
// failure returns a *CodecError and writes nothing. Control messages are
// written with the context deadline, or a 5s deadline if there is none.
func (c *Conn[S, R]) Send(ctx context.Context, msg Message[S]) error {
	switch msg.Kind {
	case KindItem:
		return c.sendItem(ctx, msg.Item)
	case KindPing:
		return c.writeControl(ctx, websocket.PingMessage, msg.Payload)
	case KindPong:
		return c.writeControl(ctx, websocket.PongMessage, msg.Payload)
	case KindClose:
		var p []byte
		if msg.Close != nil {
			p = websocket.FormatCloseMessage(int(msg.Close.Code), msg.Close.Reason)
		}
		return c.writeControl(ctx, websocket.CloseMessage, p)
	default:
		return fmt.Errorf("unknown message kind: %v", msg.Kind)
	}
}

// SendItem is shorthand for Send with a KindItem message.
func (c *Conn[S, R]) SendItem(ctx context.Context, v S) error {
	return c.sendItem(ctx, v)
}

func (c *Conn[S, R]) sendItem(ctx context.Context, v S) error {
	typ, p, err := c.codec.Encode(v)
	if err != nil {
		return &CodecError{Err: err}
	}

	err = c.writeMu.lock(ctx)
	if err != nil {
		return err
	}
	defer c.writeMu.unlock()

	stop := c.watch(ctx, c.conn.SetWriteDeadline)
	err = c.conn.WriteMessage(int(typ), p)
	stop()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		c.setCloseErr(err)
		return fmt.Errorf("failed to write: %w", err)
	}
	return nil
}

func (c *Conn[S, R]) writeControl(ctx context.Context, typ int, p []byte) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(controlTimeout)
	}
	err := c.conn.WriteControl(typ, p, deadline)
	if err != nil {
		return fmt.Errorf("failed to write control frame: %w", err)
	}
	return nil
}

// Ping sends a ping to the peer and waits for a pong.
// Use this to measure latency or ensure the peer is responsive.
//
// Ping must be called concurrently with Recv as it does not read from the
// connection itself but waits for a Recv call to observe the pong.
//
// TCP Keepalives should suffice for most use cases.
func (c *Conn[S, R]) Ping(ctx context.Context) error {
	id := atomic.AddInt32(&c.pingCounter, 1)

	err := c.ping(ctx, strconv.Itoa(int(id)))
	if err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}
	return nil
}

func (c *Conn[S, R]) ping(ctx context.Context, p string) error {
	pong := make(chan struct{}, 1)

	c.activePingsMu.Lock()
	c.activePings[p] = pong
	c.activePingsMu.Unlock()

	defer func() {
		c.activePingsMu.Lock()
		delete(c.activePings, p)
		c.activePingsMu.Unlock()
	}()

	err := c.writeControl(ctx, websocket.PingMessage, []byte(p))
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
		return c.getCloseErr()
	case <-ctx.Done():
		return fmt.Errorf("failed to wait for pong: %w", ctx.Err())
	case <-pong:
		return nil
	}
}

// Close performs the closing handshake: it writes a close frame with the
// given status and reason, waits briefly for the peer's close frame unless
// a concurrent Recv will observe it, and releases the connection.
//
// It is idempotent and safe to defer alongside an explicit Close call.
func (c *Conn[S, R]) Close(code StatusCode, reason string) error {
	defer c.CloseNow()

	deadline := time.Now().Add(controlTimeout)
	p := websocket.FormatCloseMessage(int(code), reason)
	err := c.conn.WriteControl(websocket.CloseMessage, p, deadline)
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("failed to write close frame: %w", err)
	}

	// Drain until the peer's close frame arrives, but only if no Recv
	// loop holds the read side.
	if c.readMu.tryLock() {
		defer c.readMu.unlock()
		c.conn.SetReadDeadline(deadline)
		for {
			_, _, err := c.conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}
	return nil
}

// CloseNow releases the connection without a closing handshake.
// Use Close for a graceful close.
func (c *Conn[S, R]) CloseNow() error {
	var err error
	c.closeOnce.Do(func() {
		c.setCloseErr(net.ErrClosed)
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *Conn[S, R]) setCloseErr(err error) {
	c.closeMu.Lock()
	if c.closeErr == nil {
		c.closeErr = err
	}
	c.closeMu.Unlock()
}

func (c *Conn[S, R]) getCloseErr() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closeErr
}

// pingHandler runs on the goroutine blocked in Recv. It queues the ping for
// delivery and answers it with a pong, matching the host transport's stock
// behavior.
func (c *Conn[S, R]) pingHandler(p string) error {
	c.queue = append(c.queue, Message[R]{Kind: KindPing, Payload: []byte(p)})

	err := c.conn.WriteControl(websocket.PongMessage, []byte(p), time.Now().Add(controlTimeout))
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	if _, ok := err.(net.Error); ok {
		return nil
	}
	return err
}

// pongHandler runs on the goroutine blocked in Recv. Pongs answering a
// pending Ping are consumed; unsolicited pongs are queued for delivery.
func (c *Conn[S, R]) pongHandler(p string) error {
	c.activePingsMu.Lock()
	pong, ok := c.activePings[p]
	c.activePingsMu.Unlock()

	if ok {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	}

	c.queue = append(c.queue, Message[R]{Kind: KindPong, Payload: []byte(p)})
	return nil
}

// watch applies the context deadline to the connection and arranges for
// cancellation to unblock the pending read or write by forcing the deadline
// into the past. The transport treats deadline errors as fatal, so a
// cancelled operation poisons the connection.
func (c *Conn[S, R]) watch(ctx context.Context, setDeadline func(time.Time) error) (stop func()) {
	if d, ok := ctx.Deadline(); ok {
		setDeadline(d)
	} else {
		setDeadline(time.Time{})
	}

	stopped := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
			setDeadline(time.Unix(1, 0))
		case <-c.closed:
		case <-stopped:
		}
	}()
	return func() {
		close(stopped)
		<-done
	}
}

// cmu is a mutex whose Lock respects context cancellation.
type cmu struct {
	once sync.Once
	ch   chan struct{}
}

func (m *cmu) init() {
	m.once.Do(func() {
		m.ch = make(chan struct{}, 1)
	})
}

func (m *cmu) lock(ctx context.Context) error {
	m.init()
	select {
	case <-ctx.Done():
		return fmt.Errorf("failed to acquire lock: %w", ctx.Err())
	case m.ch <- struct{}{}:
		return nil
	}
}

func (m *cmu) tryLock() bool {
	m.init()
	select {
	case m.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

func (m *cmu) unlock() {
	<-m.ch
}
