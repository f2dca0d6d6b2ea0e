// Package echo implements a rate limited echo server over typed WebSockets.
package echo

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/typedws/typedws"
)

// Request is the message clients send.
type Request struct {
	N    int    `json:"n"`
	Note string `json:"note,omitempty"`
}

// Reply is the message the server sends back.
type Reply struct {
	N    int    `json:"n"`
	Note string `json:"note,omitempty"`
}

// Server is the WebSocket echo server implementation.
// It ensures the client speaks the echo subprotocol and
// only allows one message every 100ms with a 10 message burst.
type Server struct {
	// Logf controls where logs are sent.
	Logf func(f string, v ...any)
}

func (s Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := typedws.Accept[Reply, Request](w, r, &typedws.AcceptOptions{
		Subprotocols: []string{"echo"},
	})
	if err != nil {
		s.Logf("%v", err)
		return
	}
	defer c.Close(typedws.StatusInternalError, "the sky is falling")

	if c.Subprotocol() != "echo" {
		c.Close(typedws.StatusPolicyViolation, "client must speak the echo subprotocol")
		return
	}

	l := rate.NewLimiter(rate.Every(time.Millisecond*100), 10)
	for {
		err = echo(r.Context(), c, l)
		if typedws.CloseStatus(err) == typedws.StatusNormalClosure {
			return
		}
		if err != nil {
			s.Logf("failed to echo with %v: %v", r.RemoteAddr, err)
			return
		}
	}
}

// echo handles a single message exchange with a 10s budget.
func echo(ctx context.Context, c *typedws.Conn[Reply, Request], l *rate.Limiter) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := l.Wait(ctx)
	if err != nil {
		return err
	}

	msg, err := c.Recv(ctx)
	if err != nil {
		return err
	}

	switch msg.Kind {
	case typedws.KindClose:
		if msg.Close != nil {
			return *msg.Close
		}
		return typedws.CloseError{Code: typedws.StatusNoStatusRcvd}
	case typedws.KindItem:
		return c.SendItem(ctx, Reply(msg.Item))
	}
	return nil
}
