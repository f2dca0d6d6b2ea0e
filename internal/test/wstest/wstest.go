// Package wstest contains helpers for testing typed WebSocket connections.
package wstest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/typedws/typedws"
)

// URL returns the ws url for s.
func URL(s *httptest.Server) string {
	return strings.Replace(s.URL, "http", "ws", 1)
}

// Pipe starts a typed WebSocket server, dials it and returns both ends.
//
// The type parameters are from the client's perspective: the client sends S
// and receives R, so the server end sends R and receives S. Both ends are
// released when the test finishes.
func Pipe[S, R any](t testing.TB, acceptOpts *typedws.AcceptOptions, dialOpts *typedws.DialOptions) (srv *typedws.Conn[R, S], cli *typedws.Conn[S, R]) {
	t.Helper()

	srvs := make(chan *typedws.Conn[R, S], 1)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := typedws.Accept[R, S](w, r, acceptOpts)
		if err != nil {
			t.Error(err)
			return
		}
		srvs <- c
	}))
	t.Cleanup(s.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	cli, _, err := typedws.Dial[S, R](ctx, URL(s), dialOpts)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case srv = <-srvs:
	case <-ctx.Done():
		t.Fatal("timed out waiting for the server side of the pipe")
	}

	t.Cleanup(func() {
		cli.CloseNow()
		srv.CloseNow()
	})
	return srv, cli
}

// EchoLoop sends every received item back on c until an error occurs,
// the peer closes or the context expires.
func EchoLoop[T any](ctx context.Context, c *typedws.Conn[T, T]) error {
	defer c.Close(typedws.StatusInternalError, "")

	ctx, cancel := context.WithTimeout(ctx, time.Minute*5)
	defer cancel()

	for {
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
			err = c.SendItem(ctx, msg.Item)
			if err != nil {
				return err
			}
		}
	}
}
