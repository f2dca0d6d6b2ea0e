package chat

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/typedws/typedws"
	"github.com/typedws/typedws/internal/test/assert"
	"github.com/typedws/typedws/internal/test/wstest"
)

// TestServer connects two subscribers, posts from one and ensures
// both receive the broadcast.
func TestServer(t *testing.T) {
	t.Parallel()

	cs := NewServer(zerolog.New(zerolog.NewTestWriter(t)))
	s := httptest.NewServer(cs)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	cl1, _, err := typedws.Dial[Post, Event](ctx, wstest.URL(s), nil)
	assert.Success(t, err)
	defer cl1.CloseNow()

	cl2, _, err := typedws.Dial[Post, Event](ctx, wstest.URL(s), nil)
	assert.Success(t, err)
	defer cl2.CloseNow()

	// Posts only reach registered subscribers, wait for both handlers
	// to finish subscribing.
	for {
		cs.subscribersMu.RLock()
		n := len(cs.subscribers)
		cs.subscribersMu.RUnlock()
		if n == 2 {
			break
		}
		select {
		case <-ctx.Done():
			t.Fatal("timed out waiting for subscribers")
		case <-time.After(time.Millisecond * 10):
		}
	}

	err = cl1.SendItem(ctx, Post{Text: "hello"})
	assert.Success(t, err)

	for _, cl := range []*typedws.Conn[Post, Event]{cl1, cl2} {
		msg, err := cl.Recv(ctx)
		assert.Success(t, err)
		assert.Equal(t, "message kind", typedws.KindItem, msg.Kind)
		assert.Equal(t, "event text", "hello", msg.Item.Text)
		if msg.Item.ID == "" || msg.Item.From == "" {
			t.Fatalf("expected event ids to be set: %#v", msg.Item)
		}
	}
}
