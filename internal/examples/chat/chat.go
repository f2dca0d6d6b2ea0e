// Package chat implements a broadcast chat server over typed WebSockets.
//
// Every connected subscriber receives every posted message. Messages to
// slow subscribers are dropped rather than blocking the broadcast.
package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/typedws/typedws"
)

// Post is the message clients send.
type Post struct {
	Text string `json:"text"`
}

// Event is the message the server broadcasts.
type Event struct {
	ID   string    `json:"id"`
	From string    `json:"from"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Server enables broadcasting to a set of subscribers.
type Server struct {
	log zerolog.Logger

	// subscriberMessageBuffer controls the max number of events queued per
	// subscriber before events to it are dropped.
	subscriberMessageBuffer int

	subscribersMu sync.RWMutex
	subscribers   map[*subscriber]struct{}
}

type subscriber struct {
	id     string
	events chan Event
}

// NewServer returns a Server ready to accept subscribers.
func NewServer(log zerolog.Logger) *Server {
	return &Server{
		log:                     log,
		subscriberMessageBuffer: 16,
		subscribers:             make(map[*subscriber]struct{}),
	}
}

// ServeHTTP accepts the WebSocket connection, subscribes it to all future
// events and publishes everything it posts.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := typedws.Accept[Event, Post](w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to accept subscriber")
		return
	}
	defer c.Close(typedws.StatusInternalError, "")

	err = s.subscribe(r.Context(), c)
	if errors.Is(err, context.Canceled) {
		return
	}
	if typedws.CloseStatus(err) == typedws.StatusNormalClosure ||
		typedws.CloseStatus(err) == typedws.StatusGoingAway {
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("subscriber failed")
	}
}

// subscribe registers a subscriber, forwards broadcast events to it and
// publishes its posts until the connection drops or ctx is done.
func (s *Server) subscribe(ctx context.Context, c *typedws.Conn[Event, Post]) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := &subscriber{
		id:     uuid.NewString(),
		events: make(chan Event, s.subscriberMessageBuffer),
	}
	s.addSubscriber(sub)
	defer s.deleteSubscriber(sub)

	s.log.Info().Str("subscriber", sub.id).Msg("subscribed")

	// Read side: posts become broadcast events. Cancelling the context on
	// return also tears the write side down when the connection drops.
	go func() {
		defer cancel()
		for {
			msg, err := c.Recv(ctx)
			if err != nil {
				return
			}
			switch msg.Kind {
			case typedws.KindClose:
				return
			case typedws.KindItem:
				s.Publish(sub.id, msg.Item.Text)
			}
		}
	}()

	for {
		select {
		case ev := <-sub.events:
			err := sendTimeout(ctx, time.Second*5, c, ev)
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Publish broadcasts a post to all subscribers.
// It never blocks, events to slow subscribers are dropped.
func (s *Server) Publish(from, text string) {
	ev := Event{
		ID:   uuid.NewString(),
		From: from,
		Text: text,
		At:   time.Now().UTC(),
	}

	s.subscribersMu.RLock()
	defer s.subscribersMu.RUnlock()

	for sub := range s.subscribers {
		select {
		case sub.events <- ev:
		default:
			s.log.Debug().Str("subscriber", sub.id).Msg("dropped event for slow subscriber")
		}
	}
}

func (s *Server) addSubscriber(sub *subscriber) {
	s.subscribersMu.Lock()
	s.subscribers[sub] = struct{}{}
	s.subscribersMu.Unlock()
}

func (s *Server) deleteSubscriber(sub *subscriber) {
	s.subscribersMu.Lock()
	delete(s.subscribers, sub)
	s.subscribersMu.Unlock()
}

func sendTimeout(ctx context.Context, timeout time.Duration, c *typedws.Conn[Event, Post], ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return c.SendItem(ctx, ev)
}
