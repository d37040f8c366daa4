package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavukanez/ldr-games/internal/session"
)

func newTestClient() *Client {
	return &Client{send: make(chan []byte, 8)}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()

	c1 := newTestClient()
	c2 := newTestClient()
	hub.Subscribe("session-a", c1)
	hub.Subscribe("session-a", c2)

	other := newTestClient()
	hub.Subscribe("session-b", other)

	hub.Publish(&session.Session{ID: "session-a", Winner: 1})

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, TypeState, msg.Type)
			require.NotNil(t, msg.Session)
			assert.Equal(t, "session-a", msg.Session.ID)
			assert.Equal(t, 1, msg.Session.Winner)
		default:
			t.Fatal("subscriber did not receive the state message")
		}
	}

	select {
	case <-other.send:
		t.Fatal("subscriber of another session received the message")
	default:
	}
}

func TestResubscribeMovesClient(t *testing.T) {
	hub := NewHub()

	c := newTestClient()
	hub.Subscribe("session-a", c)
	hub.Subscribe("session-b", c)

	hub.Publish(&session.Session{ID: "session-a"})
	select {
	case <-c.send:
		t.Fatal("client still receives the old session's messages")
	default:
	}

	hub.Publish(&session.Session{ID: "session-b"})
	select {
	case <-c.send:
	default:
		t.Fatal("client missing the new session's messages")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()

	c := &Client{send: make(chan []byte, 1)}
	hub.Subscribe("session-a", c)

	hub.Publish(&session.Session{ID: "session-a"})
	hub.Publish(&session.Session{ID: "session-a"})

	assert.Len(t, c.send, 1)
}

func TestSubscribedSessionsCount(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.SubscribedSessions())

	hub.Subscribe("session-a", newTestClient())
	hub.Subscribe("session-a", newTestClient())
	hub.Subscribe("session-b", newTestClient())

	assert.Equal(t, 2, hub.SubscribedSessions())
}
