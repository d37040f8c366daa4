package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/pavukanez/ldr-games/internal/session"
)

// Hub maintains the set of connected clients and fans the latest session
// record out to every subscriber of a session id. It is the concrete
// change-notification channel: after any successful write the full updated
// record reaches all participants, the mover included, and each replaces
// its local view wholly with what it receives.
type Hub struct {
	// connected clients
	clients map[*Client]bool

	// subscribers by session id
	sessionClients map[string]map[*Client]bool

	// register requests from clients
	register chan *Client

	// unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		sessionClients: make(map[string]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if client.sessionID != "" {
					if subs := h.sessionClients[client.sessionID]; subs != nil {
						delete(subs, client)
						if len(subs) == 0 {
							delete(h.sessionClients, client.sessionID)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Client disconnected (session %s)", client.sessionID)
		}
	}
}

// Subscribe adds a client to a session's subscriber set. A client follows
// at most one session; re-subscribing moves it.
func (h *Hub) Subscribe(sessionID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.sessionID != "" && client.sessionID != sessionID {
		if subs := h.sessionClients[client.sessionID]; subs != nil {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.sessionClients, client.sessionID)
			}
		}
	}
	if h.sessionClients[sessionID] == nil {
		h.sessionClients[sessionID] = make(map[*Client]bool)
	}
	h.sessionClients[sessionID][client] = true
	client.sessionID = sessionID
}

// Publish broadcasts the full updated record to every subscriber of its
// session id. Implements the coordinator's Notifier.
func (h *Hub) Publish(rec *session.Session) {
	h.broadcast(rec.ID, Message{Type: TypeState, Session: rec})
}

func (h *Hub) broadcast(sessionID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	subs := h.sessionClients[sessionID]
	clients := make([]*Client, 0, len(subs))
	for client := range subs {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			log.Printf("Dropping %s message for session %s - client buffer full", msg.Type, sessionID)
		}
	}
}

// ConnectedClients returns the number of connected clients.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscribedSessions returns the number of sessions with at least one
// subscriber.
func (h *Hub) SubscribedSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessionClients)
}
