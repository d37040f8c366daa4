package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/pavukanez/ldr-games/internal/play"
	"github.com/pavukanez/ldr-games/internal/session"
)

// Message types sent to clients.
const (
	TypeState  = "state"
	TypeJoined = "joined"
	TypeError  = "error"
)

// Message types accepted from clients.
const (
	TypeJoin = "join"
	TypeMove = "move"
)

// Message is the envelope for everything the server pushes to a client.
type Message struct {
	Type      string           `json:"type"`
	SessionID string           `json:"sessionId,omitempty"`
	PlayerNum int              `json:"playerNum,omitempty"`
	Session   *session.Session `json:"session,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// IncomingMessage is what a client sends over the socket.
type IncomingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
}

// Handler routes websocket messages to the play coordinator.
type Handler struct {
	hub         *Hub
	coordinator *play.Coordinator
}

func NewHandler(hub *Hub, coordinator *play.Coordinator) *Handler {
	return &Handler{
		hub:         hub,
		coordinator: coordinator,
	}
}

// HandleMessage dispatches one raw message from a client.
func (h *Handler) HandleMessage(client *Client, data []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(client, "invalid message")
		return
	}

	switch msg.Type {
	case TypeJoin:
		h.handleJoin(client, msg)
	case TypeMove:
		h.handleMove(client, msg)
	default:
		h.sendError(client, "unknown message type: "+msg.Type)
	}
}

func (h *Handler) handleJoin(client *Client, msg IncomingMessage) {
	if msg.SessionID == "" || msg.ClientID == "" {
		h.sendError(client, "join requires sessionId and clientId")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	playerNum, rec, err := h.coordinator.Join(ctx, msg.SessionID, msg.ClientID)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}

	client.clientID = msg.ClientID
	h.hub.Subscribe(msg.SessionID, client)
	log.Printf("Client %s joined session %s as player %d", msg.ClientID, msg.SessionID, playerNum)

	h.send(client, Message{
		Type:      TypeJoined,
		SessionID: msg.SessionID,
		PlayerNum: playerNum,
		Session:   rec,
	})
}

func (h *Handler) handleMove(client *Client, msg IncomingMessage) {
	if client.sessionID == "" {
		h.sendError(client, "join a session before moving")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The updated state reaches every subscriber through the hub, so the
	// mover only hears back directly when the move is rejected.
	if _, err := h.coordinator.Move(ctx, client.sessionID, client.clientID, msg.Row, msg.Col); err != nil {
		h.sendError(client, err.Error())
	}
}

func (h *Handler) send(client *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}
	select {
	case client.send <- data:
	default:
		log.Printf("Client send buffer full, dropping message")
	}
}

func (h *Handler) sendError(client *Client, text string) {
	h.send(client, Message{Type: TypeError, Error: text})
}
