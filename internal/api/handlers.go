package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavukanez/ldr-games/internal/kafka"
	"github.com/pavukanez/ldr-games/internal/play"
	"github.com/pavukanez/ldr-games/internal/session"
	"github.com/pavukanez/ldr-games/internal/storage"
	"github.com/pavukanez/ldr-games/internal/websocket"
)

// Handler serves the REST endpoints for creating and inspecting sessions.
type Handler struct {
	store        storage.Store
	coordinator  *play.Coordinator
	hub          *websocket.Hub
	consumer     *kafka.Consumer
	kafkaEnabled bool
}

// NewHandler wires the API handlers. consumer may be nil when the analytics
// pipeline is disabled.
func NewHandler(store storage.Store, coordinator *play.Coordinator, hub *websocket.Hub, consumer *kafka.Consumer, kafkaEnabled bool) *Handler {
	return &Handler{
		store:        store,
		coordinator:  coordinator,
		hub:          hub,
		consumer:     consumer,
		kafkaEnabled: kafkaEnabled,
	}
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", h.createSession)
		r.Get("/sessions/{id}", h.getSession)
		r.Get("/status", h.getStatus)
		r.Get("/analytics", h.getAnalytics)
	})
}

type createSessionRequest struct {
	GameType string `json:"gameType"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	GameType  string `json:"gameType"`
	Path      string `json:"path"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gameType, err := session.ParseGameType(req.GameType)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.coordinator.Create(r.Context(), gameType)
	if err != nil {
		log.Printf("Error creating session: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: rec.ID,
		GameType:  string(rec.GameType),
		Path:      "/api/sessions/" + rec.ID,
	})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Printf("Error loading session %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

type statusResponse struct {
	Status           string           `json:"status"`
	Time             time.Time        `json:"time"`
	ConnectedClients int              `json:"connectedClients"`
	ActiveSessions   int              `json:"activeSessions"`
	KafkaEnabled     bool             `json:"kafkaEnabled"`
	Sessions         *storage.Summary `json:"sessions,omitempty"`
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:           "ok",
		Time:             time.Now().UTC(),
		ConnectedClients: h.hub.ConnectedClients(),
		ActiveSessions:   h.hub.SubscribedSessions(),
		KafkaEnabled:     h.kafkaEnabled,
	}

	summary, err := h.store.Summary(r.Context())
	if err != nil {
		log.Printf("Error loading session summary: %v", err)
	} else {
		resp.Sessions = summary
	}

	respondJSON(w, http.StatusOK, resp)
}

type analyticsResponse struct {
	Metrics            *kafka.AnalyticsMetrics `json:"metrics"`
	AvgSessionDuration float64                 `json:"avgSessionDuration"`
	SessionsPerHour    map[string]int          `json:"sessionsPerHour"`
}

func (h *Handler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	if h.consumer == nil {
		respondError(w, http.StatusServiceUnavailable, "analytics pipeline is disabled")
		return
	}

	respondJSON(w, http.StatusOK, analyticsResponse{
		Metrics:            h.consumer.GetMetrics(),
		AvgSessionDuration: h.consumer.GetAverageSessionDuration(),
		SessionsPerHour:    h.consumer.GetSessionsPerHour(),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
