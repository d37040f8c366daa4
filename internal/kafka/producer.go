package kafka

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/IBM/sarama"

	"github.com/pavukanez/ldr-games/internal/session"
)

const (
	TopicSessionEvents = "session-events"
)

// EventType represents the type of session event
type EventType string

const (
	EventSessionCreated  EventType = "session_created"
	EventMove            EventType = "move"
	EventSessionFinished EventType = "session_finished"
)

// SessionEvent represents a session event for analytics
type SessionEvent struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	GameType  string    `json:"gameType"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// SessionCreatedData contains data for session created events
type SessionCreatedData struct {
	Status string `json:"status"`
}

// MoveData contains data for move events
type MoveData struct {
	Player  int  `json:"player"`
	Row     int  `json:"row"`
	Col     int  `json:"col"`
	Hit     bool `json:"hit,omitempty"`
	MoveNum int  `json:"moveNum"`
}

// SessionFinishedData contains data for session finished events
type SessionFinishedData struct {
	Winner          int  `json:"winner"`
	Draw            bool `json:"draw"`
	TotalMoves      int  `json:"totalMoves"`
	DurationSeconds int  `json:"durationSeconds"`
}

// Producer handles Kafka event production
type Producer struct {
	producer sarama.SyncProducer
	enabled  bool
}

// NewProducer creates a new Kafka producer. When no broker is reachable the
// producer starts disabled and every emit is a no-op.
func NewProducer() (*Producer, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092"
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer([]string{brokers}, config)
	if err != nil {
		log.Printf("Kafka producer not available: %v (analytics disabled)", err)
		return &Producer{enabled: false}, nil
	}

	log.Println("Kafka producer connected")
	return &Producer{producer: producer, enabled: true}, nil
}

// EmitSessionCreated emits a session created event
func (p *Producer) EmitSessionCreated(rec *session.Session) {
	if !p.enabled {
		return
	}

	p.send(SessionEvent{
		Type:      EventSessionCreated,
		SessionID: rec.ID,
		GameType:  string(rec.GameType),
		Timestamp: time.Now(),
		Data: SessionCreatedData{
			Status: string(rec.Status),
		},
	})
}

// EmitMove emits a move event
func (p *Producer) EmitMove(rec *session.Session, mv session.MoveRecord) {
	if !p.enabled {
		return
	}

	p.send(SessionEvent{
		Type:      EventMove,
		SessionID: rec.ID,
		GameType:  string(rec.GameType),
		Timestamp: time.Now(),
		Data: MoveData{
			Player:  mv.Player,
			Row:     mv.Row,
			Col:     mv.Col,
			Hit:     mv.Hit,
			MoveNum: len(rec.Moves),
		},
	})
}

// EmitSessionFinished emits a session finished event
func (p *Producer) EmitSessionFinished(rec *session.Session) {
	if !p.enabled {
		return
	}

	p.send(SessionEvent{
		Type:      EventSessionFinished,
		SessionID: rec.ID,
		GameType:  string(rec.GameType),
		Timestamp: time.Now(),
		Data: SessionFinishedData{
			Winner:          rec.Winner,
			Draw:            rec.Winner == 0,
			TotalMoves:      len(rec.Moves),
			DurationSeconds: int(rec.UpdatedAt.Sub(rec.CreatedAt).Seconds()),
		},
	})
}

// send sends an event to Kafka
func (p *Producer) send(event SessionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: TopicSessionEvents,
		Key:   sarama.StringEncoder(event.SessionID),
		Value: sarama.ByteEncoder(data),
	}

	_, _, err = p.producer.SendMessage(msg)
	if err != nil {
		log.Printf("Error sending event to Kafka: %v", err)
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// IsEnabled returns whether Kafka is enabled
func (p *Producer) IsEnabled() bool {
	return p.enabled
}
