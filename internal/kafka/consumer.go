package kafka

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

// AnalyticsMetrics holds aggregated analytics data
type AnalyticsMetrics struct {
	TotalSessions   int64                     `json:"totalSessions"`
	TotalMoves      int64                     `json:"totalMoves"`
	TotalDuration   int64                     `json:"totalDuration"`
	Draws           int64                     `json:"draws"`
	WinsBySlot      map[int]int               `json:"winsBySlot"`
	SessionsPerHour map[string]int            `json:"sessionsPerHour"`
	SessionsPerDay  map[string]int            `json:"sessionsPerDay"`
	GameTypeStats   map[string]*GameTypeMetrics `json:"gameTypeStats"`
	mu              sync.RWMutex
}

// GameTypeMetrics holds per-game-type analytics
type GameTypeMetrics struct {
	Sessions   int64 `json:"sessions"`
	Finished   int64 `json:"finished"`
	Draws      int64 `json:"draws"`
	TotalMoves int64 `json:"totalMoves"`
}

// Consumer handles Kafka event consumption for analytics
type Consumer struct {
	consumer sarama.ConsumerGroup
	metrics  *AnalyticsMetrics
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewConsumer creates a new Kafka consumer
func NewConsumer() (*Consumer, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092"
	}

	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumer, err := sarama.NewConsumerGroup([]string{brokers}, "analytics-consumer", config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Consumer{
		consumer: consumer,
		metrics: &AnalyticsMetrics{
			WinsBySlot:      make(map[int]int),
			SessionsPerHour: make(map[string]int),
			SessionsPerDay:  make(map[string]int),
			GameTypeStats:   make(map[string]*GameTypeMetrics),
		},
		ctx:    ctx,
		cancel: cancel,
	}

	return c, nil
}

// Start begins consuming events
func (c *Consumer) Start() {
	go func() {
		for {
			if err := c.consumer.Consume(c.ctx, []string{TopicSessionEvents}, c); err != nil {
				log.Printf("Consumer error: %v", err)
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()
	log.Println("Kafka consumer started")
}

// Setup is called at the beginning of a new session
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is called at the end of a session
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from a partition
func (c *Consumer) ConsumeClaim(cgs sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		c.processMessage(msg)
		cgs.MarkMessage(msg, "")
	}
	return nil
}

// processMessage handles a single event message
func (c *Consumer) processMessage(msg *sarama.ConsumerMessage) {
	var event SessionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("Error unmarshaling event: %v", err)
		return
	}

	c.metrics.mu.Lock()
	defer c.metrics.mu.Unlock()

	switch event.Type {
	case EventSessionCreated:
		c.handleSessionCreated(event)
	case EventMove:
		c.handleMove(event)
	case EventSessionFinished:
		c.handleSessionFinished(event)
	}
}

func (c *Consumer) gameTypeStats(gameType string) *GameTypeMetrics {
	stats := c.metrics.GameTypeStats[gameType]
	if stats == nil {
		stats = &GameTypeMetrics{}
		c.metrics.GameTypeStats[gameType] = stats
	}
	return stats
}

// handleSessionCreated processes session created events
func (c *Consumer) handleSessionCreated(event SessionEvent) {
	c.metrics.TotalSessions++
	c.gameTypeStats(event.GameType).Sessions++

	hourKey := event.Timestamp.Format("2006-01-02-15")
	dayKey := event.Timestamp.Format("2006-01-02")
	c.metrics.SessionsPerHour[hourKey]++
	c.metrics.SessionsPerDay[dayKey]++
}

// handleMove processes move events
func (c *Consumer) handleMove(event SessionEvent) {
	c.metrics.TotalMoves++
	c.gameTypeStats(event.GameType).TotalMoves++
}

// handleSessionFinished processes session finished events
func (c *Consumer) handleSessionFinished(event SessionEvent) {
	data, ok := event.Data.(map[string]interface{})
	if !ok {
		return
	}

	stats := c.gameTypeStats(event.GameType)
	stats.Finished++

	if winner, ok := data["winner"].(float64); ok && winner != 0 {
		c.metrics.WinsBySlot[int(winner)]++
	} else {
		c.metrics.Draws++
		stats.Draws++
	}

	if duration, ok := data["durationSeconds"].(float64); ok {
		c.metrics.TotalDuration += int64(duration)
	}
}

// GetMetrics returns a copy of the current metrics
func (c *Consumer) GetMetrics() *AnalyticsMetrics {
	c.metrics.mu.RLock()
	defer c.metrics.mu.RUnlock()

	copy := &AnalyticsMetrics{
		TotalSessions:   c.metrics.TotalSessions,
		TotalMoves:      c.metrics.TotalMoves,
		TotalDuration:   c.metrics.TotalDuration,
		Draws:           c.metrics.Draws,
		WinsBySlot:      make(map[int]int),
		SessionsPerHour: make(map[string]int),
		SessionsPerDay:  make(map[string]int),
		GameTypeStats:   make(map[string]*GameTypeMetrics),
	}

	for k, v := range c.metrics.WinsBySlot {
		copy.WinsBySlot[k] = v
	}
	for k, v := range c.metrics.SessionsPerHour {
		copy.SessionsPerHour[k] = v
	}
	for k, v := range c.metrics.SessionsPerDay {
		copy.SessionsPerDay[k] = v
	}
	for k, v := range c.metrics.GameTypeStats {
		copy.GameTypeStats[k] = &GameTypeMetrics{
			Sessions:   v.Sessions,
			Finished:   v.Finished,
			Draws:      v.Draws,
			TotalMoves: v.TotalMoves,
		}
	}

	return copy
}

// GetAverageSessionDuration returns the average finished session duration in seconds
func (c *Consumer) GetAverageSessionDuration() float64 {
	c.metrics.mu.RLock()
	defer c.metrics.mu.RUnlock()

	finished := int64(c.metrics.Draws)
	for _, wins := range c.metrics.WinsBySlot {
		finished += int64(wins)
	}
	if finished == 0 {
		return 0
	}
	return float64(c.metrics.TotalDuration) / float64(finished)
}

// GetSessionsPerHour returns sessions created in the last 24 hours by hour
func (c *Consumer) GetSessionsPerHour() map[string]int {
	c.metrics.mu.RLock()
	defer c.metrics.mu.RUnlock()

	now := time.Now()
	result := make(map[string]int)

	for i := 0; i < 24; i++ {
		t := now.Add(-time.Duration(i) * time.Hour)
		key := t.Format("2006-01-02-15")
		result[key] = c.metrics.SessionsPerHour[key]
	}

	return result
}

// Stop stops the consumer
func (c *Consumer) Stop() {
	c.cancel()
	c.consumer.Close()
}
