package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pavukanez/ldr-games/internal/session"
)

// MemoryStore is the memory-only fallback used when no database is
// reachable, and the store of choice in tests. Records are copied on the
// way in and out so callers never alias the stored state.
type MemoryStore struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*session.Session)}
}

func cloneSession(rec *session.Session) (*session.Session, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("error copying session: %w", err)
	}
	var out session.Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("error copying session: %w", err)
	}
	return &out, nil
}

// Get returns a copy of the stored record, or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	rec, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(rec)
}

// Insert stores a copy of a new record.
func (m *MemoryStore) Insert(_ context.Context, rec *session.Session) error {
	copied, err := cloneSession(rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[rec.ID]; exists {
		return fmt.Errorf("session %s already exists", rec.ID)
	}
	m.sessions[rec.ID] = copied
	return nil
}

// Update replaces the full stored record.
func (m *MemoryStore) Update(_ context.Context, rec *session.Session) error {
	copied, err := cloneSession(rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[rec.ID]; !exists {
		return ErrNotFound
	}
	m.sessions[rec.ID] = copied
	return nil
}

// Summary counts the held sessions.
func (m *MemoryStore) Summary(_ context.Context) (*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum Summary
	for _, rec := range m.sessions {
		sum.TotalSessions++
		switch rec.Status {
		case session.StatusWaiting:
			sum.Waiting++
		case session.StatusActive:
			sum.Active++
		case session.StatusFinished:
			sum.Finished++
			if rec.Winner == 0 {
				sum.Draws++
			}
		}
		switch rec.GameType {
		case session.GameBattleship:
			sum.Battleship++
		case session.GameGomoku:
			sum.Gomoku++
		}
	}
	return &sum, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() {}
