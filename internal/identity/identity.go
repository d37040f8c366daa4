// Package identity persists the per-device client identity used to claim
// and re-claim player slots. The identity survives restarts so a returning
// player resumes the slot they already hold instead of consuming a new one.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const fileName = "identity.json"

// Identity is the stored device identity plus the slots it has claimed.
type Identity struct {
	ClientID string         `json:"clientId"`
	Slots    map[string]int `json:"slots"`
}

// Store reads and writes the identity file under the user config directory.
type Store struct {
	path string
}

// NewStore places the identity file in dir, or under the user config
// directory when dir is empty.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving config dir: %w", err)
		}
		dir = filepath.Join(base, "ldr-games")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, fileName)}, nil
}

// Load returns the stored identity, generating and persisting a fresh one
// when no file exists yet.
func (s *Store) Load() (*Identity, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		id := &Identity{
			ClientID: uuid.New().String(),
			Slots:    make(map[string]int),
		}
		if err := s.Save(id); err != nil {
			return nil, err
		}
		return id, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}
	if id.ClientID == "" {
		id.ClientID = uuid.New().String()
	}
	if id.Slots == nil {
		id.Slots = make(map[string]int)
	}
	return &id, nil
}

// Save writes the identity back to disk.
func (s *Store) Save(id *Identity) error {
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing identity file: %w", err)
	}
	return nil
}

// RememberSlot records which player slot this device holds in a session.
func (s *Store) RememberSlot(id *Identity, sessionID string, slot int) error {
	id.Slots[sessionID] = slot
	return s.Save(id)
}
