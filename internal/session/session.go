package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavukanez/ldr-games/internal/battleship"
	"github.com/pavukanez/ldr-games/internal/gomoku"
)

// GameType selects which rules engine owns the board blobs.
type GameType string

const (
	GameBattleship GameType = "battleship"
	GameGomoku     GameType = "gomoku"
)

// Status is the session lifecycle. Transitions are one-directional:
// waiting -> active -> finished.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// MoveRecord is one entry in the session move log. Entries are append-only
// and immutable once written.
type MoveRecord struct {
	Player    int       `json:"player"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Hit       bool      `json:"hit"`
	ShipSunk  string    `json:"shipSunk,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the shared persisted record describing one match. It is the
// single source of truth; clients hold only disposable reconstructions of
// the engine state, rebuilt from the board blobs on every read.
type Session struct {
	ID            string          `json:"id"`
	GameType      GameType        `json:"gameType"`
	Status        Status          `json:"status"`
	CurrentPlayer int             `json:"currentPlayer"`
	Player1Board  json.RawMessage `json:"player1Board,omitempty"`
	Player2Board  json.RawMessage `json:"player2Board,omitempty"`
	Moves         []MoveRecord    `json:"moves"`
	Winner        int             `json:"winner"`
	Player1ID     string          `json:"player1Id,omitempty"`
	Player2ID     string          `json:"player2Id,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Errors
var (
	ErrSessionFull   = &ClaimError{"game is full"}
	ErrUnknownGame   = &ClaimError{"unknown game type"}
	ErrWrongGameType = &ClaimError{"board blob does not belong to this game type"}
)

type ClaimError struct {
	msg string
}

func (e *ClaimError) Error() string {
	return e.msg
}

// New creates a fresh session record with freshly initialized engine state:
// two independently placed fleets for battleship, or one empty gomoku board
// mirrored into both board fields to keep the storage shape symmetric.
func New(gameType GameType) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:            uuid.New().String(),
		GameType:      gameType,
		Status:        StatusWaiting,
		CurrentPlayer: 1,
		Moves:         []MoveRecord{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	switch gameType {
	case GameBattleship:
		for _, field := range []*json.RawMessage{&s.Player1Board, &s.Player2Board} {
			g, err := battleship.NewRandomGame()
			if err != nil {
				return nil, fmt.Errorf("session: init battleship board: %w", err)
			}
			blob, err := g.Encode()
			if err != nil {
				return nil, fmt.Errorf("session: encode battleship board: %w", err)
			}
			*field = blob
		}
	case GameGomoku:
		blob, err := gomoku.NewGame().Encode()
		if err != nil {
			return nil, fmt.Errorf("session: encode gomoku board: %w", err)
		}
		s.Player1Board = blob
		s.Player2Board = blob
	default:
		return nil, ErrUnknownGame
	}
	return s, nil
}

// ClaimSlot assigns the client to a player slot against this record.
// Idempotent: a client that already holds a slot resumes it. Otherwise the
// first empty slot is claimed; claiming the second slot activates the
// session. Returns the slot number (1 or 2).
func (s *Session) ClaimSlot(clientID string) (int, error) {
	switch {
	case clientID != "" && clientID == s.Player1ID:
		return 1, nil
	case clientID != "" && clientID == s.Player2ID:
		return 2, nil
	case s.Player1ID == "":
		s.Player1ID = clientID
		return 1, nil
	case s.Player2ID == "":
		s.Player2ID = clientID
		if s.Status == StatusWaiting {
			s.Status = StatusActive
		}
		return 2, nil
	default:
		return 0, ErrSessionFull
	}
}

// PlayerSlot returns the slot held by the client, or 0.
func (s *Session) PlayerSlot(clientID string) int {
	if clientID == "" {
		return 0
	}
	if clientID == s.Player1ID {
		return 1
	}
	if clientID == s.Player2ID {
		return 2
	}
	return 0
}

// BattleshipBoard decodes the given player's fleet board. The blobs form a
// tagged union keyed by GameType: decoding through the wrong game type is
// an error, never a silent reinterpretation.
func (s *Session) BattleshipBoard(playerNum int) (*battleship.Game, error) {
	if s.GameType != GameBattleship {
		return nil, ErrWrongGameType
	}
	blob := s.Player1Board
	if playerNum == 2 {
		blob = s.Player2Board
	}
	return battleship.Decode(blob)
}

// GomokuBoard decodes the shared gomoku board. Player 1's field is
// authoritative; player 2's mirrors it.
func (s *Session) GomokuBoard() (*gomoku.Game, error) {
	if s.GameType != GameGomoku {
		return nil, ErrWrongGameType
	}
	return gomoku.Decode(s.Player1Board)
}

// Opponent returns the other player's slot number.
func Opponent(playerNum int) int {
	if playerNum == 1 {
		return 2
	}
	return 1
}

// ParseGameType validates a client-supplied game type string.
func ParseGameType(raw string) (GameType, error) {
	switch GameType(raw) {
	case GameBattleship:
		return GameBattleship, nil
	case GameGomoku:
		return GameGomoku, nil
	default:
		return "", ErrUnknownGame
	}
}
