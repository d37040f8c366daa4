package play

import (
	"context"
	"fmt"
	"time"

	"github.com/pavukanez/ldr-games/internal/session"
)

// Store is the narrow record-store contract the coordinator needs: read the
// latest record, insert a new one, write a full record back.
type Store interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Insert(ctx context.Context, rec *session.Session) error
	Update(ctx context.Context, rec *session.Session) error
}

// Notifier delivers the full updated record to every subscriber of the
// session, the mover included.
type Notifier interface {
	Publish(rec *session.Session)
}

// Events receives game lifecycle events for the analytics pipeline.
// Optional: a nil Events is silently skipped.
type Events interface {
	EmitSessionCreated(rec *session.Session)
	EmitMove(rec *session.Session, mv session.MoveRecord)
	EmitSessionFinished(rec *session.Session)
}

// Errors
var (
	ErrNotYourTurn    = &TurnError{"not your turn"}
	ErrNotInSession   = &TurnError{"not a player in this session"}
	ErrGameNotStarted = &TurnError{"waiting for the second player"}
	ErrGameFinished   = &TurnError{"game is already finished"}
	ErrInvalidMove    = &TurnError{"invalid move"}
)

type TurnError struct {
	msg string
}

func (e *TurnError) Error() string {
	return e.msg
}

// Coordinator runs the read-modify-write cycle for every player action:
// read the record, reconstruct the engine from the stored blobs, let the
// engine validate and apply, compute the full next record, write it back
// and broadcast it. The coordinator itself performs no game-rule checks
// beyond the turn gate.
//
// The protocol is cooperative and non-transactional: no optimistic
// concurrency token, last write wins. Consistency rests on the turn gate,
// which is application-level and not race-proof.
type Coordinator struct {
	store    Store
	notifier Notifier
	events   Events
}

// NewCoordinator wires the coordinator to its collaborators.
func NewCoordinator(store Store, notifier Notifier) *Coordinator {
	return &Coordinator{store: store, notifier: notifier}
}

// SetEvents attaches the analytics event sink.
func (c *Coordinator) SetEvents(events Events) {
	c.events = events
}

// Create initializes and persists a new session record.
func (c *Coordinator) Create(ctx context.Context, gameType session.GameType) (*session.Session, error) {
	rec, err := session.New(gameType)
	if err != nil {
		return nil, err
	}
	if err := c.store.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	if c.events != nil {
		c.events.EmitSessionCreated(rec)
	}
	return rec, nil
}

// Load reads the latest session record without touching it.
func (c *Coordinator) Load(ctx context.Context, sessionID string) (*session.Session, error) {
	return c.store.Get(ctx, sessionID)
}

// Join claims or resumes a player slot for the client against the freshly
// read record. A resume writes nothing; a new claim writes the full record
// back and notifies subscribers.
func (c *Coordinator) Join(ctx context.Context, sessionID, clientID string) (int, *session.Session, error) {
	rec, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return 0, nil, err
	}

	resumed := rec.PlayerSlot(clientID) != 0
	slot, err := rec.ClaimSlot(clientID)
	if err != nil {
		return 0, nil, err
	}
	if resumed {
		return slot, rec, nil
	}

	rec.UpdatedAt = time.Now().UTC()
	if err := c.store.Update(ctx, rec); err != nil {
		return 0, nil, fmt.Errorf("claiming slot: %w", err)
	}
	c.notifier.Publish(rec)
	return slot, rec, nil
}

// Move applies one player action. On any failure the stored record is left
// untouched and the error surfaces to the caller; there is no retry and no
// partial commit.
func (c *Coordinator) Move(ctx context.Context, sessionID, clientID string, row, col int) (*session.Session, error) {
	rec, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	slot := rec.PlayerSlot(clientID)
	if slot == 0 {
		return nil, ErrNotInSession
	}
	switch rec.Status {
	case session.StatusWaiting:
		return nil, ErrGameNotStarted
	case session.StatusFinished:
		return nil, ErrGameFinished
	}
	if rec.CurrentPlayer != slot {
		return nil, ErrNotYourTurn
	}

	var mv session.MoveRecord
	switch rec.GameType {
	case session.GameBattleship:
		mv, err = c.applyBattleshipMove(rec, slot, row, col)
	case session.GameGomoku:
		mv, err = c.applyGomokuMove(rec, slot, row, col)
	default:
		err = session.ErrUnknownGame
	}
	if err != nil {
		return nil, err
	}

	rec.Moves = append(rec.Moves, mv)
	rec.UpdatedAt = time.Now().UTC()
	if err := c.store.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("writing move: %w", err)
	}

	c.notifier.Publish(rec)
	if c.events != nil {
		c.events.EmitMove(rec, mv)
		if rec.Status == session.StatusFinished {
			c.events.EmitSessionFinished(rec)
		}
	}
	return rec, nil
}

// applyBattleshipMove fires at the opponent's board. The turn flips only on
// a miss; a hit keeps the turn. All ships sunk decides the game.
func (c *Coordinator) applyBattleshipMove(rec *session.Session, slot, row, col int) (session.MoveRecord, error) {
	opponent := session.Opponent(slot)
	board, err := rec.BattleshipBoard(opponent)
	if err != nil {
		return session.MoveRecord{}, err
	}

	res, err := board.MakeMove(row, col, slot)
	if err != nil {
		return session.MoveRecord{}, err
	}

	blob, err := board.Encode()
	if err != nil {
		return session.MoveRecord{}, err
	}
	if opponent == 1 {
		rec.Player1Board = blob
	} else {
		rec.Player2Board = blob
	}

	switch {
	case res.AllSunk:
		rec.Status = session.StatusFinished
		rec.Winner = slot
		rec.CurrentPlayer = 0
	case res.Hit:
		// shooter keeps the turn
	default:
		rec.CurrentPlayer = opponent
	}

	return session.MoveRecord{
		Player:    slot,
		Row:       row,
		Col:       col,
		Hit:       res.Hit,
		ShipSunk:  res.SunkShipID,
		Timestamp: time.Now().UTC(),
	}, nil
}

// applyGomokuMove places a stone on the shared board. Every move changes
// the turn; the engine decides win and draw.
func (c *Coordinator) applyGomokuMove(rec *session.Session, slot, row, col int) (session.MoveRecord, error) {
	board, err := rec.GomokuBoard()
	if err != nil {
		return session.MoveRecord{}, err
	}

	if !board.MakeMove(row, col, slot) {
		return session.MoveRecord{}, ErrInvalidMove
	}

	blob, err := board.Encode()
	if err != nil {
		return session.MoveRecord{}, err
	}
	// one shared board mirrored into both fields
	rec.Player1Board = blob
	rec.Player2Board = blob

	switch {
	case board.Winner() != 0:
		rec.Status = session.StatusFinished
		rec.Winner = board.Winner()
		rec.CurrentPlayer = 0
	case board.IsDraw():
		rec.Status = session.StatusFinished
		rec.Winner = 0
		rec.CurrentPlayer = 0
	default:
		rec.CurrentPlayer = session.Opponent(slot)
	}

	return session.MoveRecord{
		Player:    slot,
		Row:       row,
		Col:       col,
		Timestamp: time.Now().UTC(),
	}, nil
}
