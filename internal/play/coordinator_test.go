package play

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavukanez/ldr-games/internal/battleship"
	"github.com/pavukanez/ldr-games/internal/session"
	"github.com/pavukanez/ldr-games/internal/storage"
)

type fakeNotifier struct {
	published []*session.Session
}

func (f *fakeNotifier) Publish(rec *session.Session) {
	f.published = append(f.published, rec)
}

type fakeEvents struct {
	created  int
	moves    []session.MoveRecord
	finished int
}

func (f *fakeEvents) EmitSessionCreated(*session.Session) { f.created++ }
func (f *fakeEvents) EmitMove(_ *session.Session, mv session.MoveRecord) {
	f.moves = append(f.moves, mv)
}
func (f *fakeEvents) EmitSessionFinished(*session.Session) { f.finished++ }

func newTestCoordinator() (*Coordinator, *storage.MemoryStore, *fakeNotifier, *fakeEvents) {
	store := storage.NewMemoryStore()
	notifier := &fakeNotifier{}
	events := &fakeEvents{}
	c := NewCoordinator(store, notifier)
	c.SetEvents(events)
	return c, store, notifier, events
}

func TestCreatePersistsSession(t *testing.T) {
	c, store, _, events := newTestCoordinator()
	ctx := context.Background()

	rec, err := c.Create(ctx, session.GameGomoku)
	require.NoError(t, err)
	assert.Equal(t, session.StatusWaiting, rec.Status)
	assert.Equal(t, 1, events.created)

	stored, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)
}

func TestCreateUnknownGameType(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	_, err := c.Create(context.Background(), session.GameType("checkers"))
	assert.ErrorIs(t, err, session.ErrUnknownGame)
}

func TestJoinClaimsAndActivates(t *testing.T) {
	c, store, notifier, _ := newTestCoordinator()
	ctx := context.Background()

	rec, err := c.Create(ctx, session.GameGomoku)
	require.NoError(t, err)

	slot, _, err := c.Join(ctx, rec.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, 1, slot)
	assert.Len(t, notifier.published, 1, "a new claim is broadcast")

	// resuming writes nothing
	slot, _, err = c.Join(ctx, rec.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, 1, slot)
	assert.Len(t, notifier.published, 1)

	slot, joined, err := c.Join(ctx, rec.ID, "client-b")
	require.NoError(t, err)
	assert.Equal(t, 2, slot)
	assert.Equal(t, session.StatusActive, joined.Status)

	_, _, err = c.Join(ctx, rec.ID, "client-c")
	assert.ErrorIs(t, err, session.ErrSessionFull)

	stored, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "client-a", stored.Player1ID)
	assert.Equal(t, "client-b", stored.Player2ID)
	assert.Equal(t, session.StatusActive, stored.Status)
}

func TestJoinMissingSession(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	_, _, err := c.Join(context.Background(), "nope", "client-a")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMoveGates(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	rec, err := c.Create(ctx, session.GameGomoku)
	require.NoError(t, err)
	_, _, err = c.Join(ctx, rec.ID, "client-a")
	require.NoError(t, err)

	// only one player joined yet
	_, err = c.Move(ctx, rec.ID, "client-a", 7, 7)
	assert.ErrorIs(t, err, ErrGameNotStarted)

	_, _, err = c.Join(ctx, rec.ID, "client-b")
	require.NoError(t, err)

	_, err = c.Move(ctx, rec.ID, "stranger", 7, 7)
	assert.ErrorIs(t, err, ErrNotInSession)

	// player 1 starts
	_, err = c.Move(ctx, rec.ID, "client-b", 7, 7)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestGomokuMoveFlow(t *testing.T) {
	c, store, notifier, events := newTestCoordinator()
	ctx := context.Background()

	rec := activeGomoku(t, c)

	updated, err := c.Move(ctx, rec.ID, "client-a", 7, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentPlayer, "gomoku always flips the turn")
	assert.Len(t, updated.Moves, 1)
	assert.Equal(t, 1, updated.Moves[0].Player)

	// both board fields mirror the shared board
	assert.Equal(t, string(updated.Player1Board), string(updated.Player2Board))

	// occupied cell rejected with nothing written
	before, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	_, err = c.Move(ctx, rec.ID, "client-b", 7, 7)
	assert.ErrorIs(t, err, ErrInvalidMove)
	after, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, len(before.Moves), len(after.Moves))
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt))

	assert.NotEmpty(t, notifier.published)
	assert.Len(t, events.moves, 1)
}

func TestGomokuWinFinishesSession(t *testing.T) {
	c, store, _, events := newTestCoordinator()
	ctx := context.Background()

	rec := activeGomoku(t, c)

	// p1 builds a row while p2 plays elsewhere
	for i := 0; i < 4; i++ {
		_, err := c.Move(ctx, rec.ID, "client-a", 0, i)
		require.NoError(t, err)
		_, err = c.Move(ctx, rec.ID, "client-b", 10, i)
		require.NoError(t, err)
	}

	final, err := c.Move(ctx, rec.ID, "client-a", 0, 4)
	require.NoError(t, err)
	assert.Equal(t, session.StatusFinished, final.Status)
	assert.Equal(t, 1, final.Winner)
	assert.Equal(t, 0, final.CurrentPlayer)
	assert.Equal(t, 1, events.finished)

	_, err = c.Move(ctx, rec.ID, "client-b", 12, 12)
	assert.ErrorIs(t, err, ErrGameFinished)

	stored, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusFinished, stored.Status)
	assert.Len(t, stored.Moves, 9)
}

func TestBattleshipTurnRetentionOnHit(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	rec := activeBattleship(t, c)

	// (0,8) holds the destroyer on both deterministic fleets
	updated, err := c.Move(ctx, rec.ID, "client-a", 0, 8)
	require.NoError(t, err)
	assert.True(t, updated.Moves[0].Hit)
	assert.Equal(t, 1, updated.CurrentPlayer, "hit keeps the turn")

	// sink it: second hit reports the ship id
	updated, err = c.Move(ctx, rec.ID, "client-a", 0, 9)
	require.NoError(t, err)
	assert.Equal(t, "ship-4", updated.Moves[1].ShipSunk)
	assert.Equal(t, 1, updated.CurrentPlayer)

	// a miss hands the turn over
	updated, err = c.Move(ctx, rec.ID, "client-a", 9, 9)
	require.NoError(t, err)
	assert.False(t, updated.Moves[2].Hit)
	assert.Equal(t, 2, updated.CurrentPlayer)
}

func TestBattleshipRepeatCellRejected(t *testing.T) {
	c, store, _, _ := newTestCoordinator()
	ctx := context.Background()

	rec := activeBattleship(t, c)

	_, err := c.Move(ctx, rec.ID, "client-a", 0, 8)
	require.NoError(t, err)

	before, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	_, err = c.Move(ctx, rec.ID, "client-a", 0, 8)
	assert.ErrorIs(t, err, battleship.ErrCellTargeted)
	after, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, after.Moves, len(before.Moves))
}

func TestBattleshipAllSunkWins(t *testing.T) {
	c, _, _, events := newTestCoordinator()
	ctx := context.Background()

	rec := activeBattleship(t, c)

	// player 1 keeps the turn on every hit, so the whole enemy fleet can
	// fall in one streak
	stored, err := c.Load(ctx, rec.ID)
	require.NoError(t, err)
	enemy, err := stored.BattleshipBoard(2)
	require.NoError(t, err)

	var final *session.Session
	for _, ship := range enemy.Ships() {
		for _, pos := range ship.Positions {
			final, err = c.Move(ctx, rec.ID, "client-a", pos.Row, pos.Col)
			require.NoError(t, err)
		}
	}
	require.NotNil(t, final)
	assert.Equal(t, session.StatusFinished, final.Status)
	assert.Equal(t, 1, final.Winner)
	assert.Equal(t, 0, final.CurrentPlayer)
	assert.Equal(t, 1, events.finished)

	// the loser's fleet is untouched
	own, err := final.BattleshipBoard(1)
	require.NoError(t, err)
	assert.Equal(t, 5, own.ShipsRemaining())
}

// activeGomoku creates a gomoku session with both slots claimed.
func activeGomoku(t *testing.T, c *Coordinator) *session.Session {
	t.Helper()
	ctx := context.Background()
	rec, err := c.Create(ctx, session.GameGomoku)
	require.NoError(t, err)
	_, _, err = c.Join(ctx, rec.ID, "client-a")
	require.NoError(t, err)
	_, rec, err = c.Join(ctx, rec.ID, "client-b")
	require.NoError(t, err)
	return rec
}

// activeBattleship creates a battleship session with deterministic fleets
// on both boards: ships laid out horizontally one per row, destroyer at
// (0,8)-(0,9), and both slots claimed.
func activeBattleship(t *testing.T, c *Coordinator) *session.Session {
	t.Helper()
	ctx := context.Background()
	rec, err := c.Create(ctx, session.GameBattleship)
	require.NoError(t, err)

	blob := deterministicFleet(t)
	rec.Player1Board = blob
	rec.Player2Board = blob
	require.NoError(t, c.store.Update(ctx, rec))

	_, _, err = c.Join(ctx, rec.ID, "client-a")
	require.NoError(t, err)
	_, rec, err = c.Join(ctx, rec.ID, "client-b")
	require.NoError(t, err)
	return rec
}

func deterministicFleet(t *testing.T) []byte {
	t.Helper()
	g := battleship.NewGame()
	require.NoError(t, g.PlaceShip(1, 0, 5, true))
	require.NoError(t, g.PlaceShip(2, 0, 4, true))
	require.NoError(t, g.PlaceShip(3, 0, 3, true))
	require.NoError(t, g.PlaceShip(4, 0, 3, true))
	require.NoError(t, g.PlaceShip(0, 8, 2, true))
	blob, err := g.Encode()
	require.NoError(t, err)
	return blob
}
