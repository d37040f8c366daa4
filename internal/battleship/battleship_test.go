package battleship

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomPlacementAlwaysTerminates(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		g, err := newRandomGame(rand.New(rand.NewSource(seed)))
		require.NoError(t, err, "seed %d", seed)
		require.Len(t, g.Ships(), FleetSize, "seed %d", seed)

		sizes := make([]int, 0, FleetSize)
		seen := map[Position]bool{}
		for _, ship := range g.Ships() {
			sizes = append(sizes, ship.Size)
			require.Len(t, ship.Positions, ship.Size)
			for _, pos := range ship.Positions {
				assert.True(t, pos.Row >= 0 && pos.Row < BoardSize, "seed %d: row in bounds", seed)
				assert.True(t, pos.Col >= 0 && pos.Col < BoardSize, "seed %d: col in bounds", seed)
				assert.False(t, seen[pos], "seed %d: ships overlap at %v", seed, pos)
				seen[pos] = true
				assert.Equal(t, CellShip, g.Cell(pos.Row, pos.Col))
			}
		}
		sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
		assert.Equal(t, []int{5, 4, 3, 3, 2}, sizes, "seed %d", seed)
		assert.True(t, g.SetupComplete())
	}
}

func TestRandomPlacementShipIDsUnique(t *testing.T) {
	g, err := newRandomGame(rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, ship := range g.Ships() {
		assert.False(t, ids[ship.ID], "duplicate ship id %s", ship.ID)
		ids[ship.ID] = true
	}
}

func TestMakeMoveHitAndMiss(t *testing.T) {
	g := placedFleet(t)

	// ship-4 is the size-2 destroyer at (0,8)-(0,9)
	res, err := g.MakeMove(0, 8, 1)
	require.NoError(t, err)
	assert.True(t, res.Hit)
	assert.Empty(t, res.SunkShipID)
	assert.False(t, res.AllSunk)

	res, err = g.MakeMove(9, 9, 1)
	require.NoError(t, err)
	assert.False(t, res.Hit)
	assert.Equal(t, CellMiss, g.Cell(9, 9))
	assert.Len(t, g.Moves(), 2)
}

// Scenario: firing at both cells of the size-2 ship sinks it on the second
// shot and reports its id, while the rest of the fleet stays afloat.
func TestSinkingDestroyer(t *testing.T) {
	g := placedFleet(t)

	res, err := g.MakeMove(0, 8, 1)
	require.NoError(t, err)
	assert.True(t, res.Hit)
	assert.Empty(t, res.SunkShipID)

	res, err = g.MakeMove(0, 9, 1)
	require.NoError(t, err)
	assert.True(t, res.Hit)
	assert.Equal(t, "ship-4", res.SunkShipID)
	assert.False(t, res.AllSunk)
	assert.Equal(t, FleetSize-1, g.ShipsRemaining())
}

// Scenario: the same cell cannot be targeted twice; the second shot is
// rejected with board and move log unchanged.
func TestRepeatTargetRejected(t *testing.T) {
	g := placedFleet(t)

	_, err := g.MakeMove(0, 8, 1)
	require.NoError(t, err)
	before := g.Grid()
	logLen := len(g.Moves())

	_, err = g.MakeMove(0, 8, 2)
	assert.ErrorIs(t, err, ErrCellTargeted)
	assert.Equal(t, before, g.Grid())
	assert.Len(t, g.Moves(), logLen)

	// same for a missed cell
	_, err = g.MakeMove(9, 9, 1)
	require.NoError(t, err)
	_, err = g.MakeMove(9, 9, 1)
	assert.ErrorIs(t, err, ErrCellTargeted)
}

func TestMakeMoveOutOfBounds(t *testing.T) {
	g := placedFleet(t)

	for _, pos := range []Position{{-1, 0}, {0, -1}, {BoardSize, 0}, {0, BoardSize}} {
		_, err := g.MakeMove(pos.Row, pos.Col, 1)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	}
	assert.Empty(t, g.Moves())
}

func TestMakeMoveBeforeSetup(t *testing.T) {
	g := NewGame()
	_, err := g.MakeMove(0, 0, 1)
	assert.ErrorIs(t, err, ErrSetupIncomplete)
}

func TestAllSunkEndsGame(t *testing.T) {
	g := placedFleet(t)

	var last MoveResult
	for _, ship := range g.Ships() {
		for _, pos := range ship.Positions {
			res, err := g.MakeMove(pos.Row, pos.Col, 1)
			require.NoError(t, err)
			assert.True(t, res.Hit)
			last = res
		}
	}
	assert.True(t, last.AllSunk)
	assert.True(t, g.AllSunk())
	assert.Equal(t, 0, g.ShipsRemaining())
}

func TestManualSetup(t *testing.T) {
	g := NewGame()

	require.NoError(t, g.PlaceShip(0, 0, 5, true))
	require.NoError(t, g.PlaceShip(1, 0, 4, true))
	require.NoError(t, g.PlaceShip(2, 0, 3, true))

	// second size-3 ship fills the remaining slot of that size
	require.NoError(t, g.PlaceShip(3, 0, 3, true))
	assert.ErrorIs(t, g.PlaceShip(4, 0, 3, true), ErrSlotOccupied)

	// overlap rejected
	assert.ErrorIs(t, g.PlaceShip(0, 0, 2, true), ErrInvalidPlacement)
	assert.False(t, g.SetupComplete())

	require.NoError(t, g.PlaceShip(4, 0, 2, true))
	assert.True(t, g.SetupComplete())
	assert.ErrorIs(t, g.PlaceShip(5, 0, 2, true), ErrSetupComplete)
}

func TestRemoveShipClearsCells(t *testing.T) {
	g := NewGame()
	require.NoError(t, g.PlaceShip(0, 0, 5, true))

	require.NoError(t, g.RemoveShip(5))
	assert.Empty(t, g.Ships())
	for c := 0; c < 5; c++ {
		assert.Equal(t, CellEmpty, g.Cell(0, c))
	}
	assert.ErrorIs(t, g.RemoveShip(5), ErrShipNotFound)
}

func TestRotateShip(t *testing.T) {
	g := NewGame()
	require.NoError(t, g.PlaceShip(0, 0, 3, true))

	require.NoError(t, g.RotateShip(3))
	ship := g.Ships()[0]
	assert.Equal(t, []Position{{0, 0}, {1, 0}, {2, 0}}, ship.Positions)
	assert.Equal(t, CellEmpty, g.Cell(0, 1))
	assert.Equal(t, CellShip, g.Cell(2, 0))
}

func TestRotateShipAtomicOnFailure(t *testing.T) {
	g := NewGame()
	// horizontal near the bottom edge: rotating to vertical runs off-board
	require.NoError(t, g.PlaceShip(8, 0, 4, true))
	before := g.Grid()

	err := g.RotateShip(4)
	assert.ErrorIs(t, err, ErrInvalidPlacement)
	assert.Equal(t, before, g.Grid(), "failed rotate must restore the grid")
	assert.Equal(t, []Position{{8, 0}, {8, 1}, {8, 2}, {8, 3}}, g.Ships()[0].Positions)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g := placedFleet(t)
	_, err := g.MakeMove(0, 8, 1)
	require.NoError(t, err)
	_, err = g.MakeMove(9, 9, 2)
	require.NoError(t, err)

	data, err := g.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, g.Grid(), decoded.Grid())
	assert.Equal(t, g.Ships(), decoded.Ships())
	assert.Equal(t, g.SetupComplete(), decoded.SetupComplete())
	require.Len(t, decoded.Moves(), 2)
	assert.True(t, decoded.Moves()[0].Timestamp.Equal(g.Moves()[0].Timestamp))

	// a decoded board keeps rejecting already-targeted cells
	_, err = decoded.MakeMove(0, 8, 1)
	assert.ErrorIs(t, err, ErrCellTargeted)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"board":{"grid":[[0]],"ships":[]}}`))
	assert.Error(t, err)
}

func TestViewForFiltersByAttacker(t *testing.T) {
	g := placedFleet(t)
	_, err := g.MakeMove(0, 8, 1) // player 1 hit
	require.NoError(t, err)
	_, err = g.MakeMove(9, 9, 2) // player 2 miss
	require.NoError(t, err)

	view := g.ViewFor(1)
	assert.Equal(t, ViewHit, view[0][8])
	assert.Equal(t, ViewUnknown, view[9][9], "other player's shots stay hidden")
	// untargeted ship cells are unknown, never leaked
	assert.Equal(t, ViewUnknown, view[0][0])

	view2 := g.ViewFor(2)
	assert.Equal(t, ViewMiss, view2[9][9])
	assert.Equal(t, ViewUnknown, view2[0][8])
}

func TestSunkShipsOnlyRevealsDestroyed(t *testing.T) {
	g := placedFleet(t)
	assert.Empty(t, g.SunkShips())

	_, err := g.MakeMove(0, 8, 1)
	require.NoError(t, err)
	res, err := g.MakeMove(0, 9, 1)
	require.NoError(t, err)
	require.Equal(t, "ship-4", res.SunkShipID)

	sunk := g.SunkShips()
	require.Len(t, sunk, 1)
	assert.Equal(t, "ship-4", sunk[0].ID)
}

// placedFleet builds a deterministic board via the manual setup path:
// all five ships laid out horizontally, one per row, the destroyer at
// (0,8)-(0,9).
func placedFleet(t *testing.T) *Game {
	t.Helper()
	g := NewGame()
	require.NoError(t, g.PlaceShip(1, 0, 5, true))
	require.NoError(t, g.PlaceShip(2, 0, 4, true))
	require.NoError(t, g.PlaceShip(3, 0, 3, true))
	require.NoError(t, g.PlaceShip(4, 0, 3, true))
	require.NoError(t, g.PlaceShip(0, 8, 2, true))
	require.True(t, g.SetupComplete())
	return g
}
