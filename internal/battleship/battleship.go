package battleship

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

const (
	// BoardSize is the side length of the square grid.
	BoardSize = 10

	// FleetSize is the number of ships in a full fleet.
	FleetSize = 5

	// maxPlaceAttempts caps rejection sampling per ship. Exhausting it on a
	// 10x10 board means the configuration is broken, not that a retry would
	// help.
	maxPlaceAttempts = 100
)

// Cell states stored in the grid.
const (
	CellEmpty = 0
	CellShip  = 1
	CellHit   = 2
	CellMiss  = 3
)

// ShipSizes lists the fleet in slot order. Slot index doubles as the ship id
// suffix, so the two size-3 ships stay distinguishable.
var ShipSizes = [FleetSize]int{5, 4, 3, 3, 2}

// ShipNames gives the display name per fleet slot.
var ShipNames = [FleetSize]string{"Carrier", "Battleship", "Cruiser", "Submarine", "Destroyer"}

// Position is a single grid coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Ship is one placed ship and its hit/sunk state.
type Ship struct {
	ID        string     `json:"id"`
	Positions []Position `json:"positions"`
	Sunk      bool       `json:"sunk"`
	Size      int        `json:"size"`
}

// Move is one recorded shot against this board. Append-only.
type Move struct {
	Player    int       `json:"player"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Hit       bool      `json:"hit"`
	ShipSunk  string    `json:"shipSunk,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MoveResult reports the outcome of a single shot.
type MoveResult struct {
	Hit        bool
	SunkShipID string
	AllSunk    bool
}

// Errors
var (
	ErrOutOfBounds      = &RuleError{"coordinates out of bounds"}
	ErrCellTargeted     = &RuleError{"cell already targeted"}
	ErrSetupComplete    = &RuleError{"setup already complete"}
	ErrSetupIncomplete  = &RuleError{"setup not complete"}
	ErrSlotOccupied     = &RuleError{"no free fleet slot for that size"}
	ErrInvalidPlacement = &RuleError{"ship does not fit there"}
	ErrShipNotFound     = &RuleError{"no ship of that size placed"}
)

// RuleError is a rules-engine validation failure. It never accompanies a
// partial mutation.
type RuleError struct {
	msg string
}

func (e *RuleError) Error() string {
	return e.msg
}

// Game is one player's battleship board: grid, fleet and the shots taken
// against it. It is a pure in-memory state machine; callers own concurrency.
type Game struct {
	grid          [][]int
	ships         []Ship
	moves         []Move
	setupComplete bool
}

// NewGame returns an empty board for the manual setup path. The game accepts
// moves only once all five ships are placed.
func NewGame() *Game {
	return &Game{grid: emptyGrid()}
}

// NewRandomGame returns a board with the full fleet placed at random
// non-overlapping positions. An error here is a fatal configuration problem.
func NewRandomGame() (*Game, error) {
	return newRandomGame(rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newRandomGame(rng *rand.Rand) (*Game, error) {
	g := NewGame()
	for slot, size := range ShipSizes {
		placed := false
		for attempt := 0; attempt < maxPlaceAttempts; attempt++ {
			horizontal := rng.Intn(2) == 0
			row := rng.Intn(BoardSize)
			col := rng.Intn(BoardSize)
			if !g.CanPlace(row, col, size, horizontal) {
				continue
			}
			g.ships = append(g.ships, g.newShip(slot, row, col, size, horizontal))
			placed = true
			break
		}
		if !placed {
			return nil, fmt.Errorf("battleship: failed to place %s (size %d) after %d attempts",
				ShipNames[slot], size, maxPlaceAttempts)
		}
	}
	g.setupComplete = true
	return g, nil
}

func emptyGrid() [][]int {
	grid := make([][]int, BoardSize)
	for i := range grid {
		grid[i] = make([]int, BoardSize)
	}
	return grid
}

// newShip writes the ship's cells into the grid and returns the ship entity.
// The caller must have checked CanPlace first.
func (g *Game) newShip(slot, row, col, size int, horizontal bool) Ship {
	positions := make([]Position, 0, size)
	for i := 0; i < size; i++ {
		r, c := row, col
		if horizontal {
			c += i
		} else {
			r += i
		}
		positions = append(positions, Position{Row: r, Col: c})
		g.grid[r][c] = CellShip
	}
	return Ship{
		ID:        fmt.Sprintf("ship-%d", slot),
		Positions: positions,
		Size:      size,
	}
}

// CanPlace reports whether a ship of the given size fits at the anchor cell
// in the given orientation. Pure: no mutation.
func (g *Game) CanPlace(row, col, size int, horizontal bool) bool {
	if row < 0 || col < 0 {
		return false
	}
	for i := 0; i < size; i++ {
		r, c := row, col
		if horizontal {
			c += i
		} else {
			r += i
		}
		if r >= BoardSize || c >= BoardSize {
			return false
		}
		if g.grid[r][c] != CellEmpty {
			return false
		}
	}
	return true
}

// PlaceShip places a ship of the given size during manual setup. Each fleet
// slot holds at most one ship; setup closes once all five are placed.
func (g *Game) PlaceShip(row, col, size int, horizontal bool) error {
	if g.setupComplete {
		return ErrSetupComplete
	}
	slot := g.freeSlot(size)
	if slot < 0 {
		return ErrSlotOccupied
	}
	if !g.CanPlace(row, col, size, horizontal) {
		return ErrInvalidPlacement
	}
	g.ships = append(g.ships, g.newShip(slot, row, col, size, horizontal))
	if len(g.ships) == FleetSize {
		g.setupComplete = true
	}
	return nil
}

// freeSlot returns the first fleet slot of the given size with no ship
// placed, or -1.
func (g *Game) freeSlot(size int) int {
	for slot, s := range ShipSizes {
		if s != size {
			continue
		}
		id := fmt.Sprintf("ship-%d", slot)
		taken := false
		for _, ship := range g.ships {
			if ship.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return slot
		}
	}
	return -1
}

// RemoveShip removes the first placed ship of the given size and clears its
// cells. Only valid while setup is open.
func (g *Game) RemoveShip(size int) error {
	if g.setupComplete {
		return ErrSetupComplete
	}
	for i, ship := range g.ships {
		if ship.Size != size {
			continue
		}
		for _, pos := range ship.Positions {
			g.grid[pos.Row][pos.Col] = CellEmpty
		}
		g.ships = append(g.ships[:i], g.ships[i+1:]...)
		return nil
	}
	return ErrShipNotFound
}

// RotateShip toggles the orientation of the first placed ship of the given
// size around its anchor cell. Atomic: on failure the original cells are
// restored untouched.
func (g *Game) RotateShip(size int) error {
	if g.setupComplete {
		return ErrSetupComplete
	}
	for i, ship := range g.ships {
		if ship.Size != size {
			continue
		}
		for _, pos := range ship.Positions {
			g.grid[pos.Row][pos.Col] = CellEmpty
		}
		anchor := ship.Positions[0]
		horizontal := !shipHorizontal(ship)
		if !g.CanPlace(anchor.Row, anchor.Col, ship.Size, horizontal) {
			for _, pos := range ship.Positions {
				g.grid[pos.Row][pos.Col] = CellShip
			}
			return ErrInvalidPlacement
		}
		positions := make([]Position, 0, ship.Size)
		for j := 0; j < ship.Size; j++ {
			r, c := anchor.Row, anchor.Col
			if horizontal {
				c += j
			} else {
				r += j
			}
			positions = append(positions, Position{Row: r, Col: c})
			g.grid[r][c] = CellShip
		}
		g.ships[i].Positions = positions
		return nil
	}
	return ErrShipNotFound
}

func shipHorizontal(ship Ship) bool {
	if len(ship.Positions) <= 1 {
		return true
	}
	return ship.Positions[0].Row == ship.Positions[1].Row
}

// MakeMove fires at a cell. Already-targeted cells are rejected, not
// silently ignored: callers must check the error before touching shared
// session state.
func (g *Game) MakeMove(row, col, player int) (MoveResult, error) {
	if !g.setupComplete {
		return MoveResult{}, ErrSetupIncomplete
	}
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return MoveResult{}, ErrOutOfBounds
	}
	for _, m := range g.moves {
		if m.Row == row && m.Col == col {
			return MoveResult{}, ErrCellTargeted
		}
	}

	result := MoveResult{Hit: g.grid[row][col] == CellShip}
	if result.Hit {
		g.grid[row][col] = CellHit
		if idx := g.shipAt(row, col); idx >= 0 {
			if g.allCellsHit(g.ships[idx]) && !g.ships[idx].Sunk {
				g.ships[idx].Sunk = true
				result.SunkShipID = g.ships[idx].ID
			}
		}
	} else {
		g.grid[row][col] = CellMiss
	}

	g.moves = append(g.moves, Move{
		Player:    player,
		Row:       row,
		Col:       col,
		Hit:       result.Hit,
		ShipSunk:  result.SunkShipID,
		Timestamp: time.Now().UTC(),
	})

	result.AllSunk = true
	for _, ship := range g.ships {
		if !ship.Sunk {
			result.AllSunk = false
			break
		}
	}
	return result, nil
}

func (g *Game) shipAt(row, col int) int {
	for i, ship := range g.ships {
		for _, pos := range ship.Positions {
			if pos.Row == row && pos.Col == col {
				return i
			}
		}
	}
	return -1
}

func (g *Game) allCellsHit(ship Ship) bool {
	for _, pos := range ship.Positions {
		if g.grid[pos.Row][pos.Col] != CellHit {
			return false
		}
	}
	return true
}

// AllSunk reports whether every ship in the fleet is sunk.
func (g *Game) AllSunk() bool {
	if len(g.ships) == 0 {
		return false
	}
	for _, ship := range g.ships {
		if !ship.Sunk {
			return false
		}
	}
	return true
}

// Ships returns a copy of the fleet.
func (g *Game) Ships() []Ship {
	ships := make([]Ship, len(g.ships))
	copy(ships, g.ships)
	return ships
}

// ShipsRemaining counts ships not yet sunk.
func (g *Game) ShipsRemaining() int {
	n := 0
	for _, ship := range g.ships {
		if !ship.Sunk {
			n++
		}
	}
	return n
}

// Moves returns a copy of the shot log.
func (g *Game) Moves() []Move {
	moves := make([]Move, len(g.moves))
	copy(moves, g.moves)
	return moves
}

// Grid returns a copy of the board cells.
func (g *Game) Grid() [][]int {
	grid := make([][]int, BoardSize)
	for i := range g.grid {
		grid[i] = make([]int, BoardSize)
		copy(grid[i], g.grid[i])
	}
	return grid
}

// Cell returns the state of one cell.
func (g *Game) Cell(row, col int) int {
	return g.grid[row][col]
}

// SetupComplete reports whether all five ships are placed.
func (g *Game) SetupComplete() bool {
	return g.setupComplete
}

type boardState struct {
	Grid  [][]int `json:"grid"`
	Ships []Ship  `json:"ships"`
}

type gameState struct {
	Board         boardState `json:"board"`
	Moves         []Move     `json:"moves"`
	SetupComplete bool       `json:"setupComplete"`
}

// Encode serializes the full board, move list and setup flag. The encoding
// round-trips losslessly through Decode.
func (g *Game) Encode() ([]byte, error) {
	return json.Marshal(gameState{
		Board:         boardState{Grid: g.grid, Ships: g.ships},
		Moves:         g.moves,
		SetupComplete: g.setupComplete,
	})
}

// Decode reconstructs a board from Encode output.
func Decode(data []byte) (*Game, error) {
	var state gameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("battleship: decode board: %w", err)
	}
	g := &Game{
		grid:          state.Board.Grid,
		ships:         state.Board.Ships,
		moves:         state.Moves,
		setupComplete: state.SetupComplete,
	}
	if len(g.grid) != BoardSize {
		return nil, fmt.Errorf("battleship: decode board: grid is %dx%d", len(g.grid), BoardSize)
	}
	return g, nil
}
