package gomoku

import (
	"encoding/json"
	"fmt"
)

const (
	// GridSize is the side length of the square board.
	GridSize = 15

	// WinLength is the number of contiguous stones that decides the game.
	WinLength = 5
)

// Cell states stored in the grid.
const (
	Empty   = 0
	Player1 = 1
	Player2 = 2
)

// Move is one placed stone.
type Move struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	Player int `json:"player"`
}

// Game is the shared five-in-a-row board. Both players play on the same
// grid; the game is decided the instant five contiguous same-player stones
// exist.
type Game struct {
	grid   [][]int
	moves  []Move
	winner int
	isDraw bool
}

// NewGame returns an empty board.
func NewGame() *Game {
	grid := make([][]int, GridSize)
	for i := range grid {
		grid[i] = make([]int, GridSize)
	}
	return &Game{grid: grid}
}

// MakeMove places a stone. It returns false with no mutation when the game
// is already decided, the coordinates are out of bounds, or the cell is
// occupied. The win check runs before the full-board check, so a winning
// stone on the final cell is a win, never a draw.
func (g *Game) MakeMove(row, col, player int) bool {
	if g.GameOver() {
		return false
	}
	if row < 0 || row >= GridSize || col < 0 || col >= GridSize {
		return false
	}
	if g.grid[row][col] != Empty {
		return false
	}

	g.grid[row][col] = player
	g.moves = append(g.moves, Move{Row: row, Col: col, Player: player})

	if g.winsAt(row, col, player) {
		g.winner = player
		return true
	}
	if len(g.moves) == GridSize*GridSize {
		g.isDraw = true
	}
	return true
}

// winsAt checks the four axes through the placed cell, counting the cell
// itself plus consecutive same-player stones in both directions. The first
// satisfied axis decides; overlapping lines are irrelevant once decided.
func (g *Game) winsAt(row, col, player int) bool {
	dirs := [4][2]int{
		{0, 1}, // horizontal
		{1, 0}, // vertical
		{1, 1}, // diagonal
		{1, -1}, // anti-diagonal
	}
	for _, d := range dirs {
		count := 1
		for r, c := row+d[0], col+d[1]; g.owns(r, c, player); r, c = r+d[0], c+d[1] {
			count++
		}
		for r, c := row-d[0], col-d[1]; g.owns(r, c, player); r, c = r-d[0], c-d[1] {
			count++
		}
		if count >= WinLength {
			return true
		}
	}
	return false
}

func (g *Game) owns(row, col, player int) bool {
	return row >= 0 && row < GridSize && col >= 0 && col < GridSize && g.grid[row][col] == player
}

// Winner returns 1 or 2, or 0 while undecided (including draws).
func (g *Game) Winner() int {
	return g.winner
}

// IsDraw reports a completely full board with no winner.
func (g *Game) IsDraw() bool {
	return g.isDraw
}

// GameOver reports whether the game is decided.
func (g *Game) GameOver() bool {
	return g.winner != Empty || g.isDraw
}

// Cell returns the state of one cell.
func (g *Game) Cell(row, col int) int {
	return g.grid[row][col]
}

// Grid returns a copy of the board cells.
func (g *Game) Grid() [][]int {
	grid := make([][]int, GridSize)
	for i := range g.grid {
		grid[i] = make([]int, GridSize)
		copy(grid[i], g.grid[i])
	}
	return grid
}

// Moves returns a copy of the move list.
func (g *Game) Moves() []Move {
	moves := make([]Move, len(g.moves))
	copy(moves, g.moves)
	return moves
}

type gameState struct {
	Grid   [][]int `json:"grid"`
	Moves  []Move  `json:"moves"`
	Winner int     `json:"winner"`
	IsDraw bool    `json:"isDraw"`
}

// Encode serializes grid, moves, winner and draw flag. Round-trips
// losslessly through Decode.
func (g *Game) Encode() ([]byte, error) {
	return json.Marshal(gameState{
		Grid:   g.grid,
		Moves:  g.moves,
		Winner: g.winner,
		IsDraw: g.isDraw,
	})
}

// Decode reconstructs a board from Encode output.
func Decode(data []byte) (*Game, error) {
	var state gameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("gomoku: decode board: %w", err)
	}
	if len(state.Grid) != GridSize {
		return nil, fmt.Errorf("gomoku: decode board: grid is %dx%d", len(state.Grid), GridSize)
	}
	return &Game{
		grid:   state.Grid,
		moves:  state.Moves,
		winner: state.Winner,
		isDraw: state.IsDraw,
	}, nil
}
