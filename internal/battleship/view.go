package battleship

// Attacker view cell states. Cells the attacker has not fired at are
// unknown regardless of what they hold.
const (
	ViewUnknown = 0
	ViewHit     = 1
	ViewMiss    = 2
)

// ViewFor projects the attacker's fog-of-war view of this board. The view is
// recomputed from the authoritative grid plus the shot log filtered to the
// attacker; it is never stored, so it cannot drift from the board itself.
func (g *Game) ViewFor(attacker int) [][]int {
	view := make([][]int, BoardSize)
	for i := range view {
		view[i] = make([]int, BoardSize)
	}
	for _, m := range g.moves {
		if m.Player != attacker {
			continue
		}
		if m.Hit {
			view[m.Row][m.Col] = ViewHit
		} else {
			view[m.Row][m.Col] = ViewMiss
		}
	}
	return view
}

// SunkShips returns the ships the attacker is allowed to see in full: only
// fully destroyed ones are revealed.
func (g *Game) SunkShips() []Ship {
	var sunk []Ship
	for _, ship := range g.ships {
		if ship.Sunk {
			sunk = append(sunk, ship)
		}
	}
	return sunk
}
