package session

import (
	"slices"

	"example.com/drawguess/internal/protocol"
)

// Standings ranks players by descending score. Ties go to whoever comes
// first in the drawing order; players outside it keep roster order after
// those in it.
func Standings(players []protocol.Player, drawingOrder []string) []protocol.Standing {
	pos := func(id string) int {
		if i := slices.Index(drawingOrder, id); i >= 0 {
			return i
		}
		return len(drawingOrder)
	}
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b protocol.Player) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return pos(a.ID) - pos(b.ID)
	})
	out := make([]protocol.Standing, len(sorted))
	for i, p := range sorted {
		out[i] = protocol.Standing{Rank: i + 1, PlayerID: p.ID, PlayerName: p.Name, Score: p.Score}
	}
	return out
}
