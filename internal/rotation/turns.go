package rotation

import (
	"sort"
	"time"
)

// TurnContext identifies the just-completed turn that triggers an assignment.
type TurnContext struct {
	GameID      string
	SeasonID    string // required by the balanced strategy, unused otherwise
	CompletedBy string
	OrderIndex  int // zero-based position of the completed turn in its game
}

// TurnSummary is the engine's read-only view of one turn.
type TurnSummary struct {
	ParticipantID string
	Drawing       bool
	OrderIndex    int
	CompletedAt   time.Time // zero while the turn is pending
}

// Completed reports whether the turn has been finished.
func (t TurnSummary) Completed() bool {
	return !t.CompletedAt.IsZero()
}

// GameTurnSummary projects one game's turn history for the engine. The order
// of games handed to the resolver fixes each game's row in the balanced
// square, so callers must list a party's games in their canonical order.
type GameTurnSummary struct {
	GameID string
	Turns  []TurnSummary
}

// CompletedTurns returns the game's completed turns ordered by OrderIndex.
func (g GameTurnSummary) CompletedTurns() []TurnSummary {
	out := make([]TurnSummary, 0, len(g.Turns))
	for _, t := range g.Turns {
		if t.Completed() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}
