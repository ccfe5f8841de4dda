package domain

import (
	"fmt"
	"time"
)

// TurnKind is the contribution type of a turn.
type TurnKind string

const (
	// TurnWriting is a written prompt or caption contribution.
	TurnWriting TurnKind = "writing"
	// TurnDrawing is a drawing contribution carrying a stored image reference.
	TurnDrawing TurnKind = "drawing"
)

// TurnStatus tracks a turn through its lifecycle.
type TurnStatus string

const (
	// TurnPending means the turn is assigned and awaiting its contribution.
	TurnPending TurnStatus = "pending"
	// TurnCompleted means the contribution has been submitted.
	TurnCompleted TurnStatus = "completed"
)

// Turn is one contribution to a game, at a fixed position in its sequence.
type Turn struct {
	ParticipantID string     `json:"participant_id"`
	Kind          TurnKind   `json:"kind"`
	OrderIndex    int        `json:"order_index"`
	Status        TurnStatus `json:"status"`
	Content       string     `json:"content,omitempty"` // prompt text or drawing reference
	AssignedAt    time.Time  `json:"assigned_at"`
	CompletedAt   time.Time  `json:"completed_at,omitempty"`
}

// Game is one chain of alternating write and draw contributions within a
// party's season. A game holds at most one pending turn at a time.
type Game struct {
	ID        string `json:"id"`
	PartyID   string `json:"party_id"`
	SeasonID  string `json:"season_id"`
	Turns     []Turn `json:"turns"`
	Completed bool   `json:"completed"`
}

// PendingTurn returns the game's pending turn, or nil when none is open.
func PendingTurn(g *Game) *Turn {
	for i := range g.Turns {
		if g.Turns[i].Status == TurnPending {
			return &g.Turns[i]
		}
	}
	return nil
}

// CompletedCount returns the number of completed turns in the game.
func CompletedCount(g *Game) int {
	n := 0
	for i := range g.Turns {
		if g.Turns[i].Status == TurnCompleted {
			n++
		}
	}
	return n
}

// LastCompleted returns the completed turn with the highest order index, or
// nil for a game with no completed turns.
func LastCompleted(g *Game) *Turn {
	var last *Turn
	for i := range g.Turns {
		t := &g.Turns[i]
		if t.Status != TurnCompleted {
			continue
		}
		if last == nil || t.OrderIndex > last.OrderIndex {
			last = t
		}
	}
	return last
}

// NextKind returns the contribution type that alternates from k.
func NextKind(k TurnKind) TurnKind {
	if k == TurnWriting {
		return TurnDrawing
	}
	return TurnWriting
}

// ContributorIDs returns the distinct participants with completed turns, in
// turn order.
func ContributorIDs(g *Game) []string {
	seen := make(map[string]bool, len(g.Turns))
	out := make([]string, 0, len(g.Turns))
	for i := range g.Turns {
		t := &g.Turns[i]
		if t.Status != TurnCompleted || seen[t.ParticipantID] {
			continue
		}
		seen[t.ParticipantID] = true
		out = append(out, t.ParticipantID)
	}
	return out
}

// AllCompleted reports whether every game in the listing has finished.
func AllCompleted(games []*Game) bool {
	for _, g := range games {
		if !g.Completed {
			return false
		}
	}
	return len(games) > 0
}

// ValidateTurnOrder checks that order indexes are unique and contiguous from
// zero and that contribution kinds alternate along the sequence.
func ValidateTurnOrder(turns []Turn) error {
	byIndex := make(map[int]TurnKind, len(turns))
	for _, t := range turns {
		if t.OrderIndex < 0 || t.OrderIndex >= len(turns) {
			return fmt.Errorf("order index %d outside [0, %d)", t.OrderIndex, len(turns))
		}
		if _, dup := byIndex[t.OrderIndex]; dup {
			return fmt.Errorf("duplicate order index %d", t.OrderIndex)
		}
		byIndex[t.OrderIndex] = t.Kind
	}
	for i := 1; i < len(turns); i++ {
		if byIndex[i] == byIndex[i-1] {
			return fmt.Errorf("turns %d and %d share kind %s, want alternation", i-1, i, byIndex[i])
		}
	}
	return nil
}
