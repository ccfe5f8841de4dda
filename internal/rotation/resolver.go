package rotation

import (
	"errors"
	"fmt"
)

// Party sizes served by the balanced square strategy. Outside this range the
// resolver silently uses round-robin; the provider contract only covers it.
const (
	MinBalancedParticipants = 4
	MaxBalancedParticipants = 26
)

var (
	// ErrUnknownCompleter reports a completing participant missing from the
	// party's participant list. Caller-side data inconsistency, not retryable.
	ErrUnknownCompleter = errors.New("completer is not a party participant")
	// ErrSeasonRequired reports a balanced assignment attempted without a
	// season id. Caller-side contract violation, not retryable.
	ErrSeasonRequired = errors.New("season id required for balanced rotation")
)

// SquareProvider supplies balanced rotation squares. Implementations must be
// deterministic: the same (n, seed) pair always yields the same square. Each
// of the n rows is a string of n letters from 'A'..'A'+n-1; row r column c
// names who takes turn c of game r.
type SquareProvider interface {
	Generate(n int, seed int64) ([]string, error)
}

// Outcome distinguishes the two non-error results of AssignNext.
type Outcome int

const (
	// OutcomeNext carries the participant who takes the game's next turn.
	OutcomeNext Outcome = iota
	// OutcomeGameComplete means the game has used all of its scheduled turns.
	OutcomeGameComplete
)

// Assignment is the resolver's decision for one completed turn. Note is
// advisory text for the caller's logging; the resolver itself never logs.
type Assignment struct {
	Outcome       Outcome
	ParticipantID string // set when Outcome is OutcomeNext
	Note          string
}

// Resolver picks the next actor for a game after a turn completes. It keeps
// no state between calls and is safe for concurrent use. A zero Resolver
// still serves parties outside the balanced size range.
type Resolver struct {
	Squares SquareProvider
}

// AssignNext decides who acts after the turn described by ctx. participantIDs
// is the party's canonical ordering and games lists every game in the party,
// in the order that maps games to square rows.
//
// Bookkeeping problems (game missing from the listing, square cell that
// resolves to no participant) degrade to round-robin with a Note instead of
// erroring: a game must never stall while the cyclic fallback is computable.
func (r Resolver) AssignNext(ctx TurnContext, participantIDs []string, games []GameTurnSummary) (Assignment, error) {
	n := len(participantIDs)
	if n < MinBalancedParticipants || n > MaxBalancedParticipants {
		return roundRobin(ctx.CompletedBy, participantIDs, "")
	}

	if ctx.SeasonID == "" {
		return Assignment{}, ErrSeasonRequired
	}

	square, err := r.Squares.Generate(n, DeriveSeed(ctx.SeasonID))
	if err != nil {
		return Assignment{}, fmt.Errorf("generate square: %w", err)
	}

	row := -1
	for i := range games {
		if games[i].GameID == ctx.GameID {
			row = i
			break
		}
	}
	if row < 0 {
		return roundRobin(ctx.CompletedBy, participantIDs,
			fmt.Sprintf("game %s missing from party listing, falling back to round-robin", ctx.GameID))
	}

	next := ctx.OrderIndex + 1
	if next >= n {
		return Assignment{Outcome: OutcomeGameComplete, Note: "game completed its scheduled sequence"}, nil
	}

	idx := cellIndex(square[row], next)
	if idx < 0 || idx >= n {
		return roundRobin(ctx.CompletedBy, participantIDs,
			fmt.Sprintf("square cell [%d][%d] resolves to no participant, falling back to round-robin", row, next))
	}
	return Assignment{Outcome: OutcomeNext, ParticipantID: participantIDs[idx]}, nil
}

// NextRoundRobin returns the cyclic successor of completer in participantIDs.
// It is the designated strategy for parties outside the balanced size range
// and the safety net whenever the balanced strategy cannot answer.
func NextRoundRobin(completer string, participantIDs []string) (string, error) {
	for i, id := range participantIDs {
		if id == completer {
			return participantIDs[(i+1)%len(participantIDs)], nil
		}
	}
	return "", ErrUnknownCompleter
}

func roundRobin(completer string, participantIDs []string, note string) (Assignment, error) {
	next, err := NextRoundRobin(completer, participantIDs)
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{Outcome: OutcomeNext, ParticipantID: next, Note: note}, nil
}

// cellIndex decodes the letter at one square cell into a participant index.
// Letters are the provider's serialization detail and never travel further.
func cellIndex(row string, col int) int {
	if col < 0 || col >= len(row) {
		return -1
	}
	return int(row[col]) - 'A'
}
