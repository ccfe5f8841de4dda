// Package sim drives synthetic parties through the rotation engine to check
// that the assignment policy carries every game to completion, and to
// characterize the runs where it does not. It is validation tooling: nothing
// here runs on the live turn path.
package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"sketchrelay/internal/domain"
	"sketchrelay/internal/rotation"
)

// simStart anchors every run's clock so identical seeds replay identically.
var simStart = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// delays are the plausible gaps between completions in an asynchronous
// party, where a turn can take minutes or sit overnight.
var delays = []time.Duration{
	7 * time.Minute,
	41 * time.Minute,
	3 * time.Hour,
	9 * time.Hour,
	26 * time.Hour,
}

// Config parameterizes one simulated party.
type Config struct {
	// Participants is the party size; the run creates one game per
	// participant and each game holds one turn per participant.
	Participants int
	// TargetCompletedGames stops the run early once this many games have
	// finished. Zero means every game.
	TargetCompletedGames int
	// Seed fixes the random source; runs with equal configs are identical.
	Seed int64
	// SeasonID feeds the balanced square derivation. Derived from Seed when
	// empty.
	SeasonID string
	// MaxSteps guards against runaway loops. Zero picks a bound comfortably
	// above the turn count a full party needs.
	MaxSteps int
}

func (c *Config) applyDefaults() {
	if c.TargetCompletedGames == 0 {
		c.TargetCompletedGames = c.Participants
	}
	if c.SeasonID == "" {
		c.SeasonID = fmt.Sprintf("sim-season-%d", c.Seed)
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = 4*c.Participants*c.Participants + 64
	}
}

func (c Config) validate() error {
	if c.Participants < 2 {
		return errors.New("simulation needs at least two participants")
	}
	if c.TargetCompletedGames < 1 || c.TargetCompletedGames > c.Participants {
		return fmt.Errorf("target completed games %d outside [1, %d]", c.TargetCompletedGames, c.Participants)
	}
	return nil
}

// Run plays one synthetic party to termination: target reached, pending pool
// exhausted, or the step bound hit. Configuration and provider errors abort
// the run; everything the rotation policy itself does wrong is recorded in
// the report instead.
func Run(cfg Config, squares rotation.SquareProvider) (Report, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}
	if squares == nil {
		return Report{}, errors.New("square provider required")
	}

	r := &runner{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		resolver: rotation.Resolver{Squares: squares},
		clock:    simStart,
	}
	if err := r.setup(); err != nil {
		return Report{}, err
	}
	if err := r.loop(); err != nil {
		return Report{}, err
	}
	return r.buildReport(), nil
}

type runner struct {
	cfg          Config
	rng          *rand.Rand
	resolver     rotation.Resolver
	clock        time.Time
	participants []string
	games        []*domain.Game

	steps          int
	completedGames int
	stalled        bool
	safetyStop     bool
	diagnostics    []string
}

// setup seeds one game per participant: a completed written prompt by that
// participant at the shared start time, then the first drawing assignment
// from the resolver, exactly how a live season opens.
func (r *runner) setup() error {
	n := r.cfg.Participants
	r.participants = make([]string, n)
	for i := range r.participants {
		r.participants[i] = fmt.Sprintf("sim-p%02d", i+1)
	}

	r.games = make([]*domain.Game, n)
	for i := range r.games {
		id := fmt.Sprintf("%s:g%d", r.cfg.SeasonID, i)
		r.games[i] = &domain.Game{
			ID:       id,
			PartyID:  r.cfg.SeasonID,
			SeasonID: r.cfg.SeasonID,
			Turns: []domain.Turn{{
				ParticipantID: r.participants[i],
				Kind:          domain.TurnWriting,
				OrderIndex:    0,
				Status:        domain.TurnCompleted,
				Content:       syntheticContent(domain.TurnWriting, id, 0),
				AssignedAt:    r.clock,
				CompletedAt:   r.clock,
			}},
		}
	}

	for i, game := range r.games {
		if err := r.assignNext(game, r.participants[i], 0, domain.TurnWriting); err != nil {
			return fmt.Errorf("seed assignment for %s: %w", game.ID, err)
		}
	}
	return nil
}

// loop completes one pending turn per step until a terminal condition.
func (r *runner) loop() error {
	for r.completedGames < r.cfg.TargetCompletedGames {
		if r.steps >= r.cfg.MaxSteps {
			r.safetyStop = true
			return nil
		}

		pending := r.pendingTurns()
		if len(pending) == 0 {
			r.stalled = true
			return nil
		}

		pick := pending[r.rng.Intn(len(pending))]
		r.clock = r.clock.Add(delays[r.rng.Intn(len(delays))])
		r.steps++

		turn := pick.turn
		turn.Status = domain.TurnCompleted
		turn.CompletedAt = r.clock
		turn.Content = syntheticContent(turn.Kind, pick.game.ID, turn.OrderIndex)

		if domain.CompletedCount(pick.game) >= r.cfg.Participants {
			pick.game.Completed = true
			r.completedGames++
			continue
		}

		if err := r.assignNext(pick.game, turn.ParticipantID, turn.OrderIndex, turn.Kind); err != nil {
			return err
		}
	}
	return nil
}

// assignNext asks the resolver for the actor after the given completed turn
// and appends the alternated pending turn. A completion signal while the
// game still has capacity is recorded as a diagnostic and leaves the game
// without a pending turn, shrinking the pool.
func (r *runner) assignNext(game *domain.Game, completedBy string, orderIndex int, completedKind domain.TurnKind) error {
	assignment, err := r.resolver.AssignNext(rotation.TurnContext{
		GameID:      game.ID,
		SeasonID:    r.cfg.SeasonID,
		CompletedBy: completedBy,
		OrderIndex:  orderIndex,
	}, r.participants, domain.RotationSummaries(r.games))
	if err != nil {
		return fmt.Errorf("assign turn %d of %s: %w", orderIndex+1, game.ID, err)
	}

	if assignment.Outcome == rotation.OutcomeGameComplete {
		r.diagnostics = append(r.diagnostics, r.explainNoCandidate(game))
		return nil
	}
	if assignment.Note != "" {
		r.diagnostics = append(r.diagnostics, fmt.Sprintf("game %s: %s", game.ID, assignment.Note))
	}

	game.Turns = append(game.Turns, domain.Turn{
		ParticipantID: assignment.ParticipantID,
		Kind:          domain.NextKind(completedKind),
		OrderIndex:    orderIndex + 1,
		Status:        domain.TurnPending,
		AssignedAt:    r.clock,
	})
	return nil
}

type pendingRef struct {
	game *domain.Game
	turn *domain.Turn
}

func (r *runner) pendingTurns() []pendingRef {
	out := make([]pendingRef, 0, len(r.games))
	for _, game := range r.games {
		if game.Completed {
			continue
		}
		if turn := domain.PendingTurn(game); turn != nil {
			out = append(out, pendingRef{game: game, turn: turn})
		}
	}
	return out
}

// syntheticContent fabricates a contribution for a simulated turn.
func syntheticContent(kind domain.TurnKind, gameID string, orderIndex int) string {
	if kind == domain.TurnDrawing {
		return fmt.Sprintf("sketch://%s/%d", gameID, orderIndex)
	}
	return fmt.Sprintf("caption %d for %s", orderIndex, gameID)
}
