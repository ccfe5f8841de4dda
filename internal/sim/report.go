package sim

import (
	"fmt"
	"strings"
	"time"

	"sketchrelay/internal/domain"
	"sketchrelay/internal/rotation"
)

// Report summarizes one simulated party run.
type Report struct {
	// CompletedGames is how many games finished all of their turns.
	CompletedGames int
	// Steps counts turn completions performed by the loop (seed turns are
	// completed during setup and not counted).
	Steps int
	// CompletedTurns is the total completed turns across all games,
	// including seeds.
	CompletedTurns int
	// Stalled is set when the pending pool emptied before the target was
	// reached. An accepted terminal state, not a failure.
	Stalled bool
	// SafetyStop is set when the run hit MaxSteps, which points at a loop in
	// the harness or the policy rather than a legitimate outcome.
	SafetyStop bool
	// Clock is the simulated time at termination.
	Clock time.Time

	Matrix         rotation.InteractionMatrix
	MatrixWarnings []string
	// Diagnostics carries the per-game annotations recorded when the
	// rotation produced a fallback note or no actor.
	Diagnostics []string
}

// Summary renders a one-line digest for validation tooling output.
func (r Report) Summary() string {
	status := "completed"
	switch {
	case r.SafetyStop:
		status = "safety-stop"
	case r.Stalled:
		status = "stalled"
	}
	return fmt.Sprintf("%s: games=%d steps=%d turns=%d adjacencies=%d diagnostics=%d",
		status, r.CompletedGames, r.Steps, r.CompletedTurns, r.Matrix.Total(), len(r.Diagnostics))
}

func (r *runner) buildReport() Report {
	report := Report{
		CompletedGames: r.completedGames,
		Steps:          r.steps,
		Stalled:        r.stalled,
		SafetyStop:     r.safetyStop,
		Clock:          r.clock,
		Diagnostics:    r.diagnostics,
	}
	for _, game := range r.games {
		report.CompletedTurns += domain.CompletedCount(game)
	}
	report.Matrix, report.MatrixWarnings = rotation.BuildMatrix(domain.RotationSummaries(r.games), r.participants)
	return report
}

// explainNoCandidate describes why the rotation offered no actor for a game
// that still has capacity: for each participant yet to contribute to it,
// their accumulated write and draw totals across the party are compared with
// the per-participant ceilings a balanced season implies (a participant
// holds each turn position exactly once, so writes cap at the count of even
// positions and draws at the odd ones).
func (r *runner) explainNoCandidate(game *domain.Game) string {
	n := r.cfg.Participants
	maxWrites := (n + 1) / 2
	maxDraws := n / 2

	contributed := make(map[string]bool, n)
	for _, id := range domain.ContributorIDs(game) {
		contributed[id] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "game %s: no actor for turn %d of %d:", game.ID, domain.CompletedCount(game), n)
	for _, pid := range r.participants {
		if contributed[pid] {
			continue
		}
		writes, draws := r.turnTotals(pid)
		fmt.Fprintf(&b, " %s writes %d/%d draws %d/%d;", pid, writes, maxWrites, draws, maxDraws)
	}
	return strings.TrimSuffix(b.String(), ";")
}

// turnTotals tallies a participant's completed turns across the whole party.
func (r *runner) turnTotals(participantID string) (writes, draws int) {
	for _, game := range r.games {
		for i := range game.Turns {
			t := &game.Turns[i]
			if t.ParticipantID != participantID || t.Status != domain.TurnCompleted {
				continue
			}
			if t.Kind == domain.TurnDrawing {
				draws++
			} else {
				writes++
			}
		}
	}
	return writes, draws
}
