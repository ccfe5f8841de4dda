package integration

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"sketchrelay/internal/app"
	"sketchrelay/internal/domain"
	"sketchrelay/internal/ports"
	"sketchrelay/internal/rotation"
)

// Runs a five-participant party from lobby to finish through the service and
// the versioned store, then audits the season the way the report RPC does.
func TestSeasonRunsToPartyFinished(t *testing.T) {
	const n = 5
	flow := startParty(t, newMemStore(), "party-it", n)

	var lastEvents []app.Event
	for steps := 0; ; steps++ {
		if steps > 2*n*n {
			t.Fatalf("season still open after %d completions", steps)
		}
		gameID := flow.firstOpenGame()
		if gameID == "" {
			break
		}
		lastEvents = flow.completePending(gameID)
	}

	party := flow.party()
	if party.Phase != domain.PhaseFinished {
		t.Fatalf("party phase = %q, want finished", party.Phase)
	}

	finished := false
	for _, ev := range lastEvents {
		if ev.Kind == app.EventPartyFinished {
			finished = true
		}
	}
	if !finished {
		t.Fatal("last completion did not announce the party finish")
	}

	games := flow.games()
	if len(games) != n {
		t.Fatalf("games = %d, want %d", len(games), n)
	}

	writing := make(map[string]int, n)
	drawing := make(map[string]int, n)
	for _, game := range games {
		if !game.Completed {
			t.Fatalf("game %s not completed", game.ID)
		}
		if len(game.Turns) != n {
			t.Fatalf("game %s turns = %d, want %d", game.ID, len(game.Turns), n)
		}
		if err := domain.ValidateTurnOrder(game.Turns); err != nil {
			t.Fatalf("game %s turn order: %v", game.ID, err)
		}
		if contributors := domain.ContributorIDs(game); len(contributors) != n {
			t.Fatalf("game %s contributors = %v, want every participant exactly once", game.ID, contributors)
		}
		for _, turn := range game.Turns {
			switch turn.Kind {
			case domain.TurnWriting:
				writing[turn.ParticipantID]++
			case domain.TurnDrawing:
				drawing[turn.ParticipantID]++
			}
		}
	}

	// Odd party size: positions 0, 2, 4 write and 1, 3 draw, and every
	// participant holds each position exactly once across the season.
	for _, id := range party.ParticipantIDs {
		if writing[id] != 3 || drawing[id] != 2 {
			t.Errorf("%s wrote %d and drew %d, want 3 and 2", id, writing[id], drawing[id])
		}
	}

	matrix, warnings := flow.svc.InteractionReport(party, games)
	if len(warnings) != 0 {
		t.Fatalf("matrix warnings = %v, want none", warnings)
	}
	if got, want := matrix.Total(), n*(n-1); got != want {
		t.Fatalf("matrix total = %d, want %d", got, want)
	}
	for follower, row := range matrix {
		if counts := row[follower]; counts != (rotation.PairCounts{}) {
			t.Errorf("matrix[%s][%s] = %+v, want zero diagonal", follower, follower, counts)
		}
		total := 0
		for _, counts := range row {
			total += counts.Writing + counts.Drawing
		}
		if total != n-1 {
			t.Errorf("%s follows %d times, want %d", follower, total, n-1)
		}
	}
}

// Two clients load the same pending turn; the slower write must lose to the
// version check and leave the first submission in place.
func TestStaleSubmitLosesTheRace(t *testing.T) {
	flow := startParty(t, newMemStore(), "party-race", 4)
	gameID := flow.firstOpenGame()

	staleParty, _, err := flow.store.GetParty(flow.ctx, flow.partyID)
	if err != nil {
		t.Fatalf("GetParty() error = %v", err)
	}
	staleGames, staleVersions, err := flow.store.GetSeasonGames(flow.ctx, staleParty)
	if err != nil {
		t.Fatalf("GetSeasonGames() error = %v", err)
	}
	var stale *domain.Game
	for _, g := range staleGames {
		if g.ID == gameID {
			stale = g
		}
	}
	actor := domain.PendingTurn(stale).ParticipantID

	// The rival submits and persists first.
	flow.completePending(gameID)

	// The stale client completes its copy and tries to persist under the
	// version it read.
	if _, err := flow.svc.CompleteTurn(staleParty, staleGames, gameID, actor, "late duplicate"); err != nil {
		t.Fatalf("CompleteTurn() error = %v", err)
	}
	if _, err := flow.store.PutGame(flow.ctx, stale, staleVersions[gameID]); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("PutGame() error = %v, want version conflict", err)
	}

	game, _, err := flow.store.GetGame(flow.ctx, gameID)
	if err != nil {
		t.Fatalf("GetGame() error = %v", err)
	}
	if got := domain.CompletedCount(game); got != 2 {
		t.Fatalf("stored game completed turns = %d, want the seed and the first submission", got)
	}
}

// The same roster and party id must replay to the same assignment script:
// square seeds derive from the season id, and the store adds no randomness.
func TestSeasonsReplayIdentically(t *testing.T) {
	run := func() []string {
		flow := startParty(t, newMemStore(), "party-replay", 6)
		var script []string
		for steps := 0; ; steps++ {
			if steps > 100 {
				t.Fatalf("season still open after %d completions", steps)
			}
			gameID := flow.firstOpenGame()
			if gameID == "" {
				return script
			}
			for _, ev := range flow.completePending(gameID) {
				if ev.Kind != app.EventTurnAssigned {
					continue
				}
				payload := ev.Payload.(app.TurnAssignedPayload)
				script = append(script, fmt.Sprintf("%s[%d]=%s", payload.GameID, payload.OrderIndex, payload.ParticipantID))
			}
		}
	}

	first := run()
	second := run()

	if len(first) == 0 {
		t.Fatal("no assignments recorded")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("replays diverged:\nfirst:  %v\nsecond: %v", first, second)
	}
}
