package rotation

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// stubSquares returns a canned square and counts invocations, so tests can
// assert the provider is never consulted on round-robin paths.
type stubSquares struct {
	rows  []string
	err   error
	calls int
}

func (s *stubSquares) Generate(n int, seed int64) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func gameList(ids ...string) []GameTurnSummary {
	games := make([]GameTurnSummary, 0, len(ids))
	for _, id := range ids {
		games = append(games, GameTurnSummary{GameID: id})
	}
	return games
}

func TestAssignNextSmallPartiesUseRoundRobin(t *testing.T) {
	tests := []struct {
		name         string
		participants []string
		completer    string
		want         string
	}{
		{name: "three players middle", participants: []string{"p1", "p2", "p3"}, completer: "p2", want: "p3"},
		{name: "three players wraps", participants: []string{"p1", "p2", "p3"}, completer: "p3", want: "p1"},
		{name: "two players", participants: []string{"p1", "p2"}, completer: "p1", want: "p2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			squares := &stubSquares{}
			r := Resolver{Squares: squares}
			ctx := TurnContext{GameID: "g1", CompletedBy: tt.completer, OrderIndex: 1}

			got, err := r.AssignNext(ctx, tt.participants, gameList("g1"))
			if err != nil {
				t.Fatalf("AssignNext() error = %v", err)
			}
			if got.Outcome != OutcomeNext || got.ParticipantID != tt.want {
				t.Errorf("AssignNext() = %+v, want next %s", got, tt.want)
			}
			if squares.calls != 0 {
				t.Errorf("square provider called %d times, want 0", squares.calls)
			}
		})
	}
}

func TestAssignNextOversizedPartyUsesRoundRobin(t *testing.T) {
	participants := make([]string, 27)
	for i := range participants {
		participants[i] = fmt.Sprintf("p%02d", i+1)
	}
	squares := &stubSquares{}
	r := Resolver{Squares: squares}

	got, err := r.AssignNext(TurnContext{GameID: "g1", CompletedBy: "p27"}, participants, gameList("g1"))
	if err != nil {
		t.Fatalf("AssignNext() error = %v", err)
	}
	if got.ParticipantID != "p01" {
		t.Errorf("AssignNext() next = %s, want p01", got.ParticipantID)
	}
	if squares.calls != 0 {
		t.Errorf("square provider called %d times, want 0", squares.calls)
	}
}

func TestAssignNextBalanced(t *testing.T) {
	participants := []string{"p1", "p2", "p3", "p4", "p5"}
	rows := []string{"ABCDE", "BCDEA", "CDEAB", "DEABC", "EABCD"}
	games := gameList("g1", "g2", "g3", "g4", "g5")

	tests := []struct {
		name       string
		gameID     string
		completer  string
		orderIndex int
		want       Assignment
	}{
		{
			name:   "first row second column",
			gameID: "g1", completer: "p1", orderIndex: 0,
			want: Assignment{Outcome: OutcomeNext, ParticipantID: "p2"},
		},
		{
			name:   "third row fourth column",
			gameID: "g3", completer: "p1", orderIndex: 2,
			want: Assignment{Outcome: OutcomeNext, ParticipantID: "p1"},
		},
		{
			name:   "last column completes the game",
			gameID: "g1", completer: "p5", orderIndex: 4,
			want: Assignment{Outcome: OutcomeGameComplete},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resolver{Squares: &stubSquares{rows: rows}}
			ctx := TurnContext{
				GameID:      tt.gameID,
				SeasonID:    "season-1",
				CompletedBy: tt.completer,
				OrderIndex:  tt.orderIndex,
			}

			got, err := r.AssignNext(ctx, participants, games)
			if err != nil {
				t.Fatalf("AssignNext() error = %v", err)
			}
			if got.Outcome != tt.want.Outcome || got.ParticipantID != tt.want.ParticipantID {
				t.Errorf("AssignNext() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAssignNextRequiresSeasonID(t *testing.T) {
	participants := []string{"p1", "p2", "p3", "p4", "p5"}
	r := Resolver{Squares: &stubSquares{rows: []string{"ABCDE"}}}

	_, err := r.AssignNext(TurnContext{GameID: "g1", CompletedBy: "p1"}, participants, gameList("g1"))
	if !errors.Is(err, ErrSeasonRequired) {
		t.Errorf("AssignNext() error = %v, want ErrSeasonRequired", err)
	}
}

func TestAssignNextProviderFault(t *testing.T) {
	participants := []string{"p1", "p2", "p3", "p4"}
	fault := errors.New("square service unavailable")
	r := Resolver{Squares: &stubSquares{err: fault}}
	ctx := TurnContext{GameID: "g1", SeasonID: "season-1", CompletedBy: "p1"}

	_, err := r.AssignNext(ctx, participants, gameList("g1"))
	if !errors.Is(err, fault) {
		t.Errorf("AssignNext() error = %v, want wrapped provider fault", err)
	}
}

func TestAssignNextFallsBackWhenGameUnlisted(t *testing.T) {
	participants := []string{"p1", "p2", "p3", "p4", "p5"}
	r := Resolver{Squares: &stubSquares{rows: []string{"ABCDE", "BCDEA", "CDEAB", "DEABC", "EABCD"}}}
	ctx := TurnContext{GameID: "orphan", SeasonID: "season-1", CompletedBy: "p3", OrderIndex: 1}

	got, err := r.AssignNext(ctx, participants, gameList("g1", "g2", "g3", "g4", "g5"))
	if err != nil {
		t.Fatalf("AssignNext() error = %v, want fallback", err)
	}
	if got.ParticipantID != "p4" {
		t.Errorf("AssignNext() next = %s, want round-robin successor p4", got.ParticipantID)
	}
	if got.Note == "" {
		t.Error("AssignNext() note empty, want fallback explanation")
	}
}

func TestAssignNextFallsBackOnMalformedCell(t *testing.T) {
	participants := []string{"p1", "p2", "p3", "p4", "p5"}
	tests := []struct {
		name string
		rows []string
	}{
		{name: "letter outside alphabet", rows: []string{"AZCDE", "BCDEA", "CDEAB", "DEABC", "EABCD"}},
		{name: "row too short", rows: []string{"A", "B", "C", "D", "E"}},
		{name: "non-letter cell", rows: []string{"A0CDE", "BCDEA", "CDEAB", "DEABC", "EABCD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resolver{Squares: &stubSquares{rows: tt.rows}}
			ctx := TurnContext{GameID: "g1", SeasonID: "season-1", CompletedBy: "p2", OrderIndex: 0}

			got, err := r.AssignNext(ctx, participants, gameList("g1", "g2", "g3", "g4", "g5"))
			if err != nil {
				t.Fatalf("AssignNext() error = %v, want fallback", err)
			}
			if got.ParticipantID != "p3" {
				t.Errorf("AssignNext() next = %s, want round-robin successor p3", got.ParticipantID)
			}
			if !strings.Contains(got.Note, "square cell") {
				t.Errorf("AssignNext() note = %q, want square cell diagnostic", got.Note)
			}
		})
	}
}

func TestAssignNextUnknownCompleter(t *testing.T) {
	tests := []struct {
		name         string
		participants []string
	}{
		{name: "round-robin path", participants: []string{"p1", "p2", "p3"}},
		{name: "fallback path", participants: []string{"p1", "p2", "p3", "p4", "p5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resolver{Squares: &stubSquares{rows: []string{"ABCDE", "BCDEA", "CDEAB", "DEABC", "EABCD"}}}
			ctx := TurnContext{GameID: "orphan", SeasonID: "season-1", CompletedBy: "intruder", OrderIndex: 0}

			_, err := r.AssignNext(ctx, tt.participants, gameList("g1", "g2", "g3", "g4", "g5"))
			if !errors.Is(err, ErrUnknownCompleter) {
				t.Errorf("AssignNext() error = %v, want ErrUnknownCompleter", err)
			}
		})
	}
}

func TestNextRoundRobinIsCyclic(t *testing.T) {
	participants := []string{"p1", "p2", "p3", "p4"}

	current := participants[0]
	seen := map[string]bool{}
	for i := 0; i < len(participants); i++ {
		next, err := NextRoundRobin(current, participants)
		if err != nil {
			t.Fatalf("NextRoundRobin(%s) error = %v", current, err)
		}
		if seen[next] {
			t.Fatalf("NextRoundRobin revisited %s before completing the cycle", next)
		}
		seen[next] = true
		current = next
	}
	if current != participants[0] {
		t.Errorf("after %d steps current = %s, want %s", len(participants), current, participants[0])
	}
}

func TestCompletedTurnsSortsAndFilters(t *testing.T) {
	now := time.Now()
	game := GameTurnSummary{
		GameID: "g1",
		Turns: []TurnSummary{
			{ParticipantID: "p3", OrderIndex: 2, CompletedAt: now.Add(2 * time.Hour)},
			{ParticipantID: "p1", OrderIndex: 0, CompletedAt: now},
			{ParticipantID: "p4", OrderIndex: 3}, // pending
			{ParticipantID: "p2", OrderIndex: 1, CompletedAt: now.Add(time.Hour)},
		},
	}

	turns := game.CompletedTurns()
	if len(turns) != 3 {
		t.Fatalf("CompletedTurns() len = %d, want 3", len(turns))
	}
	for i, want := range []string{"p1", "p2", "p3"} {
		if turns[i].ParticipantID != want {
			t.Errorf("CompletedTurns()[%d] = %s, want %s", i, turns[i].ParticipantID, want)
		}
	}
}
