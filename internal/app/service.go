package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sketchrelay/internal/domain"
	"sketchrelay/internal/rotation"
)

// Service contains sketchrelay party use-cases operating on domain state.
// Persistence and messaging stay with the caller, which receives the mutated
// domain values plus events to dispatch.
type Service struct {
	resolver rotation.Resolver
	now      func() time.Time
}

// NewService constructs a Service around the given square provider.
func NewService(squares rotation.SquareProvider) *Service {
	return &Service{
		resolver: rotation.Resolver{Squares: squares},
		now:      time.Now,
	}
}

var (
	ErrWrongPhase          = errors.New("party not in required phase")
	ErrPartyNotActive      = errors.New("party has no active season")
	ErrGameCompleted       = errors.New("game already completed")
	ErrUnknownGame         = errors.New("game not part of the party's season")
	ErrNoPendingTurn       = errors.New("game has no pending turn")
	ErrNotYourTurn         = errors.New("turn belongs to another participant")
	ErrEmptyContent        = errors.New("turn content is empty")
	ErrTooFewParticipants  = errors.New("not enough participants to start a season")
	ErrTooManyParticipants = errors.New("too many participants to start a season")
	ErrSeasonSetupMismatch = errors.New("game ids and prompts must match participant count")
)

// StartSeason flips a lobby party into an active season: one game per
// participant, each seeded with that participant's own written prompt and
// handed its first drawing assignment by the rotation engine. gameIDs and
// prompts are indexed by the party's participant order.
func (s *Service) StartSeason(party *domain.Party, gameIDs []string, prompts []string) ([]*domain.Game, []Event, error) {
	if party.Phase != domain.PhaseLobby {
		return nil, nil, ErrWrongPhase
	}
	n := len(party.ParticipantIDs)
	if n < MinParticipantsToStartSeason {
		return nil, nil, ErrTooFewParticipants
	}
	if n > MaxParticipantsToStartSeason {
		return nil, nil, ErrTooManyParticipants
	}
	if len(gameIDs) != n || len(prompts) != n {
		return nil, nil, ErrSeasonSetupMismatch
	}
	for i, prompt := range prompts {
		if strings.TrimSpace(prompt) == "" {
			return nil, nil, fmt.Errorf("%w: prompt %d", ErrEmptyContent, i)
		}
	}

	now := s.now()
	party.SeasonsPlayed++
	party.SeasonID = fmt.Sprintf("%s#%d", party.ID, party.SeasonsPlayed)
	party.GameIDs = append([]string(nil), gameIDs...)
	party.Phase = domain.PhaseActive

	games := make([]*domain.Game, 0, n)
	for i, pid := range party.ParticipantIDs {
		games = append(games, &domain.Game{
			ID:       gameIDs[i],
			PartyID:  party.ID,
			SeasonID: party.SeasonID,
			Turns: []domain.Turn{{
				ParticipantID: pid,
				Kind:          domain.TurnWriting,
				OrderIndex:    0,
				Status:        domain.TurnCompleted,
				Content:       prompts[i],
				AssignedAt:    now,
				CompletedAt:   now,
			}},
		})
	}

	events := []Event{{
		Kind:    EventSeasonStarted,
		Payload: SeasonStartedPayload{PartyID: party.ID, SeasonID: party.SeasonID, GameIDs: party.GameIDs},
	}}

	summaries := domain.RotationSummaries(games)
	for i, game := range games {
		assignment, err := s.resolver.AssignNext(rotation.TurnContext{
			GameID:      game.ID,
			SeasonID:    party.SeasonID,
			CompletedBy: party.ParticipantIDs[i],
			OrderIndex:  0,
		}, party.ParticipantIDs, summaries)
		if err != nil {
			return nil, nil, fmt.Errorf("assign first turn of %s: %w", game.ID, err)
		}
		events = append(events, s.appendPending(game, assignment, domain.TurnDrawing, now))
	}

	return games, events, nil
}

// CompleteTurn records actorID's contribution to one of the party's games
// and asks the rotation engine who acts next. games must list the season's
// games in Party.GameIDs order so square rows stay aligned.
func (s *Service) CompleteTurn(party *domain.Party, games []*domain.Game, gameID, actorID, content string) ([]Event, error) {
	if party.Phase != domain.PhaseActive {
		return nil, ErrPartyNotActive
	}
	game := findGame(games, gameID)
	if game == nil {
		return nil, ErrUnknownGame
	}
	if game.Completed {
		return nil, ErrGameCompleted
	}
	pending := domain.PendingTurn(game)
	if pending == nil {
		return nil, ErrNoPendingTurn
	}
	if pending.ParticipantID != actorID {
		return nil, ErrNotYourTurn
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	now := s.now()
	pending.Status = domain.TurnCompleted
	pending.Content = content
	pending.CompletedAt = now

	events := []Event{{
		Kind: EventTurnCompleted,
		Payload: TurnCompletedPayload{
			GameID:        game.ID,
			ParticipantID: actorID,
			OrderIndex:    pending.OrderIndex,
			Kind:          pending.Kind,
		},
	}}

	// A season's games run one turn per participant. The length check comes
	// first because the round-robin strategy cycles forever on its own; the
	// resolver only signals completion on the balanced path.
	if domain.CompletedCount(game) >= len(party.ParticipantIDs) {
		return append(events, s.completeGame(party, games, game, "")...), nil
	}

	assignment, err := s.resolver.AssignNext(rotation.TurnContext{
		GameID:      game.ID,
		SeasonID:    party.SeasonID,
		CompletedBy: actorID,
		OrderIndex:  pending.OrderIndex,
	}, party.ParticipantIDs, domain.RotationSummaries(games))
	if err != nil {
		return nil, fmt.Errorf("assign next turn of %s: %w", game.ID, err)
	}

	if assignment.Outcome == rotation.OutcomeGameComplete {
		// Not expected while the game has remaining capacity, but the
		// engine's answer is final; surface its note for the caller's logs.
		return append(events, s.completeGame(party, games, game, assignment.Note)...), nil
	}

	events = append(events, s.appendPending(game, assignment, domain.NextKind(pending.Kind), now))
	return events, nil
}

func (s *Service) completeGame(party *domain.Party, games []*domain.Game, game *domain.Game, note string) []Event {
	game.Completed = true
	events := []Event{{
		Kind: EventGameCompleted,
		Payload: GameCompletedPayload{
			GameID:       game.ID,
			Contributors: domain.ContributorIDs(game),
			Note:         note,
		},
	}}
	if domain.AllCompleted(games) {
		party.Phase = domain.PhaseFinished
		events = append(events, Event{
			Kind:    EventPartyFinished,
			Payload: PartyFinishedPayload{PartyID: party.ID, SeasonID: party.SeasonID},
		})
	}
	return events
}

// SkipTurn abandons a stalled pending turn and hands it to the cyclic
// successor of the participant sitting on it. The caller owns the deadline
// policy that decides when a turn counts as stalled.
func (s *Service) SkipTurn(party *domain.Party, games []*domain.Game, gameID string) ([]Event, error) {
	if party.Phase != domain.PhaseActive {
		return nil, ErrPartyNotActive
	}
	game := findGame(games, gameID)
	if game == nil {
		return nil, ErrUnknownGame
	}
	if game.Completed {
		return nil, ErrGameCompleted
	}
	pending := domain.PendingTurn(game)
	if pending == nil {
		return nil, ErrNoPendingTurn
	}

	next, err := rotation.NextRoundRobin(pending.ParticipantID, party.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	skipped := pending.ParticipantID
	pending.ParticipantID = next
	pending.AssignedAt = now

	return []Event{
		{
			Kind:    EventTurnSkipped,
			Payload: TurnSkippedPayload{GameID: game.ID, ParticipantID: skipped, OrderIndex: pending.OrderIndex},
		},
		{
			Kind: EventTurnAssigned,
			Payload: TurnAssignedPayload{
				GameID:          game.ID,
				ParticipantID:   next,
				OrderIndex:      pending.OrderIndex,
				Kind:            pending.Kind,
				PreviousContent: previousContent(game, pending.OrderIndex),
			},
			Recipients: []string{next},
		},
	}, nil
}

// InteractionReport audits who followed whom across the party's games. Not
// part of the live turn path; warnings are advisory for the caller's logs.
func (s *Service) InteractionReport(party *domain.Party, games []*domain.Game) (rotation.InteractionMatrix, []string) {
	return rotation.BuildMatrix(domain.RotationSummaries(games), party.ParticipantIDs)
}

func (s *Service) appendPending(game *domain.Game, assignment rotation.Assignment, kind domain.TurnKind, at time.Time) Event {
	last := domain.LastCompleted(game)
	turn := domain.Turn{
		ParticipantID: assignment.ParticipantID,
		Kind:          kind,
		OrderIndex:    last.OrderIndex + 1,
		Status:        domain.TurnPending,
		AssignedAt:    at,
	}
	game.Turns = append(game.Turns, turn)

	return Event{
		Kind: EventTurnAssigned,
		Payload: TurnAssignedPayload{
			GameID:          game.ID,
			ParticipantID:   turn.ParticipantID,
			OrderIndex:      turn.OrderIndex,
			Kind:            turn.Kind,
			PreviousContent: last.Content,
			Note:            assignment.Note,
		},
		Recipients: []string{turn.ParticipantID},
	}
}

func findGame(games []*domain.Game, gameID string) *domain.Game {
	for _, g := range games {
		if g.ID == gameID {
			return g
		}
	}
	return nil
}

func previousContent(game *domain.Game, orderIndex int) string {
	for i := range game.Turns {
		t := &game.Turns[i]
		if t.OrderIndex == orderIndex-1 && t.Status == domain.TurnCompleted {
			return t.Content
		}
	}
	return ""
}
