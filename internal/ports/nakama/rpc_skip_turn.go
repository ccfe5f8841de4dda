package nakama

import (
	"context"
	"database/sql"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/app"
	"sketchrelay/internal/config"
	"sketchrelay/internal/domain"
	"sketchrelay/internal/rotation/squares"
)

// SkipTurnRequest asks to hand a stalled pending turn to the next participant.
type SkipTurnRequest struct {
	PartyID string `json:"party_id"`
	GameID  string `json:"game_id"`
}

// SkipTurnResponse reports who holds the turn after the skip.
type SkipTurnResponse struct {
	GameID            string `json:"game_id"`
	NextParticipantID string `json:"next_participant_id"`
	OrderIndex        int    `json:"order_index"`
}

// rpcSkipTurn reassigns a pending turn. The assignee may pass their own turn
// at any time; the owner may skip anyone once the turn deadline has passed.
// The engine only decides who comes next, the deadline policy lives here.
func rpcSkipTurn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	var request SkipTurnRequest
	if err := unmarshalPayload(payload, &request); err != nil {
		return "", err
	}
	if request.GameID == "" {
		return "", runtime.NewError("game_id is required", codeInvalidArgument)
	}

	store := NewNakamaPartyStoreAdapter(nk)
	party, _, err := loadPartyForCaller(ctx, store, request.PartyID, userID)
	if err != nil {
		return "", err
	}
	games, versions, err := store.GetSeasonGames(ctx, party)
	if err != nil {
		logger.Error("SkipTurn [User:%s]: Failed to load games of %s: %v", userID, request.PartyID, err)
		return "", toRuntimeError(err)
	}

	game := seasonGame(games, request.GameID)
	if game == nil {
		return "", toRuntimeError(app.ErrUnknownGame)
	}
	pending := domain.PendingTurn(game)
	if pending == nil {
		return "", toRuntimeError(app.ErrNoPendingTurn)
	}
	if userID != pending.ParticipantID {
		if userID != party.OwnerID {
			return "", runtime.NewError("only the assignee or the owner can skip a turn", codePermissionDenied)
		}
		if time.Since(pending.AssignedAt) < config.TurnDeadline() {
			return "", runtime.NewError("turn deadline has not passed yet", codeFailedPrecondition)
		}
	}

	service := app.NewService(squares.Generator{})
	events, err := service.SkipTurn(party, games, request.GameID)
	if err != nil {
		logger.Warn("SkipTurn [User:%s]: Rejected for game %s: %v", userID, request.GameID, err)
		return "", toRuntimeError(err)
	}

	if _, err := store.PutGame(ctx, game, versions[request.GameID]); err != nil {
		logger.Warn("SkipTurn [User:%s]: Write conflict on game %s: %v", userID, request.GameID, err)
		return "", toRuntimeError(err)
	}

	newEventDispatcher(nk).deliver(ctx, logger, party, events)

	response := SkipTurnResponse{GameID: request.GameID}
	for _, ev := range events {
		if ev.Kind == app.EventTurnAssigned {
			payload := ev.Payload.(app.TurnAssignedPayload)
			response.NextParticipantID = payload.ParticipantID
			response.OrderIndex = payload.OrderIndex
		}
	}
	return marshalResponse(response)
}
