package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/app"
	"sketchrelay/internal/rotation/squares"
)

// SubmitTurnRequest is the client payload completing one pending turn.
type SubmitTurnRequest struct {
	PartyID string `json:"party_id"`
	GameID  string `json:"game_id"`
	// Content is the written caption or the uploaded drawing reference.
	Content string `json:"content"`
}

// SubmitTurnResponse reports what the rotation decided after the turn.
type SubmitTurnResponse struct {
	Status            string `json:"status"` // "next", "game_complete" or "party_finished"
	GameID            string `json:"game_id"`
	NextParticipantID string `json:"next_participant_id,omitempty"`
	NextOrderIndex    int    `json:"next_order_index,omitempty"`
	NextKind          string `json:"next_kind,omitempty"`
}

// rpcSubmitTurn is the live turn-completion path: record the contribution,
// ask the rotation engine who acts next, persist, and fan out notifications.
// The game write is guarded by the version read before mutation, so a double
// submit of the same turn surfaces as a retryable conflict instead of a
// duplicated turn.
func rpcSubmitTurn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	var request SubmitTurnRequest
	if err := unmarshalPayload(payload, &request); err != nil {
		return "", err
	}
	if request.GameID == "" {
		return "", runtime.NewError("game_id is required", codeInvalidArgument)
	}

	store := NewNakamaPartyStoreAdapter(nk)
	party, partyVersion, err := loadPartyForCaller(ctx, store, request.PartyID, userID)
	if err != nil {
		return "", err
	}
	games, versions, err := store.GetSeasonGames(ctx, party)
	if err != nil {
		logger.Error("SubmitTurn [User:%s]: Failed to load games of %s: %v", userID, request.PartyID, err)
		return "", toRuntimeError(err)
	}

	phaseBefore := party.Phase
	service := app.NewService(squares.Generator{})
	events, err := service.CompleteTurn(party, games, request.GameID, userID, request.Content)
	if err != nil {
		logger.Warn("SubmitTurn [User:%s]: Rejected for game %s: %v", userID, request.GameID, err)
		return "", toRuntimeError(err)
	}

	game := seasonGame(games, request.GameID)
	if _, err := store.PutGame(ctx, game, versions[request.GameID]); err != nil {
		logger.Warn("SubmitTurn [User:%s]: Write conflict on game %s: %v", userID, request.GameID, err)
		return "", toRuntimeError(err)
	}
	if party.Phase != phaseBefore {
		if _, err := store.PutParty(ctx, party, partyVersion); err != nil {
			logger.Error("SubmitTurn [User:%s]: Failed to persist party %s: %v", userID, request.PartyID, err)
			return "", toRuntimeError(err)
		}
	}

	newEventDispatcher(nk).deliver(ctx, logger, party, events)

	return marshalResponse(submitTurnResponse(request.GameID, events))
}

// submitTurnResponse derives the client-facing outcome from the emitted events.
func submitTurnResponse(gameID string, events []app.Event) SubmitTurnResponse {
	response := SubmitTurnResponse{Status: "next", GameID: gameID}
	for _, ev := range events {
		switch ev.Kind {
		case app.EventTurnAssigned:
			payload := ev.Payload.(app.TurnAssignedPayload)
			response.NextParticipantID = payload.ParticipantID
			response.NextOrderIndex = payload.OrderIndex
			response.NextKind = string(payload.Kind)
		case app.EventGameCompleted:
			response.Status = "game_complete"
		case app.EventPartyFinished:
			response.Status = "party_finished"
		}
	}
	return response
}
