package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/app"
	"sketchrelay/internal/rotation"
	"sketchrelay/internal/rotation/squares"
)

// InteractionMatrixRequest asks for the adjacency audit of a party's season.
type InteractionMatrixRequest struct {
	PartyID string `json:"party_id"`
}

// InteractionMatrixResponse reports how often each participant followed each
// other participant, split by turn kind.
type InteractionMatrixResponse struct {
	PartyID  string                     `json:"party_id"`
	Matrix   rotation.InteractionMatrix `json:"matrix"`
	Warnings []string                   `json:"warnings,omitempty"`
}

// rpcInteractionMatrix is the analytics surface over completed rotations. It
// reads the same persisted turns the rotation decides from and never sits on
// the live turn path.
func rpcInteractionMatrix(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	var request InteractionMatrixRequest
	if err := unmarshalPayload(payload, &request); err != nil {
		return "", err
	}

	store := NewNakamaPartyStoreAdapter(nk)
	party, _, err := loadPartyForCaller(ctx, store, request.PartyID, userID)
	if err != nil {
		return "", err
	}
	games, _, err := store.GetSeasonGames(ctx, party)
	if err != nil {
		logger.Error("InteractionMatrix [User:%s]: Failed to load games of %s: %v", userID, request.PartyID, err)
		return "", toRuntimeError(err)
	}

	matrix, warnings := app.NewService(squares.Generator{}).InteractionReport(party, games)
	for _, warning := range warnings {
		logger.Warn("InteractionMatrix [Party:%s]: %s", party.ID, warning)
	}

	return marshalResponse(InteractionMatrixResponse{
		PartyID:  party.ID,
		Matrix:   matrix,
		Warnings: warnings,
	})
}
