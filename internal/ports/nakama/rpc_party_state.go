package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/app"
)

// PartyStateRequest asks for the caller's view of a party.
type PartyStateRequest struct {
	PartyID string `json:"party_id"`
}

// rpcPartyState returns the viewer-scoped projection of a party: completed
// games reveal their chains, active games only the contribution the caller is
// currently responding to.
func rpcPartyState(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	var request PartyStateRequest
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
		logger.Error("PartyState [User:%s]: Failed to load games of %s: %v", userID, request.PartyID, err)
		return "", toRuntimeError(err)
	}

	return marshalResponse(app.BuildPartyView(party, games, userID))
}
