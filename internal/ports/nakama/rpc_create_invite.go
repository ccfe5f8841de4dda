package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"
)

// CreateInviteRequest asks for an invite token to a party.
type CreateInviteRequest struct {
	PartyID string `json:"party_id"`
}

// CreateInviteResponse carries a signed invite token. The client presents it
// in the join metadata under "invite_token" when entering a locked lobby.
type CreateInviteResponse struct {
	Token string `json:"token"`
}

// rpcCreateInvite mints a self-contained invite token. Only current
// participants can invite; the token stays valid while the lobby idles, with
// no invite state held server-side.
func rpcCreateInvite(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	var request CreateInviteRequest
	if err := unmarshalPayload(payload, &request); err != nil {
		return "", err
	}

	store := NewNakamaPartyStoreAdapter(nk)
	party, _, err := loadPartyForCaller(ctx, store, request.PartyID, userID)
	if err != nil {
		return "", err
	}

	token, err := inviteServiceFromEnv(ctx, logger).CreateToken(party.ID, userID)
	if err != nil {
		logger.Error("CreateInvite [User:%s]: Failed to sign token: %v", userID, err)
		return "", runtime.NewError("internal error", codeInternal)
	}

	return marshalResponse(CreateInviteResponse{Token: token})
}
