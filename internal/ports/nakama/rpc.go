package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/app"
	"sketchrelay/internal/domain"
	"sketchrelay/internal/ports"
	"sketchrelay/internal/rotation"
)

// gRPC status codes used with runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codePermissionDenied   = 7
	codeFailedPrecondition = 9
	codeAborted            = 10
	codeInternal           = 13
	codeUnauthenticated    = 16
)

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcFindParty:         rpcFindParty,
		RpcSubmitTurn:        rpcSubmitTurn,
		RpcSkipTurn:          rpcSkipTurn,
		RpcPartyState:        rpcPartyState,
		RpcInteractionMatrix: rpcInteractionMatrix,
		RpcCreateInvite:      rpcCreateInvite,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

// callerID extracts the authenticated user from the RPC context.
func callerID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}
	return userID, nil
}

// unmarshalPayload decodes an RPC request payload.
func unmarshalPayload(payload string, v interface{}) error {
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return runtime.NewError("invalid payload", codeInvalidArgument)
	}
	return nil
}

// marshalResponse encodes an RPC response payload.
func marshalResponse(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError("internal error", codeInternal)
	}
	return string(raw), nil
}

// loadPartyForCaller resolves the party and checks that the caller belongs to
// it, the shape every party-scoped RPC starts with.
func loadPartyForCaller(ctx context.Context, store ports.PartyStore, partyID, userID string) (*domain.Party, string, error) {
	if partyID == "" {
		return nil, "", runtime.NewError("party_id is required", codeInvalidArgument)
	}
	party, version, err := store.GetParty(ctx, partyID)
	if err != nil {
		return nil, "", toRuntimeError(err)
	}
	if !domain.HasParticipant(party, userID) {
		return nil, "", runtime.NewError("not a participant of this party", codePermissionDenied)
	}
	return party, version, nil
}

// seasonGame finds one of the season's loaded games by id.
func seasonGame(games []*domain.Game, gameID string) *domain.Game {
	for _, g := range games {
		if g.ID == gameID {
			return g
		}
	}
	return nil
}

// toRuntimeError maps domain and port errors onto RPC errors so clients can
// tell retryable conflicts from contract violations.
func toRuntimeError(err error) error {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return runtime.NewError("not found", codeNotFound)
	case errors.Is(err, ports.ErrVersionConflict):
		return runtime.NewError("state changed underneath you, retry", codeAborted)
	case errors.Is(err, app.ErrNotYourTurn):
		return runtime.NewError(err.Error(), codePermissionDenied)
	case errors.Is(err, app.ErrUnknownGame):
		return runtime.NewError(err.Error(), codeNotFound)
	case errors.Is(err, app.ErrEmptyContent):
		return runtime.NewError(err.Error(), codeInvalidArgument)
	case errors.Is(err, app.ErrPartyNotActive),
		errors.Is(err, app.ErrWrongPhase),
		errors.Is(err, app.ErrGameCompleted),
		errors.Is(err, app.ErrNoPendingTurn):
		return runtime.NewError(err.Error(), codeFailedPrecondition)
	case errors.Is(err, rotation.ErrUnknownCompleter), errors.Is(err, rotation.ErrSeasonRequired):
		// Engine contract violations point at corrupted bookkeeping, not at
		// anything the client can fix.
		return runtime.NewError(err.Error(), codeInternal)
	default:
		return runtime.NewError("internal error", codeInternal)
	}
}
