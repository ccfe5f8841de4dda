package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/config"
	"sketchrelay/internal/domain"
)

// FindPartyResponse is the payload returned to clients looking for an open lobby.
type FindPartyResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// rpcFindParty finds an open assembly lobby or creates a fresh one. Locked
// lobbies never advertise as open and are reached through invite links
// instead.
func rpcFindParty(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	if _, err := callerID(ctx); err != nil {
		return "", err
	}

	// Find any lobby for our game that is still open to joiners.
	query := "+label.open:T +label.game:" + domain.GameName + " +label.phase:lobby"

	limit := 10
	authoritative := true
	minSize := 1
	maxSize := config.MaxParticipants() - 1 // leave a spot for the caller

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("FindParty: MatchList error: %v", err)
		return "", toRuntimeError(err)
	}

	if len(matches) > 0 {
		return marshalResponse(FindPartyResponse{MatchID: matches[0].MatchId, IsNew: false})
	}

	// Create a new lobby; rotation order and ownership are assigned in
	// MatchJoin (server-authoritative).
	matchID, err := nk.MatchCreate(ctx, MatchNameLobby, map[string]interface{}{})
	if err != nil {
		logger.Error("FindParty: MatchCreate error: %v", err)
		return "", toRuntimeError(err)
	}

	return marshalResponse(FindPartyResponse{MatchID: matchID, IsNew: true})
}
