package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/config"
)

// InitModule wires RPCs, the lobby match handler and auth hooks for Nakama
// runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	// Loading here covers RPC-only paths; lobby creation loads it again
	// behind the same once guard.
	if err := config.LoadPartyConfig(partyConfigPath); err != nil {
		logger.Warn("InitModule: Could not load party config: %v", err)
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameLobby, NewLobby); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	logger.Info("sketchrelay Go module loaded.")
	return nil
}
