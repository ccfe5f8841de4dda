package ports

import (
	"context"
	"errors"

	"sketchrelay/internal/domain"
)

var (
	// ErrNotFound reports a party or game missing from storage.
	ErrNotFound = errors.New("object not found")
	// ErrVersionConflict reports an optimistic write that lost to a
	// concurrent update. Callers decide whether to reload and retry.
	ErrVersionConflict = errors.New("object version conflict")
)

// PartyStore persists parties and their games. Writes carry the version read
// earlier and only apply if the stored object is unchanged, so "only
// transition a turn if it is still pending" holds without locks. Version "*"
// writes only when the object does not exist yet; an empty version writes
// unconditionally.
type PartyStore interface {
	// GetParty loads a party and its current storage version.
	GetParty(ctx context.Context, partyID string) (*domain.Party, string, error)

	// PutParty writes a party guarded by version and returns the new version.
	PutParty(ctx context.Context, party *domain.Party, version string) (string, error)

	// GetGame loads one game and its current storage version.
	GetGame(ctx context.Context, gameID string) (*domain.Game, string, error)

	// PutGame writes a game guarded by version and returns the new version.
	PutGame(ctx context.Context, game *domain.Game, version string) (string, error)

	// GetSeasonGames loads every game of the party's season, ordered by
	// Party.GameIDs so rotation square rows stay aligned, along with each
	// game's storage version keyed by game id.
	GetSeasonGames(ctx context.Context, party *domain.Party) ([]*domain.Game, map[string]string, error)
}
