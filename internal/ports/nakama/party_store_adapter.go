package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"sketchrelay/internal/domain"
	"sketchrelay/internal/ports"
)

const (
	partiesCollection    = "parties"
	partyGamesCollection = "party_games"
)

// NakamaPartyStoreAdapter implements ports.PartyStore on Nakama storage.
// Objects are system-owned and server-only; writes ride Nakama's version
// check, which is what keeps one pending turn from being completed twice.
type NakamaPartyStoreAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaPartyStoreAdapter creates a new party store adapter.
func NewNakamaPartyStoreAdapter(nk runtime.NakamaModule) *NakamaPartyStoreAdapter {
	return &NakamaPartyStoreAdapter{nk: nk}
}

// GetParty loads one party and the storage version guarding it.
func (a *NakamaPartyStoreAdapter) GetParty(ctx context.Context, partyID string) (*domain.Party, string, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: partiesCollection,
		Key:        partyID,
	}})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read party %s: %w", partyID, err)
	}
	if len(objects) == 0 {
		return nil, "", ports.ErrNotFound
	}

	var party domain.Party
	if err := json.Unmarshal([]byte(objects[0].Value), &party); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal party %s: %w", partyID, err)
	}
	return &party, objects[0].Version, nil
}

// PutParty writes a party guarded by version.
func (a *NakamaPartyStoreAdapter) PutParty(ctx context.Context, party *domain.Party, version string) (string, error) {
	return a.write(ctx, partiesCollection, party.ID, party, version)
}

// GetGame loads one game and the storage version guarding it.
func (a *NakamaPartyStoreAdapter) GetGame(ctx context.Context, gameID string) (*domain.Game, string, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: partyGamesCollection,
		Key:        gameID,
	}})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read game %s: %w", gameID, err)
	}
	if len(objects) == 0 {
		return nil, "", ports.ErrNotFound
	}

	var game domain.Game
	if err := json.Unmarshal([]byte(objects[0].Value), &game); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal game %s: %w", gameID, err)
	}
	return &game, objects[0].Version, nil
}

// PutGame writes a game guarded by version.
func (a *NakamaPartyStoreAdapter) PutGame(ctx context.Context, game *domain.Game, version string) (string, error) {
	return a.write(ctx, partyGamesCollection, game.ID, game, version)
}

// GetSeasonGames reads the party's games in Party.GameIDs order so rotation
// square rows stay aligned with the games regardless of how storage returns
// the batch.
func (a *NakamaPartyStoreAdapter) GetSeasonGames(ctx context.Context, party *domain.Party) ([]*domain.Game, map[string]string, error) {
	if len(party.GameIDs) == 0 {
		return nil, nil, nil
	}

	reads := make([]*runtime.StorageRead, 0, len(party.GameIDs))
	for _, gameID := range party.GameIDs {
		reads = append(reads, &runtime.StorageRead{
			Collection: partyGamesCollection,
			Key:        gameID,
		})
	}
	objects, err := a.nk.StorageRead(ctx, reads)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read games of party %s: %w", party.ID, err)
	}

	decoded := make(map[string]*domain.Game, len(objects))
	versions := make(map[string]string, len(objects))
	for _, object := range objects {
		var game domain.Game
		if err := json.Unmarshal([]byte(object.Value), &game); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal game %s: %w", object.Key, err)
		}
		decoded[object.Key] = &game
		versions[object.Key] = object.Version
	}

	games := make([]*domain.Game, 0, len(party.GameIDs))
	for _, gameID := range party.GameIDs {
		game, ok := decoded[gameID]
		if !ok {
			return nil, nil, fmt.Errorf("game %s of party %s: %w", gameID, party.ID, ports.ErrNotFound)
		}
		games = append(games, game)
	}
	return games, versions, nil
}

func (a *NakamaPartyStoreAdapter) write(ctx context.Context, collection, key string, value interface{}, version string) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s/%s: %w", collection, key, err)
	}

	acks, err := a.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      collection,
		Key:             key,
		Value:           string(raw),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return "", ports.ErrVersionConflict
		}
		return "", fmt.Errorf("failed to write %s/%s: %w", collection, key, err)
	}
	if len(acks) == 0 {
		return "", fmt.Errorf("write %s/%s returned no ack", collection, key)
	}
	return acks[0].Version, nil
}

var _ ports.PartyStore = (*NakamaPartyStoreAdapter)(nil)
