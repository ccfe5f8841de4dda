package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"sketchrelay/internal/app"
	"sketchrelay/internal/domain"
	"sketchrelay/internal/ports"
	"sketchrelay/internal/rotation/squares"
)

// memStore is an in-memory PartyStore enforcing the production adapter's
// optimistic concurrency rules: version "" writes unconditionally, "*" only
// creates, anything else must match the stored version exactly.
type memStore struct {
	mu      sync.Mutex
	parties map[string]*storedObject
	games   map[string]*storedObject
}

type storedObject struct {
	data    []byte
	version int
}

var _ ports.PartyStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		parties: make(map[string]*storedObject),
		games:   make(map[string]*storedObject),
	}
}

func (s *memStore) GetParty(_ context.Context, partyID string) (*domain.Party, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.parties[partyID]
	if !ok {
		return nil, "", fmt.Errorf("party %s: %w", partyID, ports.ErrNotFound)
	}
	var party domain.Party
	if err := json.Unmarshal(obj.data, &party); err != nil {
		return nil, "", err
	}
	return &party, strconv.Itoa(obj.version), nil
}

func (s *memStore) PutParty(_ context.Context, party *domain.Party, version string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeObject(s.parties, party.ID, party, version)
}

func (s *memStore) GetGame(_ context.Context, gameID string) (*domain.Game, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readGame(s.games, gameID)
}

func (s *memStore) PutGame(_ context.Context, game *domain.Game, version string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeObject(s.games, game.ID, game, version)
}

func (s *memStore) GetSeasonGames(_ context.Context, party *domain.Party) ([]*domain.Game, map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	games := make([]*domain.Game, 0, len(party.GameIDs))
	versions := make(map[string]string, len(party.GameIDs))
	for _, id := range party.GameIDs {
		game, version, err := readGame(s.games, id)
		if err != nil {
			return nil, nil, err
		}
		games = append(games, game)
		versions[id] = version
	}
	return games, versions, nil
}

func readGame(games map[string]*storedObject, gameID string) (*domain.Game, string, error) {
	obj, ok := games[gameID]
	if !ok {
		return nil, "", fmt.Errorf("game %s: %w", gameID, ports.ErrNotFound)
	}
	var game domain.Game
	if err := json.Unmarshal(obj.data, &game); err != nil {
		return nil, "", err
	}
	return &game, strconv.Itoa(obj.version), nil
}

func writeObject(objects map[string]*storedObject, id string, value interface{}, version string) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	current, exists := objects[id]
	switch version {
	case "":
	case "*":
		if exists {
			return "", fmt.Errorf("%s already exists: %w", id, ports.ErrVersionConflict)
		}
	default:
		if !exists || strconv.Itoa(current.version) != version {
			return "", fmt.Errorf("%s: %w", id, ports.ErrVersionConflict)
		}
	}

	next := 1
	if exists {
		next = current.version + 1
	}
	objects[id] = &storedObject{data: data, version: next}
	return strconv.Itoa(next), nil
}

// seasonFlow drives a party through storage the way the server does: every
// action reloads state, applies a use-case and writes back under the versions
// it read.
type seasonFlow struct {
	t       *testing.T
	ctx     context.Context
	svc     *app.Service
	store   ports.PartyStore
	partyID string
}

// startParty persists a fresh lobby party of n participants u1..un and starts
// its season the way the lobby does: games written first, the party flipped
// last under its read version.
func startParty(t *testing.T, store ports.PartyStore, partyID string, n int) *seasonFlow {
	t.Helper()
	ctx := context.Background()

	party := &domain.Party{ID: partyID, OwnerID: "u1", Phase: domain.PhaseLobby}
	for i := 1; i <= n; i++ {
		domain.AddParticipant(party, fmt.Sprintf("u%d", i))
	}
	if _, err := store.PutParty(ctx, party, "*"); err != nil {
		t.Fatalf("create party: %v", err)
	}

	party, version, err := store.GetParty(ctx, partyID)
	if err != nil {
		t.Fatalf("reload party: %v", err)
	}

	seasonNumber := party.SeasonsPlayed + 1
	gameIDs := make([]string, n)
	prompts := make([]string, n)
	for i := 0; i < n; i++ {
		gameIDs[i] = fmt.Sprintf("%s#%d:g%d", partyID, seasonNumber, i)
		prompts[i] = fmt.Sprintf("prompt for game %d", i)
	}

	svc := app.NewService(squares.Generator{})
	games, _, err := svc.StartSeason(party, gameIDs, prompts)
	if err != nil {
		t.Fatalf("StartSeason() error = %v", err)
	}

	for _, game := range games {
		if _, err := store.PutGame(ctx, game, ""); err != nil {
			t.Fatalf("persist game %s: %v", game.ID, err)
		}
	}
	if _, err := store.PutParty(ctx, party, version); err != nil {
		t.Fatalf("persist started party: %v", err)
	}

	return &seasonFlow{t: t, ctx: ctx, svc: svc, store: store, partyID: partyID}
}

func (f *seasonFlow) party() *domain.Party {
	f.t.Helper()
	party, _, err := f.store.GetParty(f.ctx, f.partyID)
	if err != nil {
		f.t.Fatalf("GetParty() error = %v", err)
	}
	return party
}

func (f *seasonFlow) games() []*domain.Game {
	f.t.Helper()
	games, _, err := f.store.GetSeasonGames(f.ctx, f.party())
	if err != nil {
		f.t.Fatalf("GetSeasonGames() error = %v", err)
	}
	return games
}

// completePending reloads state, submits the pending turn of gameID as its
// assignee, then persists the game and, on a phase change, the party.
func (f *seasonFlow) completePending(gameID string) []app.Event {
	f.t.Helper()

	party, partyVersion, err := f.store.GetParty(f.ctx, f.partyID)
	if err != nil {
		f.t.Fatalf("GetParty() error = %v", err)
	}
	games, versions, err := f.store.GetSeasonGames(f.ctx, party)
	if err != nil {
		f.t.Fatalf("GetSeasonGames() error = %v", err)
	}

	var game *domain.Game
	for _, g := range games {
		if g.ID == gameID {
			game = g
		}
	}
	if game == nil {
		f.t.Fatalf("game %s not part of the season", gameID)
	}
	pending := domain.PendingTurn(game)
	if pending == nil {
		f.t.Fatalf("game %s has no pending turn", gameID)
	}

	phaseBefore := party.Phase
	events, err := f.svc.CompleteTurn(party, games, gameID, pending.ParticipantID,
		fmt.Sprintf("contribution %d of %s", pending.OrderIndex, gameID))
	if err != nil {
		f.t.Fatalf("CompleteTurn(%s) error = %v", gameID, err)
	}

	if _, err := f.store.PutGame(f.ctx, game, versions[gameID]); err != nil {
		f.t.Fatalf("PutGame(%s) error = %v", gameID, err)
	}
	if party.Phase != phaseBefore {
		if _, err := f.store.PutParty(f.ctx, party, partyVersion); err != nil {
			f.t.Fatalf("PutParty() error = %v", err)
		}
	}
	return events
}

// firstOpenGame returns the id of the first game, in season order, that still
// has a pending turn, or "" when none does.
func (f *seasonFlow) firstOpenGame() string {
	for _, game := range f.games() {
		if !game.Completed && domain.PendingTurn(game) != nil {
			return game.ID
		}
	}
	return ""
}
