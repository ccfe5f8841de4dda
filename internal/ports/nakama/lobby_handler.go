package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sketchrelay/internal/app"
	"sketchrelay/internal/config"
	"sketchrelay/internal/domain"
	"sketchrelay/internal/ports"
	"sketchrelay/internal/rotation/squares"

	"github.com/heroiclabs/nakama-common/runtime"
)

// LobbyState holds the authoritative runtime state for the party assembly
// lobby. The lobby collects participants and their opening prompts; once the
// season starts, play continues asynchronously over RPCs and notifications
// and the match ends.
type LobbyState struct {
	Party   *domain.Party     `json:"party"`
	Prompts map[string]string `json:"prompts"` // participant id -> opening prompt, revealed only through completed games

	Presences    map[string]runtime.Presence `json:"-"` // map user id -> presence for targeted messaging
	App          *app.Service                `json:"-"`
	Invites      *app.InviteService          `json:"-"`
	Store        ports.PartyStore            `json:"-"`
	Dispatch     *eventDispatcher            `json:"-"`
	PartyVersion string                      `json:"-"`
}

// promptsSubmitted lists the participants who already submitted their opening
// prompt, in rotation order.
func (ls *LobbyState) promptsSubmitted() []string {
	submitted := make([]string, 0, len(ls.Prompts))
	for _, participantID := range ls.Party.ParticipantIDs {
		if _, ok := ls.Prompts[participantID]; ok {
			submitted = append(submitted, participantID)
		}
	}
	return submitted
}

// missingPrompts lists the participants still owing their opening prompt.
func (ls *LobbyState) missingPrompts() []string {
	var missing []string
	for _, participantID := range ls.Party.ParticipantIDs {
		if _, ok := ls.Prompts[participantID]; !ok {
			missing = append(missing, participantID)
		}
	}
	return missing
}

// NewLobby is the factory function registered with Nakama.
func NewLobby(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &lobbyHandler{}, nil
}

type lobbyHandler struct{}

// MatchInit is called when the lobby match is created. The match id doubles
// as the party id so clients address the party they found or created.
func (lh *lobbyHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing lobby handler.")

	if err := config.LoadPartyConfig(partyConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load party config: %v", err)
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	party := &domain.Party{
		ID:        matchID,
		Phase:     domain.PhaseLobby,
		Locked:    config.LobbyLockedDefault(),
		CreatedAt: time.Now().UTC(),
	}
	if locked, ok := params["locked"].(bool); ok {
		party.Locked = locked
	}

	state := &LobbyState{
		Party:     party,
		Prompts:   make(map[string]string),
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(squares.Generator{}),
		Invites:   inviteServiceFromEnv(ctx, logger),
		Store:     NewNakamaPartyStoreAdapter(nk),
		Dispatch:  newEventDispatcher(nk),
	}

	label, err := marshalLabel(party, config.MaxParticipants())
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1 // lobby traffic is sparse, one tick per second is plenty
	return state, tickRate, label
}

// MatchJoinAttempt gates entry: no joins after the season started, none past
// the participant cap, and locked lobbies require a valid invite token in the
// join metadata. Returning participants always get back in.
func (lh *lobbyHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	lobby, ok := state.(*LobbyState)
	if !ok {
		return state, false, "state not found"
	}

	if domain.HasParticipant(lobby.Party, presence.GetUserId()) {
		return state, true, ""
	}
	if lobby.Party.Phase != domain.PhaseLobby {
		return state, false, "party already started"
	}
	if len(lobby.Party.ParticipantIDs) >= config.MaxParticipants() {
		return state, false, "party is full"
	}
	if lobby.Party.Locked {
		claims, err := lobby.Invites.ParseToken(metadata["invite_token"])
		if err != nil {
			logger.Debug("MatchJoinAttempt: Rejected invite from %s: %v", presence.GetUserId(), err)
			return state, false, "invite required"
		}
		if claims.PartyID != lobby.Party.ID {
			return state, false, "invite is for another party"
		}
	}

	return state, true, ""
}

// MatchJoin admits presences. Join order fixes the canonical rotation order
// and the first participant owns the lobby.
func (lh *lobbyHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	lobby, ok := state.(*LobbyState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	changed := false
	for _, p := range presences {
		lobby.Presences[p.GetUserId()] = p

		if !domain.AddParticipant(lobby.Party, p.GetUserId()) {
			continue // reconnect, rotation spot already fixed
		}
		changed = true
		if lobby.Party.OwnerID == "" {
			lobby.Party.OwnerID = p.GetUserId()
			logger.Debug("MatchJoin: Owner set to %s.", p.GetUserId())
		}

		lh.broadcastEvent(lobby, dispatcher, logger, app.Event{
			Kind: app.EventParticipantJoined,
			Payload: app.ParticipantJoinedPayload{
				UserID: p.GetUserId(),
				Owner:  lobby.Party.OwnerID == p.GetUserId(),
			},
		})
	}

	if changed {
		lh.persistParty(ctx, lobby, logger)
		lh.updateLabel(lobby, dispatcher, logger)
	}
	lh.broadcastLobbyState(lobby, dispatcher, logger)

	return lobby
}

// MatchLeave is called when one or more participants leave. During assembly a
// departure frees the spot and may hand ownership to the next participant in
// order; after the season started the roster is fixed and only the presence
// drops.
func (lh *lobbyHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	lobby, ok := state.(*LobbyState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	changed := false
	for _, p := range presences {
		delete(lobby.Presences, p.GetUserId())

		if lobby.Party.Phase != domain.PhaseLobby {
			continue
		}
		if !domain.RemoveParticipant(lobby.Party, p.GetUserId()) {
			continue
		}
		delete(lobby.Prompts, p.GetUserId())
		changed = true

		newOwnerID := ""
		if lobby.Party.OwnerID == p.GetUserId() {
			if len(lobby.Party.ParticipantIDs) > 0 {
				newOwnerID = lobby.Party.ParticipantIDs[0]
			}
			lobby.Party.OwnerID = newOwnerID
			logger.Debug("MatchLeave: Owner left, owner set to %q.", newOwnerID)
		}

		lh.broadcastEvent(lobby, dispatcher, logger, app.Event{
			Kind:    app.EventParticipantLeft,
			Payload: app.ParticipantLeftPayload{UserID: p.GetUserId(), NewOwnerID: newOwnerID},
		})
	}

	if lobby.Party.Phase == domain.PhaseLobby && len(lobby.Party.ParticipantIDs) == 0 {
		logger.Info("MatchLeave: Terminating empty lobby %s.", lobby.Party.ID)
		return nil
	}

	if changed {
		lh.persistParty(ctx, lobby, logger)
		lh.updateLabel(lobby, dispatcher, logger)
		lh.broadcastLobbyState(lobby, dispatcher, logger)
	}

	return lobby
}

func (lh *lobbyHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	lobby, ok := state.(*LobbyState)
	if !ok {
		return state
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpSubmitPrompt:
			lh.handleSubmitPrompt(lobby, dispatcher, logger, msg)
		case OpSetLocked:
			lh.handleSetLocked(ctx, lobby, dispatcher, logger, msg)
		case OpStartSeason:
			if lh.handleStartSeason(ctx, lobby, dispatcher, logger, msg) {
				// Season underway: play continues over RPCs and
				// notifications, the assembly lobby is done.
				return nil
			}
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	return lobby
}

// handleSubmitPrompt records a participant's opening prompt. Payload:
// {"prompt": "..."}. Resubmitting replaces the previous prompt until the
// season starts.
func (lh *lobbyHandler) handleSubmitPrompt(lobby *LobbyState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !domain.HasParticipant(lobby.Party, senderID) {
		lh.sendError(lobby, dispatcher, logger, senderID, 403, "not a participant")
		return
	}

	var request struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("SubmitPrompt: Invalid payload from %s: %v", senderID, err)
		lh.sendError(lobby, dispatcher, logger, senderID, 400, "invalid prompt payload")
		return
	}
	if strings.TrimSpace(request.Prompt) == "" {
		lh.sendError(lobby, dispatcher, logger, senderID, 400, "prompt is empty")
		return
	}

	lobby.Prompts[senderID] = request.Prompt
	lh.broadcastLobbyState(lobby, dispatcher, logger)
}

// handleSetLocked lets the owner toggle invite-only mode. Payload:
// {"locked": bool}.
func (lh *lobbyHandler) handleSetLocked(ctx context.Context, lobby *LobbyState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if senderID != lobby.Party.OwnerID {
		lh.sendError(lobby, dispatcher, logger, senderID, 403, "only the owner can lock the lobby")
		return
	}

	var request struct {
		Locked bool `json:"locked"`
	}
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("SetLocked: Invalid payload from %s: %v", senderID, err)
		lh.sendError(lobby, dispatcher, logger, senderID, 400, "invalid lock payload")
		return
	}

	lobby.Party.Locked = request.Locked
	lh.persistParty(ctx, lobby, logger)
	lh.updateLabel(lobby, dispatcher, logger)
	lh.broadcastLobbyState(lobby, dispatcher, logger)
}

// handleStartSeason flips the lobby into an active season and reports whether
// the lobby match should end.
func (lh *lobbyHandler) handleStartSeason(ctx context.Context, lobby *LobbyState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) bool {
	senderID := msg.GetUserId()
	party := lobby.Party

	logger.Info("StartSeason: Request received from %s (owner=%s, participants=%d)", senderID, party.OwnerID, len(party.ParticipantIDs))

	if senderID != party.OwnerID {
		logger.Warn("StartSeason: User %s tried to start the season but is not owner", senderID)
		lh.sendError(lobby, dispatcher, logger, senderID, 403, "only the owner can start the season")
		return false
	}
	if len(party.ParticipantIDs) < config.MinParticipants() {
		lh.sendError(lobby, dispatcher, logger, senderID, 400, fmt.Sprintf("need at least %d participants", config.MinParticipants()))
		return false
	}
	if missing := lobby.missingPrompts(); len(missing) > 0 {
		lh.sendError(lobby, dispatcher, logger, senderID, 400, fmt.Sprintf("waiting for prompts from %d participants", len(missing)))
		return false
	}

	// StartSeason mutates the party before persistence is known to succeed,
	// so keep a copy for rollback.
	snapshot := *party
	snapshot.ParticipantIDs = append([]string(nil), party.ParticipantIDs...)
	snapshot.GameIDs = append([]string(nil), party.GameIDs...)

	seasonNumber := party.SeasonsPlayed + 1
	gameIDs := make([]string, len(party.ParticipantIDs))
	prompts := make([]string, len(party.ParticipantIDs))
	for i, participantID := range party.ParticipantIDs {
		gameIDs[i] = fmt.Sprintf("%s#%d:g%d", party.ID, seasonNumber, i)
		prompts[i] = lobby.Prompts[participantID]
	}

	games, events, err := lobby.App.StartSeason(party, gameIDs, prompts)
	if err != nil {
		logger.Error("StartSeason: Failed to start season: %v", err)
		lh.sendError(lobby, dispatcher, logger, senderID, 400, err.Error())
		return false
	}

	if err := lh.persistSeason(ctx, lobby, games); err != nil {
		logger.Error("StartSeason: Failed to persist season: %v", err)
		*party = snapshot
		lh.sendError(lobby, dispatcher, logger, senderID, 500, "could not persist the season, try again")
		return false
	}

	lh.updateLabel(lobby, dispatcher, logger)
	for _, ev := range events {
		lh.broadcastEvent(lobby, dispatcher, logger, ev)
	}
	lobby.Dispatch.deliver(ctx, logger, party, events)

	logger.Info("StartSeason: Season %s started with %d games.", party.SeasonID, len(games))
	return true
}

// persistSeason writes the new games first and the party last; the party
// write is the commit point. A failed attempt leaves at most orphan game
// objects that the retry overwrites, since game ids are derived from the
// season number.
func (lh *lobbyHandler) persistSeason(ctx context.Context, lobby *LobbyState, games []*domain.Game) error {
	for _, game := range games {
		if _, err := lobby.Store.PutGame(ctx, game, ""); err != nil {
			return fmt.Errorf("put game %s: %w", game.ID, err)
		}
	}

	version, err := lobby.Store.PutParty(ctx, lobby.Party, lobby.PartyVersion)
	if err != nil {
		return fmt.Errorf("put party: %w", err)
	}
	lobby.PartyVersion = version
	return nil
}

// persistParty mirrors lobby roster changes into storage so RPCs resolve the
// party while the lobby is still assembling. The lobby is the only writer in
// this phase.
func (lh *lobbyHandler) persistParty(ctx context.Context, lobby *LobbyState, logger runtime.Logger) {
	version, err := lobby.Store.PutParty(ctx, lobby.Party, lobby.PartyVersion)
	if err != nil {
		logger.Error("persistParty: Failed to write party %s: %v", lobby.Party.ID, err)
		return
	}
	lobby.PartyVersion = version
}

// LobbyStatePayload is the roster snapshot broadcast to all connected
// participants whenever it changes.
type LobbyStatePayload struct {
	PartyID          string   `json:"party_id"`
	OwnerID          string   `json:"owner_id"`
	ParticipantIDs   []string `json:"participant_ids"`
	Locked           bool     `json:"locked"`
	Phase            string   `json:"phase"`
	PromptsSubmitted []string `json:"prompts_submitted"`
}

func (lh *lobbyHandler) broadcastLobbyState(lobby *LobbyState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	payload := LobbyStatePayload{
		PartyID:          lobby.Party.ID,
		OwnerID:          lobby.Party.OwnerID,
		ParticipantIDs:   lobby.Party.ParticipantIDs,
		Locked:           lobby.Party.Locked,
		Phase:            string(lobby.Party.Phase),
		PromptsSubmitted: lobby.promptsSubmitted(),
	}
	bytes, err := marshalEnvelope("lobby_state", payload)
	if err != nil {
		logger.Error("broadcastLobbyState: Failed to marshal: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpLobbyState, bytes, nil, nil, true)
}

// broadcastEvent sends lobby-facing app events as opcode messages. Events
// without a lobby opcode travel as notifications through the event
// dispatcher instead.
func (lh *lobbyHandler) broadcastEvent(lobby *LobbyState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := lobbyOpCode(ev.Kind)
	if !ok {
		return
	}

	bytes, err := marshalEnvelope(string(ev.Kind), ev.Payload)
	if err != nil {
		logger.Error("broadcastEvent: Failed to marshal %s: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast).
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, userID := range ev.Recipients {
			if p, ok := lobby.Presences[userID]; ok {
				recipients = append(recipients, p)
			}
		}
		// Targeted events with no connected recipient must not fall back to
		// a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

func lobbyOpCode(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventParticipantJoined:
		return OpParticipantJoined, true
	case app.EventParticipantLeft:
		return OpParticipantLeft, true
	case app.EventSeasonStarted:
		return OpSeasonStarted, true
	default:
		return 0, false
	}
}

type lobbyErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError sends a lobby error envelope to a specific user.
func (lh *lobbyHandler) sendError(lobby *LobbyState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := marshalEnvelope("lobby_error", lobbyErrorPayload{Code: code, Message: message})
	if err != nil {
		logger.Error("sendError: Failed to marshal: %v", err)
		return
	}

	presence, ok := lobby.Presences[userID]
	if !ok {
		logger.Warn("sendError: Cannot send to %s: presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpLobbyError, bytes, []runtime.Presence{presence}, nil, true)
}

func (lh *lobbyHandler) updateLabel(lobby *LobbyState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := marshalLabel(lobby.Party, config.MaxParticipants())
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (lh *lobbyHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Lobby terminated for reason %d", reason)
	return state
}

func (lh *lobbyHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
