package app

import "sketchrelay/internal/domain"

// EventKind identifies emitted app events for Nakama dispatch.
type EventKind string

const (
	EventParticipantJoined EventKind = "participant_joined"
	EventParticipantLeft   EventKind = "participant_left"
	EventSeasonStarted     EventKind = "season_started"
	EventTurnAssigned      EventKind = "turn_assigned"
	EventTurnCompleted     EventKind = "turn_completed"
	EventTurnSkipped       EventKind = "turn_skipped"
	EventGameCompleted     EventKind = "game_completed"
	EventPartyFinished     EventKind = "party_finished"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type ParticipantJoinedPayload struct {
	UserID string `json:"user_id"`
	Owner  bool   `json:"owner"`
}

type ParticipantLeftPayload struct {
	UserID     string `json:"user_id"`
	NewOwnerID string `json:"new_owner_id,omitempty"`
}

type SeasonStartedPayload struct {
	PartyID  string   `json:"party_id"`
	SeasonID string   `json:"season_id"`
	GameIDs  []string `json:"game_ids"`
}

// TurnAssignedPayload is targeted at the assignee. PreviousContent carries
// the contribution the assignee responds to; nothing else from the chain is
// revealed before the game completes.
type TurnAssignedPayload struct {
	GameID          string          `json:"game_id"`
	ParticipantID   string          `json:"participant_id"`
	OrderIndex      int             `json:"order_index"`
	Kind            domain.TurnKind `json:"kind"`
	PreviousContent string          `json:"previous_content,omitempty"`
	Note            string          `json:"note,omitempty"`
}

type TurnCompletedPayload struct {
	GameID        string          `json:"game_id"`
	ParticipantID string          `json:"participant_id"`
	OrderIndex    int             `json:"order_index"`
	Kind          domain.TurnKind `json:"kind"`
}

type TurnSkippedPayload struct {
	GameID        string `json:"game_id"`
	ParticipantID string `json:"participant_id"`
	OrderIndex    int    `json:"order_index"`
}

type GameCompletedPayload struct {
	GameID       string   `json:"game_id"`
	Contributors []string `json:"contributors"`
	Note         string   `json:"note,omitempty"`
}

type PartyFinishedPayload struct {
	PartyID  string `json:"party_id"`
	SeasonID string `json:"season_id"`
}
