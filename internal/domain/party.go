package domain

import "time"

// Phase represents the lifecycle stage of a party.
type Phase string

const (
	// PhaseLobby is the assembly state where participants can still join.
	PhaseLobby Phase = "lobby"
	// PhaseActive is the state with a season of games in progress.
	PhaseActive Phase = "active"
	// PhaseFinished is the state after every game in the season completed.
	PhaseFinished Phase = "finished"
)

// Party is a cohort of participants playing a season of games together.
// ParticipantIDs is the canonical rotation order; GameIDs preserves season
// creation order. The rotation engine maps games to square rows by position
// in that listing, so neither order may be rebuilt ad hoc.
type Party struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	ParticipantIDs []string  `json:"participant_ids"`
	Phase          Phase     `json:"phase"`
	SeasonID       string    `json:"season_id,omitempty"`
	GameIDs        []string  `json:"game_ids,omitempty"`
	SeasonsPlayed  int       `json:"seasons_played"`
	Locked         bool      `json:"locked"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasParticipant reports whether userID belongs to the party.
func HasParticipant(p *Party, userID string) bool {
	for _, id := range p.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AddParticipant appends userID to the rotation order if absent and reports
// whether it was added.
func AddParticipant(p *Party, userID string) bool {
	if HasParticipant(p, userID) {
		return false
	}
	p.ParticipantIDs = append(p.ParticipantIDs, userID)
	return true
}

// RemoveParticipant deletes userID preserving the order of the remaining
// participants, and reports whether it was present.
func RemoveParticipant(p *Party, userID string) bool {
	for i, id := range p.ParticipantIDs {
		if id == userID {
			p.ParticipantIDs = append(p.ParticipantIDs[:i], p.ParticipantIDs[i+1:]...)
			return true
		}
	}
	return false
}
