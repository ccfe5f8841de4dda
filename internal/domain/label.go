package domain

// GameName identifies this module in match listing queries.
const GameName = "sketchrelay"

// LabelPayload holds the values advertised through the lobby's match label.
type LabelPayload struct {
	Open         bool   `json:"open"`
	Game         string `json:"game"`
	Phase        string `json:"phase"`
	Participants int    `json:"participants"`
}

// ComputeLabel derives the advertised label from party state. Locked lobbies
// never advertise as open; they are joined through invites instead.
func ComputeLabel(p *Party, maxParticipants int) LabelPayload {
	open := p.Phase == PhaseLobby && !p.Locked && len(p.ParticipantIDs) < maxParticipants
	return LabelPayload{
		Open:         open,
		Game:         GameName,
		Phase:        string(p.Phase),
		Participants: len(p.ParticipantIDs),
	}
}
