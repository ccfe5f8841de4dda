package app

import "sketchrelay/internal/domain"

// TurnView is a participant-facing projection of one turn.
type TurnView struct {
	ParticipantID string            `json:"participant_id"`
	Kind          domain.TurnKind   `json:"kind"`
	OrderIndex    int               `json:"order_index"`
	Status        domain.TurnStatus `json:"status"`
	Content       string            `json:"content,omitempty"`
}

// GameView is one game as shown to a specific viewer.
type GameView struct {
	ID        string     `json:"id"`
	Completed bool       `json:"completed"`
	YourTurn  bool       `json:"your_turn"`
	Turns     []TurnView `json:"turns"`
}

// PartyView is the party state projection returned to clients.
type PartyView struct {
	ID             string       `json:"id"`
	Phase          domain.Phase `json:"phase"`
	SeasonID       string       `json:"season_id,omitempty"`
	OwnerID        string       `json:"owner_id"`
	ParticipantIDs []string     `json:"participant_ids"`
	Games          []GameView   `json:"games"`
}

// BuildPartyView projects party state for one viewer. Completed games reveal
// every contribution; in active games contributions stay hidden, except that
// the viewer holding a game's pending turn sees the contribution directly
// before it. That single reveal is what the pending participant works from.
func BuildPartyView(party *domain.Party, games []*domain.Game, viewerID string) PartyView {
	view := PartyView{
		ID:             party.ID,
		Phase:          party.Phase,
		SeasonID:       party.SeasonID,
		OwnerID:        party.OwnerID,
		ParticipantIDs: append([]string(nil), party.ParticipantIDs...),
		Games:          make([]GameView, 0, len(games)),
	}

	for _, game := range games {
		gv := GameView{ID: game.ID, Completed: game.Completed, Turns: make([]TurnView, 0, len(game.Turns))}

		revealIndex := -1
		if pending := domain.PendingTurn(game); pending != nil && pending.ParticipantID == viewerID {
			gv.YourTurn = true
			revealIndex = pending.OrderIndex - 1
		}

		for i := range game.Turns {
			t := &game.Turns[i]
			tv := TurnView{
				ParticipantID: t.ParticipantID,
				Kind:          t.Kind,
				OrderIndex:    t.OrderIndex,
				Status:        t.Status,
			}
			if game.Completed || t.OrderIndex == revealIndex {
				tv.Content = t.Content
			}
			gv.Turns = append(gv.Turns, tv)
		}
		view.Games = append(view.Games, gv)
	}

	return view
}
