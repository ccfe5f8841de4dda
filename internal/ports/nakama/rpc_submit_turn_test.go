package nakama

import (
	"testing"

	"sketchrelay/internal/app"
	"sketchrelay/internal/domain"
)

func TestSubmitTurnResponse(t *testing.T) {
	tests := []struct {
		name   string
		events []app.Event
		want   SubmitTurnResponse
	}{
		{
			name: "NextAssignment",
			events: []app.Event{
				{Kind: app.EventTurnCompleted, Payload: app.TurnCompletedPayload{GameID: "g1"}},
				{Kind: app.EventTurnAssigned, Payload: app.TurnAssignedPayload{
					GameID:        "g1",
					ParticipantID: "p2",
					OrderIndex:    3,
					Kind:          domain.TurnWriting,
				}},
			},
			want: SubmitTurnResponse{
				Status:            "next",
				GameID:            "g1",
				NextParticipantID: "p2",
				NextOrderIndex:    3,
				NextKind:          string(domain.TurnWriting),
			},
		},
		{
			name: "GameComplete",
			events: []app.Event{
				{Kind: app.EventTurnCompleted, Payload: app.TurnCompletedPayload{GameID: "g1"}},
				{Kind: app.EventGameCompleted, Payload: app.GameCompletedPayload{GameID: "g1"}},
			},
			want: SubmitTurnResponse{Status: "game_complete", GameID: "g1"},
		},
		{
			name: "PartyFinished",
			events: []app.Event{
				{Kind: app.EventTurnCompleted, Payload: app.TurnCompletedPayload{GameID: "g1"}},
				{Kind: app.EventGameCompleted, Payload: app.GameCompletedPayload{GameID: "g1"}},
				{Kind: app.EventPartyFinished, Payload: app.PartyFinishedPayload{PartyID: "party-1"}},
			},
			want: SubmitTurnResponse{Status: "party_finished", GameID: "g1"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if got := submitTurnResponse("g1", test.events); got != test.want {
				t.Fatalf("submitTurnResponse() = %+v, want %+v", got, test.want)
			}
		})
	}
}
