package nakama

import (
	"bytes"
	"encoding/json"
	"testing"

	"sketchrelay/internal/app"
	"sketchrelay/internal/domain"
)

func TestMarshalLabel(t *testing.T) {
	tests := []struct {
		name     string
		party    *domain.Party
		max      int
		expected string
	}{
		{
			name: "OpenLobby",
			party: &domain.Party{
				ID:             "party-1",
				Phase:          domain.PhaseLobby,
				ParticipantIDs: []string{"p1", "p2"},
			},
			max:      8,
			expected: `{"game":"sketchrelay","open":true,"participants":2,"phase":"lobby"}`,
		},
		{
			name: "LockedLobby",
			party: &domain.Party{
				ID:             "party-1",
				Phase:          domain.PhaseLobby,
				ParticipantIDs: []string{"p1"},
				Locked:         true,
			},
			max:      8,
			expected: `{"game":"sketchrelay","open":false,"participants":1,"phase":"lobby"}`,
		},
		{
			name: "ActiveSeason",
			party: &domain.Party{
				ID:             "party-1",
				Phase:          domain.PhaseActive,
				ParticipantIDs: []string{"p1", "p2", "p3"},
			},
			max:      8,
			expected: `{"game":"sketchrelay","open":false,"participants":3,"phase":"active"}`,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			label, err := marshalLabel(test.party, test.max)
			if err != nil {
				t.Fatalf("marshalLabel() error = %v", err)
			}
			// protojson output spacing is not stable, compare compacted.
			var compact bytes.Buffer
			if err := json.Compact(&compact, []byte(label)); err != nil {
				t.Fatalf("Failed to compact label JSON: %v", err)
			}
			if compact.String() != test.expected {
				t.Errorf("Got %s, want %s", compact.String(), test.expected)
			}
		})
	}
}

func TestMarshalEnvelope(t *testing.T) {
	payload := app.TurnAssignedPayload{
		GameID:          "party-1#1:g2",
		ParticipantID:   "p3",
		OrderIndex:      1,
		Kind:            domain.TurnDrawing,
		PreviousContent: "a fox on a unicycle",
	}

	raw, err := marshalEnvelope(string(app.EventTurnAssigned), payload)
	if err != nil {
		t.Fatalf("marshalEnvelope() error = %v", err)
	}

	var decoded struct {
		Kind string `json:"kind"`
		Data struct {
			GameID          string  `json:"game_id"`
			ParticipantID   string  `json:"participant_id"`
			OrderIndex      float64 `json:"order_index"`
			Kind            string  `json:"kind"`
			PreviousContent string  `json:"previous_content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}

	if decoded.Kind != "turn_assigned" {
		t.Fatalf("kind = %q, want turn_assigned", decoded.Kind)
	}
	if decoded.Data.GameID != payload.GameID {
		t.Fatalf("data.game_id = %q, want %q", decoded.Data.GameID, payload.GameID)
	}
	if decoded.Data.ParticipantID != "p3" || decoded.Data.OrderIndex != 1 {
		t.Fatalf("data = %+v, want assignment for p3 at index 1", decoded.Data)
	}
	if decoded.Data.Kind != string(domain.TurnDrawing) {
		t.Fatalf("data.kind = %q, want drawing", decoded.Data.Kind)
	}
	if decoded.Data.PreviousContent != payload.PreviousContent {
		t.Fatalf("data.previous_content = %q, want the prompt", decoded.Data.PreviousContent)
	}
}

func TestToFieldsRejectsNonObjects(t *testing.T) {
	if _, err := toFields([]string{"not", "an", "object"}); err == nil {
		t.Fatalf("expected error for non-object payload")
	}
	fields, err := toFields(struct{}{})
	if err != nil {
		t.Fatalf("toFields(empty struct) error = %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("fields = %v, want empty", fields)
	}
}
