package domain

import "sketchrelay/internal/rotation"

// RotationSummary projects one game into the rotation engine's read-only
// view. Only completed turns carry a completion timestamp, which is how the
// engine distinguishes them from pending ones.
func RotationSummary(g *Game) rotation.GameTurnSummary {
	turns := make([]rotation.TurnSummary, 0, len(g.Turns))
	for i := range g.Turns {
		t := &g.Turns[i]
		s := rotation.TurnSummary{
			ParticipantID: t.ParticipantID,
			Drawing:       t.Kind == TurnDrawing,
			OrderIndex:    t.OrderIndex,
		}
		if t.Status == TurnCompleted {
			s.CompletedAt = t.CompletedAt
		}
		turns = append(turns, s)
	}
	return rotation.GameTurnSummary{GameID: g.ID, Turns: turns}
}

// RotationSummaries projects every game, preserving listing order so the
// engine's square rows stay aligned with the party's games.
func RotationSummaries(games []*Game) []rotation.GameTurnSummary {
	out := make([]rotation.GameTurnSummary, 0, len(games))
	for _, g := range games {
		out = append(out, RotationSummary(g))
	}
	return out
}
