package rotation

import "fmt"

// PairCounts tallies how often one participant's turn directly followed
// another's, bucketed by the follower turn's kind.
type PairCounts struct {
	Writing int `json:"writing"`
	Drawing int `json:"drawing"`
}

// InteractionMatrix maps follower id, then followed id, to adjacency counts
// over a party's games. Used to audit the fairness of past rotations.
type InteractionMatrix map[string]map[string]PairCounts

// Total sums every cell across both kinds.
func (m InteractionMatrix) Total() int {
	sum := 0
	for _, row := range m {
		for _, counts := range row {
			sum += counts.Writing + counts.Drawing
		}
	}
	return sum
}

// BuildMatrix derives the interaction matrix for a party. Every ordered pair
// over participantIDs starts at zero; each game's completed turns are walked
// in order and each consecutive pair increments the follower/followed cell.
// Turns naming a participant outside the roster are skipped and reported in
// the returned warnings, since historical games may reference participants
// removed from the current roster view.
func BuildMatrix(games []GameTurnSummary, participantIDs []string) (InteractionMatrix, []string) {
	matrix := make(InteractionMatrix, len(participantIDs))
	known := make(map[string]bool, len(participantIDs))
	for _, id := range participantIDs {
		known[id] = true
		row := make(map[string]PairCounts, len(participantIDs))
		for _, other := range participantIDs {
			row[other] = PairCounts{}
		}
		matrix[id] = row
	}

	var warnings []string
	for _, game := range games {
		turns := game.CompletedTurns()
		for i := 1; i < len(turns); i++ {
			follower, followed := turns[i], turns[i-1]
			if !known[follower.ParticipantID] || !known[followed.ParticipantID] {
				warnings = append(warnings, fmt.Sprintf(
					"game %s: adjacency %s after %s references a participant outside the roster, skipped",
					game.GameID, follower.ParticipantID, followed.ParticipantID))
				continue
			}
			counts := matrix[follower.ParticipantID][followed.ParticipantID]
			if follower.Drawing {
				counts.Drawing++
			} else {
				counts.Writing++
			}
			matrix[follower.ParticipantID][followed.ParticipantID] = counts
		}
	}
	return matrix, warnings
}
