package squares

import (
	"fmt"
	"math/rand"

	"sketchrelay/internal/rotation"
)

// Generator is the default balanced square provider. The squares it produces
// are Latin: every row and every column is a permutation of the first n
// letters, so within one season each participant takes exactly one turn in
// every game and holds each turn position exactly once across the party.
// Column 0 is always the identity, row r opening with letter 'A'+r: turn 0
// of game r belongs to participant r, who seeded that game.
type Generator struct{}

var _ rotation.SquareProvider = Generator{}

// Generate builds the n×n square for the given seed. Identical (n, seed)
// pairs always yield identical squares.
func (Generator) Generate(n int, seed int64) ([]string, error) {
	if n < rotation.MinBalancedParticipants || n > rotation.MaxBalancedParticipants {
		return nil, fmt.Errorf("participant count %d outside [%d, %d]",
			n, rotation.MinBalancedParticipants, rotation.MaxBalancedParticipants)
	}
	if seed < 0 {
		return nil, fmt.Errorf("seed %d must be non-negative", seed)
	}

	// Start from the cyclic square cell(r, c) = (r + c) mod n, then apply
	// seeded permutations of rows and columns. Each step preserves the
	// Latin property.
	rng := rand.New(rand.NewSource(seed))
	rowOrder := rng.Perm(n)
	colOrder := rng.Perm(n)

	// Relabel the alphabet so column 0 reads A, B, C, ... top to bottom.
	// Relabeling keeps the square Latin.
	letters := make([]int, n)
	for r := 0; r < n; r++ {
		letters[(rowOrder[r]+colOrder[0])%n] = r
	}

	rows := make([]string, n)
	cells := make([]byte, n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			cells[c] = byte('A' + letters[(rowOrder[r]+colOrder[c])%n])
		}
		rows[r] = string(cells)
	}
	return rows, nil
}
