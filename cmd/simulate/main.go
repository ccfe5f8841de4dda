// Command simulate drives synthetic parties through the turn-rotation engine
// and prints per-run summaries. It validates the assignment policy before
// deployment and never runs inside the Nakama module.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"sketchrelay/internal/rotation"
	"sketchrelay/internal/rotation/squares"
	"sketchrelay/internal/sim"
)

func main() {
	var (
		participants = flag.Int("participants", 12, "party size; one game per participant")
		target       = flag.Int("target", 0, "games to complete before stopping (0 = all)")
		runs         = flag.Int("runs", 1, "number of simulated parties")
		seed         = flag.Int64("seed", 1, "seed of the first run; later runs increment it")
		season       = flag.String("season", "", "season id override (default derived from the seed)")
		maxSteps     = flag.Int("max-steps", 0, "step bound per run (0 = generous default)")
		showMatrix   = flag.Bool("matrix", false, "print each run's interaction matrix")
	)
	flag.Parse()

	var totalGames, totalTurns, totalAdjacencies, stalls int
	exitCode := 0

	for i := 0; i < *runs; i++ {
		cfg := sim.Config{
			Participants:         *participants,
			TargetCompletedGames: *target,
			Seed:                 *seed + int64(i),
			SeasonID:             *season,
			MaxSteps:             *maxSteps,
		}

		report, err := sim.Run(cfg, squares.Generator{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "run %d: %v\n", i+1, err)
			os.Exit(1)
		}

		fmt.Printf("run %d (seed %d) %s\n", i+1, cfg.Seed, report.Summary())
		for _, d := range report.Diagnostics {
			fmt.Printf("  diagnostic: %s\n", d)
		}
		for _, w := range report.MatrixWarnings {
			fmt.Printf("  matrix warning: %s\n", w)
		}
		if *showMatrix {
			printMatrix(report.Matrix)
		}

		totalGames += report.CompletedGames
		totalTurns += report.CompletedTurns
		totalAdjacencies += report.Matrix.Total()
		if report.Stalled {
			stalls++
		}
		if report.SafetyStop {
			exitCode = 1
		}
	}

	fmt.Printf("total: runs=%d completed-games=%d turns=%d adjacencies=%d stalls=%d\n",
		*runs, totalGames, totalTurns, totalAdjacencies, stalls)
	os.Exit(exitCode)
}

// printMatrix lists the non-zero adjacency cells in a stable order.
func printMatrix(m rotation.InteractionMatrix) {
	followers := make([]string, 0, len(m))
	for id := range m {
		followers = append(followers, id)
	}
	sort.Strings(followers)

	for _, follower := range followers {
		followed := make([]string, 0, len(m[follower]))
		for id := range m[follower] {
			followed = append(followed, id)
		}
		sort.Strings(followed)

		for _, other := range followed {
			counts := m[follower][other]
			if counts.Writing == 0 && counts.Drawing == 0 {
				continue
			}
			fmt.Printf("  %s after %s: writing=%d drawing=%d\n", follower, other, counts.Writing, counts.Drawing)
		}
	}
}
