package cli

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/model"
)

// strengthDecay spaces the ground-truth strengths of simulated bots so
// the fitted order is recoverable from a modest number of contests.
const strengthDecay = 0.75

// podium simulate
func Simulate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate synthetic contest results for testing the fitter",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`simulate samples multi-way contests from a Plackett-Luce model
			with known ground-truth strengths and writes them in the tsv
			format accepted by rate and serve. Feeding the output back into
			rate should recover the generated strength order.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			bots, _ := flags.GetInt("bots")
			contests, _ := flags.GetInt("contests")
			minField, _ := flags.GetInt("min-field")
			maxField, _ := flags.GetInt("max-field")
			seed, _ := flags.GetInt64("seed")
			output, _ := flags.GetString("output")

			if bots < 2 {
				return fmt.Errorf("need at least 2 bots, got %d", bots)
			}

			truth := make(map[model.Competitor]float64, bots)
			for i := 0; i < bots; i++ {
				name := model.Competitor(fmt.Sprintf("bot-%02d", i+1))
				truth[name] = math.Pow(strengthDecay, float64(i))
			}

			src := source.NewSynthetic(truth,
				source.WithContests(contests),
				source.WithFieldRange(minField, maxField),
				source.WithSeed(seed),
			)
			generated, err := src.Load(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			return writeTSV(w, generated)
		},
	}

	cmd.Flags().Int("bots", 8, "Number of simulated competitors")
	cmd.Flags().Int("contests", 200, "Number of contests to sample")
	cmd.Flags().Int("min-field", 2, "Smallest contest field size")
	cmd.Flags().Int("max-field", 6, "Largest contest field size")
	cmd.Flags().Int64("seed", 1, "Random seed for reproducible output")
	cmd.Flags().String("output", "", "Output file (default stdout)")

	return cmd
}

// writeTSV emits one finisher per line: competitor, contest, finish.
func writeTSV(w io.Writer, contests []model.Contest) error {
	for _, c := range contests {
		for _, competitor := range model.NewRanking(c.Placements) {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", competitor, c.ID, c.Placements[competitor]); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
	}
	return nil
}
