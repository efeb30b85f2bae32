package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/okian/podium/internal/adapters/source"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/rating"
	"github.com/okian/podium/pkg/logger"
)

// spinnerCharSet indexes the dots animation in spinner.CharSets.
const spinnerCharSet = 14

// podium rate results-file
func Rate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate results-file",
		Short: "Fit strengths from a file of contest results and print the board",
		Args:  cobra.ExactArgs(1),
		Long: heredoc.Doc(`rate reads a file of contest results, fits a Plackett-Luce
			strength for every competitor over the whole history at once, and
			prints the resulting leaderboard, strongest first.

			The tsv format has one finisher per line as

			    <competitor> <contest> <finish>

			separated by whitespace, with 1 meaning first place. Lines starting
			with # are ignored. The csv format expects a header of
			contest,competitor,finish.

			Fitting requires the beat-relation graph over the pool to be
			strongly connected: every competitor must have both beaten and
			lost to every other, directly or through intermediaries. Otherwise
			some strengths run away to zero or infinity and the fit is refused.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			format, _ := flags.GetString("format")
			rosterPath, _ := flags.GetString("roster")
			excludeInactive, _ := flags.GetBool("exclude-inactive")
			tolerance, _ := flags.GetFloat64("tolerance")
			engine, _ := flags.GetString("engine")
			noNormalize, _ := flags.GetBool("no-normalize")
			skipCheck, _ := flags.GetBool("skip-connectivity-check")
			maxIterations, _ := flags.GetInt("max-iterations")
			workers, _ := flags.GetInt("workers")

			ctx := cmd.Context()

			roster := model.Roster{}
			if rosterPath != "" {
				var err error
				roster, err = source.NewRosterFile(rosterPath).LoadRoster(ctx)
				if err != nil {
					return err
				}
			}

			svc := service.New(
				service.WithLogger(logger.Get()),
				service.WithTolerance(tolerance),
				service.WithEngine(rating.Engine(engine)),
				service.WithNormalize(!noNormalize),
				service.WithConnectivityCheck(!skipCheck),
				service.WithMaxIterations(maxIterations),
				service.WithFitWorkers(workers),
				service.WithRoster(roster),
				service.WithExcludeInactive(excludeInactive),
			)
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			s := spinner.New(spinner.CharSets[spinnerCharSet], 100*time.Millisecond,
				spinner.WithWriter(os.Stderr))
			s.Suffix = " fitting..."
			s.Start()
			err := svc.LoadFrom(ctx, source.NewFileSource(args[0], source.WithFormat(format)))
			s.Stop()
			if err != nil {
				return err
			}

			board, err := svc.Board(ctx)
			if err != nil {
				return err
			}

			for _, e := range board {
				name := string(e.Competitor)
				if e.DisplayName != "" {
					name = e.DisplayName
				}
				fmt.Printf("%4d  %-25s %8.4f\n", e.Rank, name, e.Strength)
			}

			if res := svc.LastFit(); res != nil {
				logger.Get().Info(ctx, "fit finished",
					logger.Int("iterations", res.Iterations),
					logger.Float64("delta", res.Delta),
					logger.Bool("converged", res.Converged),
				)
			}
			return nil
		},
	}

	cmd.Flags().String("format", "tsv", "Results file format: tsv or csv")
	cmd.Flags().String("roster", "", "Optional roster csv with display names and active flags")
	cmd.Flags().Bool("exclude-inactive", false, "Hide inactive competitors from the printed board")
	cmd.Flags().Float64("tolerance", 0, "Convergence tolerance (0 keeps the default)")
	cmd.Flags().String("engine", "reference", "Fitting engine: reference or matrix")
	cmd.Flags().Bool("no-normalize", false, "Skip rescaling strengths to sum to one")
	cmd.Flags().Bool("skip-connectivity-check", false, "Fit even if the pool is not strongly connected")
	cmd.Flags().Int("max-iterations", 0, "Iteration cap; 0 means run to convergence")
	cmd.Flags().Int("workers", 0, "Goroutines per fit iteration (0 keeps the default)")

	return cmd
}
