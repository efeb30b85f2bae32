package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/okian/podium/internal/adapters/http/api"
	"github.com/okian/podium/internal/adapters/source"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/rating"
	"github.com/okian/podium/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// podium serve
func Serve() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the rating service as an HTTP server",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`serve starts an HTTP server that accepts contest results on
			POST /results, refits the Plackett-Luce strengths after each
			accepted contest, and serves the current board on GET /rankings.

			Configuration is layered: built-in defaults, then an optional
			YAML file (PODIUM_CONFIG or the XDG config search path), then
			PODIUM_-prefixed environment variables.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Get()

			// Root context with cancel on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				log.Warn(ctx, "invalid log_level; falling back to info",
					logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}

			roster := model.Roster{}
			if cfg.RosterFile != "" {
				roster, err = source.NewRosterFile(cfg.RosterFile).LoadRoster(ctx)
				if err != nil {
					return err
				}
			}

			svc := service.New(
				service.WithLogger(log),
				service.WithTolerance(cfg.Tolerance),
				service.WithEngine(rating.Engine(cfg.Engine)),
				service.WithNormalize(cfg.Normalize),
				service.WithConnectivityCheck(cfg.CheckConnectivity),
				service.WithMaxIterations(cfg.MaxIterations),
				service.WithFitWorkers(cfg.FitWorkers),
				service.WithRoster(roster),
				service.WithExcludeInactive(cfg.ExcludeInactive),
				service.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
				service.WithQueueSize(cfg.QueueSize),
				service.WithDedupeSize(cfg.DedupeSize),
			)
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			// Seed the history from a results file when configured. An
			// ill-posed seed is tolerated; contests arriving over HTTP may
			// connect the pool later.
			if cfg.ResultsFile != "" {
				src := source.NewFileSource(cfg.ResultsFile, source.WithFormat(cfg.ResultsFormat))
				if err := svc.LoadFrom(ctx, src); err != nil {
					if !errors.Is(err, rating.ErrIllPosed) {
						return err
					}
					log.Warn(ctx, "seed history is not strongly connected; board stays empty",
						logger.String("results_file", cfg.ResultsFile))
				}
			}

			mux := http.NewServeMux()
			api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           mux,
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
				ReadHeaderTimeout: readHeaderTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			log.Info(ctx, "shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}

			log.Info(ctx, "server stopped")
			return nil
		},
	}
}
