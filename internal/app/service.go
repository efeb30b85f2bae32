// Package service provides the core business service that implements
// the dependencies required by the HTTP API: it owns the contest
// history, refits the Plackett-Luce strengths when new results arrive,
// and publishes the fitted board to the leaderboard store.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/rating"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize  = 1024
	defaultDedupeSize = 100_000
	defaultMaxLimit   = 100
)

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	// Core components
	leaderboard repository.Store
	deduper     dedupe.Deduper
	submissions queue.Queue

	// Fitted state. history holds every accepted contest; strengths are
	// always refitted over the whole of it. last seeds the next refit.
	history    []model.Contest
	roster     model.Roster
	last       rating.Strengths
	lastResult *rating.Result

	// Fitting configuration
	tolerance         float64
	engine            rating.Engine
	normalize         bool
	checkConnectivity bool
	maxIterations     int
	fitWorkers        int

	// Presentation configuration
	excludeInactive bool
	maxLimit        int

	// Queueing configuration
	queueSize  int
	dedupeSize int

	// State
	started bool
	done    chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTolerance sets the convergence tolerance for refits.
func WithTolerance(tol float64) Option {
	return func(s *Service) {
		if tol > 0 {
			s.tolerance = tol
		}
	}
}

// WithEngine selects the fitting engine.
func WithEngine(e rating.Engine) Option {
	return func(s *Service) {
		if e != "" {
			s.engine = e
		}
	}
}

// WithNormalize controls whether fitted strengths are rescaled to sum
// to one.
func WithNormalize(enabled bool) Option {
	return func(s *Service) {
		s.normalize = enabled
	}
}

// WithConnectivityCheck controls the identifiability precondition check.
func WithConnectivityCheck(enabled bool) Option {
	return func(s *Service) {
		s.checkConnectivity = enabled
	}
}

// WithMaxIterations caps refit iterations. Zero means no cap.
func WithMaxIterations(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxIterations = n
		}
	}
}

// WithFitWorkers sets intra-iteration parallelism for the reference
// engine.
func WithFitWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fitWorkers = n
		}
	}
}

// WithExcludeInactive hides inactive competitors from read results. The
// fit itself always covers the full history.
func WithExcludeInactive(enabled bool) Option {
	return func(s *Service) {
		s.excludeInactive = enabled
	}
}

// WithMaxLeaderboardLimit bounds the limit accepted by TopN.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRoster attaches presentation metadata for competitors.
func WithRoster(r model.Roster) Option {
	return func(s *Service) {
		s.roster = r
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		tolerance:         0, // fitter default applies
		engine:            rating.EngineReference,
		normalize:         true,
		checkConnectivity: true,
		fitWorkers:        runtime.NumCPU(),
		maxLimit:          defaultMaxLimit,
		queueSize:         defaultQueueSize,
		dedupeSize:        defaultDedupeSize,
		roster:            model.Roster{},
		done:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components and launches the refit loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.leaderboard = repository.NewMemStore(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.submissions = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
	)

	go s.consume(ctx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.String("engine", string(s.engine)),
		logger.Int("fitWorkers", s.fitWorkers),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service, draining queued submissions
// into the history first.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	submissions := s.submissions
	s.mu.Unlock()

	s.logger.Info(context.Background(), "stopping rating service...")

	_ = submissions.Close()
	<-s.done

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	s.logger.Info(context.Background(), "rating service stopped")
}

// consume folds submitted contests into the history one at a time and
// refits after each. The fit is a batch estimate over everything seen
// so far, so the loop is deliberately sequential; parallelism lives
// inside a single fit iteration instead.
func (s *Service) consume(ctx context.Context) {
	defer close(s.done)

	for contest := range s.submissions.Dequeue(ctx) {
		metrics.UpdateSubmissionQueueDepth(s.submissions.Len(ctx))

		s.mu.Lock()
		s.history = append(s.history, contest)
		s.mu.Unlock()

		if err := s.Refit(ctx); err != nil {
			s.logger.Warn(ctx, "refit failed",
				logger.String("contestID", contest.ID),
				logger.Error(err),
			)
		}
	}
}

// LoadFrom folds a batch of contests from src into the history and
// refits once. Contests whose IDs were already seen are skipped.
func (s *Service) LoadFrom(ctx context.Context, src source.Source) error {
	contests, err := src.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for _, c := range contests {
		if s.deduper != nil && s.deduper.SeenAndRecord(ctx, c.ID) {
			metrics.RecordDuplicateContest()
			continue
		}
		s.history = append(s.history, c)
	}
	s.mu.Unlock()

	return s.Refit(ctx)
}

// Refit fits strengths over the full history and publishes the result
// to the leaderboard store. On an ill-posed history the previous board
// is kept. On an exhausted iteration cap the partial estimate is
// published anyway; it is the best one available.
func (s *Service) Refit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rankings := model.Rankings(s.history)

	fitter := rating.New(
		rating.WithTolerance(s.tolerance),
		rating.WithEngine(s.engine),
		rating.WithNormalize(s.normalize),
		rating.WithConnectivityCheck(s.checkConnectivity),
		rating.WithMaxIterations(s.maxIterations),
		rating.WithWorkers(s.fitWorkers),
		rating.WithInitialStrengths(s.last),
		rating.WithLogger(s.logger),
	)

	start := time.Now()
	res, err := fitter.Fit(ctx, rankings)
	switch {
	case errors.Is(err, rating.ErrIllPosed):
		metrics.RecordIllPosed()
		return err
	case errors.Is(err, rating.ErrNotConverged):
		metrics.RecordNotConverged()
	case err != nil:
		return err
	}

	metrics.RecordFit(time.Since(start).Seconds(), res.Iterations, res.Delta)
	metrics.UpdateContestsRecorded(len(s.history))

	s.last = res.Strengths
	s.lastResult = res

	entries := make([]repository.Entry, 0, len(res.Strengths))
	for c, g := range res.Strengths {
		profile, known := s.roster[c]
		entries = append(entries, repository.Entry{
			Competitor:  c,
			DisplayName: profile.DisplayName,
			Strength:    g,
			Active:      profile.Active || !known,
		})
	}
	if storeErr := s.leaderboard.ReplaceAll(ctx, entries); storeErr != nil {
		return storeErr
	}
	return err
}

// SeenAndRecord atomically checks if a contest id was seen and records
// it if not. Returns true if the contest was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordDuplicateContest()
	}
	return seen
}

// Unrecord removes a contest ID from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a contest for asynchronous refitting.
func (s *Service) Enqueue(ctx context.Context, c model.Contest) bool {
	ok := s.submissions.Enqueue(ctx, c)
	if ok {
		metrics.UpdateSubmissionQueueDepth(s.submissions.Len(ctx))
	}
	return ok
}

// TopN returns the top N leaderboard entries. With exclude-inactive
// enabled, inactive competitors are dropped and the displayed strengths
// are rescaled to sum to one over the remaining rows. The underlying
// fitted values are untouched.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	if n < 1 || n > s.maxLimit {
		return nil, repository.ErrInvalidLimit
	}
	entries, err := s.board(ctx)
	if err != nil {
		return nil, err
	}
	if n > len(entries) {
		n = len(entries)
	}
	return entries[:n], nil
}

// Rank returns the current row for a single competitor.
func (s *Service) Rank(ctx context.Context, competitor string) (repository.Entry, error) {
	if !s.excludeInactive {
		return s.leaderboard.Rank(ctx, model.Competitor(competitor))
	}
	entries, err := s.board(ctx)
	if err != nil {
		return repository.Entry{}, err
	}
	for _, e := range entries {
		if e.Competitor == model.Competitor(competitor) {
			return e, nil
		}
	}
	return repository.Entry{}, repository.ErrNotFound
}

// Board returns the full read view of the leaderboard, strongest
// first, with the exclude-inactive filter applied when configured.
func (s *Service) Board(ctx context.Context) ([]repository.Entry, error) {
	return s.board(ctx)
}

// board materializes the read view of the leaderboard, applying the
// exclude-inactive filter when configured.
func (s *Service) board(ctx context.Context) ([]repository.Entry, error) {
	count := s.leaderboard.Count(ctx)
	if count == 0 {
		return nil, nil
	}
	entries, err := s.leaderboard.TopN(ctx, count)
	if err != nil {
		return nil, err
	}
	if !s.excludeInactive {
		return entries, nil
	}

	filtered := make([]repository.Entry, 0, len(entries))
	var sum float64
	for _, e := range entries {
		if !e.Active {
			continue
		}
		filtered = append(filtered, e)
		sum += e.Strength
	}
	for i := range filtered {
		filtered[i].Rank = i + 1
		if sum > 0 {
			filtered[i].Strength /= sum
		}
	}
	return filtered, nil
}

// History returns a copy of the accepted contest history.
func (s *Service) History() []model.Contest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Contest, len(s.history))
	copy(out, s.history)
	return out
}

// LastFit returns diagnostics from the most recent refit, or nil if no
// fit has completed yet.
func (s *Service) LastFit() *rating.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"engine":     string(s.engine),
		"fitWorkers": s.fitWorkers,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
		"contests":   len(s.history),
	}

	if s.started {
		stats["queueLength"] = s.submissions.Len(ctx)
		stats["competitors"] = s.leaderboard.Count(ctx)
	}
	if s.lastResult != nil {
		stats["iterations"] = s.lastResult.Iterations
		stats["delta"] = s.lastResult.Delta
		stats["converged"] = s.lastResult.Converged
	}

	return stats
}
