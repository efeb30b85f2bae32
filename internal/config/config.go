// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for serve mode, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Tolerance is the convergence threshold on the L2 norm of
	// successive strength vectors.
	Tolerance float64 `koanf:"tolerance"`

	// MaxIterations caps the MM iteration; 0 means no cap.
	MaxIterations int `koanf:"max_iterations"`

	// Engine selects the fitting formulation: "reference" or "matrix".
	Engine string `koanf:"engine"`

	// Normalize rescales strengths to sum to one after each update.
	Normalize bool `koanf:"normalize"`

	// CheckConnectivity gates fitting on the strongly-connected
	// precondition over the beat-relation graph.
	CheckConnectivity bool `koanf:"check_connectivity"`

	// FitWorkers sets how many goroutines accumulate per-ranking sums
	// within one iteration.
	FitWorkers int `koanf:"fit_workers"`

	// ResultsFile and ResultsFormat locate the initial contest history.
	ResultsFile   string `koanf:"results_file"`
	ResultsFormat string `koanf:"results_format"`

	// RosterFile optionally maps competitor ids to display names and an
	// active flag, used only for output.
	RosterFile string `koanf:"roster_file"`

	// ExcludeInactive hides inactive competitors from output. Fitted
	// values are always computed from the full history.
	ExcludeInactive bool `koanf:"exclude_inactive"`

	// MaxLeaderboardLimit caps GET /rankings?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// QueueSize bounds the in-memory contest submission queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the contest-id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		Tolerance:           1e-9,
		MaxIterations:       0,
		Engine:              "reference",
		Normalize:           true,
		CheckConnectivity:   true,
		FitWorkers:          runtime.NumCPU(),
		ResultsFormat:       "tsv",
		MaxLeaderboardLimit: 100,
		QueueSize:           1024,
		DedupeSize:          100_000,
	}
}
