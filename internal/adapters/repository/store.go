// Package repository defines the leaderboard store interface and errors.
package repository

import (
	"context"

	"github.com/okian/podium/internal/domain/model"
)

// Entry represents one leaderboard row. It doubles as the read shape
// returned by the HTTP API.
type Entry struct {
	Rank        int              `json:"rank"`
	Competitor  model.Competitor `json:"competitor"`
	DisplayName string           `json:"display_name,omitempty"`
	Strength    float64          `json:"strength"`
	Active      bool             `json:"active"`
}

// Store provides read/write access to the fitted leaderboard. Fitting
// is a batch estimate over the whole history, so writes replace the
// entire board at once rather than updating single rows.
type Store interface {
	// ReplaceAll swaps in a freshly fitted leaderboard. Input order is
	// irrelevant; the store orders by strength descending and assigns
	// ranks.
	ReplaceAll(ctx context.Context, entries []Entry) error

	// Rank returns the current row for a competitor.
	// Returns ErrNotFound if the competitor is unknown.
	Rank(ctx context.Context, c model.Competitor) (Entry, error)

	// TopN returns the top-N rows ordered by strength descending.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of competitors on the board.
	Count(ctx context.Context) int
}
