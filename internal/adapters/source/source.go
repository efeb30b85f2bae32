// Package source supplies contest results and roster metadata to the
// rating pipeline.
package source

import (
	"context"

	"github.com/okian/podium/internal/domain/model"
)

// Source yields the complete contest history in submission order. The
// fitter is a batch estimator, so sources load everything at once.
type Source interface {
	Load(ctx context.Context) ([]model.Contest, error)
}

// RosterSource yields presentation metadata for competitors. It is
// consulted only when formatting output, never during fitting.
type RosterSource interface {
	LoadRoster(ctx context.Context) (model.Roster, error)
}
