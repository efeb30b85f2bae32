package source

import (
	"context"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/okian/podium/internal/domain/model"
)

// Default synthetic generation constants.
const (
	defaultSyntheticContests = 100
	defaultMinField          = 2
)

// Synthetic samples contest results from a known Plackett-Luce model:
// finish order is drawn by repeatedly selecting the next finisher among
// the remaining field with probability proportional to its true
// strength. Useful for load tests and for checking that fitting
// recovers a known ordering.
type Synthetic struct {
	truth    map[model.Competitor]float64
	contests int
	minField int
	maxField int
	rng      *rand.Rand
}

// SyntheticOption applies a configuration option to the Synthetic source.
type SyntheticOption func(*Synthetic)

// WithContests sets how many contests to generate.
func WithContests(n int) SyntheticOption {
	return func(s *Synthetic) {
		if n > 0 {
			s.contests = n
		}
	}
}

// WithFieldRange bounds the number of participants per contest.
func WithFieldRange(minField, maxField int) SyntheticOption {
	return func(s *Synthetic) {
		if minField >= 2 && maxField >= minField {
			s.minField = minField
			s.maxField = maxField
		}
	}
}

// WithSeed makes generation deterministic.
func WithSeed(seed int64) SyntheticOption {
	return func(s *Synthetic) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible sampling, not crypto
	}
}

// NewSynthetic creates a generator over the given true strengths.
func NewSynthetic(truth map[model.Competitor]float64, opts ...SyntheticOption) *Synthetic {
	s := &Synthetic{
		truth:    truth,
		contests: defaultSyntheticContests,
		minField: defaultMinField,
		maxField: len(truth),
		rng:      rand.New(rand.NewSource(1)), //nolint:gosec // reproducible sampling, not crypto
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxField > len(truth) {
		s.maxField = len(truth)
	}
	if s.minField > s.maxField {
		s.minField = s.maxField
	}
	return s
}

// Load generates the configured number of contests.
func (s *Synthetic) Load(ctx context.Context) ([]model.Contest, error) {
	// Pin iteration order so a fixed seed yields fixed output.
	pool := make([]model.Competitor, 0, len(s.truth))
	for c := range s.truth {
		pool = append(pool, c)
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i] < pool[j] })

	contests := make([]model.Contest, 0, s.contests)
	for n := 0; n < s.contests; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		field := make([]model.Competitor, len(pool))
		copy(field, pool)
		s.rng.Shuffle(len(field), func(i, j int) { field[i], field[j] = field[j], field[i] })
		size := s.minField
		if s.maxField > s.minField {
			size += s.rng.Intn(s.maxField - s.minField + 1)
		}
		field = field[:size]

		placements := make(map[model.Competitor]int, size)
		remaining := field
		for place := 1; len(remaining) > 0; place++ {
			pick := s.pick(remaining)
			placements[remaining[pick]] = place
			remaining[pick] = remaining[len(remaining)-1]
			remaining = remaining[:len(remaining)-1]
		}

		contests = append(contests, model.Contest{
			ID:         uuid.NewString(),
			Placements: placements,
		})
	}
	return contests, nil
}

// pick selects the next finisher index proportional to true strength.
func (s *Synthetic) pick(field []model.Competitor) int {
	var total float64
	for _, c := range field {
		total += s.truth[c]
	}
	target := s.rng.Float64() * total
	var acc float64
	for i, c := range field {
		acc += s.truth[c]
		if target < acc {
			return i
		}
	}
	return len(field) - 1
}
