// Package rating fits Plackett-Luce strength parameters over contest
// rankings using the MM fixed-point iteration from Hunter (2004),
// "MM algorithms for generalized Bradley-Terry models". The model is a
// batch maximum-likelihood estimate over the full history: it weighs
// every recorded contest equally and is insensitive to their order,
// which suits static competitors such as programmed bots.
package rating

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/podium/internal/domain/graph"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// Default fitting configuration constants.
const (
	defaultTolerance = 1e-9
	defaultWorkers   = 1
)

// Engine selects one of the interchangeable formulations of the MM
// update. Both converge to the same fixed point; they differ only in
// how the per-iteration denominators are computed.
type Engine string

const (
	// EngineReference computes denominators ranking by ranking with
	// suffix sums. Clear and allocation-light.
	EngineReference Engine = "reference"

	// EngineMatrix computes denominators in bulk over padded
	// rank-by-contest matrices with reversed cumulative sums.
	EngineMatrix Engine = "matrix"
)

// Strengths maps each competitor in the pool to its fitted strength.
type Strengths map[model.Competitor]float64

// Result carries the fitted strengths plus convergence diagnostics.
type Result struct {
	Strengths  Strengths
	Iterations int
	// Delta is the Euclidean norm of the final update step.
	Delta     float64
	Converged bool
}

// iterator computes, for every competitor simultaneously, the MM
// denominator from a frozen snapshot of the previous strength vector.
type iterator interface {
	denominators(gammas, denoms []float64)
}

// PlackettLuce fits strength parameters from finish-order rankings.
type PlackettLuce struct {
	tolerance         float64
	normalize         bool
	checkConnectivity bool
	maxIterations     int
	engine            Engine
	workers           int
	initial           Strengths
	log               logger.Logger
}

// Option applies a configuration option to the PlackettLuce fitter.
type Option func(*PlackettLuce)

// WithTolerance sets the convergence tolerance on the L2 norm of
// successive strength vectors.
func WithTolerance(tol float64) Option {
	return func(f *PlackettLuce) {
		if tol > 0 {
			f.tolerance = tol
		}
	}
}

// WithNormalize controls whether the strength vector is rescaled to sum
// to one after each update. Normalization only fixes the scale; the
// likelihood is invariant to positive scaling of all strengths.
func WithNormalize(enabled bool) Option {
	return func(f *PlackettLuce) {
		f.normalize = enabled
	}
}

// WithConnectivityCheck controls the strongly-connected precondition
// check on the derived beat-relation graph. Disabling it on a pool that
// is not strongly connected lets the iteration diverge.
func WithConnectivityCheck(enabled bool) Option {
	return func(f *PlackettLuce) {
		f.checkConnectivity = enabled
	}
}

// WithMaxIterations caps the number of iterations. Zero (the default)
// means no cap: the loop runs until the tolerance is met.
func WithMaxIterations(n int) Option {
	return func(f *PlackettLuce) {
		if n >= 0 {
			f.maxIterations = n
		}
	}
}

// WithEngine selects the denominator formulation.
func WithEngine(e Engine) Option {
	return func(f *PlackettLuce) {
		if e != "" {
			f.engine = e
		}
	}
}

// WithWorkers sets how many goroutines the reference engine uses to
// accumulate per-ranking denominators within one iteration. Iterations
// themselves are strictly sequential.
func WithWorkers(n int) Option {
	return func(f *PlackettLuce) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithInitialStrengths seeds the iteration from a previous fit instead
// of the uniform vector. Competitors absent from s (or with
// non-positive values) fall back to the uniform initial value. Handy
// for refitting after a few new contests arrive.
func WithInitialStrengths(s Strengths) Option {
	return func(f *PlackettLuce) {
		f.initial = s
	}
}

// WithLogger enables per-iteration convergence diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(f *PlackettLuce) {
		if log != nil {
			f.log = log
		}
	}
}

// New constructs a PlackettLuce fitter with default configuration.
func New(opts ...Option) *PlackettLuce {
	f := &PlackettLuce{
		tolerance:         defaultTolerance,
		normalize:         true,
		checkConnectivity: true,
		engine:            EngineReference,
		workers:           defaultWorkers,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fit computes the maximum-likelihood strength for every competitor
// appearing in rankings. Each ranking is a strict finish order, first
// place to last. Returns ErrIllPosed when the precondition check is
// enabled and fails, and ErrNotConverged (together with the last
// iterate) when a configured iteration cap is exhausted.
func (f *PlackettLuce) Fit(ctx context.Context, rankings []model.Ranking) (*Result, error) {
	pool := model.Pool(rankings)
	if len(pool) == 0 {
		// No data at all is a degenerate result, not an error.
		return &Result{Strengths: Strengths{}, Converged: true}, nil
	}
	if len(pool) == 1 {
		// A lone competitor carries no ordering information; its strength
		// is fixed by the scale convention.
		return &Result{Strengths: Strengths{pool[0]: 1}, Converged: true}, nil
	}

	if f.checkConnectivity {
		if !f.connected(rankings, len(pool)) {
			return nil, ErrIllPosed
		}
	}

	// Compile competitors to dense indices once; the iteration works on
	// flat vectors and translates back at the end.
	index := make(map[model.Competitor]int, len(pool))
	for i, c := range pool {
		index[c] = i
	}
	compiled := make([][]int, len(rankings))
	for i, r := range rankings {
		row := make([]int, len(r))
		for j, c := range r {
			row[j] = index[c]
		}
		compiled[i] = row
	}

	// wins[i] counts rankings where competitor i did not finish last.
	// It is the fixed numerator of the MM update.
	wins := make([]float64, len(pool))
	for _, row := range compiled {
		for _, i := range row[:max(len(row)-1, 0)] {
			wins[i]++
		}
	}

	it, err := f.newIterator(compiled, len(pool))
	if err != nil {
		return nil, err
	}

	gammas := make([]float64, len(pool))
	for i, c := range pool {
		gammas[i] = 1 / float64(len(pool))
		if g, ok := f.initial[c]; ok && g > 0 {
			gammas[i] = g
		}
	}

	next := make([]float64, len(pool))
	denoms := make([]float64, len(pool))
	delta := math.Inf(1)
	iterations := 0

	for delta > f.tolerance {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fit canceled: %w", err)
		}
		if f.maxIterations > 0 && iterations >= f.maxIterations {
			return f.result(pool, gammas, iterations, delta, false), ErrNotConverged
		}

		// The whole next vector is built from the frozen previous one;
		// no competitor's update reads another's already-updated value.
		it.denominators(gammas, denoms)
		for i := range next {
			if denoms[i] > 0 {
				next[i] = wins[i] / denoms[i]
			} else {
				next[i] = 0
			}
		}
		if f.normalize {
			var sum float64
			for _, g := range next {
				sum += g
			}
			if sum > 0 {
				for i := range next {
					next[i] /= sum
				}
			}
		}

		prev := delta
		delta = l2diff(next, gammas)
		gammas, next = next, gammas
		iterations++

		if f.log != nil {
			f.log.Debug(ctx, "fit iteration",
				logger.Int("iteration", iterations),
				logger.Float64("delta", delta),
			)
			if delta > prev {
				// Under the precondition the difference sequence should
				// decrease monotonically; an increase signals numerical
				// trouble but is not fatal.
				f.log.Warn(ctx, "convergence delta increased",
					logger.Float64("delta", delta),
					logger.Float64("previous", prev),
				)
			}
		}
	}

	return f.result(pool, gammas, iterations, delta, true), nil
}

// connected reports whether the pairwise beat-relation graph derived
// from rankings forms a single strongly connected component covering
// the whole pool. Competitors that appear only in single-entry rankings
// contribute no edges and therefore fail the check.
func (f *PlackettLuce) connected(rankings []model.Ranking, poolSize int) bool {
	var edges []graph.Edge[model.Competitor]
	for _, r := range rankings {
		// Every ordered pair, not just adjacent finishers.
		for i := 0; i < len(r); i++ {
			for j := i + 1; j < len(r); j++ {
				edges = append(edges, graph.Edge[model.Competitor]{From: r[i], To: r[j]})
			}
		}
	}
	roots := graph.Components(edges)
	return len(roots) == poolSize && graph.RootCount(roots) == 1
}

func (f *PlackettLuce) newIterator(compiled [][]int, poolSize int) (iterator, error) {
	switch f.engine {
	case EngineReference:
		return newReferenceIterator(compiled, f.workers), nil
	case EngineMatrix:
		return newMatrixIterator(compiled, poolSize), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, f.engine)
	}
}

func (f *PlackettLuce) result(pool []model.Competitor, gammas []float64, iterations int, delta float64, converged bool) *Result {
	strengths := make(Strengths, len(pool))
	for i, c := range pool {
		strengths[c] = gammas[i]
	}
	return &Result{
		Strengths:  strengths,
		Iterations: iterations,
		Delta:      delta,
		Converged:  converged,
	}
}

func l2diff(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
