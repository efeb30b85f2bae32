package rating

// matrixIterator is the bulk formulation of the same MM denominator:
// rankings are packed into padded position-by-contest matrices and the
// per-position reciprocal suffix sums are produced with two cumulative
// sweeps over whole columns. It is the Go rendition of Hunter's
// original vectorized formulation and must agree with the reference
// iterator at the fixed point.
//
// Layout: both matrices are flat row-major slices of maxLen rows by
// len(rankings) columns. finisher holds competitor index + 1 at each
// (position, contest) cell, zero meaning padding. position holds, for
// each (competitor, contest) cell, the competitor's 1-based finish in
// that contest, zero when absent.
type matrixIterator struct {
	finisher []int // (maxLen x contests) competitor index + 1
	position []int // (pool x contests) 1-based finish position
	length   []int // per-contest field size
	work     []float64
	maxLen   int
	contests int
	pool     int
}

func newMatrixIterator(rankings [][]int, poolSize int) *matrixIterator {
	var maxLen int
	for _, r := range rankings {
		if len(r) > maxLen {
			maxLen = len(r)
		}
	}
	it := &matrixIterator{
		finisher: make([]int, maxLen*len(rankings)),
		position: make([]int, poolSize*len(rankings)),
		length:   make([]int, len(rankings)),
		work:     make([]float64, maxLen*len(rankings)),
		maxLen:   maxLen,
		contests: len(rankings),
		pool:     poolSize,
	}
	for n, r := range rankings {
		it.length[n] = len(r)
		for p, comp := range r {
			it.finisher[p*it.contests+n] = comp + 1
			it.position[comp*it.contests+n] = p + 1
		}
	}
	return it
}

func (it *matrixIterator) denominators(gammas, denoms []float64) {
	g := it.work

	// Scatter strengths into the padded grid.
	for cell, comp := range it.finisher {
		if comp > 0 {
			g[cell] = gammas[comp-1]
		} else {
			g[cell] = 0
		}
	}

	// Reversed cumulative sum down each column: cell (p, n) becomes the
	// summed strength of everyone still in contention at position p.
	for p := it.maxLen - 2; p >= 0; p-- {
		row := p * it.contests
		below := row + it.contests
		for n := 0; n < it.contests; n++ {
			g[row+n] += g[below+n]
		}
	}

	// The last place of each contest is the reference event: zero it out
	// before inverting so it contributes nothing.
	for n, m := range it.length {
		if m > 0 {
			g[(m-1)*it.contests+n] = 0
		}
	}
	for cell, v := range g {
		if v > 0 {
			g[cell] = 1 / v
		}
	}

	// Forward cumulative sum turns reciprocals into per-position prefix
	// totals; a competitor's denominator share is the prefix at its own
	// finish position.
	for p := 1; p < it.maxLen; p++ {
		row := p * it.contests
		above := row - it.contests
		for n := 0; n < it.contests; n++ {
			g[row+n] += g[above+n]
		}
	}

	for i := range denoms {
		denoms[i] = 0
		base := i * it.contests
		for n := 0; n < it.contests; n++ {
			if p := it.position[base+n]; p > 0 {
				denoms[i] += g[(p-1)*it.contests+n]
			}
		}
	}
}
