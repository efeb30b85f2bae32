package rating

import "sync"

// referenceIterator computes MM denominators ranking by ranking.
//
// For one ranking r of length m, the competitor at finish position p
// (0-based) owes a denominator term for every position j <= min(p, m-2):
// the reciprocal of the summed strengths of everyone still in contention
// at j, i.e. the suffix sum of gammas from j to the end. The final
// position contributes no term of its own: the last elimination has no
// remaining competition.
//
// Rankings are independent within one iteration, so their contributions
// may be accumulated concurrently; the iteration sequence itself stays
// strictly sequential.
type referenceIterator struct {
	rankings [][]int
	workers  int
	scratch  [][]float64 // per-worker suffix-sum buffer
	partial  [][]float64 // per-worker denominator accumulator
}

func newReferenceIterator(rankings [][]int, workers int) *referenceIterator {
	if workers < 1 {
		workers = 1
	}
	if workers > len(rankings) && len(rankings) > 0 {
		workers = len(rankings)
	}
	var longest int
	for _, r := range rankings {
		if len(r) > longest {
			longest = len(r)
		}
	}
	it := &referenceIterator{
		rankings: rankings,
		workers:  workers,
		scratch:  make([][]float64, workers),
		partial:  make([][]float64, workers),
	}
	for w := 0; w < workers; w++ {
		it.scratch[w] = make([]float64, longest)
	}
	return it
}

func (it *referenceIterator) denominators(gammas, denoms []float64) {
	for i := range denoms {
		denoms[i] = 0
	}
	if it.workers == 1 {
		it.accumulate(gammas, denoms, it.scratch[0], 0, len(it.rankings))
		return
	}

	chunk := (len(it.rankings) + it.workers - 1) / it.workers
	var wg sync.WaitGroup
	for w := 0; w < it.workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(it.rankings))
		if lo >= hi {
			break
		}
		if it.partial[w] == nil {
			it.partial[w] = make([]float64, len(denoms))
		}
		part := it.partial[w]
		for i := range part {
			part[i] = 0
		}
		wg.Add(1)
		go func(lo, hi int, part, scratch []float64) {
			defer wg.Done()
			it.accumulate(gammas, part, scratch, lo, hi)
		}(lo, hi, part, it.scratch[w])
	}
	wg.Wait()

	for w := 0; w < it.workers; w++ {
		if it.partial[w] == nil {
			continue
		}
		for i, v := range it.partial[w] {
			denoms[i] += v
		}
	}
}

// accumulate adds the denominator contributions of rankings[lo:hi] into
// out, reading only the frozen gammas snapshot.
func (it *referenceIterator) accumulate(gammas, out, suffix []float64, lo, hi int) {
	for _, r := range it.rankings[lo:hi] {
		m := len(r)
		if m < 2 {
			// A single finisher carries no ordering information and must
			// not generate terms.
			continue
		}
		var total float64
		for j := m - 1; j >= 0; j-- {
			total += gammas[r[j]]
			suffix[j] = total
		}
		var run float64
		for j := 0; j <= m-2; j++ {
			run += 1 / suffix[j]
			out[r[j]] += run
		}
		out[r[m-1]] += run
	}
}
