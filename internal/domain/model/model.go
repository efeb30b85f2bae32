// Package model contains domain models passed between layers.
package model

import "sort"

// Competitor identifies a single bot in the pool. It is an opaque token;
// nothing in the rating core inspects its contents.
type Competitor string

// Contest is one completed multi-way game: an identity plus the finish
// position of every participant (1 = first place). Positions are expected
// to be distinct; ties must be resolved upstream before reaching here.
type Contest struct {
	ID         string
	Placements map[Competitor]int
}

// Ranking is the finish order of one contest, first place to last place.
type Ranking []Competitor

// NewRanking converts a placements mapping into an ordered Ranking by
// sorting on finish position.
func NewRanking(placements map[Competitor]int) Ranking {
	r := make(Ranking, 0, len(placements))
	for c := range placements {
		r = append(r, c)
	}
	sort.Slice(r, func(i, j int) bool {
		return placements[r[i]] < placements[r[j]]
	})
	return r
}

// Rankings converts a batch of contests into ordered rankings.
func Rankings(contests []Contest) []Ranking {
	rs := make([]Ranking, 0, len(contests))
	for _, c := range contests {
		rs = append(rs, NewRanking(c.Placements))
	}
	return rs
}

// Pool returns every distinct competitor appearing in any ranking.
// The result is derived, never stored.
func Pool(rankings []Ranking) []Competitor {
	seen := make(map[Competitor]struct{})
	var pool []Competitor
	for _, r := range rankings {
		for _, c := range r {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			pool = append(pool, c)
		}
	}
	return pool
}

// Profile carries presentation-only metadata for a competitor. The fitter
// never reads it: excluding an inactive bot from output must not change
// the fitted values computed from the full history.
type Profile struct {
	DisplayName string
	Active      bool
}

// Roster maps competitors to their presentation metadata.
type Roster map[Competitor]Profile
