package rating_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func rankingsOf(rows ...[]model.Competitor) []model.Ranking {
	rs := make([]model.Ranking, len(rows))
	for i, row := range rows {
		rs[i] = model.Ranking(row)
	}
	return rs
}

// randomRankings samples contests among a fully connected pool so that
// every fit in these tests is well-posed.
func randomRankings(rng *rand.Rand, pool []model.Competitor, contests int) []model.Ranking {
	rs := make([]model.Ranking, 0, contests)
	for i := 0; i < contests; i++ {
		field := make([]model.Competitor, len(pool))
		copy(field, pool)
		rng.Shuffle(len(field), func(a, b int) { field[a], field[b] = field[b], field[a] })
		size := 2 + rng.Intn(len(field)-1)
		rs = append(rs, model.Ranking(field[:size]))
	}
	// One round-robin pass guarantees strong connectivity regardless of
	// what the shuffles produced.
	for i := range pool {
		j := (i + 1) % len(pool)
		rs = append(rs, model.Ranking{pool[i], pool[j]})
		rs = append(rs, model.Ranking{pool[j], pool[i]})
	}
	return rs
}

func TestFit_PreconditionRejection(t *testing.T) {
	Convey("Given two disjoint pairs with no cross-contest", t, func() {
		rankings := rankingsOf(
			[]model.Competitor{"A", "B"},
			[]model.Competitor{"X", "Y"},
		)

		Convey("When fitting with the connectivity check enabled", func() {
			res, err := rating.New().Fit(context.Background(), rankings)

			Convey("Then the ill-posed sentinel is returned", func() {
				So(res, ShouldBeNil)
				So(errors.Is(err, rating.ErrIllPosed), ShouldBeTrue)
			})
		})

		Convey("When a competitor appears only in single-entry rankings", func() {
			res, err := rating.New().Fit(context.Background(), rankingsOf(
				[]model.Competitor{"A", "B"},
				[]model.Competitor{"B", "A"},
				[]model.Competitor{"C"},
			))

			Convey("Then the pool is not linked and the fit is ill-posed", func() {
				So(res, ShouldBeNil)
				So(errors.Is(err, rating.ErrIllPosed), ShouldBeTrue)
			})
		})
	})
}

func TestFit_SymmetricCycle(t *testing.T) {
	Convey("Given three rotationally symmetric rankings", t, func() {
		rankings := rankingsOf(
			[]model.Competitor{"A", "B", "C"},
			[]model.Competitor{"B", "C", "A"},
			[]model.Competitor{"C", "A", "B"},
		)

		Convey("When fitting", func() {
			res, err := rating.New().Fit(context.Background(), rankings)
			So(err, ShouldBeNil)
			So(res.Converged, ShouldBeTrue)

			Convey("Then all strengths are equal within tolerance", func() {
				So(res.Strengths["A"], ShouldAlmostEqual, res.Strengths["B"], 1e-6)
				So(res.Strengths["B"], ShouldAlmostEqual, res.Strengths["C"], 1e-6)
			})

			Convey("And the normalized strengths sum to one", func() {
				sum := res.Strengths["A"] + res.Strengths["B"] + res.Strengths["C"]
				So(sum, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})
	})
}

func TestFit_BradleyTerryReduction(t *testing.T) {
	Convey("Given only two-entry rankings", t, func() {
		// A beats B three times, B beats A once: the PL fit must reduce
		// to the classic Bradley-Terry estimate gamma_A/gamma_B = 3.
		rankings := rankingsOf(
			[]model.Competitor{"A", "B"},
			[]model.Competitor{"A", "B"},
			[]model.Competitor{"A", "B"},
			[]model.Competitor{"B", "A"},
		)

		Convey("When fitting", func() {
			res, err := rating.New().Fit(context.Background(), rankings)
			So(err, ShouldBeNil)

			Convey("Then the strength ratio matches the win ratio", func() {
				So(res.Strengths["A"]/res.Strengths["B"], ShouldAlmostEqual, 3.0, 1e-6)
			})
		})
	})
}

func TestFit_ScaleInvariance(t *testing.T) {
	Convey("Given a fixed contest history and two initial scales", t, func() {
		rng := rand.New(rand.NewSource(7))
		pool := []model.Competitor{"a", "b", "c", "d"}
		rankings := randomRankings(rng, pool, 12)

		uniform := rating.Strengths{"a": 0.25, "b": 0.25, "c": 0.25, "d": 0.25}
		scaled := rating.Strengths{}
		const k = 50.0
		for c, g := range uniform {
			scaled[c] = g * k
		}

		fixedSteps := func(init rating.Strengths, normalize bool) rating.Strengths {
			res, err := rating.New(
				rating.WithNormalize(normalize),
				rating.WithInitialStrengths(init),
				rating.WithTolerance(1e-300),
				rating.WithMaxIterations(5),
			).Fit(context.Background(), rankings)
			So(errors.Is(err, rating.ErrNotConverged), ShouldBeTrue)
			So(res, ShouldNotBeNil)
			So(res.Iterations, ShouldEqual, 5)
			return res.Strengths
		}

		Convey("When normalization is off", func() {
			plain := fixedSteps(uniform, false)
			blown := fixedSteps(scaled, false)

			Convey("Then every iterate scales by the same constant", func() {
				for _, c := range pool {
					So(blown[c], ShouldAlmostEqual, k*plain[c], 1e-9*k)
				}
			})
		})

		Convey("When normalization is on", func() {
			plain := fixedSteps(uniform, true)
			blown := fixedSteps(scaled, true)

			Convey("Then the initial scale is irrelevant", func() {
				for _, c := range pool {
					So(blown[c], ShouldAlmostEqual, plain[c], 1e-12)
				}
			})
		})
	})
}

func TestFit_EngineAgreement(t *testing.T) {
	Convey("Given identical input for both engines", t, func() {
		rng := rand.New(rand.NewSource(42))
		pool := []model.Competitor{"p1", "p2", "p3", "p4", "p5", "p6"}
		rankings := randomRankings(rng, pool, 40)

		Convey("When fitting with reference and matrix engines", func() {
			ref, err := rating.New(rating.WithEngine(rating.EngineReference)).
				Fit(context.Background(), rankings)
			So(err, ShouldBeNil)

			mat, err := rating.New(rating.WithEngine(rating.EngineMatrix)).
				Fit(context.Background(), rankings)
			So(err, ShouldBeNil)

			Convey("Then the fitted strengths agree within 1e-6", func() {
				for _, c := range pool {
					So(math.Abs(ref.Strengths[c]-mat.Strengths[c]), ShouldBeLessThan, 1e-6)
				}
			})
		})

		Convey("When the reference engine runs with several workers", func() {
			serial, err := rating.New(rating.WithWorkers(1)).
				Fit(context.Background(), rankings)
			So(err, ShouldBeNil)

			parallel, err := rating.New(rating.WithWorkers(4)).
				Fit(context.Background(), rankings)
			So(err, ShouldBeNil)

			Convey("Then parallel accumulation changes nothing", func() {
				for _, c := range pool {
					So(math.Abs(serial.Strengths[c]-parallel.Strengths[c]), ShouldBeLessThan, 1e-9)
				}
			})
		})
	})
}

func TestFit_IdempotenceNearFixedPoint(t *testing.T) {
	Convey("Given a converged strength vector", t, func() {
		rng := rand.New(rand.NewSource(11))
		pool := []model.Competitor{"a", "b", "c", "d", "e"}
		rankings := randomRankings(rng, pool, 25)

		first, err := rating.New().Fit(context.Background(), rankings)
		So(err, ShouldBeNil)
		So(first.Converged, ShouldBeTrue)

		Convey("When it is fed back as the initial state", func() {
			again, err := rating.New(
				rating.WithInitialStrengths(first.Strengths),
			).Fit(context.Background(), rankings)
			So(err, ShouldBeNil)

			Convey("Then one further iteration moves it less than tolerance", func() {
				So(again.Iterations, ShouldEqual, 1)
				So(again.Delta, ShouldBeLessThanOrEqualTo, 1e-9)
			})
		})
	})
}

func TestFit_MonotoneRecoverability(t *testing.T) {
	Convey("Given a pool where one bot loses almost everything", t, func() {
		// D finishes last in every multi-way race and beats only C once,
		// which keeps the pool strongly connected.
		rankings := rankingsOf(
			[]model.Competitor{"A", "B", "D"},
			[]model.Competitor{"B", "C", "D"},
			[]model.Competitor{"C", "A", "D"},
			[]model.Competitor{"A", "B", "C", "D"},
			[]model.Competitor{"B", "A", "C", "D"},
			[]model.Competitor{"D", "C"},
		)

		Convey("When fitting", func() {
			res, err := rating.New().Fit(context.Background(), rankings)
			So(err, ShouldBeNil)

			Convey("Then D ranks strictly below everyone who defeated it", func() {
				for _, c := range []model.Competitor{"A", "B", "C"} {
					So(res.Strengths["D"], ShouldBeLessThan, res.Strengths[c])
				}
			})
		})
	})
}

func TestFit_EdgeCases(t *testing.T) {
	Convey("Given degenerate inputs", t, func() {
		Convey("When the rankings collection is empty", func() {
			res, err := rating.New().Fit(context.Background(), nil)
			So(err, ShouldBeNil)
			So(res.Strengths, ShouldBeEmpty)
			So(res.Converged, ShouldBeTrue)
		})

		Convey("When the pool has a single competitor", func() {
			res, err := rating.New().Fit(context.Background(), rankingsOf(
				[]model.Competitor{"solo"},
				[]model.Competitor{"solo"},
			))
			So(err, ShouldBeNil)
			So(res.Strengths["solo"], ShouldEqual, 1.0)
		})

		Convey("When length-1 rankings are mixed into real data", func() {
			res, err := rating.New().Fit(context.Background(), rankingsOf(
				[]model.Competitor{"A", "B"},
				[]model.Competitor{"B", "A"},
				[]model.Competitor{"A"},
				[]model.Competitor{"B"},
			))

			Convey("Then they contribute nothing and cause no division by zero", func() {
				So(err, ShouldBeNil)
				So(math.IsNaN(res.Strengths["A"]), ShouldBeFalse)
				So(math.IsNaN(res.Strengths["B"]), ShouldBeFalse)
				So(res.Strengths["A"], ShouldAlmostEqual, res.Strengths["B"], 1e-6)
			})
		})

		Convey("When a hopeless competitor is fit with the check disabled", func() {
			// Z never beats anyone; the pool is not strongly connected, so
			// the check is skipped deliberately. Zero wins pin Z to zero.
			res, err := rating.New(
				rating.WithConnectivityCheck(false),
			).Fit(context.Background(), rankingsOf(
				[]model.Competitor{"A", "B", "Z"},
				[]model.Competitor{"B", "A", "Z"},
			))
			So(err, ShouldBeNil)
			So(res.Strengths["Z"], ShouldEqual, 0)
			So(res.Strengths["A"], ShouldBeGreaterThan, 0)
		})

		Convey("When an unknown engine is selected", func() {
			_, err := rating.New(rating.WithEngine("quantum")).
				Fit(context.Background(), rankingsOf(
					[]model.Competitor{"A", "B"},
					[]model.Competitor{"B", "A"},
				))
			So(errors.Is(err, rating.ErrUnknownEngine), ShouldBeTrue)
		})

		Convey("When the context is already canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := rating.New().Fit(ctx, rankingsOf(
				[]model.Competitor{"A", "B"},
				[]model.Competitor{"B", "A"},
			))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestFit_IterationCap(t *testing.T) {
	Convey("Given an unreachable tolerance and an iteration cap", t, func() {
		rankings := rankingsOf(
			[]model.Competitor{"A", "B"},
			[]model.Competitor{"B", "A"},
			[]model.Competitor{"A", "B"},
		)

		Convey("When the cap is exhausted", func() {
			res, err := rating.New(
				rating.WithTolerance(1e-300),
				rating.WithMaxIterations(3),
			).Fit(context.Background(), rankings)

			Convey("Then the not-converged outcome carries the last iterate", func() {
				So(errors.Is(err, rating.ErrNotConverged), ShouldBeTrue)
				So(errors.Is(err, rating.ErrIllPosed), ShouldBeFalse)
				So(res, ShouldNotBeNil)
				So(res.Converged, ShouldBeFalse)
				So(res.Iterations, ShouldEqual, 3)
				So(res.Strengths["A"], ShouldBeGreaterThan, 0)
			})
		})
	})
}
