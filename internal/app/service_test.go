package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/rating"
	"github.com/okian/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

// staticSource is a canned Source for batch loading tests.
type staticSource struct {
	contests []model.Contest
}

func (s staticSource) Load(context.Context) ([]model.Contest, error) {
	return s.contests, nil
}

// contest builds a Contest from a finish order, first place first.
func contest(id string, order ...model.Competitor) model.Contest {
	placements := make(map[model.Competitor]int, len(order))
	for i, c := range order {
		placements[c] = i + 1
	}
	return model.Contest{ID: id, Placements: placements}
}

// cycle is the smallest strongly connected history: every competitor
// beats and loses to every other.
func cycle(prefix string) []model.Contest {
	return []model.Contest{
		contest(prefix+"-1", "a", "b", "c"),
		contest(prefix+"-2", "b", "c", "a"),
		contest(prefix+"-3", "c", "a", "b"),
	}
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestBatchLoading(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a connected history is loaded", func() {
			So(svc.LoadFrom(ctx, staticSource{contests: cycle("c")}), ShouldBeNil)

			Convey("Then the board is published with normalized strengths", func() {
				top, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)

				var sum float64
				for _, e := range top {
					sum += e.Strength
				}
				So(sum, ShouldAlmostEqual, 1.0, 1e-9)
				So(top[0].Rank, ShouldEqual, 1)
			})

			Convey("And fit diagnostics are exposed", func() {
				res := svc.LastFit()
				So(res, ShouldNotBeNil)
				So(res.Converged, ShouldBeTrue)
				So(res.Iterations, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the same contests are loaded twice", func() {
			So(svc.LoadFrom(ctx, staticSource{contests: cycle("c")}), ShouldBeNil)
			So(svc.LoadFrom(ctx, staticSource{contests: cycle("c")}), ShouldBeNil)

			Convey("Then duplicates do not grow the history", func() {
				So(svc.History(), ShouldHaveLength, 3)
			})
		})
	})
}

func TestAsyncSubmission(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When contests arrive through the queue", func() {
			for _, c := range cycle("q") {
				So(svc.Enqueue(ctx, c), ShouldBeTrue)
			}

			Convey("Then the board is eventually refitted", func() {
				So(eventually(func() bool {
					top, err := svc.TopN(ctx, 10)
					return err == nil && len(top) == 3
				}), ShouldBeTrue)
			})
		})

		Convey("When duplicate IDs are checked", func() {
			So(svc.SeenAndRecord(ctx, "dup-1"), ShouldBeFalse)
			So(svc.SeenAndRecord(ctx, "dup-1"), ShouldBeTrue)

			Convey("And unrecording allows a retry", func() {
				svc.Unrecord(ctx, "dup-1")
				So(svc.SeenAndRecord(ctx, "dup-1"), ShouldBeFalse)
			})
		})
	})
}

func TestStopDrainsQueue(t *testing.T) {
	Convey("Given a service with queued submissions", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)

		for _, c := range cycle("d") {
			So(svc.Enqueue(ctx, c), ShouldBeTrue)
		}

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then every submission was folded into the history", func() {
				So(svc.History(), ShouldHaveLength, 3)
			})
		})
	})
}

func TestIllPosedHistoryKeepsBoard(t *testing.T) {
	Convey("Given a service with a fitted board", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		So(svc.LoadFrom(ctx, staticSource{contests: cycle("c")}), ShouldBeNil)

		Convey("When a disconnected contest arrives", func() {
			err := svc.LoadFrom(ctx, staticSource{contests: []model.Contest{
				contest("island", "x", "y"),
			}})

			Convey("Then the refit is rejected and the old board survives", func() {
				So(errors.Is(err, rating.ErrIllPosed), ShouldBeTrue)
				top, terr := svc.TopN(ctx, 10)
				So(terr, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
			})
		})
	})
}

func TestExcludeInactive(t *testing.T) {
	Convey("Given a service with an inactive competitor", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithRoster(model.Roster{
				"a": {DisplayName: "Alpha", Active: true},
				"b": {DisplayName: "Beta", Active: false},
				"c": {DisplayName: "Gamma", Active: true},
			}),
			service.WithExcludeInactive(true),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		So(svc.LoadFrom(ctx, staticSource{contests: cycle("c")}), ShouldBeNil)

		Convey("Then reads hide the inactive row and rescale the rest", func() {
			top, err := svc.TopN(ctx, 10)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 2)

			var sum float64
			for _, e := range top {
				So(e.Competitor, ShouldNotEqual, model.Competitor("b"))
				sum += e.Strength
			}
			So(sum, ShouldAlmostEqual, 1.0, 1e-9)
			So(top[0].Rank, ShouldEqual, 1)
			So(top[1].Rank, ShouldEqual, 2)
		})

		Convey("Then single lookups respect the filter too", func() {
			_, err := svc.Rank(ctx, "b")
			So(err, ShouldNotBeNil)

			entry, err := svc.Rank(ctx, "a")
			So(err, ShouldBeNil)
			So(entry.DisplayName, ShouldEqual, "Alpha")
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a started service with history", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithEngine(rating.EngineMatrix))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		So(svc.LoadFrom(ctx, staticSource{contests: cycle("c")}), ShouldBeNil)

		Convey("Then stats expose the fitting state", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["engine"], ShouldEqual, "matrix")
			So(stats["contests"], ShouldEqual, 3)
			So(stats["competitors"], ShouldEqual, 3)
			So(stats["converged"], ShouldBeTrue)
		})
	})
}
