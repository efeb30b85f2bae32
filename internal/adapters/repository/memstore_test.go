package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/podium/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func board() []repository.Entry {
	return []repository.Entry{
		{Competitor: "gamma", Strength: 0.2, DisplayName: "Gamma", Active: true},
		{Competitor: "alpha", Strength: 0.5, DisplayName: "Alpha", Active: true},
		{Competitor: "beta", Strength: 0.3, DisplayName: "Beta", Active: false},
	}
}

func TestMemStore(t *testing.T) {
	Convey("Given a store with a fitted board", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)
		So(store.ReplaceAll(ctx, board()), ShouldBeNil)

		Convey("When reading the top of the board", func() {
			top, err := store.TopN(ctx, 2)
			So(err, ShouldBeNil)

			Convey("Then rows come back sorted and ranked", func() {
				So(top, ShouldHaveLength, 2)
				So(string(top[0].Competitor), ShouldEqual, "alpha")
				So(top[0].Rank, ShouldEqual, 1)
				So(string(top[1].Competitor), ShouldEqual, "beta")
				So(top[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When asking for more rows than exist", func() {
			top, err := store.TopN(ctx, 50)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 3)
		})

		Convey("When asking for a non-positive limit", func() {
			_, err := store.TopN(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When looking up a single competitor", func() {
			entry, err := store.Rank(ctx, "gamma")
			So(err, ShouldBeNil)
			So(entry.Rank, ShouldEqual, 3)
			So(entry.DisplayName, ShouldEqual, "Gamma")
		})

		Convey("When looking up an unknown competitor", func() {
			_, err := store.Rank(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a refit replaces the whole board", func() {
			So(store.ReplaceAll(ctx, []repository.Entry{
				{Competitor: "beta", Strength: 0.9},
			}), ShouldBeNil)

			Convey("Then old rows are gone", func() {
				So(store.Count(ctx), ShouldEqual, 1)
				_, err := store.Rank(ctx, "alpha")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				entry, err := store.Rank(ctx, "beta")
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 1)
			})
		})

		Convey("When entries tie on strength", func() {
			So(store.ReplaceAll(ctx, []repository.Entry{
				{Competitor: "zeta", Strength: 0.5},
				{Competitor: "eta", Strength: 0.5},
			}), ShouldBeNil)

			Convey("Then rank order falls back to the competitor id", func() {
				top, err := store.TopN(ctx, 2)
				So(err, ShouldBeNil)
				So(string(top[0].Competitor), ShouldEqual, "eta")
				So(string(top[1].Competitor), ShouldEqual, "zeta")
			})
		})

		Convey("When the same competitor appears twice", func() {
			err := store.ReplaceAll(ctx, []repository.Entry{
				{Competitor: "dup", Strength: 0.5},
				{Competitor: "dup", Strength: 0.4},
			})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestMemStoreConcurrency(t *testing.T) {
	Convey("Given concurrent readers and a writer", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)
		So(store.ReplaceAll(ctx, board()), ShouldBeNil)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 200; j++ {
					_, _ = store.TopN(ctx, 3)
					_, _ = store.Rank(ctx, "alpha")
					_ = store.Count(ctx)
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = store.ReplaceAll(ctx, board())
			}
		}()

		Convey("Then the snapshot swap stays race-free", func() {
			So(func() { wg.Wait() }, ShouldNotPanic)
		})
	})
}
