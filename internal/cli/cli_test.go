package cli

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/okian/podium/internal/adapters/source"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRootCommand(t *testing.T) {
	Convey("Given the command tree", t, func() {
		root := Root()

		Convey("Then every subcommand is registered", func() {
			names := make(map[string]bool)
			for _, c := range root.Commands() {
				names[c.Name()] = true
			}
			So(names["rate"], ShouldBeTrue)
			So(names["serve"], ShouldBeTrue)
			So(names["simulate"], ShouldBeTrue)
		})

		Convey("Then the version is stamped", func() {
			So(root.Version, ShouldNotBeEmpty)
		})
	})
}

func TestSimulateRoundTrip(t *testing.T) {
	Convey("Given a simulated results file", t, func() {
		out := filepath.Join(t.TempDir(), "results.tsv")

		root := Root()
		root.SetArgs([]string{
			"simulate",
			"--bots", "4",
			"--contests", "30",
			"--seed", "7",
			"--output", out,
		})
		So(root.Execute(), ShouldBeNil)

		Convey("When it is loaded back through the file source", func() {
			contests, err := source.NewFileSource(out).Load(context.Background())
			So(err, ShouldBeNil)

			Convey("Then every generated contest survives the round trip", func() {
				So(contests, ShouldHaveLength, 30)
				for _, c := range contests {
					So(len(c.Placements), ShouldBeGreaterThanOrEqualTo, 2)
					for competitor, finish := range c.Placements {
						So(string(competitor), ShouldStartWith, "bot-")
						So(finish, ShouldBeGreaterThanOrEqualTo, 1)
					}
				}
			})
		})
	})
}

func TestSimulateRejectsTinyPools(t *testing.T) {
	Convey("Given a simulate call with a single bot", t, func() {
		root := Root()
		root.SetArgs([]string{"simulate", "--bots", strconv.Itoa(1)})

		Convey("Then it is refused", func() {
			So(root.Execute(), ShouldNotBeNil)
		})
	})
}
