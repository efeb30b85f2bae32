package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/podium/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given no file and no env overrides", t, func() {
		t.Setenv("PODIUM_CONFIG", "")

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)

			Convey("Then defaults are in effect", func() {
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.Tolerance, ShouldEqual, 1e-9)
				So(cfg.MaxIterations, ShouldEqual, 0)
				So(cfg.Engine, ShouldEqual, "reference")
				So(cfg.Normalize, ShouldBeTrue)
				So(cfg.CheckConnectivity, ShouldBeTrue)
				So(cfg.ResultsFormat, ShouldEqual, "tsv")
			})
		})
	})
}

func TestFileAndEnvLayering(t *testing.T) {
	Convey("Given a YAML file and env overrides", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		yaml := []byte("addr: \":7070\"\nengine: matrix\nmax_iterations: 500\n")
		So(os.WriteFile(path, yaml, 0o600), ShouldBeNil)

		t.Setenv("PODIUM_CONFIG", path)
		t.Setenv("PODIUM_ADDR", ":6060")

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)

			Convey("Then env beats file beats defaults", func() {
				So(cfg.Addr, ShouldEqual, ":6060")
				So(cfg.Engine, ShouldEqual, "matrix")
				So(cfg.MaxIterations, ShouldEqual, 500)
				So(cfg.Tolerance, ShouldEqual, 1e-9)
			})
		})
	})
}

func TestValidation(t *testing.T) {
	Convey("Given invalid settings", t, func() {
		t.Setenv("PODIUM_CONFIG", "")

		cases := map[string]string{
			"PODIUM_ADDR":           "",
			"PODIUM_ENGINE":         "quantum",
			"PODIUM_RESULTS_FORMAT": "xml",
		}
		for key, value := range cases {
			Convey("When "+key+" is "+value, func() {
				t.Setenv(key, value)
				_, err := config.Load(context.Background())
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		}
	})
}

func TestMissingExplicitFile(t *testing.T) {
	Convey("Given PODIUM_CONFIG pointing at a missing file", t, func() {
		t.Setenv("PODIUM_CONFIG", "/nonexistent/podium.yaml")

		Convey("When loading", func() {
			_, err := config.Load(context.Background())

			Convey("Then a load error is returned", func() {
				So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
			})
		})
	})
}
