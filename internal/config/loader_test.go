package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given no environment overrides", t, func() {
		Convey("Load returns the defaults", func() {
			cfg, err := Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.CatalogBackend, ShouldEqual, CatalogMemory)
			So(cfg.SessionBackend, ShouldEqual, SessionsMemory)
			So(cfg.DefaultMaxItems, ShouldEqual, 10)
		})
	})

	Convey("Given environment overrides", t, func() {
		t.Setenv("ADAPT_ADDR", ":7070")
		t.Setenv("ADAPT_DEFAULT_MAX_ITEMS", "5")
		t.Setenv("ADAPT_LOG_LEVEL", "debug")
		Reset(func() {
			os.Unsetenv("ADAPT_ADDR")
			os.Unsetenv("ADAPT_DEFAULT_MAX_ITEMS")
			os.Unsetenv("ADAPT_LOG_LEVEL")
		})

		Convey("Env values win over defaults", func() {
			cfg, err := Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.DefaultMaxItems, ShouldEqual, 5)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})
	})

	Convey("Given a YAML config file", t, func() {
		path := filepath.Join(t.TempDir(), "config.yaml")
		yaml := "addr: \":6060\"\nmax_rank_k: 25\n"
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
		t.Setenv("ADAPT_CONFIG", path)

		Convey("File values win over defaults", func() {
			cfg, err := Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.MaxRankK, ShouldEqual, 25)
		})

		Convey("Env values win over the file", func() {
			t.Setenv("ADAPT_ADDR", ":5050")
			cfg, err := Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":5050")
		})
	})

	Convey("Given invalid settings", t, func() {
		Convey("An unknown catalog backend is rejected", func() {
			t.Setenv("ADAPT_CATALOG_BACKEND", "sqlite")
			_, err := Load(ctx)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("The postgres catalog requires a DSN", func() {
			t.Setenv("ADAPT_CATALOG_BACKEND", "postgres")
			_, err := Load(ctx)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A missing config file fails the load", func() {
			t.Setenv("ADAPT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := Load(ctx)
			So(errors.Is(err, ErrLoadConfig), ShouldBeTrue)
		})
	})
}
