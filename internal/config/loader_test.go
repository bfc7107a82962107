package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/config"
)

var configEnvVars = []string{ //nolint:gochecknoglobals // test helper
	"ROSTER_CONFIG",
	"ROSTER_WORKER_COUNT",
	"ROSTER_LOG__LEVEL",
	"ROSTER_OPTIMIZER__SOLVER_TIMEOUT",
	"ROSTER_OPTIMIZER__MAX_CHANGES",
	"ROSTER_FEEDBACK__AUTO_FINE_TUNE",
	"ROSTER_STORAGE__DRIVER",
}

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should match New", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ROSTER_WORKER_COUNT", "16")
			_ = os.Setenv("ROSTER_LOG__LEVEL", "debug")
			_ = os.Setenv("ROSTER_OPTIMIZER__SOLVER_TIMEOUT", "2s")
			_ = os.Setenv("ROSTER_FEEDBACK__AUTO_FINE_TUNE", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then nested keys are split on double underscores", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.Log.Level, convey.ShouldEqual, "debug")
				convey.So(cfg.Optimizer.SolverTimeout, convey.ShouldEqual, 2*time.Second)
				convey.So(cfg.Feedback.AutoFineTune, convey.ShouldBeTrue)
				convey.So(cfg.Optimizer.MaxChanges, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := createTempConfigFile(t, `
worker_count: 24
features:
  window: 4
optimizer:
  max_changes: 3
  breaker:
    max_failures: 5
storage:
  redis:
    addr: "localhost:6379"
source:
  path: league.yaml
`)
			_ = os.Setenv("ROSTER_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values merge with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.Features.Window, convey.ShouldEqual, 4)
				convey.So(cfg.Features.Decay, convey.ShouldEqual, 0.9)
				convey.So(cfg.Optimizer.MaxChanges, convey.ShouldEqual, 3)
				convey.So(cfg.Optimizer.Breaker.MaxFailures, convey.ShouldEqual, 5)
				convey.So(cfg.Optimizer.Breaker.OpenTimeout, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.Storage.Redis.Addr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.Source.Path, convey.ShouldEqual, "league.yaml")
			})

			convey.Convey("Then environment variables override the file", func() {
				_ = os.Setenv("ROSTER_OPTIMIZER__MAX_CHANGES", "1")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Optimizer.MaxChanges, convey.ShouldEqual, 1)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
			})
		})

		convey.Convey("When loading config with invalid YAML", func() {
			_ = os.Setenv("ROSTER_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("ROSTER_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the loaded values are invalid", func() {
			_ = os.Setenv("ROSTER_STORAGE__DRIVER", "postgres")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "storage.dsn")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
