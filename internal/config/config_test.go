package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Log.Level, convey.ShouldEqual, "info")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.Features.Window, convey.ShouldEqual, 6)
			convey.So(cfg.Features.Decay, convey.ShouldEqual, 0.9)
			convey.So(cfg.Predictor.Family, convey.ShouldEqual, "ridge")
			convey.So(cfg.Optimizer.TransactionPenalty, convey.ShouldEqual, 4)
			convey.So(cfg.Optimizer.SolverTimeout, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.Feedback.BlendWeight, convey.ShouldEqual, 0.9)
			convey.So(cfg.Storage.Driver, convey.ShouldEqual, config.StorageMemory)
			convey.So(cfg.Storage.Redis.TTL, convey.ShouldEqual, 10*time.Minute)
		})

		convey.Convey("Then it should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with out of range values", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"worker count", func(c *config.Config) { c.WorkerCount = 0 }},
			{"window", func(c *config.Config) { c.Features.Window = 0 }},
			{"decay", func(c *config.Config) { c.Features.Decay = 1.5 }},
			{"opponent cap", func(c *config.Config) { c.Features.OpponentCap = 1 }},
			{"family", func(c *config.Config) { c.Predictor.Family = "" }},
			{"ridge", func(c *config.Config) { c.Predictor.Ridge = -1 }},
			{"heuristic factor", func(c *config.Config) { c.Predictor.HeuristicFactor = 0 }},
			{"penalty", func(c *config.Config) { c.Optimizer.TransactionPenalty = -1 }},
			{"max changes", func(c *config.Config) { c.Optimizer.MaxChanges = -1 }},
			{"solver timeout", func(c *config.Config) { c.Optimizer.SolverTimeout = 0 }},
			{"blend weight", func(c *config.Config) { c.Feedback.BlendWeight = 2 }},
			{"postgres without dsn", func(c *config.Config) { c.Storage.Driver = config.StoragePostgres }},
			{"unknown driver", func(c *config.Config) { c.Storage.Driver = "sqlite" }},
		}

		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" is rejected", func() {
				cfg := config.New()
				tc.mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then postgres with a dsn is accepted", func() {
			cfg := config.New()
			cfg.Storage.Driver = config.StoragePostgres
			cfg.Storage.DSN = "postgres://localhost/roster"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
