package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/http/ops"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/repository"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/adapters/source"
	service "github.com/vituk123/fpl-ai-thinktank4-sub000/internal/app"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/config"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

// Output formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var errNoDataset = errors.New("no dataset: set --data or source.path")

// cli carries the state shared by every subcommand.
type cli struct {
	configPath string
	dataPath   string
	format     string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "roster",
		Short: "Fantasy roster recommendation engine",
		Long: `roster projects athlete points for an upcoming period, recommends the
roster changes with the best expected gain net of transaction cost, and
validates past projections against realised outcomes.

Configuration is layered: defaults, then the YAML file named by --config or
ROSTER_CONFIG, then ROSTER_ environment variables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&c.dataPath, "data", "", "League dataset (.json, .yaml); overrides source.path")
	root.PersistentFlags().StringVar(&c.format, "output", formatJSON, "Output format: json or yaml")

	root.AddCommand(
		c.trainCmd(),
		c.projectCmd(),
		c.recommendCmd(),
		c.acceptCmd(),
		c.validateCmd(),
	)
	return root
}

// setup loads configuration and applies the logging settings.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.format != formatJSON && c.format != formatYAML {
		return fmt.Errorf("unknown output format %q", c.format)
	}
	if c.configPath != "" {
		if err := os.Setenv(config.EnvConfigPath, c.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if c.dataPath != "" {
		cfg.Source.Path = c.dataPath
	}
	c.cfg = cfg

	if err := logger.Init(logger.WithFormat(cfg.Log.Format), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return err
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.Log.Level); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log level; falling back to info",
			logger.String("level", cfg.Log.Level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// engine is one opened service over the configured dataset and store.
type engine struct {
	src  *source.Memory
	svc  *service.Service
	path string
}

func (c *cli) open(ctx context.Context) (*engine, error) {
	path := c.cfg.Source.Path
	if path == "" {
		return nil, errNoDataset
	}
	src, err := source.LoadFile(path)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	svc := service.New(src, store, service.FromConfig(c.cfg)...)

	if c.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		ops.NewServer(svc).Register(mux)
		go func() {
			if err := ops.ListenAndServe(ctx, c.cfg.MetricsAddr, mux); err != nil {
				logger.Get().Error(ctx, "ops server failed", logger.Error(err))
			}
		}()
	}
	return &engine{src: src, svc: svc, path: path}, nil
}

func (e *engine) close(ctx context.Context) {
	if err := e.svc.Stop(); err != nil {
		logger.Get().Error(ctx, "failed to close store", logger.Error(err))
	}
}

// save writes the (possibly updated) dataset back to its file.
func (e *engine) save() error {
	return source.WriteFile(e.path, e.src.Snapshot())
}

// openStore selects the persistence backend. A Redis address adds the
// projection cache in front of it.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	var store repository.Store
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pg, err := repository.OpenPostgres(ctx, cfg.Storage.DSN, repository.PoolConfig{
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		store = pg
	default:
		store = repository.NewMemoryStore()
	}

	if cfg.Storage.Redis.Addr == "" {
		return store, nil
	}
	client, err := repository.NewRedisClient(ctx, cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	return repository.NewCachedStore(store, client, cfg.Storage.Redis.TTL), nil
}

func (c *cli) print(w io.Writer, v any) error {
	if c.format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
