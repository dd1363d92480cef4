package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/internal/config"
	"github.com/aretw0/stepgrid/internal/logging"
	"github.com/aretw0/stepgrid/pkg/adapters/file"
	loamAdapter "github.com/aretw0/stepgrid/pkg/adapters/loam"
	"github.com/aretw0/stepgrid/pkg/adapters/memory"
	"github.com/aretw0/stepgrid/pkg/adapters/redis"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
	"github.com/aretw0/stepgrid/pkg/session"
)

// Backend is the template store selected by the config, plus the
// distributed lock that comes with it when the store is shared.
type Backend struct {
	Store  ports.TemplateStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the connection held by the store, if any.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend builds the store named by cfg.Backend.
// A Redis backend is pinged so a bad address fails at startup.
func OpenBackend(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return &Backend{Store: memory.NewStore()}, nil
	case config.BackendFile:
		return &Backend{Store: file.New(cfg.Path)}, nil
	case config.BackendRedis:
		store := redis.New(cfg.Address, cfg.Password, cfg.DB,
			redis.WithPrefix(cfg.Prefix+":template:"),
			redis.WithTTL(cfg.TTL),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis %s unreachable: %w", cfg.Address, err)
		}
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), cfg.Prefix+":"),
			close:  store.Close,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.Backend)
}

// OpenLibrary opens the template library directory. A missing directory
// yields (nil, nil) so commands can run without a library.
func OpenLibrary(dir string) (ports.TemplateLoader, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	return loamAdapter.Open(dir)
}

// NewLogger builds the application logger from the log section.
// debug forces the debug level.
func NewLogger(cfg config.LogConfig, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	format, err := logging.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	return logging.NewWithOptions(os.Stderr, level, format), nil
}

// EngineOptions maps the grid section to engine options. In debug mode
// every step and transition is logged to logger.
// Algorithm and logger are left to the caller: templates may name their
// own algorithm and the session manager scopes loggers per session.
func EngineOptions(cfg config.Config, logger *slog.Logger, debug bool) []stepgrid.Option {
	var opts []stepgrid.Option
	if cfg.Grid.Seed != 0 {
		opts = append(opts, stepgrid.WithSeed(cfg.Grid.Seed))
	}
	if debug {
		opts = append(opts, stepgrid.WithLifecycleHooks(createDebugHooks(logger)))
	}
	return opts
}

// NewManager builds the session manager shared by the HTTP and MCP servers.
func NewManager(cfg config.Config, backend *Backend, logger *slog.Logger, hooks domain.LifecycleHooks, debug bool) *session.Manager {
	engineOpts := append(EngineOptions(cfg, logger, debug), stepgrid.WithAlgorithm(cfg.Algorithm()))

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithLifecycleHooks(hooks),
		session.WithEngineOptions(engineOpts...),
		session.WithDefaultSize(cfg.Grid.Columns, cfg.Grid.Rows),
		session.WithLockTTL(cfg.Store.LockTTL),
	}
	if cfg.Grid.MaxSteps > 0 {
		opts = append(opts, session.WithMaxSteps(cfg.Grid.MaxSteps))
	}
	if backend.Locker != nil {
		opts = append(opts, session.WithLocker(backend.Locker))
	}
	return session.NewManager(backend.Store, opts...)
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(e *domain.StepEvent) {
			logger.Debug("Step", "step", e.Step, "status", e.Status, "frontier", e.FrontierSize)
		},
		OnStatusChange: func(e *domain.StatusEvent) {
			logger.Debug("Status", "from", e.From, "to", e.To, "steps", e.Steps)
		},
	}
}
