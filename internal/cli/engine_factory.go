package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
)

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	Debug      bool
	// Metrics registers prometheus collectors; serve sets it.
	Metrics bool
}

// App is an engine assembled from an application file.
type App struct {
	Config   *config.Config
	Engine   *arbor.Engine
	Backend  *config.Backend
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Close releases the snapshot store.
func (a *App) Close() error {
	return a.Backend.Close()
}

// NewApp loads the config file and initializes an engine with standard CLI
// conventions: logs go to logOut, debug forces the debug level and
// hook-level logging.
func NewApp(opts Options, logOut io.Writer) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
	}
	logger, err := cfg.Logger(logOut)
	if err != nil {
		return nil, err
	}

	root, err := cfg.Definitions()
	if err != nil {
		return nil, fmt.Errorf("components: %w", err)
	}
	engineOpts, err := engineOptions(cfg)
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts, arbor.WithLogger(logger))
	if opts.Debug {
		engineOpts = append(engineOpts, arbor.WithRouterHooks(observability.LoggingHooks(logger)))
	}

	app := &App{Config: cfg, Logger: logger}
	if opts.Metrics {
		app.Registry = prometheus.NewRegistry()
		engineOpts = append(engineOpts, arbor.WithMetrics(app.Registry))
	}

	app.Backend, err = cfg.OpenStore()
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts, arbor.WithStore(app.Backend.Store))
	if app.Backend.Locker != nil {
		engineOpts = append(engineOpts, arbor.WithLocker(app.Backend.Locker))
	}

	app.Engine, err = arbor.New(root, engineOpts...)
	if err != nil {
		app.Backend.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return app, nil
}

func engineOptions(cfg *config.Config) ([]arbor.Option, error) {
	mode, err := domain.ParseRoutingMode(cfg.Router.Mode)
	if err != nil {
		return nil, err
	}
	deferUntil, err := domain.ParseDeferUntil(cfg.Router.DeferUntil)
	if err != nil {
		return nil, err
	}
	swap, err := domain.ParseSwapStrategy(cfg.Router.Swap)
	if err != nil {
		return nil, err
	}
	return []arbor.Option{
		arbor.WithRoutingMode(mode),
		arbor.WithDeferUntil(deferUntil),
		arbor.WithSwapStrategy(swap),
		arbor.WithHookTimeout(cfg.Router.HookTimeout),
	}, nil
}
