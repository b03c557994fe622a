package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gardengod/gardengod/internal/catalog"
	"github.com/gardengod/gardengod/internal/config"
)

// App owns the long-lived runtime lifecycle (config and catalog watchers,
// reload signals) and delegates server management to Manager.
type App struct {
	logger         zerolog.Logger
	manager        Manager
	cfgHolder      *config.Holder
	catalogStore   *catalog.Store
	reloadSignal   os.Signal
	onConfigReload func(config.AppConfig)
}

// NewApp creates an App orchestrator. cfgHolder and catalogStore may be nil
// when hot reload is disabled.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.Holder, catalogStore *catalog.Store) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		catalogStore: catalogStore,
		reloadSignal: syscall.SIGHUP,
	}
}

// OnConfigReload registers a callback invoked with each successfully reloaded
// configuration. Must be called before Run.
func (a *App) OnConfigReload(fn func(config.AppConfig)) {
	a.onConfigReload = fn
}

// Run starts the background subsystems and blocks until ctx is cancelled
// or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Watchers are best-effort: startup must not fail if one cannot start.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}
	}
	if a.catalogStore != nil {
		if err := a.catalogStore.Watch(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "catalog.watcher_start_failed").Msg("failed to start catalog watcher")
		}
	}

	// Deliver reloaded configs to the registered consumer.
	if a.cfgHolder != nil && a.onConfigReload != nil {
		updates := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(updates)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-updates:
					a.onConfigReload(cfg)
				}
			}
		})
	}

	// SIGHUP reloads config and catalog on demand.
	if a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal")

					if a.cfgHolder != nil {
						if err := a.cfgHolder.Reload(context.Background()); err != nil {
							a.logger.Warn().Err(err).Str("event", "config.reload_failed").Msg("config reload failed")
						}
					}
					if a.catalogStore != nil {
						if err := a.catalogStore.Reload(); err != nil {
							a.logger.Warn().Err(err).Str("event", "catalog.reload_failed").Msg("catalog reload failed")
						}
					}
				}
			}
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}
