package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gardengod/gardengod/internal/api"
	"github.com/gardengod/gardengod/internal/cache"
	"github.com/gardengod/gardengod/internal/catalog"
	"github.com/gardengod/gardengod/internal/config"
	"github.com/gardengod/gardengod/internal/daemon"
	"github.com/gardengod/gardengod/internal/export"
	"github.com/gardengod/gardengod/internal/health"
	gglog "github.com/gardengod/gardengod/internal/log"
	"github.com/gardengod/gardengod/internal/store"
	"github.com/gardengod/gardengod/internal/telemetry"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe logger defaults until the config is loaded.
	gglog.Configure(gglog.Config{
		Level:   "info",
		Service: "gardengod",
		Version: version,
	})
	logger := gglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Config path: explicit --config wins, otherwise auto-load
	// <data dir>/config.yaml when it exists.
	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		dataDir := strings.TrimSpace(config.ParseString(config.EnvData, "data"))
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectiveConfigPath = autoPath
		}
	}

	loader := config.NewLoader(effectiveConfigPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	gglog.Configure(gglog.Config{
		Level:   cfg.LogLevel,
		Service: "gardengod",
		Version: version,
	})

	if effectiveConfigPath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", effectiveConfigPath).
			Msg("loaded configuration")
	} else {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration")
	}

	if err := run(ctx, cfg, loader, effectiveConfigPath); err != nil {
		logger.Fatal().Err(err).Msg("daemon exited with error")
	}
}

func run(ctx context.Context, cfg config.AppConfig, loader *config.Loader, configPath string) error {
	logger := gglog.WithComponent("daemon")

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Tracing (noop unless an OTLP endpoint is configured).
	tracer, err := telemetry.NewProvider(ctx, telemetry.Config{
		ServiceName:    "gardengod",
		ServiceVersion: version,
		Endpoint:       cfg.OTLPEndpoint,
		SamplingRate:   1.0,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// Plant catalog, fail fast when missing or invalid.
	catalogStore, err := catalog.NewStore(cfg.PlantsFile)
	if err != nil {
		return fmt.Errorf("load plant catalog: %w", err)
	}

	// Saved garden store.
	gardenStore, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open garden store: %w", err)
	}

	// Optional Redis schedule cache.
	var scheduleCache *cache.ScheduleCache
	if cfg.RedisAddr != "" {
		scheduleCache, err = cache.New(cache.Config{
			Addr: cfg.RedisAddr,
			TTL:  cfg.CacheTTL,
		}, gglog.WithComponent("cache"))
		if err != nil {
			return fmt.Errorf("connect schedule cache: %w", err)
		}
	}

	// Schedules cached before a catalog change are stale; drop them on reload.
	if scheduleCache != nil {
		catalogStore.OnReload(func() {
			scheduleCache.Invalidate(context.Background())
		})
	}

	exporter, err := export.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("init exporter: %w", err)
	}

	healthMgr := health.NewManager(version)
	healthMgr.RegisterChecker(health.NewCatalogChecker(catalogStore.Len))
	healthMgr.RegisterChecker(health.NewPingChecker("database", gardenStore))
	healthMgr.RegisterChecker(health.NewDataDirChecker(cfg.DataDir))
	if scheduleCache != nil {
		healthMgr.RegisterChecker(health.NewOptionalPingChecker("redis", scheduleCache))
	}

	apiServer := api.New(api.Deps{
		Config:   cfg,
		Catalog:  catalogStore,
		Store:    gardenStore,
		Cache:    scheduleCache,
		Exporter: exporter,
		Health:   healthMgr,
	})

	deps := daemon.Deps{
		Logger:     gglog.Base(),
		APIHandler: apiServer.Handler(),
	}
	if cfg.MetricsEnabled {
		deps.MetricsAddr = cfg.MetricsAddr
		deps.MetricsHandler = promhttp.Handler()
	}

	manager, err := daemon.NewManager(config.ServerConfigFrom(cfg), deps)
	if err != nil {
		return fmt.Errorf("create daemon manager: %w", err)
	}

	manager.RegisterShutdownHook("garden-store", func(context.Context) error {
		return gardenStore.Close()
	})
	if scheduleCache != nil {
		manager.RegisterShutdownHook("schedule-cache", func(context.Context) error {
			return scheduleCache.Close()
		})
	}
	manager.RegisterShutdownHook("tracer", tracer.Shutdown)

	var cfgHolder *config.Holder
	if configPath != "" {
		cfgHolder = config.NewHolder(cfg, loader, configPath)
	}

	var watchedCatalog *catalog.Store
	if cfg.WatchCatalog {
		watchedCatalog = catalogStore
	}

	logger.Info().
		Str("event", "daemon.starting").
		Str("listen", cfg.ListenAddr).
		Str("data_dir", cfg.DataDir).
		Int("plants", catalogStore.Len()).
		Msg("starting gardengod")

	app := daemon.NewApp(gglog.Base(), manager, cfgHolder, watchedCatalog)
	app.OnConfigReload(func(newCfg config.AppConfig) {
		gglog.Configure(gglog.Config{
			Level:   newCfg.LogLevel,
			Service: "gardengod",
			Version: version,
		})
		logger.Info().
			Str("event", "config.applied").
			Str("log_level", newCfg.LogLevel).
			Msg("applied reloaded configuration")
	})
	return app.Run(ctx)
}
