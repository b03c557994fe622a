package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Env var keys. Kept in one place so the loader and docs cannot drift.
const (
	EnvListen           = "GARDENGOD_LISTEN"
	EnvData             = "GARDENGOD_DATA"
	EnvPlantsFile       = "GARDENGOD_PLANTS_FILE"
	EnvDBPath           = "GARDENGOD_DB_PATH"
	EnvAPIToken         = "GARDENGOD_API_TOKEN"
	EnvLogLevel         = "GARDENGOD_LOG_LEVEL"
	EnvMetricsEnabled   = "GARDENGOD_METRICS_ENABLED"
	EnvMetricsAddr      = "GARDENGOD_METRICS_ADDR"
	EnvOTLPEndpoint     = "GARDENGOD_OTLP_ENDPOINT"
	EnvRedisAddr        = "GARDENGOD_REDIS_ADDR"
	EnvCacheTTL         = "GARDENGOD_CACHE_TTL"
	EnvRateLimitEnabled = "GARDENGOD_RATE_LIMIT_ENABLED"
	EnvRateLimitRPM     = "GARDENGOD_RATE_LIMIT_RPM"
	EnvRateLimitBurst   = "GARDENGOD_RATE_LIMIT_BURST"
	EnvAllowedOrigins   = "GARDENGOD_ALLOWED_ORIGINS"
	EnvWatchCatalog     = "GARDENGOD_WATCH_CATALOG"
	EnvReadTimeout      = "GARDENGOD_READ_TIMEOUT"
	EnvWriteTimeout     = "GARDENGOD_WRITE_TIMEOUT"
	EnvIdleTimeout      = "GARDENGOD_IDLE_TIMEOUT"
	EnvShutdownTimeout  = "GARDENGOD_SHUTDOWN_TIMEOUT"
)

// fileConfig mirrors AppConfig for YAML decoding. Pointer fields distinguish
// "absent" from zero values so the file only overrides what it sets.
type fileConfig struct {
	ListenAddr       *string        `yaml:"listenAddr"`
	DataDir          *string        `yaml:"dataDir"`
	PlantsFile       *string        `yaml:"plantsFile"`
	DBPath           *string        `yaml:"dbPath"`
	APIToken         *string        `yaml:"apiToken"`
	LogLevel         *string        `yaml:"logLevel"`
	MetricsEnabled   *bool          `yaml:"metricsEnabled"`
	MetricsAddr      *string        `yaml:"metricsAddr"`
	OTLPEndpoint     *string        `yaml:"otlpEndpoint"`
	RedisAddr        *string        `yaml:"redisAddr"`
	CacheTTL         *time.Duration `yaml:"cacheTTL"`
	RateLimitEnabled *bool          `yaml:"rateLimitEnabled"`
	RateLimitRPM     *int           `yaml:"rateLimitRPM"`
	RateLimitBurst   *int           `yaml:"rateLimitBurst"`
	AllowedOrigins   []string       `yaml:"allowedOrigins"`
	WatchCatalog     *bool          `yaml:"watchCatalog"`
	ReadTimeout      *time.Duration `yaml:"readTimeout"`
	WriteTimeout     *time.Duration `yaml:"writeTimeout"`
	IdleTimeout      *time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout  *time.Duration `yaml:"shutdownTimeout"`
}

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. An empty configPath means
// ENV-only configuration.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Defaults returns the built-in configuration defaults.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr:       ":8686",
		DataDir:          "data",
		PlantsFile:       "", // resolved against DataDir when empty
		DBPath:           "", // resolved against DataDir when empty
		LogLevel:         "info",
		MetricsEnabled:   true,
		MetricsAddr:      ":9090",
		CacheTTL:         15 * time.Minute,
		RateLimitEnabled: true,
		RateLimitRPM:     600,
		RateLimitBurst:   50,
		WatchCatalog:     true,
		ReadTimeout:      10 * time.Second,
		WriteTimeout:     30 * time.Second,
		IdleTimeout:      120 * time.Second,
		ShutdownTimeout:  15 * time.Second,
	}
}

// Load loads configuration in strict order: defaults, file, env, then
// validation. A missing config file is only an error when the path was
// explicitly provided.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		if err := applyFile(&cfg, l.configPath); err != nil {
			return AppConfig{}, err
		}
	}

	applyEnv(&cfg)
	resolvePaths(&cfg)

	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-provided config path
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	setIf(&cfg.ListenAddr, fc.ListenAddr)
	setIf(&cfg.DataDir, fc.DataDir)
	setIf(&cfg.PlantsFile, fc.PlantsFile)
	setIf(&cfg.DBPath, fc.DBPath)
	setIf(&cfg.APIToken, fc.APIToken)
	setIf(&cfg.LogLevel, fc.LogLevel)
	setIf(&cfg.MetricsEnabled, fc.MetricsEnabled)
	setIf(&cfg.MetricsAddr, fc.MetricsAddr)
	setIf(&cfg.OTLPEndpoint, fc.OTLPEndpoint)
	setIf(&cfg.RedisAddr, fc.RedisAddr)
	setIf(&cfg.CacheTTL, fc.CacheTTL)
	setIf(&cfg.RateLimitEnabled, fc.RateLimitEnabled)
	setIf(&cfg.RateLimitRPM, fc.RateLimitRPM)
	setIf(&cfg.RateLimitBurst, fc.RateLimitBurst)
	setIf(&cfg.WatchCatalog, fc.WatchCatalog)
	setIf(&cfg.ReadTimeout, fc.ReadTimeout)
	setIf(&cfg.WriteTimeout, fc.WriteTimeout)
	setIf(&cfg.IdleTimeout, fc.IdleTimeout)
	setIf(&cfg.ShutdownTimeout, fc.ShutdownTimeout)
	if fc.AllowedOrigins != nil {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	cfg.ListenAddr = ParseString(EnvListen, cfg.ListenAddr)
	cfg.DataDir = ParseString(EnvData, cfg.DataDir)
	cfg.PlantsFile = ParseString(EnvPlantsFile, cfg.PlantsFile)
	cfg.DBPath = ParseString(EnvDBPath, cfg.DBPath)
	cfg.APIToken = ParseString(EnvAPIToken, cfg.APIToken)
	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)
	cfg.MetricsEnabled = ParseBool(EnvMetricsEnabled, cfg.MetricsEnabled)
	cfg.MetricsAddr = ParseString(EnvMetricsAddr, cfg.MetricsAddr)
	cfg.OTLPEndpoint = ParseString(EnvOTLPEndpoint, cfg.OTLPEndpoint)
	cfg.RedisAddr = ParseString(EnvRedisAddr, cfg.RedisAddr)
	cfg.CacheTTL = ParseDuration(EnvCacheTTL, cfg.CacheTTL)
	cfg.RateLimitEnabled = ParseBool(EnvRateLimitEnabled, cfg.RateLimitEnabled)
	cfg.RateLimitRPM = ParseInt(EnvRateLimitRPM, cfg.RateLimitRPM)
	cfg.RateLimitBurst = ParseInt(EnvRateLimitBurst, cfg.RateLimitBurst)
	cfg.WatchCatalog = ParseBool(EnvWatchCatalog, cfg.WatchCatalog)
	cfg.ReadTimeout = ParseDuration(EnvReadTimeout, cfg.ReadTimeout)
	cfg.WriteTimeout = ParseDuration(EnvWriteTimeout, cfg.WriteTimeout)
	cfg.IdleTimeout = ParseDuration(EnvIdleTimeout, cfg.IdleTimeout)
	cfg.ShutdownTimeout = ParseDuration(EnvShutdownTimeout, cfg.ShutdownTimeout)
	if raw, ok := os.LookupEnv(EnvAllowedOrigins); ok {
		cfg.AllowedOrigins = splitCSV(raw)
	}
}

// resolvePaths fills in data-dir-relative defaults after DataDir is final.
func resolvePaths(cfg *AppConfig) {
	if cfg.PlantsFile == "" {
		cfg.PlantsFile = filepath.Join(cfg.DataDir, "plants.json")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "gardengod.db")
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
