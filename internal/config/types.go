// Package config loads and validates service configuration with
// precedence ENV > file > defaults.
package config

import "time"

// AppConfig holds the complete runtime configuration of the service.
type AppConfig struct {
	// HTTP
	ListenAddr     string
	AllowedOrigins []string

	// Data
	DataDir    string
	PlantsFile string
	DBPath     string

	// Auth
	APIToken string

	// Observability
	LogLevel       string
	MetricsEnabled bool
	MetricsAddr    string
	OTLPEndpoint   string

	// Schedule cache
	RedisAddr string
	CacheTTL  time.Duration

	// Rate limiting
	RateLimitEnabled bool
	RateLimitRPM     int
	RateLimitBurst   int

	// Catalog hot reload
	WatchCatalog bool

	// Server timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Version is injected at build time, never from file or env.
	Version string
}

// ServerConfig captures the subset of configuration the daemon manager needs
// to run its HTTP listeners.
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
}

// ServerConfigFrom derives the daemon server configuration from an AppConfig.
func ServerConfigFrom(cfg AppConfig) ServerConfig {
	return ServerConfig{
		ListenAddr:      cfg.ListenAddr,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxHeaderBytes:  1 << 20,
	}
}
