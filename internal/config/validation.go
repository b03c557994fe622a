package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrMissingListenAddr is returned when no API listen address is configured.
	ErrMissingListenAddr = errors.New("listen address is required")

	// ErrMissingDataDir is returned when no data directory is configured.
	ErrMissingDataDir = errors.New("data directory is required")
)

// Validate checks an AppConfig for configuration errors. It fails fast so a
// misconfigured daemon never starts serving.
func Validate(cfg AppConfig) error {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return ErrMissingListenAddr
	}
	if err := validateAddr("listen address", cfg.ListenAddr); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return ErrMissingDataDir
	}
	if cfg.MetricsEnabled {
		if err := validateAddr("metrics address", cfg.MetricsAddr); err != nil {
			return err
		}
	}
	if cfg.RateLimitEnabled {
		if cfg.RateLimitRPM <= 0 {
			return fmt.Errorf("rate limit RPM must be positive, got %d", cfg.RateLimitRPM)
		}
		if cfg.RateLimitBurst < 0 {
			return fmt.Errorf("rate limit burst must not be negative, got %d", cfg.RateLimitBurst)
		}
	}
	if cfg.RedisAddr != "" && cfg.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive when redis is configured, got %s", cfg.CacheTTL)
	}
	for _, field := range []struct {
		name string
		val  int64
	}{
		{"read timeout", int64(cfg.ReadTimeout)},
		{"write timeout", int64(cfg.WriteTimeout)},
		{"idle timeout", int64(cfg.IdleTimeout)},
		{"shutdown timeout", int64(cfg.ShutdownTimeout)},
	} {
		if field.val <= 0 {
			return fmt.Errorf("%s must be positive", field.name)
		}
	}
	return nil
}

func validateAddr(name, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("%s is empty", name)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, addr, err)
	}
	return nil
}
