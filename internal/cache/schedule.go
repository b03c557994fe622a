// Package cache provides a Redis-backed cache for computed planting
// schedules. The cache is advisory: any Redis failure degrades to a
// recompute, never to a request failure.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gardengod/gardengod/internal/metrics"
	"github.com/gardengod/gardengod/internal/schedule"
)

const opTimeout = 2 * time.Second

// ScheduleCache stores computed schedules in Redis keyed by zone and year.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// New connects to Redis and returns a schedule cache. The connection is
// verified up front so a misconfigured address fails at startup.
func New(cfg Config, logger zerolog.Logger) (*ScheduleCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Dur("ttl", cfg.TTL).
		Msg("connected to Redis schedule cache")

	return &ScheduleCache{client: client, ttl: cfg.TTL, logger: logger}, nil
}

// Key builds the cache key for a normalized zone and year.
func Key(zone string, year int) string {
	return fmt.Sprintf("schedule:%s:%d", zone, year)
}

// Get returns the cached schedule for the key, or (nil, false) on a miss.
// Redis errors count as misses.
func (c *ScheduleCache) Get(ctx context.Context, key string) (*schedule.Schedule, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.IncScheduleCache("miss")
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		metrics.IncScheduleCache("error")
		return nil, false
	}

	var s schedule.Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cached schedule corrupt")
		metrics.IncScheduleCache("error")
		return nil, false
	}

	metrics.IncScheduleCache("hit")
	return &s, true
}

// Set stores a schedule under the key with the configured TTL.
func (c *ScheduleCache) Set(ctx context.Context, key string, s *schedule.Schedule) {
	data, err := json.Marshal(s)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("schedule marshal failed")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// Invalidate drops all cached schedules, used after a catalog reload.
func (c *ScheduleCache) Invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	iter := c.client.Scan(ctx, 0, "schedule:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", iter.Val()).Msg("redis delete failed")
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Msg("redis scan failed")
	}
}

// Ping checks Redis availability, for readiness checks.
func (c *ScheduleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (c *ScheduleCache) Close() error {
	return c.client.Close()
}
