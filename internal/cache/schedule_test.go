package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardengod/gardengod/internal/schedule"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, *ScheduleCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, &ScheduleCache{
		client: client,
		ttl:    15 * time.Minute,
		logger: zerolog.Nop(),
	}
}

func sampleSchedule() *schedule.Schedule {
	return &schedule.Schedule{
		Zone:           "6a",
		LastFrostDate:  "2026-04-20",
		FirstFrostDate: "2026-10-15",
		Entries: []schedule.Entry{
			{PlantID: "tomato", PlantName: "Tomato", Action: schedule.ActionStartIndoors, Date: "2026-03-09", WeekOfYear: 11},
		},
	}
}

func TestScheduleCache_SetGet(t *testing.T) {
	_, c := setupCache(t)
	ctx := t.Context()

	key := Key("6a", 2026)
	c.Set(ctx, key, sampleSchedule())

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "6a", got.Zone)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "tomato", got.Entries[0].PlantID)
}

func TestScheduleCache_Miss(t *testing.T) {
	_, c := setupCache(t)

	got, ok := c.Get(t.Context(), Key("7b", 2026))
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestScheduleCache_TTLExpiry(t *testing.T) {
	mr, c := setupCache(t)
	ctx := t.Context()

	key := Key("6a", 2026)
	c.Set(ctx, key, sampleSchedule())

	_, ok := c.Get(ctx, key)
	require.True(t, ok)

	mr.FastForward(16 * time.Minute)

	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}

func TestScheduleCache_Invalidate(t *testing.T) {
	_, c := setupCache(t)
	ctx := t.Context()

	c.Set(ctx, Key("6a", 2026), sampleSchedule())
	c.Set(ctx, Key("7b", 2026), sampleSchedule())

	c.Invalidate(ctx)

	_, ok := c.Get(ctx, Key("6a", 2026))
	assert.False(t, ok)
	_, ok = c.Get(ctx, Key("7b", 2026))
	assert.False(t, ok)
}

func TestScheduleCache_RedisDownDegradesToMiss(t *testing.T) {
	mr, c := setupCache(t)
	mr.Close()

	got, ok := c.Get(t.Context(), Key("6a", 2026))
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "schedule:6a:2026", Key("6a", 2026))
}
