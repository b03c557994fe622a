package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardengod/gardengod/internal/garden"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gardens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func plantedGarden(t *testing.T) garden.Garden {
	t.Helper()
	g, err := garden.New(4, 4)
	require.NoError(t, err)
	g.Grid[0].PlantID = "tomato"
	g.Grid[1].PlantID = "basil"
	return *g
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	saved, err := s.Save(ctx, "backyard", plantedGarden(t))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "backyard", saved.Name)

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, 4, got.Garden.Width)
	require.Len(t, got.Garden.Grid, 16)
	assert.Equal(t, "tomato", got.Garden.Grid[0].PlantID)
	assert.Equal(t, "basil", got.Garden.Grid[1].PlantID)
}

func TestStore_GetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(t.Context(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_List(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	first, err := s.Save(ctx, "front", plantedGarden(t))
	require.NoError(t, err)
	second, err := s.Save(ctx, "back", plantedGarden(t))
	require.NoError(t, err)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	ids := []string{list[0].ID, list[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
	assert.Equal(t, 2, list[0].Planted)
	assert.Equal(t, 4, list[0].Width)
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	saved, err := s.Save(ctx, "temp", plantedGarden(t))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, saved.ID))
	_, err = s.Get(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, saved.ID), ErrNotFound)
}
