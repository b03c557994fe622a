package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardengod/gardengod/internal/cache"
	"github.com/gardengod/gardengod/internal/catalog"
	"github.com/gardengod/gardengod/internal/config"
	"github.com/gardengod/gardengod/internal/export"
	"github.com/gardengod/gardengod/internal/garden"
	"github.com/gardengod/gardengod/internal/health"
	"github.com/gardengod/gardengod/internal/store"
)

const testCatalog = `[
  {
    "id": "tomato",
    "name": "Tomato",
    "spacing_per_sqft": 1,
    "companions": ["basil"],
    "antagonists": ["cabbage"],
    "planting": {
      "type": "transplant",
      "frost_tolerance": "tender",
      "days_to_maturity": [60, 85],
      "start_indoors_weeks_before_last_frost": 6,
      "transplant_weeks_after_last_frost": 2
    }
  },
  {
    "id": "basil",
    "name": "Basil",
    "spacing_per_sqft": 4,
    "companions": ["tomato"]
  },
  {
    "id": "cabbage",
    "name": "Cabbage",
    "spacing_per_sqft": 1,
    "antagonists": ["tomato"]
  }
]`

type testEnv struct {
	server      *Server
	router      http.Handler
	catalog     *catalog.Store
	catalogPath string
}

type envOption func(*Deps)

func withToken(token string) envOption {
	return func(d *Deps) { d.Config.APIToken = token }
}

func withCache(c *cache.ScheduleCache) envOption {
	return func(d *Deps) { d.Cache = c }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "plants.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o600))

	cat, err := catalog.NewStore(catalogPath)
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(dir, "gardens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	exp, err := export.New(filepath.Join(dir, "exports"))
	require.NoError(t, err)

	hm := health.NewManager("test")
	hm.RegisterChecker(health.NewCatalogChecker(cat.Len))

	deps := Deps{
		Config: config.AppConfig{
			AllowedOrigins: []string{"*"},
		},
		Catalog:  cat,
		Store:    st,
		Exporter: exp,
		Health:   hm,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv := New(deps)
	return &testEnv{server: srv, router: srv.Router(), catalog: cat, catalogPath: catalogPath}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "GET", "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPlants(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/plants", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var plants []catalog.Plant
	decodeInto(t, rec, &plants)
	assert.Len(t, plants, 3)
}

func TestGetPlantByID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/plants/tomato", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var p catalog.Plant
	decodeInto(t, rec, &p)
	assert.Equal(t, "Tomato", p.Name)

	rec = env.do(t, "GET", "/api/plants/kudzu", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetZones(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/zones", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var zones []string
	decodeInto(t, rec, &zones)
	assert.Equal(t, "3a", zones[0])
	assert.Equal(t, "10b", zones[len(zones)-1])
}

func TestGetSchedule(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/schedule/6a?year=2026", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Zone          string `json:"zone"`
		LastFrostDate string `json:"last_frost_date"`
		Schedule      []struct {
			PlantID string `json:"plant_id"`
			Action  string `json:"action"`
		} `json:"schedule"`
	}
	decodeInto(t, rec, &resp)
	assert.Equal(t, "6a", resp.Zone)
	assert.Equal(t, "2026-04-20", resp.LastFrostDate)
	require.NotEmpty(t, resp.Schedule)
	assert.Equal(t, "tomato", resp.Schedule[0].PlantID)
}

func TestGetSchedule_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/schedule/11z?year=2026", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown zone")

	rec = env.do(t, "GET", "/api/schedule/6a?year=soon", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSchedule_CachesResult(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.New(cache.Config{Addr: mr.Addr(), TTL: 15 * time.Minute}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	env := newTestEnv(t, withCache(c))

	rec := env.do(t, "GET", "/api/schedule/6a?year=2026", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mr.Exists("schedule:6a:2026"))

	// Served again, now from the cache.
	rec = env.do(t, "GET", "/api/schedule/6a?year=2026", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2026-04-20")
}

func TestGetSchedule_CatalogReloadDropsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.New(cache.Config{Addr: mr.Addr(), TTL: 15 * time.Minute}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	env := newTestEnv(t, withCache(c))
	env.catalog.OnReload(func() { c.Invalidate(context.Background()) })

	rec := env.do(t, "GET", "/api/schedule/6a?year=2026", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "start_indoors")
	require.True(t, mr.Exists("schedule:6a:2026"))

	// Tomato loses its indoor start; the cached schedule must not outlive it.
	const updated = `[
	  {
	    "id": "tomato",
	    "name": "Tomato",
	    "spacing_per_sqft": 1,
	    "planting": {
	      "type": "transplant",
	      "frost_tolerance": "tender",
	      "days_to_maturity": [60, 85],
	      "transplant_weeks_after_last_frost": 2
	    }
	  }
	]`
	require.NoError(t, os.WriteFile(env.catalogPath, []byte(updated), 0o600))
	require.NoError(t, env.catalog.Reload())
	assert.False(t, mr.Exists("schedule:6a:2026"))

	rec = env.do(t, "GET", "/api/schedule/6a?year=2026", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "start_indoors")
	assert.Contains(t, rec.Body.String(), "transplant")
}

func TestCreateGarden(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/gardens", map[string]int{"width": 4, "height": 3}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var g garden.Garden
	decodeInto(t, rec, &g)
	assert.Equal(t, 4, g.Width)
	assert.Len(t, g.Grid, 12)

	rec = env.do(t, "POST", "/api/gardens", map[string]int{"width": 0, "height": 3}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimize(t *testing.T) {
	env := newTestEnv(t)

	g, err := garden.New(2, 2)
	require.NoError(t, err)

	rec := env.do(t, "POST", "/api/optimize", map[string]any{
		"garden":          g,
		"plants_to_place": []string{"tomato", "basil"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var placed garden.Garden
	decodeInto(t, rec, &placed)
	assert.Equal(t, 2, placed.Occupied())
	assert.Equal(t, "tomato", placed.Grid[0].PlantID)
}

func TestOptimize_Errors(t *testing.T) {
	env := newTestEnv(t)

	g, err := garden.New(1, 1)
	require.NoError(t, err)

	rec := env.do(t, "POST", "/api/optimize", map[string]any{
		"garden":          g,
		"plants_to_place": []string{"kudzu"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown plant")

	rec = env.do(t, "POST", "/api/optimize", map[string]any{
		"garden":          g,
		"plants_to_place": []string{"tomato", "basil"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "garden is full")
}

func TestScore(t *testing.T) {
	env := newTestEnv(t)

	g, err := garden.New(2, 1)
	require.NoError(t, err)
	g.Grid[0].PlantID = "tomato"
	g.Grid[1].PlantID = "basil"

	rec := env.do(t, "POST", "/api/score", g, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	decodeInto(t, rec, &resp)
	assert.Equal(t, 1, resp["score"])
}

func TestSavedGardens_CRUD(t *testing.T) {
	env := newTestEnv(t)

	g, err := garden.New(2, 2)
	require.NoError(t, err)
	g.Grid[0].PlantID = "tomato"

	rec := env.do(t, "POST", "/api/saved-gardens/", map[string]any{
		"name":   "backyard",
		"garden": g,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var saved store.SavedGarden
	decodeInto(t, rec, &saved)
	require.NotEmpty(t, saved.ID)

	rec = env.do(t, "GET", "/api/saved-gardens/"+saved.ID, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "GET", "/api/saved-gardens/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.Summary
	decodeInto(t, rec, &list)
	assert.Len(t, list, 1)

	rec = env.do(t, "POST", fmt.Sprintf("/api/saved-gardens/%s/export", saved.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var exported map[string]string
	decodeInto(t, rec, &exported)
	_, err = os.Stat(exported["path"])
	assert.NoError(t, err)

	rec = env.do(t, "DELETE", "/api/saved-gardens/"+saved.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, "GET", "/api/saved-gardens/"+saved.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavedGardens_Validation(t *testing.T) {
	env := newTestEnv(t)

	g, err := garden.New(2, 2)
	require.NoError(t, err)

	rec := env.do(t, "POST", "/api/saved-gardens/", map[string]any{
		"name":   "  ",
		"garden": g,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name")
}

func TestSavedGardens_TokenAuth(t *testing.T) {
	env := newTestEnv(t, withToken("secret-token"))

	g, err := garden.New(1, 1)
	require.NoError(t, err)
	body := map[string]any{"name": "locked", "garden": g}

	rec := env.do(t, "POST", "/api/saved-gardens/", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, "POST", "/api/saved-gardens/", body, map[string]string{
		HeaderAPIToken: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, "POST", "/api/saved-gardens/", body, map[string]string{
		HeaderAPIToken: "secret-token",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, "GET", "/api/saved-gardens/", nil, map[string]string{
		"Authorization": "Bearer secret-token",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Read-only catalog routes stay public.
	rec = env.do(t, "GET", "/api/plants", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
