package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gardengod/gardengod/internal/cache"
	"github.com/gardengod/gardengod/internal/catalog"
	"github.com/gardengod/gardengod/internal/garden"
	"github.com/gardengod/gardengod/internal/layout"
	"github.com/gardengod/gardengod/internal/log"
	"github.com/gardengod/gardengod/internal/metrics"
	"github.com/gardengod/gardengod/internal/schedule"
	"github.com/gardengod/gardengod/internal/store"
	"github.com/gardengod/gardengod/internal/telemetry"
)

// maxBodyBytes bounds request bodies; garden grids are small.
const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// GET /api/plants
func (s *Server) handlePlants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Plants())
}

// GET /api/plants/{id}
func (s *Server) handlePlant(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /api/zones
func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schedule.Zones)
}

// GET /api/schedule/{zone}?year=
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	zone := chi.URLParam(r, "zone")

	year := 0
	if q := r.URL.Query().Get("year"); q != "" {
		var err error
		year, err = strconv.Atoi(q)
		if err != nil {
			metrics.IncSchedule("invalid")
			writeErrorMsg(w, http.StatusBadRequest, "year must be an integer")
			return
		}
	}
	if year == 0 {
		year = time.Now().Year()
	}

	key := cache.Key(strings.ToLower(strings.TrimSpace(zone)), year)
	if s.cache == nil {
		metrics.IncScheduleCache("bypass")
	} else if cached, ok := s.cache.Get(r.Context(), key); ok {
		metrics.IncSchedule("success")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	sched, err := schedule.Build(zone, year, s.catalog.Plants())
	if errors.Is(err, schedule.ErrUnknownZone) {
		metrics.IncSchedule("unknown_zone")
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Debug().
			Str(log.FieldZone, zone).
			Msg("schedule requested for unknown zone")
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		metrics.IncSchedule("invalid")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if s.cache != nil {
		s.cache.Set(r.Context(), key, sched)
	}

	metrics.IncSchedule("success")
	writeJSON(w, http.StatusOK, sched)
}

// POST /api/gardens
func (s *Server) handleCreateGarden(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	g, err := garden.New(req.Width, req.Height)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// POST /api/optimize
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Garden        garden.Garden `json:"garden"`
		PlantsToPlace []string      `json:"plants_to_place"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		metrics.IncOptimize("invalid")
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.Garden.Validate(); err != nil {
		metrics.IncOptimize("invalid")
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	_, span := telemetry.Tracer("api").Start(r.Context(), "optimize.place")
	err := layout.Place(&req.Garden, req.PlantsToPlace, s.catalog.ByID())
	span.End()
	metrics.ObserveOptimizeDuration(time.Since(start).Seconds())
	if err != nil {
		metrics.IncOptimize(optimizeOutcome(err))
		writeError(w, http.StatusBadRequest, err)
		return
	}

	metrics.IncOptimize("success")
	metrics.AddPlacements(len(req.PlantsToPlace))
	writeJSON(w, http.StatusOK, req.Garden)
}

func optimizeOutcome(err error) string {
	switch {
	case errors.Is(err, layout.ErrUnknownPlant):
		return "unknown_plant"
	case errors.Is(err, layout.ErrGardenFull):
		return "garden_full"
	default:
		return "invalid"
	}
}

// POST /api/score
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var g garden.Garden
	if err := decodeBody(w, r, &g); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := g.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"score": layout.Score(&g, s.catalog.ByID()),
	})
}

// POST /api/saved-gardens
func (s *Server) handleSaveGarden(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "saved garden store unavailable")
		return
	}

	var req struct {
		Name   string        `json:"name"`
		Garden garden.Garden `json:"garden"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeErrorMsg(w, http.StatusBadRequest, "name must not be empty")
		return
	}
	if err := req.Garden.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	saved, err := s.store.Save(r.Context(), req.Name, req.Garden)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldEvent, "garden.saved").
		Str(log.FieldGardenID, saved.ID).
		Msg("garden saved")
	writeJSON(w, http.StatusCreated, saved)
}

// GET /api/saved-gardens
func (s *Server) handleListGardens(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "saved garden store unavailable")
		return
	}

	list, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/saved-gardens/{id}
func (s *Server) handleGetGarden(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "saved garden store unavailable")
		return
	}

	saved, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DELETE /api/saved-gardens/{id}
func (s *Server) handleDeleteGarden(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "saved garden store unavailable")
		return
	}

	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/saved-gardens/{id}/export
func (s *Server) handleExportGarden(w http.ResponseWriter, r *http.Request) {
	if s.store == nil || s.exporter == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "export unavailable")
		return
	}

	saved, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	path, err := s.exporter.Write(saved)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldEvent, "garden.exported").
		Str(log.FieldGardenID, saved.ID).
		Str(log.FieldPath, path).
		Msg("garden exported")
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}
