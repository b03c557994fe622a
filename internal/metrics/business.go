// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog metrics
	catalogPlants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gardengod_catalog_plants",
		Help: "Number of plants in the active catalog",
	})

	catalogReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gardengod_catalog_reloads_total",
		Help: "Catalog reload attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	// Optimizer metrics
	optimizeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gardengod_optimize_requests_total",
		Help: "Garden optimization requests by outcome",
	}, []string{"outcome"}) // outcome=success|unknown_plant|garden_full|invalid

	optimizePlacementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gardengod_optimize_placements_total",
		Help: "Total number of plants placed by the optimizer",
	})

	optimizeDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gardengod_optimize_duration_seconds",
		Help:    "Time spent placing plants per optimization request",
		Buckets: prometheus.DefBuckets,
	})

	// Schedule metrics
	scheduleRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gardengod_schedule_requests_total",
		Help: "Planting schedule requests by outcome",
	}, []string{"outcome"}) // outcome=success|unknown_zone|invalid

	scheduleCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gardengod_schedule_cache_total",
		Help: "Schedule cache lookups by result",
	}, []string{"result"}) // result=hit|miss|bypass|error

	// Saved garden store metrics
	storeOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gardengod_store_operations_total",
		Help: "Saved garden store operations by outcome",
	}, []string{"op", "outcome"}) // op=save|get|list|delete

	// Export metrics
	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gardengod_exports_total",
		Help: "Garden export attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure|rejected
)

func RecordCatalogSize(n int)           { catalogPlants.Set(float64(n)) }
func IncCatalogReload(outcome string)   { catalogReloadsTotal.WithLabelValues(outcome).Inc() }
func IncOptimize(outcome string)        { optimizeRequestsTotal.WithLabelValues(outcome).Inc() }
func AddPlacements(n int)               { optimizePlacementsTotal.Add(float64(n)) }
func ObserveOptimizeDuration(s float64) { optimizeDurationSeconds.Observe(s) }
func IncSchedule(outcome string)        { scheduleRequestsTotal.WithLabelValues(outcome).Inc() }
func IncScheduleCache(result string)    { scheduleCacheTotal.WithLabelValues(result).Inc() }
func IncStoreOp(op, outcome string)     { storeOperationsTotal.WithLabelValues(op, outcome).Inc() }
func IncExport(outcome string)          { exportsTotal.WithLabelValues(outcome).Inc() }
