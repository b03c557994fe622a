// Package catalog defines the plant catalog: the set of known plants with
// their spacing, companion relationships, planting windows and care notes.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gardengod/gardengod/internal/log"
)

// Planting types.
const (
	TypeDirectSow  = "direct_sow"
	TypeTransplant = "transplant"
)

// Frost tolerance classes.
const (
	ToleranceTender    = "tender"
	ToleranceSemiHardy = "semi_hardy"
	ToleranceHardy     = "hardy"
	ToleranceVeryHardy = "very_hardy"
)

var (
	// ErrEmptyCatalog is returned when a catalog file contains no plants.
	ErrEmptyCatalog = errors.New("catalog contains no plants")

	// ErrNotFound is returned when a plant ID is not in the catalog.
	ErrNotFound = errors.New("plant not found")
)

// PlantingInfo describes when and how a plant goes into the ground. Week
// offsets are relative to the zone's frost dates; zero means "not applicable".
type PlantingInfo struct {
	Type           string `json:"type"`
	FrostTolerance string `json:"frost_tolerance"`
	DaysToMaturity []int  `json:"days_to_maturity"` // [min, max]

	// Indoor starting (for transplants)
	StartIndoorsWeeksBeforeLastFrost int `json:"start_indoors_weeks_before_last_frost,omitempty"`
	TransplantWeeksBeforeLastFrost   int `json:"transplant_weeks_before_last_frost,omitempty"`
	TransplantWeeksAfterLastFrost    int `json:"transplant_weeks_after_last_frost,omitempty"`

	// Direct sowing
	DirectSow                     bool `json:"direct_sow,omitempty"`
	DirectSowWeeksBeforeLastFrost int  `json:"direct_sow_weeks_before_last_frost,omitempty"`
	DirectSowWeeksAfterLastFrost  int  `json:"direct_sow_weeks_after_last_frost,omitempty"`

	// Fall planting
	FallPlanting                           bool `json:"fall_planting,omitempty"`
	FallPlantingWeeksBeforeFirstFrost      int  `json:"fall_planting_weeks_before_first_frost,omitempty"`
	TransplantForFallWeeksBeforeFirstFrost int  `json:"transplant_for_fall_weeks_before_first_frost,omitempty"`
	SpringPlantingWeeksBeforeLastFrost     int  `json:"spring_planting_weeks_before_last_frost,omitempty"`

	// Succession planting
	SuccessionPlantingWeeks int `json:"succession_planting_weeks,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// CareInfo holds care tips for maintaining a plant.
type CareInfo struct {
	Watering          string   `json:"watering"`
	WateringFrequency string   `json:"watering_frequency"`
	Sunlight          string   `json:"sunlight"`
	Fertilizing       string   `json:"fertilizing,omitempty"`
	Pruning           string   `json:"pruning,omitempty"`
	Pests             string   `json:"pests,omitempty"`
	Harvesting        string   `json:"harvesting,omitempty"`
	Tips              []string `json:"tips,omitempty"`
}

// Plant is a single catalog entry. Companions and Antagonists reference other
// plant IDs; a companion neighbor improves a placement, an antagonist hurts it.
type Plant struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	SpacingPerSqFt int           `json:"spacing_per_sqft"`
	Companions     []string      `json:"companions,omitempty"`
	Antagonists    []string      `json:"antagonists,omitempty"`
	Planting       *PlantingInfo `json:"planting,omitempty"`
	Care           *CareInfo     `json:"care,omitempty"`
}

// Load reads and validates a plant catalog from a JSON file. The file must
// exist: a garden planner without plants cannot serve anything useful, so a
// missing catalog fails startup.
func Load(path string) ([]Plant, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-provided catalog path
	if err != nil {
		return nil, fmt.Errorf("read plant catalog %q: %w", path, err)
	}

	var plants []Plant
	if err := json.Unmarshal(data, &plants); err != nil {
		return nil, fmt.Errorf("parse plant catalog %q: %w", path, err)
	}

	if err := validate(plants); err != nil {
		return nil, fmt.Errorf("invalid plant catalog %q: %w", path, err)
	}
	return plants, nil
}

func validate(plants []Plant) error {
	if len(plants) == 0 {
		return ErrEmptyCatalog
	}

	logger := log.WithComponent("catalog")
	seen := make(map[string]struct{}, len(plants))
	for _, p := range plants {
		if p.ID == "" {
			return fmt.Errorf("plant %q has empty id", p.Name)
		}
		if p.Name == "" {
			return fmt.Errorf("plant %q has empty name", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate plant id %q", p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.SpacingPerSqFt <= 0 {
			return fmt.Errorf("plant %q: spacing_per_sqft must be positive, got %d", p.ID, p.SpacingPerSqFt)
		}

		if p.Planting != nil {
			if err := validatePlanting(p.ID, p.Planting); err != nil {
				return err
			}
		}
	}

	// Dangling companion references are tolerated so catalog authors can stage
	// entries incrementally, but they are worth a warning.
	for _, p := range plants {
		for _, ref := range append(append([]string{}, p.Companions...), p.Antagonists...) {
			if _, ok := seen[ref]; !ok {
				logger.Warn().
					Str(log.FieldEvent, "catalog.dangling_reference").
					Str(log.FieldPlantID, p.ID).
					Str("reference", ref).
					Msg("companion or antagonist references unknown plant")
			}
		}
	}
	return nil
}

func validatePlanting(plantID string, pi *PlantingInfo) error {
	switch pi.Type {
	case TypeDirectSow, TypeTransplant:
	default:
		return fmt.Errorf("plant %q: unknown planting type %q", plantID, pi.Type)
	}

	switch pi.FrostTolerance {
	case ToleranceTender, ToleranceSemiHardy, ToleranceHardy, ToleranceVeryHardy:
	default:
		return fmt.Errorf("plant %q: unknown frost tolerance %q", plantID, pi.FrostTolerance)
	}

	if len(pi.DaysToMaturity) != 2 {
		return fmt.Errorf("plant %q: days_to_maturity must be [min, max]", plantID)
	}
	if pi.DaysToMaturity[0] <= 0 || pi.DaysToMaturity[1] < pi.DaysToMaturity[0] {
		return fmt.Errorf("plant %q: days_to_maturity range %v is not valid", plantID, pi.DaysToMaturity)
	}
	return nil
}
