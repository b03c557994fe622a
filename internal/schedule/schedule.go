// Package schedule derives per-zone planting calendars from the plant
// catalog and USDA frost dates.
package schedule

import (
	"errors"
	"sort"
	"time"

	"github.com/gardengod/gardengod/internal/catalog"
)

// ErrUnknownZone is returned for a zone outside the supported USDA range.
var ErrUnknownZone = errors.New("unknown zone")

// Planting actions.
const (
	ActionStartIndoors   = "start_indoors"
	ActionTransplant     = "transplant"
	ActionDirectSow      = "direct_sow"
	ActionFallTransplant = "fall_transplant"
	ActionFallDirectSow  = "fall_direct_sow"
)

// Entry is one dated planting action for one plant.
type Entry struct {
	PlantID    string `json:"plant_id"`
	PlantName  string `json:"plant_name"`
	Action     string `json:"action"`
	Date       string `json:"date"` // ISO-8601
	WeekOfYear int    `json:"week_of_year"`
	Notes      string `json:"notes,omitempty"`
}

// Schedule is a full planting calendar for a zone and year.
type Schedule struct {
	Zone           string  `json:"zone"`
	LastFrostDate  string  `json:"last_frost_date"`
	FirstFrostDate string  `json:"first_frost_date"`
	Entries        []Entry `json:"schedule"`
}

// Build computes the planting schedule for the given zone and year across
// all catalog plants that carry planting info. Entries are sorted by date;
// ties keep emission order, so a plant's indoor start precedes its
// transplant on the same day.
func Build(zone string, year int, plants []catalog.Plant) (*Schedule, error) {
	normalized, fd, err := FrostDatesFor(zone)
	if err != nil {
		return nil, err
	}
	if year == 0 {
		year = time.Now().Year()
	}

	lastFrost := time.Date(year, fd.LastFrostMonth, fd.LastFrostDay, 0, 0, 0, 0, time.UTC)
	firstFrost := time.Date(year, fd.FirstFrostMonth, fd.FirstFrostDay, 0, 0, 0, 0, time.UTC)

	entries := make([]Entry, 0, len(plants)*2)
	for _, plant := range plants {
		entries = append(entries, plantEntries(plant, lastFrost, firstFrost)...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})

	return &Schedule{
		Zone:           normalized,
		LastFrostDate:  lastFrost.Format(time.DateOnly),
		FirstFrostDate: firstFrost.Format(time.DateOnly),
		Entries:        entries,
	}, nil
}

func plantEntries(plant catalog.Plant, lastFrost, firstFrost time.Time) []Entry {
	p := plant.Planting
	if p == nil {
		return nil
	}

	var entries []Entry
	add := func(action string, date time.Time, notes string) {
		_, week := date.ISOWeek()
		entries = append(entries, Entry{
			PlantID:    plant.ID,
			PlantName:  plant.Name,
			Action:     action,
			Date:       date.Format(time.DateOnly),
			WeekOfYear: week,
			Notes:      notes,
		})
	}

	if p.StartIndoorsWeeksBeforeLastFrost > 0 {
		add(ActionStartIndoors, weeksBefore(lastFrost, p.StartIndoorsWeeksBeforeLastFrost), p.Notes)
	}
	if p.TransplantWeeksBeforeLastFrost > 0 {
		add(ActionTransplant, weeksBefore(lastFrost, p.TransplantWeeksBeforeLastFrost), p.Notes)
	}
	if p.TransplantWeeksAfterLastFrost > 0 {
		add(ActionTransplant, weeksAfter(lastFrost, p.TransplantWeeksAfterLastFrost), p.Notes)
	}
	if p.DirectSowWeeksBeforeLastFrost > 0 {
		add(ActionDirectSow, weeksBefore(lastFrost, p.DirectSowWeeksBeforeLastFrost), p.Notes)
	}
	if p.DirectSowWeeksAfterLastFrost > 0 {
		add(ActionDirectSow, weeksAfter(lastFrost, p.DirectSowWeeksAfterLastFrost), p.Notes)
	}
	if p.FallPlantingWeeksBeforeFirstFrost > 0 {
		action := ActionFallTransplant
		if p.Type == catalog.TypeDirectSow {
			action = ActionFallDirectSow
		}
		notes := "Fall planting."
		if p.Notes != "" {
			notes = "Fall planting. " + p.Notes
		}
		add(action, weeksBefore(firstFrost, p.FallPlantingWeeksBeforeFirstFrost), notes)
	}
	return entries
}

func weeksBefore(t time.Time, weeks int) time.Time { return t.AddDate(0, 0, -7*weeks) }
func weeksAfter(t time.Time, weeks int) time.Time  { return t.AddDate(0, 0, 7*weeks) }
