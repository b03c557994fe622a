package schedule

import (
	"fmt"
	"strings"
	"time"
)

// FrostDates holds the average last and first frost for a USDA hardiness
// zone as month/day pairs.
type FrostDates struct {
	LastFrostMonth  time.Month
	LastFrostDay    int
	FirstFrostMonth time.Month
	FirstFrostDay   int
}

// Zones lists the supported USDA zones in canonical order (coldest first).
var Zones = []string{
	"3a", "3b",
	"4a", "4b",
	"5a", "5b",
	"6a", "6b",
	"7a", "7b",
	"8a", "8b",
	"9a", "9b",
	"10a", "10b",
}

// zoneFrostDates maps each zone to its approximate average frost dates.
var zoneFrostDates = map[string]FrostDates{
	"3a":  {time.May, 15, time.September, 15},
	"3b":  {time.May, 10, time.September, 20},
	"4a":  {time.May, 10, time.September, 25},
	"4b":  {time.May, 5, time.October, 1},
	"5a":  {time.May, 1, time.October, 5},
	"5b":  {time.April, 25, time.October, 10},
	"6a":  {time.April, 20, time.October, 15},
	"6b":  {time.April, 15, time.October, 20},
	"7a":  {time.April, 10, time.October, 25},
	"7b":  {time.April, 5, time.October, 30},
	"8a":  {time.March, 25, time.November, 5},
	"8b":  {time.March, 15, time.November, 10},
	"9a":  {time.March, 1, time.November, 20},
	"9b":  {time.February, 15, time.December, 1},
	"10a": {time.February, 1, time.December, 15},
	"10b": {time.January, 15, time.December, 31},
}

// FrostDatesFor resolves the frost dates for a zone (case-insensitive).
func FrostDatesFor(zone string) (string, FrostDates, error) {
	normalized := strings.ToLower(strings.TrimSpace(zone))
	fd, ok := zoneFrostDates[normalized]
	if !ok {
		return "", FrostDates{}, fmt.Errorf("%w: %q (valid zones: %s)",
			ErrUnknownZone, zone, strings.Join(Zones, ", "))
	}
	return normalized, fd, nil
}
