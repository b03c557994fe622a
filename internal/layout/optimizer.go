// Package layout places plants into a garden grid, maximizing companion
// planting benefit one placement at a time.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/gardengod/gardengod/internal/catalog"
	"github.com/gardengod/gardengod/internal/garden"
)

var (
	// ErrGardenFull is returned when a plant cannot be placed because no
	// empty cell remains.
	ErrGardenFull = errors.New("garden is full, cannot place more plants")

	// ErrUnknownPlant is returned when a requested plant ID is not in the
	// catalog.
	ErrUnknownPlant = errors.New("unknown plant id")
)

// CompanionScore scores placing plant next to the given neighbors:
// +1 for each companion, -2 for each antagonist (the penalty is deliberately
// stronger than the bonus).
func CompanionScore(plant catalog.Plant, neighbors []catalog.Plant) int {
	score := 0
	for _, n := range neighbors {
		for _, id := range plant.Companions {
			if n.ID == id {
				score++
				break
			}
		}
		for _, id := range plant.Antagonists {
			if n.ID == id {
				score -= 2
				break
			}
		}
	}
	return score
}

// neighborsOf collects the already-placed catalog plants adjacent to (x, y).
// Cells holding IDs absent from the catalog are skipped.
func neighborsOf(g *garden.Garden, x, y int, db map[string]catalog.Plant) []catalog.Plant {
	adjacent := g.Adjacent(x, y)
	plants := make([]catalog.Plant, 0, len(adjacent))
	for _, c := range adjacent {
		if c.PlantID == "" {
			continue
		}
		if p, ok := db[c.PlantID]; ok {
			plants = append(plants, p)
		}
	}
	return plants
}

// BestCell finds the best empty cell for the plant, maximizing the companion
// score against already-placed neighbors. Ties keep the earliest cell in grid
// order, which makes placement deterministic. Returns nil when the garden has
// no empty cell.
func BestCell(g *garden.Garden, plant catalog.Plant, db map[string]catalog.Plant) *garden.Cell {
	var best *garden.Cell
	bestScore := math.MinInt

	for i := range g.Grid {
		cell := &g.Grid[i]
		if cell.PlantID != "" {
			continue
		}

		score := CompanionScore(plant, neighborsOf(g, cell.X, cell.Y, db))
		if score > bestScore {
			bestScore = score
			best = cell
		}
	}
	return best
}

// Place puts the requested plants into the garden in request order, each into
// its current best cell. The garden is mutated in place; on error it holds
// every placement made before the failure.
func Place(g *garden.Garden, plantIDs []string, db map[string]catalog.Plant) error {
	for _, id := range plantIDs {
		plant, ok := db[id]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPlant, id)
		}

		cell := BestCell(g, plant, db)
		if cell == nil {
			return ErrGardenFull
		}
		cell.PlantID = id
	}
	return nil
}

// Score computes the total companion score of a garden: the sum of each
// occupied cell's score against its neighbors, halved because every adjacent
// pair is counted from both sides. The division floors (like -7/2 = -4) so
// asymmetric antagonist lists cannot round a bad layout up.
func Score(g *garden.Garden, db map[string]catalog.Plant) int {
	total := 0
	for _, c := range g.Grid {
		if c.PlantID == "" {
			continue
		}
		plant, ok := db[c.PlantID]
		if !ok {
			continue
		}
		total += CompanionScore(plant, neighborsOf(g, c.X, c.Y, db))
	}
	return floorDiv2(total)
}

func floorDiv2(n int) int {
	if n < 0 && n%2 != 0 {
		return n/2 - 1
	}
	return n / 2
}
