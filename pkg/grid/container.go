package grid

import (
	"seishorizon/internal/models"
)

// ContainerStats tracks how much of each processed grid was already known.
type ContainerStats struct {
	// Repeated holds, per Update call, the number of locations dropped
	// because location and potential were both already known
	Repeated []int

	// TotalRepeated is the sum of Repeated
	TotalRepeated int
}

// LocationsPotentialContainer accumulates extension locations with their
// potentials across iterations. It never holds two entries for the same
// location: re-registering a location overwrites its potential.
type LocationsPotentialContainer struct {
	potentials map[models.Location]int

	// Stats summarizes the Update history
	Stats ContainerStats
}

// NewLocationsPotentialContainer creates an empty container.
func NewLocationsPotentialContainer() *LocationsPotentialContainer {
	return &LocationsPotentialContainer{
		potentials: make(map[models.Location]int),
	}
}

// Len returns the number of distinct locations registered.
func (c *LocationsPotentialContainer) Len() int {
	return len(c.potentials)
}

// Potential returns the registered potential of a location.
func (c *LocationsPotentialContainer) Potential(loc models.Location) (int, bool) {
	pot, ok := c.potentials[loc]
	return pot, ok
}

// Update reconciles an extension grid with the container: pairs whose
// location and potential are both already registered are removed from the
// grid, everything else is merged in with the grid's potential winning on
// conflict. Feeding the same grid twice therefore leaves it empty the
// second time.
func (c *LocationsPotentialContainer) Update(g *ExtensionGrid) {
	kept := g.locations[:0]
	keptPotentials := g.Potentials[:0]
	repeated := 0
	for idx, loc := range g.locations {
		pot := g.Potentials[idx]
		if known, ok := c.potentials[loc]; ok && known == pot {
			repeated++
			continue
		}
		c.potentials[loc] = pot
		kept = append(kept, loc)
		keptPotentials = append(keptPotentials, pot)
	}
	g.locations = kept
	g.Potentials = keptPotentials
	g.cursor = 0

	c.Stats.Repeated = append(c.Stats.Repeated, repeated)
	c.Stats.TotalRepeated += repeated
}
