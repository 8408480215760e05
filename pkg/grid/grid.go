// Package grid generates crop locations over 3D seismic volumes: regular
// tilings for inference sweeps and surface-guided extension grids for
// iterative enlargement of known labels.
package grid

import (
	"sort"

	"seishorizon/internal/models"
)

// DefaultBatchSize is used when a grid is configured without one.
const DefaultBatchSize = 64

// Grid is an ordered collection of crop locations with batched, one-shot
// iteration. Grids are produced by the constructors in this package and
// by Join and ToChunks.
type Grid struct {
	// CropShape is the spatial extents of every generated crop, in the
	// axis order of the generating orientation
	CropShape [3]int

	// BatchSize is the maximum number of locations per NextBatch call
	BatchSize int

	// Orientation is OrientInline, OrientCrossline, or OrientMixed for
	// grids carrying both
	Orientation int

	locations        []models.Location
	origin, endpoint [3]int
	cursor           int
}

func newGrid(locations []models.Location, cropShape [3]int, batchSize, orientation int, origin, endpoint [3]int) *Grid {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Grid{
		CropShape:   cropShape,
		BatchSize:   batchSize,
		Orientation: orientation,
		locations:   locations,
		origin:      origin,
		endpoint:    endpoint,
	}
}

// Len returns the number of locations in the grid.
func (g *Grid) Len() int {
	return len(g.locations)
}

// NIterations returns the number of NextBatch calls needed to drain the
// grid.
func (g *Grid) NIterations() int {
	return (len(g.locations) + g.BatchSize - 1) / g.BatchSize
}

// Locations returns the full location list in generation order. The slice
// is shared with the grid and must not be mutated.
func (g *Grid) Locations() []models.Location {
	return g.locations
}

// Origin returns the configured lower corner of the gridded region.
func (g *Grid) Origin() [3]int {
	return g.origin
}

// Endpoint returns the configured upper corner of the gridded region.
func (g *Grid) Endpoint() [3]int {
	return g.endpoint
}

// ActualBounds returns the tight bounds of the generated locations: the
// componentwise minimum of starts and maximum of stops. A grid without
// locations yields zero bounds.
func (g *Grid) ActualBounds() (origin, endpoint [3]int) {
	for idx, loc := range g.locations {
		if idx == 0 {
			origin, endpoint = loc.Start, loc.Stop
			continue
		}
		for a := 0; a < 3; a++ {
			origin[a] = min(origin[a], loc.Start[a])
			endpoint[a] = max(endpoint[a], loc.Stop[a])
		}
	}
	return origin, endpoint
}

// NextBatch returns the next contiguous slice of at most BatchSize
// locations. Once the grid is drained every further call returns
// ErrExhausted; iteration does not restart.
func (g *Grid) NextBatch() ([]models.Location, error) {
	if g.cursor >= len(g.locations) {
		return nil, ErrExhausted
	}
	end := min(g.cursor+g.BatchSize, len(g.locations))
	batch := g.locations[g.cursor:end]
	g.cursor = end
	return batch, nil
}

// Join merges two grids into a new one: the union of their locations with
// duplicates removed, the smaller batch size, bounds spanning both, and a
// mixed orientation when the two disagree. Iteration state is not carried
// over.
func (g *Grid) Join(other *Grid) *Grid {
	merged := make([]models.Location, 0, len(g.locations)+len(other.locations))
	merged = append(merged, g.locations...)
	merged = append(merged, other.locations...)
	merged = dedupLocations(merged)

	orientation := g.Orientation
	if other.Orientation != orientation {
		orientation = models.OrientMixed
	}
	var origin, endpoint [3]int
	for a := 0; a < 3; a++ {
		origin[a] = min(g.origin[a], other.origin[a])
		endpoint[a] = max(g.endpoint[a], other.endpoint[a])
	}
	return newGrid(merged, g.CropShape, min(g.BatchSize, other.BatchSize), orientation, origin, endpoint)
}

// ToChunks partitions the gridded region into overlapping chunks along the
// given spatial axis and returns one grid per chunk, keeping only the
// locations that fit fully inside it. Axis -1 resolves to the grid
// orientation; a mixed grid then fails with ErrOrientation. A location
// straddling a chunk border is dropped from that chunk but kept by the
// neighbor that contains it whole.
func (g *Grid) ToChunks(size, overlap, axis int) ([]*Grid, error) {
	if axis < 0 {
		if g.Orientation == models.OrientMixed {
			return nil, ErrOrientation
		}
		axis = g.Orientation
	}
	if axis > 1 {
		return nil, ErrOrientation
	}

	extent := g.endpoint[axis] - g.origin[axis]
	if size >= extent {
		chunk := newGrid(g.locations, g.CropShape, g.BatchSize, g.Orientation, g.origin, g.endpoint)
		return []*Grid{chunk}, nil
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}
	starts := arangeClip(g.origin[axis], g.endpoint[axis], step, g.endpoint[axis]-size)

	chunks := make([]*Grid, 0, len(starts))
	for _, start := range starts {
		origin, endpoint := g.origin, g.endpoint
		origin[axis] = start
		endpoint[axis] = start + size

		var kept []models.Location
		for _, loc := range g.locations {
			if loc.Start[axis] >= start && loc.Stop[axis] <= start+size {
				kept = append(kept, loc)
			}
		}
		chunks = append(chunks, newGrid(kept, g.CropShape, g.BatchSize, g.Orientation, origin, endpoint))
	}
	return chunks, nil
}

// arangeClip returns start, start+step, ... below stop, with every value
// clipped to limit, deduplicated and sorted.
func arangeClip(start, stop, step, limit int) []int {
	var vals []int
	for v := start; v < stop; v += step {
		vals = append(vals, min(v, max(limit, start)))
	}
	sort.Ints(vals)
	dedup := vals[:0]
	for i, v := range vals {
		if i > 0 && v == vals[i-1] {
			continue
		}
		dedup = append(dedup, v)
	}
	return dedup
}

// dedupLocations sorts locations by every column and removes duplicates.
func dedupLocations(locs []models.Location) []models.Location {
	sort.Slice(locs, func(a, b int) bool { return locs[a].Less(locs[b]) })
	dedup := locs[:0]
	for i, l := range locs {
		if i > 0 && l == locs[i-1] {
			continue
		}
		dedup = append(dedup, l)
	}
	return dedup
}
