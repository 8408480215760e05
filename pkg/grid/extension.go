package grid

import (
	"fmt"
	"math/rand"
	"sort"

	"seishorizon/internal/models"
	"seishorizon/pkg/surface"
)

// Extension grid modes. The first three score candidates from all four
// directions; the directional modes restrict generation to a subset.
const (
	// ModeBestForEach keeps the top candidates per boundary point,
	// scoring greedily against a live coverage map so that already
	// selected crops devalue their neighbors.
	ModeBestForEach = "best_for_each"

	// ModeBestForEachIndependent keeps the top candidates per boundary
	// point, scoring every candidate against the initial coverage.
	ModeBestForEachIndependent = "best_for_each_independent"

	// ModeBestForAll keeps the single direction whose candidates promise
	// the most new coverage overall.
	ModeBestForAll = "best_for_all"

	ModeUp         = "up"
	ModeDown       = "down"
	ModeLeft       = "left"
	ModeRight      = "right"
	ModeVertical   = "vertical"
	ModeHorizontal = "horizontal"
)

// ExtensionConfig parameterizes an extension grid around a surface.
type ExtensionConfig struct {
	// CropShape is the crop extents in the axis order of an inline crop
	CropShape [3]int

	// Stride offsets candidate crops back from the boundary point, so
	// each candidate overlaps the known surface by a stride-wide band
	Stride int

	// Top is the number of candidates kept per boundary point; defaults
	// to 1
	Top int

	// Threshold drops candidates whose potential does not strictly
	// exceed it
	Threshold int

	// PriorThreshold is the minimum number of covered cells in the
	// stride-wide band nearest the known surface; candidates below it
	// are discarded outright. Zero disables the gate.
	PriorThreshold int

	// Mode is one of the mode constants above; empty selects
	// ModeBestForEach
	Mode string

	// Randomize shuffles the direction order used for greedy scoring
	Randomize bool

	// Seed drives the shuffle when Randomize is set
	Seed int64

	// BatchSize is the iteration batch size; defaults to DefaultBatchSize
	BatchSize int

	// FieldID and LabelID are stamped on every generated location
	FieldID, LabelID int
}

// ExtensionStats reports how the candidate pool narrowed down.
type ExtensionStats struct {
	// Possible is the number of candidates generated and scored
	Possible int

	// TopLocations is the number of distinct locations surviving mode
	// selection and deduplication
	TopLocations int

	// Selected is the final number of locations after thresholding
	Selected int

	// UncoveredBefore is the number of uncovered traces before extension
	UncoveredBefore int

	// UncoveredBest is the number of traces still uncovered if every
	// claiming crop delivers fully: the greedy scoring coverage in
	// ModeBestForEach, the final selection otherwise
	UncoveredBest int
}

// ExtensionGrid is a grid of crops around the boundary of a known
// surface, ranked by how much new coverage each crop can add.
type ExtensionGrid struct {
	Grid

	// Potentials holds the expected new-coverage count per location,
	// parallel to Locations()
	Potentials []int

	// Stats summarizes candidate generation and selection
	Stats ExtensionStats
}

// direction describes one of the four ways a candidate crop can hang off
// a boundary point.
type direction struct {
	orientation int
	shiftI      int // start offset along the inline axis
	shiftX      int // start offset along the crossline axis
	moveAxis    int // axis the crop was moved along; the prior band lies on it
}

func resolveDirections(mode string, cs [3]int, stride int) ([]direction, bool, error) {
	up := direction{orientation: models.OrientInline, shiftX: -stride, moveAxis: 1}
	down := direction{orientation: models.OrientInline, shiftX: -(cs[1] - stride), moveAxis: 1}
	left := direction{orientation: models.OrientCrossline, shiftI: -stride, moveAxis: 0}
	right := direction{orientation: models.OrientCrossline, shiftI: -(cs[1] - stride), moveAxis: 0}

	switch mode {
	case "", ModeBestForEach:
		return []direction{up, down, left, right}, true, nil
	case ModeBestForEachIndependent, ModeBestForAll:
		return []direction{up, down, left, right}, false, nil
	case ModeUp:
		return []direction{up}, false, nil
	case ModeDown:
		return []direction{down}, false, nil
	case ModeLeft:
		return []direction{left}, false, nil
	case ModeRight:
		return []direction{right}, false, nil
	case ModeVertical:
		return []direction{up, down}, false, nil
	case ModeHorizontal:
		return []direction{left, right}, false, nil
	default:
		return nil, false, ErrUnknownMode
	}
}

// extents returns the spatial extents of a crop in this direction.
func (d direction) extents(cs [3]int) (int, int) {
	if d.orientation == models.OrientCrossline {
		return cs[1], cs[0]
	}
	return cs[0], cs[1]
}

// NewExtension builds a grid of candidate crops along the boundary of the
// surface. Each boundary point spawns one candidate per direction,
// anchored so the crop depth window is centered on the boundary depth and
// the crop overlaps the known surface by a stride-wide band. Candidates
// are scored by potential, the number of uncovered traces their footprint
// would claim, then narrowed per the configured mode.
func NewExtension(surf *surface.Surface, cfg ExtensionConfig) (*ExtensionGrid, error) {
	if cfg.Stride < 1 {
		cfg.Stride = 1
	}
	if cfg.Top < 1 {
		cfg.Top = 1
	}
	directions, update, err := resolveDirections(cfg.Mode, cfg.CropShape, cfg.Stride)
	if err != nil {
		return nil, err
	}
	if cfg.Randomize {
		rng := rand.New(rand.NewSource(cfg.Seed))
		rng.Shuffle(len(directions), func(a, b int) {
			directions[a], directions[b] = directions[b], directions[a]
		})
	}

	vol := surf.Volume()
	ni, nx, nd := vol.CubeShape()
	if cfg.CropShape[2] < 1 || cfg.CropShape[2] > nd {
		return nil, fmt.Errorf("grid: crop depth %d does not fit volume depth %d", cfg.CropShape[2], nd)
	}

	// Directions whose crop cannot fit the volume at all are dropped up
	// front so every boundary point emits the same number of candidates.
	fitting := directions[:0:0]
	for _, dir := range directions {
		extI, extX := dir.extents(cfg.CropShape)
		if extI <= ni && extX <= nx {
			fitting = append(fitting, dir)
		}
	}
	directions = fitting

	// Coverage counts both labeled and dead traces: neither can yield
	// anything new.
	coverage := vol.ZeroTraces().Clone()
	coverage.Or(surf.PresenceMatrix())
	uncoveredBefore := coverage.Rows*coverage.Cols - coverage.Count()
	initial := coverage.Clone()

	candidates := buildCandidates(surf, directions, cfg, ni, nx)
	potentials := scoreCandidates(candidates, coverage, cfg, update)

	selected := selectCandidates(candidates, potentials, len(directions), cfg.Mode, cfg.Top)

	// Deduplicate on final, depth-clipped locations, keeping the best
	// potential seen for each.
	best := make(map[models.Location]int, len(selected))
	for _, idx := range selected {
		loc := candidates[idx].toLocation(cfg, nd)
		if pot, ok := best[loc]; !ok || potentials[idx] > pot {
			best[loc] = potentials[idx]
		}
	}
	locations := make([]models.Location, 0, len(best))
	for loc, pot := range best {
		if pot > cfg.Threshold {
			locations = append(locations, loc)
		}
	}
	sort.Slice(locations, func(a, b int) bool { return locations[a].Less(locations[b]) })
	outPotentials := make([]int, len(locations))
	for i, loc := range locations {
		outPotentials[i] = best[loc]
	}

	// Report the best case this grid can reach. Greedy scoring already
	// painted every claiming candidate onto the coverage plane; otherwise
	// the final selection is projected onto the initial coverage.
	uncoveredPlane := coverage
	if !update {
		uncoveredPlane = initial
		for _, loc := range locations {
			uncoveredPlane.FillRegion(loc.Start[0], loc.Start[1], loc.Stop[0], loc.Stop[1], true)
		}
	}
	uncoveredBest := uncoveredPlane.Rows*uncoveredPlane.Cols - uncoveredPlane.Count()

	g := ExtensionGrid{
		Grid:       *newGrid(locations, cfg.CropShape, cfg.BatchSize, models.OrientMixed, [3]int{}, [3]int{ni, nx, nd}),
		Potentials: outPotentials,
		Stats: ExtensionStats{
			Possible:        len(candidates),
			TopLocations:    len(best),
			Selected:        len(locations),
			UncoveredBefore: uncoveredBefore,
			UncoveredBest:   uncoveredBest,
		},
	}
	g.Grid.origin, g.Grid.endpoint = g.Grid.ActualBounds()
	return &g, nil
}

// candidate is a crop hanging off one boundary point, before depth
// clipping.
type candidate struct {
	orientation    int
	i0, x0, i1, x1 int
	anchor         int
	moveAxis       int
}

func (c candidate) toLocation(cfg ExtensionConfig, nd int) models.Location {
	d0 := min(max(c.anchor, 0), nd-cfg.CropShape[2])
	return models.Location{
		FieldID:     cfg.FieldID,
		LabelID:     cfg.LabelID,
		Orientation: c.orientation,
		Start:       [3]int{c.i0, c.x0, d0},
		Stop:        [3]int{c.i1, c.x1, d0 + cfg.CropShape[2]},
	}
}

// buildCandidates walks the surface boundary in row-major order and emits
// one candidate per direction per boundary point, clipped to the volume.
func buildCandidates(surf *surface.Surface, directions []direction, cfg ExtensionConfig, ni, nx int) []candidate {
	boundaries := surf.BoundariesMatrix()
	m := surf.Matrix()
	oi, ox := surf.Origin()

	var out []candidate
	for r := 0; r < boundaries.Rows; r++ {
		for c := 0; c < boundaries.Cols; c++ {
			if !boundaries.At(r, c) {
				continue
			}
			i, x, d := r+oi, c+ox, m.At(r, c)
			anchor := d - cfg.CropShape[2]/2
			for _, dir := range directions {
				extI, extX := dir.extents(cfg.CropShape)
				i0 := min(max(i+dir.shiftI, 0), ni-extI)
				x0 := min(max(x+dir.shiftX, 0), nx-extX)
				out = append(out, candidate{
					orientation: dir.orientation,
					i0:          i0,
					x0:          x0,
					i1:          i0 + extI,
					x1:          x0 + extX,
					anchor:      anchor,
					moveAxis:    dir.moveAxis,
				})
			}
		}
	}
	return out
}

// scoreCandidates assigns each candidate its potential. A candidate whose
// prior band holds fewer covered cells than the prior threshold scores -1.
// With update set, scoring is greedy: each positive candidate claims its
// footprint before the next one is scored.
func scoreCandidates(candidates []candidate, coverage *models.BitPlane, cfg ExtensionConfig, update bool) []int {
	potentials := make([]int, len(candidates))
	for idx, c := range candidates {
		if cfg.PriorThreshold > 0 && priorBandCovered(c, coverage, cfg.Stride) < cfg.PriorThreshold {
			potentials[idx] = -1
			continue
		}
		area := (c.i1 - c.i0) * (c.x1 - c.x0)
		covered := coverage.CountRegion(c.i0, c.x0, c.i1, c.x1)
		potentials[idx] = area - covered
		if update && potentials[idx] > 0 {
			coverage.FillRegion(c.i0, c.x0, c.i1, c.x1, true)
		}
	}
	return potentials
}

// priorBandCovered counts covered cells in the two stride-wide bands at
// either end of the movement axis and returns the larger count; one of
// the bands is the strip nearest the known surface.
func priorBandCovered(c candidate, coverage *models.BitPlane, stride int) int {
	if c.moveAxis == 0 {
		head := coverage.CountRegion(c.i0, c.x0, min(c.i0+stride, c.i1), c.x1)
		tail := coverage.CountRegion(max(c.i1-stride, c.i0), c.x0, c.i1, c.x1)
		return max(head, tail)
	}
	head := coverage.CountRegion(c.i0, c.x0, c.i1, min(c.x0+stride, c.x1))
	tail := coverage.CountRegion(c.i0, max(c.x1-stride, c.x0), c.i1, c.x1)
	return max(head, tail)
}

// selectCandidates narrows candidate indices per the mode: the single
// best direction overall for ModeBestForAll, top candidates per boundary
// point otherwise.
func selectCandidates(candidates []candidate, potentials []int, nDirections int, mode string, top int) []int {
	if len(candidates) == 0 {
		return nil
	}
	if mode == ModeBestForAll {
		sums := make([]int, nDirections)
		for idx := range candidates {
			if potentials[idx] > 0 {
				sums[idx%nDirections] += potentials[idx]
			}
		}
		bestDir := 0
		for d := 1; d < nDirections; d++ {
			if sums[d] > sums[bestDir] {
				bestDir = d
			}
		}
		var out []int
		for idx := bestDir; idx < len(candidates); idx += nDirections {
			out = append(out, idx)
		}
		return out
	}

	var out []int
	group := make([]int, 0, nDirections)
	for start := 0; start < len(candidates); start += nDirections {
		group = group[:0]
		for idx := start; idx < min(start+nDirections, len(candidates)); idx++ {
			group = append(group, idx)
		}
		sort.SliceStable(group, func(a, b int) bool {
			return potentials[group[a]] > potentials[group[b]]
		})
		out = append(out, group[:min(top, len(group))]...)
	}
	return out
}
