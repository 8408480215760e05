package grid

import (
	"fmt"

	"seishorizon/internal/models"
	"seishorizon/pkg/geometry"
)

// RegularConfig parameterizes a regular tiling of a volume region.
// Exactly one of Strides, Overlap and OverlapFactor may be set; when none
// is, crops tile the region back to back.
type RegularConfig struct {
	// CropShape is the crop extents in cube axis order
	CropShape [3]int

	// Orientation is OrientInline or OrientCrossline; the latter
	// transposes the spatial crop extents
	Orientation int

	// Ranges restricts the tiling to [start, stop) per axis; nil covers
	// the full volume
	Ranges *[3][2]int

	// Strides is the distance between consecutive crop starts per axis
	Strides *[3]int

	// Overlap is the number of shared cells between consecutive crops
	// per axis; it resolves to strides = crop - overlap
	Overlap *[3]int

	// OverlapFactor divides the crop extents to obtain strides
	OverlapFactor *[3]float64

	// Threshold filters tiles by live-trace content: values in (0, 1)
	// are a fraction of the crop footprint, values >= 1 an absolute
	// count. A tile is kept when its live traces strictly exceed it.
	Threshold float64

	// BatchSize is the iteration batch size; defaults to DefaultBatchSize
	BatchSize int

	// FieldID and LabelID are stamped on every generated location
	FieldID, LabelID int
}

// NewRegular tiles a region of the volume with crops of fixed shape.
// Tiles whose footprint holds too few live traces are dropped; the depth
// axis is never filtered. Locations come out in lexicographic order,
// first spatial axis outermost.
func NewRegular(vol geometry.Volume, cfg RegularConfig) (*Grid, error) {
	for a, c := range cfg.CropShape {
		if c < 1 {
			return nil, fmt.Errorf("grid: crop extent %d on axis %d", c, a)
		}
	}
	policies := 0
	for _, set := range []bool{cfg.Strides != nil, cfg.Overlap != nil, cfg.OverlapFactor != nil} {
		if set {
			policies++
		}
	}
	if policies > 1 {
		return nil, ErrStridePolicy
	}

	crop := cfg.CropShape
	strides := crop
	switch {
	case cfg.Strides != nil:
		strides = *cfg.Strides
	case cfg.Overlap != nil:
		for a := 0; a < 3; a++ {
			strides[a] = crop[a] - cfg.Overlap[a]
		}
	case cfg.OverlapFactor != nil:
		for a := 0; a < 3; a++ {
			strides[a] = int(float64(crop[a]) / cfg.OverlapFactor[a])
		}
	}
	for a := 0; a < 3; a++ {
		if strides[a] < 1 {
			strides[a] = 1
		}
	}
	if cfg.Orientation == models.OrientCrossline {
		crop[0], crop[1] = crop[1], crop[0]
		strides[0], strides[1] = strides[1], strides[0]
	}

	ni, nx, nd := vol.CubeShape()
	ranges := [3][2]int{{0, ni}, {0, nx}, {0, nd}}
	if cfg.Ranges != nil {
		for a, ext := range [3]int{ni, nx, nd} {
			ranges[a][0] = max(cfg.Ranges[a][0], 0)
			ranges[a][1] = min(cfg.Ranges[a][1], ext)
		}
	}

	threshold := cfg.Threshold
	if threshold > 0 && threshold < 1 {
		threshold *= float64(crop[0] * crop[1])
	}

	var starts [3][]int
	for a := 0; a < 3; a++ {
		starts[a] = arangeClip(ranges[a][0], ranges[a][1], strides[a], ranges[a][1]-crop[a])
	}

	zero := vol.ZeroTraces()
	footprint := crop[0] * crop[1]
	var locations []models.Location
	for _, i := range starts[0] {
		if i+crop[0] > ni {
			continue
		}
		for _, x := range starts[1] {
			if x+crop[1] > nx {
				continue
			}
			alive := footprint - zero.CountRegion(i, x, i+crop[0], x+crop[1])
			if float64(alive) <= threshold {
				continue
			}
			for _, h := range starts[2] {
				if h+crop[2] > nd {
					continue
				}
				locations = append(locations, models.Location{
					FieldID:     cfg.FieldID,
					LabelID:     cfg.LabelID,
					Orientation: cfg.Orientation,
					Start:       [3]int{i, x, h},
					Stop:        [3]int{i + crop[0], x + crop[1], h + crop[2]},
				})
			}
		}
	}

	origin := [3]int{ranges[0][0], ranges[1][0], ranges[2][0]}
	endpoint := [3]int{ranges[0][1], ranges[1][1], ranges[2][1]}
	return newGrid(locations, crop, cfg.BatchSize, cfg.Orientation, origin, endpoint), nil
}
