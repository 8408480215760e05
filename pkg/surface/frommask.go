package surface

import (
	"fmt"
	"math"
	"sort"

	"seishorizon/internal/models"
	"seishorizon/pkg/geometry"
)

// GroupMode selects how multiple mask voxels on one trace collapse into a
// single depth.
type GroupMode int

const (
	// GroupMean keeps the rounded mean depth per trace.
	GroupMean GroupMode = iota

	// GroupMin keeps the shallowest depth per trace.
	GroupMin

	// GroupMax keeps the deepest depth per trace.
	GroupMax
)

// FromMaskOptions parameterizes surface extraction from prediction masks.
type FromMaskOptions struct {
	// Threshold binarizes the mask; voxels at or above it count as
	// surface. Defaults to 0.5.
	Threshold float32

	// Mode collapses multiple voxels per trace into one depth
	Mode GroupMode

	// MinSize drops extracted surfaces covering fewer traces
	MinSize int

	// Origin places the mask inside the volume, in cube coordinates
	Origin [3]int

	// Prefix names the extracted surfaces prefix_0, prefix_1, ...
	// Defaults to "surface".
	Prefix string
}

// FromMask extracts one surface per connected component of the thresholded
// mask. Components are connected through the full 26-voxel neighborhood,
// so a single component may stack several voxels on one trace; Mode
// decides which depth survives. The result is sorted by size, smallest
// first.
func FromMask(vol geometry.Volume, mask *models.Mask3D, opts FromMaskOptions) []*Surface {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.5
	}
	if opts.Prefix == "" {
		opts.Prefix = "surface"
	}

	components := labelMask26(mask, opts.Threshold)
	surfaces := make([]*Surface, 0, len(components))
	for _, comp := range components {
		points := collapseComponent(comp, opts)
		if len(points) < opts.MinSize || len(points) == 0 {
			continue
		}
		name := fmt.Sprintf("%s_%d", opts.Prefix, len(surfaces))
		surfaces = append(surfaces, NewFromPoints(vol, name, points, true))
	}
	sort.SliceStable(surfaces, func(a, b int) bool {
		return surfaces[a].Len() < surfaces[b].Len()
	})
	for idx, s := range surfaces {
		s.Name = fmt.Sprintf("%s_%d", opts.Prefix, idx)
	}
	return surfaces
}

// collapseComponent groups component voxels by trace and collapses depths
// per the group mode, shifting into cube coordinates.
func collapseComponent(comp []models.Point, opts FromMaskOptions) []models.Point {
	type acc struct {
		sum, count, minD, maxD int
	}
	traces := make(map[[2]int]*acc)
	for _, v := range comp {
		key := [2]int{v.I, v.X}
		a, ok := traces[key]
		if !ok {
			traces[key] = &acc{sum: v.D, count: 1, minD: v.D, maxD: v.D}
			continue
		}
		a.sum += v.D
		a.count++
		a.minD = min(a.minD, v.D)
		a.maxD = max(a.maxD, v.D)
	}

	points := make([]models.Point, 0, len(traces))
	for key, a := range traces {
		var d int
		switch opts.Mode {
		case GroupMin:
			d = a.minD
		case GroupMax:
			d = a.maxD
		default:
			d = int(math.Round(float64(a.sum) / float64(a.count)))
		}
		points = append(points, models.Point{
			I: key[0] + opts.Origin[0],
			X: key[1] + opts.Origin[1],
			D: d + opts.Origin[2],
		})
	}
	sort.Slice(points, func(a, b int) bool { return points[a].Less(points[b]) })
	return points
}

// labelMask26 returns the connected components of the thresholded mask,
// using 26-connectivity, as voxel lists in mask coordinates.
func labelMask26(mask *models.Mask3D, threshold float32) [][]models.Point {
	ni, nx, nd := mask.NI, mask.NX, mask.ND
	visited := make([]bool, len(mask.Data))
	var components [][]models.Point
	stack := make([]models.Point, 0, 256)

	for i := 0; i < ni; i++ {
		for x := 0; x < nx; x++ {
			for d := 0; d < nd; d++ {
				idx := mask.Index(i, x, d)
				if visited[idx] || mask.Data[idx] < threshold {
					continue
				}
				visited[idx] = true
				stack = append(stack[:0], models.Point{I: i, X: x, D: d})
				var comp []models.Point
				for len(stack) > 0 {
					v := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					comp = append(comp, v)
					for di := -1; di <= 1; di++ {
						for dx := -1; dx <= 1; dx++ {
							for dd := -1; dd <= 1; dd++ {
								if di == 0 && dx == 0 && dd == 0 {
									continue
								}
								ii, xx, zz := v.I+di, v.X+dx, v.D+dd
								if ii < 0 || ii >= ni || xx < 0 || xx >= nx || zz < 0 || zz >= nd {
									continue
								}
								nidx := mask.Index(ii, xx, zz)
								if visited[nidx] || mask.Data[nidx] < threshold {
									continue
								}
								visited[nidx] = true
								stack = append(stack, models.Point{I: ii, X: xx, D: zz})
							}
						}
					}
				}
				components = append(components, comp)
			}
		}
	}
	return components
}
