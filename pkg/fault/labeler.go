package fault

import (
	"fmt"
	"math"
	"sort"

	"seishorizon/internal/models"
	"seishorizon/pkg/geometry"
)

// LabelerConfig parameterizes connected-component extraction of faults
// from prediction masks.
type LabelerConfig struct {
	// Threshold binarizes the mask; voxels at or above it count as
	// fault. Defaults to 0.5.
	Threshold float32

	// ChunkSize processes the mask in slabs of this many inlines to
	// bound peak memory. Zero labels the whole mask in one pass.
	ChunkSize int

	// Overlap is the number of inlines shared by consecutive slabs.
	// Components are stitched across slabs through this band, so it must
	// exceed the largest component extent along the inline axis;
	// otherwise a component can come out split in two. Defaults to 1
	// when chunking is on.
	Overlap int

	// SizeThreshold drops components whose areal size, the diagonal of
	// the spatial bounding box, is strictly below it
	SizeThreshold float64

	// Prefix names the extracted faults prefix_0, prefix_1, ...
	// Defaults to "fault".
	Prefix string
}

// FromMask extracts one fault per 26-connected component of the
// thresholded mask. The mask is processed in overlapping inline slabs and
// components straddling slab borders are reconciled through a union-find
// over their labels. The result is sorted by areal size, largest first.
func FromMask(vol geometry.Volume, mask *models.Mask3D, cfg LabelerConfig) []*Fault {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.5
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "fault"
	}
	chunk := cfg.ChunkSize
	if chunk <= 0 || chunk >= mask.NI {
		chunk = mask.NI
	}
	overlap := cfg.Overlap
	if overlap < 1 {
		overlap = 1
	}
	if overlap >= chunk {
		overlap = chunk - 1
	}

	uf := newUnionFind()
	byLabel := make(map[int][]models.Point)

	// prevBand maps flat voxel indices of the previous slab's trailing
	// rows to their labels, for stitching.
	prevBand := make(map[int]int)

	step := chunk - overlap
	if step < 1 {
		step = 1
	}
	for start := 0; start < mask.NI; start += step {
		stop := min(start+chunk, mask.NI)
		labels := labelSlab(mask, cfg.Threshold, start, stop, uf)

		band := make(map[int]int)
		for p, label := range labels {
			if start > 0 && p.I < start+overlap {
				// The previous slab already owns this voxel; stitch
				// instead of double-counting.
				if prev, ok := prevBand[mask.Index(p.I, p.X, p.D)]; ok {
					uf.union(prev, label)
				}
				continue
			}
			byLabel[label] = append(byLabel[label], p)
		}
		for p, label := range labels {
			if p.I >= stop-overlap {
				band[mask.Index(p.I, p.X, p.D)] = label
			}
		}
		prevBand = band
		if stop == mask.NI {
			break
		}
	}

	// Collapse label chains into root components.
	byRoot := make(map[int][]models.Point)
	for label, points := range byLabel {
		root := uf.find(label)
		byRoot[root] = append(byRoot[root], points...)
	}

	faults := make([]*Fault, 0, len(byRoot))
	for _, points := range byRoot {
		f := New(vol, "", points)
		if arealSize(f) < cfg.SizeThreshold {
			continue
		}
		faults = append(faults, f)
	}
	sort.SliceStable(faults, func(a, b int) bool {
		return arealSize(faults[a]) > arealSize(faults[b])
	})
	for idx, f := range faults {
		f.Name = fmt.Sprintf("%s_%d", cfg.Prefix, idx)
	}
	return faults
}

// FromPoints labels a sparse voxel cloud by rasterizing it into a mask on
// the full volume extents and extracting components from that.
func FromPoints(vol geometry.Volume, points []models.Point, cfg LabelerConfig) []*Fault {
	ni, nx, nd := vol.CubeShape()
	mask := models.NewMask3D(ni, nx, nd)
	for _, p := range points {
		mask.Set(p.I, p.X, p.D, 1)
	}
	return FromMask(vol, mask, cfg)
}

// arealSize is the diagonal of the spatial bounding box: a measure of how
// much trace area the fault spans, insensitive to its depth extent.
func arealSize(f *Fault) float64 {
	if f.IsEmpty() {
		return 0
	}
	iMin, iMax, xMin, xMax, _, _ := f.BBox()
	return math.Hypot(float64(iMax-iMin+1), float64(xMax-xMin+1))
}

// labelSlab runs 26-connected component labeling on mask rows
// [start, stop), allocating fresh labels from the union-find. Voxel
// coordinates in the result are absolute.
func labelSlab(mask *models.Mask3D, threshold float32, start, stop int, uf *unionFind) map[models.Point]int {
	visited := make(map[int]bool)
	out := make(map[models.Point]int)
	var stack []models.Point

	for i := start; i < stop; i++ {
		for x := 0; x < mask.NX; x++ {
			for d := 0; d < mask.ND; d++ {
				idx := mask.Index(i, x, d)
				if visited[idx] || mask.Data[idx] < threshold {
					continue
				}
				label := uf.makeSet()
				visited[idx] = true
				stack = append(stack[:0], models.Point{I: i, X: x, D: d})
				for len(stack) > 0 {
					v := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					out[v] = label
					for di := -1; di <= 1; di++ {
						for dx := -1; dx <= 1; dx++ {
							for dd := -1; dd <= 1; dd++ {
								if di == 0 && dx == 0 && dd == 0 {
									continue
								}
								ii, xx, zz := v.I+di, v.X+dx, v.D+dd
								if ii < start || ii >= stop ||
									xx < 0 || xx >= mask.NX || zz < 0 || zz >= mask.ND {
									continue
								}
								nIdx := mask.Index(ii, xx, zz)
								if visited[nIdx] || mask.Data[nIdx] < threshold {
									continue
								}
								visited[nIdx] = true
								stack = append(stack, models.Point{I: ii, X: xx, D: zz})
							}
						}
					}
				}
			}
		}
	}
	return out
}

// unionFind is a union-find over integer labels with path compression and
// union by rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind() *unionFind {
	return &unionFind{}
}

// makeSet allocates a fresh label that is its own root.
func (u *unionFind) makeSet() int {
	label := len(u.parent)
	u.parent = append(u.parent, label)
	u.rank = append(u.rank, 0)
	return label
}

func (u *unionFind) find(label int) int {
	for u.parent[label] != label {
		u.parent[label] = u.parent[u.parent[label]]
		label = u.parent[label]
	}
	return label
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
