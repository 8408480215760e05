// Package fault implements fault labels over 3D seismic volumes: sparse
// voxel clouds that, unlike surfaces, may stack many depths per trace.
// Faults are produced from prediction masks by connected-component
// labeling or parsed from stick files.
package fault

import (
	"runtime"
	"sort"
	"sync"

	"seishorizon/internal/models"
	"seishorizon/pkg/geometry"
)

// Fault is a connected cloud of fault voxels, optionally carrying the
// stick skeleton it was digitized from.
type Fault struct {
	// Name identifies the fault in logs and reports
	Name string

	vol geometry.Volume

	// Points is the full voxel cloud, lexicographically sorted
	Points []models.Point

	// Nodes are the digitized stick nodes, when the fault came from
	// sticks; nil otherwise
	Nodes []models.Point

	// Sticks groups the nodes into digitization polylines
	Sticks [][]models.Point

	// Direction is the spatial axis the fault is thin along, either
	// AxisInline or AxisCrossline
	Direction int
}

// New creates a fault from a voxel cloud. The cloud is sorted and
// deduplicated, and the direction is inferred from its extents.
func New(vol geometry.Volume, name string, points []models.Point) *Fault {
	f := &Fault{
		Name:   name,
		vol:    vol,
		Points: sortDedup(points),
	}
	f.Direction = f.inferDirection()
	return f
}

// Volume returns the volume the fault is bound to.
func (f *Fault) Volume() geometry.Volume {
	return f.vol
}

// Len returns the number of voxels in the fault.
func (f *Fault) Len() int {
	return len(f.Points)
}

// IsEmpty reports whether the fault holds no voxels.
func (f *Fault) IsEmpty() bool {
	return len(f.Points) == 0
}

// BBox returns the inclusive bounding box of the voxel cloud. An empty
// fault yields all zeros.
func (f *Fault) BBox() (iMin, iMax, xMin, xMax, dMin, dMax int) {
	for idx, p := range f.Points {
		if idx == 0 {
			iMin, iMax, xMin, xMax, dMin, dMax = p.I, p.I, p.X, p.X, p.D, p.D
			continue
		}
		iMin, iMax = min(iMin, p.I), max(iMax, p.I)
		xMin, xMax = min(xMin, p.X), max(xMax, p.X)
		dMin, dMax = min(dMin, p.D), max(dMax, p.D)
	}
	return
}

// inferDirection picks the spatial axis with the smaller extent: fault
// planes are roughly vertical, so the thin axis is the one to cut crops
// across.
func (f *Fault) inferDirection() int {
	iMin, iMax, xMin, xMax, _, _ := f.BBox()
	if iMax-iMin <= xMax-xMin {
		return models.AxisInline
	}
	return models.AxisCrossline
}

// Merge combines two faults into a new one: voxel clouds are concatenated,
// sorted and deduplicated, node and stick metadata is concatenated in
// parallel when present.
func (f *Fault) Merge(other *Fault) *Fault {
	merged := make([]models.Point, 0, len(f.Points)+len(other.Points))
	merged = append(merged, f.Points...)
	merged = append(merged, other.Points...)

	out := New(f.vol, f.Name+"+"+other.Name, merged)
	if f.Nodes != nil || other.Nodes != nil {
		out.Nodes = append(append([]models.Point{}, f.Nodes...), other.Nodes...)
		out.Sticks = append(append([][]models.Point{}, f.Sticks...), other.Sticks...)
	}
	return out
}

// AddToMask rasterizes the fault into the crop of the mask described by
// loc, painting every voxel inside the crop with alpha. Voxels are
// written in parallel; the sorted, deduplicated cloud guarantees disjoint
// cells.
func (f *Fault) AddToMask(mask *models.Mask3D, loc models.Location, alpha float32) {
	iMin, iMax, xMin, xMax, dMin, dMax := f.BBox()
	if f.IsEmpty() ||
		iMax < loc.Start[0] || iMin >= loc.Stop[0] ||
		xMax < loc.Start[1] || xMin >= loc.Stop[1] ||
		dMax < loc.Start[2] || dMin >= loc.Stop[2] {
		return
	}

	workers := runtime.NumCPU()
	perWorker := (len(f.Points) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(f.Points); start += perWorker {
		end := min(start+perWorker, len(f.Points))
		wg.Add(1)
		go func(points []models.Point) {
			defer wg.Done()
			for _, p := range points {
				if p.I < loc.Start[0] || p.I >= loc.Stop[0] ||
					p.X < loc.Start[1] || p.X >= loc.Stop[1] ||
					p.D < loc.Start[2] || p.D >= loc.Stop[2] {
					continue
				}
				mask.Set(p.I-loc.Start[0], p.X-loc.Start[1], p.D-loc.Start[2], alpha)
			}
		}(f.Points[start:end])
	}
	wg.Wait()
}

func sortDedup(points []models.Point) []models.Point {
	out := make([]models.Point, len(points))
	copy(out, points)
	sort.Slice(out, func(a, b int) bool { return out[a].Less(out[b]) })
	dedup := out[:0]
	for i, p := range out {
		if i > 0 && p == out[i-1] {
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}
