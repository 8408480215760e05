// Package geometry abstracts access to a 3D seismic volume: its spatial
// extents, its dead-trace map, and amplitude crops cut out of it.
package geometry

import (
	"fmt"

	"seishorizon/internal/models"
)

// Volume is the read-side interface every surface, grid and labeler
// consumes. Implementations are expected to be safe for concurrent reads.
type Volume interface {
	// Shape returns the spatial extents (inline, crossline) of the volume.
	Shape() (ni, nx int)

	// CubeShape returns the full extents (inline, crossline, depth).
	CubeShape() (ni, nx, nd int)

	// ZeroTraces returns the dead-trace map: a set cell marks a trace
	// that carries no usable signal. The returned plane is shared and
	// must not be mutated.
	ZeroTraces() *models.BitPlane

	// LoadCrop reads amplitude samples for the location into a row-major
	// (I, X, D) buffer of loc.Size() values. Samples outside the volume
	// are an error.
	LoadCrop(loc models.Location) ([]float64, error)
}

// InMemoryVolume is a Volume backed by an in-process amplitude cube.
// The amplitude data is optional: a volume built from extents alone still
// answers shape and dead-trace queries, and LoadCrop returns zeros.
type InMemoryVolume struct {
	ni, nx, nd int
	zero       *models.BitPlane
	data       []float64
}

// NewInMemoryVolume creates a volume with the given extents, all traces
// alive and no amplitude data attached.
func NewInMemoryVolume(ni, nx, nd int) *InMemoryVolume {
	return &InMemoryVolume{
		ni:   ni,
		nx:   nx,
		nd:   nd,
		zero: models.NewBitPlane(ni, nx),
	}
}

// SetAmplitudes attaches amplitude data to the volume. The buffer must
// hold exactly ni*nx*nd samples in row-major (I, X, D) order.
func (v *InMemoryVolume) SetAmplitudes(data []float64) error {
	if len(data) != v.ni*v.nx*v.nd {
		return fmt.Errorf("amplitude buffer holds %d samples, volume needs %d", len(data), v.ni*v.nx*v.nd)
	}
	v.data = data
	return nil
}

// KillTrace marks the trace at (i, x) as dead.
func (v *InMemoryVolume) KillTrace(i, x int) {
	v.zero.Set(i, x, true)
}

// Shape returns the spatial extents of the volume.
func (v *InMemoryVolume) Shape() (int, int) {
	return v.ni, v.nx
}

// CubeShape returns the full extents of the volume.
func (v *InMemoryVolume) CubeShape() (int, int, int) {
	return v.ni, v.nx, v.nd
}

// ZeroTraces returns the dead-trace map.
func (v *InMemoryVolume) ZeroTraces() *models.BitPlane {
	return v.zero
}

// LoadCrop reads amplitude samples for the location.
func (v *InMemoryVolume) LoadCrop(loc models.Location) ([]float64, error) {
	for a, ext := range [3]int{v.ni, v.nx, v.nd} {
		if loc.Start[a] < 0 || loc.Stop[a] > ext || loc.Start[a] > loc.Stop[a] {
			return nil, fmt.Errorf("crop range [%d, %d) exceeds volume extent %d on axis %d",
				loc.Start[a], loc.Stop[a], ext, a)
		}
	}

	out := make([]float64, loc.Size())
	if v.data == nil {
		return out, nil
	}

	shape := loc.Shape()
	pos := 0
	for i := loc.Start[0]; i < loc.Stop[0]; i++ {
		for x := loc.Start[1]; x < loc.Stop[1]; x++ {
			base := (i*v.nx + x) * v.nd
			copy(out[pos:pos+shape[2]], v.data[base+loc.Start[2]:base+loc.Stop[2]])
			pos += shape[2]
		}
	}
	return out, nil
}
