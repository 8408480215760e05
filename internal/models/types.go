// Package models defines the shared data types used across the project:
// integer point clouds, crop locations, and the plane/volume buffers that
// surfaces and faults are rasterized into.
package models

// Axis indices of the cube coordinate system.
const (
	AxisInline    = 0
	AxisCrossline = 1
	AxisDepth     = 2
)

// Orientation flags carried by crop locations.
const (
	// OrientInline marks crops laid out along the inline axis.
	OrientInline = 0

	// OrientCrossline marks crops whose first two spatial extents are
	// transposed relative to the cube.
	OrientCrossline = 1

	// OrientMixed marks grids that carry locations of both orientations.
	OrientMixed = 2
)

// Point is a single voxel of a surface or fault, in cube coordinates.
type Point struct {
	// I is the inline index of the point
	I int

	// X is the crossline index of the point
	X int

	// D is the depth index of the point
	D int
}

// Less reports whether p sorts before q in lexicographic (I, X, D) order.
func (p Point) Less(q Point) bool {
	if p.I != q.I {
		return p.I < q.I
	}
	if p.X != q.X {
		return p.X < q.X
	}
	return p.D < q.D
}

// Location describes one crop of a 3D volume: which volume and label it
// belongs to, how the crop is oriented, and the half-open [Start, Stop)
// index ranges along each axis.
type Location struct {
	// FieldID identifies the source volume; -1 when not bound to one
	FieldID int

	// LabelID identifies the label the crop was generated for; -1 when none
	LabelID int

	// Orientation is one of OrientInline, OrientCrossline, OrientMixed
	Orientation int

	// Start holds the inclusive lower corner along each axis
	Start [3]int

	// Stop holds the exclusive upper corner along each axis
	Stop [3]int
}

// Shape returns the extent of the crop along each axis.
func (l Location) Shape() [3]int {
	return [3]int{
		l.Stop[0] - l.Start[0],
		l.Stop[1] - l.Start[1],
		l.Stop[2] - l.Start[2],
	}
}

// Size returns the number of voxels covered by the crop.
func (l Location) Size() int {
	s := l.Shape()
	return s[0] * s[1] * s[2]
}

// Less reports whether l sorts before m, comparing every column in order.
func (l Location) Less(m Location) bool {
	if l.FieldID != m.FieldID {
		return l.FieldID < m.FieldID
	}
	if l.LabelID != m.LabelID {
		return l.LabelID < m.LabelID
	}
	if l.Orientation != m.Orientation {
		return l.Orientation < m.Orientation
	}
	for a := 0; a < 3; a++ {
		if l.Start[a] != m.Start[a] {
			return l.Start[a] < m.Start[a]
		}
	}
	for a := 0; a < 3; a++ {
		if l.Stop[a] != m.Stop[a] {
			return l.Stop[a] < m.Stop[a]
		}
	}
	return false
}
