// Package surface implements single-valued depth surfaces over 3D seismic
// volumes: horizon-like labels that keep at most one depth per trace.
//
// A surface carries two interchangeable representations of the same data:
// a sparse point cloud and a dense depth matrix anchored at the bounding
// box origin. Either one may be set directly; the other is derived lazily
// on first access and invalidated whenever its sibling is mutated, so the
// two can never drift apart.
package surface

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"seishorizon/internal/models"
	"seishorizon/pkg/geometry"
)

// StorageKind names one of the two surface representations.
type StorageKind int

const (
	// StoragePoints is the sparse point-cloud representation.
	StoragePoints StorageKind = iota

	// StorageMatrix is the dense depth-matrix representation.
	StorageMatrix
)

// Surface is a single-valued depth surface bound to a volume.
type Surface struct {
	// Name identifies the surface in logs and reports
	Name string

	vol geometry.Volume

	// Exactly the non-nil representations are authoritative; a nil one is
	// re-derived from its sibling on demand.
	points           []models.Point
	matrix           *DepthMatrix
	originI, originX int

	bounds   bbox
	boundsOK bool

	depthMean, depthStd float64
	statsOK             bool

	cache *AttributeCache
}

type bbox struct {
	iMin, iMax, xMin, xMax, dMin, dMax int
}

// New creates an empty surface bound to the volume.
func New(vol geometry.Volume, name string) *Surface {
	return &Surface{
		Name:  name,
		vol:   vol,
		cache: NewAttributeCache(0),
	}
}

// NewFrom creates a surface from an arbitrary storage container. Accepted
// containers are a []models.Point cloud, a *DepthMatrix covering the full
// spatial extents of the volume, and a map from (inline, crossline) pairs
// to depths. Anything else fails with ErrUnknownFormat.
func NewFrom(vol geometry.Volume, name string, storage any) (*Surface, error) {
	switch src := storage.(type) {
	case []models.Point:
		return NewFromPoints(vol, name, src, true), nil
	case *DepthMatrix:
		return NewFromMatrix(vol, name, src, 0, 0), nil
	case map[[2]int]int:
		return NewFromDict(vol, name, src), nil
	default:
		return nil, ErrUnknownFormat
	}
}

// NewFromPoints creates a surface from a point cloud. When verify is set,
// points outside the volume extents are dropped.
func NewFromPoints(vol geometry.Volume, name string, points []models.Point, verify bool) *Surface {
	s := New(vol, name)
	s.FromPoints(points, verify)
	return s
}

// NewFromMatrix creates a surface from a depth matrix anchored at
// (originI, originX) in cube coordinates.
func NewFromMatrix(vol geometry.Volume, name string, m *DepthMatrix, originI, originX int) *Surface {
	s := New(vol, name)
	s.FromMatrix(m, originI, originX)
	return s
}

// NewFromDict creates a surface from a map of (inline, crossline) pairs
// to depths.
func NewFromDict(vol geometry.Volume, name string, cells map[[2]int]int) *Surface {
	points := make([]models.Point, 0, len(cells))
	for key, d := range cells {
		points = append(points, models.Point{I: key[0], X: key[1], D: d})
	}
	sort.Slice(points, func(a, b int) bool { return points[a].Less(points[b]) })
	return NewFromPoints(vol, name, points, true)
}

// Volume returns the volume the surface is bound to.
func (s *Surface) Volume() geometry.Volume {
	return s.vol
}

// FromPoints replaces the surface contents with the given point cloud and
// invalidates the matrix representation. When verify is set, points outside
// the volume extents are dropped.
func (s *Surface) FromPoints(points []models.Point, verify bool) {
	if verify {
		ni, nx, nd := s.vol.CubeShape()
		kept := make([]models.Point, 0, len(points))
		for _, p := range points {
			if p.I < 0 || p.I >= ni || p.X < 0 || p.X >= nx || p.D < 0 || p.D >= nd {
				continue
			}
			kept = append(kept, p)
		}
		points = kept
	}
	s.points = points
	s.matrix = nil
	s.originI, s.originX = 0, 0
	s.invalidateDerived()
}

// FromMatrix replaces the surface contents with the given depth matrix,
// anchored at (originI, originX), and invalidates the point representation.
func (s *Surface) FromMatrix(m *DepthMatrix, originI, originX int) {
	s.matrix = m
	s.originI, s.originX = originI, originX
	s.points = nil
	s.invalidateDerived()
}

// ApplyToPoints routes a mutation through the point representation: the
// cloud is materialized if needed, transformed by fn, stored back, and the
// matrix representation is invalidated.
func (s *Surface) ApplyToPoints(fn func([]models.Point) []models.Point) {
	pts := fn(s.Points())
	s.points = pts
	s.matrix = nil
	s.originI, s.originX = 0, 0
	s.invalidateDerived()
}

// ApplyToMatrix routes a mutation through the matrix representation: the
// matrix is materialized if needed, transformed by fn together with its
// origin, stored back, and the point representation is invalidated.
func (s *Surface) ApplyToMatrix(fn func(m *DepthMatrix, originI, originX int) (*DepthMatrix, int, int)) {
	m, oi, ox := fn(s.Matrix(), s.originI, s.originX)
	s.matrix = m
	s.originI, s.originX = oi, ox
	s.points = nil
	s.invalidateDerived()
}

// ResetStorage drops one representation, leaving the sibling authoritative.
// Dropping the only representation empties the surface.
func (s *Surface) ResetStorage(kind StorageKind) {
	switch kind {
	case StoragePoints:
		if s.matrix == nil {
			s.matrix = NewDepthMatrix(0, 0)
			s.originI, s.originX = 0, 0
		}
		s.points = nil
	case StorageMatrix:
		if s.points == nil {
			s.points = []models.Point{}
		}
		s.matrix = nil
		s.originI, s.originX = 0, 0
	}
	s.invalidateDerived()
}

func (s *Surface) invalidateDerived() {
	s.boundsOK = false
	s.statsOK = false
	s.cache.Clear()
}

// Points returns the sparse representation, deriving it from the matrix
// when absent. Derivation scans the matrix in row-major order, so the
// result is lexicographically sorted. An unset surface yields an empty
// slice. The returned slice is shared and must not be mutated; route
// changes through ApplyToPoints.
func (s *Surface) Points() []models.Point {
	if s.points == nil {
		s.points = s.pointsFromMatrix()
	}
	return s.points
}

// Matrix returns the dense representation, deriving it from the point
// cloud when absent. An unset surface yields an empty matrix. The returned
// matrix is shared and must not be mutated; route changes through
// ApplyToMatrix.
func (s *Surface) Matrix() *DepthMatrix {
	if s.matrix == nil {
		s.matrixFromPoints()
	}
	return s.matrix
}

// Origin returns the cube coordinates of matrix cell (0, 0).
func (s *Surface) Origin() (int, int) {
	s.Matrix()
	return s.originI, s.originX
}

// HasPoints reports whether the point representation is materialized.
func (s *Surface) HasPoints() bool { return s.points != nil }

// HasMatrix reports whether the matrix representation is materialized.
func (s *Surface) HasMatrix() bool { return s.matrix != nil }

func (s *Surface) pointsFromMatrix() []models.Point {
	if s.matrix == nil {
		return []models.Point{}
	}
	pts := make([]models.Point, 0, s.matrix.Count())
	for r := 0; r < s.matrix.Rows; r++ {
		for c := 0; c < s.matrix.Cols; c++ {
			if d := s.matrix.At(r, c); d != FillValue {
				pts = append(pts, models.Point{I: r + s.originI, X: c + s.originX, D: d})
			}
		}
	}
	return pts
}

func (s *Surface) matrixFromPoints() {
	if len(s.points) == 0 {
		s.matrix = NewDepthMatrix(0, 0)
		s.originI, s.originX = 0, 0
		return
	}
	b := s.computeBounds()
	m := NewDepthMatrix(b.iMax-b.iMin+1, b.xMax-b.xMin+1)
	for _, p := range s.points {
		// Last write wins on duplicate traces.
		m.Set(p.I-b.iMin, p.X-b.xMin, p.D)
	}
	s.matrix = m
	s.originI, s.originX = b.iMin, b.xMin
}

// Len returns the number of traces the surface covers.
func (s *Surface) Len() int {
	if s.points != nil {
		return len(s.points)
	}
	if s.matrix != nil {
		return s.matrix.Count()
	}
	return 0
}

// IsEmpty reports whether the surface covers no traces.
func (s *Surface) IsEmpty() bool {
	return s.Len() == 0
}

// BBox returns the inclusive bounding box of the surface along all three
// axes. An empty surface yields all zeros.
func (s *Surface) BBox() (iMin, iMax, xMin, xMax, dMin, dMax int) {
	b := s.computeBounds()
	return b.iMin, b.iMax, b.xMin, b.xMax, b.dMin, b.dMax
}

// DepthMin returns the smallest depth of the surface.
func (s *Surface) DepthMin() int {
	return s.computeBounds().dMin
}

// DepthMax returns the largest depth of the surface.
func (s *Surface) DepthMax() int {
	return s.computeBounds().dMax
}

func (s *Surface) computeBounds() bbox {
	if s.boundsOK {
		return s.bounds
	}
	var b bbox
	first := true
	for _, p := range s.Points() {
		if first {
			b = bbox{p.I, p.I, p.X, p.X, p.D, p.D}
			first = false
			continue
		}
		b.iMin = min(b.iMin, p.I)
		b.iMax = max(b.iMax, p.I)
		b.xMin = min(b.xMin, p.X)
		b.xMax = max(b.xMax, p.X)
		b.dMin = min(b.dMin, p.D)
		b.dMax = max(b.dMax, p.D)
	}
	s.bounds = b
	s.boundsOK = true
	return b
}

// DepthMean returns the mean surface depth.
func (s *Surface) DepthMean() float64 {
	s.computeStats()
	return s.depthMean
}

// DepthStd returns the population standard deviation of surface depths.
func (s *Surface) DepthStd() float64 {
	s.computeStats()
	return s.depthStd
}

func (s *Surface) computeStats() {
	if s.statsOK {
		return
	}
	pts := s.Points()
	depths := make([]float64, len(pts))
	for i, p := range pts {
		depths[i] = float64(p.D)
	}
	if len(depths) > 0 {
		s.depthMean = stat.Mean(depths, nil)
		s.depthStd = stat.PopStdDev(depths, nil)
	} else {
		s.depthMean, s.depthStd = 0, 0
	}
	s.statsOK = true
}

// FullMatrix returns a depth matrix covering the full spatial extents of
// the volume, with the surface placed at its cube coordinates.
func (s *Surface) FullMatrix() *DepthMatrix {
	ni, nx := s.vol.Shape()
	full := NewDepthMatrix(ni, nx)
	m := s.Matrix()
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if d := m.At(r, c); d != FillValue {
				full.Set(r+s.originI, c+s.originX, d)
			}
		}
	}
	return full
}

// BinaryMatrix returns the presence mask of the local depth matrix.
func (s *Surface) BinaryMatrix() *models.BitPlane {
	m := s.Matrix()
	p := models.NewBitPlane(m.Rows, m.Cols)
	for i, d := range m.Data {
		if d != FillValue {
			p.Bits[i] = true
		}
	}
	return p
}

// PresenceMatrix returns the presence mask on the full spatial extents of
// the volume.
func (s *Surface) PresenceMatrix() *models.BitPlane {
	ni, nx := s.vol.Shape()
	p := models.NewBitPlane(ni, nx)
	for _, pt := range s.Points() {
		p.Set(pt.I, pt.X, true)
	}
	return p
}

// Coverage returns the fraction of live traces the surface covers.
func (s *Surface) Coverage() float64 {
	ni, nx := s.vol.Shape()
	alive := ni*nx - s.vol.ZeroTraces().Count()
	if alive == 0 {
		return 0
	}
	return float64(s.Len()) / float64(alive)
}

// Copy returns a deep copy of the surface sharing the same volume.
func (s *Surface) Copy() *Surface {
	out := New(s.vol, s.Name)
	if s.points != nil {
		out.points = make([]models.Point, len(s.points))
		copy(out.points, s.points)
	}
	if s.matrix != nil {
		out.matrix = s.matrix.Clone()
		out.originI, out.originX = s.originI, s.originX
	}
	return out
}

// Equal reports whether two surfaces cover the same traces at the same
// depths, regardless of which representation either one holds.
func (s *Surface) Equal(other *Surface) bool {
	if s.Len() != other.Len() {
		return false
	}
	a, b := s.FullMatrix(), other.FullMatrix()
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return false
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

// Subtract removes from s every trace covered by other, returning the
// difference as a new surface. Shared traces must agree on depth: any
// disagreement fails with ErrDepthConflict.
func (s *Surface) Subtract(other *Surface) (*Surface, error) {
	theirfull := other.FullMatrix()
	kept := make([]models.Point, 0, s.Len())
	for _, p := range s.Points() {
		d := theirfull.At(p.I, p.X)
		if d == FillValue {
			kept = append(kept, p)
			continue
		}
		if d != p.D {
			return nil, ErrDepthConflict
		}
	}
	return NewFromPoints(s.vol, s.Name+"_minus_"+other.Name, kept, false), nil
}

// ThinOut keeps only points whose inline index is a multiple of factorI
// and whose crossline index is a multiple of factorX. Factors below one
// are treated as one.
func (s *Surface) ThinOut(factorI, factorX int) {
	factorI = max(factorI, 1)
	factorX = max(factorX, 1)
	s.ApplyToPoints(func(pts []models.Point) []models.Point {
		kept := pts[:0]
		for _, p := range pts {
			if p.I%factorI == 0 && p.X%factorX == 0 {
				kept = append(kept, p)
			}
		}
		return kept
	})
}
