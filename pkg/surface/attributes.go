package surface

import (
	"math"

	"seishorizon/internal/models"
)

// attrHandlers is the closed dispatch table for attribute computation.
var attrHandlers = map[AttrKind]func(*Surface, AttrOptions) (*Cube64, error){
	AttrDepths:           (*Surface).depthsAttribute,
	AttrBinary:           (*Surface).binaryAttribute,
	AttrGradInline:       (*Surface).gradInlineAttribute,
	AttrGradCrossline:    (*Surface).gradCrosslineAttribute,
	AttrAmplitudes:       (*Surface).amplitudesAttribute,
	AttrInstantAmplitude: (*Surface).instantAmplitudeAttribute,
	AttrInstantPhase:     (*Surface).instantPhaseAttribute,
}

// LoadAttribute computes an attribute of the surface, memoizing the result
// until the next geometry mutation. The returned buffer is a defensive
// copy; callers that promise not to mutate the result can use
// LoadAttributeShared instead.
func (s *Surface) LoadAttribute(kind AttrKind, opts AttrOptions) (*Cube64, error) {
	v, err := s.LoadAttributeShared(kind, opts)
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}

// LoadAttributeShared is LoadAttribute without the defensive copy: the
// returned buffer is the cached one and must not be mutated.
func (s *Surface) LoadAttributeShared(kind AttrKind, opts AttrOptions) (*Cube64, error) {
	handler, ok := attrHandlers[kind]
	if !ok {
		return nil, ErrUnknownAttribute
	}
	opts = normalizeOptions(kind, opts)
	if v, ok := s.cache.Get(kind, opts); ok {
		return v, nil
	}
	v, err := handler(s, opts)
	if err != nil {
		return nil, err
	}
	s.cache.Put(kind, opts, v)
	return v, nil
}

// CachedAttributes returns the number of attribute buffers currently
// memoized.
func (s *Surface) CachedAttributes() int {
	return s.cache.Len()
}

func normalizeOptions(kind AttrKind, opts AttrOptions) AttrOptions {
	switch kind {
	case AttrAmplitudes, AttrInstantAmplitude, AttrInstantPhase:
		if opts.Window < 1 {
			opts.Window = 1
		}
	default:
		// Planar attributes have no depth window.
		opts.Window = 0
		opts.Offset = 0
	}
	return opts
}

// attrFrame returns the extents and origin the attribute should be
// computed on.
func (s *Surface) attrFrame(opts AttrOptions) (rows, cols, originI, originX int) {
	if opts.OnFull {
		ni, nx := s.vol.Shape()
		return ni, nx, 0, 0
	}
	m := s.Matrix()
	oi, ox := s.Origin()
	return m.Rows, m.Cols, oi, ox
}

func (s *Surface) depthsAttribute(opts AttrOptions) (*Cube64, error) {
	rows, cols, oi, ox := s.attrFrame(opts)
	out := NewCube64(rows, cols, 1)
	for i := range out.Data {
		out.Data[i] = math.NaN()
	}
	for _, p := range s.Points() {
		out.Set(p.I-oi, p.X-ox, 0, float64(p.D))
	}
	return out, nil
}

func (s *Surface) binaryAttribute(opts AttrOptions) (*Cube64, error) {
	rows, cols, oi, ox := s.attrFrame(opts)
	out := NewCube64(rows, cols, 1)
	for _, p := range s.Points() {
		out.Set(p.I-oi, p.X-ox, 0, 1)
	}
	return out, nil
}

func (s *Surface) gradInlineAttribute(opts AttrOptions) (*Cube64, error) {
	return s.gradientAttribute(opts, models.AxisInline)
}

func (s *Surface) gradCrosslineAttribute(opts AttrOptions) (*Cube64, error) {
	return s.gradientAttribute(opts, models.AxisCrossline)
}

// gradientAttribute is the depth difference between a trace and its
// predecessor along the axis. Cells whose pair is not fully covered
// hold NaN.
func (s *Surface) gradientAttribute(opts AttrOptions, axis int) (*Cube64, error) {
	rows, cols, oi, ox := s.attrFrame(opts)
	m := s.Matrix()
	moi, mox := s.Origin()
	out := NewCube64(rows, cols, 1)
	for i := range out.Data {
		out.Data[i] = math.NaN()
	}

	at := func(i, x int) int {
		r, c := i-moi, x-mox
		if r < 0 || r >= m.Rows || c < 0 || c >= m.Cols {
			return FillValue
		}
		return m.At(r, c)
	}
	di, dx := 1, 0
	if axis == models.AxisCrossline {
		di, dx = 0, 1
	}
	for _, p := range s.Points() {
		prev := at(p.I-di, p.X-dx)
		if prev == FillValue {
			continue
		}
		out.Set(p.I-oi, p.X-ox, 0, float64(p.D-prev))
	}
	return out, nil
}

// FilledMatrix returns the presence mask with its holes filled.
func (s *Surface) FilledMatrix() *models.BitPlane {
	return fillHoles(s.BinaryMatrix())
}

// BordersMatrix returns the one-cell-wide outline of the filled presence
// mask.
func (s *Surface) BordersMatrix() *models.BitPlane {
	filled := s.FilledMatrix()
	borders := filled.Clone()
	borders.Xor(erode(filled, 1))
	return borders
}

// BoundariesMatrix returns the one-cell-wide outline of the raw presence
// mask, holes included.
func (s *Surface) BoundariesMatrix() *models.BitPlane {
	binary := s.BinaryMatrix()
	boundaries := binary.Clone()
	boundaries.Xor(erode(binary, 1))
	return boundaries
}

// Perimeter returns the number of cells on the filled outline.
func (s *Surface) Perimeter() int {
	return s.BordersMatrix().Count()
}

// NumberOfHoles returns the number of connected holes inside the surface
// footprint.
func (s *Surface) NumberOfHoles() int {
	holes := s.FilledMatrix()
	holes.Xor(s.BinaryMatrix())
	_, count := label2D(holes, true)
	return count
}

// Solidity returns the fraction of the filled footprint actually covered
// by the surface.
func (s *Surface) Solidity() float64 {
	filled := s.FilledMatrix().Count()
	if filled == 0 {
		return 0
	}
	return float64(s.Len()) / float64(filled)
}
