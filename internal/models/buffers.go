package models

// BitPlane is a dense 2D boolean raster in row-major order, used for
// presence masks, dead-trace maps and coverage tracking.
type BitPlane struct {
	// Rows and Cols are the extents of the plane
	Rows, Cols int

	// Bits holds Rows*Cols cells in row-major order
	Bits []bool
}

// NewBitPlane allocates an all-false plane with the given extents.
func NewBitPlane(rows, cols int) *BitPlane {
	return &BitPlane{
		Rows: rows,
		Cols: cols,
		Bits: make([]bool, rows*cols),
	}
}

// At returns the cell at (r, c).
func (p *BitPlane) At(r, c int) bool {
	return p.Bits[r*p.Cols+c]
}

// Set assigns the cell at (r, c).
func (p *BitPlane) Set(r, c int, v bool) {
	p.Bits[r*p.Cols+c] = v
}

// Count returns the number of set cells.
func (p *BitPlane) Count() int {
	n := 0
	for _, b := range p.Bits {
		if b {
			n++
		}
	}
	return n
}

// CountRegion returns the number of set cells inside the half-open
// rectangle [r0, r1) x [c0, c1).
func (p *BitPlane) CountRegion(r0, c0, r1, c1 int) int {
	n := 0
	for r := r0; r < r1; r++ {
		row := p.Bits[r*p.Cols : r*p.Cols+p.Cols]
		for c := c0; c < c1; c++ {
			if row[c] {
				n++
			}
		}
	}
	return n
}

// FillRegion assigns every cell inside the half-open rectangle
// [r0, r1) x [c0, c1).
func (p *BitPlane) FillRegion(r0, c0, r1, c1 int, v bool) {
	for r := r0; r < r1; r++ {
		row := p.Bits[r*p.Cols : r*p.Cols+p.Cols]
		for c := c0; c < c1; c++ {
			row[c] = v
		}
	}
}

// Clone returns a deep copy of the plane.
func (p *BitPlane) Clone() *BitPlane {
	q := NewBitPlane(p.Rows, p.Cols)
	copy(q.Bits, p.Bits)
	return q
}

// Xor replaces p with the cell-wise exclusive-or of p and q.
// The two planes must share extents.
func (p *BitPlane) Xor(q *BitPlane) {
	for i := range p.Bits {
		p.Bits[i] = p.Bits[i] != q.Bits[i]
	}
}

// Or replaces p with the cell-wise union of p and q.
// The two planes must share extents.
func (p *BitPlane) Or(q *BitPlane) {
	for i := range p.Bits {
		p.Bits[i] = p.Bits[i] || q.Bits[i]
	}
}

// Mask3D is a dense 3D float32 raster in row-major (I, X, D) order,
// used as the prediction buffer that surfaces and faults are written into
// and extracted from.
type Mask3D struct {
	// NI, NX, ND are the extents along the inline, crossline and depth axes
	NI, NX, ND int

	// Data holds NI*NX*ND cells in row-major order
	Data []float32
}

// NewMask3D allocates a zeroed mask with the given extents.
func NewMask3D(ni, nx, nd int) *Mask3D {
	return &Mask3D{
		NI:   ni,
		NX:   nx,
		ND:   nd,
		Data: make([]float32, ni*nx*nd),
	}
}

// Index returns the flat offset of voxel (i, x, d).
func (m *Mask3D) Index(i, x, d int) int {
	return (i*m.NX+x)*m.ND + d
}

// At returns the voxel at (i, x, d).
func (m *Mask3D) At(i, x, d int) float32 {
	return m.Data[m.Index(i, x, d)]
}

// Set assigns the voxel at (i, x, d).
func (m *Mask3D) Set(i, x, d int, v float32) {
	m.Data[m.Index(i, x, d)] = v
}
