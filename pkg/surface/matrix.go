package surface

// FillValue marks absent cells in depth matrices. Depth indices are always
// non-negative, so the sentinel can never collide with real data.
const FillValue = -999999

// DepthMatrix is a dense 2D raster of integer depth values in row-major
// order. Cells holding FillValue carry no surface.
type DepthMatrix struct {
	// Rows and Cols are the extents of the raster
	Rows, Cols int

	// Data holds Rows*Cols depth values in row-major order
	Data []int
}

// NewDepthMatrix allocates a matrix with every cell set to FillValue.
func NewDepthMatrix(rows, cols int) *DepthMatrix {
	m := &DepthMatrix{
		Rows: rows,
		Cols: cols,
		Data: make([]int, rows*cols),
	}
	for i := range m.Data {
		m.Data[i] = FillValue
	}
	return m
}

// At returns the depth at (r, c).
func (m *DepthMatrix) At(r, c int) int {
	return m.Data[r*m.Cols+c]
}

// Set assigns the depth at (r, c).
func (m *DepthMatrix) Set(r, c, d int) {
	m.Data[r*m.Cols+c] = d
}

// Present reports whether the cell at (r, c) carries a depth.
func (m *DepthMatrix) Present(r, c int) bool {
	return m.Data[r*m.Cols+c] != FillValue
}

// Count returns the number of present cells.
func (m *DepthMatrix) Count() int {
	n := 0
	for _, d := range m.Data {
		if d != FillValue {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the matrix.
func (m *DepthMatrix) Clone() *DepthMatrix {
	q := &DepthMatrix{
		Rows: m.Rows,
		Cols: m.Cols,
		Data: make([]int, len(m.Data)),
	}
	copy(q.Data, m.Data)
	return q
}

// Cube64 is a dense float64 buffer of attribute values. Planar attributes
// use ND == 1; windowed attributes keep one value per depth sample.
type Cube64 struct {
	// NI, NX, ND are the extents of the buffer
	NI, NX, ND int

	// Data holds NI*NX*ND values in row-major order
	Data []float64
}

// NewCube64 allocates a zeroed buffer with the given extents.
func NewCube64(ni, nx, nd int) *Cube64 {
	return &Cube64{
		NI:   ni,
		NX:   nx,
		ND:   nd,
		Data: make([]float64, ni*nx*nd),
	}
}

// At returns the value at (i, x, d).
func (c *Cube64) At(i, x, d int) float64 {
	return c.Data[(i*c.NX+x)*c.ND+d]
}

// Set assigns the value at (i, x, d).
func (c *Cube64) Set(i, x, d int, v float64) {
	c.Data[(i*c.NX+x)*c.ND+d] = v
}

// Clone returns a deep copy of the buffer.
func (c *Cube64) Clone() *Cube64 {
	q := NewCube64(c.NI, c.NX, c.ND)
	copy(q.Data, c.Data)
	return q
}
