package surface

import (
	"seishorizon/internal/models"
)

// erode removes every set cell that touches an unset cell or the frame
// border within its 3x3 neighborhood. Cells outside the plane count as
// unset.
func erode(p *models.BitPlane, iterations int) *models.BitPlane {
	cur := p
	for it := 0; it < iterations; it++ {
		next := models.NewBitPlane(cur.Rows, cur.Cols)
		for r := 0; r < cur.Rows; r++ {
			for c := 0; c < cur.Cols; c++ {
				if !cur.At(r, c) {
					continue
				}
				keep := true
				for dr := -1; dr <= 1 && keep; dr++ {
					for dc := -1; dc <= 1; dc++ {
						rr, cc := r+dr, c+dc
						if rr < 0 || rr >= cur.Rows || cc < 0 || cc >= cur.Cols || !cur.At(rr, cc) {
							keep = false
							break
						}
					}
				}
				next.Set(r, c, keep)
			}
		}
		cur = next
	}
	return cur
}

// dilate grows every set cell into its 3x3 neighborhood.
func dilate(p *models.BitPlane, iterations int) *models.BitPlane {
	cur := p
	for it := 0; it < iterations; it++ {
		next := models.NewBitPlane(cur.Rows, cur.Cols)
		for r := 0; r < cur.Rows; r++ {
			for c := 0; c < cur.Cols; c++ {
				if !cur.At(r, c) {
					continue
				}
				for dr := -1; dr <= 1; dr++ {
					for dc := -1; dc <= 1; dc++ {
						rr, cc := r+dr, c+dc
						if rr >= 0 && rr < cur.Rows && cc >= 0 && cc < cur.Cols {
							next.Set(rr, cc, true)
						}
					}
				}
			}
		}
		cur = next
	}
	return cur
}

// fillHoles sets every unset cell that cannot reach the frame border
// through 4-connected unset cells.
func fillHoles(p *models.BitPlane) *models.BitPlane {
	rows, cols := p.Rows, p.Cols
	outside := models.NewBitPlane(rows, cols)
	queue := make([][2]int, 0, 2*(rows+cols))

	push := func(r, c int) {
		if r < 0 || r >= rows || c < 0 || c >= cols || p.At(r, c) || outside.At(r, c) {
			return
		}
		outside.Set(r, c, true)
		queue = append(queue, [2]int{r, c})
	}

	for r := 0; r < rows; r++ {
		push(r, 0)
		push(r, cols-1)
	}
	for c := 0; c < cols; c++ {
		push(0, c)
		push(rows-1, c)
	}
	for len(queue) > 0 {
		cell := queue[0]
		queue = queue[1:]
		push(cell[0]-1, cell[1])
		push(cell[0]+1, cell[1])
		push(cell[0], cell[1]-1)
		push(cell[0], cell[1]+1)
	}

	filled := models.NewBitPlane(rows, cols)
	for i := range filled.Bits {
		filled.Bits[i] = p.Bits[i] || !outside.Bits[i]
	}
	return filled
}

// label2D assigns a positive component label to every set cell and returns
// the label raster together with the number of components found. eightConn
// selects between 4- and 8-connectivity.
func label2D(p *models.BitPlane, eightConn bool) ([]int, int) {
	rows, cols := p.Rows, p.Cols
	labels := make([]int, rows*cols)
	count := 0
	queue := make([][2]int, 0, 64)

	neighbors := [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	if eightConn {
		neighbors = append(neighbors, [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}...)
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !p.At(r, c) || labels[r*cols+c] != 0 {
				continue
			}
			count++
			labels[r*cols+c] = count
			queue = append(queue[:0], [2]int{r, c})
			for len(queue) > 0 {
				cell := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				for _, n := range neighbors {
					rr, cc := cell[0]+n[0], cell[1]+n[1]
					if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
						continue
					}
					if p.At(rr, cc) && labels[rr*cols+cc] == 0 {
						labels[rr*cols+cc] = count
						queue = append(queue, [2]int{rr, cc})
					}
				}
			}
		}
	}
	return labels, count
}
