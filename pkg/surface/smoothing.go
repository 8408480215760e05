package surface

import (
	"math"
)

// SmoothingOptions parameterizes Gaussian smoothing and interpolation.
type SmoothingOptions struct {
	// KernelSize is the side of the square Gaussian kernel; even values
	// are bumped to the next odd one. Defaults to 3.
	KernelSize int

	// Sigma is the Gaussian spread. Defaults to 0.8.
	Sigma float64

	// Margin drops neighbors whose depth differs from the center cell by
	// more than this many samples. Zero disables the check.
	Margin int

	// Iterations applies the kernel repeatedly. Defaults to 1.
	Iterations int
}

func (o SmoothingOptions) withDefaults() SmoothingOptions {
	if o.KernelSize < 3 {
		o.KernelSize = 3
	}
	if o.KernelSize%2 == 0 {
		o.KernelSize++
	}
	if o.Sigma <= 0 {
		o.Sigma = 0.8
	}
	if o.Iterations < 1 {
		o.Iterations = 1
	}
	return o
}

func gaussKernel(size int, sigma float64) []float64 {
	k := make([]float64, size*size)
	half := size / 2
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			dr, dc := float64(r-half), float64(c-half)
			k[r*size+c] = math.Exp(-(dr*dr + dc*dc) / (2 * sigma * sigma))
		}
	}
	return k
}

// SmoothOut applies Gaussian smoothing to the depth matrix. Covered traces
// are replaced by the weighted average of their covered neighbors; absent
// traces stay absent, so the footprint never grows. Dead traces of the
// volume are re-masked afterwards.
func (s *Surface) SmoothOut(opts SmoothingOptions) {
	s.smooth(opts, true)
}

// Interpolate is SmoothOut with hole filling: absent traces that have at
// least one covered neighbor inside the kernel are assigned the weighted
// average depth of those neighbors.
func (s *Surface) Interpolate(opts SmoothingOptions) {
	s.smooth(opts, false)
}

func (s *Surface) smooth(opts SmoothingOptions, preserve bool) {
	opts = opts.withDefaults()
	kernel := gaussKernel(opts.KernelSize, opts.Sigma)
	zero := s.vol.ZeroTraces()

	s.ApplyToMatrix(func(m *DepthMatrix, oi, ox int) (*DepthMatrix, int, int) {
		for it := 0; it < opts.Iterations; it++ {
			m = smoothPass(m, kernel, opts.KernelSize, opts.Margin, preserve)
		}
		// Smoothing must not resurrect dead traces.
		for r := 0; r < m.Rows; r++ {
			for c := 0; c < m.Cols; c++ {
				if zero.At(r+oi, c+ox) {
					m.Set(r, c, FillValue)
				}
			}
		}
		return m, oi, ox
	})
}

func smoothPass(m *DepthMatrix, kernel []float64, size, margin int, preserve bool) *DepthMatrix {
	half := size / 2
	out := NewDepthMatrix(m.Rows, m.Cols)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			center := m.At(r, c)
			if preserve && center == FillValue {
				continue
			}
			var sum, weight float64
			for dr := -half; dr <= half; dr++ {
				for dc := -half; dc <= half; dc++ {
					rr, cc := r+dr, c+dc
					if rr < 0 || rr >= m.Rows || cc < 0 || cc >= m.Cols {
						continue
					}
					d := m.At(rr, cc)
					if d == FillValue {
						continue
					}
					if margin > 0 && center != FillValue && abs(d-center) > margin {
						continue
					}
					w := kernel[(dr+half)*size+(dc+half)]
					sum += w * float64(d)
					weight += w
				}
			}
			if weight == 0 {
				out.Set(r, c, center)
				continue
			}
			out.Set(r, c, int(math.Round(sum/weight)))
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
