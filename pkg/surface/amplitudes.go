package surface

import (
	"math"
	"math/cmplx"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/dsp/fourier"

	"seishorizon/internal/models"
)

// cubeValues cuts a depth window of amplitude samples along the surface:
// for every covered trace the window is centered on the surface depth,
// shifted by offset. Samples falling outside the volume stay NaN.
// Traces are read in parallel, one worker per block of matrix rows.
func (s *Surface) cubeValues(opts AttrOptions) (*Cube64, error) {
	rows, cols, oi, ox := s.attrFrame(opts)
	window := opts.Window
	out := NewCube64(rows, cols, window)
	for i := range out.Data {
		out.Data[i] = math.NaN()
	}

	m := s.Matrix()
	moi, mox := s.Origin()
	_, _, nd := s.vol.CubeShape()
	low := window / 2

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	blocks := runtime.NumCPU()
	perBlock := (m.Rows + blocks - 1) / max(blocks, 1)
	for r0 := 0; r0 < m.Rows; r0 += perBlock {
		r0, r1 := r0, min(r0+perBlock, m.Rows)
		g.Go(func() error {
			for r := r0; r < r1; r++ {
				for c := 0; c < m.Cols; c++ {
					d := m.At(r, c)
					if d == FillValue {
						continue
					}
					start := d + opts.Offset - low
					lo := max(start, 0)
					hi := min(start+window, nd)
					if lo >= hi {
						continue
					}
					trace, err := s.vol.LoadCrop(models.Location{
						FieldID: -1, LabelID: -1,
						Start: [3]int{r + moi, c + mox, lo},
						Stop:  [3]int{r + moi + 1, c + mox + 1, hi},
					})
					if err != nil {
						return err
					}
					i, x := r+moi-oi, c+mox-ox
					for k, v := range trace {
						out.Set(i, x, lo-start+k, v)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Surface) amplitudesAttribute(opts AttrOptions) (*Cube64, error) {
	return s.cubeValues(opts)
}

// instantAmplitudeAttribute is the envelope of the analytic signal of the
// amplitude window.
func (s *Surface) instantAmplitudeAttribute(opts AttrOptions) (*Cube64, error) {
	return s.analyticAttribute(opts, func(z complex128) float64 { return cmplx.Abs(z) })
}

// instantPhaseAttribute is the phase of the analytic signal of the
// amplitude window, in radians.
func (s *Surface) instantPhaseAttribute(opts AttrOptions) (*Cube64, error) {
	return s.analyticAttribute(opts, func(z complex128) float64 { return cmplx.Phase(z) })
}

func (s *Surface) analyticAttribute(opts AttrOptions, reduce func(complex128) float64) (*Cube64, error) {
	amp, err := s.cubeValues(opts)
	if err != nil {
		return nil, err
	}
	window := amp.ND
	fft := fourier.NewCmplxFFT(window)
	trace := make([]complex128, window)

	for i := 0; i < amp.NI; i++ {
		for x := 0; x < amp.NX; x++ {
			usable := true
			for d := 0; d < window; d++ {
				v := amp.At(i, x, d)
				if math.IsNaN(v) {
					usable = false
					break
				}
				trace[d] = complex(v, 0)
			}
			if !usable {
				for d := 0; d < window; d++ {
					amp.Set(i, x, d, math.NaN())
				}
				continue
			}
			for d, z := range analytic(fft, trace) {
				amp.Set(i, x, d, reduce(z))
			}
		}
	}
	return amp, nil
}

// analytic computes the analytic signal of a real-valued sequence given as
// complex samples: negative frequencies are zeroed and positive ones
// doubled, so the imaginary part of the result is the Hilbert transform.
func analytic(fft *fourier.CmplxFFT, seq []complex128) []complex128 {
	n := len(seq)
	coeff := fft.Coefficients(nil, seq)
	for k := 1; k < (n+1)/2; k++ {
		coeff[k] *= 2
	}
	for k := n/2 + 1; k < n; k++ {
		coeff[k] = 0
	}
	out := fft.Sequence(nil, coeff)
	scale := complex(float64(n), 0)
	for k := range out {
		out[k] /= scale
	}
	return out
}
