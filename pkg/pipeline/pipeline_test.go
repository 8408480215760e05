package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seishorizon/internal/models"
	"seishorizon/pkg/geometry"
	"seishorizon/pkg/grid"
	"seishorizon/pkg/surface"
)

// planeDetector predicts a perfectly flat horizon at a fixed depth in
// every crop it is asked about.
type planeDetector struct {
	depth int
	calls int
}

func (d *planeDetector) Predict(batch []models.Location) ([]*models.Mask3D, error) {
	d.calls++
	masks := make([]*models.Mask3D, len(batch))
	for k, loc := range batch {
		shape := loc.Shape()
		m := models.NewMask3D(shape[0], shape[1], shape[2])
		if d.depth >= loc.Start[2] && d.depth < loc.Stop[2] {
			for i := 0; i < shape[0]; i++ {
				for x := 0; x < shape[1]; x++ {
					m.Set(i, x, d.depth-loc.Start[2], 1)
				}
			}
		}
		masks[k] = m
	}
	return masks, nil
}

func TestDetectSurfaces(t *testing.T) {
	vol := geometry.NewInMemoryVolume(16, 16, 16)
	g, err := grid.NewRegular(vol, grid.RegularConfig{CropShape: [3]int{8, 8, 16}})
	require.NoError(t, err)

	det := &planeDetector{depth: 8}
	runner := NewRunner(vol, det)
	surfaces, err := runner.DetectSurfaces(g, surface.FromMaskOptions{MinSize: 10})
	require.NoError(t, err)

	require.Len(t, surfaces, 1)
	assert.Equal(t, 16*16, surfaces[0].Len())
	assert.Equal(t, 8.0, surfaces[0].DepthMean())
	assert.Greater(t, det.calls, 0)
}

func TestDetectSurfacesMinSize(t *testing.T) {
	vol := geometry.NewInMemoryVolume(16, 16, 16)
	g, err := grid.NewRegular(vol, grid.RegularConfig{CropShape: [3]int{8, 8, 16}})
	require.NoError(t, err)

	runner := NewRunner(vol, &planeDetector{depth: 8})
	surfaces, err := runner.DetectSurfaces(g, surface.FromMaskOptions{MinSize: 1000})
	require.NoError(t, err)
	assert.Empty(t, surfaces)
}

func TestExtendSurface(t *testing.T) {
	vol := geometry.NewInMemoryVolume(32, 32, 32)
	var pts []models.Point
	for i := 12; i < 20; i++ {
		for x := 12; x < 20; x++ {
			pts = append(pts, models.Point{I: i, X: x, D: 16})
		}
	}
	seed := surface.NewFromPoints(vol, "seed", pts, true)

	runner := NewRunner(vol, &planeDetector{depth: 16})
	grown, report, err := runner.ExtendSurface(seed, grid.ExtensionConfig{
		CropShape: [3]int{8, 8, 16},
		Stride:    2,
	}, surface.FromMaskOptions{}, 5)
	require.NoError(t, err)

	assert.Equal(t, 64, report.StartSize)
	assert.Greater(t, grown.Len(), report.StartSize)
	assert.Equal(t, grown.Len(), report.FinalSize)
	assert.GreaterOrEqual(t, report.Iterations, 1)
	assert.Equal(t, 16.0, grown.DepthMean(), "the detector only ever predicts depth 16")
}
