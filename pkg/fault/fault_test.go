package fault

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seishorizon/internal/models"
	"seishorizon/pkg/geometry"
)

// cube paints a solid block of mask voxels.
func cube(mask *models.Mask3D, i0, i1, x0, x1, d0, d1 int) {
	for i := i0; i < i1; i++ {
		for x := x0; x < x1; x++ {
			for d := d0; d < d1; d++ {
				mask.Set(i, x, d, 1)
			}
		}
	}
}

func TestFromMaskSeparatedComponents(t *testing.T) {
	vol := geometry.NewInMemoryVolume(64, 16, 16)
	mask := models.NewMask3D(64, 16, 16)
	cube(mask, 2, 6, 2, 6, 2, 6)
	cube(mask, 40, 44, 8, 12, 8, 12)

	faults := FromMask(vol, mask, LabelerConfig{ChunkSize: 16, Overlap: 8})
	require.Len(t, faults, 2)
	assert.Equal(t, "fault_0", faults[0].Name)
	assert.Equal(t, "fault_1", faults[1].Name)
	for _, f := range faults {
		assert.Equal(t, 64, f.Len())
	}
}

func TestFromMaskStitchesAcrossChunks(t *testing.T) {
	vol := geometry.NewInMemoryVolume(64, 16, 16)
	mask := models.NewMask3D(64, 16, 16)
	// One component straddling the chunk border at inline 16.
	cube(mask, 12, 20, 2, 6, 2, 6)

	faults := FromMask(vol, mask, LabelerConfig{ChunkSize: 16, Overlap: 8})
	require.Len(t, faults, 1)
	assert.Equal(t, 8*4*4, faults[0].Len())

	// The same mask labeled in a single pass agrees.
	single := FromMask(vol, mask, LabelerConfig{})
	require.Len(t, single, 1)
	assert.Equal(t, faults[0].Len(), single[0].Len())
}

func TestFromMaskSizeThresholdAndOrder(t *testing.T) {
	vol := geometry.NewInMemoryVolume(64, 16, 16)
	mask := models.NewMask3D(64, 16, 16)
	cube(mask, 0, 12, 0, 12, 2, 4) // areal size hypot(12, 12) ~ 17
	cube(mask, 40, 42, 8, 10, 8, 10)

	all := FromMask(vol, mask, LabelerConfig{})
	require.Len(t, all, 2)
	assert.Greater(t, all[0].Len(), all[1].Len(), "largest component comes first")

	big := FromMask(vol, mask, LabelerConfig{SizeThreshold: 10})
	require.Len(t, big, 1)
	assert.Equal(t, all[0].Len(), big[0].Len())
}

func TestFromPoints(t *testing.T) {
	vol := geometry.NewInMemoryVolume(32, 16, 16)
	points := []models.Point{
		{I: 1, X: 1, D: 1},
		{I: 1, X: 1, D: 2},
		{I: 2, X: 2, D: 3}, // diagonal, still 26-connected
		{I: 10, X: 10, D: 10},
	}
	faults := FromPoints(vol, points, LabelerConfig{})
	require.Len(t, faults, 2)
	assert.Equal(t, 3, faults[0].Len())
	assert.Equal(t, 1, faults[1].Len())
}

func TestParseSticks(t *testing.T) {
	input := strings.Join([]string{
		"0 0 0 0",
		"0 0 4 0",
		"2 0 0 1",
		"2 0 4 1",
	}, "\n")
	vol := geometry.NewInMemoryVolume(8, 8, 8)

	f, err := ParseSticks(strings.NewReader(input), vol, "test")
	require.NoError(t, err)
	assert.Len(t, f.Nodes, 4)
	assert.Len(t, f.Sticks, 2)
	// Each stick rasterizes to five voxels along depth.
	assert.Equal(t, 10, f.Len())
	assert.Equal(t, models.AxisCrossline, f.Direction)
}

func TestParseSticksNamed(t *testing.T) {
	input := strings.Join([]string{
		"0 0 0 FAULT_A 0",
		"0 0 4 FAULT_A 0",
		"2 0 0 FAULT_A 1",
		"2 0 4 FAULT_A 1",
	}, "\n")
	vol := geometry.NewInMemoryVolume(8, 8, 8)

	f, err := ParseSticks(strings.NewReader(input), vol, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "FAULT_A", f.Name, "payload name overrides the argument")
	assert.Len(t, f.Nodes, 4)
	assert.Len(t, f.Sticks, 2)
	assert.Equal(t, 10, f.Len())

	var buf bytes.Buffer
	require.NoError(t, WriteSticks(&buf, f))
	assert.Equal(t, "0 0 0 FAULT_A 0", strings.SplitN(buf.String(), "\n", 2)[0])
	again, err := ParseSticks(&buf, vol, "")
	require.NoError(t, err)
	assert.Equal(t, f.Name, again.Name)
	assert.Equal(t, f.Points, again.Points)
	assert.Equal(t, f.Sticks, again.Sticks)
}

func TestParseSticksDegenerate(t *testing.T) {
	vol := geometry.NewInMemoryVolume(8, 8, 8)
	f, err := ParseSticks(strings.NewReader(""), vol, "empty")
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())

	_, err = ParseSticks(strings.NewReader("1 2\n"), vol, "bad")
	assert.Error(t, err)
}

func TestWriteSticksRoundTrip(t *testing.T) {
	input := "0 0 0 0\n0 4 0 0\n3 0 0 1\n3 4 0 1\n"
	vol := geometry.NewInMemoryVolume(8, 8, 8)
	f, err := ParseSticks(strings.NewReader(input), vol, "rt")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSticks(&buf, f))
	again, err := ParseSticks(&buf, vol, "rt2")
	require.NoError(t, err)
	assert.Equal(t, f.Points, again.Points)
	assert.Equal(t, f.Nodes, again.Nodes)
}

func TestMerge(t *testing.T) {
	vol := geometry.NewInMemoryVolume(16, 16, 16)
	a := New(vol, "a", []models.Point{{I: 1, X: 1, D: 1}, {I: 1, X: 1, D: 2}})
	b := New(vol, "b", []models.Point{{I: 1, X: 1, D: 2}, {I: 1, X: 1, D: 3}})

	merged := a.Merge(b)
	assert.Equal(t, 3, merged.Len(), "shared voxels must not duplicate")
	assert.Equal(t, "a+b", merged.Name)
}

func TestAddToMask(t *testing.T) {
	vol := geometry.NewInMemoryVolume(16, 16, 16)
	f := New(vol, "f", []models.Point{
		{I: 2, X: 2, D: 2},
		{I: 3, X: 3, D: 3},
		{I: 14, X: 14, D: 14},
	})
	mask := models.NewMask3D(8, 8, 8)
	loc := models.Location{Start: [3]int{0, 0, 0}, Stop: [3]int{8, 8, 8}}

	f.AddToMask(mask, loc, 1)
	assert.Equal(t, float32(1), mask.At(2, 2, 2))
	assert.Equal(t, float32(1), mask.At(3, 3, 3))

	total := float32(0)
	for _, v := range mask.Data {
		total += v
	}
	assert.Equal(t, float32(2), total, "the out-of-crop voxel must not paint")
}

func TestDirectionInference(t *testing.T) {
	vol := geometry.NewInMemoryVolume(32, 32, 32)
	// Thin along inlines, long along crosslines.
	var pts []models.Point
	for x := 0; x < 20; x++ {
		pts = append(pts, models.Point{I: 5, X: x, D: 10})
	}
	f := New(vol, "f", pts)
	assert.Equal(t, models.AxisInline, f.Direction)
}
