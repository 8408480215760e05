package surface

import (
	"errors"
	"math"
	"testing"

	"seishorizon/internal/models"
	"seishorizon/pkg/geometry"
)

func testVolume() *geometry.InMemoryVolume {
	return geometry.NewInMemoryVolume(10, 10, 20)
}

func TestLazyMatrixDerivation(t *testing.T) {
	vol := testVolume()
	s := NewFromPoints(vol, "test", []models.Point{
		{I: 1, X: 1, D: 5},
		{I: 1, X: 2, D: 6},
		{I: 2, X: 1, D: 7},
	}, true)

	if s.HasMatrix() {
		t.Fatal("matrix should not be materialized before first access")
	}
	m := s.Matrix()
	if m.Rows != 2 || m.Cols != 2 {
		t.Fatalf("matrix extents = %dx%d, want 2x2", m.Rows, m.Cols)
	}
	oi, ox := s.Origin()
	if oi != 1 || ox != 1 {
		t.Fatalf("origin = (%d, %d), want (1, 1)", oi, ox)
	}
	if m.At(0, 0) != 5 || m.At(0, 1) != 6 || m.At(1, 0) != 7 {
		t.Fatal("matrix holds wrong depths")
	}
	if m.At(1, 1) != FillValue {
		t.Fatal("uncovered cell should hold the fill value")
	}
}

func TestMutationInvalidatesSibling(t *testing.T) {
	vol := testVolume()
	s := NewFromPoints(vol, "test", []models.Point{
		{I: 1, X: 1, D: 5},
		{I: 1, X: 2, D: 6},
	}, true)
	s.Matrix()

	s.ApplyToMatrix(func(m *DepthMatrix, oi, ox int) (*DepthMatrix, int, int) {
		m.Set(0, 0, 9)
		return m, oi, ox
	})
	if s.HasPoints() {
		t.Fatal("points should be invalidated by a matrix mutation")
	}
	pts := s.Points()
	if len(pts) != 2 || pts[0].D != 9 {
		t.Fatalf("points = %v, want depth 9 at the first trace", pts)
	}

	s.ApplyToPoints(func(pts []models.Point) []models.Point {
		return append(pts, models.Point{I: 3, X: 3, D: 12})
	})
	if s.HasMatrix() {
		t.Fatal("matrix should be invalidated by a point mutation")
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
}

func TestEmptySurfaceAccess(t *testing.T) {
	s := New(testVolume(), "empty")
	if !s.IsEmpty() || s.Len() != 0 {
		t.Fatal("fresh surface should be empty")
	}
	if got := len(s.Points()); got != 0 {
		t.Fatalf("Points length = %d, want 0", got)
	}
	m := s.Matrix()
	if m.Rows != 0 || m.Cols != 0 {
		t.Fatalf("matrix extents = %dx%d, want 0x0", m.Rows, m.Cols)
	}
}

func TestVerifyDropsOutOfBounds(t *testing.T) {
	s := NewFromPoints(testVolume(), "test", []models.Point{
		{I: 1, X: 1, D: 5},
		{I: 50, X: 1, D: 5},
		{I: 1, X: 1, D: 99},
	}, true)
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after dropping out-of-bounds points", s.Len())
	}
}

func TestNewFromDispatch(t *testing.T) {
	vol := testVolume()
	if _, err := NewFrom(vol, "bad", "not a storage"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
	s, err := NewFrom(vol, "dict", map[[2]int]int{{2, 3}: 7, {4, 5}: 9})
	if err != nil {
		t.Fatalf("dict construction failed: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestBBoxAndStats(t *testing.T) {
	s := NewFromPoints(testVolume(), "test", []models.Point{
		{I: 2, X: 3, D: 10},
		{I: 4, X: 1, D: 14},
	}, true)
	iMin, iMax, xMin, xMax, dMin, dMax := s.BBox()
	if iMin != 2 || iMax != 4 || xMin != 1 || xMax != 3 || dMin != 10 || dMax != 14 {
		t.Fatalf("bbox = (%d %d %d %d %d %d)", iMin, iMax, xMin, xMax, dMin, dMax)
	}
	if mean := s.DepthMean(); mean != 12 {
		t.Fatalf("DepthMean = %v, want 12", mean)
	}
	if std := s.DepthStd(); std != 2 {
		t.Fatalf("DepthStd = %v, want 2", std)
	}
}

func TestSubtract(t *testing.T) {
	vol := testVolume()
	a := NewFromPoints(vol, "a", []models.Point{
		{I: 0, X: 0, D: 1},
		{I: 0, X: 1, D: 2},
	}, true)
	b := NewFromPoints(vol, "b", []models.Point{{I: 0, X: 1, D: 2}}, true)

	diff, err := a.Subtract(b)
	if err != nil {
		t.Fatalf("Subtract failed: %v", err)
	}
	if diff.Len() != 1 || diff.Points()[0] != (models.Point{I: 0, X: 0, D: 1}) {
		t.Fatalf("difference = %v", diff.Points())
	}

	conflicting := NewFromPoints(vol, "c", []models.Point{{I: 0, X: 1, D: 3}}, true)
	if _, err := a.Subtract(conflicting); !errors.Is(err, ErrDepthConflict) {
		t.Fatalf("err = %v, want ErrDepthConflict", err)
	}
}

func TestEqualAcrossRepresentations(t *testing.T) {
	vol := testVolume()
	pts := []models.Point{{I: 1, X: 1, D: 5}, {I: 2, X: 2, D: 6}}
	a := NewFromPoints(vol, "a", pts, true)
	b := NewFromPoints(vol, "b", pts, true)
	b.Matrix()
	b.ResetStorage(StoragePoints)

	if !a.Equal(b) {
		t.Fatal("surfaces with identical contents should be equal")
	}
	b.ApplyToPoints(func(pts []models.Point) []models.Point {
		return pts[:1]
	})
	if a.Equal(b) {
		t.Fatal("surfaces with different contents should not be equal")
	}
}

func TestResetStorageIdempotent(t *testing.T) {
	vol := testVolume()
	pts := []models.Point{
		{I: 2, X: 3, D: 10},
		{I: 4, X: 1, D: 14},
	}
	s := NewFromPoints(vol, "test", pts, true)
	s.Matrix()

	s.ResetStorage(StorageMatrix)
	s.ResetStorage(StorageMatrix)
	if s.HasMatrix() {
		t.Fatal("matrix should stay dropped")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	iMin, iMax, xMin, xMax, dMin, dMax := s.BBox()
	if iMin != 2 || iMax != 4 || xMin != 1 || xMax != 3 || dMin != 10 || dMax != 14 {
		t.Fatalf("bbox = (%d %d %d %d %d %d)", iMin, iMax, xMin, xMax, dMin, dMax)
	}
	if mean := s.DepthMean(); mean != 12 {
		t.Fatalf("DepthMean = %v, want 12", mean)
	}

	// The matrix arm: dropping points twice leaves the matrix
	// authoritative and the derived values unchanged.
	s.Matrix()
	s.ResetStorage(StoragePoints)
	s.ResetStorage(StoragePoints)
	if s.HasPoints() {
		t.Fatal("points should stay dropped")
	}
	if s.Len() != 2 || s.DepthMean() != 12 || s.DepthStd() != 2 {
		t.Fatalf("Len = %d, mean = %v, std = %v", s.Len(), s.DepthMean(), s.DepthStd())
	}
	got := s.Points()
	if len(got) != 2 || got[0] != pts[0] || got[1] != pts[1] {
		t.Fatalf("points = %v, want %v", got, pts)
	}
}

func plusSurface(t *testing.T) *Surface {
	t.Helper()
	return NewFromPoints(testVolume(), "plus", []models.Point{
		{I: 5, X: 5, D: 10},
		{I: 4, X: 5, D: 10},
		{I: 6, X: 5, D: 10},
		{I: 5, X: 4, D: 10},
		{I: 5, X: 6, D: 10},
	}, true)
}

func TestPerimeterAndHoles(t *testing.T) {
	plus := plusSurface(t)
	if got := plus.Perimeter(); got != 5 {
		t.Fatalf("Perimeter = %d, want 5", got)
	}
	if got := plus.NumberOfHoles(); got != 0 {
		t.Fatalf("NumberOfHoles = %d, want 0", got)
	}
	if got := plus.Solidity(); got != 1 {
		t.Fatalf("Solidity = %v, want 1", got)
	}

	var ring []models.Point
	for i := 4; i <= 6; i++ {
		for x := 4; x <= 6; x++ {
			if i == 5 && x == 5 {
				continue
			}
			ring = append(ring, models.Point{I: i, X: x, D: 10})
		}
	}
	donut := NewFromPoints(testVolume(), "donut", ring, true)
	if got := donut.NumberOfHoles(); got != 1 {
		t.Fatalf("NumberOfHoles = %d, want 1", got)
	}
	if got := donut.Perimeter(); got != 8 {
		t.Fatalf("Perimeter = %d, want 8", got)
	}
	if got := donut.Solidity(); got != 8.0/9.0 {
		t.Fatalf("Solidity = %v, want 8/9", got)
	}
}

func TestAttributeCacheLifecycle(t *testing.T) {
	plus := plusSurface(t)
	if _, err := plus.LoadAttribute(AttrKind(99), AttrOptions{}); !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("err = %v, want ErrUnknownAttribute", err)
	}

	first, err := plus.LoadAttribute(AttrDepths, AttrOptions{})
	if err != nil {
		t.Fatalf("LoadAttribute failed: %v", err)
	}
	if _, err := plus.LoadAttribute(AttrDepths, AttrOptions{}); err != nil {
		t.Fatalf("LoadAttribute failed: %v", err)
	}
	if got := plus.CachedAttributes(); got != 1 {
		t.Fatalf("CachedAttributes = %d, want 1", got)
	}

	// The returned buffer is a copy; mutating it must not leak back.
	first.Data[0] = -1
	again, err := plus.LoadAttribute(AttrDepths, AttrOptions{})
	if err != nil {
		t.Fatalf("LoadAttribute failed: %v", err)
	}
	if again.Data[0] == -1 {
		t.Fatal("cached attribute leaked a shared buffer")
	}

	plus.ThinOut(1, 1)
	if got := plus.CachedAttributes(); got != 0 {
		t.Fatalf("CachedAttributes = %d after mutation, want 0", got)
	}
}

func TestDepthsAttributeValues(t *testing.T) {
	plus := plusSurface(t)
	depths, err := plus.LoadAttribute(AttrDepths, AttrOptions{})
	if err != nil {
		t.Fatalf("LoadAttribute failed: %v", err)
	}
	if depths.NI != 3 || depths.NX != 3 || depths.ND != 1 {
		t.Fatalf("extents = %dx%dx%d, want 3x3x1", depths.NI, depths.NX, depths.ND)
	}
	if depths.At(1, 1, 0) != 10 {
		t.Fatalf("center depth = %v, want 10", depths.At(1, 1, 0))
	}
	if !math.IsNaN(depths.At(0, 0, 0)) {
		t.Fatal("uncovered cell should be NaN")
	}
}

func TestAmplitudesAttribute(t *testing.T) {
	vol := testVolume()
	data := make([]float64, 10*10*20)
	for idx := range data {
		data[idx] = float64(idx % 20) // sample value equals its depth
	}
	if err := vol.SetAmplitudes(data); err != nil {
		t.Fatalf("SetAmplitudes failed: %v", err)
	}
	s := NewFromPoints(vol, "amp", []models.Point{{I: 1, X: 1, D: 5}}, true)

	amp, err := s.LoadAttribute(AttrAmplitudes, AttrOptions{Window: 3})
	if err != nil {
		t.Fatalf("LoadAttribute failed: %v", err)
	}
	want := []float64{4, 5, 6}
	for k, w := range want {
		if amp.At(0, 0, k) != w {
			t.Fatalf("window[%d] = %v, want %v", k, amp.At(0, 0, k), w)
		}
	}
}

func TestSmoothOutPreservesFootprint(t *testing.T) {
	var ring []models.Point
	for i := 4; i <= 6; i++ {
		for x := 4; x <= 6; x++ {
			if i == 5 && x == 5 {
				continue
			}
			ring = append(ring, models.Point{I: i, X: x, D: 10})
		}
	}
	s := NewFromPoints(testVolume(), "ring", ring, true)
	s.SmoothOut(SmoothingOptions{})
	if s.Len() != 8 {
		t.Fatalf("Len = %d after SmoothOut, want 8", s.Len())
	}
	for _, p := range s.Points() {
		if p.D != 10 {
			t.Fatalf("flat surface changed depth to %d", p.D)
		}
	}
}

func TestInterpolateFillsHoles(t *testing.T) {
	var ring []models.Point
	for i := 4; i <= 6; i++ {
		for x := 4; x <= 6; x++ {
			if i == 5 && x == 5 {
				continue
			}
			ring = append(ring, models.Point{I: i, X: x, D: 10})
		}
	}
	s := NewFromPoints(testVolume(), "ring", ring, true)
	s.Interpolate(SmoothingOptions{})
	if s.Len() != 9 {
		t.Fatalf("Len = %d after Interpolate, want 9", s.Len())
	}
	m := s.Matrix()
	if m.At(1, 1) != 10 {
		t.Fatalf("filled center depth = %d, want 10", m.At(1, 1))
	}
}

func TestSmoothingRespectsDeadTraces(t *testing.T) {
	vol := testVolume()
	vol.KillTrace(5, 5)
	var block []models.Point
	for i := 4; i <= 6; i++ {
		for x := 4; x <= 6; x++ {
			if i == 5 && x == 5 {
				continue
			}
			block = append(block, models.Point{I: i, X: x, D: 10})
		}
	}
	s := NewFromPoints(vol, "block", block, true)
	s.Interpolate(SmoothingOptions{})
	if s.Len() != 8 {
		t.Fatalf("Len = %d, want 8: interpolation must not fill dead traces", s.Len())
	}
}

func TestMergeDisjoint(t *testing.T) {
	vol := testVolume()
	a := NewFromPoints(vol, "a", []models.Point{{I: 1, X: 1, D: 5}}, true)
	b := NewFromPoints(vol, "b", []models.Point{{I: 8, X: 8, D: 15}}, true)
	merged, err := Merge(a, b)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if merged.Len() != 2 {
		t.Fatalf("Len = %d, want 2", merged.Len())
	}
	iMin, iMax, _, _, dMin, dMax := merged.BBox()
	if iMin != 1 || iMax != 8 || dMin != 5 || dMax != 15 {
		t.Fatal("merged bbox should span both inputs")
	}

	// Merging with itself must not duplicate points.
	same, err := Merge(a, a)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if same.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after self-merge", same.Len())
	}
}

func TestCheckProximity(t *testing.T) {
	vol := testVolume()
	var aPts, bPts []models.Point
	for x := 0; x < 4; x++ {
		aPts = append(aPts, models.Point{I: 2, X: x, D: 10})
		bPts = append(bPts, models.Point{I: 2, X: x, D: 12})
	}
	bPts = append(bPts, models.Point{I: 3, X: 0, D: 12})
	a := NewFromPoints(vol, "a", aPts, true)
	b := NewFromPoints(vol, "b", bPts, true)

	report, err := CheckProximity(a, b, 0)
	if err != nil {
		t.Fatalf("CheckProximity failed: %v", err)
	}
	if report.OverlapSize != 4 {
		t.Fatalf("OverlapSize = %d, want 4", report.OverlapSize)
	}
	if report.MeanDiff != -2 || report.AbsMeanDiff != 2 || report.MaxAbsDiff != 2 {
		t.Fatalf("diff stats = %v %v %v", report.MeanDiff, report.AbsMeanDiff, report.MaxAbsDiff)
	}
	if report.WindowRate != 1 {
		t.Fatalf("WindowRate = %v, want 1", report.WindowRate)
	}
	if report.OnlyInFirst != 0 || report.OnlyInSecond != 1 {
		t.Fatalf("exclusive counts = %d, %d", report.OnlyInFirst, report.OnlyInSecond)
	}
}

func TestFilterDeadTracesAndMargin(t *testing.T) {
	vol := testVolume()
	vol.KillTrace(5, 5)
	s := NewFromPoints(vol, "s", []models.Point{
		{I: 5, X: 5, D: 10},
		{I: 7, X: 7, D: 10},
		{I: 0, X: 3, D: 10},
	}, true)

	s.Filter(nil, 0)
	if s.Len() != 2 {
		t.Fatalf("Len = %d after dead-trace filter, want 2", s.Len())
	}

	s.Filter(models.NewBitPlane(10, 10), 2)
	if s.Len() != 1 {
		t.Fatalf("Len = %d after margin filter, want 1", s.Len())
	}
	if s.Points()[0].I != 7 {
		t.Fatal("margin filter should keep only the interior point")
	}
}

func TestFilterDisconnectedRegions(t *testing.T) {
	vol := testVolume()
	pts := []models.Point{
		{I: 1, X: 1, D: 5},
		{I: 1, X: 2, D: 5},
		{I: 2, X: 1, D: 5},
		{I: 2, X: 2, D: 5},
		{I: 8, X: 8, D: 5},
	}
	s := NewFromPoints(vol, "s", pts, true)
	s.FilterDisconnectedRegions(0)
	if s.Len() != 4 {
		t.Fatalf("Len = %d, want 4 after keeping the largest region", s.Len())
	}
}

func TestThinOut(t *testing.T) {
	vol := testVolume()
	var pts []models.Point
	for i := 0; i < 6; i++ {
		for x := 0; x < 6; x++ {
			pts = append(pts, models.Point{I: i, X: x, D: 5})
		}
	}
	s := NewFromPoints(vol, "s", pts, true)
	s.ThinOut(2, 3)
	if s.Len() != 6 {
		t.Fatalf("Len = %d, want 6", s.Len())
	}
	for _, p := range s.Points() {
		if p.I%2 != 0 || p.X%3 != 0 {
			t.Fatalf("point %v should have been thinned out", p)
		}
	}
}

func TestAddToMask(t *testing.T) {
	vol := testVolume()
	s := NewFromPoints(vol, "s", []models.Point{{I: 2, X: 2, D: 5}}, true)
	mask := models.NewMask3D(4, 4, 10)
	loc := models.Location{Start: [3]int{0, 0, 0}, Stop: [3]int{4, 4, 10}}

	s.AddToMask(mask, loc, 3, 1)
	for d := 0; d < 10; d++ {
		want := float32(0)
		if d >= 4 && d <= 6 {
			want = 1
		}
		if mask.At(2, 2, d) != want {
			t.Fatalf("mask[2][2][%d] = %v, want %v", d, mask.At(2, 2, d), want)
		}
	}

	// Crops that miss the surface entirely stay untouched.
	far := models.NewMask3D(2, 2, 10)
	s.AddToMask(far, models.Location{Start: [3]int{8, 8, 0}, Stop: [3]int{10, 10, 10}}, 1, 1)
	for _, v := range far.Data {
		if v != 0 {
			t.Fatal("out-of-reach crop should stay zero")
		}
	}
}

func TestFromMaskComponents(t *testing.T) {
	vol := testVolume()
	mask := models.NewMask3D(10, 10, 20)
	for d := 5; d <= 7; d++ {
		mask.Set(2, 2, d, 1)
	}
	mask.Set(7, 7, 10, 1)

	surfaces := FromMask(vol, mask, FromMaskOptions{})
	if len(surfaces) != 2 {
		t.Fatalf("got %d surfaces, want 2", len(surfaces))
	}
	for _, s := range surfaces {
		if s.Len() != 1 {
			t.Fatalf("surface %s has %d traces, want 1", s.Name, s.Len())
		}
	}

	byMode := func(mode GroupMode) int {
		out := FromMask(vol, mask, FromMaskOptions{Mode: mode, MinSize: 0})
		for _, s := range out {
			p := s.Points()[0]
			if p.I == 2 && p.X == 2 {
				return p.D
			}
		}
		t.Fatal("stacked component not found")
		return 0
	}
	if d := byMode(GroupMean); d != 6 {
		t.Fatalf("mean depth = %d, want 6", d)
	}
	if d := byMode(GroupMin); d != 5 {
		t.Fatalf("min depth = %d, want 5", d)
	}
	if d := byMode(GroupMax); d != 7 {
		t.Fatalf("max depth = %d, want 7", d)
	}

	filtered := FromMask(vol, mask, FromMaskOptions{MinSize: 2})
	if len(filtered) != 0 {
		t.Fatalf("got %d surfaces with MinSize 2, want 0", len(filtered))
	}
}

func TestGradientAttribute(t *testing.T) {
	vol := testVolume()
	s := NewFromPoints(vol, "s", []models.Point{
		{I: 1, X: 1, D: 10},
		{I: 2, X: 1, D: 13},
	}, true)
	grad, err := s.LoadAttribute(AttrGradInline, AttrOptions{})
	if err != nil {
		t.Fatalf("LoadAttribute failed: %v", err)
	}
	if got := grad.At(1, 0, 0); got != 3 {
		t.Fatalf("gradient = %v, want 3", got)
	}
	if !math.IsNaN(grad.At(0, 0, 0)) {
		t.Fatal("first inline has no predecessor and should be NaN")
	}
}
