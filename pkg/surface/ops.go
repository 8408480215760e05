package surface

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"seishorizon/internal/models"
)

// Filter removes every point whose trace is set in the filtering mask.
// The mask covers the full spatial extents of the volume. A nil mask
// defaults to the volume's dead-trace map. Margin grows the mask by that
// many cells and additionally discards a margin-wide band along the frame
// border.
func (s *Surface) Filter(mask *models.BitPlane, margin int) {
	if mask == nil {
		mask = s.vol.ZeroTraces()
	}
	if margin > 0 {
		mask = dilate(mask, margin)
		band := min(margin, mask.Rows)
		mask.FillRegion(0, 0, band, mask.Cols, true)
		mask.FillRegion(mask.Rows-band, 0, mask.Rows, mask.Cols, true)
		band = min(margin, mask.Cols)
		mask.FillRegion(0, 0, mask.Rows, band, true)
		mask.FillRegion(0, mask.Cols-band, mask.Rows, mask.Cols, true)
	}
	s.ApplyToPoints(func(pts []models.Point) []models.Point {
		kept := pts[:0]
		for _, p := range pts {
			if !mask.At(p.I, p.X) {
				kept = append(kept, p)
			}
		}
		return kept
	})
}

// FilterDisconnectedRegions keeps only the largest 4-connected region of
// the surface footprint. A positive erosion rate erodes the footprint
// before labeling and dilates the chosen region back, which disconnects
// regions joined by thin bridges.
func (s *Surface) FilterDisconnectedRegions(erosionRate int) {
	footprint := s.PresenceMatrix()
	if erosionRate > 0 {
		footprint = erode(footprint, erosionRate)
	}
	labels, count := label2D(footprint, false)
	if count == 0 {
		return
	}

	sizes := make([]int, count+1)
	for _, l := range labels {
		sizes[l]++
	}
	best := 1
	for l := 2; l <= count; l++ {
		if sizes[l] > sizes[best] {
			best = l
		}
	}

	region := models.NewBitPlane(footprint.Rows, footprint.Cols)
	for i, l := range labels {
		region.Bits[i] = l == best
	}
	if erosionRate > 0 {
		region = dilate(region, erosionRate)
	}
	s.ApplyToPoints(func(pts []models.Point) []models.Point {
		kept := pts[:0]
		for _, p := range pts {
			if region.At(p.I, p.X) {
				kept = append(kept, p)
			}
		}
		return kept
	})
}

// Merge combines two surfaces bound to volumes of equal extents into a new
// one: the point clouds are concatenated, sorted lexicographically and
// deduplicated.
func Merge(a, b *Surface) (*Surface, error) {
	ai, ax, ad := a.vol.CubeShape()
	bi, bx, bd := b.vol.CubeShape()
	if ai != bi || ax != bx || ad != bd {
		return nil, ErrVolumeMismatch
	}
	merged := concatSorted(a.Points(), b.Points())
	return NewFromPoints(a.vol, a.Name+"+"+b.Name, merged, false), nil
}

// concatSorted concatenates two point clouds, sorts the result
// lexicographically and drops exact duplicates.
func concatSorted(a, b []models.Point) []models.Point {
	out := make([]models.Point, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	dedup := out[:0]
	for i, p := range out {
		if i > 0 && p == out[i-1] {
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}

// ProximityReport summarizes how close two surfaces run to each other on
// their shared traces.
type ProximityReport struct {
	// OverlapSize is the number of traces covered by both surfaces
	OverlapSize int

	// MeanDiff and StdDiff describe the signed depth difference
	// (first minus second) on shared traces
	MeanDiff, StdDiff float64

	// AbsMeanDiff and MaxAbsDiff describe the absolute depth difference
	AbsMeanDiff float64
	MaxAbsDiff  int

	// Window is the tolerance used for WindowRate, in depth samples
	Window int

	// WindowRate is the fraction of shared traces whose absolute
	// difference stays within Window
	WindowRate float64

	// OnlyInFirst and OnlyInSecond count traces covered by exactly one
	// of the two surfaces
	OnlyInFirst, OnlyInSecond int
}

// CheckProximity compares two surfaces bound to volumes of equal extents.
// Window is the depth tolerance for the agreement rate; values below one
// default to 5 samples.
func CheckProximity(a, b *Surface, window int) (*ProximityReport, error) {
	ai, ax, ad := a.vol.CubeShape()
	bi, bx, bd := b.vol.CubeShape()
	if ai != bi || ax != bx || ad != bd {
		return nil, ErrVolumeMismatch
	}
	if window < 1 {
		window = 5
	}

	am, bm := a.FullMatrix(), b.FullMatrix()
	report := &ProximityReport{Window: window}
	var diffs []float64
	inWindow := 0
	for i := range am.Data {
		da, db := am.Data[i], bm.Data[i]
		switch {
		case da != FillValue && db != FillValue:
			report.OverlapSize++
			diff := da - db
			diffs = append(diffs, float64(diff))
			if abs(diff) > report.MaxAbsDiff {
				report.MaxAbsDiff = abs(diff)
			}
			report.AbsMeanDiff += math.Abs(float64(diff))
			if abs(diff) <= window {
				inWindow++
			}
		case da != FillValue:
			report.OnlyInFirst++
		case db != FillValue:
			report.OnlyInSecond++
		}
	}
	if report.OverlapSize > 0 {
		report.MeanDiff = stat.Mean(diffs, nil)
		report.StdDiff = stat.PopStdDev(diffs, nil)
		report.AbsMeanDiff /= float64(report.OverlapSize)
		report.WindowRate = float64(inWindow) / float64(report.OverlapSize)
	} else {
		report.AbsMeanDiff = 0
	}
	return report, nil
}

// AddToMask rasterizes the surface into the crop of the mask described by
// loc: every covered trace inside the crop paints a width-sample depth
// band centered on the surface depth with the given alpha. The mask buffer
// is laid out in cube axis order regardless of the location orientation.
func (s *Surface) AddToMask(mask *models.Mask3D, loc models.Location, width int, alpha float32) {
	if width < 1 {
		width = 1
	}
	low := width / 2

	iMin, iMax, xMin, xMax, dMin, dMax := s.BBox()
	if s.IsEmpty() ||
		iMax < loc.Start[0] || iMin >= loc.Stop[0] ||
		xMax < loc.Start[1] || xMin >= loc.Stop[1] ||
		dMax+width < loc.Start[2] || dMin-width >= loc.Stop[2] {
		return
	}

	for _, p := range s.Points() {
		if p.I < loc.Start[0] || p.I >= loc.Stop[0] || p.X < loc.Start[1] || p.X >= loc.Stop[1] {
			continue
		}
		for dd := p.D - low; dd < p.D-low+width; dd++ {
			if dd < loc.Start[2] || dd >= loc.Stop[2] {
				continue
			}
			mask.Set(p.I-loc.Start[0], p.X-loc.Start[1], dd-loc.Start[2], alpha)
		}
	}
}
