// Package pipeline wires grids, detectors and labels into end-to-end
// flows: sweep a volume for new surfaces, or grow a known surface by
// repeatedly predicting around its boundary.
package pipeline

import (
	"errors"
	"fmt"

	"seishorizon/internal/models"
	"seishorizon/pkg/fault"
	"seishorizon/pkg/geometry"
	"seishorizon/pkg/grid"
	"seishorizon/pkg/surface"
)

// Detector turns crop locations into prediction masks. Each returned mask
// matches the crop extents of its location, laid out in cube axis order.
type Detector interface {
	Predict(batch []models.Location) ([]*models.Mask3D, error)
}

// Runner drives a detector over grids of a single volume.
type Runner struct {
	vol geometry.Volume
	det Detector
}

// NewRunner binds a detector to a volume.
func NewRunner(vol geometry.Volume, det Detector) *Runner {
	return &Runner{vol: vol, det: det}
}

// DetectSurfaces sweeps the grid, assembles every predicted crop into a
// volume-sized mask and extracts surfaces from it. Overlapping crops
// combine by maximum, so repeated coverage can only strengthen a
// prediction.
func (r *Runner) DetectSurfaces(g *grid.Grid, opts surface.FromMaskOptions) ([]*surface.Surface, error) {
	global, err := r.assemble(g)
	if err != nil {
		return nil, err
	}
	return surface.FromMask(r.vol, global, opts), nil
}

// DetectFaults sweeps the grid like DetectSurfaces but labels the global
// mask into faults.
func (r *Runner) DetectFaults(g *grid.Grid, cfg fault.LabelerConfig) ([]*fault.Fault, error) {
	global, err := r.assemble(g)
	if err != nil {
		return nil, err
	}
	return fault.FromMask(r.vol, global, cfg), nil
}

func (r *Runner) assemble(g *grid.Grid) (*models.Mask3D, error) {
	ni, nx, nd := r.vol.CubeShape()
	global := models.NewMask3D(ni, nx, nd)
	for {
		batch, err := g.NextBatch()
		if errors.Is(err, grid.ErrExhausted) {
			break
		}
		if err != nil {
			return nil, err
		}
		masks, err := r.det.Predict(batch)
		if err != nil {
			return nil, err
		}
		if len(masks) != len(batch) {
			return nil, fmt.Errorf("pipeline: %d masks for %d locations", len(masks), len(batch))
		}
		for k, loc := range batch {
			blend(global, masks[k], loc)
		}
	}
	return global, nil
}

// blend writes a crop mask into the global one at its location, keeping
// the maximum where crops overlap.
func blend(global *models.Mask3D, crop *models.Mask3D, loc models.Location) {
	for i := loc.Start[0]; i < loc.Stop[0]; i++ {
		for x := loc.Start[1]; x < loc.Stop[1]; x++ {
			for d := loc.Start[2]; d < loc.Stop[2]; d++ {
				v := crop.At(i-loc.Start[0], x-loc.Start[1], d-loc.Start[2])
				if v > global.At(i, x, d) {
					global.Set(i, x, d, v)
				}
			}
		}
	}
}

// ExtendReport summarizes an extension run.
type ExtendReport struct {
	// Iterations is the number of extension rounds executed
	Iterations int

	// StartSize and FinalSize count the surface traces before and after
	StartSize, FinalSize int

	// AddedPerIteration counts the new traces gained each round
	AddedPerIteration []int
}

// ExtendSurface grows the surface iteratively: each round builds an
// extension grid around the current boundary, drops locations already
// tried with the same potential, predicts the rest and merges any
// extracted surface back in. The loop stops after maxIterations rounds,
// when the grid comes back empty, or when a round adds nothing.
func (r *Runner) ExtendSurface(surf *surface.Surface, cfg grid.ExtensionConfig, opts surface.FromMaskOptions, maxIterations int) (*surface.Surface, *ExtendReport, error) {
	if maxIterations < 1 {
		maxIterations = 1
	}
	container := grid.NewLocationsPotentialContainer()
	report := &ExtendReport{StartSize: surf.Len()}

	for it := 0; it < maxIterations; it++ {
		eg, err := grid.NewExtension(surf, cfg)
		if err != nil {
			return surf, report, err
		}
		container.Update(eg)
		if eg.Len() == 0 {
			break
		}
		report.Iterations++

		before := surf.Len()
		for {
			batch, err := eg.NextBatch()
			if errors.Is(err, grid.ErrExhausted) {
				break
			}
			if err != nil {
				return surf, report, err
			}
			masks, err := r.det.Predict(batch)
			if err != nil {
				return surf, report, err
			}
			if len(masks) != len(batch) {
				return surf, report, fmt.Errorf("pipeline: %d masks for %d locations", len(masks), len(batch))
			}
			for k, loc := range batch {
				cropOpts := opts
				cropOpts.Origin = loc.Start
				for _, piece := range surface.FromMask(r.vol, masks[k], cropOpts) {
					merged, err := surface.Merge(surf, piece)
					if err != nil {
						return surf, report, err
					}
					surf = merged
				}
			}
		}
		added := surf.Len() - before
		report.AddedPerIteration = append(report.AddedPerIteration, added)
		if added == 0 {
			break
		}
	}
	report.FinalSize = surf.Len()
	return surf, report, nil
}
