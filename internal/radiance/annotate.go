package radiance

import (
	"fmt"

	"github.com/stratomet-data/cloudmask.report/internal/rccm"
)

// AnnotateParams tunes the structural annotation pass.
type AnnotateParams struct {
	// EdgeMarginSamples is the width of the cross-track band at each swath
	// edge inside which unmeasured cells are classified as edge rather than
	// fill. The off-nadir cameras image a swath narrower than the 512-sample
	// grid, so their unmeasured margins are structural, not dropouts.
	EdgeMarginSamples int

	// ObscuredMax is the radiance below which a measured cell is considered
	// blocked (terrain shadow or sun glitter mask) and marked obscured.
	// Radiometric units match the sidecar product.
	ObscuredMax float64
}

// DefaultAnnotateParams returns the production annotation thresholds.
func DefaultAnnotateParams() AnnotateParams {
	return AnnotateParams{
		EdgeMarginSamples: 8,
		ObscuredMax:       15.0,
	}
}

// Result counts the sentinels written into one mask grid.
type Result struct {
	Camera   string `json:"camera"`
	Edge     int    `json:"edge"`
	Obscured int    `json:"obscured"`
	Fill     int    `json:"fill"`
}

// Annotate classifies structurally unreconstructable cells of a mask grid
// from its radiance plane, writing the permanent sentinels in place. Only
// cells still marked missing are eligible; retrievals and existing sentinels
// are left alone, so annotation is safe to re-run.
//
// Classification of a missing cell:
//   - radiance == FillValue inside the edge margin: edge
//   - radiance == FillValue elsewhere: fill
//   - 0 <= radiance < ObscuredMax: obscured
//   - anything else: stays missing for the reconstruction engine
//
// Negative non-fill radiances are decoder noise; they stay missing and are
// left for neighborhood voting rather than being frozen into a sentinel.
func Annotate(mask *rccm.MaskGrid, rad *Grid, p AnnotateParams) (Result, error) {
	res := Result{Camera: mask.Camera}
	if err := rad.Validate(); err != nil {
		return res, fmt.Errorf("annotate: %w", err)
	}
	if mask.Samples != rad.Samples || mask.Lines != rad.Lines {
		return res, fmt.Errorf("annotate camera %s: mask %dx%d vs radiance %dx%d",
			mask.Camera, mask.Samples, mask.Lines, rad.Samples, rad.Lines)
	}
	if p.EdgeMarginSamples < 0 || p.EdgeMarginSamples > mask.Samples/2 {
		return res, fmt.Errorf("annotate camera %s: edge margin %d out of range",
			mask.Camera, p.EdgeMarginSamples)
	}

	for line := 0; line < mask.Lines; line++ {
		for sample := 0; sample < mask.Samples; sample++ {
			idx := mask.Idx(line, sample)
			if mask.Cells[idx] != rccm.CellMissing {
				continue
			}
			v := rad.Values[idx]
			switch {
			case v == FillValue:
				if sample < p.EdgeMarginSamples || sample >= mask.Samples-p.EdgeMarginSamples {
					mask.Cells[idx] = rccm.CellEdge
					res.Edge++
				} else {
					mask.Cells[idx] = rccm.CellFill
					res.Fill++
				}
			case v >= 0 && float64(v) < p.ObscuredMax:
				mask.Cells[idx] = rccm.CellObscured
				res.Obscured++
			}
		}
	}
	return res, nil
}

// AnnotateStack annotates every camera of a stack from its paired radiance
// plane. Planes align with the stack by index; a missing plane (nil entry)
// skips that camera, which matches granules downlinked without the radiance
// sidecar.
func AnnotateStack(stack rccm.CameraStack, rads []*Grid, p AnnotateParams) ([]Result, error) {
	if len(rads) != len(stack) {
		return nil, fmt.Errorf("annotate: %d radiance planes for %d cameras", len(rads), len(stack))
	}
	results := make([]Result, len(stack))
	for i, mask := range stack {
		if rads[i] == nil {
			results[i] = Result{Camera: mask.Camera}
			continue
		}
		res, err := Annotate(mask, rads[i], p)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}
