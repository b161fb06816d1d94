package rccm

import (
	"gonum.org/v1/gonum/stat"
)

// GridStats is a category census of one grid. Fractions are computed over the
// retrieval area only (cells that are decided or missing); sentinel cells are
// counted but excluded from the denominators, since an edge-heavy off-nadir
// camera would otherwise read as implausibly clear.
type GridStats struct {
	Camera    string `json:"camera"`
	Missing   int    `json:"missing"`
	CloudHigh int    `json:"cloud_high"`
	CloudLow  int    `json:"cloud_low"`
	ClearLow  int    `json:"clear_low"`
	ClearHigh int    `json:"clear_high"`
	Obscured  int    `json:"obscured"`
	Edge      int    `json:"edge"`
	Fill      int    `json:"fill"`

	CloudFraction   float64 `json:"cloud_fraction"`   // (1+2) / decided
	DecidedFraction float64 `json:"decided_fraction"` // decided / (decided+missing)
}

// Decided returns the number of cells holding a retrieval category.
func (s GridStats) Decided() int {
	return s.CloudHigh + s.CloudLow + s.ClearLow + s.ClearHigh
}

// CountFor returns the census count for a cell value, for table-driven report
// output.
func (s GridStats) CountFor(v uint8) int {
	switch v {
	case CellMissing:
		return s.Missing
	case CellCloudHigh:
		return s.CloudHigh
	case CellCloudLow:
		return s.CloudLow
	case CellClearLow:
		return s.ClearLow
	case CellClearHigh:
		return s.ClearHigh
	case CellObscured:
		return s.Obscured
	case CellEdge:
		return s.Edge
	case CellFill:
		return s.Fill
	default:
		return 0
	}
}

// Stats computes the census for one grid.
func (g *MaskGrid) Stats() GridStats {
	s := GridStats{Camera: g.Camera}
	for _, v := range g.Cells {
		switch v {
		case CellMissing:
			s.Missing++
		case CellCloudHigh:
			s.CloudHigh++
		case CellCloudLow:
			s.CloudLow++
		case CellClearLow:
			s.ClearLow++
		case CellClearHigh:
			s.ClearHigh++
		case CellObscured:
			s.Obscured++
		case CellEdge:
			s.Edge++
		case CellFill:
			s.Fill++
		}
	}
	if d := s.Decided(); d > 0 {
		s.CloudFraction = float64(s.CloudHigh+s.CloudLow) / float64(d)
	}
	if t := s.Decided() + s.Missing; t > 0 {
		s.DecidedFraction = float64(s.Decided()) / float64(t)
	}
	return s
}

// StackStats aggregates per-camera censuses with cross-camera dispersion of
// the cloud fraction. A large spread between cameras on the same block is a
// quick flag for a camera whose mask went bad upstream.
type StackStats struct {
	Cameras           []GridStats `json:"cameras"`
	MissingTotal      int         `json:"missing_total"`
	CloudFractionMean float64     `json:"cloud_fraction_mean"`
	CloudFractionStd  float64     `json:"cloud_fraction_std"`
}

// SummarizeStack computes per-camera and cross-camera statistics. Cameras with
// no decided cells are excluded from the cloud-fraction moments.
func SummarizeStack(stack CameraStack) StackStats {
	ss := StackStats{Cameras: make([]GridStats, 0, len(stack))}
	fractions := make([]float64, 0, len(stack))
	for _, g := range stack {
		gs := g.Stats()
		ss.Cameras = append(ss.Cameras, gs)
		ss.MissingTotal += gs.Missing
		if gs.Decided() > 0 {
			fractions = append(fractions, gs.CloudFraction)
		}
	}
	if len(fractions) > 0 {
		ss.CloudFractionMean = stat.Mean(fractions, nil)
	}
	if len(fractions) > 1 {
		ss.CloudFractionStd = stat.StdDev(fractions, nil)
	}
	return ss
}
