// Package radiance holds the per-camera radiance planes that ride alongside a
// cloud mask granule, and the annotation step that converts radiometric
// structure (swath edges, fill padding, dark obscured terrain) into the
// permanent mask sentinels before reconstruction runs.
package radiance

import "fmt"

// FillValue is the sentinel the L1 formatter writes into radiance cells that
// carry no measurement, either outside the swath or in dropout padding.
const FillValue float32 = -999.0

// Grid is one camera's radiance plane, stored line-major to mirror the mask
// grid layout: index = line*Samples + sample.
type Grid struct {
	Camera  string
	Samples int
	Lines   int
	Values  []float32
}

// NewGrid allocates a radiance plane with every value set to FillValue.
func NewGrid(camera string, samples, lines int) *Grid {
	g := &Grid{
		Camera:  camera,
		Samples: samples,
		Lines:   lines,
		Values:  make([]float32, samples*lines),
	}
	for i := range g.Values {
		g.Values[i] = FillValue
	}
	return g
}

// Idx converts (line, sample) to a flat index.
func (g *Grid) Idx(line, sample int) int {
	return line*g.Samples + sample
}

// At returns the radiance at (line, sample). The caller is responsible for
// bounds.
func (g *Grid) At(line, sample int) float32 {
	return g.Values[g.Idx(line, sample)]
}

// Set writes the radiance at (line, sample). The caller is responsible for
// bounds.
func (g *Grid) Set(line, sample int, v float32) {
	g.Values[g.Idx(line, sample)] = v
}

// Validate checks shape consistency.
func (g *Grid) Validate() error {
	if g == nil {
		return fmt.Errorf("nil radiance grid")
	}
	if g.Samples <= 0 || g.Lines <= 0 {
		return fmt.Errorf("camera %s: invalid radiance shape %dx%d", g.Camera, g.Samples, g.Lines)
	}
	if len(g.Values) != g.Samples*g.Lines {
		return fmt.Errorf("camera %s: radiance value count %d does not match shape %dx%d",
			g.Camera, len(g.Values), g.Samples, g.Lines)
	}
	return nil
}
