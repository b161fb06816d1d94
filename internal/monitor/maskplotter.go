package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/stratomet-data/cloudmask.report/internal/rccm"
	"github.com/stratomet-data/cloudmask.report/internal/security"
)

// maskColors maps display levels (see categoryLevel) to plot colors. Missing
// cells render red so residual dropouts stand out against the retrieval bands.
var maskColors = []color.Color{
	color.RGBA{R: 0xff, G: 0x52, B: 0x52, A: 0xff}, // missing
	color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, // cloud high confidence
	color.RGBA{R: 0xc9, G: 0xc9, B: 0xc9, A: 0xff}, // cloud low confidence
	color.RGBA{R: 0x7f, G: 0xb8, B: 0xe6, A: 0xff}, // clear low confidence
	color.RGBA{R: 0x1f, G: 0x5f, B: 0xa6, A: 0xff}, // clear high confidence
	color.RGBA{R: 0x8d, G: 0x6e, B: 0x63, A: 0xff}, // obscured
	color.RGBA{R: 0x42, G: 0x42, B: 0x42, A: 0xff}, // edge
	color.RGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xff}, // fill
}

// maskPalette satisfies the plot palette interface with one color per display
// level, so integer levels land on exact colors rather than a gradient.
type maskPalette struct{}

func (maskPalette) Colors() []color.Color { return maskColors }

// categoryLevel flattens the sparse cell vocabulary (0..4, 253..255) onto
// contiguous display levels 0..7 for the heatmap palette.
func categoryLevel(v uint8) float64 {
	switch v {
	case rccm.CellCloudHigh:
		return 1
	case rccm.CellCloudLow:
		return 2
	case rccm.CellClearLow:
		return 3
	case rccm.CellClearHigh:
		return 4
	case rccm.CellObscured:
		return 5
	case rccm.CellEdge:
		return 6
	case rccm.CellFill:
		return 7
	}
	return 0
}

// maskGridXYZ adapts a MaskGrid to the plotter grid interface. Columns are
// samples and rows are lines, matching the grid's (line, sample) addressing.
type maskGridXYZ struct {
	g *rccm.MaskGrid
}

func (m maskGridXYZ) Dims() (c, r int)   { return m.g.Samples, m.g.Lines }
func (m maskGridXYZ) Z(c, r int) float64 { return categoryLevel(m.g.At(r, c)) }
func (m maskGridXYZ) X(c int) float64    { return float64(c) }
func (m maskGridXYZ) Y(r int) float64    { return float64(r) }

// SaveMaskPlot renders one camera plane as a categorical heatmap PNG. The
// canvas keeps the 512x128 swath aspect so cells stay square.
func SaveMaskPlot(g *rccm.MaskGrid, path string) error {
	if g == nil {
		return fmt.Errorf("nil grid")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Camera %s Cloud Mask", g.Camera)
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Line"

	hm := plotter.NewHeatMap(maskGridXYZ{g: g}, maskPalette{})
	hm.Min = 0
	hm.Max = float64(len(maskColors) - 1)
	p.Add(hm)

	if err := p.Save(16*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save mask plot: %w", err)
	}
	return nil
}

// SaveStackPlots renders every camera in the stack to outputDir as
// mask_<camera>.png. Returns the number of plots written and any error.
func SaveStackPlots(stack rccm.CameraStack, outputDir string) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	plotCount := 0
	for _, g := range stack {
		if g == nil {
			continue
		}
		file := filepath.Join(outputDir, fmt.Sprintf("mask_%s.png", g.Camera))
		if err := SaveMaskPlot(g, file); err != nil {
			return plotCount, fmt.Errorf("camera %s: %w", g.Camera, err)
		}
		plotCount++
	}
	return plotCount, nil
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir builds a timestamped output directory for plots.
// For granule files: <baseDir>/<granule_basename>/<timestamp>
// For watch-mode runs: <baseDir>/watch_<timestamp>
// The granule-derived component is sanitized so a hostile file name cannot
// steer the directory outside baseDir.
func MakePlotOutputDir(baseDir, maskFile string) string {
	ts := FormatTimestamp(time.Now())
	if maskFile != "" {
		base := filepath.Base(maskFile)
		ext := filepath.Ext(base)
		name := security.SanitizeFilename(base[:len(base)-len(ext)])
		return filepath.Join(baseDir, name, ts)
	}
	return filepath.Join(baseDir, "watch_"+ts)
}
