package rccm

import (
	"fmt"
)

// Cell values carried in an RCCM grid. The four retrieval categories (1..4)
// are the only values that count as evidence in a neighborhood vote. The
// sentinel band (253..255) marks cells that carry no retrieval and never will;
// reconstruction must neither read them as evidence nor write over them.
const (
	CellMissing   uint8 = 0   // no retrieval yet; candidate for reconstruction
	CellCloudHigh uint8 = 1   // cloud, high confidence
	CellCloudLow  uint8 = 2   // cloud, low confidence
	CellClearLow  uint8 = 3   // clear, low confidence
	CellClearHigh uint8 = 4   // clear, high confidence
	CellObscured  uint8 = 253 // line of sight blocked (terrain or glitter mask)
	CellEdge      uint8 = 254 // outside the camera's active swath
	CellFill      uint8 = 255 // padding written by the L1 formatter
)

// Standard RCCM grid geometry. Every camera in a granule carries exactly one
// grid of this shape; ReconstructStack rejects anything else.
const (
	GridSamples = 512 // cross-track cells per line
	GridLines   = 128 // along-track lines per block
	NumCameras  = 9
)

// CameraNames lists the nine cameras in granule order, fore to aft.
var CameraNames = [NumCameras]string{"Df", "Cf", "Bf", "Af", "An", "Aa", "Ba", "Ca", "Da"}

// IsCategory reports whether v is one of the four retrieval categories that
// may serve as vote evidence.
func IsCategory(v uint8) bool {
	return v >= CellCloudHigh && v <= CellClearHigh
}

// IsPermanent reports whether v is a sentinel that reconstruction must never
// overwrite.
func IsPermanent(v uint8) bool {
	return v == CellObscured || v == CellEdge || v == CellFill
}

// IsValidCell reports whether v is any value an RCCM grid is allowed to hold.
func IsValidCell(v uint8) bool {
	return v == CellMissing || IsCategory(v) || IsPermanent(v)
}

// CellName returns a short printable name for a cell value, for logs and
// report output.
func CellName(v uint8) string {
	switch v {
	case CellMissing:
		return "missing"
	case CellCloudHigh:
		return "cloud_high"
	case CellCloudLow:
		return "cloud_low"
	case CellClearLow:
		return "clear_low"
	case CellClearHigh:
		return "clear_high"
	case CellObscured:
		return "obscured"
	case CellEdge:
		return "edge"
	case CellFill:
		return "fill"
	default:
		return fmt.Sprintf("invalid(%d)", v)
	}
}

// MaskGrid is one camera's cloud mask stored as a flat slice in line-major
// order: index = line*Samples + sample. Line 0 sample 0 is the first byte, and
// scan order over the flat slice is the pass order used by reconstruction.
type MaskGrid struct {
	Camera  string // camera name, e.g. "An"
	Samples int    // cross-track width
	Lines   int    // along-track height
	Cells   []uint8
}

// NewMaskGrid allocates a grid of the given shape with every cell missing.
func NewMaskGrid(camera string, samples, lines int) *MaskGrid {
	return &MaskGrid{
		Camera:  camera,
		Samples: samples,
		Lines:   lines,
		Cells:   make([]uint8, samples*lines),
	}
}

// NewStandardGrid allocates a grid with the standard RCCM shape.
func NewStandardGrid(camera string) *MaskGrid {
	return NewMaskGrid(camera, GridSamples, GridLines)
}

// Idx converts (line, sample) to a flat cell index.
func (g *MaskGrid) Idx(line, sample int) int {
	return line*g.Samples + sample
}

// At returns the cell at (line, sample). The caller is responsible for bounds.
func (g *MaskGrid) At(line, sample int) uint8 {
	return g.Cells[g.Idx(line, sample)]
}

// Set writes the cell at (line, sample). The caller is responsible for bounds.
func (g *MaskGrid) Set(line, sample int, v uint8) {
	g.Cells[g.Idx(line, sample)] = v
}

// InBounds reports whether (line, sample) addresses a cell of this grid.
func (g *MaskGrid) InBounds(line, sample int) bool {
	return line >= 0 && line < g.Lines && sample >= 0 && sample < g.Samples
}

// MissingCount returns the number of cells still marked missing.
func (g *MaskGrid) MissingCount() int {
	n := 0
	for _, v := range g.Cells {
		if v == CellMissing {
			n++
		}
	}
	return n
}

// MissingCells returns the flat indices of all missing cells in ascending
// order. Pass execution snapshots this list up front so that the set of cells
// voted in a pass is fixed before any of them is filled.
func (g *MaskGrid) MissingCells() []int {
	idxs := make([]int, 0, 64)
	for i, v := range g.Cells {
		if v == CellMissing {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// Clone returns a deep copy of the grid.
func (g *MaskGrid) Clone() *MaskGrid {
	c := &MaskGrid{
		Camera:  g.Camera,
		Samples: g.Samples,
		Lines:   g.Lines,
		Cells:   make([]uint8, len(g.Cells)),
	}
	copy(c.Cells, g.Cells)
	return c
}

// Fill sets every cell to v. Test and tool setup helper.
func (g *MaskGrid) Fill(v uint8) {
	for i := range g.Cells {
		g.Cells[i] = v
	}
}

// Validate checks the grid's internal consistency: a non-nil cell slice whose
// length matches the declared shape, and no out-of-vocabulary cell values.
func (g *MaskGrid) Validate() error {
	if g == nil {
		return fmt.Errorf("nil grid")
	}
	if g.Samples <= 0 || g.Lines <= 0 {
		return fmt.Errorf("camera %s: invalid shape %dx%d", g.Camera, g.Samples, g.Lines)
	}
	if len(g.Cells) != g.Samples*g.Lines {
		return fmt.Errorf("camera %s: cell count %d does not match shape %dx%d",
			g.Camera, len(g.Cells), g.Samples, g.Lines)
	}
	for i, v := range g.Cells {
		if !IsValidCell(v) {
			return fmt.Errorf("camera %s: cell %d holds invalid value %d", g.Camera, i, v)
		}
	}
	return nil
}

// CameraStack is the ordered set of per-camera grids for one granule. Order
// follows CameraNames.
type CameraStack []*MaskGrid

// NewStandardStack allocates a nine-camera stack of standard grids, all cells
// missing.
func NewStandardStack() CameraStack {
	stack := make(CameraStack, NumCameras)
	for i, name := range CameraNames {
		stack[i] = NewStandardGrid(name)
	}
	return stack
}

// ValidateStack checks that a stack is exactly nine standard-shape grids with
// valid cell values. Reconstruction refuses to start on anything else.
func ValidateStack(stack CameraStack) error {
	if len(stack) != NumCameras {
		return fmt.Errorf("stack has %d cameras, want %d", len(stack), NumCameras)
	}
	for i, g := range stack {
		if g == nil {
			return fmt.Errorf("camera %d (%s): nil grid", i, CameraNames[i])
		}
		if g.Samples != GridSamples || g.Lines != GridLines {
			return fmt.Errorf("camera %d (%s): shape %dx%d, want %dx%d",
				i, g.Camera, g.Samples, g.Lines, GridSamples, GridLines)
		}
		if err := g.Validate(); err != nil {
			return err
		}
	}
	return nil
}
