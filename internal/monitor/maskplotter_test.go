package monitor

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stratomet-data/cloudmask.report/internal/rccm"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestCategoryLevel(t *testing.T) {
	tests := []struct {
		value uint8
		level float64
	}{
		{rccm.CellMissing, 0},
		{rccm.CellCloudHigh, 1},
		{rccm.CellCloudLow, 2},
		{rccm.CellClearLow, 3},
		{rccm.CellClearHigh, 4},
		{rccm.CellObscured, 5},
		{rccm.CellEdge, 6},
		{rccm.CellFill, 7},
	}

	for _, tt := range tests {
		if got := categoryLevel(tt.value); got != tt.level {
			t.Errorf("categoryLevel(%d) = %v, want %v", tt.value, got, tt.level)
		}
	}

	if len(maskColors) != len(tests) {
		t.Errorf("palette has %d colors for %d display levels", len(maskColors), len(tests))
	}
}

func TestMaskGridXYZOrientation(t *testing.T) {
	g := rccm.NewMaskGrid("An", 6, 3)
	g.Set(2, 5, rccm.CellCloudHigh)

	xyz := maskGridXYZ{g: g}

	c, r := xyz.Dims()
	if c != 6 || r != 3 {
		t.Fatalf("Dims() = (%d, %d), want (6, 3)", c, r)
	}

	// Column is the sample axis, row is the line axis.
	if got := xyz.Z(5, 2); got != 1 {
		t.Errorf("Z(5, 2) = %v, want cloud level 1", got)
	}

	if got := xyz.Z(2, 2); got == 1 {
		t.Error("transposed lookup should not find the cloud cell")
	}
}

func TestSaveMaskPlot(t *testing.T) {
	g := rccm.NewMaskGrid("Df", 16, 8)
	g.Fill(rccm.CellClearLow)
	g.Set(0, 0, rccm.CellEdge)
	g.Set(3, 7, rccm.CellMissing)

	path := filepath.Join(t.TempDir(), "mask_Df.png")
	if err := SaveMaskPlot(g, path); err != nil {
		t.Fatalf("SaveMaskPlot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading plot file: %v", err)
	}

	if !bytes.HasPrefix(data, pngMagic) {
		t.Error("plot file is not a PNG")
	}
}

func TestSaveMaskPlotNilGrid(t *testing.T) {
	if err := SaveMaskPlot(nil, "unused.png"); err == nil {
		t.Error("expected error for nil grid")
	}
}

func TestSaveStackPlots(t *testing.T) {
	stack := rccm.CameraStack{
		rccm.NewMaskGrid("Df", 8, 4),
		nil,
		rccm.NewMaskGrid("An", 8, 4),
	}
	stack[0].Fill(rccm.CellCloudLow)
	stack[2].Fill(rccm.CellClearHigh)

	dir := filepath.Join(t.TempDir(), "plots")
	n, err := SaveStackPlots(stack, dir)
	if err != nil {
		t.Fatalf("SaveStackPlots: %v", err)
	}

	if n != 2 {
		t.Errorf("expected 2 plots written, got %d", n)
	}

	for _, name := range []string{"mask_Df.png", "mask_An.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected plot file %s: %v", name, err)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 1, 7, 17, 31, 29, 0, time.UTC)
	if got := FormatTimestamp(ts); got != "20260107_173129" {
		t.Errorf("FormatTimestamp = %q, want 20260107_173129", got)
	}
}

func TestMakePlotOutputDir(t *testing.T) {
	dir := MakePlotOutputDir("plots", "/data/incoming/CLDMSK_O043122_B057_v2.msk")
	if !strings.HasPrefix(dir, filepath.Join("plots", "CLDMSK_O043122_B057_v2")) {
		t.Errorf("granule plot dir %q should use the basename without extension", dir)
	}

	dir = MakePlotOutputDir("plots", "")
	if !strings.HasPrefix(dir, filepath.Join("plots", "watch_")) {
		t.Errorf("watch plot dir %q should use the watch_ prefix", dir)
	}
}
