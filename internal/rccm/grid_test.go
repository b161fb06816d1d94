package rccm

import (
	"sort"
	"testing"
)

func TestGridIdxRoundTrip(t *testing.T) {
	g := NewMaskGrid("Df", 7, 5)
	seen := make(map[int]bool)
	for line := 0; line < g.Lines; line++ {
		for sample := 0; sample < g.Samples; sample++ {
			idx := g.Idx(line, sample)
			if idx < 0 || idx >= len(g.Cells) {
				t.Fatalf("Idx(%d,%d)=%d out of range", line, sample, idx)
			}
			if seen[idx] {
				t.Fatalf("Idx(%d,%d)=%d collides", line, sample, idx)
			}
			seen[idx] = true
			if idx/g.Samples != line || idx%g.Samples != sample {
				t.Fatalf("Idx(%d,%d)=%d does not invert", line, sample, idx)
			}
		}
	}
}

func TestGridMissingCellsAscending(t *testing.T) {
	g := NewMaskGrid("Df", 6, 4)
	g.Fill(CellClearHigh)
	g.Set(3, 5, CellMissing)
	g.Set(0, 2, CellMissing)
	g.Set(2, 0, CellMissing)

	idxs := g.MissingCells()
	if len(idxs) != 3 {
		t.Fatalf("expected 3 missing, got %d", len(idxs))
	}
	if !sort.IntsAreSorted(idxs) {
		t.Fatalf("missing indices not ascending: %v", idxs)
	}
	if g.MissingCount() != 3 {
		t.Fatalf("MissingCount=%d want 3", g.MissingCount())
	}
}

func TestGridValidate(t *testing.T) {
	g := NewMaskGrid("Df", 4, 4)
	if err := g.Validate(); err != nil {
		t.Fatalf("fresh grid should validate: %v", err)
	}

	g.Cells[5] = 200
	if err := g.Validate(); err == nil {
		t.Fatalf("expected error for out-of-vocabulary value")
	}

	g = NewMaskGrid("Df", 4, 4)
	g.Cells = g.Cells[:10]
	if err := g.Validate(); err == nil {
		t.Fatalf("expected error for shape/cell-count mismatch")
	}
}

func TestValidateStack(t *testing.T) {
	stack := NewStandardStack()
	if err := ValidateStack(stack); err != nil {
		t.Fatalf("standard stack should validate: %v", err)
	}
	if err := ValidateStack(stack[:8]); err == nil {
		t.Fatalf("expected error for 8-camera stack")
	}
	stack[2] = nil
	if err := ValidateStack(stack); err == nil {
		t.Fatalf("expected error for nil grid")
	}
	stack[2] = NewMaskGrid("Bf", GridSamples, GridLines-1)
	if err := ValidateStack(stack); err == nil {
		t.Fatalf("expected error for short grid")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := NewMaskGrid("Aa", 4, 2)
	g.Fill(CellCloudLow)
	c := g.Clone()
	c.Set(0, 0, CellClearHigh)
	if g.At(0, 0) != CellCloudLow {
		t.Fatalf("clone shares cell storage with original")
	}
}

func TestCellClassifiers(t *testing.T) {
	for v := uint8(1); v <= 4; v++ {
		if !IsCategory(v) {
			t.Fatalf("value %d should be a category", v)
		}
	}
	for _, v := range []uint8{CellMissing, CellObscured, CellEdge, CellFill} {
		if IsCategory(v) {
			t.Fatalf("value %d must not be a category", v)
		}
	}
	for _, v := range []uint8{CellObscured, CellEdge, CellFill} {
		if !IsPermanent(v) {
			t.Fatalf("value %d should be permanent", v)
		}
	}
	if IsValidCell(5) || IsValidCell(100) || IsValidCell(252) {
		t.Fatalf("gap values must not validate")
	}
}
