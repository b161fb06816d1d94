package granule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stratomet-data/cloudmask.report/internal/rccm"
)

func TestProductNaming(t *testing.T) {
	name := MaskFileName(12345, 42, 3)
	if name != "CLDMSK_O012345_B042_v3.msk" {
		t.Fatalf("mask name %q", name)
	}
	if rad := RadianceFileName(12345, 42, 3); rad != "CLDMSK_O012345_B042_v3.rad" {
		t.Fatalf("radiance name %q", rad)
	}

	info, err := ParseProductName(name)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if info.Orbit != 12345 || info.Block != 42 || info.Version != 3 ||
		info.Restored || info.Kind != "mask" {
		t.Fatalf("parsed %+v", info)
	}

	info, err = ParseProductName("CLDMSK_O000001_B001_v1_restored.msk")
	if err != nil {
		t.Fatalf("parse restored failed: %v", err)
	}
	if !info.Restored {
		t.Fatalf("restored flag not parsed")
	}

	info, err = ParseProductName("CLDMSK_O000001_B001_v1.rad")
	if err != nil {
		t.Fatalf("parse radiance failed: %v", err)
	}
	if info.Kind != "radiance" {
		t.Fatalf("kind %q, want radiance", info.Kind)
	}

	for _, bad := range []string{
		"CLDMSK_O1_B001_v1.msk", // unpadded orbit
		"CLDMSK_O000001_B001_v1.hdf",
		"notes.txt",
	} {
		if _, err := ParseProductName(bad); err == nil {
			t.Fatalf("expected parse error for %q", bad)
		}
	}
}

func TestRestoredAndSidecarPaths(t *testing.T) {
	in := filepath.Join("data", "CLDMSK_O012345_B042_v3.msk")
	if got := RestoredFileName(in); got != filepath.Join("data", "CLDMSK_O012345_B042_v3_restored.msk") {
		t.Fatalf("restored path %q", got)
	}
	if got := SidecarPath(in); got != filepath.Join("data", "CLDMSK_O012345_B042_v3.rad") {
		t.Fatalf("sidecar path %q", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := New(777, 5)
	for _, grid := range g.Masks {
		grid.Fill(rccm.CellClearHigh)
	}
	g.Masks[2].Set(3, 3, rccm.CellMissing)

	path := filepath.Join(dir, MaskFileName(777, 5, 1))
	if err := g.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Orbit != 777 || got.Masks[2].At(3, 3) != rccm.CellMissing {
		t.Fatalf("round trip lost data")
	}

	rs := NewRadianceSet(777, 5)
	radPath := filepath.Join(dir, RadianceFileName(777, 5, 1))
	if err := rs.Save(radPath); err != nil {
		t.Fatalf("save radiance failed: %v", err)
	}
	if _, err := LoadRadianceSet(radPath); err != nil {
		t.Fatalf("load radiance failed: %v", err)
	}
}

func TestScanDirSkipsRestoredAndForeignFiles(t *testing.T) {
	dir := t.TempDir()
	g := New(100, 1)
	for _, grid := range g.Masks {
		grid.Fill(rccm.CellFill)
	}

	done := filepath.Join(dir, MaskFileName(100, 1, 1))
	pending := filepath.Join(dir, MaskFileName(100, 2, 1))
	if err := g.Save(done); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := g.Save(RestoredFileName(done)); err != nil {
		t.Fatalf("save restored: %v", err)
	}
	if err := g.Save(pending); err != nil {
		t.Fatalf("save pending: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}

	got, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(got) != 1 || got[0] != pending {
		t.Fatalf("scan returned %v, want only %s", got, pending)
	}
}
