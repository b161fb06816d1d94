package rccm

import (
	"math"
	"testing"
)

func TestGridStatsCensus(t *testing.T) {
	g := NewMaskGrid("Cf", 4, 2)
	g.Cells = []uint8{
		CellMissing, CellCloudHigh, CellCloudLow, CellCloudLow,
		CellClearLow, CellClearHigh, CellEdge, CellFill,
	}
	s := g.Stats()
	if s.Missing != 1 || s.CloudHigh != 1 || s.CloudLow != 2 ||
		s.ClearLow != 1 || s.ClearHigh != 1 || s.Edge != 1 || s.Fill != 1 {
		t.Fatalf("census wrong: %+v", s)
	}
	if s.Decided() != 5 {
		t.Fatalf("Decided=%d want 5", s.Decided())
	}
	// cloud fraction over decided cells: (1+2)/5
	if math.Abs(s.CloudFraction-0.6) > 1e-12 {
		t.Fatalf("CloudFraction=%v want 0.6", s.CloudFraction)
	}
	// decided fraction over retrieval area: 5/6
	if math.Abs(s.DecidedFraction-5.0/6.0) > 1e-12 {
		t.Fatalf("DecidedFraction=%v want 5/6", s.DecidedFraction)
	}
}

func TestSummarizeStackMoments(t *testing.T) {
	a := NewMaskGrid("Af", 4, 1)
	a.Cells = []uint8{CellCloudHigh, CellCloudHigh, CellClearHigh, CellClearHigh} // fraction 0.5
	b := NewMaskGrid("An", 4, 1)
	b.Cells = []uint8{CellCloudHigh, CellCloudHigh, CellCloudHigh, CellClearHigh} // fraction 0.75
	empty := NewMaskGrid("Aa", 4, 1)
	empty.Fill(CellFill) // no decided cells; excluded from moments

	ss := SummarizeStack(CameraStack{a, b, empty})
	if len(ss.Cameras) != 3 {
		t.Fatalf("expected 3 camera entries, got %d", len(ss.Cameras))
	}
	if math.Abs(ss.CloudFractionMean-0.625) > 1e-12 {
		t.Fatalf("mean=%v want 0.625", ss.CloudFractionMean)
	}
	// sample stddev of {0.5, 0.75}
	want := math.Sqrt((math.Pow(0.5-0.625, 2) + math.Pow(0.75-0.625, 2)) / 1.0)
	if math.Abs(ss.CloudFractionStd-want) > 1e-12 {
		t.Fatalf("std=%v want %v", ss.CloudFractionStd, want)
	}
}

func TestSummarizeStackCountsMissing(t *testing.T) {
	a := NewMaskGrid("Df", 3, 1)
	a.Cells = []uint8{CellMissing, CellMissing, CellCloudLow}
	b := NewMaskGrid("Da", 3, 1)
	b.Cells = []uint8{CellMissing, CellClearLow, CellClearLow}
	ss := SummarizeStack(CameraStack{a, b})
	if ss.MissingTotal != 3 {
		t.Fatalf("MissingTotal=%d want 3", ss.MissingTotal)
	}
}
