package rccm

import (
	"testing"
)

// helper to build a small grid prefilled with a single value
func makeVoteGrid(samples, lines int, fill uint8) *MaskGrid {
	g := NewMaskGrid("An", samples, lines)
	g.Fill(fill)
	return g
}

func TestWindowVote_StrictUnanimousResolves(t *testing.T) {
	g := makeVoteGrid(3, 3, CellFill)
	g.Set(1, 1, CellMissing)
	// exactly four unanimous neighbors, the rest fill
	g.Set(0, 1, CellCloudLow)
	g.Set(1, 0, CellCloudLow)
	g.Set(1, 2, CellCloudLow)
	g.Set(2, 1, CellCloudLow)

	v, ok, err := WindowVote(g, 1, 1, StageParams{Radius: 1, MinEvidence: 4, Strict: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != CellCloudLow {
		t.Fatalf("expected unanimous vote to resolve to cloud_low, got v=%d ok=%v", v, ok)
	}
}

func TestWindowVote_StrictBelowThresholdAbstains(t *testing.T) {
	g := makeVoteGrid(3, 3, CellFill)
	g.Set(1, 1, CellMissing)
	// three unanimous neighbors is one short of the threshold
	g.Set(0, 1, CellCloudLow)
	g.Set(1, 0, CellCloudLow)
	g.Set(1, 2, CellCloudLow)

	_, ok, err := WindowVote(g, 1, 1, StageParams{Radius: 1, MinEvidence: 4, Strict: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected abstention below evidence threshold")
	}
}

func TestWindowVote_StrictDisagreementAbstains(t *testing.T) {
	g := makeVoteGrid(3, 3, CellFill)
	g.Set(1, 1, CellMissing)
	g.Set(0, 1, CellCloudLow)
	g.Set(1, 0, CellCloudLow)
	g.Set(1, 2, CellCloudLow)
	g.Set(2, 1, CellClearLow) // one dissenter

	_, ok, err := WindowVote(g, 1, 1, StageParams{Radius: 1, MinEvidence: 4, Strict: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected strict mode to abstain on mixed evidence")
	}
}

func TestWindowVote_RelaxedPluralityWins(t *testing.T) {
	g := makeVoteGrid(3, 3, CellFill)
	g.Set(1, 1, CellMissing)
	g.Set(0, 0, CellClearHigh)
	g.Set(0, 1, CellClearHigh)
	g.Set(0, 2, CellClearHigh)
	g.Set(1, 0, CellCloudLow)
	g.Set(1, 2, CellCloudLow)

	v, ok, err := WindowVote(g, 1, 1, StageParams{Radius: 1, MinEvidence: 3, Strict: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != CellClearHigh {
		t.Fatalf("expected plurality clear_high, got v=%d ok=%v", v, ok)
	}
}

func TestWindowVote_RelaxedTieFavorsLowestCategory(t *testing.T) {
	g := makeVoteGrid(3, 3, CellFill)
	g.Set(1, 1, CellMissing)
	// two cloud_low vs two clear_low
	g.Set(0, 0, CellCloudLow)
	g.Set(0, 1, CellCloudLow)
	g.Set(2, 1, CellClearLow)
	g.Set(2, 2, CellClearLow)

	v, ok, err := WindowVote(g, 1, 1, StageParams{Radius: 1, MinEvidence: 4, Strict: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != CellCloudLow {
		t.Fatalf("expected tie to break toward cloud_low, got v=%d ok=%v", v, ok)
	}

	// same tie between the two high-confidence categories
	g2 := makeVoteGrid(3, 3, CellFill)
	g2.Set(1, 1, CellMissing)
	g2.Set(0, 0, CellCloudHigh)
	g2.Set(0, 1, CellCloudHigh)
	g2.Set(2, 1, CellClearHigh)
	g2.Set(2, 2, CellClearHigh)

	v, ok, err = WindowVote(g2, 1, 1, StageParams{Radius: 1, MinEvidence: 4, Strict: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != CellCloudHigh {
		t.Fatalf("expected tie to break toward cloud_high, got v=%d ok=%v", v, ok)
	}
}

func TestWindowVote_SentinelsAndMissingAreNotEvidence(t *testing.T) {
	g := makeVoteGrid(3, 3, CellMissing)
	g.Set(0, 0, CellObscured)
	g.Set(0, 1, CellEdge)
	g.Set(0, 2, CellFill)
	g.Set(1, 0, CellObscured)
	g.Set(1, 2, CellFill)
	g.Set(2, 0, CellEdge)

	// eight neighbors, none of them a category; even threshold 1 must abstain
	_, ok, err := WindowVote(g, 1, 1, StageParams{Radius: 1, MinEvidence: 1, Strict: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("sentinel and missing neighbors must not count as evidence")
	}
}

// A radius-2 vote at the grid origin must see only the clipped 3x3 quadrant,
// with no wraparound to the far edge.
func TestWindowVote_CornerWindowClips(t *testing.T) {
	g := makeVoteGrid(5, 5, CellFill)
	g.Set(0, 0, CellMissing)
	// the clipped window is lines 0..2, samples 0..2: five clear_low and
	// three cloud_high around the target
	g.Set(0, 1, CellClearLow)
	g.Set(0, 2, CellClearLow)
	g.Set(1, 0, CellClearLow)
	g.Set(1, 1, CellClearLow)
	g.Set(1, 2, CellClearLow)
	g.Set(2, 0, CellCloudHigh)
	g.Set(2, 1, CellCloudHigh)
	g.Set(2, 2, CellCloudHigh)
	// stack the far column with cloud_high; wraparound would flip the winner
	for line := 0; line < 5; line++ {
		g.Set(line, 4, CellCloudHigh)
	}

	v, ok, err := WindowVote(g, 0, 0, StageParams{Radius: 2, MinEvidence: 8, Strict: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != CellClearLow {
		t.Fatalf("expected clipped window to elect clear_low, got v=%d ok=%v", v, ok)
	}
}

func TestWindowVote_TargetContractViolations(t *testing.T) {
	g := makeVoteGrid(3, 3, CellFill)
	p := StageParams{Radius: 1, MinEvidence: 1}

	if _, _, err := WindowVote(g, -1, 0, p); err == nil {
		t.Fatalf("expected error for out-of-bounds target")
	}
	if _, _, err := WindowVote(g, 1, 1, p); err == nil {
		t.Fatalf("expected error for non-missing target")
	}
	g.Set(1, 1, CellMissing)
	if _, _, err := WindowVote(g, 1, 1, StageParams{Radius: 0, MinEvidence: 1}); err == nil {
		t.Fatalf("expected error for radius below 1")
	}
}
