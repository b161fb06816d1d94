package rccm

import "fmt"

// WindowVote decides a single missing cell from the decided cells around it.
// It examines the square window of the given radius centered on (line,
// sample), clipped to the grid, and builds a histogram over the four retrieval
// categories. Missing cells and sentinels in the window contribute nothing.
//
// The vote abstains (ok=false) when fewer than p.MinEvidence category cells
// survive in the window, or, in strict mode, when the survivors disagree. In
// relaxed mode the plurality category wins; a tied plurality resolves to the
// lowest category value, which biases ties toward the cloudy side of the
// vocabulary.
//
// Calling WindowVote on a cell that is out of bounds or not missing is a
// caller bug and returns an error rather than a silent abstention.
func WindowVote(g *MaskGrid, line, sample int, p StageParams) (uint8, bool, error) {
	if err := p.Validate(); err != nil {
		return 0, false, fmt.Errorf("window vote: %w", err)
	}
	if !g.InBounds(line, sample) {
		return 0, false, fmt.Errorf("window vote at (%d,%d): outside %dx%d grid",
			line, sample, g.Lines, g.Samples)
	}
	if v := g.At(line, sample); v != CellMissing {
		return 0, false, fmt.Errorf("window vote at (%d,%d): cell is %s, not missing",
			line, sample, CellName(v))
	}

	// Clip the window to the grid. Corner and edge cells simply see a smaller
	// neighborhood; there is no wraparound and no phantom evidence.
	loLine := line - p.Radius
	if loLine < 0 {
		loLine = 0
	}
	hiLine := line + p.Radius
	if hiLine > g.Lines-1 {
		hiLine = g.Lines - 1
	}
	loSample := sample - p.Radius
	if loSample < 0 {
		loSample = 0
	}
	hiSample := sample + p.Radius
	if hiSample > g.Samples-1 {
		hiSample = g.Samples - 1
	}

	// hist[1..4] counts category cells; the center cell is missing and counts
	// for nothing, so it needs no special casing.
	var hist [5]int
	for l := loLine; l <= hiLine; l++ {
		row := l * g.Samples
		for s := loSample; s <= hiSample; s++ {
			if v := g.Cells[row+s]; IsCategory(v) {
				hist[v]++
			}
		}
	}

	total := hist[1] + hist[2] + hist[3] + hist[4]
	if total < p.MinEvidence {
		return 0, false, nil
	}

	if p.Strict {
		// Unanimity: exactly one category present among the evidence.
		var winner uint8
		for v := CellCloudHigh; v <= CellClearHigh; v++ {
			if hist[v] == 0 {
				continue
			}
			if winner != 0 {
				return 0, false, nil
			}
			winner = v
		}
		return winner, true, nil
	}

	// Plurality. Scanning categories in ascending order and replacing only on
	// a strictly greater count makes ties land on the lowest value.
	var winner uint8
	best := 0
	for v := CellCloudHigh; v <= CellClearHigh; v++ {
		if hist[v] > best {
			best = hist[v]
			winner = v
		}
	}
	return winner, true, nil
}
