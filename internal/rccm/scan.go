package rccm

import "fmt"

// ScanPass runs one reconstruction pass over a grid: it snapshots the missing
// cells, then votes each one in ascending flat-index order (line-major),
// writing every decision into the grid immediately. Cells filled early in the
// pass are therefore evidence for cells voted later in the same pass. Cells
// that become missing-adjacent only through this pass's writes still wait for
// the next pass, because the vote list was frozen before the first write.
//
// Returns the number of cells resolved. The scan order is part of the
// product contract: reruns over identical input must produce identical bytes,
// so the order must never depend on map iteration or goroutine timing.
func ScanPass(g *MaskGrid, p StageParams) (int, error) {
	missing := g.MissingCells()
	resolved := 0
	for _, idx := range missing {
		line := idx / g.Samples
		sample := idx % g.Samples
		v, ok, err := WindowVote(g, line, sample, p)
		if err != nil {
			return resolved, fmt.Errorf("pass: %w", err)
		}
		if !ok {
			continue
		}
		g.Cells[idx] = v
		resolved++
	}
	return resolved, nil
}
