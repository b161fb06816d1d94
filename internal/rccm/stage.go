package rccm

import "fmt"

// StageResult summarizes one stage's run over one grid.
type StageResult struct {
	Params    StageParams
	Passes    int  // passes executed, including the final zero-yield pass
	Resolved  int  // cells filled across all passes
	Remaining int  // missing cells left when the stage stopped
	Capped    bool // true if MaxPasses stopped the stage before its fixpoint
}

// RunStage repeats passes with fixed parameters until a pass resolves nothing.
// A pass can only shrink the missing set, so the loop provably terminates: in
// the worst case it stops after one zero-yield pass. MaxPasses is a belt and
// suspenders bound for operators who want a hard ceiling anyway; when it
// fires, remaining missing cells are left for the next stage.
func RunStage(g *MaskGrid, p StageParams) (StageResult, error) {
	res := StageResult{Params: p}
	for {
		n, err := ScanPass(g, p)
		if err != nil {
			return res, fmt.Errorf("stage pass %d: %w", res.Passes+1, err)
		}
		res.Passes++
		res.Resolved += n
		if n == 0 {
			break
		}
		if p.MaxPasses > 0 && res.Passes >= p.MaxPasses {
			res.Capped = true
			break
		}
	}
	res.Remaining = g.MissingCount()
	return res, nil
}
