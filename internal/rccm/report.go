package rccm

import "time"

// StageReport is the persisted record of one stage of one camera's
// reconstruction.
type StageReport struct {
	Stage       int    `json:"stage"` // 1-based position in the schedule
	Radius      int    `json:"radius"`
	MinEvidence int    `json:"min_evidence"`
	Mode        string `json:"mode"` // "strict" or "relaxed"
	Passes      int    `json:"passes"`
	Resolved    int    `json:"resolved"`
	Remaining   int    `json:"remaining"`
	Capped      bool   `json:"capped,omitempty"`
}

// CameraReport is the persisted record of one camera's reconstruction.
type CameraReport struct {
	Camera         string        `json:"camera"`
	InitialMissing int           `json:"initial_missing"`
	Resolved       int           `json:"resolved"`
	Remaining      int           `json:"remaining"`
	Skipped        bool          `json:"skipped,omitempty"` // true when the grid had nothing missing
	Stages         []StageReport `json:"stages,omitempty"`
	DurationMicros int64         `json:"duration_us"`
}

// RunReport is the full record of one reconstruction run over a camera stack.
// Cameras holds one entry per stack slot in stack order, including skipped
// cameras.
type RunReport struct {
	RunID          string         `json:"run_id"`
	Granule        string         `json:"granule,omitempty"` // source identifier, e.g. a file name
	Orbit          uint32         `json:"orbit,omitempty"`
	Block          int            `json:"block,omitempty"`
	Schedule       string         `json:"schedule"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    time.Time      `json:"completed_at"`
	InitialMissing int            `json:"initial_missing"`
	Resolved       int            `json:"resolved"`
	RemainingTotal int            `json:"remaining_total"`
	Cameras        []CameraReport `json:"cameras"`
}

// RemainingCounts returns the per-camera residual missing counts in stack
// order.
func (r *RunReport) RemainingCounts() []int {
	counts := make([]int, len(r.Cameras))
	for i, c := range r.Cameras {
		counts[i] = c.Remaining
	}
	return counts
}
