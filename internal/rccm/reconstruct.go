package rccm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stratomet-data/cloudmask.report/internal/monitoring"
)

// Reconstructor applies a stage schedule to every camera of a stack. Cameras
// are independent, so they run concurrently up to Workers at a time; all
// determinism lives inside the per-camera pass order, so the fan-out changes
// wall time and nothing else.
type Reconstructor struct {
	Schedule     Schedule
	ScheduleName string // recorded in reports; not interpreted
	Workers      int    // max cameras in flight; <=0 means all nine at once

	// EnableDiagnostics turns on per-stage progress logging. Off in
	// production: a nine-camera run emits up to 36 stage lines.
	EnableDiagnostics bool
}

// NewReconstructor returns a reconstructor for a named schedule.
func NewReconstructor(name string) (*Reconstructor, error) {
	sched, err := ScheduleByName(name)
	if err != nil {
		return nil, err
	}
	return &Reconstructor{
		Schedule:     sched,
		ScheduleName: name,
		Workers:      NumCameras,
	}, nil
}

// ReconstructStack validates the stack, then runs the schedule on every
// camera, mutating the grids in place. Cameras with no missing cells are
// recorded as skipped and left untouched.
//
// The first camera error cancels the remaining cameras and fails the whole
// run. Grids already modified stay modified; callers that need the input back
// must keep their own copy, which is why the daemon never writes a granule
// before the run returns cleanly.
func (r *Reconstructor) ReconstructStack(ctx context.Context, stack CameraStack) (*RunReport, error) {
	if err := ValidateStack(stack); err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}
	if err := r.Schedule.Validate(); err != nil {
		return nil, fmt.Errorf("reconstruct: schedule: %w", err)
	}

	report := &RunReport{
		RunID:     uuid.New().String(),
		Schedule:  r.ScheduleName,
		StartedAt: time.Now().UTC(),
		Cameras:   make([]CameraReport, len(stack)),
	}

	workers := r.Workers
	if workers <= 0 || workers > len(stack) {
		workers = len(stack)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, workers)

	for i, g := range stack {
		wg.Add(1)
		go func(i int, g *MaskGrid) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			rep, err := r.reconstructCamera(ctx, g)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("camera %s: %w", g.Camera, err)
					cancel()
				}
				mu.Unlock()
				return
			}
			report.Cameras[i] = rep
		}(i, g)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("reconstruct: %w", firstErr)
	}

	for _, c := range report.Cameras {
		report.InitialMissing += c.InitialMissing
		report.Resolved += c.Resolved
		report.RemainingTotal += c.Remaining
	}
	report.CompletedAt = time.Now().UTC()
	return report, nil
}

// reconstructCamera runs the schedule on one grid.
func (r *Reconstructor) reconstructCamera(ctx context.Context, g *MaskGrid) (CameraReport, error) {
	rep := CameraReport{
		Camera:         g.Camera,
		InitialMissing: g.MissingCount(),
	}
	if rep.InitialMissing == 0 {
		rep.Skipped = true
		if r.EnableDiagnostics {
			monitoring.Logf("[Reconstruct] camera=%s skipped: no missing cells", g.Camera)
		}
		return rep, nil
	}

	start := time.Now()
	for si, p := range r.Schedule {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		sres, err := RunStage(g, p)
		if err != nil {
			return rep, fmt.Errorf("stage %d: %w", si+1, err)
		}
		rep.Stages = append(rep.Stages, StageReport{
			Stage:       si + 1,
			Radius:      p.Radius,
			MinEvidence: p.MinEvidence,
			Mode:        p.Mode(),
			Passes:      sres.Passes,
			Resolved:    sres.Resolved,
			Remaining:   sres.Remaining,
			Capped:      sres.Capped,
		})
		if r.EnableDiagnostics {
			monitoring.Logf("[Reconstruct] camera=%s stage=%d radius=%d min_evidence=%d mode=%s passes=%d resolved=%d remaining=%d",
				g.Camera, si+1, p.Radius, p.MinEvidence, p.Mode(), sres.Passes, sres.Resolved, sres.Remaining)
		}
	}

	rep.Remaining = g.MissingCount()
	rep.Resolved = rep.InitialMissing - rep.Remaining
	rep.DurationMicros = time.Since(start).Microseconds()
	return rep, nil
}
