package rccm

import "fmt"

// StageParams tunes one reconstruction stage. A stage repeats passes with
// these parameters until a pass resolves nothing (or MaxPasses is hit).
type StageParams struct {
	Radius      int  // half-width of the square vote window; 1 = 3x3, 2 = 5x5
	MinEvidence int  // minimum category neighbors before a vote may resolve
	Strict      bool // true: all evidence must agree; false: plurality wins
	MaxPasses   int  // safety cap on passes per stage; 0 = run to fixpoint
}

// Mode returns the stage's vote mode as a printable string.
func (p StageParams) Mode() string {
	if p.Strict {
		return "strict"
	}
	return "relaxed"
}

// Validate rejects parameter combinations the vote cannot execute.
func (p StageParams) Validate() error {
	if p.Radius < 1 {
		return fmt.Errorf("radius %d, want >= 1", p.Radius)
	}
	if p.MinEvidence < 1 {
		return fmt.Errorf("min evidence %d, want >= 1", p.MinEvidence)
	}
	if p.MaxPasses < 0 {
		return fmt.Errorf("max passes %d, want >= 0", p.MaxPasses)
	}
	return nil
}

// Schedule is an ordered list of stages applied to one camera grid. Later
// stages see the grid as earlier stages left it.
type Schedule []StageParams

// Validate checks every stage in the schedule.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("empty schedule")
	}
	for i, p := range s {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("stage %d: %w", i+1, err)
		}
	}
	return nil
}

// Schedule names accepted by configuration.
const (
	ScheduleStandard = "standard"
	ScheduleLegacy   = "legacy"
)

// StandardSchedule returns the production four-stage schedule. The first stage
// only fills cells whose surviving 3x3 neighborhood is unanimous; the two 5x5
// stages then resolve larger dropouts by plurality at decreasing evidence
// thresholds; the last stage sweeps up stragglers next to at least three
// decided neighbors. Every stage runs to its fixpoint.
func StandardSchedule() Schedule {
	return Schedule{
		{Radius: 1, MinEvidence: 4, Strict: true},
		{Radius: 2, MinEvidence: 12, Strict: false},
		{Radius: 2, MinEvidence: 10, Strict: false},
		{Radius: 1, MinEvidence: 3, Strict: false},
	}
}

// LegacySchedule returns the superseded three-stage schedule. It lacks the
// second 5x5 stage and bounds each stage with an iteration cap instead of
// trusting the fixpoint, which left large interior regions unresolved. Kept
// selectable for reprocessing comparisons against archived products.
func LegacySchedule() Schedule {
	return Schedule{
		{Radius: 1, MinEvidence: 4, Strict: true, MaxPasses: 40},
		{Radius: 2, MinEvidence: 12, Strict: false, MaxPasses: 20},
		{Radius: 1, MinEvidence: 3, Strict: false, MaxPasses: 20},
	}
}

// ScheduleByName maps a configuration name to its schedule.
func ScheduleByName(name string) (Schedule, error) {
	switch name {
	case ScheduleStandard:
		return StandardSchedule(), nil
	case ScheduleLegacy:
		return LegacySchedule(), nil
	default:
		return nil, fmt.Errorf("unknown schedule %q (want %q or %q)",
			name, ScheduleStandard, ScheduleLegacy)
	}
}
