package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stratomet-data/cloudmask.report/internal/radiance"
	"github.com/stratomet-data/cloudmask.report/internal/rccm"
)

// DefaultConfigPath is the path to the canonical restore defaults file.
// This is the single source of truth for all default restore values.
const DefaultConfigPath = "config/restore.defaults.json"

// ScheduleCustom is the schedule name recorded when an explicit stage list
// replaces a named schedule.
const ScheduleCustom = "custom"

// StageConfig is one stage of the voting schedule as written in JSON.
type StageConfig struct {
	Radius      int    `json:"radius"`
	MinEvidence int    `json:"min_evidence"`
	Mode        string `json:"mode"`                 // "strict" or "relaxed"
	MaxPasses   int    `json:"max_passes,omitempty"` // 0 = run to fixpoint
}

// RestoreConfig represents the root configuration for the restore pipeline.
// Fields omitted from the JSON file fall back to the Get* defaults, so
// partial configs are safe.
type RestoreConfig struct {
	// Reconstruction params
	Schedule          *string        `json:"schedule,omitempty"` // "standard" or "legacy"
	Stages            *[]StageConfig `json:"stages,omitempty"`   // explicit stage list; overrides Schedule
	Workers           *int           `json:"workers,omitempty"`
	EnableDiagnostics *bool          `json:"enable_diagnostics,omitempty"`

	// Radiance annotation params
	EdgeMarginSamples *int     `json:"edge_margin_samples,omitempty"`
	ObscuredMax       *float64 `json:"obscured_max,omitempty"`

	// Watch loop params
	ScanInterval  *string `json:"scan_interval,omitempty"` // duration string like "30s"
	SnapshotMasks *bool   `json:"snapshot_masks,omitempty"`
	PlotOutputDir *string `json:"plot_output_dir,omitempty"` // empty disables PNG rendering
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRestoreConfig returns a RestoreConfig with all fields set to nil.
// Use LoadRestoreConfig to load actual values from the defaults file.
func EmptyRestoreConfig() *RestoreConfig {
	return &RestoreConfig{}
}

// LoadRestoreConfig loads a RestoreConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size.
func LoadRestoreConfig(path string) (*RestoreConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRestoreConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical restore defaults from
// DefaultConfigPath. It searches for the file in the current directory and
// common parent directories. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *RestoreConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/rccm/granule/
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadRestoreConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *RestoreConfig) Validate() error {
	if c.Schedule != nil {
		if _, err := rccm.ScheduleByName(*c.Schedule); err != nil {
			return err
		}
	}

	if c.Stages != nil {
		if len(*c.Stages) == 0 {
			return fmt.Errorf("stages list is empty; omit it to use a named schedule")
		}
		for i, s := range *c.Stages {
			if s.Mode != "strict" && s.Mode != "relaxed" {
				return fmt.Errorf("stage %d: mode must be \"strict\" or \"relaxed\", got %q", i+1, s.Mode)
			}
			if s.Radius < 1 {
				return fmt.Errorf("stage %d: radius must be >= 1, got %d", i+1, s.Radius)
			}
			if s.MinEvidence < 1 {
				return fmt.Errorf("stage %d: min_evidence must be >= 1, got %d", i+1, s.MinEvidence)
			}
			if s.MaxPasses < 0 {
				return fmt.Errorf("stage %d: max_passes must be non-negative, got %d", i+1, s.MaxPasses)
			}
		}
	}

	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	if c.EdgeMarginSamples != nil && *c.EdgeMarginSamples < 0 {
		return fmt.Errorf("edge_margin_samples must be non-negative, got %d", *c.EdgeMarginSamples)
	}

	if c.ObscuredMax != nil && *c.ObscuredMax <= 0 {
		return fmt.Errorf("obscured_max must be positive, got %f", *c.ObscuredMax)
	}

	if c.ScanInterval != nil && *c.ScanInterval != "" {
		d, err := time.ParseDuration(*c.ScanInterval)
		if err != nil {
			return fmt.Errorf("invalid scan_interval '%s': %w", *c.ScanInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("scan_interval must be positive, got %s", d)
		}
	}

	return nil
}

// BuildSchedule resolves the configured schedule: an explicit stage list when
// present, otherwise the named schedule. Returns the schedule and the name to
// record in reports.
func (c *RestoreConfig) BuildSchedule() (rccm.Schedule, string, error) {
	if c.Stages != nil && len(*c.Stages) > 0 {
		sched := make(rccm.Schedule, len(*c.Stages))
		for i, s := range *c.Stages {
			sched[i] = rccm.StageParams{
				Radius:      s.Radius,
				MinEvidence: s.MinEvidence,
				Strict:      s.Mode == "strict",
				MaxPasses:   s.MaxPasses,
			}
		}
		if err := sched.Validate(); err != nil {
			return nil, "", err
		}
		return sched, ScheduleCustom, nil
	}

	name := c.GetSchedule()
	sched, err := rccm.ScheduleByName(name)
	if err != nil {
		return nil, "", err
	}
	return sched, name, nil
}

// AnnotateParams returns the radiance annotation parameters with any
// configured overrides applied.
func (c *RestoreConfig) AnnotateParams() radiance.AnnotateParams {
	p := radiance.DefaultAnnotateParams()
	if c.EdgeMarginSamples != nil {
		p.EdgeMarginSamples = *c.EdgeMarginSamples
	}
	if c.ObscuredMax != nil {
		p.ObscuredMax = *c.ObscuredMax
	}
	return p
}

// GetSchedule returns the schedule name or the default.
func (c *RestoreConfig) GetSchedule() string {
	if c.Schedule == nil || *c.Schedule == "" {
		return rccm.ScheduleStandard // default
	}
	return *c.Schedule
}

// GetWorkers returns the workers value or the default.
func (c *RestoreConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return rccm.NumCameras // default: every camera in flight
	}
	return *c.Workers
}

// GetEnableDiagnostics returns the enable_diagnostics value or the default.
func (c *RestoreConfig) GetEnableDiagnostics() bool {
	if c.EnableDiagnostics == nil {
		return false // default: per-stage logging off
	}
	return *c.EnableDiagnostics
}

// GetScanInterval parses and returns the ScanInterval as a time.Duration.
func (c *RestoreConfig) GetScanInterval() time.Duration {
	if c.ScanInterval == nil || *c.ScanInterval == "" {
		return 30 * time.Second // default
	}
	d, err := time.ParseDuration(*c.ScanInterval)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}

// GetSnapshotMasks returns the snapshot_masks value or the default.
func (c *RestoreConfig) GetSnapshotMasks() bool {
	if c.SnapshotMasks == nil {
		return false // default: restored planes live in files only
	}
	return *c.SnapshotMasks
}

// GetPlotOutputDir returns the plot_output_dir value or the default.
func (c *RestoreConfig) GetPlotOutputDir() string {
	if c.PlotOutputDir == nil {
		return "" // default: PNG rendering disabled
	}
	return *c.PlotOutputDir
}
