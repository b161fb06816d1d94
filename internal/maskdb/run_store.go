package maskdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stratomet-data/cloudmask.report/internal/rccm"
)

// RunRecord is one reconstruction run as stored, with the full report
// attached as raw JSON.
type RunRecord struct {
	ID             int64           `json:"id"`
	RunID          string          `json:"run_id"`
	Granule        string          `json:"granule,omitempty"`
	Orbit          uint32          `json:"orbit"`
	Block          int             `json:"block"`
	Schedule       string          `json:"schedule"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	InitialMissing int             `json:"initial_missing"`
	Resolved       int             `json:"resolved"`
	RemainingTotal int             `json:"remaining_total"`
	Report         json.RawMessage `json:"report,omitempty"`
}

// RunSummary is the list-view projection of a run, without the report blob.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	Granule        string    `json:"granule,omitempty"`
	Orbit          uint32    `json:"orbit"`
	Block          int       `json:"block"`
	Schedule       string    `json:"schedule"`
	StartedAt      time.Time `json:"started_at"`
	InitialMissing int       `json:"initial_missing"`
	Resolved       int       `json:"resolved"`
	RemainingTotal int       `json:"remaining_total"`
}

// CameraResult is one camera's outcome within a run.
type CameraResult struct {
	RunID          string `json:"run_id"`
	CameraIndex    int    `json:"camera_index"`
	Camera         string `json:"camera"`
	InitialMissing int    `json:"initial_missing"`
	Resolved       int    `json:"resolved"`
	Remaining      int    `json:"remaining"`
	Skipped        bool   `json:"skipped"`
	DurationMicros int64  `json:"duration_us"`
}

// InsertRunReport stores a completed run: the run row with the report JSON
// attached, plus one row per camera.
func (mdb *MaskDB) InsertRunReport(rep *rccm.RunReport) error {
	if rep == nil {
		return fmt.Errorf("nil run report")
	}
	reportJSON, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}

	return retryOnBusy(func() error {
		tx, err := mdb.Begin()
		if err != nil {
			return fmt.Errorf("beginning run insert: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO mask_runs (
				run_id, granule, orbit, block, schedule,
				started_at, completed_at,
				initial_missing, resolved, remaining_total, report_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rep.RunID,
			nullStr(rep.Granule),
			rep.Orbit,
			rep.Block,
			rep.Schedule,
			rep.StartedAt.UTC().Format(time.RFC3339Nano),
			rep.CompletedAt.UTC().Format(time.RFC3339Nano),
			rep.InitialMissing,
			rep.Resolved,
			rep.RemainingTotal,
			string(reportJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting run %s: %w", rep.RunID, err)
		}

		for i, cam := range rep.Cameras {
			_, err = tx.Exec(`
				INSERT INTO mask_camera_reports (
					run_id, camera_index, camera,
					initial_missing, resolved, remaining, skipped, duration_us
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				rep.RunID, i, cam.Camera,
				cam.InitialMissing, cam.Resolved, cam.Remaining,
				boolToInt(cam.Skipped), cam.DurationMicros,
			)
			if err != nil {
				return fmt.Errorf("inserting camera report %s/%s: %w", rep.RunID, cam.Camera, err)
			}
		}

		return tx.Commit()
	})
}

// GetRun returns the stored run, or (nil, nil) when no such run exists.
func (mdb *MaskDB) GetRun(runID string) (*RunRecord, error) {
	row := mdb.QueryRow(`
		SELECT id, run_id, granule, orbit, block, schedule,
		       started_at, completed_at,
		       initial_missing, resolved, remaining_total, report_json
		FROM mask_runs WHERE run_id = ?`, runID)

	var rec RunRecord
	var granule, completedAt, reportJSON sql.NullString
	var startedAt string
	err := row.Scan(
		&rec.ID, &rec.RunID, &granule, &rec.Orbit, &rec.Block, &rec.Schedule,
		&startedAt, &completedAt,
		&rec.InitialMissing, &rec.Resolved, &rec.RemainingTotal, &reportJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}

	if granule.Valid {
		rec.Granule = granule.String
	}
	rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at for run %s: %w", runID, err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing completed_at for run %s: %w", runID, err)
		}
		rec.CompletedAt = &t
	}
	if reportJSON.Valid && reportJSON.String != "" {
		rec.Report = json.RawMessage(reportJSON.String)
	}
	return &rec, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 defaults
// to 20 and values above 100 are clamped.
func (mdb *MaskDB) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := mdb.Query(`
		SELECT run_id, granule, orbit, block, schedule, started_at,
		       initial_missing, resolved, remaining_total
		FROM mask_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var granule sql.NullString
		var startedAt string
		err := rows.Scan(
			&s.RunID, &granule, &s.Orbit, &s.Block, &s.Schedule, &startedAt,
			&s.InitialMissing, &s.Resolved, &s.RemainingTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run summary: %w", err)
		}
		if granule.Valid {
			s.Granule = granule.String
		}
		s.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetCameraResults returns the per-camera rows for a run in stack order.
func (mdb *MaskDB) GetCameraResults(runID string) ([]CameraResult, error) {
	rows, err := mdb.Query(`
		SELECT run_id, camera_index, camera,
		       initial_missing, resolved, remaining, skipped, duration_us
		FROM mask_camera_reports
		WHERE run_id = ?
		ORDER BY camera_index ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying camera reports for %s: %w", runID, err)
	}
	defer rows.Close()

	var out []CameraResult
	for rows.Next() {
		var c CameraResult
		var skipped int
		err := rows.Scan(
			&c.RunID, &c.CameraIndex, &c.Camera,
			&c.InitialMissing, &c.Resolved, &c.Remaining, &skipped, &c.DurationMicros,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning camera report: %w", err)
		}
		c.Skipped = skipped != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// nullStr maps "" to NULL so empty optional columns stay NULL in SQLite.
func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
