package maskdb

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratomet-data/cloudmask.report/internal/rccm"
)

func newTestDB(t *testing.T) *MaskDB {
	t.Helper()
	mdb, err := NewMaskDB(filepath.Join(t.TempDir(), "mask_test.db"))
	if err != nil {
		t.Fatalf("NewMaskDB: %v", err)
	}
	t.Cleanup(func() { mdb.Close() })
	return mdb
}

func sampleReport(runID string, started time.Time) *rccm.RunReport {
	return &rccm.RunReport{
		RunID:          runID,
		Granule:        "CLDMSK_O012345_B042_v1.msk",
		Orbit:          12345,
		Block:          42,
		Schedule:       rccm.ScheduleStandard,
		StartedAt:      started,
		CompletedAt:    started.Add(90 * time.Millisecond),
		InitialMissing: 120,
		Resolved:       117,
		RemainingTotal: 3,
		Cameras: []rccm.CameraReport{
			{
				Camera: "Df", InitialMissing: 60, Resolved: 60, Remaining: 0,
				DurationMicros: 1800,
				Stages: []rccm.StageReport{
					{Stage: 1, Radius: 1, MinEvidence: 4, Mode: "strict", Passes: 2, Resolved: 60},
				},
			},
			{Camera: "Cf", Skipped: true},
			{Camera: "Bf", InitialMissing: 60, Resolved: 57, Remaining: 3, DurationMicros: 2100},
		},
	}
}

func TestInsertAndGetRun(t *testing.T) {
	mdb := newTestDB(t)
	started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	rep := sampleReport("run-abc", started)

	if err := mdb.InsertRunReport(rep); err != nil {
		t.Fatalf("InsertRunReport: %v", err)
	}

	rec, err := mdb.GetRun("run-abc")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if rec == nil {
		t.Fatal("GetRun returned nil for stored run")
	}
	if rec.RunID != "run-abc" {
		t.Errorf("RunID = %q, want run-abc", rec.RunID)
	}
	if rec.Granule != rep.Granule {
		t.Errorf("Granule = %q, want %q", rec.Granule, rep.Granule)
	}
	if rec.Orbit != 12345 || rec.Block != 42 {
		t.Errorf("orbit/block = %d/%d, want 12345/42", rec.Orbit, rec.Block)
	}
	if rec.Schedule != rccm.ScheduleStandard {
		t.Errorf("Schedule = %q, want %q", rec.Schedule, rccm.ScheduleStandard)
	}
	if !rec.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", rec.StartedAt, started)
	}
	if rec.CompletedAt == nil || !rec.CompletedAt.Equal(rep.CompletedAt) {
		t.Errorf("CompletedAt = %v, want %v", rec.CompletedAt, rep.CompletedAt)
	}
	if rec.InitialMissing != 120 || rec.Resolved != 117 || rec.RemainingTotal != 3 {
		t.Errorf("counts = %d/%d/%d, want 120/117/3",
			rec.InitialMissing, rec.Resolved, rec.RemainingTotal)
	}

	var stored rccm.RunReport
	if err := json.Unmarshal(rec.Report, &stored); err != nil {
		t.Fatalf("unmarshal stored report: %v", err)
	}
	if stored.RunID != rep.RunID || len(stored.Cameras) != 3 {
		t.Errorf("stored report has run %q with %d cameras, want %q with 3",
			stored.RunID, len(stored.Cameras), rep.RunID)
	}
	if len(stored.Cameras[0].Stages) != 1 || stored.Cameras[0].Stages[0].Mode != "strict" {
		t.Error("stage detail lost in stored report")
	}
}

func TestGetRunMissing(t *testing.T) {
	mdb := newTestDB(t)
	rec, err := mdb.GetRun("no-such-run")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if rec != nil {
		t.Errorf("GetRun returned %+v for absent run, want nil", rec)
	}
}

func TestInsertDuplicateRunFails(t *testing.T) {
	mdb := newTestDB(t)
	rep := sampleReport("run-dup", time.Now().UTC())
	if err := mdb.InsertRunReport(rep); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := mdb.InsertRunReport(rep); err == nil {
		t.Error("second insert of same run_id succeeded, want unique violation")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	mdb := newTestDB(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rep := sampleReport("run-"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		if err := mdb.InsertRunReport(rep); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	runs, err := mdb.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[0].RunID != "run-c" || runs[2].RunID != "run-a" {
		t.Errorf("order = %s, %s, %s; want newest first", runs[0].RunID, runs[1].RunID, runs[2].RunID)
	}

	runs, err = mdb.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns(2): %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs with limit 2, want 2", len(runs))
	}
}

func TestGetCameraResultsStackOrder(t *testing.T) {
	mdb := newTestDB(t)
	rep := sampleReport("run-cams", time.Now().UTC())
	if err := mdb.InsertRunReport(rep); err != nil {
		t.Fatalf("InsertRunReport: %v", err)
	}

	cams, err := mdb.GetCameraResults("run-cams")
	if err != nil {
		t.Fatalf("GetCameraResults: %v", err)
	}
	if len(cams) != 3 {
		t.Fatalf("got %d camera rows, want 3", len(cams))
	}
	for i, want := range []string{"Df", "Cf", "Bf"} {
		if cams[i].Camera != want || cams[i].CameraIndex != i {
			t.Errorf("row %d = %s (index %d), want %s (index %d)",
				i, cams[i].Camera, cams[i].CameraIndex, want, i)
		}
	}
	if !cams[1].Skipped {
		t.Error("Cf row lost its skipped flag")
	}
	if cams[2].Remaining != 3 {
		t.Errorf("Bf remaining = %d, want 3", cams[2].Remaining)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	mdb := newTestDB(t)
	rep := sampleReport("run-snap", time.Now().UTC())
	require.NoError(t, mdb.InsertRunReport(rep))

	g := rccm.NewStandardGrid("An")
	g.Fill(rccm.CellClearHigh)
	g.Set(3, 7, rccm.CellCloudLow)
	g.Set(100, 400, rccm.CellObscured)

	require.NoError(t, mdb.InsertMaskSnapshot("run-snap", g))

	got, err := mdb.GetMaskSnapshot("run-snap", "An")
	require.NoError(t, err)
	require.NotNil(t, got, "stored snapshot not found")
	assert.Equal(t, "An", got.Camera)
	assert.Equal(t, rccm.GridSamples, got.Samples)
	assert.Equal(t, rccm.GridLines, got.Lines)
	assert.True(t, bytes.Equal(got.Cells, g.Cells), "snapshot cells differ after round trip")

	// Upsert replaces the stored plane.
	g.Set(3, 7, rccm.CellCloudHigh)
	require.NoError(t, mdb.InsertMaskSnapshot("run-snap", g))
	got, err = mdb.GetMaskSnapshot("run-snap", "An")
	require.NoError(t, err)
	assert.Equal(t, rccm.CellCloudHigh, got.At(3, 7), "upsert did not replace the plane")

	missing, err := mdb.GetMaskSnapshot("run-snap", "Da")
	require.NoError(t, err)
	assert.Nil(t, missing, "got snapshot for camera that was never stored")

	cams, err := mdb.ListSnapshotCameras("run-snap")
	require.NoError(t, err)
	assert.Equal(t, []string{"An"}, cams)
}

func TestSerializeCellsRoundTrip(t *testing.T) {
	_, err := deserializeCells(nil)
	assert.Error(t, err, "deserializeCells accepted empty blob")

	blob, err := serializeCells([]uint8{1, 2, 3, 4})
	require.NoError(t, err)
	cells, err := deserializeCells(blob)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3, 4}, cells)
}
