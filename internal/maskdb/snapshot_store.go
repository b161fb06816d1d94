package maskdb

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/stratomet-data/cloudmask.report/internal/rccm"
)

// serializeCells gob-encodes and gzips a mask plane for blob storage. A
// restored 512x128 plane is mostly long runs of repeated categories, so the
// compressed blob is small.
func serializeCells(cells []uint8) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(cells); err != nil {
		return nil, fmt.Errorf("failed to encode mask cells: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func deserializeCells(blob []byte) ([]uint8, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty mask blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()
	var cells []uint8
	dec := gob.NewDecoder(gz)
	if err := dec.Decode(&cells); err != nil {
		return nil, fmt.Errorf("failed to decode mask cells: %w", err)
	}
	return cells, nil
}

// InsertMaskSnapshot stores a camera's restored plane under its run. A second
// insert for the same run and camera replaces the first.
func (mdb *MaskDB) InsertMaskSnapshot(runID string, g *rccm.MaskGrid) error {
	if g == nil {
		return fmt.Errorf("nil mask grid")
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("refusing to snapshot invalid grid: %w", err)
	}
	blob, err := serializeCells(g.Cells)
	if err != nil {
		return err
	}
	return retryOnBusy(func() error {
		_, err := mdb.Exec(`
			INSERT INTO mask_snapshots (run_id, camera, samples, lines, cells_blob, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (run_id, camera) DO UPDATE SET
				samples = excluded.samples,
				lines = excluded.lines,
				cells_blob = excluded.cells_blob,
				created_at = excluded.created_at`,
			runID, g.Camera, g.Samples, g.Lines, blob,
			time.Now().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("inserting snapshot %s/%s: %w", runID, g.Camera, err)
		}
		return nil
	})
}

// GetMaskSnapshot returns the stored plane for a run and camera, or
// (nil, nil) when none was recorded.
func (mdb *MaskDB) GetMaskSnapshot(runID, camera string) (*rccm.MaskGrid, error) {
	row := mdb.QueryRow(`
		SELECT samples, lines, cells_blob
		FROM mask_snapshots
		WHERE run_id = ? AND camera = ?`, runID, camera)

	var samples, lines int
	var blob []byte
	err := row.Scan(&samples, &lines, &blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot %s/%s: %w", runID, camera, err)
	}

	cells, err := deserializeCells(blob)
	if err != nil {
		return nil, err
	}
	if len(cells) != samples*lines {
		return nil, fmt.Errorf("snapshot %s/%s: %d cells for %dx%d plane", runID, camera, len(cells), samples, lines)
	}
	g := &rccm.MaskGrid{Camera: camera, Samples: samples, Lines: lines, Cells: cells}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("stored snapshot %s/%s invalid: %w", runID, camera, err)
	}
	return g, nil
}

// ListSnapshotCameras returns which cameras have snapshots for a run.
func (mdb *MaskDB) ListSnapshotCameras(runID string) ([]string, error) {
	rows, err := mdb.Query(`
		SELECT camera FROM mask_snapshots
		WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots for %s: %w", runID, err)
	}
	defer rows.Close()

	var cams []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning snapshot camera: %w", err)
		}
		cams = append(cams, c)
	}
	return cams, rows.Err()
}
