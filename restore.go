package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/stratomet-data/cloudmask.report/internal/config"
	"github.com/stratomet-data/cloudmask.report/internal/maskdb"
	"github.com/stratomet-data/cloudmask.report/internal/monitor"
	"github.com/stratomet-data/cloudmask.report/internal/monitoring"
	"github.com/stratomet-data/cloudmask.report/internal/radiance"
	"github.com/stratomet-data/cloudmask.report/internal/rccm"
	"github.com/stratomet-data/cloudmask.report/internal/rccm/granule"
	"github.com/stratomet-data/cloudmask.report/internal/security"
	"github.com/stratomet-data/cloudmask.report/internal/timeutil"
)

// clock drives the watch loop's scan ticker. Tests swap in a MockClock so
// scans can be stepped without real sleeps.
var clock timeutil.Clock = timeutil.RealClock{}

// restoreGranule runs the full pipeline for one mask container: load, annotate
// from the radiance sidecar when one sits next to the input, reconstruct, and
// write the restored container alongside the original. When mdb is non-nil the
// run report is recorded, and cfg decides whether restored planes are
// snapshotted and whether PNG plots are rendered.
func restoreGranule(ctx context.Context, rec *rccm.Reconstructor, cfg *config.RestoreConfig, mdb *maskdb.MaskDB, maskPath string) (*rccm.RunReport, error) {
	g, err := granule.Load(maskPath)
	if err != nil {
		return nil, err
	}

	sidecar := granule.SidecarPath(maskPath)
	if _, err := os.Stat(sidecar); err == nil {
		rs, err := granule.LoadRadianceSet(sidecar)
		if err != nil {
			return nil, err
		}
		results, err := radiance.AnnotateStack(g.Masks, rs.Planes, cfg.AnnotateParams())
		if err != nil {
			return nil, fmt.Errorf("annotate %s: %w", filepath.Base(maskPath), err)
		}
		for _, res := range results {
			if res.Edge+res.Obscured+res.Fill > 0 {
				monitoring.Logf("[Restore] camera=%s annotated edge=%d obscured=%d fill=%d",
					res.Camera, res.Edge, res.Obscured, res.Fill)
			}
		}
	}

	report, err := rec.ReconstructStack(ctx, g.Masks)
	if err != nil {
		return nil, fmt.Errorf("reconstruct %s: %w", filepath.Base(maskPath), err)
	}
	report.Granule = filepath.Base(maskPath)
	report.Orbit = g.Orbit
	report.Block = int(g.Block)

	outPath := granule.RestoredFileName(maskPath)
	if err := g.Save(outPath); err != nil {
		return nil, err
	}
	monitoring.Logf("[Restore] granule=%s run=%s missing=%d resolved=%d remaining=%d out=%s",
		report.Granule, report.RunID, report.InitialMissing, report.Resolved,
		report.RemainingTotal, filepath.Base(outPath))

	if mdb != nil {
		if err := mdb.InsertRunReport(report); err != nil {
			return nil, fmt.Errorf("record run %s: %w", report.RunID, err)
		}
		if cfg.GetSnapshotMasks() {
			for _, grid := range g.Masks {
				if err := mdb.InsertMaskSnapshot(report.RunID, grid); err != nil {
					return nil, fmt.Errorf("snapshot camera %s: %w", grid.Camera, err)
				}
			}
		}
	}

	// Plot output is best effort; the restored granule is already on disk.
	// The granule file name came off the landing directory, so the derived
	// plot directory is checked for containment before anything is written.
	if base := cfg.GetPlotOutputDir(); base != "" {
		plotDir := monitor.MakePlotOutputDir(base, maskPath)
		if err := os.MkdirAll(base, 0755); err != nil {
			log.Printf("Failed to create plot base dir %s: %v", base, err)
		} else if err := security.ValidatePathWithinDirectory(plotDir, base); err != nil {
			log.Printf("Refusing plot dir for %s: %v", report.Granule, err)
		} else if n, err := monitor.SaveStackPlots(g.Masks, plotDir); err != nil {
			log.Printf("Failed to render mask plots for %s: %v", report.Granule, err)
		} else {
			log.Printf("Rendered %d mask plots to %s", n, plotDir)
		}
	}

	return report, nil
}

// watchLoop scans dir for mask containers without a restored counterpart and
// runs each through the pipeline. A file that fails stays unrestored and is
// retried on the next scan, so transient errors (partial uploads, a sidecar
// still being written) heal on their own.
func watchLoop(ctx context.Context, rec *rccm.Reconstructor, cfg *config.RestoreConfig, mdb *maskdb.MaskDB, dir string) {
	interval := cfg.GetScanInterval()
	log.Printf("Watching %s for mask granules (every %s)", dir, interval)

	scan := func() {
		pending, err := granule.ScanDir(dir)
		if err != nil {
			log.Printf("Granule scan failed: %v", err)
			return
		}
		for _, path := range pending {
			if ctx.Err() != nil {
				return
			}
			if _, err := restoreGranule(ctx, rec, cfg, mdb, path); err != nil {
				log.Printf("Restore of %s failed: %v", filepath.Base(path), err)
			}
		}
	}

	scan()
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			scan()
		}
	}
}
