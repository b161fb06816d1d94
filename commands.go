package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stratomet-data/cloudmask.report/internal/maskdb"
)

func printUsage() {
	fmt.Println(`cloudmask-report - RCCM cloud mask restoration service

Usage:
  cloudmask-report [flags]              Run the watch daemon and monitor UI
  cloudmask-report <command> [options]  Run a one-shot command

Commands:
  restore    Restore a single mask granule and exit
  migrate    Manage the run database schema (up/down/status/version/force/baseline)
  version    Show cloudmask-report version
  help       Show this help message

Daemon Flags:
  -listen <addr>      HTTP listen address (default ":8080")
  -db <file>          SQLite run database (default "mask_runs.db")
  -watch <dir>        Directory to scan for incoming mask granules
  -config <file>      Restore configuration JSON
  -schedule <name>    Stage schedule override (standard or legacy)
  -diagnostics        Log per-stage reconstruction progress
  -migrations <dir>   Path to migration files (default "db/migrations")

Examples:
  # Watch a landing directory and serve the monitor on :8080
  cloudmask-report -watch /data/incoming -db /var/lib/cloudmask/mask_runs.db

  # Restore one granule, recording the run
  cloudmask-report restore -in CLDMSK_O043122_B057_v2.msk -db mask_runs.db

  # Restore with the legacy capped schedule and PNG plots
  cloudmask-report restore -in CLDMSK_O043122_B057_v2.msk -schedule legacy -plots ./plots

  # Apply pending schema migrations
  cloudmask-report migrate up

For more information, see: https://github.com/stratomet-data/cloudmask.report`)
}

// handleRestore runs the pipeline once on a single mask container.
func handleRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	in := fs.String("in", "", "Path to the mask container to restore (required)")
	cfgPath := fs.String("config", "", "Path to restore configuration JSON")
	sched := fs.String("schedule", "", "Stage schedule override (standard or legacy)")
	db := fs.String("db", "", "Record the run in this SQLite database")
	snapshot := fs.Bool("snapshot", false, "Store restored camera planes in the run database")
	plots := fs.String("plots", "", "Render PNG mask plots under this directory")
	diag := fs.Bool("diagnostics", false, "Log per-stage reconstruction progress")
	fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "Error: -in flag is required. Specify the mask container to restore (e.g., -in CLDMSK_O043122_B057_v2.msk)")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := loadRestoreConfig(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load restore config: %v", err)
	}
	if *snapshot {
		cfg.SnapshotMasks = snapshot
	}
	if *plots != "" {
		cfg.PlotOutputDir = plots
	}

	rec, scheduleName, err := buildReconstructor(cfg, *sched, *diag)
	if err != nil {
		log.Fatalf("Failed to build stage schedule: %v", err)
	}

	var mdb *maskdb.MaskDB
	if *db != "" {
		mdb, err = maskdb.NewMaskDB(*db)
		if err != nil {
			log.Fatalf("Failed to connect to run database: %v", err)
		}
		defer mdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Restoring %s with schedule %q", *in, scheduleName)
	report, err := restoreGranule(ctx, rec, cfg, mdb, *in)
	if err != nil {
		log.Fatalf("Restore failed: %v", err)
	}

	fmt.Printf("Run %s completed in %s\n", report.RunID,
		report.CompletedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Printf("  granule:  %s (orbit %d, block %d)\n", report.Granule, report.Orbit, report.Block)
	fmt.Printf("  schedule: %s\n", report.Schedule)
	fmt.Printf("  cells:    %d missing, %d resolved, %d remaining\n",
		report.InitialMissing, report.Resolved, report.RemainingTotal)
	for _, cam := range report.Cameras {
		if cam.Skipped {
			fmt.Printf("  %-2s  nothing missing, skipped\n", cam.Camera)
			continue
		}
		fmt.Printf("  %-2s  %5d -> %4d remaining  (%d stages, %.1f ms)\n",
			cam.Camera, cam.InitialMissing, cam.Remaining,
			len(cam.Stages), float64(cam.DurationMicros)/1000.0)
	}
}
