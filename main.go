package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/stratomet-data/cloudmask.report/internal/config"
	"github.com/stratomet-data/cloudmask.report/internal/maskdb"
	"github.com/stratomet-data/cloudmask.report/internal/monitor"
	"github.com/stratomet-data/cloudmask.report/internal/rccm"
	"github.com/stratomet-data/cloudmask.report/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "HTTP listen address")
	dbFile      = flag.String("db", "mask_runs.db", "Path to the SQLite run database file")
	watchDir    = flag.String("watch", "", "Directory to scan for incoming mask granules")
	configFile  = flag.String("config", "", "Path to restore configuration JSON")
	schedName   = flag.String("schedule", "", "Stage schedule override (standard or legacy)")
	diagnostics = flag.Bool("diagnostics", false, "Log per-stage reconstruction progress")
	migrations  = flag.String("migrations", "db/migrations", "Path to migration files")
)

// Main
func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() > 0 {
		command := flag.Arg(0)
		args := flag.Args()[1:]

		switch command {
		case "restore":
			handleRestore(args)
		case "migrate":
			maskdb.RunMigrateCommand(args, *dbFile, *migrations)
		case "version":
			fmt.Printf("cloudmask-report version %s\n", version.String())
		case "help":
			printUsage()
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
			printUsage()
			os.Exit(1)
		}
		return
	}

	runDaemon()
}

// loadRestoreConfig loads the configuration file, or returns an empty config
// (all defaults) when no path is given.
func loadRestoreConfig(path string) (*config.RestoreConfig, error) {
	if path == "" {
		return config.EmptyRestoreConfig(), nil
	}
	return config.LoadRestoreConfig(path)
}

// buildReconstructor assembles the engine from config plus command-line
// overrides. The returned name is the one recorded in run reports.
func buildReconstructor(cfg *config.RestoreConfig, scheduleOverride string, diag bool) (*rccm.Reconstructor, string, error) {
	var (
		sched rccm.Schedule
		name  string
		err   error
	)
	if scheduleOverride != "" {
		sched, err = rccm.ScheduleByName(scheduleOverride)
		name = scheduleOverride
	} else {
		sched, name, err = cfg.BuildSchedule()
	}
	if err != nil {
		return nil, "", err
	}

	return &rccm.Reconstructor{
		Schedule:          sched,
		ScheduleName:      name,
		Workers:           cfg.GetWorkers(),
		EnableDiagnostics: diag || cfg.GetEnableDiagnostics(),
	}, name, nil
}

// runDaemon is the default mode: watch a directory for incoming granules,
// restore them, and serve the monitor.
func runDaemon() {
	if *listen == "" {
		log.Fatal("HTTP listen address is required")
	}

	cfg, err := loadRestoreConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load restore config: %v", err)
	}

	rec, scheduleName, err := buildReconstructor(cfg, *schedName, *diagnostics)
	if err != nil {
		log.Fatalf("Failed to build stage schedule: %v", err)
	}
	log.Printf("Using stage schedule %q (%d stages, %d workers)", scheduleName, len(rec.Schedule), rec.Workers)

	// Initialize database
	mdb, err := maskdb.NewMaskDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to run database: %v", err)
	}
	defer mdb.Close()

	// A missing migrations directory downgrades the check to a warning so a
	// bare binary can still run against a fresh database.
	if outdated, err := mdb.CheckAndPromptMigrations(*migrations); outdated {
		if err != nil {
			log.Fatalf("Database schema check failed: %v", err)
		}
		log.Fatal("Database schema is outdated; run 'cloudmask-report migrate up' first")
	} else if err != nil {
		log.Printf("Migration check skipped: %v", err)
	}

	// Create a wait group for the watch loop and HTTP server routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *watchDir != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			watchLoop(ctx, rec, cfg, mdb, *watchDir)
			log.Print("watch routine terminated")
		}()
	} else {
		log.Println("Granule watch disabled (use -watch to enable)")
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address:      *listen,
			DB:           mdb,
			WatchDir:     *watchDir,
			ScheduleName: scheduleName,
			ScanInterval: cfg.GetScanInterval(),
		})

		// mount the admin debugging routes (accessible over Tailscale)
		mdb.AttachAdminRoutes(ws.Mux())

		if err := ws.Start(ctx); err != nil {
			log.Printf("web server error: %v", err)
		}
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
