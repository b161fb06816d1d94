// Package monitor exposes the restore daemon's HTTP surface: health and
// status, a JSON API over stored reconstruction runs, and debugging charts
// rendered server side so nothing beyond a browser is needed in the field.
package monitor

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stratomet-data/cloudmask.report/internal/httputil"
	"github.com/stratomet-data/cloudmask.report/internal/maskdb"
	"github.com/stratomet-data/cloudmask.report/internal/version"
)

//go:embed status.html
var StatusHTML embed.FS

// WebServer handles the HTTP interface for monitoring mask reconstruction.
// It provides endpoints for health checks, run history, and debug charts.
type WebServer struct {
	address      string
	db           *maskdb.MaskDB
	watchDir     string
	scheduleName string
	scanInterval time.Duration
	startTime    time.Time
	mux          *http.ServeMux
	server       *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address      string
	DB           *maskdb.MaskDB
	WatchDir     string
	ScheduleName string
	ScanInterval time.Duration
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:      config.Address,
		db:           config.DB,
		watchDir:     config.WatchDir,
		scheduleName: config.ScheduleName,
		scanInterval: config.ScanInterval,
		startTime:    time.Now(),
	}

	ws.mux = ws.setupRoutes()
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.mux,
	}

	return ws
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/api/runs", ws.handleListRuns)
	mux.HandleFunc("/api/runs/", ws.handleRunDetail)
	mux.HandleFunc("/api/snapshots", ws.handleSnapshotSummary)
	mux.HandleFunc("/debug/charts/runs", ws.handleRunsChart)
	mux.HandleFunc("/debug/charts/run", ws.handleRunDetailChart)
	mux.HandleFunc("/debug/charts/residual", ws.handleResidualChart)

	return mux
}

// Mux returns the configured routes for mounting additional handlers before
// the server starts.
func (ws *WebServer) Mux() *http.ServeMux {
	return ws.mux
}

// handleHealth handles the health check endpoint.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "cloudmask", "version": %q, "timestamp": "%s"}`,
		version.String(), time.Now().UTC().Format(time.RFC3339))
}

// handleStatus handles the main status page endpoint.
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	watchStatus := "disabled"
	if ws.watchDir != "" {
		watchStatus = fmt.Sprintf("%s (every %s)", ws.watchDir, ws.scanInterval)
	}

	var lastRun *maskdb.RunSummary
	runCount := 0
	if ws.db != nil {
		if runs, err := ws.db.ListRuns(1); err == nil && len(runs) > 0 {
			lastRun = &runs[0]
		}
		// Count is informational; ignore errors and show zero.
		ws.db.QueryRow("SELECT COUNT(*) FROM mask_runs").Scan(&runCount)
	}

	tmpl, err := template.ParseFS(StatusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		HTTPAddress string
		Version     string
		Schedule    string
		WatchStatus string
		Uptime      string
		RunCount    int
		LastRun     *maskdb.RunSummary
	}{
		HTTPAddress: ws.address,
		Version:     version.String(),
		Schedule:    ws.scheduleName,
		WatchStatus: watchStatus,
		Uptime:      time.Since(ws.startTime).Round(time.Second).String(),
		RunCount:    runCount,
		LastRun:     lastRun,
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// handleListRuns returns recent reconstruction runs as JSON.
// Query params:
//
//	limit (optional, default 20, max 100)
func (ws *WebServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured")
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	runs, err := ws.db.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []maskdb.RunSummary{}
	}
	httputil.WriteJSONOK(w, runs)
}

// handleRunDetail returns one run with its per-camera rows.
// Path: /api/runs/{run_id}
func (ws *WebServer) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured")
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		httputil.BadRequest(w, "missing run id")
		return
	}

	run, err := ws.db.GetRun(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to get run: %v", err))
		return
	}
	if run == nil {
		httputil.NotFound(w, "no such run")
		return
	}

	cameras, err := ws.db.GetCameraResults(runID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to get camera reports: %v", err))
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"run":     run,
		"cameras": cameras,
	})
}

// handleSnapshotSummary summarizes a stored mask snapshot: the category census
// of the plane as persisted after the run.
// Query params:
//
//	run_id (required)
//	camera (optional; omitted lists the cameras with snapshots)
func (ws *WebServer) handleSnapshotSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.db == nil {
		httputil.InternalServerError(w, "no database configured for snapshot lookup")
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "missing 'run_id' parameter")
		return
	}

	camera := r.URL.Query().Get("camera")
	if camera == "" {
		cams, err := ws.db.ListSnapshotCameras(runID)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("list snapshots: %v", err))
			return
		}
		httputil.WriteJSONOK(w, map[string]interface{}{
			"run_id":  runID,
			"cameras": cams,
		})
		return
	}

	g, err := ws.db.GetMaskSnapshot(runID, camera)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("get snapshot: %v", err))
		return
	}
	if g == nil {
		httputil.NotFound(w, "no snapshot found for run and camera")
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"run_id":  runID,
		"camera":  g.Camera,
		"samples": g.Samples,
		"lines":   g.Lines,
		"stats":   g.Stats(),
	})
}

// Close shuts down the web server.
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}
