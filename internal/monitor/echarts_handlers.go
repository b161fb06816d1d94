package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/stratomet-data/cloudmask.report/internal/httputil"
	"github.com/stratomet-data/cloudmask.report/internal/rccm"
)

// echartsAssetsPrefix points chart pages at the public echarts asset mirror so
// the daemon serves no JS of its own.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleRunsChart renders a bar chart of recent runs: resolved vs remaining
// cells per run. This is a debugging-only endpoint (no auth) for a quick look
// at reconstruction yield without the JSON API.
// Query params:
//   - limit (optional; default 20)
func (ws *WebServer) handleRunsChart(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		httputil.ServiceUnavailable(w, "run DB not configured")
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := ws.db.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if len(runs) == 0 {
		httputil.NotFound(w, "no runs recorded yet")
		return
	}

	// Oldest first so the chart reads left to right in time.
	x := make([]string, 0, len(runs))
	resolved := make([]opts.BarData, 0, len(runs))
	remaining := make([]opts.BarData, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		x = append(x, fmt.Sprintf("O%06d/B%03d", run.Orbit, run.Block))
		resolved = append(resolved, opts.BarData{Value: run.Resolved})
		remaining = append(remaining, opts.BarData{Value: run.RemainingTotal})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Reconstruction Yield", Subtitle: fmt.Sprintf("last %d runs", len(runs))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("resolved", resolved).
		AddSeries("remaining", remaining,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleRunDetailChart renders one run: a per-camera bar of resolved vs
// remaining cells, plus a line chart of per-stage yield for each camera
// pulled from the stored report.
// Query params:
//   - run_id (required)
func (ws *WebServer) handleRunDetailChart(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		httputil.ServiceUnavailable(w, "run DB not configured")
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "missing 'run_id' parameter")
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

	var rep rccm.RunReport
	if err := json.Unmarshal(run.Report, &rep); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("decode stored report: %v", err))
		return
	}

	cams := make([]string, 0, len(rep.Cameras))
	resolved := make([]opts.BarData, 0, len(rep.Cameras))
	remaining := make([]opts.BarData, 0, len(rep.Cameras))
	maxStages := 0
	for _, c := range rep.Cameras {
		cams = append(cams, c.Camera)
		resolved = append(resolved, opts.BarData{Value: c.Resolved})
		remaining = append(remaining, opts.BarData{Value: c.Remaining})
		if len(c.Stages) > maxStages {
			maxStages = len(c.Stages)
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Per-Camera Yield", Subtitle: fmt.Sprintf("run=%s schedule=%s", rep.RunID, rep.Schedule)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(cams).
		AddSeries("resolved", resolved).
		AddSeries("remaining", remaining)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(bar)

	if maxStages > 0 {
		stages := make([]string, maxStages)
		for i := range stages {
			stages[i] = fmt.Sprintf("stage %d", i+1)
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: echartsAssetsPrefix}),
			charts.WithTitleOpts(opts.Title{Title: "Per-Stage Yield", Subtitle: "cells resolved by each stage"}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		)
		line.SetXAxis(stages)
		for _, c := range rep.Cameras {
			if c.Skipped || len(c.Stages) == 0 {
				continue
			}
			pts := make([]opts.LineData, len(c.Stages))
			for i, s := range c.Stages {
				pts[i] = opts.LineData{Value: s.Resolved}
			}
			line.AddSeries(c.Camera, pts)
		}
		page.AddCharts(line)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleResidualChart renders a stored snapshot plane as a scatter: cells
// still missing after the run in red over the sentinel outline in grey, so
// residual dropouts can be eyeballed against the swath geometry.
// Query params:
//   - run_id (required)
//   - camera (required)
//   - max_points (optional; default 8000) to reduce payload size
func (ws *WebServer) handleResidualChart(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		httputil.ServiceUnavailable(w, "run DB not configured")
		return
	}

	runID := r.URL.Query().Get("run_id")
	camera := r.URL.Query().Get("camera")
	if runID == "" || camera == "" {
		httputil.BadRequest(w, "missing 'run_id' or 'camera' parameter")
		return
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
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

	var missingPts, sentinelPts []opts.ScatterData
	sentinelTotal := 0
	for line := 0; line < g.Lines; line++ {
		for sample := 0; sample < g.Samples; sample++ {
			switch v := g.At(line, sample); {
			case v == rccm.CellMissing:
				missingPts = append(missingPts, opts.ScatterData{Value: []interface{}{sample, line}})
			case rccm.IsPermanent(v):
				sentinelTotal++
			}
		}
	}

	// Downsample the sentinel outline by stride to stay within maxPoints.
	stride := 1
	if sentinelTotal > maxPoints {
		stride = (sentinelTotal + maxPoints - 1) / maxPoints
	}
	n := 0
	for line := 0; line < g.Lines; line++ {
		for sample := 0; sample < g.Samples; sample++ {
			if !rccm.IsPermanent(g.At(line, sample)) {
				continue
			}
			if n%stride == 0 {
				sentinelPts = append(sentinelPts, opts.ScatterData{Value: []interface{}{sample, line}})
			}
			n++
		}
	}

	subtitle := fmt.Sprintf("run=%s camera=%s unresolved=%d sentinels=%d stride=%d",
		runID, camera, len(missingPts), sentinelTotal, stride)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Residual Missing Cells", Theme: "dark", Width: "1200px", Height: "420px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Residual Missing Cells", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: g.Samples, Name: "Sample", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: g.Lines, Name: "Line", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("sentinel", sentinelPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	scatter.AddSeries("unresolved", missingPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render residual chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
