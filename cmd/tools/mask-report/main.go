// Command mask-report renders an HTML yield report from the run database:
// an overview of recent runs plus per-camera and per-stage breakdowns of one
// run (the most recent by default).
//
// Usage:
//
//	go run ./cmd/tools/mask-report -db mask_runs.db -o report.html
//
// Flags:
//
//	-db     Path to the run database (default: mask_runs.db)
//	-run    Run ID to detail (default: most recent)
//	-limit  Runs in the overview chart (default: 20)
//	-o      Output HTML file (default: mask_report.html)
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	_ "modernc.org/sqlite"

	"github.com/stratomet-data/cloudmask.report/internal/maskdb"
	"github.com/stratomet-data/cloudmask.report/internal/rccm"
)

const assetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

func main() {
	db := flag.String("db", "mask_runs.db", "Path to the run database")
	runID := flag.String("run", "", "Run ID to detail (default: most recent)")
	limit := flag.Int("limit", 20, "Runs in the overview chart")
	output := flag.String("o", "mask_report.html", "Output HTML file")
	flag.Parse()

	mdb, err := maskdb.NewMaskDB(*db)
	if err != nil {
		log.Fatalf("Failed to open run database: %v", err)
	}
	defer mdb.Close()

	runs, err := mdb.ListRuns(*limit)
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) == 0 {
		log.Fatalf("No runs recorded in %s", *db)
	}

	target := *runID
	if target == "" {
		target = runs[0].RunID
	}
	run, err := mdb.GetRun(target)
	if err != nil {
		log.Fatalf("Failed to get run %s: %v", target, err)
	}
	if run == nil {
		log.Fatalf("No such run: %s", target)
	}
	var rep rccm.RunReport
	if err := json.Unmarshal(run.Report, &rep); err != nil {
		log.Fatalf("Failed to decode stored report for %s: %v", target, err)
	}

	page := components.NewPage()
	page.SetAssetsHost(assetsHost)
	page.AddCharts(runsOverview(runs), cameraYield(&rep))
	if line := stageYield(&rep); line != nil {
		page.AddCharts(line)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("Failed to render report: %v", err)
	}
	log.Printf("✓ Report written to %s (run %s)", *output, target)
}

// runsOverview charts resolved vs remaining cells per run, oldest first.
func runsOverview(runs []maskdb.RunSummary) *charts.Bar {
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
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: assetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Reconstruction Yield", Subtitle: fmt.Sprintf("last %d runs", len(runs))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("resolved", resolved).
		AddSeries("remaining", remaining)
	return bar
}

// cameraYield charts one run's per-camera resolved vs remaining cells.
func cameraYield(rep *rccm.RunReport) *charts.Bar {
	cams := make([]string, 0, len(rep.Cameras))
	resolved := make([]opts.BarData, 0, len(rep.Cameras))
	remaining := make([]opts.BarData, 0, len(rep.Cameras))
	for _, c := range rep.Cameras {
		cams = append(cams, c.Camera)
		resolved = append(resolved, opts.BarData{Value: c.Resolved})
		remaining = append(remaining, opts.BarData{Value: c.Remaining})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: assetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Per-Camera Yield", Subtitle: fmt.Sprintf("run=%s schedule=%s granule=%s", rep.RunID, rep.Schedule, rep.Granule)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(cams).
		AddSeries("resolved", resolved).
		AddSeries("remaining", remaining)
	return bar
}

// stageYield charts cells resolved by each stage per camera, or nil when the
// run had no staged cameras to plot.
func stageYield(rep *rccm.RunReport) *charts.Line {
	maxStages := 0
	for _, c := range rep.Cameras {
		if len(c.Stages) > maxStages {
			maxStages = len(c.Stages)
		}
	}
	if maxStages == 0 {
		return nil
	}

	stages := make([]string, maxStages)
	for i := range stages {
		stages[i] = fmt.Sprintf("stage %d", i+1)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: assetsHost}),
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
	return line
}
