// Command grid-plot renders the camera planes of a mask container to PNG
// heatmaps, one file per camera.
//
// Usage:
//
//	go run ./cmd/tools/grid-plot -in CLDMSK_O043122_B057_v2.msk [flags]
//
// Flags:
//
//	-in           Mask container to render (required)
//	-out          Output directory (default: plots)
//	-camera       Render only this camera (e.g. An)
//	-timestamped  Write into a timestamped subdirectory of -out
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/stratomet-data/cloudmask.report/internal/monitor"
	"github.com/stratomet-data/cloudmask.report/internal/rccm/granule"
	"github.com/stratomet-data/cloudmask.report/internal/security"
)

func main() {
	in := flag.String("in", "", "Mask container to render (required)")
	out := flag.String("out", "plots", "Output directory for PNG files")
	camera := flag.String("camera", "", "Render only this camera (e.g. An)")
	timestamped := flag.Bool("timestamped", false, "Write into a timestamped subdirectory")
	flag.Parse()

	if *in == "" {
		log.Fatal("Input mask container is required (-in)")
	}

	g, err := granule.Load(*in)
	if err != nil {
		log.Fatalf("Failed to load granule: %v", err)
	}

	// Plots land under the working directory or the temp dir only.
	if err := security.ValidateWritePath(*out); err != nil {
		log.Fatalf("Refusing output directory: %v", err)
	}

	outDir := *out
	if *timestamped {
		outDir = monitor.MakePlotOutputDir(*out, *in)
	}

	if *camera != "" {
		for _, grid := range g.Masks {
			if grid.Camera != *camera {
				continue
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				log.Fatalf("Failed to create output dir: %v", err)
			}
			file := filepath.Join(outDir, fmt.Sprintf("mask_%s.png", grid.Camera))
			if err := monitor.SaveMaskPlot(grid, file); err != nil {
				log.Fatalf("Failed to render %s: %v", grid.Camera, err)
			}
			log.Printf("✓ Wrote %s", file)
			return
		}
		log.Fatalf("No camera %q in %s", *camera, *in)
	}

	n, err := monitor.SaveStackPlots(g.Masks, outDir)
	if err != nil {
		log.Fatalf("Failed to render plots: %v", err)
	}
	log.Printf("✓ Wrote %d plots to %s", n, outDir)
}
