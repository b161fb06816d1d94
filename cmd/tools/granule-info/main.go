// Command granule-info prints the header and per-camera census of mask
// containers.
//
// Usage:
//
//	go run ./cmd/tools/granule-info [flags] FILE...
//
// Flags:
//
//	-json    Emit the census as JSON instead of text
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/stratomet-data/cloudmask.report/internal/rccm"
	"github.com/stratomet-data/cloudmask.report/internal/rccm/granule"
)

func main() {
	jsonOut := flag.Bool("json", false, "Emit the census as JSON instead of text")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: granule-info [flags] FILE...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	for _, path := range flag.Args() {
		if err := printGranule(path, *jsonOut); err != nil {
			log.Fatalf("%s: %v", path, err)
		}
	}
}

func printGranule(path string, jsonOut bool) error {
	g, err := granule.Load(path)
	if err != nil {
		return err
	}
	ss := rccm.SummarizeStack(g.Masks)

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			File  string          `json:"file"`
			Orbit uint32          `json:"orbit"`
			Block uint16          `json:"block"`
			Stats rccm.StackStats `json:"stats"`
		}{filepath.Base(path), g.Orbit, g.Block, ss})
	}

	fmt.Printf("=== %s ===\n", filepath.Base(path))
	fmt.Printf("Orbit:  %d\n", g.Orbit)
	fmt.Printf("Block:  %d\n", g.Block)
	fmt.Printf("Planes: %d cameras, %dx%d cells\n", len(g.Masks), rccm.GridSamples, rccm.GridLines)
	if info, err := granule.ParseProductName(filepath.Base(path)); err == nil {
		if info.Restored {
			fmt.Printf("Product: v%d (restored)\n", info.Version)
		} else {
			fmt.Printf("Product: v%d\n", info.Version)
		}
	}
	if _, err := os.Stat(granule.SidecarPath(path)); err == nil {
		fmt.Printf("Radiance sidecar: %s\n", filepath.Base(granule.SidecarPath(path)))
	}

	fmt.Println("\nCamera  Missing  CloudHi  CloudLo  ClearLo  ClearHi  Obscured   Edge   Fill  Cloud%")
	for _, s := range ss.Cameras {
		fmt.Printf("%-6s %8d %8d %8d %8d %8d %9d %6d %6d  %5.1f\n",
			s.Camera, s.Missing, s.CloudHigh, s.CloudLow, s.ClearLow, s.ClearHigh,
			s.Obscured, s.Edge, s.Fill, s.CloudFraction*100)
	}
	fmt.Printf("\nTotal missing: %d\n", ss.MissingTotal)
	fmt.Printf("Cloud fraction: %.3f mean, %.3f spread across cameras\n",
		ss.CloudFractionMean, ss.CloudFractionStd)
	fmt.Println()
	return nil
}
