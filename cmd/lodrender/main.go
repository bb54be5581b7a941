package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lodmesh/internal/batch"
	"lodmesh/internal/config"
	"lodmesh/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	testN := flag.Int("test", 0, "Refine only the first N meshes for testing")
	only := flag.String("mesh", "", "Refine only this mesh file (relative to -input)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	inputDir := flag.String("input", "", "Directory scanned for .obj and .bmd files (default: .)")
	outputDir := flag.String("output", "", "Output directory (default: <input>/lod-renders)")
	levels := flag.String("levels", "", "Comma separated depths to snapshot (default: 0..max_compute_depth)")
	mode := flag.String("mode", "", "Face coloring: shaded, textured or depth (default: depth)")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	if err := cfg.Resolve(config.Flags{
		InputDir:  *inputDir,
		OutputDir: *outputDir,
		Levels:    *levels,
		Mode:      *mode,
		Workers:   *workers,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Collect meshes
	var paths []string
	if *only != "" {
		paths = []string{filepath.Join(cfg.InputDir, *only)}
	} else {
		var err error
		paths, err = batch.Scan(cfg.InputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning %s: %v\n", cfg.InputDir, err)
			os.Exit(1)
		}
	}

	// Limit for testing
	if *testN > 0 && *testN < len(paths) {
		paths = paths[:*testN]
	}

	if len(paths) == 0 {
		fmt.Println("No meshes to refine.")
		os.Exit(0)
	}

	// Build texture index
	texIndex := texture.BuildIndex(cfg.TextureDirs...)
	texCache := texture.NewCache(texIndex)
	fmt.Printf("Textures: %d indexed\n", texIndex.Len())

	batchCfg, err := batch.FromConfig(cfg, texCache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Print summary
	suffix := ""
	if *testN > 0 {
		suffix = fmt.Sprintf(" (TEST: first %d)", *testN)
	}

	fmt.Printf("LOD mesh refinement → WebP%s\n", suffix)
	fmt.Printf("Meshes: %d, Levels: %v, Workers: %d\n", len(paths), cfg.Levels, cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results := batch.Run(batchCfg, paths)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Refined: %d/%d\n", success, len(paths))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := min(len(errors), 20)
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	if broken := texCache.Failures(); len(broken) > 0 {
		fmt.Printf("\nUnreadable textures (%d):\n", len(broken))
		for name, err := range broken {
			fmt.Printf("  %s: %v\n", name, err)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
