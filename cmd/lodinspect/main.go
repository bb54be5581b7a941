package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"lodmesh/internal/adjacency"
	"lodmesh/internal/config"
	"lodmesh/internal/mathutil"
	"lodmesh/internal/meshio"
	"lodmesh/internal/metric"
	"lodmesh/internal/pool"
	"lodmesh/internal/scheme"
	"lodmesh/internal/subdiv"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file (engine section only)")
	depth := flag.Int("depth", 0, "Max compute depth (default: from config, else 4)")
	eye := flag.String("eye", "", "Refine adaptively for a viewer at x,y,z instead of uniformly")
	passes := flag.Int("passes", 16, "Pass limit for adaptive refinement")
	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *depth > 0 {
		cfg.Engine.MaxComputeDepth = *depth
	}
	if err := cfg.Resolve(config.Flags{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var viewer *mathutil.Vec3
	if *eye != "" {
		p, err := parseVec3(*eye)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -eye: %v\n", err)
			os.Exit(1)
		}
		viewer = &p
	}

	failed := false
	for _, arg := range flag.Args() {
		if err := inspect(arg, cfg.Engine, viewer, *passes); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", arg, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(path string, engine config.Engine, viewer *mathutil.Vec3, passLimit int) error {
	mesh, err := meshio.Load(path)
	if err != nil {
		return err
	}
	graph, report, err := adjacency.Build(mesh, engine.Adjacency())
	if err != nil {
		return err
	}

	fmt.Printf("\n=== %s (faces=%d vertices=%d materials=%d) ===\n",
		path, len(mesh.Faces), len(mesh.Vertices), len(mesh.Textures))
	fmt.Printf("Edges: %s\n", report)
	for i, tex := range mesh.Textures {
		fmt.Printf("  Material[%d]: %s\n", i, tex)
	}

	opts := engine.Options()
	var last subdiv.PassStats
	opts.Hooks.OnPass = func(s subdiv.PassStats) {
		last = s
		printPass(s)
	}
	m := subdiv.NewManager(opts)
	if err := engine.Apply(m); err != nil {
		return err
	}
	limit := engine.MaxComputeDepth + 1
	if viewer != nil {
		fmt.Printf("Adaptive, eye %.2f %.2f %.2f, tolerance %.2f px\n",
			viewer[0], viewer[1], viewer[2], engine.PixelTolerance)
		if err := m.SetMetric(metric.NewEdgeLength(*viewer, 720, 60)); err != nil {
			return err
		}
		limit = passLimit
	} else {
		fmt.Printf("Uniform to depth %d\n", engine.MaxComputeDepth)
		if err := m.SetAdaptive(false); err != nil {
			return err
		}
	}
	if err := m.InitMesh(mesh, graph); err != nil {
		return err
	}

	fmt.Println("pass  depth    faces    verts   +split  forced  -merge  cracks  live tri/vert")
	for pass := 0; pass < limit; pass++ {
		fmt.Printf("%4d  ", pass)
		_, changed, err := m.UpdateMesh()
		if errors.Is(err, pool.ErrExhausted) {
			fmt.Printf("  (%v)\n", err)
			break
		}
		if err != nil {
			return err
		}
		if !changed {
			fmt.Println("settled")
			break
		}
	}
	if err := m.Validate(); err != nil {
		return err
	}

	var layouts []string
	for l := scheme.Layout(0); l < scheme.NumLayouts; l++ {
		if last.Layouts[l] > 0 {
			layouts = append(layouts, fmt.Sprintf("%s=%d", l, last.Layouts[l]))
		}
	}
	if len(layouts) > 0 {
		fmt.Printf("Layouts (last split): %s\n", strings.Join(layouts, " "))
	}
	return nil
}

func printPass(s subdiv.PassStats) {
	fmt.Printf("%5d %8d %8d %8d %7d %7d %7d  %d/%d\n",
		s.Depth, s.Faces, s.Vertices, s.Subdivided, s.Forced, s.Consolidated,
		s.CrackTriangles, s.LiveTriangles, s.LiveVertices)
}

func parseVec3(s string) (mathutil.Vec3, error) {
	var v mathutil.Vec3
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z, got %q", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}
