// Package batch refines a directory of meshes level by level and writes a
// preview image per level.
package batch

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"lodmesh/internal/adjacency"
	"lodmesh/internal/config"
	"lodmesh/internal/mathutil"
	"lodmesh/internal/meshio"
	"lodmesh/internal/pool"
	"lodmesh/internal/postprocess"
	"lodmesh/internal/raster"
	"lodmesh/internal/subdiv"
	"lodmesh/internal/texture"

	"github.com/HugoSmits86/nativewebp"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	TexResolver texture.Resolver
	Engine      config.Engine
	Levels      []int
	RenderSize  int
	Supersample int
	Mode        raster.Mode
	Wireframe   bool
	Strip       bool
	View        mathutil.Mat3
	Workers     int
}

// FromConfig builds a batch config from resolved settings.
func FromConfig(c config.Config, textures texture.Resolver) (Config, error) {
	mode, err := c.RenderMode()
	if err != nil {
		return Config{}, err
	}
	return Config{
		OutputDir:   c.OutputDir,
		TexResolver: textures,
		Engine:      c.Engine,
		Levels:      c.Levels,
		RenderSize:  c.RenderSize,
		Supersample: c.Supersample,
		Mode:        mode,
		Wireframe:   c.Wireframe,
		Strip:       c.Strip,
		View:        c.View(),
		Workers:     max(c.Workers, 1),
	}, nil
}

// Level is the outcome of refining one mesh to one depth.
type Level struct {
	Depth          int    `json:"depth"`
	Faces          int    `json:"faces"`
	Vertices       int    `json:"vertices"`
	LiveTriangles  int    `json:"live_triangles"`
	LiveVertices   int    `json:"live_vertices"`
	CrackTriangles int    `json:"crack_triangles"`
	Passes         int    `json:"passes"`
	Image          string `json:"image"`
	Note           string `json:"note,omitempty"`
}

// Result holds the outcome of processing one mesh file.
type Result struct {
	Name      string
	Input     string
	BaseFaces int
	Adjacency adjacency.Report
	Levels    []Level
	Strip     string
	Success   bool
	Error     string
}

// Scan lists the mesh files under dir that meshio can load, sorted by path.
func Scan(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range meshio.Extensions {
			if ext == e {
				paths = append(paths, path)
				break
			}
		}
		return nil
	})
	return paths, err
}

// Run processes all mesh files using a worker pool.
func Run(cfg Config, paths []string) []Result {
	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f meshes/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool. Managers are not shared: each job builds its own.
	jobs := make(chan int, max(cfg.Workers, 1)*2)
	var wg sync.WaitGroup

	for w := 0; w < max(cfg.Workers, 1); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processMesh(cfg, paths[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range paths {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	return results
}

func processMesh(cfg Config, path string) Result {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res := Result{Name: name, Input: path}
	fail := func(err error) Result {
		res.Error = err.Error()
		batchLogger.Printf("%s: %v", name, err)
		return res
	}

	mesh, err := meshio.Load(path)
	if err != nil {
		return fail(err)
	}
	res.BaseFaces = len(mesh.Faces)

	graph, report, err := adjacency.Build(mesh, cfg.Engine.Adjacency())
	if err != nil {
		return fail(err)
	}
	res.Adjacency = report
	batchLogger.Printf("%s: %d faces, %s", name, len(mesh.Faces), report)

	var last subdiv.PassStats
	opts := cfg.Engine.Options()
	opts.Hooks.OnPass = func(s subdiv.PassStats) { last = s }
	m := subdiv.NewManager(opts)
	if err := cfg.Engine.Apply(m); err != nil {
		return fail(err)
	}
	if err := m.SetAdaptive(false); err != nil {
		return fail(err)
	}
	if err := m.InitMesh(mesh, graph); err != nil {
		return fail(err)
	}

	render := raster.Options{
		Size:        cfg.RenderSize,
		Supersample: cfg.Supersample,
		View:        cfg.View,
		Mode:        cfg.Mode,
		Wireframe:   cfg.Wireframe,
		FlipV:       strings.EqualFold(filepath.Ext(path), ".obj"),
		MaxDepth:    cfg.Engine.MaxComputeDepth,
		Mesh:        mesh,
		Textures:    cfg.TexResolver,
	}

	var frames []*image.NRGBA
	for _, depth := range cfg.Levels {
		out, lvl, err := refine(m, depth, &last)
		if err != nil && out == nil {
			return fail(fmt.Errorf("depth %d: %w", depth, err))
		}

		img := raster.Render(out, render)
		if cfg.Supersample > 1 {
			img = postprocess.Downsample(img, cfg.RenderSize)
		}
		lvl.Image = filepath.Join(name, fmt.Sprintf("L%d.webp", depth))
		if err := writeWebP(filepath.Join(cfg.OutputDir, lvl.Image), img); err != nil {
			return fail(err)
		}
		res.Levels = append(res.Levels, lvl)
		frames = append(frames, img)

		if errors.Is(err, pool.ErrExhausted) {
			// Deeper levels cannot be built either.
			break
		}
	}

	if cfg.Strip && len(frames) > 1 {
		res.Strip = filepath.Join(name, "strip.webp")
		img := postprocess.Strip(frames, cfg.RenderSize/16, color.NRGBA{})
		if err := writeWebP(filepath.Join(cfg.OutputDir, res.Strip), img); err != nil {
			return fail(err)
		}
	}

	res.Success = true
	return res
}

// maxPasses bounds the passes spent settling one level. Uniform mode moves
// one level per pass.
const maxPasses = 64

// refine runs uniform passes until the manager settles at depth. A pass
// that changes nothing leaves the stats of the last one that did.
func refine(m *subdiv.Manager, depth int, last *subdiv.PassStats) (*subdiv.OutputMesh, Level, error) {
	lvl := Level{Depth: depth}
	if err := m.SetMaxComputeDepth(depth); err != nil {
		return nil, lvl, err
	}

	var out *subdiv.OutputMesh
	for pass := 0; pass < maxPasses; pass++ {
		o, changed, err := m.UpdateMesh()
		if err != nil {
			if errors.Is(err, pool.ErrExhausted) && o != nil {
				lvl.Note = "pool exhausted"
				fill(&lvl, o, *last)
				return o, lvl, err
			}
			return nil, lvl, err
		}
		out = o
		if !changed {
			break
		}
		lvl.Passes++
	}
	fill(&lvl, out, *last)
	return out, lvl, nil
}

func fill(lvl *Level, out *subdiv.OutputMesh, s subdiv.PassStats) {
	lvl.Faces = len(out.Faces)
	lvl.Vertices = len(out.Vertices)
	lvl.LiveTriangles = s.LiveTriangles
	lvl.LiveVertices = s.LiveVertices
	lvl.CrackTriangles = s.CrackTriangles
}

func writeWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("WebP encode: %w", err)
	}
	return nil
}
