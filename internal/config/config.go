// Package config loads the JSON settings shared by the command-line tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"lodmesh/internal/adjacency"
	"lodmesh/internal/mathutil"
	"lodmesh/internal/raster"
	"lodmesh/internal/subdiv"
)

// Config holds paths, snapshot settings and engine settings.
type Config struct {
	// Paths
	InputDir    string   `json:"input_dir"`
	TextureDirs []string `json:"texture_dirs"`
	OutputDir   string   `json:"output_dir"`

	// Snapshot settings
	Levels      []int   `json:"levels"`
	RenderSize  int     `json:"render_size"`
	Supersample int     `json:"supersample"`
	Mode        string  `json:"mode"` // shaded, textured or depth
	Wireframe   bool    `json:"wireframe"`
	Strip       bool    `json:"strip"`
	Yaw         float64 `json:"yaw"`   // degrees around +y
	Pitch       float64 `json:"pitch"` // degrees around +x, applied after yaw
	Workers     int     `json:"workers"`

	Engine Engine `json:"engine"`
}

// Engine mirrors the refinement engine's properties and pool sizing.
type Engine struct {
	MaxComputeDepth int     `json:"max_compute_depth"`
	MaxRenderDepth  int     `json:"max_render_depth"`
	SurfaceTension  float64 `json:"surface_tension"`
	PixelTolerance  float64 `json:"pixel_tolerance"`
	CrackFilling    *bool   `json:"crack_filling"`

	TrianglePercent float64 `json:"triangle_percent"`
	VertexPercent   float64 `json:"vertex_percent"`
	TriangleCap     int     `json:"triangle_cap"`
	VertexCap       int     `json:"vertex_cap"`
	OutputCap       int     `json:"output_cap"`
	EvalBudget      int     `json:"eval_budget"`

	// Weld is the grid used to merge input positions before adjacency.
	Weld float64 `json:"weld"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InputDir  string
	OutputDir string
	Levels    string // comma separated depths
	Mode      string
	Workers   int
}

// Resolve applies flags over the file and fills every remaining default.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) error {
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Mode != "" {
		c.Mode = flags.Mode
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Levels != "" {
		levels, err := ParseLevels(flags.Levels)
		if err != nil {
			return err
		}
		c.Levels = levels
	}

	if c.InputDir == "" {
		c.InputDir = "."
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.InputDir, "lod-renders")
	} else if !filepath.IsAbs(c.OutputDir) && flags.OutputDir == "" {
		c.OutputDir = filepath.Join(c.InputDir, c.OutputDir)
	}
	for i, d := range c.TextureDirs {
		if !filepath.IsAbs(d) {
			c.TextureDirs[i] = filepath.Join(c.InputDir, d)
		}
	}
	if len(c.TextureDirs) == 0 {
		c.TextureDirs = []string{c.InputDir}
	}

	// Defaults for render settings
	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Mode == "" {
		c.Mode = "depth"
	}
	if _, err := c.RenderMode(); err != nil {
		return err
	}

	c.Engine.resolve()
	if len(c.Levels) == 0 {
		for d := 0; d <= c.Engine.MaxComputeDepth; d++ {
			c.Levels = append(c.Levels, d)
		}
	}
	sort.Ints(c.Levels)
	for _, l := range c.Levels {
		if l < 0 || l > c.Engine.MaxComputeDepth {
			return fmt.Errorf("config: level %d outside 0..%d", l, c.Engine.MaxComputeDepth)
		}
	}
	return nil
}

func (e *Engine) resolve() {
	def := subdiv.DefaultOptions()
	if e.MaxComputeDepth <= 0 {
		e.MaxComputeDepth = 4
	}
	if e.MaxRenderDepth <= 0 {
		e.MaxRenderDepth = e.MaxComputeDepth
	}
	if e.PixelTolerance <= 0 {
		e.PixelTolerance = 1
	}
	if e.CrackFilling == nil {
		on := true
		e.CrackFilling = &on
	}
	if e.TrianglePercent <= 0 {
		e.TrianglePercent = def.TrianglePercent
	}
	if e.VertexPercent <= 0 {
		e.VertexPercent = def.VertexPercent
	}
	if e.TriangleCap <= 0 {
		e.TriangleCap = def.TriangleCap
	}
	if e.VertexCap <= 0 {
		e.VertexCap = def.VertexCap
	}
	if e.OutputCap <= 0 {
		e.OutputCap = def.OutputCap
	}
}

// Options converts the pool and output sizing to engine options.
func (e Engine) Options() subdiv.Options {
	o := subdiv.DefaultOptions()
	o.TrianglePercent = e.TrianglePercent
	o.VertexPercent = e.VertexPercent
	o.TriangleCap = e.TriangleCap
	o.VertexCap = e.VertexCap
	o.OutputCap = e.OutputCap
	o.EvalBudget = e.EvalBudget
	return o
}

// EngineOptions returns the manager options for the engine section.
func (c *Config) EngineOptions() subdiv.Options {
	return c.Engine.Options()
}

// Apply sets the engine properties on a manager. Call it before InitMesh
// so the tension change does not trigger a rebuild.
func (e Engine) Apply(m *subdiv.Manager) error {
	if err := m.SetMaxComputeDepth(e.MaxComputeDepth); err != nil {
		return err
	}
	m.SetMaxRenderDepth(e.MaxRenderDepth)
	m.SetPixelTolerance(e.PixelTolerance)
	if e.CrackFilling != nil {
		m.SetCrackFilling(*e.CrackFilling)
	}
	return m.SetSurfaceTension(e.SurfaceTension)
}

// Adjacency returns the graph builder options.
func (e Engine) Adjacency() adjacency.Options {
	return adjacency.Options{Weld: e.Weld, AttribEpsilon: 1e-6}
}

// RenderMode maps Mode onto the rasterizer's modes.
func (c *Config) RenderMode() (raster.Mode, error) {
	switch strings.ToLower(c.Mode) {
	case "shaded":
		return raster.Shaded, nil
	case "textured":
		return raster.Textured, nil
	case "depth":
		return raster.DepthRamp, nil
	default:
		return 0, fmt.Errorf("config: unknown mode %q", c.Mode)
	}
}

// View returns the model-to-view rotation for Yaw and Pitch.
func (c *Config) View() mathutil.Mat3 {
	return mathutil.Mat3Mul(mathutil.RotX(mathutil.Deg2Rad(c.Pitch)), mathutil.RotY(mathutil.Deg2Rad(c.Yaw)))
}

// ParseLevels reads a comma separated list of depths such as "0,2,4".
func ParseLevels(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("config: bad level %q: %w", f, err)
		}
		out = append(out, n)
	}
	return out, nil
}
