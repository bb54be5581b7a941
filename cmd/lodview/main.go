package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"lodmesh/internal/adjacency"
	"lodmesh/internal/config"
	"lodmesh/internal/meshio"
	"lodmesh/internal/metric"
	"lodmesh/internal/pool"
	"lodmesh/internal/subdiv"
)

const logFlags = log.Ltime | log.Lshortfile

var viewerLogger = log.New(io.Discard, "", 0)

func init() {
	// OpenGL contexts are tied to specific OS threads - let's pin to just one.
	runtime.LockOSThread()
	log.SetFlags(logFlags)

	if os.Getenv("LODMESH_DEBUG_VIEW") == "1" {
		viewerLogger = log.New(os.Stdout, "[view] ", log.Ltime|log.Lmsgprefix)
	}
}

// viewer owns the window, the engine and the GPU copy of its output.
type viewer struct {
	window    *glfw.Window
	manager   *subdiv.Manager
	metric    *metric.EdgeLength
	camera    *orbit
	mesh      *gpuMesh
	wireframe bool
}

func (v *viewer) setViewportHeight(h int) {
	v.metric.SetViewport(h, fovDeg)
}

// step moves the metric's eye to the camera and runs one engine pass.
func (v *viewer) step() error {
	v.metric.Eye = v.camera.eye()
	out, changed, err := v.manager.UpdateMesh()
	if err != nil && !errors.Is(err, pool.ErrExhausted) {
		return err
	}
	if changed {
		v.mesh.upload(out, v.manager.MaxComputeDepth())
	}
	return nil
}

func makeTitle(fps float64, m *subdiv.Manager, s subdiv.PassStats) string {
	mode := "adaptive"
	if !m.Adaptive() {
		mode = "uniform"
	}
	return fmt.Sprintf("lodview (%.1f FPS, %s, depth %d/%d, %d faces, %d crack triangles, tolerance %.2fpx, tension %.2f)",
		fps, mode, s.Depth, m.MaxComputeDepth(), s.Faces, s.CrackTriangles,
		m.PixelTolerance(), m.SurfaceTension())
}

func main() {
	configFile := flag.String("config", "", "Path to config.json file (engine section only)")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: lodview [-config file] mesh.obj|mesh.bmd")
	}

	var cfg config.Config
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if err := cfg.Resolve(config.Flags{}); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	mesh, err := meshio.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to load mesh: %v", err)
	}
	graph, report, err := adjacency.Build(mesh, cfg.Engine.Adjacency())
	if err != nil {
		log.Fatalf("Failed to build adjacency: %v", err)
	}
	viewerLogger.Printf("%s: %d faces, %s", flag.Arg(0), len(mesh.Faces), report)

	if err := glfw.Init(); err != nil {
		log.Fatalf("Failed to initialize GLFW: %v", err)
	}
	defer glfw.Terminate()

	// Configure GLFW window hints - use OpenGL 4.1.
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	window, err := glfw.CreateWindow(1280, 960, "lodview", nil, nil)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		log.Fatalf("Failed to initialize OpenGL: %v", err)
	}

	var last subdiv.PassStats
	opts := cfg.EngineOptions()
	opts.Hooks.OnPass = func(s subdiv.PassStats) { last = s }

	camera := newOrbit(mesh)
	_, ch := window.GetFramebufferSize()
	v := &viewer{
		window:  window,
		manager: subdiv.NewManager(opts),
		metric:  metric.NewEdgeLength(camera.eye(), ch, fovDeg),
		camera:  camera,
	}
	if err := cfg.Engine.Apply(v.manager); err != nil {
		log.Fatalf("Failed to configure engine: %v", err)
	}
	if err := v.manager.SetMetric(v.metric); err != nil {
		log.Fatalf("Failed to set metric: %v", err)
	}
	if err := v.manager.InitMesh(mesh, graph); err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	prog := newProgram()
	v.mesh = newGPUMesh()
	newEventHandlers(v)

	gl.Enable(gl.DEPTH_TEST)

	frameCount := 0
	lastFPSUpdate := time.Now()

	// Main loop.
	for !window.ShouldClose() {
		if err := v.step(); err != nil {
			log.Fatalf("Refinement error: %v", err)
		}

		w, h := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(w), int32(h))
		gl.ClearColor(1, 1, 1, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		prog.setMVP(camera.mvp(w, h))
		v.mesh.draw(v.wireframe)
		window.SwapBuffers()
		glfw.PollEvents()

		frameCount++
		now := time.Now()
		if now.Sub(lastFPSUpdate) >= time.Second {
			fps := float64(frameCount) / now.Sub(lastFPSUpdate).Seconds()
			frameCount = 0
			lastFPSUpdate = now
			window.SetTitle(makeTitle(fps, v.manager, last))
			viewerLogger.Printf("%.1f FPS, %d/%d live triangles/vertices", fps, last.LiveTriangles, last.LiveVertices)
		}

		if frameCount%100 == 0 { // Periodically validate the restricted tree.
			if err := v.manager.Validate(); err != nil {
				log.Fatalf("Tree invariant violated: %v", err)
			}
		}
	}
}
