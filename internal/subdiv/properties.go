package subdiv

import (
	"lodmesh/internal/scheme"
	"lodmesh/internal/tqt"
)

type properties struct {
	adaptive        bool
	crackFilling    bool
	maxComputeDepth int
	maxRenderDepth  int
	tension         float64
	pixelTolerance  float64
}

func defaultProperties() properties {
	return properties{
		adaptive:        true,
		crackFilling:    true,
		maxComputeDepth: 4,
		maxRenderDepth:  tqt.MaxDepth,
		pixelTolerance:  1,
	}
}

func (m *Manager) Adaptive() bool          { return m.props.adaptive }
func (m *Manager) CrackFilling() bool      { return m.props.crackFilling }
func (m *Manager) MaxComputeDepth() int    { return m.props.maxComputeDepth }
func (m *Manager) MaxRenderDepth() int     { return m.props.maxRenderDepth }
func (m *Manager) SurfaceTension() float64 { return m.props.tension }
func (m *Manager) PixelTolerance() float64 { return m.props.pixelTolerance }
func (m *Manager) Metric() Metric          { return m.metric }

// SetMetric installs the metric consulted in adaptive mode.
func (m *Manager) SetMetric(mt Metric) error {
	if mt == nil {
		return ErrNilMetric
	}
	m.metric = mt
	return nil
}

// SetAdaptive switches between metric-driven and uniform refinement.
// Uniform mode starts over from the base mesh and climbs one level per pass.
func (m *Manager) SetAdaptive(on bool) error {
	if m.busy {
		return ErrReentrant
	}
	if on == m.props.adaptive {
		return nil
	}
	m.props.adaptive = on
	if !on && m.bases != nil {
		m.consolidateLevel(0)
		m.uniformDepth = 0
	}
	m.dirty = true
	return nil
}

// SetCrackFilling turns stitching between leaves of different depth on or
// off.
func (m *Manager) SetCrackFilling(on bool) {
	if on != m.props.crackFilling {
		m.props.crackFilling = on
		m.dirty = true
	}
}

// SetMaxComputeDepth sets the deepest level the engine will build. In
// adaptive mode a smaller value collapses deeper subtrees at once; uniform
// mode steps down one level per pass.
func (m *Manager) SetMaxComputeDepth(d int) error {
	if m.busy {
		return ErrReentrant
	}
	d = min(max(d, 0), tqt.MaxDepth)
	shrink := d < m.props.maxComputeDepth
	m.props.maxComputeDepth = d
	if shrink && m.props.adaptive && m.bases != nil {
		m.consolidateLevel(d)
	}
	m.dirty = true
	return nil
}

// SetMaxRenderDepth sets the deepest level written to the output mesh.
func (m *Manager) SetMaxRenderDepth(d int) {
	d = min(max(d, 0), tqt.MaxDepth)
	if d != m.props.maxRenderDepth {
		m.props.maxRenderDepth = d
		m.dirty = true
	}
}

// SetSurfaceTension sets the butterfly tension in [0, 1] and rebuilds the
// refinement, since every computed vertex depends on it.
func (m *Manager) SetSurfaceTension(t float64) error {
	m.scheme = scheme.New(t)
	m.props.tension = m.scheme.Tension
	if m.bases == nil {
		return nil
	}
	return m.ResetAll()
}

// SetPixelTolerance sets the error threshold handed to the metric.
func (m *Manager) SetPixelTolerance(p float64) {
	m.props.pixelTolerance = max(p, 0)
}
