package subdiv

import "errors"

var (
	ErrNilMetric      = errors.New("subdiv: adaptive mode needs a metric")
	ErrNilMesh        = errors.New("subdiv: no base mesh")
	ErrUnsupported    = errors.New("subdiv: base mesh too large to subdivide")
	ErrReentrant      = errors.New("subdiv: update already in progress")
	ErrDepthInvariant = errors.New("subdiv: neighbouring leaves differ by more than one level")
	ErrOutputOverflow = errors.New("subdiv: output mesh cannot grow")
	ErrInvalidGraph   = errors.New("subdiv: invalid neighbour graph")
	ErrInfiniteLoop   = errors.New("subdiv: forced subdivision did not converge")
)
