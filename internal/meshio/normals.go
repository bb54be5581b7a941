package meshio

import (
	"math"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
)

// fillNormals gives every flagged vertex the area-weighted average of the
// face normals around its position. Vertices sharing a position share the
// sum, so split UVs do not split shading.
func fillNormals(m *basemesh.Mesh, missing []bool) {
	need := false
	for _, v := range missing {
		need = need || v
	}
	if !need {
		return
	}

	sums := make(map[mathutil.Vec3]mathutil.Vec3)
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]].Position, m.Vertices[f[1]].Position, m.Vertices[f[2]].Position
		// The cross product's length is twice the area.
		n := b.Sub(a).Cross(c.Sub(a))
		for _, p := range [3]mathutil.Vec3{a, b, c} {
			sums[p] = sums[p].Add(n)
		}
	}
	for i := range m.Vertices {
		if !missing[i] {
			continue
		}
		m.Vertices[i].Normal = sums[m.Vertices[i].Position].Normalize()
	}
}

// newellNormal returns the unnormalized plane normal of a polygon.
func newellNormal(pts []mathutil.Vec3) mathutil.Vec3 {
	var n mathutil.Vec3
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		n[0] += (p[1] - q[1]) * (p[2] + q[2])
		n[1] += (p[2] - q[2]) * (p[0] + q[0])
		n[2] += (p[0] - q[0]) * (p[1] + q[1])
	}
	return n
}

func dominantAxis(n mathutil.Vec3) int {
	ax := 2
	if math.Abs(n[0]) > math.Abs(n[ax]) {
		ax = 0
	}
	if math.Abs(n[1]) > math.Abs(n[ax]) {
		ax = 1
	}
	return ax
}
