package main

import (
	"math"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
)

const fovDeg = 50.0

// orbit is a camera circling a fixed target.
type orbit struct {
	target     mathutil.Vec3
	radius     float64 // bounding radius of the mesh
	distance   float64
	yaw, pitch float64 // radians
}

func newOrbit(mesh *basemesh.Mesh) *orbit {
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range mesh.Vertices {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], v.Position[k])
			hi[k] = math.Max(hi[k], v.Position[k])
		}
	}
	center := mathutil.Mid(lo, hi)
	radius := math.Max(hi.Sub(lo).Len()/2, 1e-6)
	return &orbit{
		target:   center,
		radius:   radius,
		distance: 3 * radius,
		pitch:    0.3,
	}
}

func (o *orbit) eye() mathutil.Vec3 {
	cp := math.Cos(o.pitch)
	dir := mathutil.Vec3{cp * math.Sin(o.yaw), math.Sin(o.pitch), cp * math.Cos(o.yaw)}
	return o.target.Add(dir.Scale(o.distance))
}

func (o *orbit) rotate(dyaw, dpitch float64) {
	o.yaw += dyaw
	o.pitch = math.Max(-1.5, math.Min(1.5, o.pitch+dpitch))
}

func (o *orbit) zoom(steps float64) {
	o.distance *= math.Pow(0.9, steps)
	o.distance = math.Max(o.distance, o.radius*0.05)
}

// mvp returns the column-major model-view-projection matrix.
func (o *orbit) mvp(width, height int) [16]float32 {
	aspect := float64(width) / math.Max(float64(height), 1)
	near := math.Max(o.distance-o.radius*2, o.radius*1e-3)
	far := o.distance + o.radius*2
	proj := mathutil.Perspective(mathutil.Deg2Rad(fovDeg), aspect, near, far)
	view := mathutil.LookAt(o.eye(), o.target, mathutil.Vec3{0, 1, 0})
	return mathutil.Mat4Mul(proj, view).ColumnMajor32()
}
