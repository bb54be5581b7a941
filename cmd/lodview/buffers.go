package main

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"lodmesh/internal/raster"
	"lodmesh/internal/subdiv"
)

// floatsPerVertex is position, normal and color.
const floatsPerVertex = 9

// gpuMesh holds the output mesh unrolled to one vertex per face corner, so
// every face carries the color of its leaf depth.
type gpuMesh struct {
	vao, vbo uint32
	capacity int // floats
	count    int32
	scratch  []float32
}

func newGPUMesh() *gpuMesh {
	g := &gpuMesh{}
	gl.GenVertexArrays(1, &g.vao)
	gl.GenBuffers(1, &g.vbo)

	gl.BindVertexArray(g.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)

	stride := int32(floatsPerVertex * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(12))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(24))

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return g
}

// upload replaces the buffer contents with out.
func (g *gpuMesh) upload(out *subdiv.OutputMesh, maxDepth int) {
	data := g.scratch[:0]
	for f, face := range out.Faces {
		c := raster.DepthColor(int(out.FaceDepth[f]), maxDepth)
		r, gr, b := float32(c.R)/255, float32(c.G)/255, float32(c.B)/255
		for _, vi := range face {
			v := out.Vertices[vi]
			data = append(data,
				v.Position[0], v.Position[1], v.Position[2],
				v.Normal[0], v.Normal[1], v.Normal[2],
				r, gr, b)
		}
	}
	g.scratch = data
	g.count = int32(len(data) / floatsPerVertex)

	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	if len(data) > g.capacity {
		// Grow by half again.
		g.capacity = len(data) + len(data)/2
		gl.BufferData(gl.ARRAY_BUFFER, g.capacity*4, nil, gl.DYNAMIC_DRAW)
	}
	if len(data) > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(data)*4, gl.Ptr(data))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (g *gpuMesh) draw(wireframe bool) {
	if g.count == 0 {
		return
	}
	if wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	gl.BindVertexArray(g.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, g.count)
	gl.BindVertexArray(0)
}
