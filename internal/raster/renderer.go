// Package raster draws refined meshes into images with a flat-shaded
// software rasterizer.
package raster

import (
	"image"
	"image/color"
	"math"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
	"lodmesh/internal/subdiv"
	"lodmesh/internal/texture"
)

// Mode selects the face color.
type Mode int

const (
	// Shaded uses one color per material.
	Shaded Mode = iota
	// Textured samples the material texture and falls back to Shaded.
	Textured
	// DepthRamp colors faces by the depth of the leaf they came from.
	DepthRamp
)

// Options controls a render.
type Options struct {
	Size        int
	Supersample int
	View        mathutil.Mat3 // model to view rotation; the camera looks down -z
	Mode        Mode
	Wireframe   bool
	FlipV       bool // OBJ texture rows run bottom-up
	MaxDepth    int  // top of the DepthRamp scale
	Mesh        *basemesh.Mesh
	Textures    texture.Resolver
}

var edgeColor = color.NRGBA{R: 24, G: 24, B: 28, A: 255}

// Render draws out fitted to a square of Size*Supersample pixels.
func Render(out *subdiv.OutputMesh, opts Options) *image.NRGBA {
	ss := max(opts.Supersample, 1)
	renderSize := opts.Size * ss
	fb := NewFrameBuffer(renderSize, renderSize)
	if len(out.Faces) == 0 || renderSize <= 0 {
		return fb.Image()
	}
	if opts.View == (mathutil.Mat3{}) {
		opts.View = mathutil.Mat3Identity()
	}

	// Rotate into view space and fit the bounding box.
	view := make([]mathutil.Vec3, len(out.Vertices))
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i, v := range out.Vertices {
		p := opts.View.MulVec3(mathutil.FromFloat32(v.Position))
		view[i] = p
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	center := mathutil.Mid(lo, hi)
	span := math.Max(math.Max(hi[0]-lo[0], hi[1]-lo[1]), 0.001)
	margin := 16 * ss
	scale := float64(renderSize-2*margin) / span
	half := float64(renderSize) / 2

	screen := make([]screenVertex, len(view))
	for i, p := range view {
		uv := out.Vertices[i].TexCoord
		v := float64(uv[1])
		if opts.FlipV {
			v = 1 - v
		}
		screen[i] = screenVertex{
			x: half + (p[0]-center[0])*scale,
			y: half - (p[1]-center[1])*scale,
			z: (p[2] - center[2]) * scale,
			u: float64(uv[0]),
			v: v,
		}
	}

	lc := DefaultLightConfig()
	textures := make(map[int]*image.NRGBA)
	for i, f := range out.Faces {
		a, b, c := view[f[0]], view[f[1]], view[f[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() < 1e-12 {
			continue
		}
		s := surface{shade: lc.Shade(n.Normalize())}

		material := faceMaterial(out, opts.Mesh, i)
		switch opts.Mode {
		case DepthRamp:
			s.base = DepthColor(int(out.FaceDepth[i]), opts.MaxDepth)
		case Textured:
			tex, ok := textures[material]
			if !ok {
				tex = resolve(opts, material)
				textures[material] = tex
			}
			s.tex = tex
			s.base = MaterialColor(material)
		default:
			s.base = MaterialColor(material)
		}
		rasterizeTriangle(fb, screen[f[0]], screen[f[1]], screen[f[2]], &s, &lc)
	}

	if opts.Wireframe {
		bias := 0.01 * scale
		for _, f := range out.Faces {
			for k := 0; k < 3; k++ {
				drawEdge(fb, screen[f[k]], screen[f[(k+1)%3]], edgeColor, bias)
			}
		}
	}
	return fb.Image()
}

func faceMaterial(out *subdiv.OutputMesh, mesh *basemesh.Mesh, face int) int {
	if mesh == nil || face >= len(out.FaceSource) {
		return 0
	}
	src := int(out.FaceSource[face])
	if src < 0 || src >= len(mesh.Materials) {
		return 0
	}
	return mesh.Materials[src]
}

func resolve(opts Options, material int) *image.NRGBA {
	if opts.Textures == nil || opts.Mesh == nil {
		return nil
	}
	name := opts.Mesh.TexturePath(material)
	if name == "" {
		return nil
	}
	return opts.Textures.Resolve(name)
}
