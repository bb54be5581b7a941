package meshio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
)

// ErrEncrypted is returned for BMD versions whose payload is encrypted.
var ErrEncrypted = errors.New("meshio: encrypted bmd not supported")

// bmdTriangle indexes the separate position, normal and texcoord arrays of
// a sub-mesh. Polygon 4 is a quad split as 0-1-2 and 0-2-3.
type bmdTriangle struct {
	polygon int
	vi      [4]int16
	ni      [4]int16
	ti      [4]int16
}

type bmdMesh struct {
	verts   []mathutil.Vec3
	nodes   []int16 // bone per vertex
	normals []mathutil.Vec3
	nnodes  []int16 // bone per normal
	uvs     []mathutil.Vec2
	tris    []bmdTriangle
	texPath string
}

type bmdBone struct {
	parent int
	dummy  bool
	pos    mathutil.Vec3
	rot    mathutil.Vec3 // Euler XYZ radians
}

// LoadBMD reads an unencrypted (version 10) BMD model, poses it in its bind
// pose and merges its surface sub-meshes into one base mesh with one material
// per sub-mesh. Effect overlays are left out.
func LoadBMD(path string) (*basemesh.Mesh, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("meshio: read %s: %w", path, err)
	}
	return DecodeBMD(raw, path)
}

// DecodeBMD parses BMD bytes. name is only used in error messages.
func DecodeBMD(raw []byte, name string) (*basemesh.Mesh, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, fmt.Errorf("meshio: invalid bmd header in %s", name)
	}
	switch v := raw[3]; v {
	case 10:
	case 12, 15:
		return nil, fmt.Errorf("%w: %s is version %d", ErrEncrypted, name, v)
	default:
		return nil, fmt.Errorf("meshio: %s: unknown bmd version %d", name, v)
	}

	r := &bmdReader{data: raw[4:]}
	meshes, bones, err := r.parse()
	if err != nil {
		return nil, fmt.Errorf("meshio: %s: %w", name, err)
	}
	pose(meshes, bones)
	return mergeBMD(meshes, name)
}

type bmdReader struct {
	data []byte
	off  int
	eof  bool
}

func (r *bmdReader) take(n int) []byte {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		r.eof = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *bmdReader) readStr(n int) string {
	s := r.take(n)
	// Find null terminator
	for i, b := range s {
		if b == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}

func (r *bmdReader) readI16() int16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(b))
}

func (r *bmdReader) readU16() uint16 {
	return uint16(r.readI16())
}

func (r *bmdReader) readF32() float64 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

func (r *bmdReader) readVec3() mathutil.Vec3 {
	return mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
}

func (r *bmdReader) readByte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *bmdReader) parse() ([]bmdMesh, []bmdBone, error) {
	_ = r.readStr(32) // model name
	meshCount := int(r.readU16())
	boneCount := int(r.readU16())
	actionCount := int(r.readU16())
	if meshCount > 100 {
		return nil, nil, fmt.Errorf("invalid mesh count %d", meshCount)
	}

	meshes := make([]bmdMesh, 0, meshCount)
	for i := 0; i < meshCount; i++ {
		nv := int(r.readI16())
		nn := int(r.readI16())
		ntc := int(r.readI16())
		nt := int(r.readI16())
		_ = r.readI16() // texture index
		if nv < 0 || nn < 0 || ntc < 0 || nt < 0 {
			return nil, nil, fmt.Errorf("mesh %d: negative element count", i)
		}

		var m bmdMesh
		// Vertices: node:i16, pad:i16, xyz:f32
		m.verts = make([]mathutil.Vec3, nv)
		m.nodes = make([]int16, nv)
		for j := range m.verts {
			m.nodes[j] = r.readI16()
			_ = r.readI16()
			m.verts[j] = r.readVec3()
		}

		// Normals: node:i16, pad:i16, xyz:f32, bind:i16, pad:i16
		m.normals = make([]mathutil.Vec3, nn)
		m.nnodes = make([]int16, nn)
		for j := range m.normals {
			m.nnodes[j] = r.readI16()
			_ = r.readI16()
			m.normals[j] = r.readVec3()
			_ = r.readI16()
			_ = r.readI16()
		}

		m.uvs = make([]mathutil.Vec2, ntc)
		for j := range m.uvs {
			m.uvs[j] = mathutil.Vec2{r.readF32(), r.readF32()}
		}

		// Triangles: 64 bytes each
		m.tris = make([]bmdTriangle, nt)
		for j := range m.tris {
			rec := r.take(64)
			if rec == nil {
				return nil, nil, fmt.Errorf("mesh %d: truncated triangle %d", i, j)
			}
			t := bmdTriangle{polygon: int(rec[0])}
			for k := 0; k < 4; k++ {
				t.vi[k] = int16(binary.LittleEndian.Uint16(rec[2+k*2:]))
				t.ni[k] = int16(binary.LittleEndian.Uint16(rec[10+k*2:]))
				t.ti[k] = int16(binary.LittleEndian.Uint16(rec[18+k*2:]))
			}
			m.tris[j] = t
		}

		m.texPath = strings.ReplaceAll(r.readStr(32), "\\", "/")
		if r.eof {
			return nil, nil, fmt.Errorf("mesh %d: truncated", i)
		}
		meshes = append(meshes, m)
	}

	// Only the key counts of the actions matter for walking the bones.
	keys := make([]int, actionCount)
	for a := range keys {
		keys[a] = int(r.readI16())
		if r.readByte() > 0 {
			r.take(keys[a] * 12)
		}
	}

	bones := make([]bmdBone, 0, boneCount)
	for b := 0; b < boneCount && !r.eof; b++ {
		if r.readByte() > 0 {
			bones = append(bones, bmdBone{parent: -1, dummy: true})
			continue
		}
		_ = r.readStr(32) // bone name
		bone := bmdBone{parent: int(r.readI16())}
		for a, n := range keys {
			for k := 0; k < n; k++ {
				p := r.readVec3()
				if a == 0 && k == 0 {
					bone.pos = p
				}
			}
			for k := 0; k < n; k++ {
				rot := r.readVec3()
				if a == 0 && k == 0 {
					bone.rot = rot
				}
			}
		}
		bones = append(bones, bone)
	}
	return meshes, bones, nil
}

// boneWorlds chains every bone's bind transform with its parent's. Parents
// always precede their children.
func boneWorlds(bones []bmdBone) []mathutil.Mat4 {
	worlds := make([]mathutil.Mat4, len(bones))
	for i, b := range bones {
		if b.dummy {
			worlds[i] = mathutil.Mat4Identity()
			continue
		}
		local := mathutil.FromMat3Translation(mathutil.EulerXYZ(b.rot[0], b.rot[1], b.rot[2]), b.pos)
		if b.parent >= 0 && b.parent < i {
			worlds[i] = mathutil.Mat4Mul(worlds[b.parent], local)
		} else {
			worlds[i] = local
		}
	}
	return worlds
}

// pose moves positions and normals from bone space into model space using
// rigid skinning, one bone per element.
func pose(meshes []bmdMesh, bones []bmdBone) {
	if len(bones) == 0 {
		return
	}
	worlds := boneWorlds(bones)
	identity := true
	for _, w := range worlds {
		identity = identity && w.IsIdentity()
	}
	if identity {
		return
	}

	for mi := range meshes {
		m := &meshes[mi]
		for i, n := range m.nodes {
			if int(n) >= 0 && int(n) < len(worlds) {
				m.verts[i] = worlds[n].MulPoint(m.verts[i])
			}
		}
		for i, n := range m.nnodes {
			if int(n) >= 0 && int(n) < len(worlds) {
				m.normals[i] = worlds[n].Linear().MulVec3(m.normals[i])
			}
		}
	}
}

// mergeBMD flattens the per-attribute indices into shared vertices.
func mergeBMD(meshes []bmdMesh, name string) (*basemesh.Mesh, error) {
	out := &basemesh.Mesh{}
	type key struct {
		mesh       int
		vi, ni, ti int16
	}
	seen := make(map[key]int)
	keep := surfaceMeshes(meshes)

	for mi, m := range meshes {
		// Material ids stay the sub-mesh index even when some are dropped.
		out.Textures = append(out.Textures, m.texPath)
		if !keep[mi] {
			continue
		}
		corner := func(t bmdTriangle, k int) (int, error) {
			vi, ni, ti := t.vi[k], t.ni[k], t.ti[k]
			if int(vi) < 0 || int(vi) >= len(m.verts) {
				return 0, fmt.Errorf("meshio: %s: mesh %d vertex index %d out of range", name, mi, vi)
			}
			kk := key{mi, vi, ni, ti}
			if i, ok := seen[kk]; ok {
				return i, nil
			}
			v := basemesh.Vertex{Position: m.verts[vi]}
			if int(ni) >= 0 && int(ni) < len(m.normals) {
				v.Normal = m.normals[ni]
			}
			if int(ti) >= 0 && int(ti) < len(m.uvs) {
				v.TexCoord = m.uvs[ti]
			}
			i := len(out.Vertices)
			out.Vertices = append(out.Vertices, v)
			seen[kk] = i
			return i, nil
		}

		for _, t := range m.tris {
			n := 3
			if t.polygon == 4 {
				n = 4
			}
			var idx [4]int
			for k := 0; k < n; k++ {
				i, err := corner(t, k)
				if err != nil {
					return nil, err
				}
				idx[k] = i
			}
			out.Faces = append(out.Faces, [3]int{idx[0], idx[1], idx[2]})
			out.Materials = append(out.Materials, mi)
			if n == 4 {
				out.Faces = append(out.Faces, [3]int{idx[0], idx[2], idx[3]})
				out.Materials = append(out.Materials, mi)
			}
		}
	}
	if len(out.Faces) == 0 {
		return nil, fmt.Errorf("meshio: %s has no faces", name)
	}
	return out, nil
}
