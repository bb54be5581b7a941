// Package meshio loads base meshes for the refinement engine.
package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rclancey/earcut"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
)

// objCorner is one v/vt/vn reference of a face, already resolved to
// zero-based indices. -1 means absent.
type objCorner struct {
	v, vt, vn int
}

type objReader struct {
	name      string
	positions []mathutil.Vec3
	texcoords []mathutil.Vec2
	normals   []mathutil.Vec3

	mesh      basemesh.Mesh
	corners   map[objCorner]int
	computed  []bool // vertex has no vn and gets a computed normal
	materials map[string]int
	material  int
	libs      []string
}

// LoadOBJ reads a Wavefront OBJ file. Texture paths come from map_Kd in the
// referenced material libraries, resolved relative to the OBJ file.
func LoadOBJ(path string) (*basemesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("meshio: open %s: %w", path, err)
	}
	defer f.Close()

	r := newOBJReader(path)
	if err := r.read(f); err != nil {
		return nil, err
	}

	textures := make(map[string]string)
	for _, lib := range r.libs {
		// A missing library only costs textures.
		_ = readMTL(filepath.Join(filepath.Dir(path), lib), textures)
	}
	r.mesh.Textures = make([]string, len(r.materials))
	for name, id := range r.materials {
		if tex, ok := textures[name]; ok {
			r.mesh.Textures[id] = filepath.Join(filepath.Dir(path), tex)
		}
	}
	return r.finish()
}

// ReadOBJ parses OBJ text. Material libraries are not followed.
func ReadOBJ(rd io.Reader, name string) (*basemesh.Mesh, error) {
	r := newOBJReader(name)
	if err := r.read(rd); err != nil {
		return nil, err
	}
	return r.finish()
}

func newOBJReader(name string) *objReader {
	return &objReader{
		name:      name,
		corners:   make(map[objCorner]int),
		materials: make(map[string]int),
	}
}

func (r *objReader) read(rd io.Reader) error {
	sc := bufio.NewScanner(rd)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		var err error
		switch fields[0] {
		case "v":
			var p mathutil.Vec3
			p, err = parseVec3(fields[1:])
			r.positions = append(r.positions, p)
		case "vn":
			var n mathutil.Vec3
			n, err = parseVec3(fields[1:])
			r.normals = append(r.normals, n)
		case "vt":
			var t mathutil.Vec2
			t, err = parseVec2(fields[1:])
			r.texcoords = append(r.texcoords, t)
		case "f":
			err = r.face(fields[1:])
		case "usemtl":
			if len(fields) > 1 {
				r.useMaterial(fields[1])
			}
		case "mtllib":
			r.libs = append(r.libs, fields[1:]...)
		}
		if err != nil {
			return fmt.Errorf("meshio: %s:%d: %w", r.name, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("meshio: read %s: %w", r.name, err)
	}
	return nil
}

func (r *objReader) useMaterial(name string) {
	id, ok := r.materials[name]
	if !ok {
		id = len(r.materials)
		r.materials[name] = id
	}
	r.material = id
}

func (r *objReader) face(refs []string) error {
	if len(refs) < 3 {
		return fmt.Errorf("face with %d corners", len(refs))
	}
	poly := make([]int, len(refs))
	for i, ref := range refs {
		c, err := r.corner(ref)
		if err != nil {
			return err
		}
		poly[i] = r.vertex(c)
	}

	if len(poly) == 3 {
		r.emit(poly[0], poly[1], poly[2])
		return nil
	}
	tris, err := r.triangulate(poly)
	if err != nil {
		return err
	}
	for _, t := range tris {
		r.emit(t[0], t[1], t[2])
	}
	return nil
}

func (r *objReader) emit(a, b, c int) {
	r.mesh.Faces = append(r.mesh.Faces, [3]int{a, b, c})
	r.mesh.Materials = append(r.mesh.Materials, r.material)
}

// corner resolves "v", "v/vt", "v//vn" or "v/vt/vn". Negative indices count
// back from the last element read so far.
func (r *objReader) corner(ref string) (objCorner, error) {
	c := objCorner{v: -1, vt: -1, vn: -1}
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return c, fmt.Errorf("bad face corner %q", ref)
	}
	targets := []*int{&c.v, &c.vt, &c.vn}
	counts := []int{len(r.positions), len(r.texcoords), len(r.normals)}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return c, fmt.Errorf("bad face corner %q", ref)
			}
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return c, fmt.Errorf("bad face corner %q: %w", ref, err)
		}
		switch {
		case n > 0:
			n--
		case n < 0:
			n += counts[i]
		default:
			return c, fmt.Errorf("zero index in %q", ref)
		}
		if n < 0 || n >= counts[i] {
			return c, fmt.Errorf("index out of range in %q", ref)
		}
		*targets[i] = n
	}
	return c, nil
}

func (r *objReader) vertex(c objCorner) int {
	if i, ok := r.corners[c]; ok {
		return i
	}
	v := basemesh.Vertex{Position: r.positions[c.v]}
	if c.vt >= 0 {
		v.TexCoord = r.texcoords[c.vt]
	}
	if c.vn >= 0 {
		v.Normal = r.normals[c.vn]
	}
	i := len(r.mesh.Vertices)
	r.mesh.Vertices = append(r.mesh.Vertices, v)
	r.computed = append(r.computed, c.vn < 0)
	r.corners[c] = i
	return i
}

// triangulate ear-clips a polygon in its best-fit plane and returns
// triangles wound like the polygon.
func (r *objReader) triangulate(poly []int) ([][3]int, error) {
	pts := make([]mathutil.Vec3, len(poly))
	for i, v := range poly {
		pts[i] = r.mesh.Vertices[v].Position
	}
	n := newellNormal(pts)

	// Drop the dominant axis of the plane normal.
	u, w := 0, 1
	switch ax := dominantAxis(n); ax {
	case 0:
		u, w = 1, 2
	case 1:
		u, w = 2, 0
	}
	coords := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		coords = append(coords, p[u], p[w])
	}

	idx, err := earcut.Earcut(coords, nil, 2)
	if err != nil {
		return nil, fmt.Errorf("triangulate %d-gon: %w", len(poly), err)
	}
	if len(idx) == 0 || len(idx)%3 != 0 {
		return nil, fmt.Errorf("triangulate %d-gon: got %d indices", len(poly), len(idx))
	}

	tris := make([][3]int, 0, len(idx)/3)
	for i := 0; i < len(idx); i += 3 {
		a, b, c := idx[i], idx[i+1], idx[i+2]
		if pts[b].Sub(pts[a]).Cross(pts[c].Sub(pts[a])).Dot(n) < 0 {
			b, c = c, b
		}
		tris = append(tris, [3]int{poly[a], poly[b], poly[c]})
	}
	return tris, nil
}

func (r *objReader) finish() (*basemesh.Mesh, error) {
	if len(r.mesh.Faces) == 0 {
		return nil, fmt.Errorf("meshio: %s has no faces", r.name)
	}
	if len(r.materials) == 0 {
		r.mesh.Materials = nil
	}
	fillNormals(&r.mesh, r.computed)
	return &r.mesh, nil
}

func parseVec3(f []string) (mathutil.Vec3, error) {
	var v mathutil.Vec3
	if len(f) < 3 {
		return v, fmt.Errorf("expected 3 components, got %d", len(f))
	}
	for i := range v {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return v, err
		}
		v[i] = x
	}
	return v, nil
}

func parseVec2(f []string) (mathutil.Vec2, error) {
	var v mathutil.Vec2
	if len(f) < 2 {
		return v, fmt.Errorf("expected 2 components, got %d", len(f))
	}
	for i := range v {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return v, err
		}
		v[i] = x
	}
	return v, nil
}

// readMTL collects the diffuse texture of every material in a library.
func readMTL(path string, out map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open material library: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	current := ""
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			current = fields[1]
		case "map_Kd":
			if current != "" {
				// Options precede the file name.
				out[current] = strings.ReplaceAll(fields[len(fields)-1], "\\", "/")
			}
		}
	}
	return sc.Err()
}
