package meshio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lodmesh/internal/adjacency"
	"lodmesh/internal/mathutil"
)

func TestReadOBJTriangles(t *testing.T) {
	src := `# two triangles sharing an edge
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
f -4/-4/-1 -2/-2/-1 -1/-1/-1
`
	m, err := ReadOBJ(strings.NewReader(src), "quad.obj")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Faces) != 2 || len(m.Vertices) != 4 {
		t.Fatalf("expected 2 faces over 4 vertices, got %d over %d", len(m.Faces), len(m.Vertices))
	}
	if m.Faces[1] != [3]int{0, 2, 3} {
		t.Fatalf("expected relative indices to resolve to {0 2 3}, got %v", m.Faces[1])
	}
	if m.Materials != nil {
		t.Fatalf("expected no materials without usemtl, got %v", m.Materials)
	}
	if got := m.Vertices[2].TexCoord; got != (mathutil.Vec2{1, 1}) {
		t.Fatalf("expected uv (1,1), got %v", got)
	}
}

func TestReadOBJPolygons(t *testing.T) {
	src := `v 0 0 0
v 2 0 0
v 2 2 0
v 1 3 0
v 0 2 0
usemtl stone
f 1 2 3 4 5
usemtl moss
f 1 5 4 3
`
	m, err := ReadOBJ(strings.NewReader(src), "house.obj")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Faces) != 5 {
		t.Fatalf("expected 3+2 triangles, got %d", len(m.Faces))
	}
	if want := []int{0, 0, 0, 1, 1}; len(m.Materials) != 5 || m.Materials[0] != want[0] || m.Materials[4] != want[4] {
		t.Fatalf("expected materials %v, got %v", want, m.Materials)
	}

	// The pentagon winds counter-clockwise around +z, the quad clockwise.
	for i, f := range m.Faces {
		a, b, c := m.Vertices[f[0]].Position, m.Vertices[f[1]].Position, m.Vertices[f[2]].Position
		z := b.Sub(a).Cross(c.Sub(a))[2]
		if (i < 3) != (z > 0) {
			t.Fatalf("triangle %d %v lost the polygon's winding (z=%v)", i, f, z)
		}
	}

	area := 0.0
	for _, f := range m.Faces[:3] {
		a, b, c := m.Vertices[f[0]].Position, m.Vertices[f[1]].Position, m.Vertices[f[2]].Position
		area += b.Sub(a).Cross(c.Sub(a)).Len() / 2
	}
	if math.Abs(area-5) > 1e-9 {
		t.Fatalf("expected the pentagon to keep area 5, got %v", area)
	}
}

func TestReadOBJComputesNormals(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1 3 2
f 1 2 4
`
	m, err := ReadOBJ(strings.NewReader(src), "corner.obj")
	if err != nil {
		t.Fatal(err)
	}
	// Corners are numbered as they first appear: (0,1,0) is vertex 1.
	if n := m.Vertices[1].Normal; n != (mathutil.Vec3{0, 0, -1}) {
		t.Fatalf("expected the floor vertex to face down, got %v", n)
	}
	// Vertex 0 averages the floor (0,0,-1) and the wall (0,-1,0).
	n := m.Vertices[0].Normal
	h := math.Sqrt(0.5)
	if math.Abs(n[0]) > 1e-12 || math.Abs(n[1]+h) > 1e-12 || math.Abs(n[2]+h) > 1e-12 {
		t.Fatalf("expected averaged normal (0,-0.707,-0.707), got %v", n)
	}
}

func TestReadOBJErrors(t *testing.T) {
	for _, src := range []string{
		"v 0 0\n",
		"v 0 0 0\nv 1 0 0\nf 1 2\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/x 2 3\n",
		"# nothing\n",
	} {
		if _, err := ReadOBJ(strings.NewReader(src), "bad.obj"); err == nil {
			t.Fatalf("expected an error for %q", src)
		}
	}
}

func TestLoadOBJResolvesTextures(t *testing.T) {
	dir := t.TempDir()
	obj := "mtllib scene.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl wood\nf 1 2 3\n"
	mtl := "newmtl wood\nmap_Kd -s 1 1 1 tex\\wood.tga\n"
	if err := os.WriteFile(filepath.Join(dir, "scene.obj"), []byte(obj), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scene.mtl"), []byte(mtl), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(filepath.Join(dir, "scene.obj"))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "tex", "wood.tga"); m.TexturePath(0) != want {
		t.Fatalf("expected texture %s, got %q", want, m.TexturePath(0))
	}
	if _, err := Load(filepath.Join(dir, "scene.stl")); err == nil {
		t.Fatal("expected an unknown extension to fail")
	}
}

// bmdFile builds a version 10 model with one quad sub-mesh and, when move
// is set, one bone translating everything by it.
func bmdFile(version byte, move *mathutil.Vec3) []byte {
	var b bytes.Buffer
	w := func(v any) { _ = binary.Write(&b, binary.LittleEndian, v) }
	str := func(s string) {
		var buf [32]byte
		copy(buf[:], s)
		b.Write(buf[:])
	}

	b.WriteString("BMD")
	b.WriteByte(version)
	str("quad")
	bones, actions := uint16(0), uint16(0)
	if move != nil {
		bones, actions = 1, 1
	}
	w([]uint16{1, bones, actions})

	w([]int16{4, 1, 4, 1, 0})
	for _, p := range [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}} {
		w([]int16{0, 0})
		w(p)
	}
	w([]int16{0, 0})
	w([3]float32{0, 0, 1})
	w([]int16{0, 0})
	for _, uv := range [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		w(uv)
	}
	var tri [64]byte
	tri[0] = 4
	for k := 0; k < 4; k++ {
		binary.LittleEndian.PutUint16(tri[2+k*2:], uint16(k))
		binary.LittleEndian.PutUint16(tri[18+k*2:], uint16(k))
	}
	b.Write(tri[:])
	str("data\\quad.tga")

	if move != nil {
		w(int16(1)) // one key
		b.WriteByte(0)
		b.WriteByte(0) // not a dummy
		str("root")
		w(int16(-1))
		w([3]float32{float32(move[0]), float32(move[1]), float32(move[2])})
		w([3]float32{0, 0, 0})
	}
	return b.Bytes()
}

func TestDecodeBMD(t *testing.T) {
	m, err := DecodeBMD(bmdFile(10, nil), "quad.bmd")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Faces) != 2 || len(m.Vertices) != 4 {
		t.Fatalf("expected the quad as 2 faces over 4 vertices, got %d over %d", len(m.Faces), len(m.Vertices))
	}
	if m.Faces[1] != [3]int{0, 2, 3} {
		t.Fatalf("expected second half 0-2-3, got %v", m.Faces[1])
	}
	if m.TexturePath(0) != "data/quad.tga" {
		t.Fatalf("expected normalized texture path, got %q", m.TexturePath(0))
	}
	if m.Vertices[2].Normal != (mathutil.Vec3{0, 0, 1}) {
		t.Fatalf("expected the stored normal, got %v", m.Vertices[2].Normal)
	}

	g, rep, err := adjacency.Build(m, adjacency.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Neighbors[0][2] != 1 || rep.Interior != 1 {
		t.Fatalf("expected the halves to share the diagonal, got %v (%v)", g.Neighbors[0], rep)
	}
}

func TestDecodeBMDBindPose(t *testing.T) {
	move := mathutil.Vec3{1, 2, 3}
	m, err := DecodeBMD(bmdFile(10, &move), "posed.bmd")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Vertices[2].Position; got != (mathutil.Vec3{2, 3, 3}) {
		t.Fatalf("expected the bone to move (1,1,0) to (2,3,3), got %v", got)
	}
	if got := m.Vertices[2].Normal; got != (mathutil.Vec3{0, 0, 1}) {
		t.Fatalf("expected translation to leave normals alone, got %v", got)
	}
}

func TestDecodeBMDRejects(t *testing.T) {
	if _, err := DecodeBMD(bmdFile(12, nil), "v12.bmd"); !errors.Is(err, ErrEncrypted) {
		t.Fatalf("expected ErrEncrypted, got %v", err)
	}
	if _, err := DecodeBMD([]byte("OBJ\x0a"), "x"); err == nil {
		t.Fatal("expected a bad header to fail")
	}
	full := bmdFile(10, nil)
	if _, err := DecodeBMD(full[:len(full)-40], "short.bmd"); err == nil {
		t.Fatal("expected a truncated file to fail")
	}
}

func TestEffectTextures(t *testing.T) {
	for path, want := range map[string]bool{
		"data\\item\\sword_glow.tga":   true,
		"gra_01.ozt":                   true,
		"mini_gra.jpg":                 true,
		"flame02.tga":                  true,
		"box_flame_wood.tga":           false,
		"grass.tga":                    false,
		"data/quad.tga":                false,
		"":                             false,
		"Data/Item/Shield_Halo_01.OZT": true,
	} {
		if got := IsEffectTexture(path); got != want {
			t.Fatalf("%q: expected %v, got %v", path, want, got)
		}
	}

	keep := surfaceMeshes([]bmdMesh{{texPath: "blade.tga"}, {texPath: "blade_glow.tga"}})
	if !keep[0] || keep[1] {
		t.Fatalf("expected only the blade kept, got %v", keep)
	}
	keep = surfaceMeshes([]bmdMesh{{texPath: "aura.tga"}})
	if !keep[0] {
		t.Fatal("expected a model made only of effects to be kept whole")
	}
}
