package mathutil

import (
	"math"
	"testing"
)

const eps = 1e-9

func vecNear(a, b Vec3) bool {
	return math.Abs(a[0]-b[0]) < eps && math.Abs(a[1]-b[1]) < eps && math.Abs(a[2]-b[2]) < eps
}

func TestRotations(t *testing.T) {
	x := Vec3{1, 0, 0}
	if got := RotZ(math.Pi / 2).MulVec3(x); !vecNear(got, Vec3{0, 1, 0}) {
		t.Fatalf("expected RotZ to take x to y, got %v", got)
	}
	if got := RotY(math.Pi / 2).MulVec3(x); !vecNear(got, Vec3{0, 0, -1}) {
		t.Fatalf("expected RotY to take x to -z, got %v", got)
	}
	if got := RotX(math.Pi / 2).MulVec3(Vec3{0, 1, 0}); !vecNear(got, Vec3{0, 0, 1}) {
		t.Fatalf("expected RotX to take y to z, got %v", got)
	}

	// X is applied first, then Y, then Z.
	r := EulerXYZ(math.Pi/2, 0, math.Pi/2)
	if got := r.MulVec3(Vec3{0, 1, 0}); !vecNear(got, Vec3{0, 0, 1}) {
		t.Fatalf("expected y -> z -> z, got %v", got)
	}
	if got := r.MulVec3(x); !vecNear(got, Vec3{0, 1, 0}) {
		t.Fatalf("expected x -> x -> y, got %v", got)
	}

	if d := r.Det(); math.Abs(d-1) > eps {
		t.Fatalf("expected det 1, got %v", d)
	}
	id := Mat3Mul(r.Transpose(), r)
	for i, want := range Mat3Identity() {
		if math.Abs(id[i]-want) > eps {
			t.Fatalf("expected orthonormal rotation, got %v", id)
		}
	}
	if math.Abs(Deg2Rad(180)-math.Pi) > eps {
		t.Fatal("expected 180 degrees to be pi")
	}
}

func TestVectorHelpers(t *testing.T) {
	a, b := Vec3{0, 0, 0}, Vec3{2, 4, 6}
	if got := Mid(a, b); got != (Vec3{1, 2, 3}) {
		t.Fatalf("expected midpoint (1,2,3), got %v", got)
	}
	if got := Lerp(a, b, 0.25); got != (Vec3{0.5, 1, 1.5}) {
		t.Fatalf("expected quarter point, got %v", got)
	}
	if got := ReflectPoint(Vec3{1, 1, 1}, Vec3{2, 0, 0}); got != (Vec3{3, -1, -1}) {
		t.Fatalf("expected reflection (3,-1,-1), got %v", got)
	}
	if got := (Vec3{1, 0, 0}).Cross(Vec3{0, 1, 0}); got != (Vec3{0, 0, 1}) {
		t.Fatalf("expected x cross y = z, got %v", got)
	}
	if n := (Vec3{3, 0, 4}).Normalize(); !vecNear(n, Vec3{0.6, 0, 0.8}) {
		t.Fatalf("unexpected normalize %v", n)
	}
	if n := (Vec3{}).Normalize(); n != (Vec3{}) {
		t.Fatalf("expected zero vector to stay zero, got %v", n)
	}
	if got := Mid2(Vec2{0, 1}, Vec2{1, 0}); got != (Vec2{0.5, 0.5}) {
		t.Fatalf("expected uv midpoint, got %v", got)
	}
	if got := FromFloat32((Vec3{1, 2, 3}).Float32()); got != (Vec3{1, 2, 3}) {
		t.Fatalf("expected float32 round trip, got %v", got)
	}
}

func TestCameraMatrices(t *testing.T) {
	eye, center := Vec3{0, 0, 5}, Vec3{0, 0, 0}
	view := LookAt(eye, center, Vec3{0, 1, 0})
	if got := view.MulPoint(eye); !vecNear(got, Vec3{}) {
		t.Fatalf("expected eye at the origin, got %v", got)
	}
	if got := view.MulPoint(center); !vecNear(got, Vec3{0, 0, -5}) {
		t.Fatalf("expected target on -z, got %v", got)
	}

	near, far := 1.0, 10.0
	proj := Perspective(math.Pi/2, 1, near, far)
	// Row 3 is (0, 0, -1, 0): w equals the distance along -z.
	for _, c := range []struct{ z, ndc float64 }{{-near, -1}, {-far, 1}} {
		p := proj.MulPoint(Vec3{0, 0, c.z})
		if got := p[2] / -c.z; math.Abs(got-c.ndc) > eps {
			t.Fatalf("z=%v: expected ndc %v, got %v", c.z, c.ndc, got)
		}
	}

	m := FromMat3Translation(RotZ(math.Pi/2), Vec3{1, 0, 0})
	if got := m.MulPoint(Vec3{1, 0, 0}); !vecNear(got, Vec3{1, 1, 0}) {
		t.Fatalf("expected rotate then translate, got %v", got)
	}
	if m.Linear() != RotZ(math.Pi/2) || !Mat4Identity().IsIdentity() || m.IsIdentity() {
		t.Fatal("unexpected linear block or identity test")
	}

	cm := Mat4Identity()
	cm[3] = 7 // row 0, column 3
	if got := cm.ColumnMajor32(); got[12] != 7 {
		t.Fatalf("expected translation in element 12, got %v", got)
	}
	if got := Mat4Mul(view, Mat4Identity()); got != view {
		t.Fatal("expected identity product to leave the matrix unchanged")
	}
}
