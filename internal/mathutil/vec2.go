package mathutil

// Vec2 is a 2-component vector, used for texture coordinates.
type Vec2 [2]float64

func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a[0] + b[0], a[1] + b[1]}
}

func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a[0] - b[0], a[1] - b[1]}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v[0] * s, v[1] * s}
}

// Mid2 returns the average of a and b.
func Mid2(a, b Vec2) Vec2 {
	return a.Add(b).Scale(0.5)
}

func (v Vec2) Float32() [2]float32 {
	return [2]float32{float32(v[0]), float32(v[1])}
}
