package raster

import (
	"math"

	"lodmesh/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters.
type LightConfig struct {
	LightDir mathutil.Vec3
	RimDir   mathutil.Vec3
	HalfMain mathutil.Vec3 // half-vector for Blinn-Phong
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

// DefaultLightConfig is a key light from the upper right, a cool rim from
// behind and a hemisphere fill.
func DefaultLightConfig() LightConfig {
	lightDir := mathutil.Vec3{180, 260, 140}.Normalize()
	viewDir := mathutil.Vec3{0, 0, -1}
	return LightConfig{
		LightDir: lightDir,
		RimDir:   mathutil.Vec3{-160, 130, -210}.Normalize(),
		HalfMain: lightDir.Sub(viewDir).Normalize(),
		Ambient:  0.45,
		Hemi:     0.40,
		Direct:   1.30,
		Rim:      0.45,
		SpecInt:  0.35,
		SpecPow:  16.0,
		Exposure: 1.0,
		InvGamma: 1.0 / 2.2,
	}
}

// Shade returns the lighting scalar for a unit view-space normal. Faces are
// lit from both sides.
func (lc *LightConfig) Shade(n mathutil.Vec3) float64 {
	ndlMain := math.Abs(n.Dot(lc.LightDir))
	ndlRim := math.Abs(n.Dot(lc.RimDir))
	hemi := ((1.0-math.Abs(n[1]))*0.5 + 0.5) * lc.Hemi
	spec := math.Pow(math.Max(n.Dot(lc.HalfMain), 0), lc.SpecPow) * lc.SpecInt
	return lc.Ambient + hemi + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Apply lights an sRGB texel and returns the display value.
func (lc *LightConfig) Apply(c uint8, shade float64) uint8 {
	lin := srgbToLinear[c] * shade * lc.Exposure
	return clamp255(math.Pow(acesTonemap(lin), lc.InvGamma) * 255)
}

// Precomputed sRGB-to-linear lookup table.
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// acesTonemap applies ACES filmic tone mapping to a linear value.
func acesTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
