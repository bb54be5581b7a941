package meshio

import (
	"path/filepath"
	"regexp"
	"strings"
)

var gradientEffectRE = regexp.MustCompile(`^(?:mini_|hangul)?gra(?:\d|_|$)`)

// effectPatterns are substrings of texture stems used by additive overlays:
// glows, flares, trails and similar camera-facing cards.
var effectPatterns = []string{
	"glow", "flare", "chrome", "effect",
	"aura", "shiny", "spark", "fire", "blur",
	"lightmarks", "light_blue", "light_red",
	"energy", "plasma", "shine", "halo", "trail",
	"gradation", "alpha_line", "shockwave", "swordeff",
}

// effectPrefixPatterns must match at the start of the stem. "flame" alone
// would also hit names like "box_flame_wood".
var effectPrefixPatterns = []string{"flame"}

// IsEffectTexture reports whether a sub-mesh textured with path is an effect
// overlay rather than surface geometry.
func IsEffectTexture(path string) bool {
	tex := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	stem := strings.TrimSuffix(filepath.Base(tex), filepath.Ext(tex))
	if stem == "" || stem == "." {
		return false
	}

	if gradientEffectRE.MatchString(stem) {
		return true
	}
	for _, p := range effectPatterns {
		if strings.Contains(stem, p) {
			return true
		}
	}
	for _, p := range effectPrefixPatterns {
		if strings.HasPrefix(stem, p) {
			return true
		}
	}
	return false
}

// surfaceMeshes marks the sub-meshes to merge. Effect overlays are dropped
// unless nothing else is left.
func surfaceMeshes(meshes []bmdMesh) []bool {
	keep := make([]bool, len(meshes))
	found := false
	for i, m := range meshes {
		keep[i] = !IsEffectTexture(m.texPath)
		found = found || keep[i]
	}
	if !found {
		for i := range keep {
			keep[i] = true
		}
	}
	return keep
}
