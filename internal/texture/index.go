package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// Extensions lists the texture formats the loader decodes, by preference:
// when two files share a stem the earlier extension wins.
var Extensions = []string{".tga", ".png", ".ozt", ".jpg", ".jpeg", ".ozj"}

func rank(ext string) int {
	for i, e := range Extensions {
		if e == ext {
			return i
		}
	}
	return -1
}

// Index maps lowercase texture stems to filesystem paths.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex walks every directory for texture files.
func BuildIndex(dirs ...string) *Index {
	idx := &Index{entries: make(map[string]string)}
	for _, dir := range dirs {
		filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			r := rank(ext)
			if r < 0 {
				return nil
			}
			stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
			if existing, ok := idx.entries[stem]; !ok || r < rank(strings.ToLower(filepath.Ext(existing))) {
				idx.entries[stem] = path
			}
			return nil
		})
	}
	return idx
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
// Names that point at an existing file resolve to themselves; anything else
// is looked up by stem, so "Data\\Item\\sword.jpg" finds sword.tga.
func (idx *Index) ResolvePath(texName string) (string, bool) {
	if texName == "" {
		return "", false
	}
	texName = strings.ReplaceAll(texName, "\\", "/")
	if info, err := os.Stat(texName); err == nil && !info.IsDir() {
		return texName, true
	}
	if idx == nil {
		return "", false
	}
	base := filepath.Base(texName)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}
