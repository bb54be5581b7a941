package meshio

import (
	"fmt"
	"path/filepath"
	"strings"

	"lodmesh/internal/basemesh"
)

// Load picks a loader by file extension.
func Load(path string) (*basemesh.Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return LoadOBJ(path)
	case ".bmd":
		return LoadBMD(path)
	default:
		return nil, fmt.Errorf("meshio: unsupported format %q", ext)
	}
}

// Extensions lists the file extensions Load understands.
var Extensions = []string{".obj", ".bmd"}
