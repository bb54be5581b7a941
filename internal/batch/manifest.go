package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one mesh in the output manifest.
type ManifestEntry struct {
	Name      string  `json:"name"`
	Input     string  `json:"input"`
	BaseFaces int     `json:"base_faces"`
	Adjacency string  `json:"adjacency"`
	Levels    []Level `json:"levels"`
	Strip     string  `json:"strip,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// WriteManifest writes the per-level counts of every result to path.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Name:      r.Name,
			Input:     r.Input,
			BaseFaces: r.BaseFaces,
			Levels:    r.Levels,
			Strip:     r.Strip,
			Error:     r.Error,
		}
		if r.BaseFaces > 0 {
			entries[i].Adjacency = r.Adjacency.String()
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
