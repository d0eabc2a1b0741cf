package bundle

import (
	"os"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// ModuleReport describes one transformed server module.
type ModuleReport struct {
	Module string  `json:"module"`
	Output string  `json:"output,omitempty"`
	Chunks []Asset `json:"chunks"`
}

// Report is the machine-readable summary of a build.
type Report struct {
	Modules  []ModuleReport `json:"modules"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ChunkCount returns the total number of emitted chunks.
func (r *Report) ChunkCount() int {
	n := 0
	for _, m := range r.Modules {
		n += len(m.Chunks)
	}
	return n
}

// Encode renders the report as indented JSON.
func (r *Report) Encode() ([]byte, error) {
	return json.Marshal(r, jsontext.WithIndent("  "))
}

// WriteFile writes the encoded report to path.
func (r *Report) WriteFile(path string) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
