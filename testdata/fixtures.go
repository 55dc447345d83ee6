// Package testdata embeds recorded landmark sequences used by tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
)

//go:embed hands/*.json
var handsFS embed.FS

// LoadSequence loads a landmark sequence by name, e.g. "sweep_right".
// A null entry is a frame in which no hand was seen.
func LoadSequence(name string) ([]*detector.HandLandmarks, error) {
	data, err := handsFS.ReadFile(path.Join("hands", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("load sequence %s: %w", name, err)
	}

	var frames []*detector.HandLandmarks
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("decode sequence %s: %w", name, err)
	}
	return frames, nil
}

// Sequences lists the names of the embedded sequences.
func Sequences() ([]string, error) {
	entries, err := handsFS.ReadDir("hands")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return names, nil
}
