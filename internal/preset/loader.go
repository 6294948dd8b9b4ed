package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlPresetFile is the top-level YAML structure for preset files.
type yamlPresetFile struct {
	Presets []yamlPreset `yaml:"presets"`
}

// yamlPreset is the YAML representation of one preset.
type yamlPreset struct {
	Name        string `yaml:"name"`
	Notation    string `yaml:"notation"`
	Description string `yaml:"description"`
}

// LoadFromBytes parses and validates presets from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the preset schema.
// Postcondition: Every returned preset passes Validate.
func LoadFromBytes(data []byte) ([]Preset, error) {
	var file yamlPresetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing preset YAML: %w", err)
	}

	presets := make([]Preset, 0, len(file.Presets))
	for _, p := range file.Presets {
		preset := Preset{
			Name:        strings.ToLower(strings.TrimSpace(p.Name)),
			Notation:    p.Notation,
			Description: p.Description,
		}
		if err := preset.Validate(); err != nil {
			return nil, fmt.Errorf("validating preset: %w", err)
		}
		presets = append(presets, preset)
	}
	return presets, nil
}

// LoadFromFile reads and validates a single preset YAML file.
//
// Precondition: path must point to a valid YAML preset file.
func LoadFromFile(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset file %s: %w", path, err)
	}
	presets, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return presets, nil
}

// LoadFromDir loads every *.yaml/*.yml file in dir, in lexicographic order.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated presets or the first error encountered.
func LoadFromDir(dir string) ([]Preset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading preset dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var presets []Preset
	for _, path := range files {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		presets = append(presets, loaded...)
	}
	return presets, nil
}
