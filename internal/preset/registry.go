package preset

import (
	"fmt"
	"sort"
)

// Registry maps preset names to definitions.
type Registry struct {
	presets map[string]Preset
}

// NewRegistry creates a Registry populated with the given presets.
//
// Precondition: No two presets may share a name.
// Postcondition: Returns a Registry or an error on name collisions or
// invalid presets.
func NewRegistry(presets []Preset) (*Registry, error) {
	r := &Registry{presets: make(map[string]Preset, len(presets))}
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.presets[p.Name]; exists {
			return nil, fmt.Errorf("duplicate preset name: %q", p.Name)
		}
		r.presets[p.Name] = p
	}
	return r, nil
}

// DefaultRegistry creates a Registry with only the built-in presets.
//
// Postcondition: Returns a non-nil Registry.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinPresets())
	if err != nil {
		panic(fmt.Sprintf("preset: building default registry: %v", err))
	}
	return r
}

// Combine merges loaded presets over the builtins: a loaded preset with a
// builtin's name shadows it.
//
// Postcondition: Returns a Registry or an error on duplicates within loaded.
func Combine(builtin, loaded []Preset) (*Registry, error) {
	merged := make(map[string]Preset, len(builtin)+len(loaded))
	for _, p := range builtin {
		merged[p.Name] = p
	}
	seen := make(map[string]bool, len(loaded))
	for _, p := range loaded {
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate preset name: %q", p.Name)
		}
		seen[p.Name] = true
		merged[p.Name] = p
	}

	all := make([]Preset, 0, len(merged))
	for _, p := range merged {
		all = append(all, p)
	}
	return NewRegistry(all)
}

// Resolve looks up a preset by name.
//
// Postcondition: Returns (preset, true) if found, or (zero, false).
func (r *Registry) Resolve(name string) (Preset, bool) {
	p, ok := r.presets[name]
	return p, ok
}

// All returns every preset sorted by name.
func (r *Registry) All() []Preset {
	all := make([]Preset, 0, len(r.presets))
	for _, p := range r.presets {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Len returns the number of registered presets.
func (r *Registry) Len() int {
	return len(r.presets)
}
