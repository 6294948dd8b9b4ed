// Package preset provides named notation shortcuts: built-in standards like
// advantage and stat rolls, plus user-defined presets loaded from YAML files.
package preset

import (
	"fmt"

	"github.com/dicetower/dicebox/internal/dice"
)

// Preset is a named dice notation.
type Preset struct {
	// Name is the unique lookup key, e.g. "advantage".
	Name string
	// Notation is the dice expression rolled for this preset.
	Notation string
	// Description is the short help text shown in listings.
	Description string
}

// Validate checks that the preset has a name and a parseable notation.
func (p Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset name must not be empty")
	}
	if _, err := dice.Parse(p.Notation); err != nil {
		return fmt.Errorf("preset %q notation %q: %w", p.Name, p.Notation, err)
	}
	return nil
}

// BuiltinPresets returns the presets available without any configuration.
//
// Postcondition: Every returned preset passes Validate.
func BuiltinPresets() []Preset {
	return []Preset{
		{Name: "advantage", Notation: "2d20kh1", Description: "d20 with advantage"},
		{Name: "disadvantage", Notation: "2d20kl1", Description: "d20 with disadvantage"},
		{Name: "stats", Notation: "4d6dl1", Description: "one ability score (4d6 drop lowest)"},
		{Name: "percentile", Notation: "1d%", Description: "percentile roll"},
		{Name: "coin", Notation: "1d2", Description: "coin flip"},
	}
}
