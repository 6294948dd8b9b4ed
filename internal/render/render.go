// Package render turns roll results, history, and preset listings into
// terminal text. Color and bell are presentation concerns only; the engine's
// result objects are never modified here.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/dicetower/dicebox/internal/dice"
	"github.com/dicetower/dicebox/internal/history"
	"github.com/dicetower/dicebox/internal/preset"
)

// Options controls renderer behavior.
type Options struct {
	// Color enables ANSI colors.
	Color bool
	// Bell appends a terminal bell when any die shows its maximum face.
	Bell bool
}

// Renderer renders engine output for a terminal.
type Renderer struct {
	opts Options

	kept     *color.Color
	excluded *color.Color
	total    *color.Color
	label    *color.Color
}

// New creates a Renderer with the given options.
func New(opts Options) *Renderer {
	r := &Renderer{
		opts:     opts,
		kept:     color.New(color.FgHiWhite),
		excluded: color.New(color.FgHiBlack),
		total:    color.New(color.Bold),
		label:    color.New(color.FgCyan),
	}
	if !opts.Color {
		for _, c := range []*color.Color{r.kept, r.excluded, r.total, r.label} {
			c.DisableColor()
		}
	}
	return r
}

// SetBell toggles the bell at runtime.
func (r *Renderer) SetBell(enabled bool) {
	r.opts.Bell = enabled
}

// Bell reports whether the bell is enabled.
func (r *Renderer) Bell() bool {
	return r.opts.Bell
}

// Result renders one roll: notation, every die (non-kept parenthesized and
// dimmed, rerolls shown as old→new, explosions marked), modifier, and total.
func (r *Renderer) Result(result dice.RollResult) string {
	var b strings.Builder

	b.WriteString(r.label.Sprint(result.Input))
	b.WriteString(" → [")
	maxFace := false
	for i, entry := range result.Rolls {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r.entry(entry))
		if entry.Value == sidesOf(entry.Die) {
			maxFace = true
		}
	}
	b.WriteString("]")
	if result.Modifier != 0 {
		fmt.Fprintf(&b, " %+d", result.Modifier)
	}
	b.WriteString(" = ")
	b.WriteString(r.total.Sprintf("%d", result.Total))

	if r.opts.Bell && maxFace {
		b.WriteByte('\a')
	}
	return b.String()
}

func (r *Renderer) entry(entry dice.RollEntry) string {
	v := fmt.Sprintf("%d", entry.Value)
	if entry.Rerolled && entry.OriginalValue != nil {
		v = fmt.Sprintf("%d→%d", *entry.OriginalValue, entry.Value)
	}
	if entry.Exploded {
		v += "!"
	}
	if entry.Kept {
		return r.kept.Sprint(v)
	}
	return r.excluded.Sprint("(" + v + ")")
}

// History renders entries as one line per roll, newest first, in the order
// given.
func (r *Renderer) History(entries []history.Entry) string {
	if len(entries) == 0 {
		return "no rolls recorded"
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s  %s  %s = %s",
			e.RolledAt.Format("15:04:05"),
			r.label.Sprint(e.Notation),
			r.historyValues(e),
			r.total.Sprintf("%d", e.Total),
		))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) historyValues(e history.Entry) string {
	parts := make([]string, 0, len(e.Rolls))
	for _, entry := range e.Rolls {
		parts = append(parts, r.entry(entry))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Presets renders the preset listing, one per line.
func (r *Renderer) Presets(presets []preset.Preset) string {
	if len(presets) == 0 {
		return "no presets defined"
	}
	width := 0
	for _, p := range presets {
		if len(p.Name) > width {
			width = len(p.Name)
		}
	}
	lines := make([]string, 0, len(presets))
	for _, p := range presets {
		line := fmt.Sprintf("%s  %s", r.label.Sprintf("%-*s", width, p.Name), p.Notation)
		if p.Description != "" {
			line += "  - " + p.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// sidesOf recovers the face count from a die label like "d6"; 0 when the
// label is malformed.
func sidesOf(die string) int {
	if len(die) < 2 || die[0] != 'd' {
		return 0
	}
	n := 0
	for _, c := range die[1:] {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
