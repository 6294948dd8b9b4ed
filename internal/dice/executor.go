package dice

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ExplosionCap bounds the number of bonus rolls an exploding group may
// generate, guaranteeing termination regardless of notation or randomness.
const ExplosionCap = 100

// Executor evaluates parsed expressions against a Source. Aside from
// timestamp and id generation, Execute is a pure function of the expression
// and the randomness drawn; the Executor retains no state between calls and
// is safe for concurrent use when its Source is.
type Executor struct {
	src Source

	// NewID and Now are injectable for tests; nil selects uuid.NewString
	// and time.Now.
	NewID func() string
	Now   func() time.Time
}

// NewExecutor creates an Executor drawing randomness from src.
//
// Precondition: src must be non-nil.
func NewExecutor(src Source) *Executor {
	if src == nil {
		panic("dice: NewExecutor requires a non-nil Source")
	}
	return &Executor{src: src}
}

// Roll parses notation and executes it in one call.
func Roll(notation string, src Source) (RollResult, error) {
	expr, err := Parse(notation)
	if err != nil {
		return RollResult{}, err
	}
	return NewExecutor(src).Execute(expr, notation), nil
}

// Execute evaluates expr and returns the full audit trail. The executor
// trusts a parser-produced expression and performs no grammar re-validation;
// hand-built expressions must pass DiceGroup.Validate before use.
//
// Postcondition: result.Subtotal == sum of kept values; result.Total ==
// result.Subtotal + expr.Modifier; every entry value is in [1, sides].
func (e *Executor) Execute(expr Expression, input string) RollResult {
	result := RollResult{
		ID:        e.newID(),
		Timestamp: e.now(),
		Input:     input,
		Parsed:    expr,
		Modifier:  expr.Modifier,
	}

	for _, group := range expr.Groups {
		result.Rolls = append(result.Rolls, e.rollGroup(group)...)
	}

	for _, entry := range result.Rolls {
		if entry.Kept {
			result.Subtotal += entry.Value
		}
	}
	result.Total = result.Subtotal + result.Modifier
	return result
}

// rollGroup runs the generation phase (reroll and explosion applied inline)
// and then the selection phase (drop first, then keep) for one group.
func (e *Executor) rollGroup(g DiceGroup) []RollEntry {
	entries := make([]RollEntry, 0, g.Count)
	explosions := 0

	for i := 0; i < g.Count; i++ {
		entry := RollEntry{Die: g.Label(), Value: e.src.IntN(1, g.Sides), Kept: true}

		// A die matching the reroll target is rolled once more; the
		// replacement value is never itself rerolled, even on a second
		// match. Bonus entries from explosions are not rerolled at all.
		if g.Reroll != nil && entry.Value == *g.Reroll {
			original := entry.Value
			entry.Value = e.src.IntN(1, g.Sides)
			entry.Rerolled = true
			entry.OriginalValue = &original
		}
		entries = append(entries, entry)

		if g.Exploding {
			last := entry.Value
			for last == g.Sides && explosions < ExplosionCap {
				bonus := RollEntry{
					Die:      g.Label(),
					Value:    e.src.IntN(1, g.Sides),
					Kept:     true,
					Exploded: true,
				}
				entries = append(entries, bonus)
				explosions++
				last = bonus.Value
			}
		}
	}

	// Selection order is fixed: drop, then keep. When a group carries both,
	// keep operates on the already-reduced set.
	if g.Drop != nil {
		applyDrop(entries, *g.Drop)
	}
	if g.Keep != nil {
		applyKeep(entries, *g.Keep)
	}
	return entries
}

// keptIndices returns the indices of still-kept entries ordered by mode:
// best-first for Highest, worst-first for Lowest. The sort is stable, so
// earlier-rolled dice rank first among equal values.
func keptIndices(entries []RollEntry, mode SelectMode) []int {
	idx := make([]int, 0, len(entries))
	for i := range entries {
		if entries[i].Kept {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if mode == Highest {
			return entries[idx[a]].Value > entries[idx[b]].Value
		}
		return entries[idx[a]].Value < entries[idx[b]].Value
	})
	return idx
}

// applyDrop marks the first spec.Count of the ordered kept set as dropped.
func applyDrop(entries []RollEntry, spec DropSpec) {
	idx := keptIndices(entries, spec.Mode)
	n := spec.Count
	if n > len(idx) {
		n = len(idx)
	}
	for _, i := range idx[:n] {
		entries[i].Kept = false
		entries[i].Dropped = true
	}
}

// applyKeep retains only the first spec.Count of the ordered kept set. The
// excluded entries lose Kept but are never marked Dropped; that flag is
// reserved for the explicit drop modifier.
func applyKeep(entries []RollEntry, spec KeepSpec) {
	idx := keptIndices(entries, spec.Mode)
	if spec.Count >= len(idx) {
		return
	}
	for _, i := range idx[spec.Count:] {
		entries[i].Kept = false
	}
}

func (e *Executor) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
