package dice

import (
	"fmt"
	"strings"
	"time"
)

// RollEntry is one die's outcome within a RollResult.
//
// Invariants: Dropped implies !Kept. Rerolled implies OriginalValue holds
// the pre-reroll value and Value the replacement. Exploded marks an entry
// generated as a bonus from an exploding die, never the triggering entry.
type RollEntry struct {
	// Die is the die label, e.g. "d6".
	Die string
	// Value is the settled face value, in [1, sides].
	Value int
	// Kept reports whether Value contributes to the subtotal.
	Kept bool
	// Dropped is set only by an explicit drop modifier, never by keep.
	Dropped bool
	// Exploded marks a bonus entry appended by an exploding die.
	Exploded bool
	// Rerolled marks a die replaced once by the reroll modifier.
	Rerolled bool
	// OriginalValue is the pre-reroll value when Rerolled is set.
	OriginalValue *int
}

// RollResult is the full audit trail for one roll invocation. It is created
// once per Execute call and never mutated afterward; ownership transfers
// entirely to the caller.
//
// Invariants: Subtotal == sum(Value of entries with Kept); Total ==
// Subtotal + Modifier.
type RollResult struct {
	// ID is a fresh UUID per invocation.
	ID string
	// Timestamp is the instant the roll was executed.
	Timestamp time.Time
	// Input is the notation string, copied verbatim.
	Input string
	// Parsed is the expression the roll evaluated.
	Parsed Expression
	// Rolls lists every die in group order, then generation order within
	// each group.
	Rolls    []RollEntry
	Subtotal int
	Modifier int
	Total    int
}

// String returns a human-readable audit string in the format:
//
//	"4d6dl1+2 → [3 5 (1) 6] +2 = 16"
//
// Non-kept values are parenthesized; rerolled dice show the original value
// struck through as "old→new"; exploded entries carry a trailing "!".
func (r RollResult) String() string {
	var b strings.Builder
	b.WriteString(r.Input)
	b.WriteString(" → [")
	for i, entry := range r.Rolls {
		if i > 0 {
			b.WriteByte(' ')
		}
		v := fmt.Sprintf("%d", entry.Value)
		if entry.Rerolled && entry.OriginalValue != nil {
			v = fmt.Sprintf("%d→%d", *entry.OriginalValue, entry.Value)
		}
		if entry.Exploded {
			v += "!"
		}
		if !entry.Kept {
			v = "(" + v + ")"
		}
		b.WriteString(v)
	}
	fmt.Fprintf(&b, "] %+d = %d", r.Modifier, r.Total)
	return b.String()
}
