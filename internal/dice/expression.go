package dice

import (
	"fmt"
	"strconv"
)

// SelectMode orders dice for keep/drop selection.
type SelectMode int

const (
	// Highest orders dice best-first (descending by value).
	Highest SelectMode = iota
	// Lowest orders dice worst-first (ascending by value).
	Lowest
)

// String returns "highest" or "lowest".
func (m SelectMode) String() string {
	if m == Lowest {
		return "lowest"
	}
	return "highest"
}

// KeepSpec retains only the best/worst Count dice of a group; the rest are
// excluded from the subtotal without being marked dropped.
type KeepSpec struct {
	Mode  SelectMode
	Count int
}

// DropSpec explicitly excludes the best/worst Count dice of a group from the
// subtotal, marking them dropped.
type DropSpec struct {
	Mode  SelectMode
	Count int
}

// DiceGroup is one "NdX" clause together with its modifiers. A group may
// carry both a Keep and a Drop spec; the executor applies drop first, then
// keep.
type DiceGroup struct {
	Count     int
	Sides     int
	Keep      *KeepSpec
	Drop      *DropSpec
	Exploding bool
	// Reroll, when set, is the face value that triggers a single reroll.
	Reroll *int
}

// NewDiceGroup constructs a DiceGroup with no modifiers, rejecting
// non-positive count or sides. The parser builds groups only through this
// guard; the executor trusts groups built this way.
func NewDiceGroup(count, sides int) (DiceGroup, error) {
	g := DiceGroup{Count: count, Sides: sides}
	if err := g.Validate(); err != nil {
		return DiceGroup{}, err
	}
	return g, nil
}

// Validate checks the structural invariants of the group: positive count
// and sides, positive keep/drop counts when present.
func (g DiceGroup) Validate() error {
	if g.Count < 1 {
		return syntaxError("dice count must be at least 1, got %d", g.Count)
	}
	if g.Sides < 1 {
		return syntaxError("dice sides must be at least 1, got %d", g.Sides)
	}
	if g.Keep != nil && g.Keep.Count < 1 {
		return syntaxError("keep count must be at least 1, got %d", g.Keep.Count)
	}
	if g.Drop != nil && g.Drop.Count < 1 {
		return syntaxError("drop count must be at least 1, got %d", g.Drop.Count)
	}
	return nil
}

// Label returns the die label for entries of this group, e.g. "d6".
func (g DiceGroup) Label() string {
	return "d" + strconv.Itoa(g.Sides)
}

// String returns the canonical notation for the group, e.g. "4d6dl1!".
func (g DiceGroup) String() string {
	s := fmt.Sprintf("%dd%d", g.Count, g.Sides)
	if g.Keep != nil {
		if g.Keep.Mode == Highest {
			s += fmt.Sprintf("kh%d", g.Keep.Count)
		} else {
			s += fmt.Sprintf("kl%d", g.Keep.Count)
		}
	}
	if g.Drop != nil {
		if g.Drop.Mode == Highest {
			s += fmt.Sprintf("dh%d", g.Drop.Count)
		} else {
			s += fmt.Sprintf("dl%d", g.Drop.Count)
		}
	}
	if g.Exploding {
		s += "!"
	}
	if g.Reroll != nil {
		s += fmt.Sprintf("r%d", *g.Reroll)
	}
	return s
}

// Expression is the parsed form of a notation string: the dice groups in
// source order plus the signed sum of all bare-number terms.
type Expression struct {
	Groups   []DiceGroup
	Modifier int
}
