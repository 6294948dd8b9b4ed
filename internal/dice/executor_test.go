package dice_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dicetower/dicebox/internal/dice"
)

// scriptedSource returns a fixed value sequence, then the minimum bound once
// the script runs out. It reports how many draws were made.
type scriptedSource struct {
	values []int
	draws  int
}

func (s *scriptedSource) IntN(min, max int) int {
	s.draws++
	if s.draws <= len(s.values) {
		return s.values[s.draws-1]
	}
	return min
}

// maxSource always rolls the maximum face.
type maxSource struct{}

func (maxSource) IntN(min, max int) int { return max }

func execute(t *testing.T, notation string, src dice.Source) dice.RollResult {
	t.Helper()
	result, err := dice.Roll(notation, src)
	require.NoError(t, err)
	return result
}

// TestExecute_PlainGroup verifies entry count, labels, and aggregation for
// an unmodified group.
func TestExecute_PlainGroup(t *testing.T) {
	src := &scriptedSource{values: []int{3, 5}}
	result := execute(t, "2d6+3", src)

	require.Len(t, result.Rolls, 2)
	for _, entry := range result.Rolls {
		assert.Equal(t, "d6", entry.Die)
		assert.True(t, entry.Kept)
		assert.False(t, entry.Dropped)
	}
	assert.Equal(t, 8, result.Subtotal)
	assert.Equal(t, 3, result.Modifier)
	assert.Equal(t, 11, result.Total)
	assert.Equal(t, "2d6+3", result.Input)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.Timestamp.IsZero())
}

// TestExecute_DropLowest verifies 4d6dl1 keeps exactly three dice and marks
// the single lowest as dropped.
func TestExecute_DropLowest(t *testing.T) {
	src := &scriptedSource{values: []int{4, 1, 6, 3}}
	result := execute(t, "4d6dl1", src)

	require.Len(t, result.Rolls, 4)
	var kept, dropped int
	for _, entry := range result.Rolls {
		if entry.Kept {
			kept++
		}
		if entry.Dropped {
			dropped++
			assert.False(t, entry.Kept, "dropped implies not kept")
			assert.Equal(t, 1, entry.Value, "the lowest die must be the dropped one")
		}
	}
	assert.Equal(t, 3, kept)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 13, result.Subtotal)
	assert.Equal(t, 13, result.Total)
}

// TestExecute_Advantage verifies 2d20kh1: one entry kept (the higher), the
// other excluded without being marked dropped.
func TestExecute_Advantage(t *testing.T) {
	src := &scriptedSource{values: []int{7, 18}}
	result := execute(t, "2d20kh1", src)

	require.Len(t, result.Rolls, 2)
	assert.False(t, result.Rolls[0].Kept)
	assert.False(t, result.Rolls[0].Dropped, "keep exclusion must not mark dropped")
	assert.True(t, result.Rolls[1].Kept)
	assert.Equal(t, 18, result.Subtotal)
}

// TestExecute_Advantage_TieFirstRolledWins verifies stable ordering: on equal
// values the earlier-rolled die is kept.
func TestExecute_Advantage_TieFirstRolledWins(t *testing.T) {
	src := &scriptedSource{values: []int{11, 11}}
	result := execute(t, "2d20kh1", src)

	assert.True(t, result.Rolls[0].Kept)
	assert.False(t, result.Rolls[1].Kept)
}

// TestExecute_DropTie_FirstRolledRanksFirst verifies drop also breaks ties
// by original roll order.
func TestExecute_DropTie_FirstRolledRanksFirst(t *testing.T) {
	src := &scriptedSource{values: []int{2, 2, 5}}
	result := execute(t, "3d6dl1", src)

	assert.True(t, result.Rolls[0].Dropped, "first of the tied lowest dice is dropped")
	assert.False(t, result.Rolls[1].Dropped)
	assert.Equal(t, 7, result.Subtotal)
}

// TestExecute_DropThenKeep verifies the fixed selection order when a group
// carries both modifiers: drop reduces the set first, keep then operates on
// the remainder. The combined form is an accepted grammar edge case.
func TestExecute_DropThenKeep(t *testing.T) {
	src := &scriptedSource{values: []int{6, 2, 4, 5, 1}}
	result := execute(t, "5d6dl1kh2", src)

	// dl1 drops the 1; kh2 keeps 6 and 5 of the remaining {6,2,4,5}.
	var keptValues []int
	for _, entry := range result.Rolls {
		if entry.Kept {
			keptValues = append(keptValues, entry.Value)
		}
	}
	assert.ElementsMatch(t, []int{6, 5}, keptValues)

	assert.True(t, result.Rolls[4].Dropped)
	assert.False(t, result.Rolls[1].Dropped, "keep-excluded dice are not dropped")
	assert.Equal(t, 11, result.Subtotal)
}

// TestExecute_Reroll verifies a die matching the target is rerolled exactly
// once, preserving the original value.
func TestExecute_Reroll(t *testing.T) {
	src := &scriptedSource{values: []int{1, 4, 3}}
	result := execute(t, "2d6r1", src)

	require.Len(t, result.Rolls, 2)
	first := result.Rolls[0]
	assert.True(t, first.Rerolled)
	require.NotNil(t, first.OriginalValue)
	assert.Equal(t, 1, *first.OriginalValue)
	assert.Equal(t, 4, first.Value)

	assert.False(t, result.Rolls[1].Rerolled)
	assert.Equal(t, 7, result.Subtotal)
}

// TestExecute_Reroll_NeverTwice verifies a replacement value equal to the
// target is not rerolled again.
func TestExecute_Reroll_NeverTwice(t *testing.T) {
	src := &scriptedSource{values: []int{1, 1}}
	result := execute(t, "1d6r1", src)

	require.Len(t, result.Rolls, 1)
	entry := result.Rolls[0]
	assert.True(t, entry.Rerolled)
	assert.Equal(t, 1, entry.Value)
	assert.Equal(t, 2, src.draws, "exactly one reroll draw")
}

// TestExecute_Exploding verifies max-face rolls chain bonus entries marked
// exploded, and that the triggering entry itself is not marked.
func TestExecute_Exploding(t *testing.T) {
	src := &scriptedSource{values: []int{6, 6, 2}}
	result := execute(t, "1d6!", src)

	require.Len(t, result.Rolls, 3)
	assert.False(t, result.Rolls[0].Exploded, "triggering entry is never marked exploded")
	assert.True(t, result.Rolls[1].Exploded)
	assert.True(t, result.Rolls[2].Exploded)
	assert.Equal(t, 14, result.Subtotal)
}

// TestExecute_ExplosionCap verifies an always-max source terminates after
// exactly 100 bonus entries.
func TestExecute_ExplosionCap(t *testing.T) {
	result := execute(t, "1d6!", maxSource{})

	require.Len(t, result.Rolls, 1+dice.ExplosionCap)
	var exploded int
	for _, entry := range result.Rolls {
		assert.Equal(t, 6, entry.Value)
		if entry.Exploded {
			exploded++
		}
	}
	assert.Equal(t, dice.ExplosionCap, exploded)
}

// TestExecute_ExplosionCap_SharedAcrossGroup verifies the cap bounds the
// whole group, not each die.
func TestExecute_ExplosionCap_SharedAcrossGroup(t *testing.T) {
	result := execute(t, "3d6!", maxSource{})

	var exploded int
	for _, entry := range result.Rolls {
		if entry.Exploded {
			exploded++
		}
	}
	assert.Equal(t, dice.ExplosionCap, exploded)
	assert.Len(t, result.Rolls, 3+dice.ExplosionCap)
}

// TestExecute_GroupOrderPreserved verifies entries appear in group order,
// then generation order within each group.
func TestExecute_GroupOrderPreserved(t *testing.T) {
	src := &scriptedSource{values: []int{5, 2, 3}}
	result := execute(t, "2d6+1d4+2", src)

	require.Len(t, result.Rolls, 3)
	assert.Equal(t, "d6", result.Rolls[0].Die)
	assert.Equal(t, "d6", result.Rolls[1].Die)
	assert.Equal(t, "d4", result.Rolls[2].Die)
	assert.Equal(t, 10, result.Subtotal)
	assert.Equal(t, 12, result.Total)
}

// TestExecute_InjectableIDAndClock verifies the test seams for id and
// timestamp generation.
func TestExecute_InjectableIDAndClock(t *testing.T) {
	fixed := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	exec := dice.NewExecutor(&scriptedSource{values: []int{4}})
	exec.NewID = func() string { return "roll-1" }
	exec.Now = func() time.Time { return fixed }

	result := exec.Execute(dice.MustParse("1d6"), "1d6")
	assert.Equal(t, "roll-1", result.ID)
	assert.Equal(t, fixed, result.Timestamp)
}

// TestExecute_RangeInvariant_Property verifies 1 <= value <= sides for every
// entry over randomized notations and a real seeded source.
func TestExecute_RangeInvariant_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		sides := rapid.IntRange(1, 100).Draw(rt, "sides")
		seed := rapid.Int64().Draw(rt, "seed")

		notation := fmtNotation(count, sides)
		result, err := dice.Roll(notation, dice.NewSeededSource(seed))
		require.NoError(rt, err)

		for _, entry := range result.Rolls {
			assert.GreaterOrEqual(rt, entry.Value, 1)
			assert.LessOrEqual(rt, entry.Value, sides)
		}
	})
}

// TestExecute_AggregationIdentity_Property verifies Total == Subtotal +
// Modifier and Subtotal == sum of kept values across randomized scenarios.
func TestExecute_AggregationIdentity_Property(t *testing.T) {
	notations := []string{
		"1d20", "4d6dl1", "2d20kh1+5", "3d6!", "2d6r1-2",
		"5d6dl1kh2", "2d8+1d6+3", "1d%", "10d10kl3",
	}
	rapid.Check(t, func(rt *rapid.T) {
		notation := rapid.SampledFrom(notations).Draw(rt, "notation")
		seed := rapid.Int64().Draw(rt, "seed")

		result, err := dice.Roll(notation, dice.NewSeededSource(seed))
		require.NoError(rt, err)

		sum := 0
		for _, entry := range result.Rolls {
			if entry.Kept {
				sum += entry.Value
			}
			if entry.Dropped {
				assert.False(rt, entry.Kept, "dropped implies not kept")
			}
		}
		assert.Equal(rt, sum, result.Subtotal)
		assert.Equal(rt, result.Subtotal+result.Modifier, result.Total)
	})
}

func fmtNotation(count, sides int) string {
	return fmt.Sprintf("%dd%d", count, sides)
}
