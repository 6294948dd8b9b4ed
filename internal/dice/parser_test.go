package dice_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dicetower/dicebox/internal/dice"
)

// TestParse_SimpleGroup verifies the round-trip structure of a bare NdX.
func TestParse_SimpleGroup(t *testing.T) {
	expr, err := dice.Parse("1d20")
	require.NoError(t, err)

	require.Len(t, expr.Groups, 1)
	g := expr.Groups[0]
	assert.Equal(t, 1, g.Count)
	assert.Equal(t, 20, g.Sides)
	assert.Nil(t, g.Keep)
	assert.Nil(t, g.Drop)
	assert.False(t, g.Exploding)
	assert.Nil(t, g.Reroll)
	assert.Equal(t, 0, expr.Modifier)
}

// TestParse_ModifierArithmetic verifies the signed sum of bare-number terms.
func TestParse_ModifierArithmetic(t *testing.T) {
	tests := []struct {
		notation string
		groups   int
		modifier int
	}{
		{"2d6+3", 1, 3},
		{"2d6-2", 1, -2},
		{"2d6+1d4+5", 2, 5},
		{"5+2d6", 1, 5},
		{"2d6+3-1", 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.notation, func(t *testing.T) {
			expr, err := dice.Parse(tt.notation)
			require.NoError(t, err)
			assert.Len(t, expr.Groups, tt.groups)
			assert.Equal(t, tt.modifier, expr.Modifier)
		})
	}
}

// TestParse_DefaultCount verifies a dice term with no leading count rolls one die.
func TestParse_DefaultCount(t *testing.T) {
	expr, err := dice.Parse("d20")
	require.NoError(t, err)
	require.Len(t, expr.Groups, 1)
	assert.Equal(t, 1, expr.Groups[0].Count)
}

// TestParse_PercentSides verifies d% is sugar for d100.
func TestParse_PercentSides(t *testing.T) {
	percent, err := dice.Parse("1d%")
	require.NoError(t, err)
	literal, err := dice.Parse("1d100")
	require.NoError(t, err)
	assert.Equal(t, literal.Groups[0].Sides, percent.Groups[0].Sides)
	assert.Equal(t, 100, percent.Groups[0].Sides)
}

// TestParse_KeepDefaultCount verifies "2d20kh" and "2d20kh1" are equivalent.
func TestParse_KeepDefaultCount(t *testing.T) {
	explicit, err := dice.Parse("2d20kh1")
	require.NoError(t, err)
	implicit, err := dice.Parse("2d20kh")
	require.NoError(t, err)
	assert.Equal(t, explicit, implicit)
	require.NotNil(t, implicit.Groups[0].Keep)
	assert.Equal(t, 1, implicit.Groups[0].Keep.Count)
	assert.Equal(t, dice.Highest, implicit.Groups[0].Keep.Mode)
}

// TestParse_Modifiers covers each modifier's AST slot.
func TestParse_Modifiers(t *testing.T) {
	expr, err := dice.Parse("4d6kl2dh1!r1")
	require.NoError(t, err)

	g := expr.Groups[0]
	require.NotNil(t, g.Keep)
	assert.Equal(t, dice.Lowest, g.Keep.Mode)
	assert.Equal(t, 2, g.Keep.Count)
	require.NotNil(t, g.Drop)
	assert.Equal(t, dice.Highest, g.Drop.Mode)
	assert.Equal(t, 1, g.Drop.Count)
	assert.True(t, g.Exploding)
	require.NotNil(t, g.Reroll)
	assert.Equal(t, 1, *g.Reroll)
}

// TestParse_RepeatedModifierLastWins verifies the preserved permissiveness:
// repeated modifiers of one kind are accepted with last-write-wins semantics.
func TestParse_RepeatedModifierLastWins(t *testing.T) {
	expr, err := dice.Parse("4d6kh1kh2")
	require.NoError(t, err)
	require.NotNil(t, expr.Groups[0].Keep)
	assert.Equal(t, 2, expr.Groups[0].Keep.Count)

	expr, err = dice.Parse("4d6kh2kl1")
	require.NoError(t, err)
	assert.Equal(t, dice.Lowest, expr.Groups[0].Keep.Mode)
	assert.Equal(t, 1, expr.Groups[0].Keep.Count)
}

// TestParse_KeepAndDropTogether verifies both slots may be filled at once;
// their combined executor semantics are covered in the executor tests.
func TestParse_KeepAndDropTogether(t *testing.T) {
	expr, err := dice.Parse("5d6dl1kh2")
	require.NoError(t, err)
	g := expr.Groups[0]
	require.NotNil(t, g.Keep)
	require.NotNil(t, g.Drop)
	assert.Equal(t, 2, g.Keep.Count)
	assert.Equal(t, 1, g.Drop.Count)
}

// TestParse_Rejections verifies structurally invalid notations fail in full.
func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		notation string
		kind     dice.ErrorKind
	}{
		{"not notation", "invalid", dice.KindLexical},
		{"missing sides", "1d", dice.KindSyntax},
		{"reroll without target", "2d6r", dice.KindSyntax},
		{"empty input", "", dice.KindSyntax},
		{"dangling plus", "2d6+", dice.KindSyntax},
		{"double d", "2dd6", dice.KindSyntax},
		{"zero count", "0d6", dice.KindSyntax},
		{"zero sides", "1d0", dice.KindSyntax},
		{"zero keep count", "2d6kh0", dice.KindSyntax},
		{"zero drop count", "2d6dl0", dice.KindSyntax},
		{"trailing tokens", "1d6%", dice.KindSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dice.Parse(tt.notation)
			require.Error(t, err)

			var nerr *dice.NotationError
			require.ErrorAs(t, err, &nerr)
			assert.Equal(t, tt.kind, nerr.Kind)
		})
	}
}

// TestParse_RerollErrorMessage verifies the reroll failure names the operator.
func TestParse_RerollErrorMessage(t *testing.T) {
	_, err := dice.Parse("2d6r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected number after reroll operator")
}

// TestParse_TrailingTokenErrorMessage verifies leftover tokens after a
// complete expression are a hard error.
func TestParse_TrailingTokenErrorMessage(t *testing.T) {
	_, err := dice.Parse("2d6!r1 d4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected trailing token")
}

// TestParse_CaseInsensitive verifies notation keywords are case-insensitive.
func TestParse_CaseInsensitive(t *testing.T) {
	upper, err := dice.Parse("2D20KH1+5")
	require.NoError(t, err)
	lower, err := dice.Parse("2d20kh1+5")
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

// TestParse_Totality_Property generates well-formed notations and verifies
// Parse accepts all of them with the expected group count and modifier.
func TestParse_Totality_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 20).Draw(rt, "count")
		sides := rapid.IntRange(1, 1000).Draw(rt, "sides")
		mod := rapid.IntRange(0, 99).Draw(rt, "mod")
		negative := rapid.Bool().Draw(rt, "negative")

		sign := "+"
		want := mod
		if negative {
			sign = "-"
			want = -mod
		}
		input := fmt.Sprintf("%dd%d%s%d", count, sides, sign, mod)

		expr, err := dice.Parse(input)
		require.NoError(rt, err, "notation %q must parse", input)
		require.Len(rt, expr.Groups, 1)
		assert.Equal(rt, count, expr.Groups[0].Count)
		assert.Equal(rt, sides, expr.Groups[0].Sides)
		assert.Equal(rt, want, expr.Modifier)
	})
}

// TestMustParse_PanicsOnInvalid verifies MustParse enforces validity.
func TestMustParse_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("nonsense") })
	assert.NotPanics(t, func() { dice.MustParse("2d20kh1+5") })
}
