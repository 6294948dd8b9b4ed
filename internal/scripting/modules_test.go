package scripting_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicetower/dicebox/internal/dice"
	"github.com/dicetower/dicebox/internal/scripting"
)

func managerWithSeededRolls(t *testing.T, seed int64) *scripting.Manager {
	t.Helper()
	m := newManager(t, 0)
	src := dice.NewSeededSource(seed)
	m.Roll = func(notation string) (dice.RollResult, error) {
		return dice.Roll(notation, src)
	}
	return m
}

func TestDiceModule_RollTableShape(t *testing.T) {
	dir := t.TempDir()
	writeMacro(t, dir, "shape.lua", `
function shape()
	local r = dice.roll("4d6dl1+2")
	local n = 0
	local sum = 0
	for _, v in ipairs(r.values) do
		n = n + 1
		sum = sum + v
	end
	if n ~= 3 then
		return "want 3 kept values, got " .. n
	end
	if sum ~= r.subtotal then
		return "values do not sum to subtotal"
	end
	if r.total ~= r.subtotal + r.modifier then
		return "total identity broken"
	end
	if r.modifier ~= 2 then
		return "modifier lost"
	end
	return "ok"
end
`)

	m := managerWithSeededRolls(t, 7)
	require.NoError(t, m.LoadDir(dir))

	out, err := m.Call("shape")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestDiceModule_RollInvalidNotationRaises(t *testing.T) {
	dir := t.TempDir()
	writeMacro(t, dir, "bad.lua", `
function bad()
	return dice.roll("1d").total
end
`)

	m := managerWithSeededRolls(t, 1)
	require.NoError(t, m.LoadDir(dir))

	_, err := m.Call("bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1d")
}

func TestDiceModule_Check(t *testing.T) {
	dir := t.TempDir()
	writeMacro(t, dir, "check.lua", `
function check(notation)
	if dice.check(notation) then
		return "valid"
	end
	return "invalid"
end
`)

	m := managerWithSeededRolls(t, 1)
	require.NoError(t, m.LoadDir(dir))

	out, err := m.Call("check", "2d20kh1+5")
	require.NoError(t, err)
	assert.Equal(t, "valid", out)

	out, err = m.Call("check", "2d6r")
	require.NoError(t, err)
	assert.Equal(t, "invalid", out)
}

func TestDiceModule_ComposedMacro(t *testing.T) {
	// The stat-block macro from the examples: six 4d6dl1 rolls.
	dir := t.TempDir()
	writeMacro(t, dir, "stats.lua", `
function statblock()
	local out = {}
	for i = 1, 6 do
		out[i] = dice.roll("4d6dl1").subtotal
	end
	return table.concat(out, " ")
end
`)

	m := managerWithSeededRolls(t, 42)
	require.NoError(t, m.LoadDir(dir))

	out, err := m.Call("statblock")
	require.NoError(t, err)

	fields := strings.Fields(out)
	require.Len(t, fields, 6)
	for _, f := range fields {
		score, err := strconv.Atoi(f)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 3)
		assert.LessOrEqual(t, score, 18)
	}
}
