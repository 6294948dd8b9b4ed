package scripting

import lua "github.com/yuin/gopher-lua"

// registerModules registers the dice.* Lua table into L.
//
// dice.roll(notation) executes a roll through the Manager's injected Roll
// callback and returns a table {total, subtotal, modifier, values}, where
// values is an array of every kept die value. dice.check(notation) returns
// true when the notation parses and rolls cleanly, false otherwise.
//
// Both raise a Lua error when no Roll callback is injected; dice.roll also
// raises on invalid notation.
func (m *Manager) registerModules(L *lua.LState) {
	diceTable := L.NewTable()

	L.SetField(diceTable, "roll", L.NewFunction(func(L *lua.LState) int {
		notation := L.CheckString(1)
		if m.Roll == nil {
			L.RaiseError("dice.roll is not available")
			return 0
		}
		result, err := m.Roll(notation)
		if err != nil {
			L.RaiseError("dice.roll(%s): %s", notation, err.Error())
			return 0
		}

		out := L.NewTable()
		L.SetField(out, "total", lua.LNumber(result.Total))
		L.SetField(out, "subtotal", lua.LNumber(result.Subtotal))
		L.SetField(out, "modifier", lua.LNumber(result.Modifier))

		values := L.NewTable()
		for _, entry := range result.Rolls {
			if entry.Kept {
				values.Append(lua.LNumber(entry.Value))
			}
		}
		L.SetField(out, "values", values)

		L.Push(out)
		return 1
	}))

	L.SetField(diceTable, "check", L.NewFunction(func(L *lua.LState) int {
		notation := L.CheckString(1)
		if m.Roll == nil {
			L.RaiseError("dice.check is not available")
			return 0
		}
		_, err := m.Roll(notation)
		L.Push(lua.LBool(err == nil))
		return 1
	}))

	L.SetGlobal("dice", diceTable)
}
