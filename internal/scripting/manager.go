package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dicetower/dicebox/internal/dice"
)

// Manager owns one sandboxed LState holding all loaded macros and exposes
// macro invocation.
//
// Manager is safe for concurrent Call after LoadDir completes; the mutex
// serializes access to the single-threaded LState.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	limit  int
	logger *zap.Logger

	// baseline holds the function globals present before any macro file
	// loaded (Lua stdlib and the dice module), so Names can exclude them.
	baseline map[string]bool

	// Roll is injected after construction. nil = macros cannot roll; the
	// dice.roll and dice.check Lua functions raise a Lua error instead.
	Roll func(notation string) (dice.RollResult, error)
}

// NewManager creates a Manager with an empty macro VM.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 uses the default).
// Postcondition: Returns a non-nil Manager; the caller must Close it.
func NewManager(logger *zap.Logger, instLimit int) *Manager {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	m := &Manager{limit: instLimit, logger: logger}
	m.state = NewSandboxedState(instLimit)
	m.registerModules(m.state)
	m.baseline = make(map[string]bool)
	for _, name := range functionGlobals(m.state) {
		m.baseline[name] = true
	}
	return m
}

func functionGlobals(L *lua.LState) []string {
	var names []string
	globals := L.Get(lua.GlobalsIndex).(*lua.LTable)
	globals.ForEach(func(key, value lua.LValue) {
		if _, ok := value.(*lua.LFunction); ok {
			names = append(names, key.String())
		}
	})
	return names
}

// LoadDir executes every *.lua file in dir in lexicographic order, defining
// macro functions as Lua globals.
//
// Precondition: dir must be a readable directory.
// Postcondition: All macro files are loaded, or an error names the first
// file that failed.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading macro dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, path := range luaFiles {
		resetInstructionBudget(m.state, m.limit)
		if err := m.state.DoFile(path); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	return nil
}

// Names returns the loaded macro names: every function global defined by a
// macro file, excluding the stdlib and built-in modules.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for _, name := range functionGlobals(m.state) {
		if !m.baseline[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Call invokes the named global Lua function with string arguments and
// returns its first return value rendered as a string. Each invocation gets
// a fresh instruction budget.
//
// Postcondition: Returns the macro's result, or an error if the macro is
// undefined or raised a Lua error (including budget exhaustion).
func (m *Manager) Call(name string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn := m.state.GetGlobal(name)
	if _, ok := fn.(*lua.LFunction); !ok {
		return "", fmt.Errorf("scripting: macro %q is not defined", name)
	}

	luaArgs := make([]lua.LValue, len(args))
	for i, arg := range args {
		luaArgs[i] = lua.LString(arg)
	}

	resetInstructionBudget(m.state, m.limit)
	if err := m.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, luaArgs...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("macro", name),
			zap.Error(err),
		)
		return "", fmt.Errorf("scripting: macro %q: %w", name, err)
	}

	ret := m.state.Get(-1)
	m.state.Pop(1)
	if ret == lua.LNil {
		return "", nil
	}
	return ret.String(), nil
}

// Close releases the macro VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}
