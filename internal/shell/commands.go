/// Package shell provides the interactive dice tower: a line-oriented loop
// over a reader/writer pair with a small command registry. Bare notation and
// preset names roll directly; everything else goes through a command.
package shell

import "fmt"

// Command names double as handler identifiers.
const (
	CmdRoll    = "roll"
	CmdHistory = "history"
	CmdPresets = "presets"
	CmdMacro   = "macro"
	CmdSeed    = "seed"
	CmdBell    = "bell"
	CmdHelp    = "help"
	CmdQuit    = "quit"
)

// Command defines a shell-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis, e.g. "roll <notation>".
	Usage string
	// Help is the short help text.
	Help string
}

// BuiltinCommands returns all built-in shell commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: CmdRoll, Usage: "roll <notation>", Help: "roll dice notation (also the default for bare notation)"},
		{Name: CmdHistory, Aliases: []string{"hist", "log"}, Usage: "history [n]", Help: "show the n most recent rolls"},
		{Name: CmdPresets, Aliases: []string{"p"}, Usage: "presets", Help: "list available presets"},
		{Name: CmdMacro, Aliases: []string{"m"}, Usage: "macro <name> [args...]", Help: "run a Lua macro"},
		{Name: CmdSeed, Usage: "seed [n]", Help: "use a seeded deterministic source, or the random one with no argument"},
		{Name: CmdBell, Usage: "bell", Help: "toggle the terminal bell on maximum rolls"},
		{Name: CmdHelp, Aliases: []string{"?"}, Usage: "help", Help: "show this help"},
		{Name: CmdQuit, Aliases: []string{"exit", "q"}, Usage: "quit", Help: "leave the dice tower"},
	}
}

// Registry maps command names and aliases to Command definitions.
type Registry struct {
	commands map[string]*Command // canonical name → command
	aliases  map[string]string   // alias → canonical name
	order    []string            // canonical names in registration order
}

// NewRegistry creates a Registry populated with the given commands.
//
// Precondition: No two commands may share a canonical name or alias.
// Postcondition: Returns a Registry or an error on name/alias collisions.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}

	for i := range cmds {
		cmd := &cmds[i]
		if _, exists := r.commands[cmd.Name]; exists {
			return nil, fmt.Errorf("duplicate command name: %q", cmd.Name)
		}
		if _, exists := r.aliases[cmd.Name]; exists {
			return nil, fmt.Errorf("command name %q conflicts with an existing alias", cmd.Name)
		}
		r.commands[cmd.Name] = cmd
		r.order = append(r.order, cmd.Name)

		for _, alias := range cmd.Aliases {
			if _, exists := r.commands[alias]; exists {
				return nil, fmt.Errorf("alias %q conflicts with command name %q", alias, alias)
			}
			if existing, exists := r.aliases[alias]; exists {
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, existing, cmd.Name)
			}
			r.aliases[alias] = cmd.Name
		}
	}

	return r, nil
}

// DefaultRegistry creates a Registry with all built-in commands.
//
// Postcondition: Returns a Registry with all built-in commands registered.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("shell: building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name or alias.
//
// Postcondition: Returns (command, true) if found, or (nil, false).
func (r *Registry) Resolve(input string) (*Command, bool) {
	if cmd, ok := r.commands[input]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[input]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Commands returns all registered commands in registration order.
func (r *Registry) Commands() []*Command {
	result := make([]*Command, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.commands[name])
	}
	return result
}
