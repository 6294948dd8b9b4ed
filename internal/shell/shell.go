package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dicetower/dicebox/internal/dice"
	"github.com/dicetower/dicebox/internal/history"
	"github.com/dicetower/dicebox/internal/preset"
	"github.com/dicetower/dicebox/internal/render"
	"github.com/dicetower/dicebox/internal/scripting"
)

const prompt = "dice> "

// Shell is the interactive dice tower.
type Shell struct {
	in       io.Reader
	out      io.Writer
	logger   *zap.Logger
	registry *Registry

	roller   *dice.Roller
	store    history.Store
	presets  *preset.Registry
	macros   *scripting.Manager // nil = macro command unavailable
	renderer *render.Renderer

	historyLimit int
}

// Config bundles the collaborators a Shell needs.
type Config struct {
	In       io.Reader
	Out      io.Writer
	Logger   *zap.Logger
	Source   dice.Source
	Store    history.Store
	Presets  *preset.Registry
	Macros   *scripting.Manager
	Renderer *render.Renderer
	// HistoryLimit is the default page size for the history command.
	HistoryLimit int
}

// New creates a Shell.
//
// Precondition: In, Out, Logger, Source, Store, Presets, and Renderer must
// be non-nil; Macros may be nil.
func New(cfg Config) *Shell {
	limit := cfg.HistoryLimit
	if limit < 1 {
		limit = 10
	}
	return &Shell{
		in:           cfg.In,
		out:          cfg.Out,
		logger:       cfg.Logger,
		registry:     DefaultRegistry(),
		roller:       dice.NewLoggedRoller(cfg.Source, cfg.Logger),
		store:        cfg.Store,
		presets:      cfg.Presets,
		macros:       cfg.Macros,
		renderer:     cfg.Renderer,
		historyLimit: limit,
	}
}

// Run loops over input lines until quit, EOF, or context cancellation.
// Parse errors are printed and the loop continues; a notation string never
// kills the session.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	s.printf("dicebox dice tower. Type 'help' for commands, 'quit' to leave.\n")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printf("%s", prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(strings.ToLower(line))
		if cmd, ok := s.registry.Resolve(fields[0]); ok {
			if quit := s.dispatch(ctx, cmd, fields[1:]); quit {
				return nil
			}
			continue
		}

		// Not a command: a preset name rolls its notation, anything else is
		// treated as bare notation.
		if p, ok := s.presets.Resolve(fields[0]); ok && len(fields) == 1 {
			s.roll(ctx, p.Notation)
			continue
		}
		s.roll(ctx, line)
	}
}

// dispatch runs one command; returns true when the shell should exit.
func (s *Shell) dispatch(ctx context.Context, cmd *Command, args []string) bool {
	switch cmd.Name {
	case CmdRoll:
		if len(args) == 0 {
			s.printf("usage: %s\n", cmd.Usage)
			return false
		}
		s.roll(ctx, strings.Join(args, ""))
	case CmdHistory:
		s.history(ctx, args)
	case CmdPresets:
		s.printf("%s\n", s.renderer.Presets(s.presets.All()))
	case CmdMacro:
		s.macro(args)
	case CmdSeed:
		s.seed(args)
	case CmdBell:
		s.renderer.SetBell(!s.renderer.Bell())
		if s.renderer.Bell() {
			s.printf("bell on\n")
		} else {
			s.printf("bell off\n")
		}
	case CmdHelp:
		s.help()
	case CmdQuit:
		return true
	}
	return false
}

// roll parses, executes, renders, and records one notation.
func (s *Shell) roll(ctx context.Context, notation string) {
	result, err := s.roller.Roll(notation)
	if err != nil {
		s.printf("%v\n", err)
		return
	}
	s.printf("%s\n", s.renderer.Result(result))

	if err := s.store.Record(ctx, result); err != nil {
		s.logger.Warn("recording roll", zap.String("id", result.ID), zap.Error(err))
		s.printf("warning: roll not recorded: %v\n", err)
	}
}

func (s *Shell) history(ctx context.Context, args []string) {
	limit := s.historyLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			s.printf("usage: history [n]\n")
			return
		}
		limit = n
	}

	entries, err := s.store.Recent(ctx, limit)
	if err != nil {
		s.printf("history unavailable: %v\n", err)
		return
	}
	s.printf("%s\n", s.renderer.History(entries))
}

func (s *Shell) macro(args []string) {
	if s.macros == nil {
		s.printf("macros are not configured\n")
		return
	}
	if len(args) == 0 {
		names := s.macros.Names()
		if len(names) == 0 {
			s.printf("no macros loaded\n")
			return
		}
		s.printf("%s\n", strings.Join(names, " "))
		return
	}

	out, err := s.macros.Call(args[0], args[1:]...)
	if err != nil {
		s.printf("%v\n", err)
		return
	}
	if out != "" {
		s.printf("%s\n", out)
	}
}

// seed swaps the randomness source: "seed <n>" installs a deterministic
// source, bare "seed" restores the crypto source.
func (s *Shell) seed(args []string) {
	if len(args) == 0 {
		s.setSource(dice.NewCryptoSource())
		s.printf("using random source\n")
		return
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		s.printf("usage: seed [n]\n")
		return
	}
	s.setSource(dice.NewSeededSource(n))
	s.printf("using seeded source (%d)\n", n)
}

func (s *Shell) setSource(src dice.Source) {
	s.roller = dice.NewLoggedRoller(src, s.logger)
}

func (s *Shell) help() {
	for _, cmd := range s.registry.Commands() {
		usage := cmd.Usage
		if len(cmd.Aliases) > 0 {
			usage += " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		s.printf("  %-32s %s\n", usage, cmd.Help)
	}
	s.printf("  %-32s %s\n", "<notation>", "roll it, e.g. 4d6dl1+2")
	s.printf("  %-32s %s\n", "<preset>", "roll a preset by name, e.g. advantage")
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
