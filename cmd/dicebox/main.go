// Package main provides the dicebox binary: a one-shot roller when given
// arguments, an interactive shell otherwise.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dicetower/dicebox/internal/config"
	"github.com/dicetower/dicebox/internal/dice"
	"github.com/dicetower/dicebox/internal/history"
	"github.com/dicetower/dicebox/internal/history/postgres"
	"github.com/dicetower/dicebox/internal/history/sqlite"
	"github.com/dicetower/dicebox/internal/observability"
	"github.com/dicetower/dicebox/internal/preset"
	"github.com/dicetower/dicebox/internal/render"
	"github.com/dicetower/dicebox/internal/scripting"
	"github.com/dicetower/dicebox/internal/shell"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	presetsDir := flag.String("presets", "", "preset YAML directory (overrides config)")
	macrosDir := flag.String("macros", "", "Lua macro directory (overrides config)")
	seed := flag.Int64("seed", 0, "deterministic random seed; omit for crypto randomness")
	flag.Parse()

	seedSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *presetsDir != "" {
		cfg.Presets.Dir = *presetsDir
	}
	if *macrosDir != "" {
		cfg.Macros.Dir = *macrosDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var src dice.Source = dice.NewCryptoSource()
	if seedSet {
		src = dice.NewSeededSource(*seed)
		logger.Info("using seeded randomness", zap.Int64("seed", *seed))
	}

	presets, err := loadPresets(cfg.Presets)
	if err != nil {
		logger.Fatal("loading presets", zap.Error(err))
	}
	logger.Debug("presets ready", zap.Int("count", presets.Len()))

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening history store", zap.Error(err))
	}
	defer closeStore()

	var macros *scripting.Manager
	if cfg.Macros.Dir != "" {
		macroStart := time.Now()
		macros = scripting.NewManager(logger, cfg.Macros.InstructionLimit)
		macros.Roll = func(notation string) (dice.RollResult, error) {
			return dice.Roll(notation, src)
		}
		if err := macros.LoadDir(cfg.Macros.Dir); err != nil {
			logger.Fatal("loading macros", zap.String("dir", cfg.Macros.Dir), zap.Error(err))
		}
		defer macros.Close()
		logger.Info("macros loaded",
			zap.Int("count", len(macros.Names())),
			zap.Duration("elapsed", time.Since(macroStart)),
		)
	}

	renderer := render.New(render.Options{Color: cfg.Output.Color, Bell: cfg.Output.Bell})

	logger.Debug("dicebox initialized", zap.Duration("startup", time.Since(start)))

	if flag.NArg() > 0 {
		if err := rollOnce(ctx, flag.Args(), src, store, presets, renderer, logger); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	sh := shell.New(shell.Config{
		In:           os.Stdin,
		Out:          os.Stdout,
		Logger:       logger,
		Source:       src,
		Store:        store,
		Presets:      presets,
		Macros:       macros,
		Renderer:     renderer,
		HistoryLimit: cfg.History.Limit,
	})
	if err := sh.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("shell error", zap.Error(err))
	}
}

// loadConfig reads the config file when it exists and falls back to the
// built-in defaults when the default path is absent.
func loadConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func loadPresets(cfg config.PresetsConfig) (*preset.Registry, error) {
	if cfg.Dir == "" {
		return preset.DefaultRegistry(), nil
	}
	loaded, err := preset.LoadFromDir(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return preset.Combine(preset.BuiltinPresets(), loaded)
}

// openStore builds the history store named by the config and returns it with
// its cleanup function.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (history.Store, func(), error) {
	switch cfg.History.Backend {
	case "memory":
		s := history.NewMemoryStore(cfg.History.Limit)
		return s, func() { s.Close() }, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.History.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite history open", zap.String("path", cfg.History.SQLitePath))
		return s, func() { s.Close() }, nil
	case "postgres":
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		return postgres.NewStore(pool.DB()), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

// rollOnce executes a single roll from command-line arguments. A lone
// argument matching a preset name rolls that preset's notation.
func rollOnce(ctx context.Context, args []string, src dice.Source, store history.Store, presets *preset.Registry, renderer *render.Renderer, logger *zap.Logger) error {
	notation := strings.Join(args, "")
	if len(args) == 1 {
		if p, ok := presets.Resolve(strings.ToLower(args[0])); ok {
			notation = p.Notation
		}
	}

	roller := dice.NewLoggedRoller(src, logger)
	result, err := roller.Roll(notation)
	if err != nil {
		return err
	}
	fmt.Println(renderer.Result(result))

	if err := store.Record(ctx, result); err != nil {
		logger.Warn("recording roll", zap.String("id", result.ID), zap.Error(err))
	}
	return nil
}
