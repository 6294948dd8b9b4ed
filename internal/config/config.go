// Package config provides Viper-based configuration loading for dicebox.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// HistoryConfig selects and sizes the roll-history store.
type HistoryConfig struct {
	// Backend is the history store: "memory", "postgres", or "sqlite".
	Backend string `mapstructure:"backend"`
	// Limit is the maximum number of entries the memory backend retains
	// and the default page size for the history command.
	Limit int `mapstructure:"limit"`
	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL connection settings for the postgres
// history backend.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// PresetsConfig points at the preset definition directory.
type PresetsConfig struct {
	// Dir is the directory scanned for *.yaml preset files; empty disables
	// file-loaded presets (builtins remain available).
	Dir string `mapstructure:"dir"`
}

// MacrosConfig configures the Lua macro engine.
type MacrosConfig struct {
	// Dir is the directory scanned for *.lua macro files; empty disables
	// the macro engine.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps Lua opcodes per macro invocation; 0 uses the
	// scripting package default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// OutputConfig holds terminal rendering settings.
type OutputConfig struct {
	// Color enables ANSI-colored output.
	Color bool `mapstructure:"color"`
	// Bell enables the terminal bell on maximum-face rolls.
	Bell bool `mapstructure:"bell"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	History  HistoryConfig  `mapstructure:"history"`
	Database DatabaseConfig `mapstructure:"database"`
	Presets  PresetsConfig  `mapstructure:"presets"`
	Macros   MacrosConfig   `mapstructure:"macros"`
	Output   OutputConfig   `mapstructure:"output"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateHistory(c.History); err != nil {
		errs = append(errs, err.Error())
	}
	if c.History.Backend == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateMacros(c.Macros); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateHistory(h HistoryConfig) error {
	var errs []string
	validBackends := map[string]bool{"memory": true, "postgres": true, "sqlite": true}
	if !validBackends[h.Backend] {
		errs = append(errs, fmt.Sprintf("history.backend must be one of [memory, postgres, sqlite], got %q", h.Backend))
	}
	if h.Limit < 1 {
		errs = append(errs, fmt.Sprintf("history.limit must be >= 1, got %d", h.Limit))
	}
	if h.Backend == "sqlite" && h.SQLitePath == "" {
		errs = append(errs, "history.sqlite_path must not be empty for the sqlite backend")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateMacros(m MacrosConfig) error {
	if m.InstructionLimit < 0 {
		return fmt.Errorf("macros.instruction_limit must be >= 0, got %d", m.InstructionLimit)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DICEBOX_ prefix
	v.SetEnvPrefix("DICEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in configuration used when no config file is
// supplied.
//
// Postcondition: The returned Config passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: unmarshalling defaults: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.limit", 100)
	v.SetDefault("history.sqlite_path", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dicebox")
	v.SetDefault("database.password", "dicebox")
	v.SetDefault("database.name", "dicebox")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("presets.dir", "")
	v.SetDefault("macros.dir", "")
	v.SetDefault("macros.instruction_limit", 0)

	v.SetDefault("output.color", true)
	v.SetDefault("output.bell", false)
}
