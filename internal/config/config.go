// Package config holds the settings shared by compilation and execution
// and loads them from YAML or CUE files.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/engine"
)

// Config is the full set of compile and run settings.
type Config struct {
	TapeSize      int                    `json:"tape_size" yaml:"tape_size"`
	PointerPolicy engine.PointerPolicy   `json:"pointer_policy" yaml:"pointer_policy"`
	EOFPolicy     engine.EOFPolicy       `json:"eof_policy" yaml:"eof_policy"`
	BracketPolicy compiler.BracketPolicy `json:"bracket_policy" yaml:"bracket_policy"`
	MaxDepth      int                    `json:"max_depth" yaml:"max_depth"`
	MaxSteps      int64                  `json:"max_steps" yaml:"max_steps"`
	Coalesce      bool                   `json:"coalesce" yaml:"coalesce"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TapeSize:      engine.DefaultTapeSize,
		PointerPolicy: engine.PointerWrap,
		EOFPolicy:     engine.EOFMax,
		BracketPolicy: compiler.BracketsLenient,
		MaxDepth:      compiler.DefaultMaxDepth,
		MaxSteps:      0,
		Coalesce:      false,
	}
}

// Validate checks every field and returns all problems joined.
func (c Config) Validate() error {
	var errs []error
	if c.TapeSize < 1 {
		errs = append(errs, fmt.Errorf("tape_size must be at least 1, got %d", c.TapeSize))
	}
	if _, err := engine.ParsePointerPolicy(string(c.PointerPolicy)); err != nil {
		errs = append(errs, err)
	}
	if _, err := engine.ParseEOFPolicy(string(c.EOFPolicy)); err != nil {
		errs = append(errs, err)
	}
	if _, err := compiler.ParseBracketPolicy(string(c.BracketPolicy)); err != nil {
		errs = append(errs, err)
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth))
	}
	if c.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps))
	}
	// Merged moves only match step-by-step moves when every move wraps.
	if c.Coalesce && c.PointerPolicy != engine.PointerWrap {
		errs = append(errs, fmt.Errorf("coalesce requires pointer_policy %q, got %q", engine.PointerWrap, c.PointerPolicy))
	}
	return errors.Join(errs...)
}

// CompilerContext builds the compilation context for a source named name.
func (c Config) CompilerContext(name string, logger *slog.Logger) *compiler.Context {
	return &compiler.Context{
		Name:     name,
		MaxDepth: c.MaxDepth,
		Coalesce: c.Coalesce,
		Brackets: c.BracketPolicy,
		Logger:   logger,
	}
}

// EngineOptions returns the machine options this configuration implies.
// I/O, tracing and logging are left to the caller.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithTapeSize(c.TapeSize),
		engine.WithPointerPolicy(c.PointerPolicy),
		engine.WithEOFPolicy(c.EOFPolicy),
		engine.WithMaxSteps(c.MaxSteps),
	}
}

// ToMap returns the configuration keyed by its file names, in the value
// types canonical JSON accepts.
func (c Config) ToMap() map[string]any {
	return map[string]any{
		"tape_size":      int64(c.TapeSize),
		"pointer_policy": string(c.PointerPolicy),
		"eof_policy":     string(c.EOFPolicy),
		"bracket_policy": string(c.BracketPolicy),
		"max_depth":      int64(c.MaxDepth),
		"max_steps":      c.MaxSteps,
		"coalesce":       c.Coalesce,
	}
}

// FromMap rebuilds a Config from ToMap output. Missing keys keep their
// defaults; keys of the wrong type are an error.
func FromMap(m map[string]any) (Config, error) {
	c := Default()
	for k, v := range m {
		var ok bool
		switch k {
		case "tape_size":
			var n int64
			n, ok = v.(int64)
			c.TapeSize = int(n)
		case "pointer_policy":
			var s string
			s, ok = v.(string)
			c.PointerPolicy = engine.PointerPolicy(s)
		case "eof_policy":
			var s string
			s, ok = v.(string)
			c.EOFPolicy = engine.EOFPolicy(s)
		case "bracket_policy":
			var s string
			s, ok = v.(string)
			c.BracketPolicy = compiler.BracketPolicy(s)
		case "max_depth":
			var n int64
			n, ok = v.(int64)
			c.MaxDepth = int(n)
		case "max_steps":
			c.MaxSteps, ok = v.(int64)
		case "coalesce":
			c.Coalesce, ok = v.(bool)
		default:
			return Config{}, fmt.Errorf("unknown config key %q", k)
		}
		if !ok {
			return Config{}, fmt.Errorf("config key %q: unexpected type %T", k, v)
		}
	}
	return c, c.Validate()
}
