package compiler

import (
	"fmt"
	"io"
	"log/slog"
)

// DefaultMaxDepth bounds loop nesting when no limit is configured.
const DefaultMaxDepth = 10000

// BracketPolicy decides what happens to bracket anomalies.
type BracketPolicy string

const (
	// BracketsLenient records anomalies as diagnostics only.
	BracketsLenient BracketPolicy = "lenient"
	// BracketsWarn records anomalies and logs each one at WARN.
	BracketsWarn BracketPolicy = "warn"
	// BracketsStrict fails compilation on the first anomaly.
	BracketsStrict BracketPolicy = "strict"
)

// ValidBracketPolicies lists the accepted policy names.
var ValidBracketPolicies = []BracketPolicy{BracketsLenient, BracketsWarn, BracketsStrict}

// ParseBracketPolicy converts a name to a BracketPolicy.
func ParseBracketPolicy(s string) (BracketPolicy, error) {
	for _, p := range ValidBracketPolicies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid bracket policy %q: must be one of %v", s, ValidBracketPolicies)
}

// Context carries everything one compilation needs. There is no package
// state; two Contexts never interact.
type Context struct {
	// Name labels the compilation unit in errors and logs (usually a path).
	Name string

	// MaxDepth bounds loop nesting. 0 means unlimited.
	MaxDepth int

	// Coalesce merges adjacent MovePointer and adjacent AddCell
	// instructions. Only safe when pointer movement wraps.
	Coalesce bool

	// Brackets is the anomaly policy. Empty means BracketsLenient.
	Brackets BracketPolicy

	// Logger receives warnings under BracketsWarn. Nil discards.
	Logger *slog.Logger
}

// NewContext returns a Context with default limits.
func NewContext(name string) *Context {
	return &Context{
		Name:     name,
		MaxDepth: DefaultMaxDepth,
		Brackets: BracketsLenient,
	}
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

func (c *Context) policy() BracketPolicy {
	if c.Brackets == "" {
		return BracketsLenient
	}
	return c.Brackets
}
