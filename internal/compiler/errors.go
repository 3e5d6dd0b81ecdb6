package compiler

import (
	"errors"
	"fmt"
)

// Compile error codes.
const (
	// ErrCodeResourceExhausted: loop nesting exceeded Context.MaxDepth.
	// Fatal to the compilation.
	ErrCodeResourceExhausted = "ParseResourceExhausted"

	// ErrCodeUnmatchedBracket: a bracket anomaly under BracketsStrict.
	ErrCodeUnmatchedBracket = "UnmatchedBracket"

	// ErrCodeReadFailed: the source reader failed before end of input.
	ErrCodeReadFailed = "ReadFailed"
)

// CompileError is a fatal compilation failure with source position.
type CompileError struct {
	Code    string
	Message string
	Name    string // source name, may be empty
	Line    int
	Column  int
	Err     error // underlying cause, if any
}

func (e *CompileError) Error() string {
	pos := ""
	if e.Line > 0 {
		pos = fmt.Sprintf("%d:%d: ", e.Line, e.Column)
		if e.Name != "" {
			pos = e.Name + ":" + pos
		}
	} else if e.Name != "" {
		pos = e.Name + ": "
	}
	if e.Err != nil {
		return fmt.Sprintf("%s%s: %s: %v", pos, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s%s: %s", pos, e.Code, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsResourceExhausted reports whether err is a nesting-depth failure.
func IsResourceExhausted(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Code == ErrCodeResourceExhausted
}

// DiagnosticKind classifies a bracket anomaly.
type DiagnosticKind string

const (
	// UnmatchedOpen is a '[' with no ']' before end of input.
	UnmatchedOpen DiagnosticKind = "unmatched_open"

	// UnmatchedClose is a ']' at top level.
	UnmatchedClose DiagnosticKind = "unmatched_close"
)

// Diagnostic records a bracket anomaly. Diagnostics never change how a
// program executes.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Line   int            `json:"line"`
	Column int            `json:"column"`
	Offset int            `json:"offset"` // 0-based byte offset
}

// Message returns a human-readable description.
func (d Diagnostic) Message() string {
	switch d.Kind {
	case UnmatchedOpen:
		return "'[' has no matching ']'; loop runs to end of input"
	case UnmatchedClose:
		return "']' has no matching '['; remaining source ignored"
	default:
		return string(d.Kind)
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message())
}
