package compiler

import (
	"io"
)

// Report is the result of Validate.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Truncated   int          `json:"truncated"`
	SourceBytes int          `json:"source_bytes"`
	MaxDepth    int          `json:"max_depth"`
}

// OK reports whether the source is well bracketed.
func (r *Report) OK() bool {
	return len(r.Diagnostics) == 0
}

// Validate scans src for bracket anomalies without building a Program.
// It reports exactly what Parse would: scanning stops at a top-level ']'
// and every '[' still open at end of input is listed innermost first.
func Validate(src io.Reader) (*Report, error) {
	r := NewReader(src)
	report := &Report{Diagnostics: []Diagnostic{}}
	var open []Diagnostic

	for {
		b, ok, err := r.Next()
		if err != nil {
			return nil, &CompileError{Code: ErrCodeReadFailed, Message: "reading source", Err: err}
		}
		if !ok {
			break
		}

		switch b {
		case '[':
			line, col := r.Pos()
			open = append(open, Diagnostic{Kind: UnmatchedOpen, Line: line, Column: col, Offset: r.Offset() - 1})
			if len(open) > report.MaxDepth {
				report.MaxDepth = len(open)
			}
		case ']':
			if len(open) > 0 {
				open = open[:len(open)-1]
				continue
			}
			line, col := r.Pos()
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				Kind: UnmatchedClose, Line: line, Column: col, Offset: r.Offset() - 1,
			})
			n, err := r.Drain()
			if err != nil {
				return nil, &CompileError{Code: ErrCodeReadFailed, Message: "reading source", Err: err}
			}
			report.Truncated = n
			report.SourceBytes = r.Offset()
			return report, nil
		}
	}

	for i := len(open) - 1; i >= 0; i-- {
		report.Diagnostics = append(report.Diagnostics, open[i])
	}
	report.SourceBytes = r.Offset()
	return report, nil
}
