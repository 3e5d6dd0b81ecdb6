package compiler

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/bfc/internal/ir"
)

// Result is the output of one compilation.
type Result struct {
	// Program is the parsed instruction tree. Never nil.
	Program ir.Program

	// Diagnostics lists bracket anomalies in source order.
	Diagnostics []Diagnostic

	// Truncated counts source bytes after a top-level ']' that were not
	// parsed.
	Truncated int

	// SourceBytes is the number of source bytes consumed, including any
	// truncated tail.
	SourceBytes int
}

// HasAnomalies reports whether the source had unmatched brackets.
func (r *Result) HasAnomalies() bool {
	return len(r.Diagnostics) > 0
}

// frame is one in-progress sequence: the top level or an open loop body.
type frame struct {
	body   ir.Program
	line   int
	column int
	offset int
}

// Parse reads src to end of input and builds a Program.
//
// Algorithm:
//  1. Classify each byte; operators append to the innermost open frame
//  2. '[' pushes a frame (fails with ParseResourceExhausted past MaxDepth)
//  3. ']' pops a frame and appends Loop{Body} to its parent
//  4. ']' with no open loop ends the program; the tail is drained
//  5. End of input closes every open frame, innermost first
//
// Parse never rejects a byte. Under BracketsStrict the first anomaly
// returns a CompileError; otherwise anomalies become Diagnostics.
func Parse(cctx *Context, src io.Reader) (*Result, error) {
	if cctx == nil {
		cctx = NewContext("")
	}
	p := &parser{
		ctx:    cctx,
		r:      NewReader(src),
		result: &Result{},
		stack:  []*frame{{body: ir.Program{}}},
	}
	return p.run()
}

// ParseString parses source held in memory.
func ParseString(cctx *Context, src string) (*Result, error) {
	return Parse(cctx, strings.NewReader(src))
}

// ParseBytes parses source held in memory.
func ParseBytes(cctx *Context, src []byte) (*Result, error) {
	return Parse(cctx, bytes.NewReader(src))
}

type parser struct {
	ctx    *Context
	r      *Reader
	result *Result
	stack  []*frame
}

func (p *parser) run() (*Result, error) {
	for {
		b, ok, err := p.r.Next()
		if err != nil {
			return nil, &CompileError{
				Code:    ErrCodeReadFailed,
				Message: "reading source",
				Name:    p.ctx.Name,
				Err:     err,
			}
		}
		if !ok {
			break
		}

		top := p.stack[len(p.stack)-1]
		switch b {
		case '>':
			p.emit(top, ir.MovePointer{Delta: 1})
		case '<':
			p.emit(top, ir.MovePointer{Delta: -1})
		case '+':
			p.emit(top, ir.AddCell{Delta: 1})
		case '-':
			p.emit(top, ir.AddCell{Delta: -1})
		case '.':
			top.body = append(top.body, ir.Output{})
		case ',':
			top.body = append(top.body, ir.Input{})
		case '[':
			if err := p.open(); err != nil {
				return nil, err
			}
		case ']':
			if len(p.stack) == 1 {
				return p.strayClose()
			}
			p.close()
		default:
			// Commentary.
		}
	}

	// End of input closes open loops innermost first.
	for len(p.stack) > 1 {
		f := p.stack[len(p.stack)-1]
		if err := p.anomaly(Diagnostic{
			Kind:   UnmatchedOpen,
			Line:   f.line,
			Column: f.column,
			Offset: f.offset,
		}); err != nil {
			return nil, err
		}
		p.close()
	}

	return p.finish(), nil
}

func (p *parser) open() error {
	line, col := p.r.Pos()
	depth := len(p.stack) // depth of the loop being opened
	if p.ctx.MaxDepth > 0 && depth > p.ctx.MaxDepth {
		return &CompileError{
			Code:    ErrCodeResourceExhausted,
			Message: fmt.Sprintf("loop nesting exceeds max depth %d", p.ctx.MaxDepth),
			Name:    p.ctx.Name,
			Line:    line,
			Column:  col,
		}
	}
	p.stack = append(p.stack, &frame{
		body:   ir.Program{},
		line:   line,
		column: col,
		offset: p.r.Offset() - 1,
	})
	return nil
}

// close pops the innermost frame into a Loop on its parent.
func (p *parser) close() {
	child := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	parent := p.stack[len(p.stack)-1]
	parent.body = append(parent.body, ir.Loop{Body: child.body})
}

// strayClose handles ']' at top level: the program ends here.
func (p *parser) strayClose() (*Result, error) {
	line, col := p.r.Pos()
	if err := p.anomaly(Diagnostic{
		Kind:   UnmatchedClose,
		Line:   line,
		Column: col,
		Offset: p.r.Offset() - 1,
	}); err != nil {
		return nil, err
	}

	n, err := p.r.Drain()
	if err != nil {
		return nil, &CompileError{
			Code:    ErrCodeReadFailed,
			Message: "reading source",
			Name:    p.ctx.Name,
			Err:     err,
		}
	}
	p.result.Truncated = n
	return p.finish(), nil
}

func (p *parser) anomaly(d Diagnostic) error {
	switch p.ctx.policy() {
	case BracketsStrict:
		return &CompileError{
			Code:    ErrCodeUnmatchedBracket,
			Message: d.Message(),
			Name:    p.ctx.Name,
			Line:    d.Line,
			Column:  d.Column,
		}
	case BracketsWarn:
		p.ctx.logger().Warn("bracket anomaly",
			"source", p.ctx.Name,
			"kind", string(d.Kind),
			"line", d.Line,
			"column", d.Column)
	}
	p.result.Diagnostics = append(p.result.Diagnostics, d)
	return nil
}

func (p *parser) finish() *Result {
	p.result.Program = p.stack[0].body
	p.result.SourceBytes = p.r.Offset()
	return p.result
}

// emit appends a MovePointer or AddCell, merging with the previous
// instruction of the same kind when coalescing is on.
func (p *parser) emit(f *frame, in ir.Instruction) {
	if !p.ctx.Coalesce || len(f.body) == 0 {
		f.body = append(f.body, in)
		return
	}

	last := f.body[len(f.body)-1]
	var merged ir.Instruction
	var sum int
	switch x := in.(type) {
	case ir.MovePointer:
		prev, ok := last.(ir.MovePointer)
		if !ok {
			f.body = append(f.body, in)
			return
		}
		sum = prev.Delta + x.Delta
		merged = ir.MovePointer{Delta: sum}
	case ir.AddCell:
		prev, ok := last.(ir.AddCell)
		if !ok {
			f.body = append(f.body, in)
			return
		}
		sum = prev.Delta + x.Delta
		merged = ir.AddCell{Delta: sum}
	default:
		f.body = append(f.body, in)
		return
	}

	if sum == 0 {
		f.body = f.body[:len(f.body)-1]
		return
	}
	f.body[len(f.body)-1] = merged
}
