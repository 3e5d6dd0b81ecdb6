package ir

import (
	"fmt"
	"strings"
)

// Format renders p as an indented listing, one instruction per line:
//
//	add +1
//	loop {
//	  add -1
//	}
//	output
func Format(p Program) string {
	var sb strings.Builder
	f := &formatter{sb: &sb}
	// formatter never fails
	_ = f.program(p)
	return sb.String()
}

type formatter struct {
	sb    *strings.Builder
	depth int
}

func (f *formatter) program(p Program) error {
	for _, in := range p {
		if err := in.Accept(f); err != nil {
			return err
		}
	}
	return nil
}

func (f *formatter) line(format string, args ...any) {
	f.sb.WriteString(strings.Repeat("  ", f.depth))
	fmt.Fprintf(f.sb, format, args...)
	f.sb.WriteByte('\n')
}

func (f *formatter) VisitMovePointer(i MovePointer) error { f.line("move %+d", i.Delta); return nil }
func (f *formatter) VisitAddCell(i AddCell) error         { f.line("add %+d", i.Delta); return nil }
func (f *formatter) VisitOutput(Output) error             { f.line("output"); return nil }
func (f *formatter) VisitInput(Input) error               { f.line("input"); return nil }

func (f *formatter) VisitLoop(l Loop) error {
	f.line("loop {")
	f.depth++
	err := f.program(l.Body)
	f.depth--
	f.line("}")
	return err
}
