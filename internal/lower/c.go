package lower

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/bfc/internal/config"
	"github.com/roach88/bfc/internal/engine"
	"github.com/roach88/bfc/internal/ir"
)

// CBackend emits a self-contained C translation unit: a static byte array,
// a cell index p, and getchar/putchar for I/O. Loops become pre-tested
// while loops.
type CBackend struct{}

func (CBackend) Name() string { return "c" }

func (CBackend) Lower(w io.Writer, p ir.Program, cfg config.Config) error {
	e := &cEmitter{cfg: cfg, depth: 1}
	stats := ir.Count(p)

	e.prelude(stats)
	e.raw("int main(void)\n{\n")
	if err := e.program(p); err != nil {
		return err
	}
	e.line("return 0;")
	e.raw("}\n")

	_, err := w.Write(e.buf.Bytes())
	return err
}

type cEmitter struct {
	buf   bytes.Buffer
	cfg   config.Config
	depth int
}

func (e *cEmitter) raw(s string) {
	e.buf.WriteString(s)
}

func (e *cEmitter) line(format string, args ...any) {
	e.buf.WriteString(strings.Repeat("\t", e.depth))
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteByte('\n')
}

func (e *cEmitter) prelude(stats ir.Stats) {
	n := e.cfg.TapeSize
	fmt.Fprintf(&e.buf, "/* Generated by bfc. Do not edit. */\n")
	fmt.Fprintf(&e.buf, "/* tape=%d pointer=%s eof=%s */\n\n", n, e.cfg.PointerPolicy, e.cfg.EOFPolicy)
	e.raw("#include <stdio.h>\n")
	if (e.cfg.PointerPolicy == engine.PointerFail && stats.Moves > 0) || stats.Inputs > 0 {
		e.raw("#include <stdlib.h>\n")
	}
	fmt.Fprintf(&e.buf, "\n#define TAPE_SIZE %dL\n\n", n)
	e.raw("static unsigned char data[TAPE_SIZE];\n")
	e.raw("static long p;\n\n")

	if stats.Moves > 0 {
		switch e.cfg.PointerPolicy {
		case engine.PointerSaturate:
			e.raw(`static long move_saturate(long delta)
{
	long next = p + delta;

	if (next < 0)
		return 0;
	if (next >= TAPE_SIZE)
		return TAPE_SIZE - 1;
	return next;
}

`)
		case engine.PointerFail:
			e.raw(`static long move_checked(long delta)
{
	long next = p + delta;

	if (next < 0 || next >= TAPE_SIZE) {
		fflush(stdout);
		fprintf(stderr, "OUT_OF_RANGE: pointer moved to %ld outside tape [0, %ld)\n", next, TAPE_SIZE);
		exit(1);
	}
	return next;
}

`)
		}
	}

	if stats.Inputs > 0 {
		var onEOF string
		switch e.cfg.EOFPolicy {
		case engine.EOFZero:
			onEOF = "return 0;"
		case engine.EOFUnchanged:
			onEOF = "return cell;"
		default:
			onEOF = "return 255;"
		}
		fmt.Fprintf(&e.buf, `static unsigned char read_cell(unsigned char cell)
{
	int c;

	fflush(stdout);
	c = getchar();
	if (c == EOF) {
		if (ferror(stdin)) {
			fputs("IO_FAILURE: read input failed\n", stderr);
			exit(1);
		}
		%s
	}
	return (unsigned char)c;
}

`, onEOF)
	}
}

func (e *cEmitter) program(p ir.Program) error {
	for _, in := range p {
		if err := in.Accept(e); err != nil {
			return err
		}
	}
	return nil
}

func (e *cEmitter) VisitMovePointer(i ir.MovePointer) error {
	switch e.cfg.PointerPolicy {
	case engine.PointerSaturate:
		e.line("p = move_saturate(%d);", i.Delta)
	case engine.PointerFail:
		e.line("p = move_checked(%d);", i.Delta)
	default:
		e.line("p = (p + %d) %% TAPE_SIZE;", wrapOffset(i.Delta, e.cfg.TapeSize))
	}
	return nil
}

func (e *cEmitter) VisitAddCell(i ir.AddCell) error {
	op, n := cellDelta(i.Delta)
	e.line("data[p] %s %d;", op, n)
	return nil
}

func (e *cEmitter) VisitOutput(ir.Output) error {
	e.line("putchar(data[p]);")
	return nil
}

func (e *cEmitter) VisitInput(ir.Input) error {
	e.line("data[p] = read_cell(data[p]);")
	return nil
}

func (e *cEmitter) VisitLoop(l ir.Loop) error {
	e.line("while (data[p]) {")
	e.depth++
	if err := e.program(l.Body); err != nil {
		return err
	}
	e.depth--
	e.line("}")
	return nil
}
