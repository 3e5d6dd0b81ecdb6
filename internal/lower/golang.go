package lower

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strings"

	"github.com/roach88/bfc/internal/config"
	"github.com/roach88/bfc/internal/engine"
	"github.com/roach88/bfc/internal/ir"
)

// GoBackend emits a standalone package main that reads stdin and writes
// stdout through bufio. Loops become `for tape[p] != 0`.
type GoBackend struct{}

func (GoBackend) Name() string { return "go" }

func (GoBackend) Lower(w io.Writer, p ir.Program, cfg config.Config) error {
	e := &goEmitter{cfg: cfg, depth: 1}
	stats := ir.Count(p)

	e.prelude(stats)
	e.raw("func main() {\n")
	e.line("defer out.Flush()")
	if err := e.program(p); err != nil {
		return err
	}
	e.raw("}\n")

	src, err := format.Source(e.buf.Bytes())
	if err != nil {
		return fmt.Errorf("format generated go: %w", err)
	}
	_, err = w.Write(src)
	return err
}

type goEmitter struct {
	buf   bytes.Buffer
	cfg   config.Config
	depth int
}

func (e *goEmitter) raw(s string) {
	e.buf.WriteString(s)
}

func (e *goEmitter) line(format string, args ...any) {
	e.buf.WriteString(strings.Repeat("\t", e.depth))
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteByte('\n')
}

func (e *goEmitter) prelude(stats ir.Stats) {
	fail := e.cfg.PointerPolicy == engine.PointerFail && stats.Moves > 0
	reads := stats.Inputs > 0

	e.raw("// Code generated by bfc. DO NOT EDIT.\n")
	fmt.Fprintf(&e.buf, "// tape=%d pointer=%s eof=%s\n\n", e.cfg.TapeSize, e.cfg.PointerPolicy, e.cfg.EOFPolicy)
	e.raw("package main\n\nimport (\n\t\"bufio\"\n")
	if fail || reads {
		e.raw("\t\"fmt\"\n")
	}
	if reads {
		e.raw("\t\"io\"\n")
	}
	e.raw("\t\"os\"\n)\n\n")
	fmt.Fprintf(&e.buf, "const tapeSize = %d\n\n", e.cfg.TapeSize)
	e.raw(`var (
	tape [tapeSize]byte
	p    int
	in   = bufio.NewReader(os.Stdin)
	out  = bufio.NewWriter(os.Stdout)
)

`)

	if stats.Moves > 0 {
		switch e.cfg.PointerPolicy {
		case engine.PointerSaturate:
			e.raw(`func moveSaturate(delta int) int {
	next := p + delta
	if next < 0 {
		return 0
	}
	if next >= tapeSize {
		return tapeSize - 1
	}
	return next
}

`)
		case engine.PointerFail:
			e.raw(`func moveChecked(delta int) int {
	next := p + delta
	if next < 0 || next >= tapeSize {
		out.Flush()
		fmt.Fprintf(os.Stderr, "OUT_OF_RANGE: pointer moved to %d outside tape [0, %d)\n", next, tapeSize)
		os.Exit(1)
	}
	return next
}

`)
		}
	}

	if reads {
		var onEOF string
		switch e.cfg.EOFPolicy {
		case engine.EOFZero:
			onEOF = "return 0"
		case engine.EOFUnchanged:
			onEOF = "return cell"
		default:
			onEOF = "return 255"
		}
		fmt.Fprintf(&e.buf, `func readCell(cell byte) byte {
	out.Flush()
	c, err := in.ReadByte()
	if err == io.EOF {
		%s
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "IO_FAILURE: read input: %%v\n", err)
		os.Exit(1)
	}
	return c
}

`, onEOF)
	}
}

func (e *goEmitter) program(p ir.Program) error {
	for _, in := range p {
		if err := in.Accept(e); err != nil {
			return err
		}
	}
	return nil
}

func (e *goEmitter) VisitMovePointer(i ir.MovePointer) error {
	switch e.cfg.PointerPolicy {
	case engine.PointerSaturate:
		e.line("p = moveSaturate(%d)", i.Delta)
	case engine.PointerFail:
		e.line("p = moveChecked(%d)", i.Delta)
	default:
		e.line("p = (p + %d) %% tapeSize", wrapOffset(i.Delta, e.cfg.TapeSize))
	}
	return nil
}

func (e *goEmitter) VisitAddCell(i ir.AddCell) error {
	op, n := cellDelta(i.Delta)
	e.line("tape[p] %s %d", op, n)
	return nil
}

func (e *goEmitter) VisitOutput(ir.Output) error {
	e.line("out.WriteByte(tape[p])")
	return nil
}

func (e *goEmitter) VisitInput(ir.Input) error {
	e.line("tape[p] = readCell(tape[p])")
	return nil
}

func (e *goEmitter) VisitLoop(l ir.Loop) error {
	e.line("for tape[p] != 0 {")
	e.depth++
	if err := e.program(l.Body); err != nil {
		return err
	}
	e.depth--
	e.line("}")
	return nil
}
