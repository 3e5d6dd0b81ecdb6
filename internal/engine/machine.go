package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/bfc/internal/ir"
)

// cancelCheckInterval is how many steps run between context checks.
const cancelCheckInterval = 4096

// Machine is the tape, pointer and I/O for executing programs.
//
// A Machine is not safe for concurrent use. Run may be called again after
// Reset; without Reset the next run sees the previous tape.
type Machine struct {
	size    int
	tape    []byte
	ptr     int
	pointer PointerPolicy
	eof     EOFPolicy
	source  ByteSource
	sink    ByteSink
	tracer  Tracer
	logger  *slog.Logger
	quota   *stepQuota
	written int64
}

// Option configures a Machine.
type Option func(*Machine)

// WithTapeSize sets the number of cells. Default: DefaultTapeSize.
func WithTapeSize(n int) Option {
	return func(m *Machine) {
		m.size = n
	}
}

// WithPointerPolicy sets the out-of-range policy. Default: PointerWrap.
func WithPointerPolicy(p PointerPolicy) Option {
	return func(m *Machine) {
		m.pointer = p
	}
}

// WithEOFPolicy sets the end-of-input policy. Default: EOFMax.
func WithEOFPolicy(p EOFPolicy) Option {
	return func(m *Machine) {
		m.eof = p
	}
}

// WithMaxSteps limits the steps of each run. 0 means unlimited.
func WithMaxSteps(n int64) Option {
	return func(m *Machine) {
		m.quota = newStepQuota(n)
	}
}

// WithInput reads program input from r.
func WithInput(r io.Reader) Option {
	return func(m *Machine) {
		m.source = NewSource(r)
	}
}

// WithOutput writes program output to w through a buffer.
func WithOutput(w io.Writer) Option {
	return func(m *Machine) {
		m.sink = NewSink(w)
	}
}

// WithSource sets the input source directly.
func WithSource(s ByteSource) Option {
	return func(m *Machine) {
		m.source = s
	}
}

// WithSink sets the output sink directly.
func WithSink(s ByteSink) Option {
	return func(m *Machine) {
		m.sink = s
	}
}

// WithTracer receives an event after every step.
func WithTracer(t Tracer) Option {
	return func(m *Machine) {
		m.tracer = t
	}
}

// WithLogger sets the logger for run summaries. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// New creates a Machine with a zeroed tape and the pointer at cell 0.
//
// Without WithInput every Input sees end of input; without WithOutput
// output is discarded.
func New(opts ...Option) (*Machine, error) {
	m := &Machine{
		size:    DefaultTapeSize,
		pointer: PointerWrap,
		eof:     EOFMax,
		source:  eofSource{},
		quota:   newStepQuota(0),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.size < 1 {
		return nil, fmt.Errorf("tape size must be at least 1, got %d", m.size)
	}
	if _, err := ParsePointerPolicy(string(m.pointer)); err != nil {
		return nil, err
	}
	if _, err := ParseEOFPolicy(string(m.eof)); err != nil {
		return nil, err
	}
	if m.sink == nil {
		m.sink = NewSink(io.Discard)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m.tape = make([]byte, m.size)
	return m, nil
}

// Reset zeroes the tape, returns the pointer to cell 0 and clears the step
// and output counters. I/O bindings are kept.
func (m *Machine) Reset() {
	clear(m.tape)
	m.ptr = 0
	m.written = 0
	m.quota.Reset()
}

// Pointer returns the current data pointer.
func (m *Machine) Pointer() int { return m.ptr }

// Cell returns the value of cell i.
func (m *Machine) Cell(i int) byte { return m.tape[i] }

// TapeSize returns the number of cells.
func (m *Machine) TapeSize() int { return len(m.tape) }

// Tape returns a copy of the tape.
func (m *Machine) Tape() []byte {
	out := make([]byte, len(m.tape))
	copy(out, m.tape)
	return out
}

// Steps returns the number of steps executed since New or Reset.
func (m *Machine) Steps() int64 { return m.quota.Current() }

// Written returns the number of bytes output since New or Reset.
func (m *Machine) Written() int64 { return m.written }

// Run executes p to completion.
//
// Output is flushed before returning, including when the run fails. A
// cancelled ctx stops the run within cancelCheckInterval steps and returns
// the context's error.
func (m *Machine) Run(ctx context.Context, p ir.Program) error {
	if ctx == nil {
		ctx = context.Background()
	}
	x := &executor{m: m, ctx: ctx}
	runErr := ctx.Err()
	if runErr == nil {
		runErr = x.program(p)
	}

	if err := m.sink.Flush(); err != nil && runErr == nil {
		runErr = NewIOError("flush output", m.ptr, m.quota.Current(), err)
	}

	if runErr != nil {
		m.logger.Debug("run failed", "steps", m.quota.Current(), "pointer", m.ptr, "error", runErr)
		return runErr
	}
	m.logger.Debug("run complete", "steps", m.quota.Current(), "pointer", m.ptr, "output_bytes", m.written)
	return nil
}

// Outcome summarizes a completed Execute call.
type Outcome struct {
	// ExitStatus is 0 on normal termination and 1 when the run failed.
	ExitStatus int `json:"exit_status"`

	Steps   int64  `json:"steps"`
	Pointer int    `json:"pointer"`
	Written int64  `json:"written"`
	Tape    []byte `json:"-"`
}

// Execute runs p on a fresh Machine built from opts.
//
// The Outcome is returned even when the run fails so callers can report
// how far it got; err carries the failure.
func Execute(ctx context.Context, p ir.Program, opts ...Option) (*Outcome, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}

	runErr := m.Run(ctx, p)
	out := &Outcome{
		Steps:   m.Steps(),
		Pointer: m.Pointer(),
		Written: m.Written(),
		Tape:    m.Tape(),
	}
	if runErr != nil {
		out.ExitStatus = 1
	}
	return out, runErr
}

// executor walks a Program on behalf of a Machine.
type executor struct {
	m   *Machine
	ctx context.Context
}

func (x *executor) program(p ir.Program) error {
	for _, in := range p {
		if err := in.Accept(x); err != nil {
			return err
		}
	}
	return nil
}

// step counts one step and polls for cancellation. It runs before the
// step's effect so a refused step changes nothing.
func (x *executor) step() error {
	if err := x.m.quota.Check(); err != nil {
		return err
	}
	if x.m.quota.Current()%cancelCheckInterval == 0 {
		if err := x.ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled at step %d: %w", x.m.quota.Current(), err)
		}
	}
	return nil
}

func (x *executor) trace(op string, delta int, taken bool) {
	if x.m.tracer == nil {
		return
	}
	x.m.tracer(TraceEvent{
		Step:    x.m.quota.Current(),
		Op:      op,
		Delta:   delta,
		Pointer: x.m.ptr,
		Cell:    x.m.tape[x.m.ptr],
		Taken:   taken,
	})
}

func (x *executor) VisitMovePointer(i ir.MovePointer) error {
	if err := x.step(); err != nil {
		return err
	}
	m := x.m
	next, ok := m.pointer.Resolve(m.ptr, i.Delta, len(m.tape))
	if !ok {
		return NewOutOfRangeError(next, len(m.tape), m.ptr, m.quota.Current())
	}
	m.ptr = next
	x.trace(ir.OpMove, i.Delta, false)
	return nil
}

func (x *executor) VisitAddCell(i ir.AddCell) error {
	if err := x.step(); err != nil {
		return err
	}
	m := x.m
	m.tape[m.ptr] = byte(int(m.tape[m.ptr]) + i.Delta)
	x.trace(ir.OpAdd, i.Delta, false)
	return nil
}

func (x *executor) VisitOutput(ir.Output) error {
	if err := x.step(); err != nil {
		return err
	}
	m := x.m
	if err := m.sink.WriteByte(m.tape[m.ptr]); err != nil {
		return NewIOError("write output", m.ptr, m.quota.Current(), err)
	}
	m.written++
	x.trace(ir.OpOutput, 0, false)
	return nil
}

func (x *executor) VisitInput(ir.Input) error {
	if err := x.step(); err != nil {
		return err
	}
	m := x.m
	// Prompts written so far must be visible before we block on input.
	if err := m.sink.Flush(); err != nil {
		return NewIOError("flush output", m.ptr, m.quota.Current(), err)
	}

	b, err := m.source.ReadByte()
	switch {
	case errors.Is(err, io.EOF):
		if v, write := m.eof.Apply(); write {
			m.tape[m.ptr] = v
		}
	case err != nil:
		return NewIOError("read input", m.ptr, m.quota.Current(), err)
	default:
		m.tape[m.ptr] = b
	}
	x.trace(ir.OpInput, 0, false)
	return nil
}

// VisitLoop tests the current cell before every iteration, including the
// first. Each test is one step.
func (x *executor) VisitLoop(l ir.Loop) error {
	m := x.m
	for {
		if err := x.step(); err != nil {
			return err
		}
		taken := m.tape[m.ptr] != 0
		x.trace(ir.OpLoop, 0, taken)
		if !taken {
			return nil
		}
		if err := x.program(l.Body); err != nil {
			return err
		}
	}
}
