package engine

import (
	"fmt"

	"github.com/roach88/bfc/internal/ir"
)

// TraceEvent describes one executed step, observed after its effect.
type TraceEvent struct {
	Step    int64  `json:"step"`
	Op      string `json:"op"`
	Delta   int    `json:"delta,omitempty"`
	Pointer int    `json:"pointer"`
	Cell    byte   `json:"cell"`

	// Taken is set on loop tests that entered the body.
	Taken bool `json:"taken,omitempty"`
}

// Tracer receives TraceEvents synchronously from the running Machine.
type Tracer func(TraceEvent)

// String renders the event as one trace line.
func (e TraceEvent) String() string {
	switch e.Op {
	case ir.OpMove, ir.OpAdd:
		return fmt.Sprintf("%6d %-6s %+d ptr=%d cell=%d", e.Step, e.Op, e.Delta, e.Pointer, e.Cell)
	case ir.OpLoop:
		verdict := "exit"
		if e.Taken {
			verdict = "enter"
		}
		return fmt.Sprintf("%6d %-6s %s ptr=%d cell=%d", e.Step, e.Op, verdict, e.Pointer, e.Cell)
	default:
		return fmt.Sprintf("%6d %-6s ptr=%d cell=%d", e.Step, e.Op, e.Pointer, e.Cell)
	}
}

// Recorder collects TraceEvents in memory, keeping at most Limit of them.
// A zero Limit keeps everything.
type Recorder struct {
	Limit   int
	Events  []TraceEvent
	Dropped int64
}

// Trace is a Tracer that appends to the recorder.
func (r *Recorder) Trace(e TraceEvent) {
	if r.Limit > 0 && len(r.Events) >= r.Limit {
		r.Dropped++
		return
	}
	r.Events = append(r.Events, e)
}
