package ir

import "fmt"

// Program is an ordered sequence of instructions. Order is execution order.
// A Program owns the Programs nested inside its loops.
type Program []Instruction

// Stats summarizes a Program with loops flattened.
type Stats struct {
	Moves    int `json:"moves"`
	Adds     int `json:"adds"`
	Outputs  int `json:"outputs"`
	Inputs   int `json:"inputs"`
	Loops    int `json:"loops"`
	MaxDepth int `json:"max_depth"`
}

// Primitives returns the number of non-loop instructions.
func (s Stats) Primitives() int {
	return s.Moves + s.Adds + s.Outputs + s.Inputs
}

// Total returns the flattened instruction count: every primitive plus one
// node per loop.
func (s Stats) Total() int {
	return s.Primitives() + s.Loops
}

// Count walks p and returns its flattened statistics.
func Count(p Program) Stats {
	var st Stats
	// the callback never fails
	_ = Walk(p, func(in Instruction, depth int) error {
		switch in.(type) {
		case MovePointer:
			st.Moves++
		case AddCell:
			st.Adds++
		case Output:
			st.Outputs++
		case Input:
			st.Inputs++
		case Loop:
			st.Loops++
			st.MaxDepth = max(st.MaxDepth, depth+1)
		}
		return nil
	})
	return st
}

// WalkFunc is called for every instruction in pre-order. depth is 0 for the
// top-level sequence and increases by one inside each loop body.
type WalkFunc func(in Instruction, depth int) error

// Walk visits every instruction of p in pre-order, descending into loop
// bodies after the Loop node itself.
func Walk(p Program, fn WalkFunc) error {
	return walk(p, 0, fn)
}

func walk(p Program, depth int, fn WalkFunc) error {
	for _, in := range p {
		if err := fn(in, depth); err != nil {
			return err
		}
		if l, ok := in.(Loop); ok {
			if err := walk(l.Body, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Program) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalInstruction(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalInstruction(a, b Instruction) bool {
	switch x := a.(type) {
	case Loop:
		y, ok := b.(Loop)
		return ok && Equal(x.Body, y.Body)
	default:
		return a == b
	}
}

// String renders a Program back into source form. Coalesced instructions
// expand to repeated operators, so String(Parse(s)) equals s with comments
// removed whenever s is well bracketed.
func (p Program) String() string {
	var buf []byte
	buf = appendSource(buf, p)
	return string(buf)
}

func appendSource(buf []byte, p Program) []byte {
	for _, in := range p {
		switch x := in.(type) {
		case MovePointer:
			buf = appendRepeat(buf, x.Delta, '>', '<')
		case AddCell:
			buf = appendRepeat(buf, x.Delta, '+', '-')
		case Output:
			buf = append(buf, '.')
		case Input:
			buf = append(buf, ',')
		case Loop:
			buf = append(buf, '[')
			buf = appendSource(buf, x.Body)
			buf = append(buf, ']')
		default:
			panic(fmt.Sprintf("ir: unknown instruction %T", in))
		}
	}
	return buf
}

func appendRepeat(buf []byte, n int, pos, neg byte) []byte {
	c := pos
	if n < 0 {
		c, n = neg, -n
	}
	for ; n > 0; n-- {
		buf = append(buf, c)
	}
	return buf
}
