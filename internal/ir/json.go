package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// wireInstruction is the tagged JSON form of an Instruction:
//
//	{"op":"move","delta":1}
//	{"op":"add","delta":-1}
//	{"op":"output"}
//	{"op":"input"}
//	{"op":"loop","body":[...]}
type wireInstruction struct {
	Op    string
	Delta int
	Body  Program
}

// MarshalJSON encodes the program as an array of tagged instructions in
// canonical form. A nil Program encodes as [].
func (p Program) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(p)
}

// UnmarshalJSON decodes the tagged array produced by MarshalJSON.
// Unknown op names are rejected.
//
// json.Unmarshal validates its whole input before calling this, so it is
// bound by the decoder's nesting limit. Use DecodeProgram for stored IR of
// arbitrary depth.
func (p *Program) UnmarshalJSON(data []byte) error {
	out, err := DecodeProgram(data)
	if err != nil {
		return err
	}
	if out != nil {
		*p = out
	}
	return nil
}

// decodeFrame is one open array: the top-level program or a loop body, plus
// the instruction object currently being read into it.
type decodeFrame struct {
	prog     Program
	inObject bool
	wire     wireInstruction
}

// DecodeProgram decodes the tagged array form token by token with an
// explicit stack of open arrays, so nesting depth is limited only by
// memory. "null" decodes to a nil Program.
func DecodeProgram(data []byte) (Program, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	if tok == nil {
		return nil, expectEOF(dec)
	}
	if tok != json.Delim('[') {
		return nil, fmt.Errorf("decode program: expected array, got %v", tok)
	}

	stack := []*decodeFrame{{prog: Program{}}}
	for {
		top := stack[len(stack)-1]
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode program: %w", err)
		}

		if !top.inObject {
			switch tok {
			case json.Delim('{'):
				top.inObject = true
				top.wire = wireInstruction{}
			case json.Delim(']'):
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return top.prog, expectEOF(dec)
				}
				parent := stack[len(stack)-1]
				parent.wire.Body = top.prog
			default:
				return nil, fmt.Errorf("decode program: instruction %d: expected object, got %v", len(top.prog), tok)
			}
			continue
		}

		if tok == json.Delim('}') {
			in, err := fromWire(top.wire)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", len(top.prog), err)
			}
			top.prog = append(top.prog, in)
			top.inObject = false
			continue
		}

		key, _ := tok.(string)
		val, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode program: %w", err)
		}
		switch key {
		case "op":
			op, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("instruction %d: op must be a string, got %v", len(top.prog), val)
			}
			top.wire.Op = op
		case "delta":
			n, ok := val.(json.Number)
			if !ok {
				return nil, fmt.Errorf("instruction %d: delta must be a number, got %v", len(top.prog), val)
			}
			d, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("instruction %d: delta: %w", len(top.prog), err)
			}
			top.wire.Delta = int(d)
		case "body":
			if val != json.Delim('[') {
				return nil, fmt.Errorf("instruction %d: body must be an array, got %v", len(top.prog), val)
			}
			stack = append(stack, &decodeFrame{prog: Program{}})
		default:
			return nil, fmt.Errorf("instruction %d: unknown field %q", len(top.prog), key)
		}
	}
}

func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("decode program: trailing data after program")
	}
	return nil
}

func fromWire(w wireInstruction) (Instruction, error) {
	switch w.Op {
	case OpMove:
		return MovePointer{Delta: w.Delta}, nil
	case OpAdd:
		return AddCell{Delta: w.Delta}, nil
	case OpOutput:
		return Output{}, nil
	case OpInput:
		return Input{}, nil
	case OpLoop:
		body := w.Body
		if body == nil {
			body = Program{}
		}
		return Loop{Body: body}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", w.Op)
	}
}
