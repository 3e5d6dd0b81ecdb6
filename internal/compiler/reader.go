package compiler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Reader yields source bytes one at a time and tracks their position.
// End of input is a normal condition, not an error.
type Reader struct {
	br     *bufio.Reader
	offset int // bytes consumed so far
	line   int // line of the last byte returned (1-based)
	column int // column of the last byte returned (1-based)
	nextNL bool
}

// NewReader wraps r for byte-at-a-time reading.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r), line: 1}
}

// Next returns the next byte. ok is false at end of input.
// err is non-nil only for read failures other than io.EOF.
func (r *Reader) Next() (b byte, ok bool, err error) {
	b, err = r.br.ReadByte()
	if errors.Is(err, io.EOF) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read source at offset %d: %w", r.offset, err)
	}

	if r.nextNL {
		r.line++
		r.column = 0
		r.nextNL = false
	}
	r.offset++
	r.column++
	if b == '\n' {
		r.nextNL = true
	}
	return b, true, nil
}

// Pos returns the line and column of the byte last returned by Next.
func (r *Reader) Pos() (line, column int) {
	return r.line, r.column
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.offset
}

// Drain consumes the rest of the input and returns how many bytes it held.
func (r *Reader) Drain() (int, error) {
	n, err := io.Copy(io.Discard, r.br)
	r.offset += int(n)
	if err != nil {
		return int(n), fmt.Errorf("drain source: %w", err)
	}
	return int(n), nil
}
