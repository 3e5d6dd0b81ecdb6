// Package testutil holds test helpers shared across packages.
package testutil

import (
	"errors"
	"io"
)

// ErrInjected is the default error returned by FailingReader and
// FailingWriter.
var ErrInjected = errors.New("injected failure")

// FailingReader yields Data and then fails with Err instead of io.EOF.
// It does not implement io.ByteReader, so the engine buffers it like any
// other stream.
type FailingReader struct {
	Data []byte
	Err  error
	off  int
}

func (r *FailingReader) Read(p []byte) (int, error) {
	if r.off < len(r.Data) {
		n := copy(p, r.Data[r.off:])
		r.off += n
		return n, nil
	}
	if r.Err == nil {
		return 0, ErrInjected
	}
	return 0, r.Err
}

// FailingWriter accepts Limit bytes and then fails with Err.
type FailingWriter struct {
	Limit   int
	Err     error
	Written []byte
}

func (w *FailingWriter) Write(p []byte) (int, error) {
	room := w.Limit - len(w.Written)
	if room >= len(p) {
		w.Written = append(w.Written, p...)
		return len(p), nil
	}
	if room > 0 {
		w.Written = append(w.Written, p[:room]...)
	} else {
		room = 0
	}
	err := w.Err
	if err == nil {
		err = ErrInjected
	}
	return room, err
}

var (
	_ io.Reader = (*FailingReader)(nil)
	_ io.Writer = (*FailingWriter)(nil)
)
