package testutil

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bfc/internal/ir"
)

func TestFailingReader(t *testing.T) {
	r := &FailingReader{Data: []byte("ab")}
	buf := make([]byte, 1)

	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte('a'), buf[0])

	_, err = r.Read(buf)
	require.NoError(t, err)

	_, err = r.Read(buf)
	assert.ErrorIs(t, err, ErrInjected)
	assert.False(t, errors.Is(err, io.EOF))
}

func TestFailingWriter(t *testing.T) {
	boom := errors.New("disk full")
	w := &FailingWriter{Limit: 3, Err: boom}

	n, err := w.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = w.Write([]byte("cd"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte("abc"), w.Written)

	n, err = w.Write([]byte("e"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, n)
}

func TestParse(t *testing.T) {
	p := Parse(t, "+[-]")
	assert.Equal(t, 2, len(p))
	assert.Equal(t, ir.OpLoop, p[1].Op())
}

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, "prog.b", "+.")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "+.", string(data))
}

func TestOpenStore(t *testing.T) {
	s, path := OpenStore(t)
	require.NotNil(t, s)
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
