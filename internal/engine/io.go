package engine

import (
	"bufio"
	"io"
)

//go:generate mockgen -write_package_comment=false -package=$GOPACKAGE -destination=mock_io_test.go github.com/roach88/bfc/internal/engine ByteSource,ByteSink

// ByteSource supplies program input one byte at a time.
// io.EOF means the input is exhausted; any other error is an I/O failure.
// *bufio.Reader and *bytes.Reader satisfy it.
type ByteSource interface {
	ReadByte() (byte, error)
}

// ByteSink receives program output one byte at a time.
// Flush is called before every Input and at the end of a run.
// *bufio.Writer satisfies it.
type ByteSink interface {
	WriteByte(c byte) error
	Flush() error
}

// eofSource is the input when none is configured.
type eofSource struct{}

func (eofSource) ReadByte() (byte, error) { return 0, io.EOF }

// NewSink buffers w for use as a ByteSink.
func NewSink(w io.Writer) ByteSink {
	return bufio.NewWriter(w)
}

// NewSource buffers r for use as a ByteSource.
func NewSource(r io.Reader) ByteSource {
	if bs, ok := r.(ByteSource); ok {
		return bs
	}
	return bufio.NewReader(r)
}
