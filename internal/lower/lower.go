// Package lower translates an ir.Program into other languages.
//
// Each backend is an ir.Visitor, so every Instruction maps onto exactly one
// construct of the target. Pointer and EOF policies are compiled into the
// output, so a lowered program behaves like engine.Execute under the same
// configuration. A non-EOF read error exits with status 1 as IO_FAILURE does.
// Write errors go unreported, and there is no step quota.
package lower

import (
	"fmt"
	"io"
	"sort"

	"github.com/roach88/bfc/internal/config"
	"github.com/roach88/bfc/internal/ir"
)

// Backend renders a Program as source text in some target.
type Backend interface {
	// Name is the --emit value that selects the backend.
	Name() string

	// Lower writes p to w. cfg must already be valid.
	Lower(w io.Writer, p ir.Program, cfg config.Config) error
}

var backends = map[string]Backend{
	"c":    CBackend{},
	"go":   GoBackend{},
	"ir":   ListingBackend{},
	"json": JSONBackend{},
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q: must be one of %v", name, Names())
	}
	return b, nil
}

// Names lists the registered backends in sorted order.
func Names() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListingBackend emits the indented ir.Format listing.
type ListingBackend struct{}

func (ListingBackend) Name() string { return "ir" }

func (ListingBackend) Lower(w io.Writer, p ir.Program, _ config.Config) error {
	_, err := io.WriteString(w, ir.Format(p))
	return err
}

// JSONBackend emits the canonical JSON form of the Program, the same bytes
// ir.ProgramHash hashes.
type JSONBackend struct{}

func (JSONBackend) Name() string { return "json" }

func (JSONBackend) Lower(w io.Writer, p ir.Program, _ config.Config) error {
	data, err := ir.MarshalCanonical(p)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// cellDelta reduces an AddCell delta to the byte arithmetic it performs:
// op is "+=" or "-=" and n is in [0, 255].
func cellDelta(d int) (op string, n int) {
	if d < 0 {
		return "-=", (-d) % 256
	}
	return "+=", d % 256
}

// wrapOffset reduces a MovePointer delta to a non-negative offset modulo
// the tape size.
func wrapOffset(d, size int) int {
	off := d % size
	if off < 0 {
		off += size
	}
	return off
}
