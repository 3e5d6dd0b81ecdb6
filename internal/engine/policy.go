package engine

import "fmt"

// DefaultTapeSize is the number of cells when none is configured.
const DefaultTapeSize = 32768

// PointerPolicy decides what a move off either end of the tape does.
type PointerPolicy string

const (
	// PointerWrap reduces the pointer modulo the tape size.
	PointerWrap PointerPolicy = "wrap"
	// PointerSaturate clamps the pointer to the first or last cell.
	PointerSaturate PointerPolicy = "saturate"
	// PointerFail aborts the run with OUT_OF_RANGE.
	PointerFail PointerPolicy = "fail"
)

// ValidPointerPolicies lists the accepted pointer policy names.
var ValidPointerPolicies = []PointerPolicy{PointerWrap, PointerSaturate, PointerFail}

// ParsePointerPolicy converts a name to a PointerPolicy.
func ParsePointerPolicy(s string) (PointerPolicy, error) {
	for _, p := range ValidPointerPolicies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid pointer policy %q: must be one of %v", s, ValidPointerPolicies)
}

// EOFPolicy decides what Input stores once the input source is exhausted.
type EOFPolicy string

const (
	// EOFMax stores 255, the byte value of C's EOF (-1) truncated to a cell.
	EOFMax EOFPolicy = "max"
	// EOFZero stores 0.
	EOFZero EOFPolicy = "zero"
	// EOFUnchanged leaves the cell as it was.
	EOFUnchanged EOFPolicy = "unchanged"
)

// ValidEOFPolicies lists the accepted EOF policy names.
var ValidEOFPolicies = []EOFPolicy{EOFMax, EOFZero, EOFUnchanged}

// ParseEOFPolicy converts a name to an EOFPolicy.
func ParseEOFPolicy(s string) (EOFPolicy, error) {
	for _, p := range ValidEOFPolicies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid eof policy %q: must be one of %v", s, ValidEOFPolicies)
}

// Resolve returns the pointer after moving delta cells from ptr on a tape
// of size cells. ok is false when the policy is PointerFail and the target
// is off the tape; the returned value is then the raw target.
func (p PointerPolicy) Resolve(ptr, delta, size int) (next int, ok bool) {
	target := ptr + delta
	switch p {
	case PointerSaturate:
		if target < 0 {
			return 0, true
		}
		if target >= size {
			return size - 1, true
		}
		return target, true
	case PointerFail:
		if target < 0 || target >= size {
			return target, false
		}
		return target, true
	default:
		target %= size
		if target < 0 {
			target += size
		}
		return target, true
	}
}

// Apply returns the cell value Input stores at end of input, and whether
// the cell should be written at all.
func (p EOFPolicy) Apply() (value byte, write bool) {
	switch p {
	case EOFZero:
		return 0, true
	case EOFUnchanged:
		return 0, false
	default:
		return 0xFF, true
	}
}
