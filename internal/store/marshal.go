package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/bfc/internal/ir"
)

// marshalProgram converts a Program to canonical JSON TEXT for storage.
// Canonical form makes the stored IR byte-identical to what ProgramHash
// hashed.
func marshalProgram(p ir.Program) (string, error) {
	data, err := ir.MarshalCanonical(p)
	if err != nil {
		return "", fmt.Errorf("marshal program: %w", err)
	}
	return string(data), nil
}

// unmarshalProgram parses stored IR back into a Program. ir.DecodeProgram
// has no nesting limit, so any program the compiler accepted reads back.
func unmarshalProgram(data string) (ir.Program, error) {
	p, err := ir.DecodeProgram([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal program: %w", err)
	}
	if p == nil {
		p = ir.Program{}
	}
	return p, nil
}

// marshalConfig converts a run configuration to canonical JSON TEXT.
func marshalConfig(cfg map[string]any) (string, error) {
	if cfg == nil {
		return "{}", nil
	}
	data, err := ir.MarshalCanonical(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

// unmarshalConfig parses stored configuration. Numbers decode as int64.
func unmarshalConfig(data string) (map[string]any, error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	out := make(map[string]any, len(raw))
	for k, v := range raw {
		var n int64
		if err := json.Unmarshal(v, &n); err == nil {
			out[k] = n
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			out[k] = b
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("unmarshal config: key %q: unsupported value %s", k, v)
		}
		out[k] = s
	}
	return out, nil
}
