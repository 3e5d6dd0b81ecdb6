package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/bfc/internal/ir"
)

// Snapshot renders a result as canonical JSON for golden comparison.
// Byte-identical results produce byte-identical snapshots.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, e := range result.Trace {
		m := map[string]any{
			"step":    e.Step,
			"op":      e.Op,
			"pointer": e.Pointer,
			"cell":    e.Cell,
		}
		if e.Delta != 0 {
			m["delta"] = e.Delta
		}
		if e.Taken {
			m["taken"] = true
		}
		trace[i] = m
	}

	snapshot := map[string]any{
		"scenario_name": name,
		"run_id":        result.RunID,
		"output":        result.Output,
		"steps":         result.Steps,
		"pointer":       result.Pointer,
		"trace":         trace,
	}
	if result.ProgramHash != "" {
		snapshot["program_hash"] = result.ProgramHash
	}
	if result.ErrorCode != "" {
		snapshot["error"] = result.ErrorCode
	}
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
