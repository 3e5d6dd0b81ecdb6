package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bfc/internal/config"
)

// Scenario defines a conformance test scenario: one program, one input,
// one run, and the expected result.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the program text. Exactly one of Source and SourceFile is set.
	Source string `yaml:"source,omitempty"`

	// SourceFile is a path to the program, relative to the scenario file.
	SourceFile string `yaml:"source_file,omitempty"`

	// Input is the program input as text.
	Input string `yaml:"input,omitempty"`

	// InputBytes is the program input as byte values, for input that is not
	// convenient as text. Mutually exclusive with Input.
	InputBytes []int `yaml:"input_bytes,omitempty"`

	// Config overrides the default run configuration.
	Config *config.File `yaml:"config,omitempty"`

	// Expect lists the checks made after the run.
	Expect Expect `yaml:"expect"`

	// Trace records every step for golden comparison.
	Trace bool `yaml:"trace,omitempty"`

	// RunID fixes the recorded run id. Defaults to DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// dir is the directory of the scenario file, for SourceFile.
	dir string
}

// Expect holds the expected outcome. Nil fields are not checked.
type Expect struct {
	Output      *string     `yaml:"output,omitempty"`
	OutputBytes []int       `yaml:"output_bytes,omitempty"`
	Cells       map[int]int `yaml:"cells,omitempty"`
	Pointer     *int        `yaml:"pointer,omitempty"`
	Steps       *int64      `yaml:"steps,omitempty"`

	// Error is the expected error code; empty means the run must succeed.
	Error string `yaml:"error,omitempty"`

	// Diagnostics is the expected number of bracket diagnostics.
	Diagnostics *int `yaml:"diagnostics,omitempty"`
}

// DefaultRunID is the run id used when a scenario does not set one.
const DefaultRunID = "test-run-default"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.dir = filepath.Dir(path)

	if scenario.SourceFile != "" {
		if _, err := os.Stat(scenario.sourcePath()); err != nil {
			return nil, fmt.Errorf("invalid scenario: source file: %w", err)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. SourceFile paths resolve against the
// working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expected:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func (s *Scenario) sourcePath() string {
	if filepath.IsAbs(s.SourceFile) || s.dir == "" {
		return s.SourceFile
	}
	return filepath.Join(s.dir, s.SourceFile)
}

// ReadSource returns the program text, reading SourceFile if set.
func (s *Scenario) ReadSource() ([]byte, error) {
	if s.SourceFile == "" {
		return []byte(s.Source), nil
	}
	data, err := os.ReadFile(s.sourcePath())
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return data, nil
}

// InputData returns the program input bytes.
func (s *Scenario) InputData() []byte {
	if s.InputBytes != nil {
		return intsToBytes(s.InputBytes)
	}
	return []byte(s.Input)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Source != "" && s.SourceFile != "" {
		return fmt.Errorf("source and source_file are mutually exclusive")
	}
	if s.Input != "" && s.InputBytes != nil {
		return fmt.Errorf("input and input_bytes are mutually exclusive")
	}
	if err := checkByteValues("input_bytes", s.InputBytes); err != nil {
		return err
	}
	if s.Expect.Output != nil && s.Expect.OutputBytes != nil {
		return fmt.Errorf("expect: output and output_bytes are mutually exclusive")
	}
	if err := checkByteValues("expect.output_bytes", s.Expect.OutputBytes); err != nil {
		return err
	}
	for idx, v := range s.Expect.Cells {
		if idx < 0 {
			return fmt.Errorf("expect.cells: negative index %d", idx)
		}
		if v < 0 || v > 255 {
			return fmt.Errorf("expect.cells[%d]: value %d outside [0, 255]", idx, v)
		}
	}
	if s.Config != nil {
		if err := s.Config.Apply(config.Default()).Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

func checkByteValues(field string, vals []int) error {
	for i, v := range vals {
		if v < 0 || v > 255 {
			return fmt.Errorf("%s[%d]: value %d outside [0, 255]", field, i, v)
		}
	}
	return nil
}

func intsToBytes(vals []int) []byte {
	out := make([]byte, len(vals))
	for i, v := range vals {
		out[i] = byte(v)
	}
	return out
}
