package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bfc/internal/engine"
)

func TestLoadScenario_Full(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "pointer_fail.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "pointer_fail", s.Name)
	assert.Equal(t, "+.>>>>>>>>", s.Source)
	require.NotNil(t, s.Config)
	require.NotNil(t, s.Config.PointerPolicy)
	assert.Equal(t, string(engine.PointerFail), *s.Config.PointerPolicy)
	assert.Equal(t, "OUT_OF_RANGE", s.Expect.Error)
	require.NotNil(t, s.Expect.Pointer)
	assert.Equal(t, 7, *s.Expect.Pointer)
}

func TestLoadScenario_SourceFileRelative(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "hello.yaml"))
	require.NoError(t, err)

	src, err := s.ReadSource()
	require.NoError(t, err)
	assert.Contains(t, string(src), "++++++++[")
}

func TestLoadScenario_MissingSourceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\ndescription: y\nsource_file: nope.b\n"), 0o644))

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "source file")
}

func TestLoadScenario_NotFound(t *testing.T) {
	_, err := LoadScenario("testdata/does-not-exist.yaml")
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing name", "description: d\n", "name is required"},
		{"missing description", "name: n\n", "description is required"},
		{"unknown field", "name: n\ndescription: d\nexpected: {}\n", "field expected not found"},
		{"both sources", "name: n\ndescription: d\nsource: x\nsource_file: y\n", "mutually exclusive"},
		{"both inputs", "name: n\ndescription: d\ninput: a\ninput_bytes: [1]\n", "mutually exclusive"},
		{"input byte range", "name: n\ndescription: d\ninput_bytes: [256]\n", "input_bytes[0]: value 256"},
		{"both outputs", "name: n\ndescription: d\nexpect: {output: a, output_bytes: [97]}\n", "mutually exclusive"},
		{"cell range", "name: n\ndescription: d\nexpect: {cells: {0: 300}}\n", "expect.cells[0]"},
		{"bad config", "name: n\ndescription: d\nconfig: {pointer_policy: bounce}\n", "invalid pointer policy"},
		{"unknown config key", "name: n\ndescription: d\nconfig: {colour: blue}\n", "field colour not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScenario_Input(t *testing.T) {
	s := &Scenario{InputBytes: []int{0, 255}}
	assert.Equal(t, []byte{0, 255}, s.InputData())

	s = &Scenario{Input: "hi"}
	assert.Equal(t, []byte("hi"), s.InputData())
}

func TestLoadDir_Sorted(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"add_output", "echo", "eof_zero", "hello", "loop_to_zero",
		"pointer_fail", "pointer_wrap", "step_limit", "unclosed_loop",
	}, names)
}
