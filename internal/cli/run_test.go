package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bfc/internal/testutil"
)

func TestRunPrintsProgramOutput(t *testing.T) {
	prog := testutil.WriteFile(t, "a.b", "++++++++[>++++++++<-]>+.")

	stdout, stderr, err := execute(t, "", "run", prog)
	require.NoError(t, err)
	assert.Equal(t, "A", stdout)
	assert.Empty(t, stderr)
}

func TestRunReadsProgramInputFromStdin(t *testing.T) {
	prog := testutil.WriteFile(t, "echo.b", ",[.,]")

	stdout, _, err := execute(t, "hi", "run", "--eof", "zero", prog)
	require.NoError(t, err)
	assert.Equal(t, "hi", stdout)
}

func TestRunReadsProgramInputFromFile(t *testing.T) {
	prog := testutil.WriteFile(t, "echo.b", ",.")
	input := testutil.WriteFile(t, "input.txt", "z")

	stdout, _, err := execute(t, "ignored", "run", "--input", input, prog)
	require.NoError(t, err)
	assert.Equal(t, "z", stdout)
}

func TestRunProgramFromStdin(t *testing.T) {
	// 49 is '1'; the input read sees end of input and leaves it alone.
	src := strings.Repeat("+", 49) + ",."

	stdout, _, err := execute(t, src, "run", "--eof", "unchanged", "-")
	require.NoError(t, err)
	assert.Equal(t, "1", stdout)
}

func TestRunJSONFormat(t *testing.T) {
	prog := testutil.WriteFile(t, "three.b", "+++.")

	stdout, _, err := execute(t, "", "run", "--format", "json", prog)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "\x03", resp.Data.Output)
	assert.Equal(t, int64(4), resp.Data.Steps)
	assert.Equal(t, int64(1), resp.Data.Written)
	assert.Equal(t, 0, resp.Data.ExitStatus)
	assert.Len(t, resp.Data.ProgramHash, 64)
	assert.Empty(t, resp.Data.RunID)
}

func TestRunPointerFailure(t *testing.T) {
	prog := testutil.WriteFile(t, "left.b", "+.<")

	stdout, stderr, err := execute(t, "", "run", "--pointer", "fail", "--tape-size", "4", prog)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	// Output before the failure is still delivered.
	assert.Equal(t, "\x01", stdout)
	assert.Contains(t, stderr, "Error [E006]")
	assert.Contains(t, stderr, "OUT_OF_RANGE")
}

func TestRunStepLimit(t *testing.T) {
	prog := testutil.WriteFile(t, "spin.b", "+[]")

	_, stderr, err := execute(t, "", "run", "--max-steps", "10", prog)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "E006")
}

func TestRunTimeout(t *testing.T) {
	prog := testutil.WriteFile(t, "spin.b", "+[]")

	_, _, err := execute(t, "", "run", "--timeout", "20ms", prog)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		args []string
		code string
	}{
		{"nesting too deep", "[[[]]]", []string{"--max-depth", "2"}, ErrCodeCompileFailed},
		{"strict brackets", "+]", []string{"--brackets", "strict"}, ErrCodeCompileFailed},
		{"coalesce without wrap", "+", []string{"--coalesce", "--pointer", "fail"}, ErrCodeConfigInvalid},
		{"zero tape", "+", []string{"--tape-size", "0"}, ErrCodeConfigInvalid},
		{"unknown eof policy", "+", []string{"--eof", "minus-one"}, ErrCodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := testutil.WriteFile(t, "prog.b", tt.src)
			args := append([]string{"run"}, tt.args...)
			args = append(args, prog)

			_, stderr, err := execute(t, "", args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stderr, "Error ["+tt.code+"]")
		})
	}
}

func TestRunMissingSource(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.b")

	_, stderr, err := execute(t, "", "run", missing)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E005]")
}

func TestRunConfigFileWithFlagOverride(t *testing.T) {
	cfg := testutil.WriteFile(t, "bfc.yaml", "tape_size: 4\npointer_policy: fail\n")
	prog := testutil.WriteFile(t, "right.b", ">>>>")

	// The file alone makes the fourth move fail.
	_, _, err := execute(t, "", "run", "--config", cfg, prog)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	// A flag overrides the file.
	_, _, err = execute(t, "", "run", "--config", cfg, "--pointer", "wrap", prog)
	require.NoError(t, err)
}

func TestRunCoalesce(t *testing.T) {
	prog := testutil.WriteFile(t, "five.b", "+++++.")

	stdout, _, err := execute(t, "", "run", "--coalesce", "--format", "json", prog)
	require.NoError(t, err)

	var resp struct {
		Data RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "\x05", resp.Data.Output)
	// One merged add and one output.
	assert.Equal(t, int64(2), resp.Data.Steps)
}

func TestRunReportsDiagnosticsVerbosely(t *testing.T) {
	prog := testutil.WriteFile(t, "open.b", "+[-")

	_, stderr, err := execute(t, "", "run", "-v", prog)
	require.NoError(t, err)
	assert.Contains(t, stderr, "open.b: 1 bracket anomaly(ies)")
	assert.Contains(t, stderr, "'[' has no matching ']'")
	assert.Contains(t, stderr, "step(s)")
}
