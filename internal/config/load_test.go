package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/engine"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "bfc.yaml", `
tape_size: 30000
pointer_policy: fail
eof_policy: zero
max_steps: 1000000
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30000, c.TapeSize)
	assert.Equal(t, engine.PointerFail, c.PointerPolicy)
	assert.Equal(t, engine.EOFZero, c.EOFPolicy)
	assert.Equal(t, int64(1000000), c.MaxSteps)
	assert.Equal(t, compiler.BracketsLenient, c.BracketPolicy, "omitted keys keep defaults")
	assert.Equal(t, compiler.DefaultMaxDepth, c.MaxDepth)
}

func TestLoad_YAMLExplicitZero(t *testing.T) {
	c, err := LoadBytes("c.yml", []byte("max_depth: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.MaxDepth)
}

func TestLoad_YAMLEmpty(t *testing.T) {
	c, err := LoadBytes("empty.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	_, err := LoadBytes("bad.yaml", []byte("tape_sise: 10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field tape_sise not found")
}

func TestLoad_YAMLInvalidValue(t *testing.T) {
	_, err := LoadBytes("bad.yaml", []byte("pointer_policy: bounce\n"))
	assert.ErrorContains(t, err, `invalid pointer policy "bounce"`)
}

func TestLoad_CUE(t *testing.T) {
	path := writeFile(t, "bfc.cue", `
tape_size:      64
pointer_policy: "saturate"
bracket_policy: "strict"
coalesce:       false
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, c.TapeSize)
	assert.Equal(t, engine.PointerSaturate, c.PointerPolicy)
	assert.Equal(t, compiler.BracketsStrict, c.BracketPolicy)
	assert.Equal(t, engine.EOFMax, c.EOFPolicy)
}

func TestLoad_CUEExpressions(t *testing.T) {
	c, err := LoadBytes("calc.cue", []byte(`
_cells: 256
tape_size: _cells * 4
`))
	require.NoError(t, err)
	assert.Equal(t, 1024, c.TapeSize)
}

func TestLoad_CUESchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"enum", `pointer_policy: "bounce"`},
		{"range", `tape_size: 0`},
		{"type", `coalesce: "yes"`},
		{"closed", `colour: "blue"`},
		{"negative", `max_steps: -1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes("bad.cue", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config bad.cue")
		})
	}
}

func TestLoad_CUESyntaxError(t *testing.T) {
	_, err := LoadBytes("broken.cue", []byte("tape_size: {"))
	assert.ErrorContains(t, err, "parse cue")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := LoadBytes("bfc.toml", []byte("tape_size = 1"))
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}
