package lower

import (
	"bytes"
	"encoding/json"
	"go/parser"
	"go/token"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/config"
	"github.com/roach88/bfc/internal/engine"
	"github.com/roach88/bfc/internal/ir"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func parse(t *testing.T, src string) ir.Program {
	t.Helper()
	res, err := compiler.ParseString(nil, src)
	require.NoError(t, err)
	return res.Program
}

func lower(t *testing.T, name string, p ir.Program, cfg config.Config) []byte {
	t.Helper()
	b, err := Lookup(name)
	require.NoError(t, err)
	assert.Equal(t, name, b.Name())

	var buf bytes.Buffer
	require.NoError(t, b.Lower(&buf, p, cfg))
	return buf.Bytes()
}

func smallTape() config.Config {
	cfg := config.Default()
	cfg.TapeSize = 16
	return cfg
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"c", "go", "ir", "json"}, Names())

	_, err := Lookup("wasm")
	assert.ErrorContains(t, err, `unknown backend "wasm"`)
}

func TestCBackend_WrapMax(t *testing.T) {
	out := lower(t, "c", parse(t, "+[->+<]>.,"), smallTape())
	newGoldie(t).Assert(t, "c_wrap_max", out)
}

func TestCBackend_FailZero(t *testing.T) {
	cfg := smallTape()
	cfg.PointerPolicy = engine.PointerFail
	cfg.EOFPolicy = engine.EOFZero

	out := lower(t, "c", parse(t, "<."), cfg)
	newGoldie(t).Assert(t, "c_fail_zero", out)
}

func TestCBackend_Saturate(t *testing.T) {
	cfg := smallTape()
	cfg.PointerPolicy = engine.PointerSaturate
	cfg.EOFPolicy = engine.EOFUnchanged

	out := string(lower(t, "c", parse(t, ">,"), cfg))
	assert.Contains(t, out, "static long move_saturate(long delta)")
	assert.Contains(t, out, "\tp = move_saturate(1);\n")
	assert.Contains(t, out, "\t\treturn cell;\n")
}

func TestCBackend_ReadFailureExits(t *testing.T) {
	out := string(lower(t, "c", parse(t, ","), smallTape()))
	assert.Contains(t, out, "#include <stdlib.h>\n")
	assert.Contains(t, out, "\t\tif (ferror(stdin)) {\n")
	assert.Contains(t, out, "\t\t\texit(1);\n")
}

func TestCBackend_OmitsUnusedHelpers(t *testing.T) {
	cfg := smallTape()
	cfg.PointerPolicy = engine.PointerFail

	out := string(lower(t, "c", parse(t, "+."), cfg))
	assert.NotContains(t, out, "move_checked")
	assert.NotContains(t, out, "read_cell")
	assert.NotContains(t, out, "stdlib.h")
}

func TestCBackend_CoalescedDeltas(t *testing.T) {
	p := ir.Program{
		ir.AddCell{Delta: 300},
		ir.AddCell{Delta: -257},
		ir.MovePointer{Delta: -35},
	}
	out := string(lower(t, "c", p, smallTape()))
	assert.Contains(t, out, "\tdata[p] += 44;\n")
	assert.Contains(t, out, "\tdata[p] -= 1;\n")
	assert.Contains(t, out, "\tp = (p + 13) % TAPE_SIZE;\n")
}

func TestGoBackend_Parses(t *testing.T) {
	policies := []engine.PointerPolicy{engine.PointerWrap, engine.PointerSaturate, engine.PointerFail}
	for _, pol := range policies {
		t.Run(string(pol), func(t *testing.T) {
			cfg := smallTape()
			cfg.PointerPolicy = pol

			out := lower(t, "go", parse(t, "+[->+<]>.,"), cfg)
			_, err := parser.ParseFile(token.NewFileSet(), "main.go", out, parser.AllErrors)
			require.NoError(t, err, string(out))
		})
	}
}

func TestGoBackend_Shape(t *testing.T) {
	cfg := smallTape()
	cfg.PointerPolicy = engine.PointerFail
	cfg.EOFPolicy = engine.EOFZero

	out := string(lower(t, "go", parse(t, "+[>,]"), cfg))
	assert.Contains(t, out, "// Code generated by bfc. DO NOT EDIT.")
	assert.Contains(t, out, "const tapeSize = 16")
	assert.Contains(t, out, "\"fmt\"")
	assert.Contains(t, out, "\tfor tape[p] != 0 {\n\t\tp = moveChecked(1)\n\t\ttape[p] = readCell(tape[p])\n\t}\n")
	assert.Contains(t, out, "\t\treturn 0\n")
}

func TestGoBackend_ReadFailureExits(t *testing.T) {
	out := string(lower(t, "go", parse(t, ","), smallTape()))
	assert.Contains(t, out, "\t\"io\"\n")
	assert.Contains(t, out, "\tif err == io.EOF {\n\t\treturn 255\n\t}\n")
	assert.Contains(t, out, "\t\tos.Exit(1)\n")
}

func TestGoBackend_NoFmtWithoutFail(t *testing.T) {
	out := string(lower(t, "go", parse(t, ">+."), smallTape()))
	assert.NotContains(t, out, "\"fmt\"")
	assert.Contains(t, out, "\tp = (p + 1) % tapeSize\n")
}

func TestListingBackend(t *testing.T) {
	out := lower(t, "ir", parse(t, "+[->+<]>.,"), smallTape())
	newGoldie(t).Assert(t, "ir_listing", out)
}

func TestJSONBackend(t *testing.T) {
	p := parse(t, "+[-].")
	out := lower(t, "json", p, smallTape())
	assert.Equal(t, `[{"delta":1,"op":"add"},{"body":[{"delta":-1,"op":"add"}],"op":"loop"},{"op":"output"}]`+"\n", string(out))

	var back ir.Program
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, ir.Equal(p, back))
}

func TestCellDelta(t *testing.T) {
	tests := []struct {
		in     int
		wantOp string
		wantN  int
	}{
		{1, "+=", 1},
		{-1, "-=", 1},
		{256, "+=", 0},
		{-513, "-=", 1},
		{0, "+=", 0},
	}
	for _, tt := range tests {
		op, n := cellDelta(tt.in)
		assert.Equal(t, tt.wantOp, op, "delta %d", tt.in)
		assert.Equal(t, tt.wantN, n, "delta %d", tt.in)
	}
}
