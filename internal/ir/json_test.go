package ir

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramJSON_TaggedForm(t *testing.T) {
	p := Program{AddCell{Delta: 2}, Loop{Body: Program{AddCell{Delta: -1}}}, Output{}, Input{}}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"op":"add","delta":2},
		{"op":"loop","body":[{"op":"add","delta":-1}]},
		{"op":"output"},
		{"op":"input"}
	]`, string(data))

	var decoded Program
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, Equal(p, decoded))
}

func TestProgramJSON_EmptyLoop(t *testing.T) {
	data, err := json.Marshal(Program{Loop{}})
	require.NoError(t, err)
	assert.Equal(t, `[{"body":[],"op":"loop"}]`, string(data))

	var decoded Program
	require.NoError(t, json.Unmarshal([]byte(`[{"op":"loop"}]`), &decoded))
	require.Len(t, decoded, 1)
	loop, ok := decoded[0].(Loop)
	require.True(t, ok)
	assert.NotNil(t, loop.Body)
	assert.Empty(t, loop.Body)
}

func TestProgramJSON_NilIsEmptyArray(t *testing.T) {
	data, err := json.Marshal(Program(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestProgramJSON_UnknownOp(t *testing.T) {
	var p Program
	err := json.Unmarshal([]byte(`[{"op":"jump"}]`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown op "jump"`)
}

func TestProgramJSON_NotAnArray(t *testing.T) {
	var p Program
	assert.Error(t, json.Unmarshal([]byte(`{"op":"add"}`), &p))
}

// nested returns depth loops, one inside the other, around a single Output.
func nested(depth int) Program {
	p := Program{Output{}}
	for i := 0; i < depth; i++ {
		p = Program{Loop{Body: p}}
	}
	return p
}

func TestDecodeProgram_DeepNesting(t *testing.T) {
	p := nested(10000)
	data, err := MarshalCanonical(p)
	require.NoError(t, err)

	decoded, err := DecodeProgram(data)
	require.NoError(t, err)
	assert.Equal(t, 10000, Count(decoded).MaxDepth)
	assert.True(t, Equal(p, decoded))
}

func TestDecodeProgram_MatchesUnmarshal(t *testing.T) {
	src := `[{"op":"add","delta":3},{"body":[{"op":"move","delta":-2},{"op":"input"}],"op":"loop"},{"op":"output"}]`

	var viaJSON Program
	require.NoError(t, json.Unmarshal([]byte(src), &viaJSON))
	direct, err := DecodeProgram([]byte(src))
	require.NoError(t, err)
	assert.True(t, Equal(viaJSON, direct))
	assert.Equal(t, "+++[<<,].", direct.String())
}

func TestDecodeProgram_Null(t *testing.T) {
	p, err := DecodeProgram([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDecodeProgram_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"trailing data", `[] []`, "trailing data"},
		{"scalar element", `[1]`, "expected object"},
		{"unknown field", `[{"op":"add","jump":1}]`, `unknown field "jump"`},
		{"string delta", `[{"op":"add","delta":"1"}]`, "delta must be a number"},
		{"fractional delta", `[{"op":"add","delta":1.5}]`, "delta"},
		{"object body", `[{"op":"loop","body":{}}]`, "body must be an array"},
		{"unknown op", `[{"op":"jump"}]`, `unknown op "jump"`},
		{"truncated", strings.Repeat(`[{"op":"loop","body":`, 3), "decode program"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProgram([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
