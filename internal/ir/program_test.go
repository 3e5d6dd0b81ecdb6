package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample is +[->+<]. with one nested loop.
func sample() Program {
	return Program{
		AddCell{Delta: 1},
		Loop{Body: Program{
			AddCell{Delta: -1},
			MovePointer{Delta: 1},
			AddCell{Delta: 1},
			MovePointer{Delta: -1},
			Loop{Body: Program{Input{}}},
		}},
		Output{},
	}
}

func TestCount_FlattensLoops(t *testing.T) {
	s := Count(sample())

	assert.Equal(t, 2, s.Moves)
	assert.Equal(t, 3, s.Adds)
	assert.Equal(t, 1, s.Outputs)
	assert.Equal(t, 1, s.Inputs)
	assert.Equal(t, 2, s.Loops)
	assert.Equal(t, 2, s.MaxDepth)
	assert.Equal(t, 7, s.Primitives())
	assert.Equal(t, 9, s.Total())
}

func TestCount_Empty(t *testing.T) {
	s := Count(nil)
	assert.Equal(t, Stats{}, s)
	assert.Equal(t, 0, s.Total())
}

func TestWalk_PreOrderWithDepth(t *testing.T) {
	var ops []string
	var depths []int
	err := Walk(sample(), func(in Instruction, depth int) error {
		ops = append(ops, in.Op())
		depths = append(depths, depth)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"add", "loop", "add", "move", "add", "move", "loop", "input", "output"}, ops)
	assert.Equal(t, []int{0, 0, 1, 1, 1, 1, 1, 2, 0}, depths)
}

func TestWalk_StopsOnError(t *testing.T) {
	stop := errors.New("stop")
	visited := 0
	err := Walk(sample(), func(in Instruction, depth int) error {
		visited++
		if in.Op() == OpLoop {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, visited)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(sample(), sample()))
	assert.True(t, Equal(Program{Loop{}}, Program{Loop{Body: Program{}}}))
	assert.False(t, Equal(Program{AddCell{Delta: 1}}, Program{AddCell{Delta: -1}}))
	assert.False(t, Equal(Program{AddCell{Delta: 1}}, Program{MovePointer{Delta: 1}}))
	assert.False(t, Equal(Program{Loop{Body: Program{Output{}}}}, Program{Loop{Body: Program{Input{}}}}))
	assert.False(t, Equal(Program{Output{}}, Program{Output{}, Output{}}))
}

func TestProgramString_RendersSource(t *testing.T) {
	assert.Equal(t, "+[->+<[,]].", sample().String())
	assert.Equal(t, ">>>---", Program{MovePointer{Delta: 3}, AddCell{Delta: -3}}.String())
	assert.Equal(t, "", Program{}.String())
}
