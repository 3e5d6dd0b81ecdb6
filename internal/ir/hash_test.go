package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHash(t *testing.T, p Program) string {
	t.Helper()
	h, err := ProgramHash(p)
	require.NoError(t, err)
	return h
}

func TestProgramHash_Stable(t *testing.T) {
	h1, err := ProgramHash(sample())
	require.NoError(t, err)
	h2, err := ProgramHash(sample())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestProgramHash_DistinguishesPrograms(t *testing.T) {
	a := mustHash(t, Program{AddCell{Delta: 1}})
	b := mustHash(t, Program{AddCell{Delta: -1}})
	c := mustHash(t, Program{Loop{Body: Program{AddCell{Delta: 1}}}})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestProgramHash_EmptyLoopBodies(t *testing.T) {
	assert.Equal(t,
		mustHash(t, Program{Loop{}}),
		mustHash(t, Program{Loop{Body: Program{}}}))
}

func TestOutputDigest(t *testing.T) {
	assert.Equal(t, OutputDigest([]byte("hi")), OutputDigest([]byte("hi")))
	assert.NotEqual(t, OutputDigest([]byte("hi")), OutputDigest([]byte("ho")))
	assert.NotEqual(t, OutputDigest(nil), hashWithDomain(DomainProgram, nil))
}
