package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bfc/internal/ir"
)

func sampleProgram() ir.Program {
	return ir.Program{
		ir.AddCell{Delta: 1},
		ir.Loop{Body: ir.Program{ir.AddCell{Delta: -1}, ir.MovePointer{Delta: 1}}},
		ir.Output{},
	}
}

func TestWriteProgram_ReturnsHash(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	hash, err := s.WriteProgram(ctx, "sample.b", []byte("+[->]."), sampleProgram())
	require.NoError(t, err)
	want, err := ir.ProgramHash(sampleProgram())
	require.NoError(t, err)
	assert.Equal(t, want, hash)
}

func TestWriteProgram_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	h1, err := s.WriteProgram(ctx, "first.b", []byte("+[->]."), sampleProgram())
	require.NoError(t, err)
	h2, err := s.WriteProgram(ctx, "second.b", []byte("+ [ - > ] ."), sampleProgram())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM programs").Scan(&count))
	assert.Equal(t, 1, count)

	rec, err := s.ReadProgram(ctx, h1)
	require.NoError(t, err)
	assert.Equal(t, "first.b", rec.Name, "first write wins")
	assert.Equal(t, int64(1), rec.Seq)
}

func TestWriteRun_AssignsSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	hash, err := s.WriteProgram(ctx, "p", nil, sampleProgram())
	require.NoError(t, err)

	for i, id := range []string{"run-b", "run-a", "run-c"} {
		seq, err := s.WriteRun(ctx, RunRecord{ID: id, ProgramHash: hash, Seq: 99})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), seq)
	}
}

func TestWriteRun_UnknownProgram(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteRun(context.Background(), RunRecord{ID: "run-1", ProgramHash: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY")
}

func TestWriteRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	hash, err := s.WriteProgram(ctx, "p", nil, sampleProgram())
	require.NoError(t, err)

	_, err = s.WriteRun(ctx, RunRecord{ID: "run-1", ProgramHash: hash})
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, RunRecord{ID: "run-1", ProgramHash: hash})
	assert.Error(t, err)
}
