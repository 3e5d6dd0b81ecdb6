package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/bfc/internal/ir"
)

// ProgramRecord is a compiled program as stored.
type ProgramRecord struct {
	Hash      string
	Name      string
	Source    []byte
	Program   ir.Program
	IRVersion string
	Seq       int64
}

// RunRecord is one recorded execution.
type RunRecord struct {
	ID          string
	Seq         int64
	ProgramHash string
	Source      []byte // the text this run compiled
	Config      map[string]any
	Input       []byte
	Output      []byte
	ExitCode    int
	Steps       int64
	ErrorCode   string // engine.RuntimeErrorCode of a failed run
	Error       string
}

// WriteProgram stores a program keyed by its IR hash and returns the hash.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency: writing the same
// program twice keeps the first name, source and seq. Runs keep their own
// source, so the stored one is only the first seen.
func (s *Store) WriteProgram(ctx context.Context, name string, source []byte, p ir.Program) (string, error) {
	hash, err := ir.ProgramHash(p)
	if err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}
	irJSON, err := marshalProgram(p)
	if err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}
	source = nonNil(source)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write program: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "programs", "created_seq")
	if err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO programs (hash, name, source, ir, ir_version, created_seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, name, source, irJSON, ir.IRVersion, seq)
	if err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write program: commit: %w", err)
	}
	return hash, nil
}

// WriteRun appends a run and returns its assigned seq. The record's Seq
// field is ignored. The program referenced by ProgramHash must exist.
func (s *Store) WriteRun(ctx context.Context, run RunRecord) (int64, error) {
	configJSON, err := marshalConfig(run.Config)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	source, input, output := nonNil(run.Source), nonNil(run.Input), nonNil(run.Output)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "runs", "seq")
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, program_hash, source, config, input, output, exit_code, steps, error_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		seq,
		run.ProgramHash,
		source,
		configJSON,
		input,
		output,
		run.ExitCode,
		run.Steps,
		run.ErrorCode,
		run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run: commit: %w", err)
	}
	return seq, nil
}

// nextSeq reads the logical clock for table inside tx.
func nextSeq(ctx context.Context, tx *sql.Tx, table, column string) (int64, error) {
	var seq int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", column, table)
	if err := tx.QueryRowContext(ctx, query).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

// nonNil maps a nil slice to an empty one for NOT NULL BLOB columns.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
