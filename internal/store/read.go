package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned (wrapped) when a record does not exist.
var ErrNotFound = errors.New("not found")

// ReadProgram retrieves a program by hash.
func (s *Store) ReadProgram(ctx context.Context, hash string) (ProgramRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT hash, name, source, ir, ir_version, created_seq
		FROM programs
		WHERE hash = ?
	`, hash)

	var rec ProgramRecord
	var irJSON string
	if err := row.Scan(&rec.Hash, &rec.Name, &rec.Source, &irJSON, &rec.IRVersion, &rec.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProgramRecord{}, fmt.Errorf("program %s: %w", hash, ErrNotFound)
		}
		return ProgramRecord{}, fmt.Errorf("scan program: %w", err)
	}

	p, err := unmarshalProgram(irJSON)
	if err != nil {
		return ProgramRecord{}, err
	}
	rec.Program = p
	return rec, nil
}

// ReadRun retrieves a run by id.
func (s *Store) ReadRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return rec, err
}

// ListRuns returns runs in log order. A positive limit keeps only the most
// recent limit runs, still in ascending order. A non-empty programHash
// restricts the listing to one program.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context, programHash string, limit int) ([]RunRecord, error) {
	q := RunQuery{Limit: limit}
	if programHash != "" {
		q.Filter = Equals{Field: "program_hash", Value: programHash}
	}
	return s.QueryRuns(ctx, q)
}

// runColumns is the column list scanRun expects.
const runColumns = "id, seq, program_hash, source, config, input, output, exit_code, steps, error_code, error"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var configJSON string
	err := row.Scan(
		&rec.ID,
		&rec.Seq,
		&rec.ProgramHash,
		&rec.Source,
		&configJSON,
		&rec.Input,
		&rec.Output,
		&rec.ExitCode,
		&rec.Steps,
		&rec.ErrorCode,
		&rec.Error,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	cfg, err := unmarshalConfig(configJSON)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Config = cfg
	return rec, nil
}
