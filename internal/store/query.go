package store

import (
	"context"
	"fmt"
	"strings"
)

// Predicate is a filter over recorded runs.
//
// This is a sealed interface - only types in this package implement it,
// so compilePredicate can switch over every case.
//
// Predicate types:
//   - Equals: field = value
//   - NotEquals: field <> value
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Equals matches runs whose Field equals Value.
type Equals struct {
	Field string // column name, see RunFields
	Value any    // string, int, int64 or bool
}

func (Equals) predicateNode() {}

// NotEquals matches runs whose Field differs from Value.
type NotEquals struct {
	Field string
	Value any
}

func (NotEquals) predicateNode() {}

// And matches runs that satisfy every predicate. An empty And matches all
// runs.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// RunFields lists the columns a Predicate may name.
var RunFields = []string{"id", "program_hash", "exit_code", "steps", "error_code", "error"}

// RunQuery selects runs in log order.
type RunQuery struct {
	Filter Predicate // nil = every run

	// Limit keeps only the most recent Limit matches. 0 means all.
	Limit int
}

// QueryRuns returns the runs matching q in ascending seq order.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryRuns(ctx context.Context, q RunQuery) ([]RunRecord, error) {
	query, args, err := compileRunQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	// Newest-first query so LIMIT keeps the tail; flip back to log order.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return runs, nil
}

// compileRunQuery converts q to parameterized SQL.
//
// Every query orders by seq with id as a binary tiebreaker, and values are
// always bound as parameters, never interpolated.
func compileRunQuery(q RunQuery) (string, []any, error) {
	if q.Limit < 0 {
		return "", nil, fmt.Errorf("query runs: negative limit %d", q.Limit)
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + runColumns + " FROM runs")

	var args []any
	if q.Filter != nil {
		where, params, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("query runs: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		args = params
	}

	sb.WriteString(" ORDER BY seq DESC, id COLLATE BINARY DESC")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return sb.String(), args, nil
}

// compilePredicate compiles p to a WHERE clause fragment.
func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Equals:
		return compileComparison(pred.Field, "=", pred.Value)
	case NotEquals:
		return compileComparison(pred.Field, "<>", pred.Value)
	case And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil // Always true (vacuous truth)
		}
		var parts []string
		var args []any
		for _, sub := range pred.Predicates {
			sql, params, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			args = append(args, params...)
		}
		return "(" + strings.Join(parts, " AND ") + ")", args, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileComparison(field, op string, value any) (string, []any, error) {
	if !isRunField(field) {
		return "", nil, fmt.Errorf("unknown run field %q: must be one of %v", field, RunFields)
	}
	param, err := toParam(value)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", field, err)
	}
	return fmt.Sprintf("%s %s ?", field, op), []any{param}, nil
}

func isRunField(field string) bool {
	for _, f := range RunFields {
		if f == field {
			return true
		}
	}
	return false
}

// toParam normalizes a predicate value to a SQL parameter.
func toParam(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case bool:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
