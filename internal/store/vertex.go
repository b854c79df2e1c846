package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/pushdown/internal/condition"
	"github.com/roach88/pushdown/internal/condsql"
	"github.com/roach88/pushdown/internal/ir"
)

// Vertex is a stored graph element. Props are keyed by decimal property
// identifier ("1", "42").
type Vertex struct {
	ID    int64       `json:"id"`
	Label int32       `json:"label"`
	Props ir.IRObject `json:"props"`
}

// PutVertex inserts v, replacing any vertex with the same ID.
func (s *Store) PutVertex(ctx context.Context, v Vertex) error {
	return putVertex(ctx, s.db, v)
}

// PutVertices inserts vs in one transaction. Either all are written or
// none are.
func (s *Store) PutVertices(ctx context.Context, vs []Vertex) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put vertices: begin: %w", err)
	}
	defer tx.Rollback()

	for _, v := range vs {
		if err := putVertex(ctx, tx, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put vertices: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putVertex(ctx context.Context, db execer, v Vertex) error {
	props, err := marshalProps(v.Props)
	if err != nil {
		return fmt.Errorf("put vertex %d: %w", v.ID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO vertices (id, label, props)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET label = excluded.label, props = excluded.props
	`, v.ID, v.Label, props)
	if err != nil {
		return fmt.Errorf("put vertex %d: %w", v.ID, err)
	}
	return nil
}

// GetVertex returns the vertex with the given ID. ok is false when it does
// not exist.
func (s *Store) GetVertex(ctx context.Context, id int64) (v Vertex, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, label, props FROM vertices WHERE id = ?`, id)
	v, err = scanVertex(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Vertex{}, false, nil
	}
	if err != nil {
		return Vertex{}, false, fmt.Errorf("get vertex %d: %w", id, err)
	}
	return v, true, nil
}

// Count returns the number of stored vertices.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vertices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vertices: %w", err)
	}
	return n, nil
}

// Clear deletes every vertex.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM vertices`); err != nil {
		return fmt.Errorf("clear vertices: %w", err)
	}
	return nil
}

// Scan returns the vertices matching cond, ordered by ID. A nil condition
// returns every vertex.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Scan(ctx context.Context, cond condition.Condition) ([]Vertex, error) {
	query, params, err := condsql.NewSQLCompiler().Compile(cond)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("scan: query vertices: %w", err)
	}
	defer rows.Close()

	vertices := []Vertex{}
	for rows.Next() {
		v, err := scanVertex(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		vertices = append(vertices, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan: iterate vertices: %w", err)
	}
	return vertices, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVertex(row rowScanner) (Vertex, error) {
	var v Vertex
	var props string
	if err := row.Scan(&v.ID, &v.Label, &props); err != nil {
		return Vertex{}, err
	}
	obj, err := unmarshalProps(props)
	if err != nil {
		return Vertex{}, fmt.Errorf("vertex %d: %w", v.ID, err)
	}
	v.Props = obj
	return v, nil
}

// marshalProps encodes props as a JSON object with sorted keys. Every key
// must be the decimal form of an int32.
func marshalProps(props ir.IRObject) (string, error) {
	for _, k := range props.SortedKeys() {
		if err := validatePropKey(k); err != nil {
			return "", err
		}
	}
	if props == nil {
		props = ir.IRObject{}
	}
	data, err := ir.MarshalIRValue(props)
	if err != nil {
		return "", fmt.Errorf("marshal props: %w", err)
	}
	return string(data), nil
}

func validatePropKey(k string) error {
	id, err := strconv.ParseInt(k, 10, 32)
	if err != nil || strconv.FormatInt(id, 10) != k {
		return fmt.Errorf("property key %q is not a decimal int32 identifier", k)
	}
	return nil
}

func unmarshalProps(data string) (ir.IRObject, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal props: %w", err)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("unmarshal props: expected object, got %s", ir.Kind(v))
	}
	return obj, nil
}
