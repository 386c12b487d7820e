package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound      = errors.New("row not found")
	ErrMultipleRows  = errors.New("multiple rows match")
	ErrUnknownColumn = errors.New("unknown column")
)

// DefaultPageSize is the window size applied when an offset is given
// without an explicit limit.
const DefaultPageSize = 10

// Order selects a single sort column; ascending unless Descending is set.
type Order struct {
	Column     string
	Descending bool
}

// ListOptions controls filtering, pagination, and ordering for GetAll.
// Filters are equality conditions joined with AND.
type ListOptions struct {
	Limit   int
	Offset  int
	OrderBy *Order
	Filters map[string]any
}

// Scanner is satisfied by both *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc turns one result row into a typed value.
type ScanFunc[T any] func(s Scanner) (*T, error)

// Table is a typed binding of one named table: its column list plus a row
// scanner. All SQL is parameterized; column names coming from callers are
// checked against the binding's column set before being interpolated.
type Table[T any] struct {
	db      *sql.DB
	name    string
	columns []string
	colSet  map[string]struct{}
	scan    ScanFunc[T]
}

// NewTable creates a table binding. The column order must match the order
// the scan function reads fields in.
func NewTable[T any](db *sql.DB, name string, columns []string, scan ScanFunc[T]) *Table[T] {
	colSet := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		colSet[c] = struct{}{}
	}
	return &Table[T]{db: db, name: name, columns: columns, colSet: colSet, scan: scan}
}

// Name returns the bound table name.
func (t *Table[T]) Name() string { return t.name }

// GetAll retrieves rows matching all equality filters, optionally paginated
// and sorted by a single column.
func (t *Table[T]) GetAll(ctx context.Context, opts ListOptions) ([]*T, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", t.selectList(), t.name)

	args := []any{}
	if len(opts.Filters) > 0 {
		conds := make([]string, 0, len(opts.Filters))
		for _, key := range sortedKeys(opts.Filters) {
			if !t.hasColumn(key) {
				return nil, fmt.Errorf("failed to fetch %s: %w: %s", t.name, ErrUnknownColumn, key)
			}
			conds = append(conds, fmt.Sprintf("%s = $%d", key, len(args)+1))
			args = append(args, opts.Filters[key])
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if opts.OrderBy != nil {
		if !t.hasColumn(opts.OrderBy.Column) {
			return nil, fmt.Errorf("failed to fetch %s: %w: %s", t.name, ErrUnknownColumn, opts.OrderBy.Column)
		}
		dir := "ASC"
		if opts.OrderBy.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", opts.OrderBy.Column, dir)
	}

	args = t.appendPagination(&b, args, opts.Limit, opts.Offset)

	rows, err := t.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", t.name, err)
	}
	return t.collect(rows)
}

// GetOne retrieves the single row with the given primary key. It fails when
// zero or multiple rows match.
func (t *Table[T]) GetOne(ctx context.Context, id any) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 2", t.selectList(), t.name)

	rows, err := t.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s with id %v: %w", t.name, id, err)
	}
	matches, err := t.collect(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s with id %v: %w", t.name, id, err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("failed to fetch %s with id %v: %w", t.name, id, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("failed to fetch %s with id %v: %w", t.name, id, ErrMultipleRows)
	}
}

// Create inserts one row and returns the persisted row, including
// server-assigned defaults such as generated ids and timestamps.
func (t *Table[T]) Create(ctx context.Context, fields map[string]any) (*T, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("failed to create item in %s: no fields", t.name)
	}

	cols := sortedKeys(fields)
	placeholders := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		if !t.hasColumn(col) {
			return nil, fmt.Errorf("failed to create item in %s: %w: %s", t.name, ErrUnknownColumn, col)
		}
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, fields[col])
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		t.name, strings.Join(cols, ", "), strings.Join(placeholders, ", "), t.selectList(),
	)

	created, err := t.scan(t.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to create item in %s: %w", t.name, err)
	}
	return created, nil
}

// Update patches the named fields on the row with the given id and returns
// the updated row.
func (t *Table[T]) Update(ctx context.Context, id any, fields map[string]any) (*T, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("failed to update item in %s: no fields", t.name)
	}

	cols := sortedKeys(fields)
	assignments := make([]string, 0, len(cols))
	args := []any{id}
	for _, col := range cols {
		if !t.hasColumn(col) {
			return nil, fmt.Errorf("failed to update item in %s: %w: %s", t.name, ErrUnknownColumn, col)
		}
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col, len(args)+1))
		args = append(args, fields[col])
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $1 RETURNING %s",
		t.name, strings.Join(assignments, ", "), t.selectList(),
	)

	updated, err := t.scan(t.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to update item in %s with id %v: %w", t.name, id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update item in %s: %w", t.name, err)
	}
	return updated, nil
}

// Remove deletes the row with the given id.
func (t *Table[T]) Remove(ctx context.Context, id any) error {
	result, err := t.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.name), id)
	if err != nil {
		return fmt.Errorf("failed to delete item from %s: %w", t.name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete item from %s: %w", t.name, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("failed to delete item from %s with id %v: %w", t.name, id, ErrNotFound)
	}
	return nil
}

// Search returns rows where the query substring case-insensitively matches
// any of the given columns.
func (t *Table[T]) Search(ctx context.Context, query string, columns []string, opts ListOptions) ([]*T, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("failed to search %s: no columns", t.name)
	}

	conds := make([]string, 0, len(columns))
	for _, col := range columns {
		if !t.hasColumn(col) {
			return nil, fmt.Errorf("failed to search %s: %w: %s", t.name, ErrUnknownColumn, col)
		}
		conds = append(conds, fmt.Sprintf("%s ILIKE $1", col))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s", t.selectList(), t.name, strings.Join(conds, " OR "))
	args := []any{"%" + query + "%"}
	args = t.appendPagination(&b, args, opts.Limit, opts.Offset)

	rows, err := t.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", t.name, err)
	}
	return t.collect(rows)
}

func (t *Table[T]) selectList() string {
	return strings.Join(t.columns, ", ")
}

func (t *Table[T]) hasColumn(name string) bool {
	_, ok := t.colSet[name]
	return ok
}

// appendPagination applies LIMIT/OFFSET. An offset without a limit gets a
// window of DefaultPageSize rows.
func (t *Table[T]) appendPagination(b *strings.Builder, args []any, limit, offset int) []any {
	if offset > 0 && limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > 0 {
		fmt.Fprintf(b, " LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}
	if offset > 0 {
		fmt.Fprintf(b, " OFFSET $%d", len(args)+1)
		args = append(args, offset)
	}
	return args
}

func (t *Table[T]) collect(rows *sql.Rows) ([]*T, error) {
	defer rows.Close()

	items := []*T{}
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.name, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", t.name, err)
	}
	return items, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
