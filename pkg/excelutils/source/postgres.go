// Package source provides page sources for the export scheduler.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Querier is the query surface shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgSource pages through the result of a PostgreSQL query with LIMIT and OFFSET.
// The query should carry an ORDER BY so pages are stable.
type PgSource[T any] struct {
	db    Querier
	query string
	args  []any
	scan  pgx.RowToFunc[T]
}

// NewPgSource returns a source for query, whose own placeholders are bound to args.
// Rows are scanned into T by column name.
func NewPgSource[T any](db Querier, query string, args ...any) *PgSource[T] {
	return &PgSource[T]{
		db:    db,
		query: strings.TrimRight(strings.TrimSpace(query), ";"),
		args:  args,
		scan:  pgx.RowToStructByName[T],
	}
}

// WithScanner replaces the row scanner.
func (s *PgSource[T]) WithScanner(scan pgx.RowToFunc[T]) *PgSource[T] {
	s.scan = scan
	return s
}

// SQL returns the paged statement. LIMIT and OFFSET take the two placeholders after the query's own.
func (s *PgSource[T]) SQL() string {
	n := len(s.args)
	return fmt.Sprintf("SELECT * FROM (%s) AS page LIMIT $%d OFFSET $%d", s.query, n+1, n+2)
}

// FetchPage runs the paged statement for one page.
func (s *PgSource[T]) FetchPage(ctx context.Context, page, offset, size int) ([]T, error) {
	args := append(append(make([]any, 0, len(s.args)+2), s.args...), size, offset)

	rows, err := s.db.Query(ctx, s.SQL(), args...)
	if err != nil {
		return nil, fmt.Errorf("query page %d: %w", page, err)
	}

	records, err := pgx.CollectRows(rows, s.scan)
	if err != nil {
		return nil, fmt.Errorf("scan page %d: %w", page, err)
	}
	return records, nil
}
