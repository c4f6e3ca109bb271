package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubSQL satisfies infra.SQLExecutor and replays canned rows, recording the
// last statement and arguments for assertions.
type stubSQL struct {
	lastQuery string
	lastArgs  []any

	row      pgx.Row
	execErr  error
	rows     pgx.Rows
	queryErr error
}

func (s *stubSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.lastQuery = query
	s.lastArgs = args
	return pgconn.CommandTag{}, s.execErr
}

func (s *stubSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.lastQuery = query
	s.lastArgs = args
	return s.row
}

func (s *stubSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.lastQuery = query
	s.lastArgs = args
	return s.rows, s.queryErr
}

// simpleRow is a pgx.Row backed by a scan callback.
type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

func noRowsRow() pgx.Row { return simpleRow{} }

func errRow(err error) pgx.Row {
	return simpleRow{scan: func(dest ...any) error { return err }}
}
