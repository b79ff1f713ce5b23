package testutil

import (
	"context"
	"database/sql"
	"strings"

	"github.com/alexanderramin/waypoint/internal/db"
)

// FailingUoW runs transactions like the real unit of work but returns Err
// from the first ExecContext whose SQL contains FailOn. Everything written
// earlier in the same transaction is rolled back, which is what rollback
// tests assert on.
type FailingUoW struct {
	DB     *sql.DB
	FailOn string
	Err    error
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingTx{DBTX: tx, failOn: u.FailOn, err: u.Err})
	})
}

type failingTx struct {
	db.DBTX
	failOn string
	err    error
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
