// Package dbx holds the small database helpers shared by repositories: the
// DBTX interface satisfied by both *sql.DB and *sql.Tx, a transaction runner,
// and OpenSQLite, which opens the vault database and applies migrations.
package dbx

import (
	"context"
	"database/sql"
	"errors"
)

// DBTX is what repositories need from database/sql. *sql.DB and *sql.Tx
// both satisfy it, so a repository built on a *sql.Tx takes part in that
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn in a transaction. The transaction commits when fn returns
// nil and rolls back when fn fails or panics; a panic is re-raised after the
// rollback. A rollback error is joined to fn's error.
//
// Batch deletes run this way so either every id goes or none does:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := passwords.NewSQLiteRepository(tx)
//	    for _, id := range ids {
//	        if err := repo.Delete(ctx, id); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		rbErr := tx.Rollback()
		if p := recover(); p != nil {
			panic(p)
		}
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, rbErr)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
