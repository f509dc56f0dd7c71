// Package dbx holds the database handle shared by the upload ledger
// repositories and the transaction helper used when a reaper cycle records
// several evictions at once.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is what a ledger repository needs to run its statements. *sql.DB
// and *sql.Tx both satisfy it, so the same repository serves single inserts
// and batched ones.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside one transaction on db. A returned error or a panic
// rolls the whole batch back; a panic is re-raised after the rollback.
// Otherwise the transaction is committed and its error returned.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := rm.Uploads(tx)
//	    for _, ev := range evicted {
//	        if err := repo.InsertEvicted(ctx, ev); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	return fn(ctx, tx)
}
