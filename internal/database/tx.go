package database

import (
	"context"
	"database/sql"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so repositories can run
// either standalone or inside a caller's transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner runs fn as one unit of work.  If fn returns an error nothing it
// did is committed.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(q Querier) error) error
	Querier() Querier
}

// Transactor is the MySQL TxRunner.
type Transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) *Transactor { return &Transactor{db: db} }

// Querier returns the pool for reads that need no transaction.
func (t *Transactor) Querier() Querier { return t.db }

// WithinTx begins a transaction, runs fn and commits.  The transaction is
// rolled back when fn fails or panics.
func (t *Transactor) WithinTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
