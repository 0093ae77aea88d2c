package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Transactor runs a function inside a database transaction. Repositories
// expose *Tx variants of their write methods which take the *sql.Tx handed
// to fn, so a service can compose several of them atomically.
type Transactor struct {
	db *sql.DB
}

// NewTransactor returns a Transactor bound to db.
func NewTransactor(db *sql.DB) *Transactor { return &Transactor{db: db} }

// WithTx begins a transaction, calls fn and commits when fn returns nil.
// Any error from fn, or a panic, rolls the transaction back.
func (t *Transactor) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
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
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
