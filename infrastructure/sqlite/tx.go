package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"miragepos/infrastructure/apperr"
)

// ErrNotOpen is returned by the tx helpers on a nil or closed-over DB.
var ErrNotOpen = fmt.Errorf("%w: database is not open", apperr.ErrStorage)

// TxFunc is the unit of work passed to WithWriteTx and WithReadTx.
type TxFunc func(ctx context.Context, tx bun.Tx) error

// WithWriteTx runs fn as one atomic unit: every write it performs commits
// together or, if fn returns an error, none of them does.
func (db *DB) WithWriteTx(ctx context.Context, fn TxFunc) error {
	if db == nil || db.W == nil {
		return fmt.Errorf("write handle: %w", ErrNotOpen)
	}
	return db.W.RunInTx(ctx, &sql.TxOptions{}, fn)
}

// WithReadTx runs fn against a consistent read snapshot.
func (db *DB) WithReadTx(ctx context.Context, fn TxFunc) error {
	if db == nil || db.R == nil {
		return fmt.Errorf("read handle: %w", ErrNotOpen)
	}
	return db.R.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}
