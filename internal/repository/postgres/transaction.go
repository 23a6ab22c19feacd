package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"blog-api/internal/observability"
)

// txAttempts bounds how often a unit of work is replayed after the server
// aborts it for a deadlock or serialization failure.
const txAttempts = 3

// TxManager runs a unit of work inside one database transaction
type TxManager struct {
	db       *sql.DB
	attempts int
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db, attempts: txAttempts}
}

// WithTx runs fn in a transaction and commits it. A non-nil error from fn
// rolls back and is returned unchanged, except that deadlocks and
// serialization failures replay fn in a fresh transaction. fn must
// therefore not have side effects outside tx.
func (tm *TxManager) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	var err error
	for attempt := 1; attempt <= tm.attempts; attempt++ {
		err = tm.run(ctx, fn)
		if !isRetryable(err) || ctx.Err() != nil {
			return err
		}
		observability.FromContext(ctx).Warn("retrying transaction",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
	}
	return err
}

func (tm *TxManager) run(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w, rb err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
