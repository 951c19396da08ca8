package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// WithTx runs fn inside a single database transaction. The transaction is
// injected into the context so that every repository call made from fn joins
// it (see the conn(ctx) helper in each repo_pg.go). The transaction commits
// when fn returns nil and rolls back otherwise.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		// Already inside a transaction: join it.
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// TxFromContext retrieves the transaction carried in the context, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// TxRunner abstracts WithTx so services can be exercised in tests without a
// live pool.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolRunner is the production TxRunner backed by a pgx pool.
type PoolRunner struct {
	Pool *pgxpool.Pool
}

func (r *PoolRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.Pool, fn)
}
