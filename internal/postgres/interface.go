package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ DB        = (*pgxpool.Pool)(nil)
	_ Queryable = (pgx.Tx)(nil)
)

// Queryable executes queries and batches, either on the pool or inside a transaction.
type Queryable interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// DB is a Queryable that can also open transactions.
type DB interface {
	Queryable
	Begin(context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}
