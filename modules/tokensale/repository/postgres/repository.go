package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/internal/postgres"
	"github.com/gaze-network/token-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/jackc/pgx/v5"
)

var _ datagateway.TokenSaleDataGateway = (*Repository)(nil)

type Repository struct {
	db postgres.DB
	tx pgx.Tx
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// conn returns the active transaction, or the pool when none is open.
func (r *Repository) conn() postgres.Queryable {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *Repository) CreateTransaction(ctx context.Context, tx *entity.Transaction) error {
	if _, err := r.conn().Exec(ctx, createTransactionQuery, mapTransactionTypeToParams(tx)...); err != nil {
		return errors.Wrapf(err, "error during exec CreateTransaction, seq %d", tx.Seq)
	}
	return nil
}

func (r *Repository) CreateEvents(ctx context.Context, events []*entity.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(createEventQuery, mapEventTypeToParams(event)...)
	}
	results := r.conn().SendBatch(ctx, batch)
	defer results.Close()
	for _, event := range events {
		if _, err := results.Exec(); err != nil {
			return errors.Wrapf(err, "error during exec CreateEvents, event %d/%d", event.TxSeq, event.LogIndex)
		}
	}
	return errors.Wrap(results.Close(), "error during close batch results")
}

func (r *Repository) GetTransactions(ctx context.Context, fromSeq uint64, limit int32) ([]*entity.Transaction, error) {
	rows, err := r.conn().Query(ctx, getTransactionsQuery, int64(fromSeq), limit)
	if err != nil {
		return nil, errors.Wrap(err, "error during query GetTransactions")
	}
	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[transactionRow])
	if err != nil {
		return nil, errors.Wrap(err, "error during scan GetTransactions")
	}

	txs := make([]*entity.Transaction, 0, len(models))
	for _, model := range models {
		tx, err := mapTransactionModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse transaction model")
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (r *Repository) GetLatestTransactionSeq(ctx context.Context) (uint64, error) {
	var seq int64
	if err := r.conn().QueryRow(ctx, getLatestTransactionSeqQuery).Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errors.WithStack(errs.NotFound)
		}
		return 0, errors.Wrap(err, "error during query GetLatestTransactionSeq")
	}
	return uint64(seq), nil
}

func (r *Repository) GetEventsByAccount(ctx context.Context, account common.Address, limit int32, offset int32) ([]*entity.EventRecord, error) {
	rows, err := r.conn().Query(ctx, getEventsByAccountQuery, account.String(), limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "error during query GetEventsByAccount")
	}
	return collectEvents(rows)
}

func (r *Repository) GetEventsByTransaction(ctx context.Context, txSeq uint64) ([]*entity.EventRecord, error) {
	rows, err := r.conn().Query(ctx, getEventsByTransactionQuery, int64(txSeq))
	if err != nil {
		return nil, errors.Wrap(err, "error during query GetEventsByTransaction")
	}
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]*entity.EventRecord, error) {
	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[eventRow])
	if err != nil {
		return nil, errors.Wrap(err, "error during scan events")
	}
	events := make([]*entity.EventRecord, 0, len(models))
	for _, model := range models {
		event, err := mapEventModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse event model")
		}
		events = append(events, event)
	}
	return events, nil
}
