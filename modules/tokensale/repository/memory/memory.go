// Package memory is an in-process journal store. State is lost on exit, so it suits tests and demos.
package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/sasha-s/go-deadlock"
)

var _ datagateway.TokenSaleDataGateway = (*Repository)(nil)

var ErrTxAlreadyExists = errors.New("Transaction already exists. Call Commit() or Rollback() first.")

type store struct {
	mu           deadlock.RWMutex
	transactions []*entity.Transaction
	events       []*entity.EventRecord
}

type Repository struct {
	store *store

	// pending writes of an open transaction, nil outside a transaction
	pending *pending
}

type pending struct {
	transactions []*entity.Transaction
	events       []*entity.EventRecord
}

func NewRepository() *Repository {
	return &Repository{store: &store{}}
}

func (r *Repository) BeginTokenSaleTx(ctx context.Context) (datagateway.TokenSaleDataGatewayWithTx, error) {
	if r.pending != nil {
		return nil, errors.WithStack(ErrTxAlreadyExists)
	}
	return &Repository{store: r.store, pending: &pending{}}, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.pending == nil {
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, tx := range r.pending.transactions {
		if err := r.store.checkTransaction(tx); err != nil {
			return errors.Wrap(err, "failed to commit transaction")
		}
	}
	r.store.transactions = append(r.store.transactions, r.pending.transactions...)
	r.store.events = append(r.store.events, r.pending.events...)
	r.pending = nil
	return nil
}

func (r *Repository) Rollback(ctx context.Context) error {
	r.pending = nil
	return nil
}

func (s *store) checkTransaction(tx *entity.Transaction) error {
	for _, existing := range s.transactions {
		if existing.Seq == tx.Seq || existing.ID == tx.ID {
			return errors.Wrapf(errs.ConflictSetting, "transaction %d (%s) already exists", tx.Seq, tx.ID)
		}
	}
	return nil
}

func (r *Repository) CreateTransaction(ctx context.Context, tx *entity.Transaction) error {
	tx = cloneTransaction(tx)
	tx.CreatedAt = time.Now().UTC()
	if r.pending != nil {
		r.pending.transactions = append(r.pending.transactions, tx)
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.checkTransaction(tx); err != nil {
		return errors.WithStack(err)
	}
	r.store.transactions = append(r.store.transactions, tx)
	return nil
}

func (r *Repository) CreateEvents(ctx context.Context, events []*entity.EventRecord) error {
	cloned := make([]*entity.EventRecord, 0, len(events))
	for _, event := range events {
		cloned = append(cloned, cloneEvent(event))
	}
	if r.pending != nil {
		r.pending.events = append(r.pending.events, cloned...)
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events = append(r.store.events, cloned...)
	return nil
}

func (r *Repository) GetTransactions(ctx context.Context, fromSeq uint64, limit int32) ([]*entity.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	txs := make([]*entity.Transaction, 0)
	for _, tx := range r.store.transactions {
		if tx.Seq >= fromSeq {
			txs = append(txs, cloneTransaction(tx))
		}
	}
	slices.SortFunc(txs, func(a, b *entity.Transaction) int { return cmp.Compare(a.Seq, b.Seq) })
	if limit >= 0 && len(txs) > int(limit) {
		txs = txs[:limit]
	}
	return txs, nil
}

func (r *Repository) GetLatestTransactionSeq(ctx context.Context) (uint64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if len(r.store.transactions) == 0 {
		return 0, errors.WithStack(errs.NotFound)
	}
	var latest uint64
	for _, tx := range r.store.transactions {
		latest = max(latest, tx.Seq)
	}
	return latest, nil
}

func (r *Repository) GetEventsByAccount(ctx context.Context, account common.Address, limit int32, offset int32) ([]*entity.EventRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]*entity.EventRecord, 0)
	for _, event := range r.store.events {
		if slices.Contains(event.Accounts, account) {
			events = append(events, cloneEvent(event))
		}
	}
	slices.SortFunc(events, func(a, b *entity.EventRecord) int {
		if c := cmp.Compare(b.TxSeq, a.TxSeq); c != 0 {
			return c
		}
		return cmp.Compare(b.LogIndex, a.LogIndex)
	})
	if int(offset) >= len(events) {
		return []*entity.EventRecord{}, nil
	}
	events = events[offset:]
	if limit >= 0 && len(events) > int(limit) {
		events = events[:limit]
	}
	return events, nil
}

func (r *Repository) GetEventsByTransaction(ctx context.Context, txSeq uint64) ([]*entity.EventRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]*entity.EventRecord, 0)
	for _, event := range r.store.events {
		if event.TxSeq == txSeq {
			events = append(events, cloneEvent(event))
		}
	}
	slices.SortFunc(events, func(a, b *entity.EventRecord) int {
		return cmp.Compare(a.LogIndex, b.LogIndex)
	})
	return events, nil
}

func cloneTransaction(tx *entity.Transaction) *entity.Transaction {
	clone := *tx
	clone.Params = slices.Clone(tx.Params)
	return &clone
}

func cloneEvent(event *entity.EventRecord) *entity.EventRecord {
	clone := *event
	clone.Accounts = slices.Clone(event.Accounts)
	clone.Data = slices.Clone(event.Data)
	return &clone
}
