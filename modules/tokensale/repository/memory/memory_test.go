package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.BytesToAddress([]byte{0x0a})
	bob   = common.BytesToAddress([]byte{0x0b})
)

func newTransaction(seq uint64) *entity.Transaction {
	return &entity.Transaction{
		Seq:       seq,
		ID:        uuid.New(),
		Method:    entity.MethodTransfer,
		Sender:    alice,
		Timestamp: time.Unix(int64(1_700_000_000+seq), 0).UTC(),
		Params:    json.RawMessage(`{}`),
	}
}

func newEvent(seq uint64, logIndex uint32, accounts ...common.Address) *entity.EventRecord {
	return &entity.EventRecord{
		TxSeq:    seq,
		LogIndex: logIndex,
		Name:     "Transfer",
		Accounts: accounts,
		Data:     json.RawMessage(`{}`),
	}
}

func TestCommitAndRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewRepository()

	_, err := repo.GetLatestTransactionSeq(ctx)
	assert.ErrorIs(t, err, errs.NotFound)

	// rolled back writes are invisible
	tx, err := repo.BeginTokenSaleTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateTransaction(ctx, newTransaction(1)))
	require.NoError(t, tx.CreateEvents(ctx, []*entity.EventRecord{newEvent(1, 0, alice)}))
	require.NoError(t, tx.Rollback(ctx))
	_, err = repo.GetLatestTransactionSeq(ctx)
	assert.ErrorIs(t, err, errs.NotFound)

	tx, err = repo.BeginTokenSaleTx(ctx)
	require.NoError(t, err)
	_, err = tx.BeginTokenSaleTx(ctx)
	assert.ErrorIs(t, err, ErrTxAlreadyExists)
	require.NoError(t, tx.CreateTransaction(ctx, newTransaction(1)))
	require.NoError(t, tx.CreateEvents(ctx, []*entity.EventRecord{newEvent(1, 0, alice, bob), newEvent(1, 1, bob)}))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx), "rollback after commit is a no-op")

	seq, err := repo.GetLatestTransactionSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	events, err := repo.GetEventsByTransaction(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	err = repo.CreateTransaction(ctx, newTransaction(1))
	assert.ErrorIs(t, err, errs.ConflictSetting)
}

func TestQueries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewRepository()

	for seq := uint64(3); seq >= 1; seq-- {
		require.NoError(t, repo.CreateTransaction(ctx, newTransaction(seq)))
		require.NoError(t, repo.CreateEvents(ctx, []*entity.EventRecord{newEvent(seq, 0, alice), newEvent(seq, 1, bob)}))
	}

	txs, err := repo.GetTransactions(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, uint64(2), txs[0].Seq)
	assert.Equal(t, uint64(3), txs[1].Seq)
	assert.False(t, txs[0].CreatedAt.IsZero())

	txs, err = repo.GetTransactions(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, uint64(1), txs[0].Seq)

	events, err := repo.GetEventsByAccount(ctx, bob, 2, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(3), events[0].TxSeq)
	assert.Equal(t, uint64(2), events[1].TxSeq)

	events, err = repo.GetEventsByAccount(ctx, bob, 10, 2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].TxSeq)

	events, err = repo.GetEventsByAccount(ctx, bob, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, events)
}
