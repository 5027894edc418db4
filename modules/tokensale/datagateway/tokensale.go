package datagateway

import (
	"context"

	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
)

type TokenSaleDataGateway interface {
	TokenSaleReaderDataGateway
	TokenSaleWriterDataGateway

	// BeginTokenSaleTx returns a new TokenSaleDataGateway with transaction enabled. All write operations performed in this datagateway must be committed to persist changes.
	BeginTokenSaleTx(ctx context.Context) (TokenSaleDataGatewayWithTx, error)
}

type TokenSaleDataGatewayWithTx interface {
	TokenSaleDataGateway
	Tx
}

type TokenSaleReaderDataGateway interface {
	// GetTransactions returns up to limit journaled transactions with seq >= fromSeq, ordered by seq.
	GetTransactions(ctx context.Context, fromSeq uint64, limit int32) ([]*entity.Transaction, error)
	// GetLatestTransactionSeq returns errs.NotFound if the journal is empty.
	GetLatestTransactionSeq(ctx context.Context) (uint64, error)
	// GetEventsByAccount returns the events concerning account, newest first.
	GetEventsByAccount(ctx context.Context, account common.Address, limit int32, offset int32) ([]*entity.EventRecord, error)
	GetEventsByTransaction(ctx context.Context, txSeq uint64) ([]*entity.EventRecord, error)
}

type TokenSaleWriterDataGateway interface {
	CreateTransaction(ctx context.Context, tx *entity.Transaction) error
	CreateEvents(ctx context.Context, events []*entity.EventRecord) error
}
