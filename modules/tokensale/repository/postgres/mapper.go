package postgres

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
)

func mapTransactionModelToType(src transactionRow) (*entity.Transaction, error) {
	sender, err := common.NewAddressFromHex(src.Sender)
	if err != nil {
		return nil, errors.Wrapf(err, "transaction %d: invalid sender", src.Seq)
	}
	return &entity.Transaction{
		Seq:       uint64(src.Seq),
		ID:        uuid.UUID(src.ID.Bytes),
		Method:    entity.Method(src.Method),
		Sender:    sender,
		Timestamp: src.Timestamp.Time.UTC(),
		Params:    src.Params,
		CreatedAt: src.CreatedAt.Time.UTC(),
	}, nil
}

func mapTransactionTypeToParams(src *entity.Transaction) []any {
	params := src.Params
	if len(params) == 0 {
		params = []byte("{}")
	}
	return []any{
		int64(src.Seq),
		pgtype.UUID{Bytes: src.ID, Valid: true},
		string(src.Method),
		src.Sender.String(),
		pgtype.Timestamptz{Time: src.Timestamp.UTC(), Valid: true},
		[]byte(params),
	}
}

func mapEventModelToType(src eventRow) (*entity.EventRecord, error) {
	source, err := common.NewAddressFromHex(src.Source)
	if err != nil {
		return nil, errors.Wrapf(err, "event %d/%d: invalid source", src.TxSeq, src.LogIndex)
	}
	accounts := make([]common.Address, 0, len(src.Accounts))
	for _, account := range src.Accounts {
		address, err := common.NewAddressFromHex(account)
		if err != nil {
			return nil, errors.Wrapf(err, "event %d/%d: invalid account", src.TxSeq, src.LogIndex)
		}
		accounts = append(accounts, address)
	}
	return &entity.EventRecord{
		TxSeq:     uint64(src.TxSeq),
		LogIndex:  uint32(src.LogIndex),
		Name:      src.Name,
		Source:    source,
		Accounts:  accounts,
		Data:      src.Data,
		Timestamp: src.Timestamp.Time.UTC(),
	}, nil
}

func mapEventTypeToParams(src *entity.EventRecord) []any {
	data := src.Data
	if len(data) == 0 {
		data = []byte("{}")
	}
	return []any{
		int64(src.TxSeq),
		int32(src.LogIndex),
		src.Name,
		src.Source.String(),
		lo.Map(src.Accounts, func(a common.Address, _ int) string { return a.String() }),
		[]byte(data),
		pgtype.Timestamptz{Time: src.Timestamp.UTC(), Valid: true},
	}
}
