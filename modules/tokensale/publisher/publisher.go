// Package publisher fans committed events out to subscribers.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/google/uuid"
)

// Publisher receives every committed transaction together with its events.
// Publishing happens after the journal commit, so a failure never rolls a transaction back.
type Publisher interface {
	Publish(ctx context.Context, tx *entity.Transaction, events []*entity.EventRecord) error
	Close() error
}

// Message is the payload published for one event.
type Message struct {
	TransactionID uuid.UUID        `json:"transactionId"`
	TxSeq         uint64           `json:"txSeq"`
	LogIndex      uint32           `json:"logIndex"`
	Method        entity.Method    `json:"method"`
	Sender        common.Address   `json:"sender"`
	Name          string           `json:"name"`
	Source        common.Address   `json:"source"`
	Accounts      []common.Address `json:"accounts"`
	Data          json.RawMessage  `json:"data"`
	Timestamp     time.Time        `json:"timestamp"`
}

func NewMessage(tx *entity.Transaction, event *entity.EventRecord) Message {
	return Message{
		TransactionID: tx.ID,
		TxSeq:         tx.Seq,
		LogIndex:      event.LogIndex,
		Method:        tx.Method,
		Sender:        tx.Sender,
		Name:          event.Name,
		Source:        event.Source,
		Accounts:      event.Accounts,
		Data:          event.Data,
		Timestamp:     event.Timestamp,
	}
}

func encodeMessage(tx *entity.Transaction, event *entity.EventRecord) ([]byte, error) {
	payload, err := json.Marshal(NewMessage(tx, event))
	if err != nil {
		return nil, errors.Wrapf(err, "can't marshal event %d/%d", event.TxSeq, event.LogIndex)
	}
	return payload, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *entity.Transaction, []*entity.EventRecord) error {
	return nil
}

func (nopPublisher) Close() error { return nil }

// Nop drops everything. Used when no broker is configured.
var Nop Publisher = nopPublisher{}
