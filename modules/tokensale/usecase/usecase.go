package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/accesscontrol"
	"github.com/gaze-network/token-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/token-sale/modules/tokensale/event"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/gaze-network/token-sale/modules/tokensale/publisher"
	"github.com/gaze-network/token-sale/modules/tokensale/sale"
	"github.com/gaze-network/token-sale/modules/tokensale/stabletoken"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gaze-network/token-sale/pkg/logger/slogx"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sasha-s/go-deadlock"
)

// ErrHalted is returned by every write after the in-memory state could no longer be matched with the journal.
var ErrHalted = errors.Wrap(errs.ConflictSetting, "state diverged from the journal, restart required")

// Genesis is the initial configuration every replay starts from. Changing it invalidates the journal.
type Genesis struct {
	Token         ledger.Config
	Sale          sale.Config
	PaymentAssets []stabletoken.Config
}

type Option func(*Usecase)

// WithClock overrides the time source used to stamp transactions and evaluate vesting.
func WithClock(clock func() time.Time) Option {
	return func(u *Usecase) {
		u.clock = clock
	}
}

// WithPublisher sets where committed events go. Publishing runs in the background and the
// publisher stays owned by the caller.
func WithPublisher(p publisher.Publisher) Option {
	return func(u *Usecase) {
		u.publisher = p
	}
}

func WithPublishQueueSize(size int) Option {
	return func(u *Usecase) {
		u.queueSize = size
	}
}

// Usecase is the host runtime around the ledger and the sale engine. Every write is serialized,
// stamped with the clock, executed and journaled. Reads share the lock. Events are queued for
// publishing in commit order and delivered outside the lock.
type Usecase struct {
	mu deadlock.RWMutex

	dg        datagateway.TokenSaleDataGateway
	publisher publisher.Publisher
	queueSize int
	queue     *publisher.Queue
	clock     func() time.Time

	recorder *event.Recorder
	token    *ledger.Ledger
	sale     *sale.Engine
	payments *stabletoken.Registry

	// seq of the last applied transaction
	seq    uint64
	halted error
}

func New(genesis Genesis, dg datagateway.TokenSaleDataGateway, opts ...Option) (*Usecase, error) {
	recorder := event.NewRecorder()

	token, err := ledger.New(genesis.Token, recorder)
	if err != nil {
		return nil, errors.Wrap(err, "can't create sale token ledger")
	}

	payments := stabletoken.NewRegistry()
	for _, conf := range genesis.PaymentAssets {
		asset, err := stabletoken.New(conf, recorder)
		if err != nil {
			return nil, errors.Wrapf(err, "can't create payment asset %s", conf.Symbol)
		}
		if err := payments.Register(asset); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	engine, err := sale.New(genesis.Sale, token, resolvePayment(payments), recorder)
	if err != nil {
		return nil, errors.Wrap(err, "can't create sale engine")
	}

	// The engine mints purchases, so it starts as a manager of the sale token.
	if err := token.GrantRole(genesis.Token.Admin, accesscontrol.RoleManager, genesis.Sale.Address); err != nil {
		return nil, errors.Wrap(err, "can't grant manager role to the sale engine")
	}
	recorder.Discard()

	u := &Usecase{
		dg:        dg,
		publisher: publisher.Nop,
		clock:     time.Now,
		recorder:  recorder,
		token:     token,
		sale:      engine,
		payments:  payments,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.queue = publisher.NewQueue(u.publisher, u.queueSize)
	return u, nil
}

// Close waits for queued events to be published.
func (u *Usecase) Close(ctx context.Context) error {
	return errors.WithStack(u.queue.CloseWithContext(ctx))
}

func resolvePayment(payments *stabletoken.Registry) sale.PaymentResolver {
	return func(address common.Address) (sale.PaymentAsset, bool) {
		token, ok := payments.Get(address)
		if !ok {
			return nil, false
		}
		return token, true
	}
}

// TxResult is the outcome of a committed write.
type TxResult struct {
	Transaction *entity.Transaction   `json:"transaction"`
	Events      []*entity.EventRecord `json:"events"`
	Output      any                   `json:"output,omitempty"`
}

func (u *Usecase) execute(ctx context.Context, sender common.Address, method entity.Method, params any) (*TxResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.halted != nil {
		return nil, errors.WithStack(ErrHalted)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrapf(err, "can't marshal %s params", method)
	}
	tx := &entity.Transaction{
		Seq:       u.seq + 1,
		ID:        uuid.New(),
		Method:    method,
		Sender:    sender,
		Timestamp: u.clock().UTC().Truncate(time.Second),
		Params:    raw,
	}

	output, err := u.apply(tx)
	if err != nil {
		u.recorder.Discard()
		if errors.Is(err, sale.ErrPartialPurchase) {
			u.halt(ctx, tx, err)
		}
		return nil, errors.WithStack(err)
	}

	records, err := newEventRecords(tx, u.recorder.Flush())
	if err != nil {
		u.halt(ctx, tx, err)
		return nil, errors.WithStack(err)
	}
	if err := u.persist(ctx, tx, records); err != nil {
		u.halt(ctx, tx, err)
		return nil, errors.Wrap(err, "can't journal transaction")
	}
	u.seq = tx.Seq

	if err := u.queue.Publish(ctx, tx, records); err != nil {
		logger.WarnContext(ctx, "Failed to queue events for publishing",
			slogx.Error(err),
			slogx.Uint64("seq", tx.Seq),
			slogx.Stringer("txId", tx.ID),
		)
	}

	return &TxResult{
		Transaction: tx,
		Events:      records,
		Output:      output,
	}, nil
}

// halt stops accepting writes. The transaction was applied in memory but is not in the journal,
// so only a restart (which replays the journal) brings both back in line.
func (u *Usecase) halt(ctx context.Context, tx *entity.Transaction, cause error) {
	u.halted = cause
	logger.ErrorContext(ctx, "Transaction applied but not journaled, refusing further writes",
		slogx.Error(cause),
		slogx.Uint64("seq", tx.Seq),
		slogx.String("method", string(tx.Method)),
		slogx.Stringer("txId", tx.ID),
	)
}

func (u *Usecase) persist(ctx context.Context, tx *entity.Transaction, records []*entity.EventRecord) (err error) {
	dgTx, err := u.dg.BeginTokenSaleTx(ctx)
	if err != nil {
		return errors.Wrap(err, "can't begin transaction")
	}
	defer func() {
		if rollbackErr := dgTx.Rollback(ctx); rollbackErr != nil {
			logger.ErrorContext(ctx, "Failed to rollback journal transaction", slogx.Error(rollbackErr))
		}
	}()

	if err := dgTx.CreateTransaction(ctx, tx); err != nil {
		return errors.WithStack(err)
	}
	if err := dgTx.CreateEvents(ctx, records); err != nil {
		return errors.WithStack(err)
	}
	if err := dgTx.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func newEventRecords(tx *entity.Transaction, events []event.Event) ([]*entity.EventRecord, error) {
	records := make([]*entity.EventRecord, 0, len(events))
	for i, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, errors.Wrapf(err, "can't marshal %s event", e.Name())
		}
		accounts := lo.Uniq(lo.Filter(e.Accounts(), func(a common.Address, _ int) bool { return !a.IsZero() }))
		records = append(records, &entity.EventRecord{
			TxSeq:     tx.Seq,
			LogIndex:  uint32(i),
			Name:      e.Name(),
			Source:    e.Source(),
			Accounts:  accounts,
			Data:      data,
			Timestamp: tx.Timestamp,
		})
	}
	return records, nil
}

// Halted reports the cause that stopped writes, or nil.
func (u *Usecase) Halted() error {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.halted
}

// Seq returns the seq of the last applied transaction.
func (u *Usecase) Seq() uint64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.seq
}
