package publisher

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gaze-network/token-sale/pkg/logger/slogx"
)

const DefaultQueueSize = 1024

var (
	ErrQueueFull   = errors.New("publish queue is full")
	ErrQueueClosed = errors.New("publish queue is closed")
)

type queuedTransaction struct {
	ctx    context.Context
	tx     *entity.Transaction
	events []*entity.EventRecord
}

// Queue hands transactions to the wrapped publisher from a single goroutine, in the order Publish
// was called. Publish never waits for the wrapped publisher.
type Queue struct {
	next  Publisher
	items chan queuedTransaction
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewQueue(next Publisher, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &Queue{
		next:  next,
		items: make(chan queuedTransaction, size),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

// Publish enqueues the transaction. A full queue drops it and returns ErrQueueFull.
func (q *Queue) Publish(ctx context.Context, tx *entity.Transaction, events []*entity.EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errors.Wrapf(ErrQueueClosed, "can't publish transaction %d", tx.Seq)
	}
	select {
	case q.items <- queuedTransaction{ctx: context.WithoutCancel(ctx), tx: tx, events: events}:
		return nil
	default:
		return errors.Wrapf(ErrQueueFull, "dropped %d events of transaction %d", len(events), tx.Seq)
	}
}

func (q *Queue) loop() {
	defer close(q.done)
	for item := range q.items {
		if err := q.next.Publish(item.ctx, item.tx, item.events); err != nil {
			logger.WarnContext(item.ctx, "Failed to publish events",
				slogx.Error(err),
				slogx.Uint64("seq", item.tx.Seq),
				slogx.Stringer("txId", item.tx.ID),
			)
		}
	}
}

// Close stops accepting transactions and waits for the queued ones. The wrapped publisher is not closed.
func (q *Queue) Close() error {
	return q.CloseWithContext(context.Background())
}

func (q *Queue) CloseWithContext(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "%d transactions left unpublished", len(q.items))
	}
}
