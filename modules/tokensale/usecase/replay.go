package usecase

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gaze-network/token-sale/pkg/logger/slogx"
)

const replayPageSize = 1000

// Replay re-applies every journaled transaction after the current seq. A journaled transaction
// succeeded when it was first applied, so any failure here means the journal and the genesis
// configuration no longer match.
func (u *Usecase) Replay(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	start := time.Now()
	replayed := 0
	for {
		txs, err := u.dg.GetTransactions(ctx, u.seq+1, replayPageSize)
		if err != nil {
			return errors.Wrap(err, "can't get journaled transactions")
		}
		for _, tx := range txs {
			if tx.Seq != u.seq+1 {
				return errors.Wrapf(errs.ConflictSetting, "journal gap: expected seq %d, got %d", u.seq+1, tx.Seq)
			}
			if _, err := u.apply(tx); err != nil {
				u.recorder.Discard()
				return errors.Wrapf(err, "can't replay transaction %d (%s)", tx.Seq, tx.Method)
			}
			u.recorder.Discard()
			u.seq = tx.Seq
			replayed++
		}
		if len(txs) < replayPageSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
	}

	logger.InfoContext(ctx, "Replayed journal",
		slogx.Int("transactions", replayed),
		slogx.Uint64("seq", u.seq),
		slogx.Duration("duration", time.Since(start)),
	)
	return nil
}
