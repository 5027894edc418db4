package usecase

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
)

// Snapshot captures every holder and grant of the sale token, evaluated at the current time.
func (u *Usecase) Snapshot() (*entity.Snapshot, error) {
	at := u.now()
	now := uint64(at.Unix())

	u.mu.RLock()
	defer u.mu.RUnlock()

	holders := u.token.Holders()
	snapshot := &entity.Snapshot{
		Seq:         u.seq,
		Timestamp:   at,
		Token:       u.token.Address(),
		TotalSupply: u.token.TotalSupply(),
		Holders:     make([]entity.HolderSnapshot, 0, len(holders)),
		Grants:      make([]entity.GrantSnapshot, 0, u.token.VestingCount()),
	}
	for _, account := range holders {
		snapshot.Holders = append(snapshot.Holders, entity.HolderSnapshot{
			Account:      account,
			Balance:      u.token.BalanceOf(account),
			Locked:       u.token.LockedBalanceOf(now, account),
			Transferable: u.token.TransferableBalanceOf(now, account),
		})
	}
	for index := uint64(0); index < u.token.VestingCount(); index++ {
		grant, err := u.token.VestingInfo(index)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		snapshot.Grants = append(snapshot.Grants, entity.GrantSnapshot{
			Index:    index,
			Grant:    grant,
			Unlocked: grant.UnlockedAt(now),
		})
	}
	return snapshot, nil
}
