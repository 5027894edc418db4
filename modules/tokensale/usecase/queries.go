package usecase

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/accesscontrol"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/gaze-network/token-sale/modules/tokensale/sale"
	"github.com/holiman/uint256"
)

type TokenInfo struct {
	Address     common.Address
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *uint256.Int
	MaxSupply   *uint256.Int
}

type Balance struct {
	Account      common.Address
	Balance      *uint256.Int
	Locked       *uint256.Int
	Transferable *uint256.Int
	At           time.Time
}

type VestingInfo struct {
	Index    uint64
	Grant    ledger.VestingGrant
	Unlocked *uint256.Int
	Locked   *uint256.Int
	EndsAt   uint64
}

type SaleInfo struct {
	Address    common.Address
	Governance common.Address
	Operators  []common.Address
	Recipient  common.Address
	SaleToken  common.Address
	Paused     bool
	Users      int
}

type BatchInfo struct {
	BatchID     uint64
	Batch       sale.Batch
	VestingPlan *sale.BatchVestingPlan
	Status      sale.BatchStatus
	Sold        *uint256.Int
}

type PaymentAssetInfo struct {
	Address     common.Address
	Name        string
	Symbol      string
	Decimals    uint8
	Cap         *uint256.Int
	TotalSupply *uint256.Int
}

// now is the clock truncated to the second, like transaction timestamps.
func (u *Usecase) now() time.Time {
	return u.clock().UTC().Truncate(time.Second)
}

func (u *Usecase) TokenInfo() TokenInfo {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return TokenInfo{
		Address:     u.token.Address(),
		Name:        u.token.Name(),
		Symbol:      u.token.Symbol(),
		Decimals:    u.token.Decimals(),
		TotalSupply: u.token.TotalSupply(),
		MaxSupply:   u.token.MaxSupply(),
	}
}

// BalanceOf splits the account's balance at the given time. A zero time means now.
func (u *Usecase) BalanceOf(account common.Address, at time.Time) Balance {
	if at.IsZero() {
		at = u.now()
	}
	ts := uint64(at.Unix())

	u.mu.RLock()
	defer u.mu.RUnlock()
	return Balance{
		Account:      account,
		Balance:      u.token.BalanceOf(account),
		Locked:       u.token.LockedBalanceOf(ts, account),
		Transferable: u.token.TransferableBalanceOf(ts, account),
		At:           at,
	}
}

func (u *Usecase) Allowance(owner, spender common.Address) *uint256.Int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.token.Allowance(owner, spender)
}

func (u *Usecase) HasRole(account common.Address, role accesscontrol.Role) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.token.HasRole(account, role)
}

func (u *Usecase) VestingInfo(index uint64) (*VestingInfo, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	grant, err := u.token.VestingInfo(index)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return newVestingInfo(index, grant, uint64(u.now().Unix())), nil
}

func (u *Usecase) VestingsOf(account common.Address) ([]*VestingInfo, error) {
	now := uint64(u.now().Unix())

	u.mu.RLock()
	defer u.mu.RUnlock()
	indices := u.token.VestingIndicesOf(account)
	infos := make([]*VestingInfo, 0, len(indices))
	for _, index := range indices {
		grant, err := u.token.VestingInfo(index)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		infos = append(infos, newVestingInfo(index, grant, now))
	}
	return infos, nil
}

func newVestingInfo(index uint64, grant ledger.VestingGrant, now uint64) *VestingInfo {
	return &VestingInfo{
		Index:    index,
		Grant:    grant,
		Unlocked: grant.UnlockedAt(now),
		Locked:   grant.LockedAt(now),
		EndsAt:   grant.EndsAt(),
	}
}

func (u *Usecase) SaleInfo() SaleInfo {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return SaleInfo{
		Address:    u.sale.Address(),
		Governance: u.sale.Governance(),
		Operators:  u.sale.Operators(),
		Recipient:  u.sale.Recipient(),
		SaleToken:  u.sale.SaleToken(),
		Paused:     u.sale.Paused(),
		Users:      u.sale.UsersLength(),
	}
}

func (u *Usecase) IsOperator(account common.Address) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.sale.IsOperator(account)
}

// BatchInfo returns errs.NotFound for batches that were never configured.
func (u *Usecase) BatchInfo(batchID uint64) (*BatchInfo, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	batch, ok := u.sale.BatchInfo(batchID)
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "batch %d", batchID)
	}
	info := &BatchInfo{
		BatchID: batchID,
		Batch:   batch,
		Status:  u.sale.BatchStatus(batchID),
		Sold:    u.sale.BatchSold(batchID),
	}
	if plan, ok := u.sale.BatchVestingPlan(batchID); ok {
		info.VestingPlan = &plan
	}
	return info, nil
}

func (u *Usecase) BatchPrice(batchID uint64, paymentAsset common.Address) *uint256.Int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.sale.BatchPrice(batchID, paymentAsset)
}

func (u *Usecase) UserAmount(account common.Address) *uint256.Int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.sale.UserAmount(account)
}

func (u *Usecase) UserAmountOfBatch(batchID uint64, account common.Address) *uint256.Int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.sale.UserAmountOfBatch(batchID, account)
}

// Users lists buyers in first-purchase order.
func (u *Usecase) Users() ([]common.Address, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	users := make([]common.Address, 0, u.sale.UsersLength())
	for i := 0; i < u.sale.UsersLength(); i++ {
		user, err := u.sale.UserAt(i)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (u *Usecase) PaymentAssets() []PaymentAssetInfo {
	u.mu.RLock()
	defer u.mu.RUnlock()
	tokens := u.payments.Tokens()
	infos := make([]PaymentAssetInfo, 0, len(tokens))
	for _, token := range tokens {
		infos = append(infos, PaymentAssetInfo{
			Address:     token.Address(),
			Name:        token.Name(),
			Symbol:      token.Symbol(),
			Decimals:    token.Decimals(),
			Cap:         token.Cap(),
			TotalSupply: token.TotalSupply(),
		})
	}
	return infos
}

func (u *Usecase) PaymentBalanceOf(asset, account common.Address) (*uint256.Int, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	token, err := u.paymentAsset(asset)
	if err != nil {
		return nil, err
	}
	return token.BalanceOf(account), nil
}

func (u *Usecase) PaymentAllowance(asset, owner, spender common.Address) (*uint256.Int, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	token, err := u.paymentAsset(asset)
	if err != nil {
		return nil, err
	}
	return token.Allowance(owner, spender), nil
}

func (u *Usecase) GetTransactions(ctx context.Context, fromSeq uint64, limit int32) ([]*entity.Transaction, error) {
	txs, err := u.dg.GetTransactions(ctx, fromSeq, limit)
	if err != nil {
		return nil, errors.Wrap(err, "can't get transactions")
	}
	return txs, nil
}

func (u *Usecase) GetEventsByAccount(ctx context.Context, account common.Address, limit, offset int32) ([]*entity.EventRecord, error) {
	events, err := u.dg.GetEventsByAccount(ctx, account, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "can't get events")
	}
	return events, nil
}

func (u *Usecase) GetEventsByTransaction(ctx context.Context, txSeq uint64) ([]*entity.EventRecord, error) {
	events, err := u.dg.GetEventsByTransaction(ctx, txSeq)
	if err != nil {
		return nil, errors.Wrap(err, "can't get events")
	}
	return events, nil
}
