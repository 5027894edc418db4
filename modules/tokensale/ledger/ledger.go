// Package ledger is the supply-capped balance ledger whose balances may be partly locked by vesting grants.
package ledger

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/accesscontrol"
	"github.com/gaze-network/token-sale/modules/tokensale/event"
	"github.com/holiman/uint256"
)

// Decimals is fixed for the sale token.
const Decimals uint8 = 18

// MaxUint256 is treated as an infinite allowance that transfers never decrease.
var MaxUint256 = new(uint256.Int).SetAllOne()

type Config struct {
	Address   common.Address
	Name      string
	Symbol    string
	MaxSupply *uint256.Int

	// Admin becomes governance of the role table and holds the manager role.
	Admin common.Address
}

type Ledger struct {
	address   common.Address
	name      string
	symbol    string
	maxSupply *uint256.Int

	totalSupply *uint256.Int
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int

	// grants is append-only. grantsOf holds indices into it per beneficiary.
	grants   []VestingGrant
	grantsOf map[common.Address][]uint64

	roles   *accesscontrol.AccessControl
	emitter event.Emitter
}

func New(conf Config, emitter event.Emitter) (*Ledger, error) {
	if conf.MaxSupply == nil {
		return nil, errors.Wrap(errs.InvalidArgument, "max supply is required")
	}
	if conf.Admin.IsZero() {
		return nil, errors.Wrap(errs.InvalidArgument, "admin is required")
	}
	if emitter == nil {
		emitter = event.Nop
	}
	roles := accesscontrol.New(conf.Admin)
	if err := roles.Grant(conf.Admin, accesscontrol.RoleManager, conf.Admin); err != nil {
		return nil, errors.Wrap(err, "can't grant manager role to admin")
	}
	return &Ledger{
		address:     conf.Address,
		name:        conf.Name,
		symbol:      conf.Symbol,
		maxSupply:   conf.MaxSupply.Clone(),
		totalSupply: new(uint256.Int),
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		grantsOf:    make(map[common.Address][]uint64),
		roles:       roles,
		emitter:     emitter,
	}, nil
}

func (l *Ledger) Address() common.Address { return l.address }

func (l *Ledger) Name() string { return l.name }

func (l *Ledger) Symbol() string { return l.symbol }

func (l *Ledger) Decimals() uint8 { return Decimals }

func (l *Ledger) MaxSupply() *uint256.Int { return l.maxSupply.Clone() }

func (l *Ledger) TotalSupply() *uint256.Int { return l.totalSupply.Clone() }

// Roles exposes the role table. Callers must go through its guarded methods.
func (l *Ledger) Roles() *accesscontrol.AccessControl { return l.roles }

func (l *Ledger) GrantRole(sender common.Address, role accesscontrol.Role, account common.Address) error {
	return errors.WithStack(l.roles.Grant(sender, role, account))
}

func (l *Ledger) RevokeRole(sender common.Address, role accesscontrol.Role, account common.Address) error {
	return errors.WithStack(l.roles.Revoke(sender, role, account))
}

func (l *Ledger) HasRole(account common.Address, role accesscontrol.Role) bool {
	return l.roles.HasRole(account, role)
}

// Mint issues new units to `to`. Only managers may mint.
func (l *Ledger) Mint(sender, to common.Address, amount *uint256.Int) error {
	if err := l.validateMint(sender, to, amount); err != nil {
		return errors.WithStack(err)
	}
	l.mint(to, amount)
	return nil
}

// ValidateMintWithVestingPlan runs every check of [Ledger.MintWithVestingPlan] without changing state.
func (l *Ledger) ValidateMintWithVestingPlan(sender common.Address, plan VestingPlan) error {
	if err := l.roles.RequireRole(sender, accesscontrol.RoleManager); err != nil {
		return errors.WithStack(err)
	}
	if err := plan.Validate(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(l.validateMint(sender, plan.Beneficiary, plan.TotalAmount))
}

// MintWithVestingPlan mints plan.TotalAmount to the beneficiary and records a grant locking it.
// It returns the global index of the new grant.
func (l *Ledger) MintWithVestingPlan(sender common.Address, plan VestingPlan) (uint64, error) {
	if err := l.ValidateMintWithVestingPlan(sender, plan); err != nil {
		return 0, errors.WithStack(err)
	}
	l.mint(plan.Beneficiary, plan.TotalAmount)

	grant := plan.clone()
	index := uint64(len(l.grants))
	l.grants = append(l.grants, grant)
	l.grantsOf[grant.Beneficiary] = append(l.grantsOf[grant.Beneficiary], index)

	l.emitter.Emit(VestingGrantCreatedEvent{Token: l.address, Index: index, Grant: grant.clone()})
	return index, nil
}

func (l *Ledger) validateMint(sender, to common.Address, amount *uint256.Int) error {
	if err := l.roles.RequireRole(sender, accesscontrol.RoleManager); err != nil {
		return errors.WithStack(err)
	}
	if amount == nil {
		return errors.WithStack(ErrAmountRequired)
	}
	if to.IsZero() {
		return errors.Wrap(ErrZeroAddress, "mint to the zero address")
	}
	supply, overflow := new(uint256.Int).AddOverflow(l.totalSupply, amount)
	if overflow || supply.Gt(l.maxSupply) {
		return errors.Wrapf(ErrSupplyCapExceeded, "supply %s + %s exceeds %s", l.totalSupply.Dec(), amount.Dec(), l.maxSupply.Dec())
	}
	return nil
}

func (l *Ledger) mint(to common.Address, amount *uint256.Int) {
	l.totalSupply.Add(l.totalSupply, amount)
	l.credit(to, amount)
	l.emitter.Emit(event.Transfer{Token: l.address, From: common.ZeroAddress, To: to, Amount: amount.Clone()})
}

// Transfer moves amount from `from` to `to`. Only the transferable part of the balance at now can move.
func (l *Ledger) Transfer(now uint64, from, to common.Address, amount *uint256.Int) error {
	if err := l.validateTransfer(now, from, to, amount); err != nil {
		return errors.WithStack(err)
	}
	l.move(from, to, amount)
	return nil
}

// TransferFrom moves amount on behalf of `from`, spending the spender's allowance.
func (l *Ledger) TransferFrom(now uint64, spender, from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return errors.WithStack(ErrAmountRequired)
	}
	if spender.IsZero() {
		return errors.Wrap(ErrZeroAddress, "spender is the zero address")
	}
	allowance := l.Allowance(from, spender)
	if allowance.Lt(amount) {
		return errors.Wrapf(ErrInsufficientAllowance, "allowance %s, required %s", allowance.Dec(), amount.Dec())
	}
	if err := l.validateTransfer(now, from, to, amount); err != nil {
		return errors.WithStack(err)
	}
	if !allowance.Eq(MaxUint256) {
		l.storeAllowance(from, spender, allowance.Sub(allowance, amount))
	}
	l.move(from, to, amount)
	return nil
}

func (l *Ledger) validateTransfer(now uint64, from, to common.Address, amount *uint256.Int) error {
	switch {
	case amount == nil:
		return errors.WithStack(ErrAmountRequired)
	case from.IsZero():
		return errors.Wrap(ErrZeroAddress, "transfer from the zero address")
	case to.IsZero():
		return errors.Wrap(ErrZeroAddress, "transfer to the zero address")
	}
	if transferable := l.TransferableBalanceOf(now, from); transferable.Lt(amount) {
		return errors.Wrapf(ErrInsufficientTransferable, "transferable %s, required %s", transferable.Dec(), amount.Dec())
	}
	return nil
}

func (l *Ledger) move(from, to common.Address, amount *uint256.Int) {
	l.debit(from, amount)
	l.credit(to, amount)
	l.emitter.Emit(event.Transfer{Token: l.address, From: from, To: to, Amount: amount.Clone()})
}

func (l *Ledger) credit(account common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	balance, ok := l.balances[account]
	if !ok {
		balance = new(uint256.Int)
		l.balances[account] = balance
	}
	balance.Add(balance, amount)
}

func (l *Ledger) debit(account common.Address, amount *uint256.Int) {
	balance, ok := l.balances[account]
	if !ok {
		return
	}
	balance.Sub(balance, amount)
	if balance.IsZero() {
		delete(l.balances, account)
	}
}

// Approve sets the spender's allowance. A later approval replaces the previous one.
func (l *Ledger) Approve(owner, spender common.Address, amount *uint256.Int) error {
	switch {
	case amount == nil:
		return errors.WithStack(ErrAmountRequired)
	case owner.IsZero():
		return errors.Wrap(ErrZeroAddress, "approve from the zero address")
	case spender.IsZero():
		return errors.Wrap(ErrZeroAddress, "approve to the zero address")
	}
	l.setAllowance(owner, spender, amount.Clone())
	return nil
}

func (l *Ledger) IncreaseAllowance(owner, spender common.Address, added *uint256.Int) error {
	if added == nil {
		return errors.WithStack(ErrAmountRequired)
	}
	next, overflow := new(uint256.Int).AddOverflow(l.Allowance(owner, spender), added)
	if overflow {
		return errors.Wrap(errs.OverflowUint256, "allowance")
	}
	return l.Approve(owner, spender, next)
}

func (l *Ledger) DecreaseAllowance(owner, spender common.Address, subtracted *uint256.Int) error {
	if subtracted == nil {
		return errors.WithStack(ErrAmountRequired)
	}
	current := l.Allowance(owner, spender)
	if current.Lt(subtracted) {
		return errors.Wrapf(ErrInsufficientAllowance, "decreased allowance below zero")
	}
	return l.Approve(owner, spender, current.Sub(current, subtracted))
}

func (l *Ledger) setAllowance(owner, spender common.Address, amount *uint256.Int) {
	l.storeAllowance(owner, spender, amount)
	l.emitter.Emit(event.Approval{Token: l.address, Owner: owner, Spender: spender, Amount: amount.Clone()})
}

func (l *Ledger) storeAllowance(owner, spender common.Address, amount *uint256.Int) {
	spenders, ok := l.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*uint256.Int)
		l.allowances[owner] = spenders
	}
	if amount.IsZero() {
		delete(spenders, spender)
	} else {
		spenders[spender] = amount
	}
}

func (l *Ledger) Allowance(owner, spender common.Address) *uint256.Int {
	if amount, ok := l.allowances[owner][spender]; ok {
		return amount.Clone()
	}
	return new(uint256.Int)
}

func (l *Ledger) BalanceOf(account common.Address) *uint256.Int {
	if balance, ok := l.balances[account]; ok {
		return balance.Clone()
	}
	return new(uint256.Int)
}

// LockedBalanceOf sums the locked part of every grant the account holds, recomputed at now.
func (l *Ledger) LockedBalanceOf(now uint64, account common.Address) *uint256.Int {
	locked := new(uint256.Int)
	for _, index := range l.grantsOf[account] {
		locked.Add(locked, l.grants[index].LockedAt(now))
	}
	return locked
}

// TransferableBalanceOf is the balance minus the locked balance, floored at zero.
func (l *Ledger) TransferableBalanceOf(now uint64, account common.Address) *uint256.Int {
	balance := l.BalanceOf(account)
	locked := l.LockedBalanceOf(now, account)
	if balance.Lt(locked) {
		return new(uint256.Int)
	}
	return balance.Sub(balance, locked)
}

// VestingInfo returns the grant at index.
func (l *Ledger) VestingInfo(index uint64) (VestingGrant, error) {
	if index >= uint64(len(l.grants)) {
		return VestingGrant{}, errors.Wrapf(errs.NotFound, "vesting grant %d", index)
	}
	return l.grants[index].clone(), nil
}

func (l *Ledger) VestingCount() uint64 {
	return uint64(len(l.grants))
}

// VestingIndicesOf returns the indices of the account's grants in creation order.
func (l *Ledger) VestingIndicesOf(account common.Address) []uint64 {
	return slices.Clone(l.grantsOf[account])
}

// Holders lists accounts with a non-zero balance in address order.
func (l *Ledger) Holders() []common.Address {
	holders := make([]common.Address, 0, len(l.balances))
	for account := range l.balances {
		holders = append(holders, account)
	}
	slices.SortFunc(holders, common.Address.Compare)
	return holders
}
