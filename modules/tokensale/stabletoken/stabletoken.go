// Package stabletoken is a plain capped fungible ledger used as the payment asset of the sale.
package stabletoken

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/event"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrCapExceeded           = errors.New("cap exceeded")
	ErrZeroAddress           = errors.New("zero address")
	ErrAmountRequired        = errors.New("amount is required")
)

var maxUint256 = new(uint256.Int).SetAllOne()

type Config struct {
	Address  common.Address
	Name     string
	Symbol   string
	Decimals uint8
	Cap      *uint256.Int
	Owner    common.Address
}

type Token struct {
	conf        Config
	totalSupply *uint256.Int
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	emitter     event.Emitter
}

func New(conf Config, emitter event.Emitter) (*Token, error) {
	if conf.Address.IsZero() {
		return nil, errors.Wrap(errs.InvalidArgument, "token address is required")
	}
	if conf.Owner.IsZero() {
		return nil, errors.Wrap(errs.InvalidArgument, "owner is required")
	}
	if conf.Cap == nil || conf.Cap.IsZero() {
		return nil, errors.Wrap(errs.InvalidArgument, "cap must be positive")
	}
	if emitter == nil {
		emitter = event.Nop
	}
	conf.Cap = conf.Cap.Clone()
	return &Token{
		conf:        conf,
		totalSupply: new(uint256.Int),
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		emitter:     emitter,
	}, nil
}

func (t *Token) Address() common.Address { return t.conf.Address }
func (t *Token) Name() string { return t.conf.Name }
func (t *Token) Symbol() string { return t.conf.Symbol }
func (t *Token) Decimals() uint8 { return t.conf.Decimals }
func (t *Token) Owner() common.Address { return t.conf.Owner }
func (t *Token) Cap() *uint256.Int { return t.conf.Cap.Clone() }
func (t *Token) TotalSupply() *uint256.Int { return t.totalSupply.Clone() }

func (t *Token) BalanceOf(account common.Address) *uint256.Int {
	if b, ok := t.balances[account]; ok {
		return b.Clone()
	}
	return new(uint256.Int)
}

func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return a.Clone()
	}
	return new(uint256.Int)
}

// Mint issues units up to the cap. Only the owner may mint.
func (t *Token) Mint(sender, to common.Address, amount *uint256.Int) error {
	if sender != t.conf.Owner {
		return errors.Wrapf(errs.Unauthorized, "%s is not the owner of %s", sender, t.conf.Symbol)
	}
	if amount == nil {
		return errors.WithStack(ErrAmountRequired)
	}
	if to.IsZero() {
		return errors.WithStack(ErrZeroAddress)
	}
	supply, overflow := new(uint256.Int).AddOverflow(t.totalSupply, amount)
	if overflow || supply.Gt(t.conf.Cap) {
		return errors.WithStack(ErrCapExceeded)
	}
	t.totalSupply = supply
	t.add(to, amount)
	t.emitter.Emit(event.Transfer{Token: t.conf.Address, From: common.ZeroAddress, To: to, Amount: amount.Clone()})
	return nil
}

func (t *Token) Transfer(from, to common.Address, amount *uint256.Int) error {
	if err := t.checkTransfer(from, to, amount); err != nil {
		return errors.WithStack(err)
	}
	t.move(from, to, amount)
	return nil
}

func (t *Token) Approve(owner, spender common.Address, amount *uint256.Int) error {
	if amount == nil {
		return errors.WithStack(ErrAmountRequired)
	}
	if owner.IsZero() || spender.IsZero() {
		return errors.WithStack(ErrZeroAddress)
	}
	t.storeAllowance(owner, spender, amount.Clone())
	t.emitter.Emit(event.Approval{Token: t.conf.Address, Owner: owner, Spender: spender, Amount: amount.Clone()})
	return nil
}

func (t *Token) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return errors.WithStack(ErrAmountRequired)
	}
	allowance := t.Allowance(from, spender)
	if allowance.Lt(amount) {
		return errors.Wrapf(ErrInsufficientAllowance, "allowance %s, required %s", allowance.Dec(), amount.Dec())
	}
	if err := t.checkTransfer(from, to, amount); err != nil {
		return errors.WithStack(err)
	}
	if !allowance.Eq(maxUint256) {
		t.storeAllowance(from, spender, allowance.Sub(allowance, amount))
	}
	t.move(from, to, amount)
	return nil
}

func (t *Token) checkTransfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return errors.WithStack(ErrAmountRequired)
	}
	if from.IsZero() || to.IsZero() {
		return errors.WithStack(ErrZeroAddress)
	}
	if balance := t.BalanceOf(from); balance.Lt(amount) {
		return errors.Wrapf(ErrInsufficientBalance, "balance %s, required %s", balance.Dec(), amount.Dec())
	}
	return nil
}

func (t *Token) move(from, to common.Address, amount *uint256.Int) {
	if b, ok := t.balances[from]; ok {
		b.Sub(b, amount)
		if b.IsZero() {
			delete(t.balances, from)
		}
	}
	t.add(to, amount)
	t.emitter.Emit(event.Transfer{Token: t.conf.Address, From: from, To: to, Amount: amount.Clone()})
}

func (t *Token) add(account common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	b, ok := t.balances[account]
	if !ok {
		b = new(uint256.Int)
		t.balances[account] = b
	}
	b.Add(b, amount)
}

func (t *Token) storeAllowance(owner, spender common.Address, amount *uint256.Int) {
	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*uint256.Int)
		t.allowances[owner] = spenders
	}
	spenders[spender] = amount
}
