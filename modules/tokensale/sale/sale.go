// Package sale runs the batched presale: administrators configure batches, buyers pay with a payment
// asset and receive vesting-locked sale tokens minted through the ledger.
package sale

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/accesscontrol"
	"github.com/gaze-network/token-sale/modules/tokensale/event"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/holiman/uint256"
)

// SaleToken is the ledger purchases mint into. The engine must hold its manager role.
type SaleToken interface {
	Address() common.Address
	Decimals() uint8
	ValidateMintWithVestingPlan(sender common.Address, plan ledger.VestingPlan) error
	MintWithVestingPlan(sender common.Address, plan ledger.VestingPlan) (uint64, error)
}

// PaymentAsset is the part of a fungible ledger the engine needs to collect payments.
type PaymentAsset interface {
	Address() common.Address
	BalanceOf(account common.Address) *uint256.Int
	Allowance(owner, spender common.Address) *uint256.Int
	TransferFrom(spender, from, to common.Address, amount *uint256.Int) error
}

// PaymentResolver looks up a payment asset by address.
type PaymentResolver func(address common.Address) (PaymentAsset, bool)

type Config struct {
	// Address is the engine's own identity. Buyers approve it on the payment asset, and the
	// sale token must grant it the manager role.
	Address    common.Address
	Governance common.Address
	Recipient  common.Address
}

type Engine struct {
	address   common.Address
	roles     *accesscontrol.AccessControl
	recipient common.Address
	saleToken SaleToken
	payments  PaymentResolver
	paused    bool

	batches  map[uint64]Batch
	plans    map[uint64]BatchVestingPlan
	statuses map[uint64]BatchStatus
	prices   map[uint64]map[common.Address]*uint256.Int

	sold             map[uint64]*uint256.Int
	userBatchAmounts map[uint64]map[common.Address]*uint256.Int
	userAmounts      map[common.Address]*uint256.Int
	users            *userSet

	emitter event.Emitter
}

func New(conf Config, saleToken SaleToken, payments PaymentResolver, emitter event.Emitter) (*Engine, error) {
	switch {
	case conf.Address.IsZero():
		return nil, errors.Wrap(errs.InvalidArgument, "sale address is required")
	case conf.Governance.IsZero():
		return nil, errors.Wrap(errs.InvalidArgument, "governance is required")
	case conf.Recipient.IsZero():
		return nil, errors.Wrap(errs.InvalidArgument, "recipient is required")
	case saleToken == nil:
		return nil, errors.Wrap(errs.InvalidArgument, "sale token is required")
	case payments == nil:
		return nil, errors.Wrap(errs.InvalidArgument, "payment resolver is required")
	}
	if emitter == nil {
		emitter = event.Nop
	}
	return &Engine{
		address:          conf.Address,
		roles:            accesscontrol.New(conf.Governance),
		recipient:        conf.Recipient,
		saleToken:        saleToken,
		payments:         payments,
		batches:          make(map[uint64]Batch),
		plans:            make(map[uint64]BatchVestingPlan),
		statuses:         make(map[uint64]BatchStatus),
		prices:           make(map[uint64]map[common.Address]*uint256.Int),
		sold:             make(map[uint64]*uint256.Int),
		userBatchAmounts: make(map[uint64]map[common.Address]*uint256.Int),
		userAmounts:      make(map[common.Address]*uint256.Int),
		users:            newUserSet(),
		emitter:          emitter,
	}, nil
}

func (e *Engine) requireAdmin(sender common.Address) error {
	return errors.WithStack(e.roles.RequireAnyRole(sender, accesscontrol.RoleGovernance, accesscontrol.RoleOperator))
}

func (e *Engine) requireGovernance(sender common.Address) error {
	return errors.WithStack(e.roles.RequireRole(sender, accesscontrol.RoleGovernance))
}

func (e *Engine) SetBatch(sender common.Address, batchID uint64, batch Batch) error {
	if err := e.requireAdmin(sender); err != nil {
		return err
	}
	if err := batch.Validate(); err != nil {
		return errors.WithStack(err)
	}
	e.batches[batchID] = batch.clone()
	e.emitter.Emit(BatchUpdatedEvent{Sale: e.address, BatchID: batchID, Batch: batch.clone()})
	return nil
}

func (e *Engine) SetBatchVestingPlan(sender common.Address, batchID uint64, plan BatchVestingPlan) error {
	if err := e.requireAdmin(sender); err != nil {
		return err
	}
	if err := plan.Validate(); err != nil {
		return errors.WithStack(err)
	}
	e.plans[batchID] = plan
	e.emitter.Emit(BatchVestingPlanUpdatedEvent{Sale: e.address, BatchID: batchID, Plan: plan})
	return nil
}

func (e *Engine) SetBatchStatus(sender common.Address, batchID uint64, status BatchStatus) error {
	if err := e.requireAdmin(sender); err != nil {
		return err
	}
	if err := status.Validate(); err != nil {
		return errors.WithStack(err)
	}
	e.statuses[batchID] = status
	e.emitter.Emit(BatchStatusUpdatedEvent{Sale: e.address, BatchID: batchID, Status: status})
	return nil
}

// SetBatchPrice sets the price of 10^18 sale token units in the payment asset's smallest unit.
func (e *Engine) SetBatchPrice(sender common.Address, batchID uint64, paymentAsset common.Address, price *uint256.Int) error {
	if err := e.requireAdmin(sender); err != nil {
		return err
	}
	if paymentAsset.IsZero() {
		return errors.Wrap(errs.InvalidArgument, "payment asset is the zero address")
	}
	if price == nil || price.IsZero() {
		return errors.Wrap(ErrInvalidPrice, "price must be positive")
	}
	prices, ok := e.prices[batchID]
	if !ok {
		prices = make(map[common.Address]*uint256.Int)
		e.prices[batchID] = prices
	}
	prices[paymentAsset] = price.Clone()
	e.emitter.Emit(BatchPriceUpdatedEvent{Sale: e.address, BatchID: batchID, PaymentAsset: paymentAsset, Price: price.Clone()})
	return nil
}

func (e *Engine) SetGovernance(sender, governance common.Address) error {
	previous := e.roles.Governance()
	if err := e.roles.SetGovernance(sender, governance); err != nil {
		return errors.WithStack(err)
	}
	e.emitter.Emit(GovernanceUpdatedEvent{Sale: e.address, Previous: previous, Current: governance})
	return nil
}

func (e *Engine) SetOperator(sender, operator common.Address, enabled bool) error {
	if err := e.roles.SetRole(sender, accesscontrol.RoleOperator, operator, enabled); err != nil {
		return errors.WithStack(err)
	}
	e.emitter.Emit(OperatorUpdatedEvent{Sale: e.address, Operator: operator, Enabled: enabled})
	return nil
}

func (e *Engine) SetRecipient(sender, recipient common.Address) error {
	if err := e.requireGovernance(sender); err != nil {
		return err
	}
	if recipient.IsZero() {
		return errors.Wrap(errs.InvalidArgument, "recipient is the zero address")
	}
	e.recipient = recipient
	e.emitter.Emit(RecipientUpdatedEvent{Sale: e.address, Recipient: recipient})
	return nil
}

func (e *Engine) SetSaleToken(sender common.Address, token SaleToken) error {
	if err := e.requireGovernance(sender); err != nil {
		return err
	}
	if token == nil {
		return errors.Wrap(errs.InvalidArgument, "sale token is required")
	}
	e.saleToken = token
	e.emitter.Emit(SaleTokenUpdatedEvent{Sale: e.address, SaleToken: token.Address()})
	return nil
}

func (e *Engine) SetPause(sender common.Address, paused bool) error {
	if err := e.requireGovernance(sender); err != nil {
		return err
	}
	e.paused = paused
	e.emitter.Emit(PauseUpdatedEvent{Sale: e.address, Paused: paused})
	return nil
}

func (e *Engine) Address() common.Address { return e.address }

func (e *Engine) Governance() common.Address { return e.roles.Governance() }

func (e *Engine) IsOperator(account common.Address) bool {
	return e.roles.HasRole(account, accesscontrol.RoleOperator)
}

func (e *Engine) Operators() []common.Address {
	return e.roles.Members(accesscontrol.RoleOperator)
}

func (e *Engine) Recipient() common.Address { return e.recipient }

func (e *Engine) SaleToken() common.Address { return e.saleToken.Address() }

func (e *Engine) Paused() bool { return e.paused }

// BatchInfo returns the batch and whether it was ever set. Unset batches read as zero values.
func (e *Engine) BatchInfo(batchID uint64) (Batch, bool) {
	batch, ok := e.batches[batchID]
	if !ok {
		return Batch{HardCap: new(uint256.Int)}, false
	}
	return batch.clone(), true
}

func (e *Engine) BatchVestingPlan(batchID uint64) (BatchVestingPlan, bool) {
	plan, ok := e.plans[batchID]
	return plan, ok
}

func (e *Engine) BatchStatus(batchID uint64) BatchStatus {
	return e.statuses[batchID]
}

// BatchPrice returns zero when no price is configured.
func (e *Engine) BatchPrice(batchID uint64, paymentAsset common.Address) *uint256.Int {
	if price, ok := e.prices[batchID][paymentAsset]; ok {
		return price.Clone()
	}
	return new(uint256.Int)
}

// BatchSold is the receive amount already sold in the batch.
func (e *Engine) BatchSold(batchID uint64) *uint256.Int {
	return cloneOrZero(e.sold[batchID])
}

func (e *Engine) UserAmountOfBatch(batchID uint64, account common.Address) *uint256.Int {
	return cloneOrZero(e.userBatchAmounts[batchID][account])
}

func (e *Engine) UserAmount(account common.Address) *uint256.Int {
	return cloneOrZero(e.userAmounts[account])
}

func (e *Engine) UsersContains(account common.Address) bool {
	return e.users.contains(account)
}

func (e *Engine) UsersLength() int {
	return e.users.len()
}

func (e *Engine) UserAt(index int) (common.Address, error) {
	account, ok := e.users.at(index)
	if !ok {
		return common.Address{}, errors.Wrapf(errs.NotFound, "user index %d", index)
	}
	return account, nil
}

func cloneOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
