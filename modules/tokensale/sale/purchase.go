package sale

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/gaze-network/token-sale/pkg/decimals"
	"github.com/holiman/uint256"
)

// Purchase converts paymentAmount of paymentAsset into sale tokens of the batch, locked by the batch's
// vesting plan. Payment goes straight from the buyer to the recipient; the buyer must have approved the
// engine beforehand.
//
// Nothing is mutated until every check passed, including the ledger's own mint checks.
func (e *Engine) Purchase(now uint64, buyer common.Address, batchID uint64, paymentAsset common.Address, paymentAmount *uint256.Int) (*Receipt, error) {
	if paymentAmount == nil {
		return nil, errors.WithStack(ledger.ErrAmountRequired)
	}
	if buyer.IsZero() {
		return nil, errors.Wrap(ledger.ErrZeroAddress, "buyer is the zero address")
	}

	grant, asset, err := e.validatePurchase(now, buyer, batchID, paymentAsset, paymentAmount)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	receiveAmount := grant.TotalAmount

	if err := asset.TransferFrom(e.address, buyer, e.recipient, paymentAmount); err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrPaymentFailed), "can't collect payment")
	}

	index, err := e.saleToken.MintWithVestingPlan(e.address, grant)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, ErrPartialPurchase), "mint for batch %d", batchID)
	}

	e.record(batchID, buyer, receiveAmount)

	receipt := &Receipt{
		BatchID:       batchID,
		Buyer:         buyer,
		PaymentAsset:  paymentAsset,
		PaymentAmount: paymentAmount.Clone(),
		ReceiveAmount: receiveAmount.Clone(),
		TGEAmount:     grant.TGEAmount.Clone(),
		VestingIndex:  index,
	}
	e.emitter.Emit(PurchasedEvent{Sale: e.address, Receipt: *receipt})
	return receipt, nil
}

func (e *Engine) validatePurchase(now uint64, buyer common.Address, batchID uint64, paymentAsset common.Address, paymentAmount *uint256.Int) (ledger.VestingPlan, PaymentAsset, error) {
	var zero ledger.VestingPlan

	if e.paused {
		return zero, nil, errors.WithStack(ErrPaused)
	}
	if e.statuses[batchID] != BatchStatusActive {
		return zero, nil, errors.Wrapf(ErrBatchNotActive, "batch %d", batchID)
	}
	batch, _ := e.BatchInfo(batchID)
	if !batch.HasStarted(now) {
		return zero, nil, errors.WithStack(ErrNotStarted)
	}
	if batch.HasEnded(now) {
		return zero, nil, errors.WithStack(ErrSaleEnded)
	}

	price, ok := e.prices[batchID][paymentAsset]
	if !ok || price.IsZero() {
		return zero, nil, errors.Wrapf(ErrPriceNotSet, "batch %d, payment asset %s", batchID, paymentAsset)
	}
	asset, ok := e.payments(paymentAsset)
	if !ok {
		return zero, nil, errors.Wrapf(ErrUnknownPaymentAsset, "%s", paymentAsset)
	}

	receiveAmount, err := e.receiveAmountOf(paymentAmount, price)
	if err != nil {
		return zero, nil, errors.WithStack(err)
	}

	sold, overflow := new(uint256.Int).AddOverflow(e.BatchSold(batchID), receiveAmount)
	if overflow || sold.Gt(batch.HardCap) {
		return zero, nil, errors.Wrapf(ErrHardCapExceeded, "batch %d cap %s", batchID, batch.HardCap.Dec())
	}

	plan, ok := e.plans[batchID]
	if !ok {
		return zero, nil, errors.Wrapf(ErrVestingPlanNotSet, "batch %d", batchID)
	}
	grant, err := plan.Grant(buyer, receiveAmount)
	if err != nil {
		return zero, nil, errors.WithStack(err)
	}
	if err := e.saleToken.ValidateMintWithVestingPlan(e.address, grant); err != nil {
		return zero, nil, errors.WithStack(err)
	}
	return grant, asset, nil
}

// receiveAmountOf returns paymentAmount × 10^decimals / price, floored.
func (e *Engine) receiveAmountOf(paymentAmount, price *uint256.Int) (*uint256.Int, error) {
	unit, ok := decimals.PowerOfTenUint256(e.saleToken.Decimals())
	if !ok {
		return nil, errors.Wrapf(errs.OverflowUint256, "10^%d", e.saleToken.Decimals())
	}
	amount, overflow := new(uint256.Int).MulOverflow(paymentAmount, unit)
	if overflow {
		return nil, errors.Wrap(errs.OverflowUint256, "receive amount")
	}
	amount.Div(amount, price)
	if amount.IsZero() {
		return nil, errors.WithStack(ErrZeroReceiveAmount)
	}
	return amount, nil
}

func (e *Engine) record(batchID uint64, buyer common.Address, receiveAmount *uint256.Int) {
	addTo(e.sold, batchID, receiveAmount)

	amounts, ok := e.userBatchAmounts[batchID]
	if !ok {
		amounts = make(map[common.Address]*uint256.Int)
		e.userBatchAmounts[batchID] = amounts
	}
	addTo(amounts, buyer, receiveAmount)
	addTo(e.userAmounts, buyer, receiveAmount)
	e.users.add(buyer)
}

func addTo[K comparable](m map[K]*uint256.Int, key K, amount *uint256.Int) {
	if v, ok := m[key]; ok {
		v.Add(v, amount)
		return
	}
	m[key] = amount.Clone()
}
