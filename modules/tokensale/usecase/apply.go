package usecase

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/modules/tokensale/stabletoken"
)

// apply executes tx against the in-memory state. It is used both for live writes and for replay, so it
// must only depend on the transaction itself.
func (u *Usecase) apply(tx *entity.Transaction) (any, error) {
	now := uint64(tx.Timestamp.Unix())
	sender := tx.Sender

	switch tx.Method {
	case entity.MethodMint:
		p, err := decode[MintParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.token.Mint(sender, p.To, p.Amount)

	case entity.MethodMintWithVestingPlan:
		p, err := decode[MintWithVestingPlanParams](tx)
		if err != nil {
			return nil, err
		}
		index, err := u.token.MintWithVestingPlan(sender, p)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return VestingIndexOutput{Index: index}, nil

	case entity.MethodTransfer:
		p, err := decode[TransferParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.token.Transfer(now, sender, p.To, p.Amount)

	case entity.MethodTransferFrom:
		p, err := decode[TransferFromParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.token.TransferFrom(now, sender, p.From, p.To, p.Amount)

	case entity.MethodApprove:
		p, err := decode[ApproveParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.token.Approve(sender, p.Spender, p.Amount)

	case entity.MethodIncreaseAllowance:
		p, err := decode[ApproveParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.token.IncreaseAllowance(sender, p.Spender, p.Amount)

	case entity.MethodDecreaseAllowance:
		p, err := decode[ApproveParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.token.DecreaseAllowance(sender, p.Spender, p.Amount)

	case entity.MethodGrantRole:
		p, err := decode[RoleParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.token.GrantRole(sender, p.Role, p.Account)

	case entity.MethodRevokeRole:
		p, err := decode[RoleParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.token.RevokeRole(sender, p.Role, p.Account)

	case entity.MethodSetBatch:
		p, err := decode[SetBatchParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.sale.SetBatch(sender, p.BatchID, p.Batch)

	case entity.MethodSetBatchVestingPlan:
		p, err := decode[SetBatchVestingPlanParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.sale.SetBatchVestingPlan(sender, p.BatchID, p.BatchVestingPlan)

	case entity.MethodSetBatchStatus:
		p, err := decode[SetBatchStatusParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.sale.SetBatchStatus(sender, p.BatchID, p.Status)

	case entity.MethodSetBatchPrice:
		p, err := decode[SetBatchPriceParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.sale.SetBatchPrice(sender, p.BatchID, p.PaymentAsset, p.Price)

	case entity.MethodPurchase:
		p, err := decode[PurchaseParams](tx)
		if err != nil {
			return nil, err
		}
		receipt, err := u.sale.Purchase(now, sender, p.BatchID, p.PaymentAsset, p.PaymentAmount)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return receipt, nil

	case entity.MethodSetGovernance:
		p, err := decode[SetGovernanceParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.sale.SetGovernance(sender, p.Governance)

	case entity.MethodSetOperator:
		p, err := decode[SetOperatorParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.sale.SetOperator(sender, p.Operator, p.Enabled)

	case entity.MethodSetRecipient:
		p, err := decode[SetRecipientParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.sale.SetRecipient(sender, p.Recipient)

	case entity.MethodSetSaleToken:
		p, err := decode[SetSaleTokenParams](tx)
		if err != nil {
			return nil, err
		}
		// Only one sale token ledger is hosted by the service.
		if p.SaleToken != u.token.Address() {
			return nil, errors.Wrapf(errs.NotFound, "sale token %s", p.SaleToken)
		}
		return nil, u.sale.SetSaleToken(sender, u.token)

	case entity.MethodSetPause:
		p, err := decode[SetPauseParams](tx)
		if err != nil {
			return nil, err
		}
		return nil, u.sale.SetPause(sender, p.Paused)

	case entity.MethodPaymentApprove:
		p, err := decode[PaymentApproveParams](tx)
		if err != nil {
			return nil, err
		}
		asset, err := u.paymentAsset(p.Asset)
		if err != nil {
			return nil, err
		}
		return nil, asset.Approve(sender, p.Spender, p.Amount)

	case entity.MethodPaymentMint:
		p, err := decode[PaymentMintParams](tx)
		if err != nil {
			return nil, err
		}
		asset, err := u.paymentAsset(p.Asset)
		if err != nil {
			return nil, err
		}
		return nil, asset.Mint(sender, p.To, p.Amount)

	case entity.MethodPaymentTransfer:
		p, err := decode[PaymentTransferParams](tx)
		if err != nil {
			return nil, err
		}
		asset, err := u.paymentAsset(p.Asset)
		if err != nil {
			return nil, err
		}
		return nil, asset.Transfer(sender, p.To, p.Amount)
	}

	return nil, errors.Wrapf(errs.InvalidArgument, "unknown method %q", tx.Method)
}

// VestingIndexOutput is returned by mints that create a vesting grant.
type VestingIndexOutput struct {
	Index uint64 `json:"index"`
}

func decode[T any](tx *entity.Transaction) (T, error) {
	var params T
	if err := json.Unmarshal(tx.Params, &params); err != nil {
		return params, errors.Wrapf(errors.Mark(err, errs.InvalidArgument), "can't decode %s params", tx.Method)
	}
	return params, nil
}

func (u *Usecase) paymentAsset(address common.Address) (*stabletoken.Token, error) {
	token, ok := u.payments.Get(address)
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "payment asset %s", address)
	}
	return token, nil
}
