package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/modules/tokensale/sale"
)

// Sale token ledger

func (u *Usecase) Mint(ctx context.Context, sender common.Address, params MintParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodMint, params)
}

func (u *Usecase) MintWithVestingPlan(ctx context.Context, sender common.Address, params MintWithVestingPlanParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodMintWithVestingPlan, params)
}

func (u *Usecase) Transfer(ctx context.Context, sender common.Address, params TransferParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodTransfer, params)
}

func (u *Usecase) TransferFrom(ctx context.Context, sender common.Address, params TransferFromParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodTransferFrom, params)
}

func (u *Usecase) Approve(ctx context.Context, sender common.Address, params ApproveParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodApprove, params)
}

func (u *Usecase) IncreaseAllowance(ctx context.Context, sender common.Address, params ApproveParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodIncreaseAllowance, params)
}

func (u *Usecase) DecreaseAllowance(ctx context.Context, sender common.Address, params ApproveParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodDecreaseAllowance, params)
}

func (u *Usecase) GrantRole(ctx context.Context, sender common.Address, params RoleParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodGrantRole, params)
}

func (u *Usecase) RevokeRole(ctx context.Context, sender common.Address, params RoleParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodRevokeRole, params)
}

// Sale engine

func (u *Usecase) SetBatch(ctx context.Context, sender common.Address, params SetBatchParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodSetBatch, params)
}

func (u *Usecase) SetBatchVestingPlan(ctx context.Context, sender common.Address, params SetBatchVestingPlanParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodSetBatchVestingPlan, params)
}

func (u *Usecase) SetBatchStatus(ctx context.Context, sender common.Address, params SetBatchStatusParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodSetBatchStatus, params)
}

func (u *Usecase) SetBatchPrice(ctx context.Context, sender common.Address, params SetBatchPriceParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodSetBatchPrice, params)
}

// Purchase buys sale tokens for sender. The result's Output is the [sale.Receipt].
func (u *Usecase) Purchase(ctx context.Context, sender common.Address, params PurchaseParams) (*TxResult, *sale.Receipt, error) {
	result, err := u.execute(ctx, sender, entity.MethodPurchase, params)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	receipt, ok := result.Output.(*sale.Receipt)
	if !ok {
		return nil, nil, errors.Newf("unexpected purchase output %T", result.Output)
	}
	return result, receipt, nil
}

func (u *Usecase) SetGovernance(ctx context.Context, sender common.Address, params SetGovernanceParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodSetGovernance, params)
}

func (u *Usecase) SetOperator(ctx context.Context, sender common.Address, params SetOperatorParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodSetOperator, params)
}

func (u *Usecase) SetRecipient(ctx context.Context, sender common.Address, params SetRecipientParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodSetRecipient, params)
}

func (u *Usecase) SetSaleToken(ctx context.Context, sender common.Address, params SetSaleTokenParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodSetSaleToken, params)
}

func (u *Usecase) SetPause(ctx context.Context, sender common.Address, params SetPauseParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodSetPause, params)
}

// Payment assets

func (u *Usecase) PaymentApprove(ctx context.Context, sender common.Address, params PaymentApproveParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodPaymentApprove, params)
}

func (u *Usecase) PaymentMint(ctx context.Context, sender common.Address, params PaymentMintParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodPaymentMint, params)
}

func (u *Usecase) PaymentTransfer(ctx context.Context, sender common.Address, params PaymentTransferParams) (*TxResult, error) {
	return u.execute(ctx, sender, entity.MethodPaymentTransfer, params)
}
