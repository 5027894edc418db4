package usecase

import (
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/modules/tokensale/accesscontrol"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/gaze-network/token-sale/modules/tokensale/sale"
	"github.com/holiman/uint256"
)

// Parameters of the journaled methods. They are stored as JSON, so field tags are part of the
// journal format.

type MintParams struct {
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

type MintWithVestingPlanParams = ledger.VestingPlan

type TransferParams struct {
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

type TransferFromParams struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

type ApproveParams struct {
	Spender common.Address `json:"spender"`
	Amount  *uint256.Int   `json:"amount"`
}

type RoleParams struct {
	Role    accesscontrol.Role `json:"role"`
	Account common.Address     `json:"account"`
}

type SetBatchParams struct {
	BatchID uint64 `json:"batchId"`
	sale.Batch
}

type SetBatchVestingPlanParams struct {
	BatchID uint64 `json:"batchId"`
	sale.BatchVestingPlan
}

type SetBatchStatusParams struct {
	BatchID uint64           `json:"batchId"`
	Status  sale.BatchStatus `json:"status"`
}

type SetBatchPriceParams struct {
	BatchID      uint64         `json:"batchId"`
	PaymentAsset common.Address `json:"paymentAsset"`
	Price        *uint256.Int   `json:"price"`
}

type PurchaseParams struct {
	BatchID       uint64         `json:"batchId"`
	PaymentAsset  common.Address `json:"paymentAsset"`
	PaymentAmount *uint256.Int   `json:"paymentAmount"`
}

type SetGovernanceParams struct {
	Governance common.Address `json:"governance"`
}

type SetOperatorParams struct {
	Operator common.Address `json:"operator"`
	Enabled  bool           `json:"enabled"`
}

type SetRecipientParams struct {
	Recipient common.Address `json:"recipient"`
}

type SetSaleTokenParams struct {
	SaleToken common.Address `json:"saleToken"`
}

type SetPauseParams struct {
	Paused bool `json:"paused"`
}

type PaymentApproveParams struct {
	Asset   common.Address `json:"asset"`
	Spender common.Address `json:"spender"`
	Amount  *uint256.Int   `json:"amount"`
}

type PaymentMintParams struct {
	Asset  common.Address `json:"asset"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

type PaymentTransferParams struct {
	Asset  common.Address `json:"asset"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}
