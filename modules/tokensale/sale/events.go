package sale

import (
	"github.com/gaze-network/token-sale/common"
	"github.com/holiman/uint256"
)

const (
	NameBatchUpdated            = "BatchUpdated"
	NameBatchVestingPlanUpdated = "BatchVestingPlanUpdated"
	NameBatchStatusUpdated      = "BatchStatusUpdated"
	NameBatchPriceUpdated       = "BatchPriceUpdated"
	NamePurchased               = "Purchased"
	NameGovernanceUpdated       = "GovernanceUpdated"
	NameOperatorUpdated         = "OperatorUpdated"
	NameRecipientUpdated        = "RecipientUpdated"
	NameSaleTokenUpdated        = "SaleTokenUpdated"
	NamePauseUpdated            = "PauseUpdated"
)

type BatchUpdatedEvent struct {
	Sale    common.Address `json:"sale"`
	BatchID uint64         `json:"batchId"`
	Batch   Batch          `json:"batch"`
}

func (e BatchUpdatedEvent) Name() string { return NameBatchUpdated }

func (e BatchUpdatedEvent) Source() common.Address { return e.Sale }

func (e BatchUpdatedEvent) Accounts() []common.Address { return nil }

type BatchVestingPlanUpdatedEvent struct {
	Sale    common.Address   `json:"sale"`
	BatchID uint64           `json:"batchId"`
	Plan    BatchVestingPlan `json:"plan"`
}

func (e BatchVestingPlanUpdatedEvent) Name() string { return NameBatchVestingPlanUpdated }

func (e BatchVestingPlanUpdatedEvent) Source() common.Address { return e.Sale }

func (e BatchVestingPlanUpdatedEvent) Accounts() []common.Address { return nil }

type BatchStatusUpdatedEvent struct {
	Sale    common.Address `json:"sale"`
	BatchID uint64         `json:"batchId"`
	Status  BatchStatus    `json:"status"`
}

func (e BatchStatusUpdatedEvent) Name() string { return NameBatchStatusUpdated }

func (e BatchStatusUpdatedEvent) Source() common.Address { return e.Sale }

func (e BatchStatusUpdatedEvent) Accounts() []common.Address { return nil }

type BatchPriceUpdatedEvent struct {
	Sale         common.Address `json:"sale"`
	BatchID      uint64         `json:"batchId"`
	PaymentAsset common.Address `json:"paymentAsset"`
	Price        *uint256.Int   `json:"price"`
}

func (e BatchPriceUpdatedEvent) Name() string { return NameBatchPriceUpdated }

func (e BatchPriceUpdatedEvent) Source() common.Address { return e.Sale }

func (e BatchPriceUpdatedEvent) Accounts() []common.Address { return nil }

type PurchasedEvent struct {
	Sale common.Address `json:"sale"`
	Receipt
}

func (e PurchasedEvent) Name() string { return NamePurchased }

func (e PurchasedEvent) Source() common.Address { return e.Sale }

func (e PurchasedEvent) Accounts() []common.Address { return []common.Address{e.Buyer} }

type GovernanceUpdatedEvent struct {
	Sale     common.Address `json:"sale"`
	Previous common.Address `json:"previous"`
	Current  common.Address `json:"current"`
}

func (e GovernanceUpdatedEvent) Name() string { return NameGovernanceUpdated }

func (e GovernanceUpdatedEvent) Source() common.Address { return e.Sale }

func (e GovernanceUpdatedEvent) Accounts() []common.Address {
	return []common.Address{e.Previous, e.Current}
}

type OperatorUpdatedEvent struct {
	Sale     common.Address `json:"sale"`
	Operator common.Address `json:"operator"`
	Enabled  bool           `json:"enabled"`
}

func (e OperatorUpdatedEvent) Name() string { return NameOperatorUpdated }

func (e OperatorUpdatedEvent) Source() common.Address { return e.Sale }

func (e OperatorUpdatedEvent) Accounts() []common.Address { return []common.Address{e.Operator} }

type RecipientUpdatedEvent struct {
	Sale      common.Address `json:"sale"`
	Recipient common.Address `json:"recipient"`
}

func (e RecipientUpdatedEvent) Name() string { return NameRecipientUpdated }

func (e RecipientUpdatedEvent) Source() common.Address { return e.Sale }

func (e RecipientUpdatedEvent) Accounts() []common.Address { return []common.Address{e.Recipient} }

type SaleTokenUpdatedEvent struct {
	Sale      common.Address `json:"sale"`
	SaleToken common.Address `json:"saleToken"`
}

func (e SaleTokenUpdatedEvent) Name() string { return NameSaleTokenUpdated }

func (e SaleTokenUpdatedEvent) Source() common.Address { return e.Sale }

func (e SaleTokenUpdatedEvent) Accounts() []common.Address { return nil }

type PauseUpdatedEvent struct {
	Sale   common.Address `json:"sale"`
	Paused bool           `json:"paused"`
}

func (e PauseUpdatedEvent) Name() string { return NamePauseUpdated }

func (e PauseUpdatedEvent) Source() common.Address { return e.Sale }

func (e PauseUpdatedEvent) Accounts() []common.Address { return nil }
