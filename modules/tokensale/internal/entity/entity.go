package entity

import (
	"encoding/json"
	"time"

	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

type Method string

const (
	MethodMint                Method = "mint"
	MethodMintWithVestingPlan Method = "mintWithVestingPlan"
	MethodTransfer            Method = "transfer"
	MethodTransferFrom        Method = "transferFrom"
	MethodApprove             Method = "approve"
	MethodIncreaseAllowance   Method = "increaseAllowance"
	MethodDecreaseAllowance   Method = "decreaseAllowance"
	MethodGrantRole           Method = "grantRole"
	MethodRevokeRole          Method = "revokeRole"
	MethodSetBatch            Method = "setBatch"
	MethodSetBatchVestingPlan Method = "setBatchVestingPlan"
	MethodSetBatchStatus      Method = "setBatchStatus"
	MethodSetBatchPrice       Method = "setBatchPrice"
	MethodPurchase            Method = "purchase"
	MethodSetGovernance       Method = "setGovernance"
	MethodSetOperator         Method = "setOperator"
	MethodSetRecipient        Method = "setRecipient"
	MethodSetSaleToken        Method = "setSaleToken"
	MethodSetPause            Method = "setPause"
	MethodPaymentApprove      Method = "paymentApprove"
	MethodPaymentMint         Method = "paymentMint"
	MethodPaymentTransfer     Method = "paymentTransfer"
)

// Transaction is one journaled state-changing call. Replaying the journal in Seq order rebuilds the state.
type Transaction struct {
	Seq       uint64
	ID        uuid.UUID
	Method    Method
	Sender    common.Address
	Timestamp time.Time
	Params    json.RawMessage
	CreatedAt time.Time
}

// EventRecord is an event emitted by a committed transaction.
type EventRecord struct {
	TxSeq     uint64
	LogIndex  uint32
	Name      string
	Source    common.Address
	Accounts  []common.Address
	Data      json.RawMessage
	Timestamp time.Time
}

// HolderSnapshot is the balance split of one account at the snapshot time.
type HolderSnapshot struct {
	Account      common.Address
	Balance      *uint256.Int
	Locked       *uint256.Int
	Transferable *uint256.Int
}

// GrantSnapshot is a vesting grant with its unlocked amount at the snapshot time.
type GrantSnapshot struct {
	Index    uint64
	Grant    ledger.VestingGrant
	Unlocked *uint256.Int
}

type Snapshot struct {
	Seq         uint64
	Timestamp   time.Time
	Token       common.Address
	TotalSupply *uint256.Int
	Holders     []HolderSnapshot
	Grants      []GrantSnapshot
}
