package event

import (
	"github.com/gaze-network/token-sale/common"
	"github.com/holiman/uint256"
)

const (
	NameTransfer = "Transfer"
	NameApproval = "Approval"
)

// Transfer is emitted by any fungible ledger when units move. Mints use the zero address as From.
type Transfer struct {
	Token  common.Address `json:"token"`
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

func (e Transfer) Name() string { return NameTransfer }
func (e Transfer) Source() common.Address { return e.Token }

func (e Transfer) Accounts() []common.Address {
	if e.From.IsZero() {
		return []common.Address{e.To}
	}
	return []common.Address{e.From, e.To}
}

// Approval is emitted when an owner sets a spender's allowance.
type Approval struct {
	Token   common.Address `json:"token"`
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  *uint256.Int   `json:"amount"`
}

func (e Approval) Name() string { return NameApproval }
func (e Approval) Source() common.Address { return e.Token }

func (e Approval) Accounts() []common.Address {
	return []common.Address{e.Owner, e.Spender}
}
