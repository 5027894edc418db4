package ledger

import (
	"github.com/gaze-network/token-sale/common"
)

const NameVestingGrantCreated = "VestingGrantCreated"

type VestingGrantCreatedEvent struct {
	Token common.Address `json:"token"`
	Index uint64         `json:"index"`
	Grant VestingGrant   `json:"grant"`
}

func (e VestingGrantCreatedEvent) Name() string { return NameVestingGrantCreated }

func (e VestingGrantCreatedEvent) Source() common.Address { return e.Token }

func (e VestingGrantCreatedEvent) Accounts() []common.Address {
	return []common.Address{e.Grant.Beneficiary}
}
