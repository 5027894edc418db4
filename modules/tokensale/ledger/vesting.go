package ledger

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/holiman/uint256"
)

// VestingGrant is one immutable lock schedule over part of a beneficiary's balance.
//
// Before TGE everything is locked. Between TGE and TGE+Cliff only TGEAmount is unlocked. From
// TGE+Cliff on, the remainder unlocks in equal steps of Basis seconds, one step at the cliff
// itself, until the whole amount is free at TGE+Cliff+Duration.
type VestingGrant struct {
	Beneficiary common.Address `json:"beneficiary"`
	TGE         uint64         `json:"tge"`
	TotalAmount *uint256.Int   `json:"totalAmount"`
	TGEAmount   *uint256.Int   `json:"tgeAmount"`
	Basis       uint64         `json:"basis"`
	Cliff       uint64         `json:"cliff"`
	Duration    uint64         `json:"duration"`
}

// VestingPlan is the input of [Ledger.MintWithVestingPlan]. It becomes a [VestingGrant] verbatim.
type VestingPlan = VestingGrant

// Validate checks the plan's shape. It does not look at supply or authorization.
func (g VestingGrant) Validate() error {
	switch {
	case g.TotalAmount == nil || g.TGEAmount == nil:
		return errors.Wrap(ErrInvalidPlan, "amounts are required")
	case g.TGEAmount.Gt(g.TotalAmount):
		return errors.Wrap(ErrInvalidPlan, "tge amount exceeds total amount")
	case g.Basis == 0:
		return errors.Wrap(ErrInvalidPlan, "basis must be positive")
	case g.Duration%g.Basis != 0:
		return errors.Wrap(ErrInvalidPlan, "duration must be a multiple of basis")
	case g.TGE > math.MaxUint64-g.Cliff || g.TGE+g.Cliff > math.MaxUint64-g.Duration:
		return errors.Wrap(ErrInvalidPlan, "schedule end overflows")
	}
	return nil
}

// PeriodsTotal is the number of unlock steps after the cliff.
func (g VestingGrant) PeriodsTotal() uint64 {
	return g.Duration/g.Basis + 1
}

// UnlockedAt returns how much of the grant is free at now.
func (g VestingGrant) UnlockedAt(now uint64) *uint256.Int {
	switch {
	case now < g.TGE:
		return new(uint256.Int)
	case now < g.TGE+g.Cliff:
		return g.TGEAmount.Clone()
	}

	periodsTotal := g.PeriodsTotal()
	periodsElapsed := min(periodsTotal, (now-g.TGE-g.Cliff)/g.Basis+1)
	if periodsElapsed == periodsTotal {
		return g.TotalAmount.Clone()
	}

	// per-step amount is floored before scaling, so the last step carries the remainder
	unlocked := new(uint256.Int).Sub(g.TotalAmount, g.TGEAmount)
	unlocked.Div(unlocked, uint256.NewInt(periodsTotal))
	unlocked.Mul(unlocked, uint256.NewInt(periodsElapsed))
	unlocked.Add(unlocked, g.TGEAmount)
	if unlocked.Gt(g.TotalAmount) {
		return g.TotalAmount.Clone()
	}
	return unlocked
}

// LockedAt returns how much of the grant is still locked at now.
func (g VestingGrant) LockedAt(now uint64) *uint256.Int {
	return new(uint256.Int).Sub(g.TotalAmount, g.UnlockedAt(now))
}

// EndsAt is the first timestamp at which nothing is locked.
func (g VestingGrant) EndsAt() uint64 {
	return g.TGE + g.Cliff + g.Duration
}

func (g VestingGrant) clone() VestingGrant {
	g.TotalAmount = g.TotalAmount.Clone()
	g.TGEAmount = g.TGEAmount.Clone()
	return g
}
