package sale

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/holiman/uint256"
)

// MaxPercentageDecimals bounds the precision of a batch TGE percentage.
const MaxPercentageDecimals = 18

// Batch is a time-boxed offering. The window is [Start, End). End 0 means the batch never ends.
type Batch struct {
	HardCap *uint256.Int `json:"hardCap"`
	Start   uint64       `json:"start"`
	End     uint64       `json:"end"`
}

func (b Batch) Validate() error {
	if b.HardCap == nil {
		return errors.Wrap(ErrInvalidBatch, "hard cap is required")
	}
	if b.End != 0 && b.Start >= b.End {
		return errors.Wrapf(ErrInvalidBatch, "start %d must be before end %d", b.Start, b.End)
	}
	return nil
}

func (b Batch) HasStarted(now uint64) bool {
	return now >= b.Start
}

func (b Batch) HasEnded(now uint64) bool {
	return b.End != 0 && now >= b.End
}

func (b Batch) clone() Batch {
	if b.HardCap != nil {
		b.HardCap = b.HardCap.Clone()
	}
	return b
}

// BatchVestingPlan is the template copied into every grant minted by a purchase in the batch.
type BatchVestingPlan struct {
	PercentageDecimals uint8  `json:"percentageDecimals"`
	TGE                uint64 `json:"tge"`
	TGEPercentage      uint64 `json:"tgePercentage"`
	Basis              uint64 `json:"basis"`
	Cliff              uint64 `json:"cliff"`
	Duration           uint64 `json:"duration"`
}

func (p BatchVestingPlan) Validate() error {
	switch {
	case p.PercentageDecimals > MaxPercentageDecimals:
		return errors.Wrapf(ledger.ErrInvalidPlan, "percentage decimals %d above %d", p.PercentageDecimals, MaxPercentageDecimals)
	case uint256.NewInt(p.TGEPercentage).Gt(p.fullPercentage()):
		return errors.Wrap(ledger.ErrInvalidPlan, "tge percentage above 100%")
	case p.Basis == 0:
		return errors.Wrap(ledger.ErrInvalidPlan, "basis must be positive")
	case p.Duration%p.Basis != 0:
		return errors.Wrap(ledger.ErrInvalidPlan, "duration must be a multiple of basis")
	case p.TGE > math.MaxUint64-p.Cliff || p.TGE+p.Cliff > math.MaxUint64-p.Duration:
		return errors.Wrap(ledger.ErrInvalidPlan, "schedule end overflows")
	}
	return nil
}

// fullPercentage is 100% expressed with the plan's decimals.
func (p BatchVestingPlan) fullPercentage() *uint256.Int {
	full := uint256.NewInt(100)
	for i := uint8(0); i < p.PercentageDecimals; i++ {
		full.Mul(full, uint256.NewInt(10))
	}
	return full
}

// TGEAmountOf returns receiveAmount × tgePercentage / (100 × 10^percentageDecimals), floored.
func (p BatchVestingPlan) TGEAmountOf(receiveAmount *uint256.Int) (*uint256.Int, error) {
	amount, overflow := new(uint256.Int).MulOverflow(receiveAmount, uint256.NewInt(p.TGEPercentage))
	if overflow {
		return nil, errors.Wrap(errs.OverflowUint256, "tge amount")
	}
	return amount.Div(amount, p.fullPercentage()), nil
}

// Grant builds the grant a purchase of receiveAmount creates for beneficiary.
func (p BatchVestingPlan) Grant(beneficiary common.Address, receiveAmount *uint256.Int) (ledger.VestingPlan, error) {
	tgeAmount, err := p.TGEAmountOf(receiveAmount)
	if err != nil {
		return ledger.VestingPlan{}, errors.WithStack(err)
	}
	return ledger.VestingPlan{
		Beneficiary: beneficiary,
		TGE:         p.TGE,
		TotalAmount: receiveAmount.Clone(),
		TGEAmount:   tgeAmount,
		Basis:       p.Basis,
		Cliff:       p.Cliff,
		Duration:    p.Duration,
	}, nil
}

type BatchStatus uint8

const (
	BatchStatusInactive BatchStatus = 0
	BatchStatusActive   BatchStatus = 1
)

func (s BatchStatus) Validate() error {
	switch s {
	case BatchStatusInactive, BatchStatusActive:
		return nil
	}
	return errors.Wrapf(ErrInvalidBatchStatus, "status %d", s)
}

func (s BatchStatus) String() string {
	switch s {
	case BatchStatusInactive:
		return "inactive"
	case BatchStatusActive:
		return "active"
	}
	return "unknown"
}

// Receipt describes a completed purchase.
type Receipt struct {
	BatchID       uint64         `json:"batchId"`
	Buyer         common.Address `json:"buyer"`
	PaymentAsset  common.Address `json:"paymentAsset"`
	PaymentAmount *uint256.Int   `json:"paymentAmount"`
	ReceiveAmount *uint256.Int   `json:"receiveAmount"`
	TGEAmount     *uint256.Int   `json:"tgeAmount"`
	VestingIndex  uint64         `json:"vestingIndex"`
}
