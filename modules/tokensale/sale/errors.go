package sale

import "github.com/cockroachdb/errors"

// Messages of the purchase window errors are kept identical to the ones buyers already see.
var (
	ErrPaused              = errors.New("Paused")
	ErrBatchNotActive      = errors.New("batch is not active")
	ErrNotStarted          = errors.New("The sale have not started yet")
	ErrSaleEnded           = errors.New("The sale ended")
	ErrPriceNotSet         = errors.New("price is not set")
	ErrHardCapExceeded     = errors.New("hard cap exceeded")
	ErrVestingPlanNotSet   = errors.New("vesting plan is not set")
	ErrZeroReceiveAmount   = errors.New("payment amount too small to receive any token")
	ErrUnknownPaymentAsset = errors.New("unknown payment asset")
	ErrInvalidBatch        = errors.New("invalid batch")
	ErrInvalidBatchStatus  = errors.New("invalid batch status")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrPartialPurchase     = errors.New("purchase failed after payment was taken")
)
