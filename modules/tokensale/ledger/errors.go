package ledger

import "github.com/cockroachdb/errors"

var (
	ErrSupplyCapExceeded        = errors.New("supply cap exceeded")
	ErrInvalidPlan              = errors.New("invalid vesting plan")
	ErrInsufficientTransferable = errors.New("insufficient transferable balance")
	ErrInsufficientAllowance    = errors.New("insufficient allowance")
	ErrZeroAddress              = errors.New("zero address")
	ErrAmountRequired           = errors.New("amount is required")
)
