package httphandler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/accesscontrol"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/gaze-network/token-sale/modules/tokensale/sale"
	"github.com/gaze-network/token-sale/modules/tokensale/stabletoken"
	"github.com/gaze-network/token-sale/modules/tokensale/usecase"
	"github.com/gaze-network/token-sale/pkg/decimals"
	"github.com/gaze-network/token-sale/pkg/middleware/requestcontext"
	"github.com/gofiber/fiber/v2"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

type HttpHandler struct {
	usecase *usecase.Usecase
}

func New(usecase *usecase.Usecase) *HttpHandler {
	return &HttpHandler{
		usecase: usecase,
	}
}

type HttpResponse[T any] common.HttpResponse[T]

func ok[T any](result T) HttpResponse[T] {
	return HttpResponse[T]{Result: &result}
}

// amount is a smallest-unit integer together with its decimal rendering.
type amount struct {
	Value     string `json:"value"`
	Formatted string `json:"formatted"`
}

func newAmount(v *uint256.Int, d uint8) amount {
	return amount{
		Value:     v.Dec(),
		Formatted: decimals.FormatUnits(v, d),
	}
}

func tokenAmount(v *uint256.Int) amount {
	return newAmount(v, ledger.Decimals)
}

func parseAddress(field, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, errors.Newf("'%s' is required", field)
	}
	address, err := common.NewAddressFromHex(value)
	if err != nil {
		return common.Address{}, errors.Newf("'%s' is not a valid address", field)
	}
	return address, nil
}

func parseAmount(field, value string) (*uint256.Int, error) {
	if value == "" {
		return nil, errors.Newf("'%s' is required", field)
	}
	v, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, errors.Newf("'%s' must be a non-negative integer in the smallest unit", field)
	}
	return v, nil
}

// parser collects field errors of a request into one validation error.
type parser struct {
	errList []error
}

func (p *parser) address(field, value string) common.Address {
	address, err := parseAddress(field, value)
	if err != nil {
		p.errList = append(p.errList, err)
	}
	return address
}

func (p *parser) amount(field, value string) *uint256.Int {
	v, err := parseAmount(field, value)
	if err != nil {
		p.errList = append(p.errList, err)
	}
	return v
}

func (p *parser) check(ok bool, msg string) {
	if !ok {
		p.errList = append(p.errList, errors.New(msg))
	}
}

func (p *parser) Err() error {
	return errs.WithPublicMessage(errors.Join(p.errList...), "validation error")
}

// caller returns the authenticated sender of a state-changing request.
func caller(ctx context.Context) (common.Address, error) {
	sender, ok := requestcontext.GetCaller(ctx)
	if !ok {
		return common.Address{}, errs.WithPublicMessage(errors.WithStack(errs.Unauthorized), "bearer token required")
	}
	return sender, nil
}

type publicError struct {
	err  error
	code string
}

// publicErrors maps rejections of the ledger, the sale engine and payment assets to stable codes.
// Sentinels come before the generic kinds they may wrap.
var publicErrors = []publicError{
	{accesscontrol.ErrUnknownRole, "UNKNOWN_ROLE"},
	{ledger.ErrSupplyCapExceeded, "SUPPLY_CAP_EXCEEDED"},
	{ledger.ErrInvalidPlan, "INVALID_VESTING_PLAN"},
	{ledger.ErrInsufficientTransferable, "INSUFFICIENT_TRANSFERABLE"},
	{ledger.ErrInsufficientAllowance, "INSUFFICIENT_ALLOWANCE"},
	{ledger.ErrZeroAddress, "ZERO_ADDRESS"},
	{ledger.ErrAmountRequired, "AMOUNT_REQUIRED"},
	{sale.ErrPaused, "SALE_PAUSED"},
	{sale.ErrBatchNotActive, "BATCH_NOT_ACTIVE"},
	{sale.ErrNotStarted, "SALE_NOT_STARTED"},
	{sale.ErrSaleEnded, "SALE_ENDED"},
	{sale.ErrPriceNotSet, "PRICE_NOT_SET"},
	{sale.ErrHardCapExceeded, "HARD_CAP_EXCEEDED"},
	{sale.ErrVestingPlanNotSet, "VESTING_PLAN_NOT_SET"},
	{sale.ErrZeroReceiveAmount, "ZERO_RECEIVE_AMOUNT"},
	{sale.ErrUnknownPaymentAsset, "UNKNOWN_PAYMENT_ASSET"},
	{sale.ErrInvalidBatch, "INVALID_BATCH"},
	{sale.ErrInvalidBatchStatus, "INVALID_BATCH_STATUS"},
	{sale.ErrInvalidPrice, "INVALID_PRICE"},
	{sale.ErrPaymentFailed, "PAYMENT_FAILED"},
	{stabletoken.ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
	{stabletoken.ErrInsufficientAllowance, "INSUFFICIENT_ALLOWANCE"},
	{stabletoken.ErrCapExceeded, "PAYMENT_CAP_EXCEEDED"},
	{stabletoken.ErrZeroAddress, "ZERO_ADDRESS"},
	{stabletoken.ErrAmountRequired, "AMOUNT_REQUIRED"},
	{errs.NotFound, "NOT_FOUND"},
	{errs.InvalidArgument, "INVALID_ARGUMENT"},
	{errs.Unauthorized, "UNAUTHORIZED"},
	{errs.ConflictSetting, "CONFLICT"},
	{errs.OverflowUint256, "OVERFLOW"},
}

// toPublic exposes known rejections to the caller with their code. Anything else stays internal.
func toPublic(err error, prefix string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sale.ErrPartialPurchase) {
		return errors.Wrap(err, prefix)
	}
	for _, pe := range publicErrors {
		if errors.Is(err, pe.err) {
			return errs.WithPublicMessageCode(err, prefix, pe.code)
		}
	}
	return errors.Wrap(err, prefix)
}

func parseBody(ctx *fiber.Ctx, req any) error {
	if err := ctx.BodyParser(req); err != nil {
		return errs.WithPublicMessage(err, "invalid request body")
	}
	return nil
}

func respondTx(ctx *fiber.Ctx, result *usecase.TxResult, err error, prefix string) error {
	if err != nil {
		return toPublic(err, prefix)
	}
	return errors.WithStack(ctx.JSON(mapTxResult(result)))
}

type transactionResponse struct {
	Seq       uint64          `json:"seq"`
	ID        string          `json:"id"`
	Method    entity.Method   `json:"method"`
	Sender    common.Address  `json:"sender"`
	Timestamp time.Time       `json:"timestamp"`
	Params    json.RawMessage `json:"params,omitempty"`
}

type eventResponse struct {
	TxSeq     uint64           `json:"txSeq"`
	LogIndex  uint32           `json:"logIndex"`
	Name      string           `json:"name"`
	Source    common.Address   `json:"source"`
	Accounts  []common.Address `json:"accounts"`
	Data      json.RawMessage  `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}

type txResult struct {
	Transaction transactionResponse `json:"transaction"`
	Events      []eventResponse     `json:"events"`
	Output      any                 `json:"output,omitempty"`
}

type txResponse = HttpResponse[txResult]

func mapTransaction(tx *entity.Transaction) transactionResponse {
	return transactionResponse{
		Seq:       tx.Seq,
		ID:        tx.ID.String(),
		Method:    tx.Method,
		Sender:    tx.Sender,
		Timestamp: tx.Timestamp,
		Params:    tx.Params,
	}
}

func mapEvent(e *entity.EventRecord) eventResponse {
	return eventResponse{
		TxSeq:     e.TxSeq,
		LogIndex:  e.LogIndex,
		Name:      e.Name,
		Source:    e.Source,
		Accounts:  lo.Ternary(e.Accounts == nil, []common.Address{}, e.Accounts),
		Data:      e.Data,
		Timestamp: e.Timestamp,
	}
}

func mapTxResult(result *usecase.TxResult) txResponse {
	return ok(txResult{
		Transaction: mapTransaction(result.Transaction),
		Events:      lo.Map(result.Events, func(e *entity.EventRecord, _ int) eventResponse { return mapEvent(e) }),
		Output:      result.Output,
	})
}
