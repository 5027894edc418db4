package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/sale"
	"github.com/gaze-network/token-sale/modules/tokensale/usecase"
	"github.com/gofiber/fiber/v2"
)

type saleInfoResult struct {
	Address    common.Address   `json:"address"`
	Governance common.Address   `json:"governance"`
	Operators  []common.Address `json:"operators"`
	Recipient  common.Address   `json:"recipient"`
	SaleToken  common.Address   `json:"saleToken"`
	Paused     bool             `json:"paused"`
	Users      int              `json:"users"`
}

func (h *HttpHandler) GetSaleInfo(ctx *fiber.Ctx) error {
	info := h.usecase.SaleInfo()
	if info.Operators == nil {
		info.Operators = []common.Address{}
	}
	return errors.WithStack(ctx.JSON(ok(saleInfoResult(info))))
}

type getOperatorRequest struct {
	Address string `params:"address"`
}

type operatorResult struct {
	Account    common.Address `json:"account"`
	IsOperator bool           `json:"isOperator"`
}

func (h *HttpHandler) GetOperator(ctx *fiber.Ctx) error {
	var req getOperatorRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	account := p.address("address", req.Address)
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(ctx.JSON(ok(operatorResult{
		Account:    account,
		IsOperator: h.usecase.IsOperator(account),
	})))
}

type batchRequest struct {
	ID uint64 `params:"id"`
}

func parseBatchID(ctx *fiber.Ctx) (uint64, error) {
	var req batchRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return 0, errs.WithPublicMessage(err, "'id' must be a non-negative integer")
	}
	return req.ID, nil
}

type vestingPlanResult struct {
	PercentageDecimals uint8  `json:"percentageDecimals"`
	TGE                uint64 `json:"tge"`
	TGEPercentage      uint64 `json:"tgePercentage"`
	Basis              uint64 `json:"basis"`
	Cliff              uint64 `json:"cliff"`
	Duration           uint64 `json:"duration"`
}

type batchResult struct {
	BatchID     uint64             `json:"batchId"`
	HardCap     amount             `json:"hardCap"`
	Start       uint64             `json:"start"`
	End         uint64             `json:"end"`
	Status      sale.BatchStatus   `json:"status"`
	Sold        amount             `json:"sold"`
	VestingPlan *vestingPlanResult `json:"vestingPlan"`
}

func (h *HttpHandler) GetBatch(ctx *fiber.Ctx) error {
	batchID, err := parseBatchID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	info, err := h.usecase.BatchInfo(batchID)
	if err != nil {
		return toPublic(err, "error during BatchInfo")
	}
	result := batchResult{
		BatchID: info.BatchID,
		HardCap: tokenAmount(info.Batch.HardCap),
		Start:   info.Batch.Start,
		End:     info.Batch.End,
		Status:  info.Status,
		Sold:    tokenAmount(info.Sold),
	}
	if info.VestingPlan != nil {
		plan := vestingPlanResult(*info.VestingPlan)
		result.VestingPlan = &plan
	}
	return errors.WithStack(ctx.JSON(ok(result)))
}

type getBatchPriceRequest struct {
	ID    uint64 `params:"id"`
	Asset string `params:"asset"`
}

type batchPriceResult struct {
	BatchID      uint64         `json:"batchId"`
	PaymentAsset common.Address `json:"paymentAsset"`
	// Price is the number of payment asset units for one whole sale token.
	Price amount `json:"price"`
}

func (h *HttpHandler) GetBatchPrice(ctx *fiber.Ctx) error {
	var req getBatchPriceRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errs.WithPublicMessage(err, "validation error")
	}
	var p parser
	asset := p.address("asset", req.Asset)
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}
	decimals, err := h.paymentDecimals(asset)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(ctx.JSON(ok(batchPriceResult{
		BatchID:      req.ID,
		PaymentAsset: asset,
		Price:        newAmount(h.usecase.BatchPrice(req.ID, asset), decimals),
	})))
}

type usersResult struct {
	List []common.Address `json:"list"`
}

func (h *HttpHandler) GetUsers(ctx *fiber.Ctx) error {
	users, err := h.usecase.Users()
	if err != nil {
		return errors.Wrap(err, "error during Users")
	}
	return errors.WithStack(ctx.JSON(ok(usersResult{List: users})))
}

type getUserAmountRequest struct {
	Address string `params:"address"`
	ID      uint64 `params:"id"`
}

type userAmountResult struct {
	Account common.Address `json:"account"`
	BatchID *uint64        `json:"batchId,omitempty"`
	Amount  amount         `json:"amount"`
}

func (h *HttpHandler) GetUserAmount(ctx *fiber.Ctx) error {
	var req getUserAmountRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	account := p.address("address", req.Address)
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(ctx.JSON(ok(userAmountResult{
		Account: account,
		Amount:  tokenAmount(h.usecase.UserAmount(account)),
	})))
}

func (h *HttpHandler) GetUserAmountOfBatch(ctx *fiber.Ctx) error {
	var req getUserAmountRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errs.WithPublicMessage(err, "validation error")
	}
	var p parser
	account := p.address("address", req.Address)
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(ctx.JSON(ok(userAmountResult{
		Account: account,
		BatchID: &req.ID,
		Amount:  tokenAmount(h.usecase.UserAmountOfBatch(req.ID, account)),
	})))
}

type setBatchRequest struct {
	HardCap string `json:"hardCap"`
	Start   uint64 `json:"start"`
	End     uint64 `json:"end"`
}

func (h *HttpHandler) SetBatch(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	batchID, err := parseBatchID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	var req setBatchRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.SetBatchParams{
		BatchID: batchID,
		Batch: sale.Batch{
			HardCap: p.amount("hardCap", req.HardCap),
			Start:   req.Start,
			End:     req.End,
		},
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.SetBatch(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during SetBatch")
}

func (h *HttpHandler) SetBatchVestingPlan(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	batchID, err := parseBatchID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	var req vestingPlanResult
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.SetBatchVestingPlan(ctx.UserContext(), sender, usecase.SetBatchVestingPlanParams{
		BatchID:          batchID,
		BatchVestingPlan: sale.BatchVestingPlan(req),
	})
	return respondTx(ctx, result, err, "error during SetBatchVestingPlan")
}

type setBatchStatusRequest struct {
	Status sale.BatchStatus `json:"status"`
}

func (h *HttpHandler) SetBatchStatus(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	batchID, err := parseBatchID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	var req setBatchStatusRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.SetBatchStatus(ctx.UserContext(), sender, usecase.SetBatchStatusParams{
		BatchID: batchID,
		Status:  req.Status,
	})
	return respondTx(ctx, result, err, "error during SetBatchStatus")
}

type setBatchPriceRequest struct {
	PaymentAsset string `json:"paymentAsset"`
	Price        string `json:"price"`
}

func (h *HttpHandler) SetBatchPrice(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	batchID, err := parseBatchID(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	var req setBatchPriceRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.SetBatchPriceParams{
		BatchID:      batchID,
		PaymentAsset: p.address("paymentAsset", req.PaymentAsset),
		Price:        p.amount("price", req.Price),
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.SetBatchPrice(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during SetBatchPrice")
}

type purchaseRequest struct {
	BatchID       uint64 `json:"batchId"`
	PaymentAsset  string `json:"paymentAsset"`
	PaymentAmount string `json:"paymentAmount"`
}

func (h *HttpHandler) Purchase(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req purchaseRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.PurchaseParams{
		BatchID:       req.BatchID,
		PaymentAsset:  p.address("paymentAsset", req.PaymentAsset),
		PaymentAmount: p.amount("paymentAmount", req.PaymentAmount),
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, _, err := h.usecase.Purchase(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during Purchase")
}

type setGovernanceRequest struct {
	Governance string `json:"governance"`
}

func (h *HttpHandler) SetGovernance(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req setGovernanceRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.SetGovernanceParams{Governance: p.address("governance", req.Governance)}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.SetGovernance(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during SetGovernance")
}

type setOperatorRequest struct {
	Operator string `json:"operator"`
	Enabled  bool   `json:"enabled"`
}

func (h *HttpHandler) SetOperator(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req setOperatorRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.SetOperatorParams{
		Operator: p.address("operator", req.Operator),
		Enabled:  req.Enabled,
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.SetOperator(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during SetOperator")
}

type setRecipientRequest struct {
	Recipient string `json:"recipient"`
}

func (h *HttpHandler) SetRecipient(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req setRecipientRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.SetRecipientParams{Recipient: p.address("recipient", req.Recipient)}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.SetRecipient(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during SetRecipient")
}

type setSaleTokenRequest struct {
	SaleToken string `json:"saleToken"`
}

func (h *HttpHandler) SetSaleToken(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req setSaleTokenRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.SetSaleTokenParams{SaleToken: p.address("saleToken", req.SaleToken)}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.SetSaleToken(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during SetSaleToken")
}

type setPauseRequest struct {
	Paused bool `json:"paused"`
}

func (h *HttpHandler) SetPause(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req setPauseRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.SetPause(ctx.UserContext(), sender, usecase.SetPauseParams(req))
	return respondTx(ctx, result, err, "error during SetPause")
}
