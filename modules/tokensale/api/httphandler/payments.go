package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// paymentDecimals returns a public not-found error for assets that are not registered.
func (h *HttpHandler) paymentDecimals(asset common.Address) (uint8, error) {
	info, found := lo.Find(h.usecase.PaymentAssets(), func(info usecase.PaymentAssetInfo) bool {
		return info.Address == asset
	})
	if !found {
		return 0, errs.WithPublicMessage(errors.Wrapf(errs.NotFound, "payment asset %s", asset), "unknown payment asset")
	}
	return info.Decimals, nil
}

type paymentAssetResult struct {
	Address     common.Address `json:"address"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Decimals    uint8          `json:"decimals"`
	Cap         amount         `json:"cap"`
	TotalSupply amount         `json:"totalSupply"`
}

type paymentAssetsResult struct {
	List []paymentAssetResult `json:"list"`
}

func (h *HttpHandler) GetPaymentAssets(ctx *fiber.Ctx) error {
	list := lo.Map(h.usecase.PaymentAssets(), func(info usecase.PaymentAssetInfo, _ int) paymentAssetResult {
		return paymentAssetResult{
			Address:     info.Address,
			Name:        info.Name,
			Symbol:      info.Symbol,
			Decimals:    info.Decimals,
			Cap:         newAmount(info.Cap, info.Decimals),
			TotalSupply: newAmount(info.TotalSupply, info.Decimals),
		}
	})
	return errors.WithStack(ctx.JSON(ok(paymentAssetsResult{List: list})))
}

type getPaymentBalanceRequest struct {
	Asset   string `params:"asset"`
	Address string `params:"address"`
}

type paymentBalanceResult struct {
	Asset   common.Address `json:"asset"`
	Account common.Address `json:"account"`
	Balance amount         `json:"balance"`
}

func (h *HttpHandler) GetPaymentBalance(ctx *fiber.Ctx) error {
	var req getPaymentBalanceRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	asset := p.address("asset", req.Asset)
	account := p.address("address", req.Address)
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}
	decimals, err := h.paymentDecimals(asset)
	if err != nil {
		return errors.WithStack(err)
	}

	balance, err := h.usecase.PaymentBalanceOf(asset, account)
	if err != nil {
		return toPublic(err, "error during PaymentBalanceOf")
	}
	return errors.WithStack(ctx.JSON(ok(paymentBalanceResult{
		Asset:   asset,
		Account: account,
		Balance: newAmount(balance, decimals),
	})))
}

type getPaymentAllowanceRequest struct {
	Asset   string `params:"asset"`
	Owner   string `params:"owner"`
	Spender string `params:"spender"`
}

type paymentAllowanceResult struct {
	Asset     common.Address `json:"asset"`
	Owner     common.Address `json:"owner"`
	Spender   common.Address `json:"spender"`
	Allowance amount         `json:"allowance"`
}

func (h *HttpHandler) GetPaymentAllowance(ctx *fiber.Ctx) error {
	var req getPaymentAllowanceRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	asset := p.address("asset", req.Asset)
	owner := p.address("owner", req.Owner)
	spender := p.address("spender", req.Spender)
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}
	decimals, err := h.paymentDecimals(asset)
	if err != nil {
		return errors.WithStack(err)
	}

	allowance, err := h.usecase.PaymentAllowance(asset, owner, spender)
	if err != nil {
		return toPublic(err, "error during PaymentAllowance")
	}
	return errors.WithStack(ctx.JSON(ok(paymentAllowanceResult{
		Asset:     asset,
		Owner:     owner,
		Spender:   spender,
		Allowance: newAmount(allowance, decimals),
	})))
}

type paymentAssetRequest struct {
	Asset string `params:"asset"`
}

func parsePaymentAsset(ctx *fiber.Ctx) (common.Address, error) {
	var req paymentAssetRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return common.Address{}, errors.WithStack(err)
	}
	var p parser
	asset := p.address("asset", req.Asset)
	return asset, p.Err()
}

type paymentApproveRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

func (h *HttpHandler) PaymentApprove(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	asset, err := parsePaymentAsset(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	var req paymentApproveRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.PaymentApproveParams{
		Asset:   asset,
		Spender: p.address("spender", req.Spender),
		Amount:  p.amount("amount", req.Amount),
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.PaymentApprove(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during PaymentApprove")
}

type paymentTransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (h *HttpHandler) PaymentTransfer(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	asset, err := parsePaymentAsset(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	var req paymentTransferRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.PaymentTransferParams{
		Asset:  asset,
		To:     p.address("to", req.To),
		Amount: p.amount("amount", req.Amount),
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.PaymentTransfer(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during PaymentTransfer")
}

func (h *HttpHandler) PaymentMint(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	asset, err := parsePaymentAsset(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	var req paymentTransferRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.PaymentMintParams{
		Asset:  asset,
		To:     p.address("to", req.To),
		Amount: p.amount("amount", req.Amount),
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.PaymentMint(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during PaymentMint")
}
