package httphandler

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/accesscontrol"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/gaze-network/token-sale/modules/tokensale/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type tokenInfoResult struct {
	Address     common.Address `json:"address"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Decimals    uint8          `json:"decimals"`
	TotalSupply amount         `json:"totalSupply"`
	MaxSupply   amount         `json:"maxSupply"`
}

func (h *HttpHandler) GetTokenInfo(ctx *fiber.Ctx) error {
	info := h.usecase.TokenInfo()
	return errors.WithStack(ctx.JSON(ok(tokenInfoResult{
		Address:     info.Address,
		Name:        info.Name,
		Symbol:      info.Symbol,
		Decimals:    info.Decimals,
		TotalSupply: tokenAmount(info.TotalSupply),
		MaxSupply:   tokenAmount(info.MaxSupply),
	})))
}

type getBalanceRequest struct {
	Address string `params:"address"`
	// At is a unix timestamp in seconds. Zero evaluates vesting now.
	At int64 `query:"at"`
}

type balanceResult struct {
	Account      common.Address `json:"account"`
	Balance      amount         `json:"balance"`
	Locked       amount         `json:"locked"`
	Transferable amount         `json:"transferable"`
	At           int64          `json:"at"`
}

func (h *HttpHandler) GetBalance(ctx *fiber.Ctx) error {
	var req getBalanceRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := ctx.QueryParser(&req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	account := p.address("address", req.Address)
	p.check(req.At >= 0, "'at' must not be negative")
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	var at time.Time
	if req.At > 0 {
		at = time.Unix(req.At, 0).UTC()
	}
	balance := h.usecase.BalanceOf(account, at)
	return errors.WithStack(ctx.JSON(ok(balanceResult{
		Account:      balance.Account,
		Balance:      tokenAmount(balance.Balance),
		Locked:       tokenAmount(balance.Locked),
		Transferable: tokenAmount(balance.Transferable),
		At:           balance.At.Unix(),
	})))
}

type getAllowanceRequest struct {
	Owner   string `params:"owner"`
	Spender string `params:"spender"`
}

type allowanceResult struct {
	Owner     common.Address `json:"owner"`
	Spender   common.Address `json:"spender"`
	Allowance amount         `json:"allowance"`
}

func (h *HttpHandler) GetAllowance(ctx *fiber.Ctx) error {
	var req getAllowanceRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	owner := p.address("owner", req.Owner)
	spender := p.address("spender", req.Spender)
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(ctx.JSON(ok(allowanceResult{
		Owner:     owner,
		Spender:   spender,
		Allowance: tokenAmount(h.usecase.Allowance(owner, spender)),
	})))
}

type getRoleRequest struct {
	Role    string `params:"role"`
	Address string `params:"address"`
}

type roleResult struct {
	Role    accesscontrol.Role `json:"role"`
	Account common.Address     `json:"account"`
	HasRole bool               `json:"hasRole"`
}

func (h *HttpHandler) GetRole(ctx *fiber.Ctx) error {
	var req getRoleRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	account := p.address("address", req.Address)
	role := accesscontrol.Role(req.Role)
	p.check(role.Validate() == nil, "'role' must be one of governance, operator, manager")
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(ctx.JSON(ok(roleResult{
		Role:    role,
		Account: account,
		HasRole: h.usecase.HasRole(account, role),
	})))
}

type vestingResult struct {
	Index       uint64         `json:"index"`
	Beneficiary common.Address `json:"beneficiary"`
	TGE         uint64         `json:"tge"`
	Basis       uint64         `json:"basis"`
	Cliff       uint64         `json:"cliff"`
	Duration    uint64         `json:"duration"`
	EndsAt      uint64         `json:"endsAt"`
	TotalAmount amount         `json:"totalAmount"`
	TGEAmount   amount         `json:"tgeAmount"`
	Unlocked    amount         `json:"unlocked"`
	Locked      amount         `json:"locked"`
}

func mapVesting(v *usecase.VestingInfo) vestingResult {
	return vestingResult{
		Index:       v.Index,
		Beneficiary: v.Grant.Beneficiary,
		TGE:         v.Grant.TGE,
		Basis:       v.Grant.Basis,
		Cliff:       v.Grant.Cliff,
		Duration:    v.Grant.Duration,
		EndsAt:      v.EndsAt,
		TotalAmount: tokenAmount(v.Grant.TotalAmount),
		TGEAmount:   tokenAmount(v.Grant.TGEAmount),
		Unlocked:    tokenAmount(v.Unlocked),
		Locked:      tokenAmount(v.Locked),
	}
}

type getVestingRequest struct {
	Index uint64 `params:"index"`
}

func (h *HttpHandler) GetVesting(ctx *fiber.Ctx) error {
	var req getVestingRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errs.WithPublicMessage(err, "'index' must be a non-negative integer")
	}

	info, err := h.usecase.VestingInfo(req.Index)
	if err != nil {
		return toPublic(err, "error during VestingInfo")
	}
	return errors.WithStack(ctx.JSON(ok(mapVesting(info))))
}

type getVestingsByAccountRequest struct {
	Address string `params:"address"`
}

type vestingsResult struct {
	List []vestingResult `json:"list"`
}

func (h *HttpHandler) GetVestingsByAccount(ctx *fiber.Ctx) error {
	var req getVestingsByAccountRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	account := p.address("address", req.Address)
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	infos, err := h.usecase.VestingsOf(account)
	if err != nil {
		return errors.Wrap(err, "error during VestingsOf")
	}
	return errors.WithStack(ctx.JSON(ok(vestingsResult{
		List: lo.Map(infos, func(v *usecase.VestingInfo, _ int) vestingResult { return mapVesting(v) }),
	})))
}

type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (h *HttpHandler) Transfer(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req transferRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.TransferParams{
		To:     p.address("to", req.To),
		Amount: p.amount("amount", req.Amount),
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.Transfer(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during Transfer")
}

type transferFromRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (h *HttpHandler) TransferFrom(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req transferFromRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.TransferFromParams{
		From:   p.address("from", req.From),
		To:     p.address("to", req.To),
		Amount: p.amount("amount", req.Amount),
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.TransferFrom(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during TransferFrom")
}

type approveRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

func (r approveRequest) params() (usecase.ApproveParams, error) {
	var p parser
	params := usecase.ApproveParams{
		Spender: p.address("spender", r.Spender),
		Amount:  p.amount("amount", r.Amount),
	}
	return params, p.Err()
}

type approveFunc func(ctx *fiber.Ctx, sender common.Address, params usecase.ApproveParams) (*usecase.TxResult, error)

// handleApprove serves approve and both allowance adjustments, which share their parameters.
func (h *HttpHandler) handleApprove(ctx *fiber.Ctx, fn approveFunc, prefix string) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req approveRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	params, err := req.params()
	if err != nil {
		return errors.WithStack(err)
	}

	result, err := fn(ctx, sender, params)
	return respondTx(ctx, result, err, prefix)
}

func (h *HttpHandler) Approve(ctx *fiber.Ctx) error {
	return h.handleApprove(ctx, func(ctx *fiber.Ctx, sender common.Address, params usecase.ApproveParams) (*usecase.TxResult, error) {
		return h.usecase.Approve(ctx.UserContext(), sender, params)
	}, "error during Approve")
}

func (h *HttpHandler) IncreaseAllowance(ctx *fiber.Ctx) error {
	return h.handleApprove(ctx, func(ctx *fiber.Ctx, sender common.Address, params usecase.ApproveParams) (*usecase.TxResult, error) {
		return h.usecase.IncreaseAllowance(ctx.UserContext(), sender, params)
	}, "error during IncreaseAllowance")
}

func (h *HttpHandler) DecreaseAllowance(ctx *fiber.Ctx) error {
	return h.handleApprove(ctx, func(ctx *fiber.Ctx, sender common.Address, params usecase.ApproveParams) (*usecase.TxResult, error) {
		return h.usecase.DecreaseAllowance(ctx.UserContext(), sender, params)
	}, "error during DecreaseAllowance")
}

type mintRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (h *HttpHandler) Mint(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req mintRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	params := usecase.MintParams{
		To:     p.address("to", req.To),
		Amount: p.amount("amount", req.Amount),
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.Mint(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during Mint")
}

type mintWithVestingPlanRequest struct {
	Beneficiary string `json:"beneficiary"`
	TGE         uint64 `json:"tge"`
	TotalAmount string `json:"totalAmount"`
	TGEAmount   string `json:"tgeAmount"`
	Basis       uint64 `json:"basis"`
	Cliff       uint64 `json:"cliff"`
	Duration    uint64 `json:"duration"`
}

func (h *HttpHandler) MintWithVestingPlan(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req mintWithVestingPlanRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	var p parser
	plan := ledger.VestingPlan{
		Beneficiary: p.address("beneficiary", req.Beneficiary),
		TGE:         req.TGE,
		TotalAmount: p.amount("totalAmount", req.TotalAmount),
		TGEAmount:   p.amount("tgeAmount", req.TGEAmount),
		Basis:       req.Basis,
		Cliff:       req.Cliff,
		Duration:    req.Duration,
	}
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.MintWithVestingPlan(ctx.UserContext(), sender, plan)
	return respondTx(ctx, result, err, "error during MintWithVestingPlan")
}

type roleRequest struct {
	Role    string `json:"role"`
	Account string `json:"account"`
}

func (r roleRequest) params() (usecase.RoleParams, error) {
	var p parser
	params := usecase.RoleParams{
		Role:    accesscontrol.Role(r.Role),
		Account: p.address("account", r.Account),
	}
	p.check(params.Role.Validate() == nil, "'role' must be one of governance, operator, manager")
	return params, p.Err()
}

func (h *HttpHandler) GrantRole(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req roleRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	params, err := req.params()
	if err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.GrantRole(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during GrantRole")
}

func (h *HttpHandler) RevokeRole(ctx *fiber.Ctx) error {
	sender, err := caller(ctx.UserContext())
	if err != nil {
		return errors.WithStack(err)
	}
	var req roleRequest
	if err := parseBody(ctx, &req); err != nil {
		return errors.WithStack(err)
	}
	params, err := req.params()
	if err != nil {
		return errors.WithStack(err)
	}

	result, err := h.usecase.RevokeRole(ctx.UserContext(), sender, params)
	return respondTx(ctx, result, err, "error during RevokeRole")
}
