package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

type getTransactionsRequest struct {
	FromSeq uint64 `query:"fromSeq"`
	Limit   int32  `query:"limit"`
}

func (r getTransactionsRequest) Validate() error {
	var errList []error
	if r.Limit < 0 {
		errList = append(errList, errors.New("'limit' must be non-negative"))
	}
	if r.Limit > maxLimit {
		errList = append(errList, errors.Errorf("'limit' cannot exceed %d", maxLimit))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type transactionsResult struct {
	List []transactionResponse `json:"list"`
}

func (h *HttpHandler) GetTransactions(ctx *fiber.Ctx) error {
	var req getTransactionsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errs.WithPublicMessage(err, "validation error")
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}

	txs, err := h.usecase.GetTransactions(ctx.UserContext(), req.FromSeq, req.Limit)
	if err != nil {
		return errors.Wrap(err, "error during GetTransactions")
	}
	return errors.WithStack(ctx.JSON(ok(transactionsResult{
		List: lo.Map(txs, func(tx *entity.Transaction, _ int) transactionResponse { return mapTransaction(tx) }),
	})))
}

type getTransactionEventsRequest struct {
	Seq uint64 `params:"seq"`
}

type eventsResult struct {
	List []eventResponse `json:"list"`
}

func mapEvents(events []*entity.EventRecord) eventsResult {
	return eventsResult{
		List: lo.Map(events, func(e *entity.EventRecord, _ int) eventResponse { return mapEvent(e) }),
	}
}

func (h *HttpHandler) GetTransactionEvents(ctx *fiber.Ctx) error {
	var req getTransactionEventsRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errs.WithPublicMessage(err, "'seq' must be a non-negative integer")
	}

	events, err := h.usecase.GetEventsByTransaction(ctx.UserContext(), req.Seq)
	if err != nil {
		return errors.Wrap(err, "error during GetEventsByTransaction")
	}
	return errors.WithStack(ctx.JSON(ok(mapEvents(events))))
}

type getEventsRequest struct {
	Address string `params:"address"`
	Limit   int32  `query:"limit"`
	Offset  int32  `query:"offset"`
}

func (h *HttpHandler) GetEvents(ctx *fiber.Ctx) error {
	var req getEventsRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := ctx.QueryParser(&req); err != nil {
		return errs.WithPublicMessage(err, "validation error")
	}
	var p parser
	account := p.address("address", req.Address)
	p.check(req.Limit >= 0 && req.Limit <= maxLimit, "'limit' must be between 0 and 1000")
	p.check(req.Offset >= 0, "'offset' must be non-negative")
	if err := p.Err(); err != nil {
		return errors.WithStack(err)
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}

	events, err := h.usecase.GetEventsByAccount(ctx.UserContext(), account, req.Limit, req.Offset)
	if err != nil {
		return errors.Wrap(err, "error during GetEventsByAccount")
	}
	return errors.WithStack(ctx.JSON(ok(mapEvents(events))))
}
