package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/v1/tokensale")

	r.Get("/token", h.GetTokenInfo)
	r.Get("/balances/:address", h.GetBalance)
	r.Get("/allowances/:owner/:spender", h.GetAllowance)
	r.Get("/roles/:role/:address", h.GetRole)
	r.Get("/vestings/account/:address", h.GetVestingsByAccount)
	r.Get("/vestings/:index", h.GetVesting)
	r.Post("/token/transfer", h.Transfer)
	r.Post("/token/transfer-from", h.TransferFrom)
	r.Post("/token/approve", h.Approve)
	r.Post("/token/increase-allowance", h.IncreaseAllowance)
	r.Post("/token/decrease-allowance", h.DecreaseAllowance)
	r.Post("/token/mint", h.Mint)
	r.Post("/token/mint-vesting", h.MintWithVestingPlan)
	r.Post("/token/roles/grant", h.GrantRole)
	r.Post("/token/roles/revoke", h.RevokeRole)

	r.Get("/sale", h.GetSaleInfo)
	r.Get("/sale/operators/:address", h.GetOperator)
	r.Get("/sale/batches/:id", h.GetBatch)
	r.Get("/sale/batches/:id/prices/:asset", h.GetBatchPrice)
	r.Get("/sale/users", h.GetUsers)
	r.Get("/sale/users/:address", h.GetUserAmount)
	r.Get("/sale/users/:address/batches/:id", h.GetUserAmountOfBatch)
	r.Post("/sale/batches/:id", h.SetBatch)
	r.Post("/sale/batches/:id/vesting-plan", h.SetBatchVestingPlan)
	r.Post("/sale/batches/:id/status", h.SetBatchStatus)
	r.Post("/sale/batches/:id/prices", h.SetBatchPrice)
	r.Post("/sale/purchase", h.Purchase)
	r.Post("/sale/governance", h.SetGovernance)
	r.Post("/sale/operators", h.SetOperator)
	r.Post("/sale/recipient", h.SetRecipient)
	r.Post("/sale/sale-token", h.SetSaleToken)
	r.Post("/sale/pause", h.SetPause)

	r.Get("/payments", h.GetPaymentAssets)
	r.Get("/payments/:asset/balances/:address", h.GetPaymentBalance)
	r.Get("/payments/:asset/allowances/:owner/:spender", h.GetPaymentAllowance)
	r.Post("/payments/:asset/approve", h.PaymentApprove)
	r.Post("/payments/:asset/transfer", h.PaymentTransfer)
	r.Post("/payments/:asset/mint", h.PaymentMint)

	r.Get("/transactions", h.GetTransactions)
	r.Get("/transactions/:seq/events", h.GetTransactionEvents)
	r.Get("/events/:address", h.GetEvents)
	return nil
}
