package handler

import (
	"log/slog"

	"github.com/corridor-ledger/internal/api_gateway/middleware"
	"github.com/corridor-ledger/internal/api_gateway/service"
	"github.com/gin-gonic/gin"
)

// WalletHandler handles HTTP requests for wallet reads and top-ups
type WalletHandler struct {
	wallets service.WalletQuery
	ledger  service.LedgerEngine
	logger  *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, wallets service.WalletQuery, ledger service.LedgerEngine) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		ledger:  ledger,
		logger:  logger,
	}
}

// List returns every wallet of the caller's business with its balance
func (h *WalletHandler) List(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	wallets, err := h.wallets.ListWallets(c.Request.Context(), caller)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	response := make([]WalletResponse, 0, len(wallets))
	for _, w := range wallets {
		response = append(response, mapWalletToResponse(w))
	}
	RespondOK(c, response)
}

// Balance returns the caller's wallet in the path currency
func (h *WalletHandler) Balance(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	wallet, err := h.wallets.Balance(c.Request.Context(), caller, c.Param("currency"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, mapWalletToResponse(wallet))
}

// Statement returns one page of the wallet's postings, newest first
func (h *WalletHandler) Statement(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	var params StatementParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Warn("Invalid statement query", "error", err)
		RespondBadRequest(c, "page and limit must be integers")
		return
	}

	page, err := h.wallets.Statement(c.Request.Context(), caller, c.Param("currency"), params.Page, params.Limit)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	lines := make([]StatementLineResponse, 0, len(page.Lines))
	for _, l := range page.Lines {
		lines = append(lines, mapStatementLine(l))
	}
	RespondWithPage(c, lines, MetaInfo{
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	})
}

// TopUp credits the caller's wallet from the currency's Treasury
func (h *WalletHandler) TopUp(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, ok := parseAmount(req.Amount, false)
	if !ok {
		RespondBadRequest(c, "Invalid amount.")
		return
	}

	res, err := h.ledger.TopUp(c.Request.Context(), service.TopUpRequest{
		BusinessID: caller.BusinessID,
		Currency:   req.Currency,
		Amount:     amount,
		Actor:      caller.PrincipalID,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, mapTopUpToResponse(res))
}
