package handler

import (
	"log/slog"

	"github.com/corridor-ledger/internal/api_gateway/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FxHandler handles HTTP requests for rates and quotes
type FxHandler struct {
	fx     service.FxQuoting
	logger *slog.Logger
}

// NewFxHandler creates a new FX handler
func NewFxHandler(logger *slog.Logger, fx service.FxQuoting) *FxHandler {
	return &FxHandler{
		fx:     fx,
		logger: logger,
	}
}

// LatestRate returns the newest rate for ?base=&quote=
func (h *FxHandler) LatestRate(c *gin.Context) {
	rate, err := h.fx.LatestRate(c.Request.Context(), c.Query("base"), c.Query("quote"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, mapRateToResponse(rate))
}

// CreateQuote prices a conversion at the latest rate
func (h *FxHandler) CreateQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, ok := parseAmount(req.FromAmount, false)
	if !ok {
		RespondBadRequest(c, "Invalid fromAmount.")
		return
	}

	quote, err := h.fx.CreateQuote(c.Request.Context(), service.QuoteRequest{
		FromCurrency: req.FromCurrency,
		ToCurrency:   req.ToCurrency,
		FromAmount:   amount,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, mapQuoteToResponse(quote))
}

// GetQuote returns a live quote by id
func (h *FxHandler) GetQuote(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid quote ID")
		return
	}

	quote, err := h.fx.GetQuote(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, mapQuoteToResponse(quote))
}
