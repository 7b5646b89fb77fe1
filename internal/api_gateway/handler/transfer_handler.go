package handler

import (
	"log/slog"

	"github.com/corridor-ledger/internal/api_gateway/middleware"
	"github.com/corridor-ledger/internal/api_gateway/service"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles HTTP requests for the transfer workflow
type TransferHandler struct {
	transfers service.TransferWorkflow
	logger    *slog.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(logger *slog.Logger, transfers service.TransferWorkflow) *TransferHandler {
	return &TransferHandler{
		transfers: transfers,
		logger:    logger,
	}
}

// Create drafts a transfer for the caller's business
func (h *TransferHandler) Create(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	serviceReq, msg := req.toService()
	if msg != "" {
		RespondBadRequest(c, msg)
		return
	}

	t, err := h.transfers.Create(c.Request.Context(), caller, serviceReq)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, mapTransferToResponse(t))
}

// Confirm reserves funds for a DRAFT transfer
func (h *TransferHandler) Confirm(c *gin.Context) {
	h.withTransferID(c, func(caller shared.Caller, id uuid.UUID) {
		t, err := h.transfers.Confirm(c.Request.Context(), caller, id)
		if err != nil {
			RespondError(c, h.logger, err)
			return
		}
		RespondOK(c, mapTransferToResponse(t))
	})
}

// List returns the caller's transfers, newest first
func (h *TransferHandler) List(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	transfers, err := h.transfers.List(c.Request.Context(), caller)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	response := make([]TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		response = append(response, mapTransferToResponse(t))
	}
	RespondOK(c, response)
}

// GetByID returns one transfer with its counterparty summary
func (h *TransferHandler) GetByID(c *gin.Context) {
	h.withTransferID(c, func(caller shared.Caller, id uuid.UUID) {
		t, err := h.transfers.GetByID(c.Request.Context(), caller, id)
		if err != nil {
			RespondError(c, h.logger, err)
			return
		}
		RespondOK(c, mapTransferToResponse(t))
	})
}

func (h *TransferHandler) withTransferID(c *gin.Context, fn func(caller shared.Caller, id uuid.UUID)) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		RespondInternalError(c)
		return
	}

	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid transfer ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transfer ID")
		return
	}
	fn(caller, id)
}
