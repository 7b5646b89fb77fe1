package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/corridor-ledger/internal/api_gateway/middleware"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo represents pagination metadata in a response
type MetaInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewResponse creates a new response with data
func NewResponse(data interface{}) *Response {
	return &Response{
		Data: data,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	response := NewErrorResponse(code, message)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithPage sends a JSON response carrying one page of results
func RespondWithPage(c *gin.Context, data interface{}, meta MetaInfo) {
	response := NewResponse(data)
	response.Meta = &meta
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(http.StatusOK, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// RespondError maps a core error onto its HTTP status. Only tagged errors expose their message.
func RespondError(c *gin.Context, logger *slog.Logger, err error) {
	var coreErr *shared.Error
	if !errors.As(err, &coreErr) {
		logger.Error("Unclassified error", "path", c.FullPath(), "error", err)
		RespondInternalError(c)
		return
	}

	switch coreErr.Kind {
	case shared.KindValidation:
		RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", coreErr.Message)
	case shared.KindNotFound:
		RespondWithError(c, http.StatusNotFound, "NOT_FOUND", coreErr.Message)
	case shared.KindForbidden:
		RespondWithError(c, http.StatusForbidden, "FORBIDDEN", coreErr.Message)
	case shared.KindConflict:
		RespondWithError(c, http.StatusConflict, "CONFLICT", coreErr.Message)
	case shared.KindStorageFailure:
		logger.Error("Storage failure", "path", c.FullPath(), "error", err)
		RespondWithError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", coreErr.Message)
	default:
		logger.Error("Unknown error kind", "kind", coreErr.Kind, "error", err)
		RespondInternalError(c)
	}
}
