package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 envelope. A panic inside a posting aborts the request
// before its storage transaction commits, so the ledger is never left half written.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			attrs := []any{
				"error", r,
				"stack", string(debug.Stack()),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			}
			if correlationID := GetCorrelationID(c); correlationID != "" {
				attrs = append(attrs, "correlation_id", correlationID)
			}
			if caller, ok := GetCaller(c); ok {
				attrs = append(attrs, "business_id", caller.BusinessID.String())
			}
			logger.Error("Panic recovered", attrs...)

			abortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
		}()

		c.Next()
	}
}
