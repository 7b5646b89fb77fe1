package middleware

import (
	"net/http"

	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// BusinessIDHeader carries the business the authenticated principal acts for
	BusinessIDHeader = "X-Business-ID"

	// PrincipalIDHeader carries the authenticated principal
	PrincipalIDHeader = "X-Principal-ID"

	// CallerKey is the key used to store the caller in the context
	CallerKey = "caller"
)

// Caller reads the identity headers set by the upstream authentication proxy.
// Requests without a valid business and principal are rejected with 401.
func Caller() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessID, errB := uuid.Parse(c.GetHeader(BusinessIDHeader))
		principalID, errP := uuid.Parse(c.GetHeader(PrincipalIDHeader))
		if errB != nil || errP != nil || businessID == uuid.Nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid caller identity")
			return
		}

		c.Set(CallerKey, shared.Caller{BusinessID: businessID, PrincipalID: principalID})
		c.Next()
	}
}

// GetCaller retrieves the caller stored by the Caller middleware
func GetCaller(c *gin.Context) (shared.Caller, bool) {
	if v, exists := c.Get(CallerKey); exists {
		if caller, ok := v.(shared.Caller); ok {
			return caller, true
		}
	}
	return shared.Caller{}, false
}
