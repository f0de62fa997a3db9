package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// InitiatorHeader carries the authenticated initiator identity, set by the
// upstream gateway after authentication. The engine itself does not verify
// credentials; it only requires that the identity is present.
const InitiatorHeader = "X-Initiated-By"

// InitiatorMiddleware rejects requests that arrive without an initiator
// identity and stores the identity in the request context for services.
func InitiatorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		initiator := strings.TrimSpace(c.GetHeader(InitiatorHeader))
		if initiator == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + InitiatorHeader + " header"})
			return
		}
		c.Request = c.Request.WithContext(WithInitiator(c.Request.Context(), initiator))
		c.Next()
	}
}
