package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/respiguard/backend/internal/domain/auth"
)

// optionalAuthMiddleware accepts anonymous requests but rejects ones that
// present an invalid bearer token. Verified claims override the uid carried
// in the request body downstream.
func optionalAuthMiddleware(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid authorization header", nil))
			return
		}
		claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "invalid_token", errMessage(err), err))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}
