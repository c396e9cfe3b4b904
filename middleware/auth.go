// Package middleware contains any custom middleware used in the app
package middleware

import (
	"net/http"
	"strings"

	"bitwise74/storage-api/pkg/security"
	"bitwise74/storage-api/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewAuthMiddleware gates every file endpoint behind a bearer token. The
// request only proceeds once the token verifies, the subject resolves to a
// known user and that user is active. A bad token and an unknown subject
// produce the same response on purpose.
func NewAuthMiddleware(tokens *security.TokenService, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "No bearer token provided",
				"requestID": requestID,
			})
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "No bearer token provided",
				"requestID": requestID,
			})
			return
		}

		subject, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "invalid_credentials",
				"requestID": requestID,
			})

			zap.L().Debug("Token rejected", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		user, err := users.FindByUsername(c.Request.Context(), subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to resolve token subject", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "invalid_credentials",
				"requestID": requestID,
			})
			return
		}

		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "inactive_user",
				"requestID": requestID,
			})
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Next()
	}
}
