package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserAuth trades form-encoded credentials for a bearer token. Unknown
// username and wrong password produce the same response so the endpoint
// can't be used to probe for accounts.
func (a *API) UserAuth(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	username := c.PostForm("username")
	password := c.PostForm("password")

	if username == "" || password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Username and password fields can't be empty",
			"requestID": requestID,
		})
		return
	}

	user, err := a.Users.FindByUsername(c.Request.Context(), username)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to lookup user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if user == nil || !a.Argon.VerifyPasswd(password, user.PasswordHash) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Incorrect username or password",
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

	token, err := a.Tokens.Issue(user.Username)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to issue token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}
