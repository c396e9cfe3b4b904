package middleware

import (
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const requestIDCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewRequestIDMiddleware returns a new middleware function that generates a
// request ID for each incoming request and sets it as requestID
func NewRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := gonanoid.Generate(requestIDCharset, 10)
		if err != nil {
			id = "unknown"
		}

		c.Set("requestID", id)
		c.Next()
	}
}
