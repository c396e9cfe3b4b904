package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Ping reports whether the metadata database answers, with the round-trip
// time as the info field
func (a *API) Ping(c *gin.Context) {
	start := time.Now()

	err := a.DB.WithContext(c.Request.Context()).Exec("SELECT 1").Error
	if err != nil {
		zap.L().Error("Database health check failed", zap.Error(err))

		c.JSON(http.StatusServiceUnavailable, gin.H{
			"service": "db",
			"status":  "error",
			"info":    "Database is currently unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"service": "db",
		"status":  "success",
		"info":    fmt.Sprintf("%.4f s", time.Since(start).Seconds()),
	})
}
