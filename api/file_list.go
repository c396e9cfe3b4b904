package api

import (
	"net/http"
	"strconv"

	"bitwise74/storage-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) FileList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet("user").(*model.User)

	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Limit is not a valid integer",
			"requestID": requestID,
		})
		return
	}

	if limit <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Limit must be bigger than 0",
			"requestID": requestID,
		})
		return
	}

	if limit > 100 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Limit can't be bigger than 100",
			"requestID": requestID,
		})
		return
	}

	offsetStr := c.DefaultQuery("offset", "0")
	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Offset is not a valid integer",
			"requestID": requestID,
		})
		return
	}

	if offset < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Offset can't be negative",
			"requestID": requestID,
		})
		return
	}

	files, err := a.Files.ListByOwner(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list user files", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": user.ID,
		"files":   files,
	})
}
