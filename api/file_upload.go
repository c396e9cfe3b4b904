package api

import (
	"errors"
	"net/http"

	"bitwise74/storage-api/model"
	"bitwise74/storage-api/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileUpload stores the multipart "file" field under the caller's storage
// tree, overwriting any previous content at the same logical path, and
// returns the reconciled metadata record
func (a *API) FileUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet("user").(*model.User)

	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	pathDir := c.Query("path_dir")

	src, err := fh.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open multipart file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer src.Close()

	file, err := a.Engine.Upload(c.Request.Context(), user, fh.Filename, pathDir, src)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyFilename) || errors.Is(err, storage.ErrPathEscapes) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, file)
}
