package api

import (
	"errors"
	"fmt"
	"net/http"

	"bitwise74/storage-api/model"
	"bitwise74/storage-api/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileDownload serves a file selected either by filename (+ optional
// path_dir) or by file_id. Small files are sent in one buffered response,
// large ones are streamed in fixed-size chunks.
func (a *API) FileDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet("user").(*model.User)

	filename := c.Query("filename")
	pathDir := c.Query("path_dir")
	fileID := c.Query("file_id")

	delivery, err := a.Delivery.Download(c.Request.Context(), user, filename, pathDir, fileID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNoSelector):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "No filename or file_id provided",
				"requestID": requestID,
			})
		case errors.Is(err, storage.ErrInvalidFileID):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid file_id",
				"requestID": requestID,
			})
		case errors.Is(err, storage.ErrEmptyFilename), errors.Is(err, storage.ErrPathEscapes):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
		case errors.Is(err, storage.ErrFileNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "File not found",
				"requestID": requestID,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to resolve download", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	if delivery.Strategy == storage.Buffered {
		data, err := delivery.ReadAll()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to read file", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", delivery.Filename))
		c.Data(http.StatusOK, "application/octet-stream", data)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", delivery.Filename))
	c.Header("Content-Length", fmt.Sprintf("%d", delivery.Size))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)

	if err := delivery.Stream(c.Writer); err != nil {
		// Headers are long gone, all we can do is log and drop
		zap.L().Error("Streamed delivery aborted", zap.Error(err), zap.String("requestID", requestID))
	}
}
