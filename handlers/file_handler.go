package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsroom-cms/helper"
	"newsroom-cms/repositories"
)

// FileHandler streams stored blobs to clients. No access control here: blob
// identifiers already appear in public article payloads and act as bearer
// tokens.
type FileHandler struct {
	blobs  repositories.BlobStore
	logger *zap.Logger
	Helper *helper.HTTPHelper
}

func NewFileHandler(blobs repositories.BlobStore, logger *zap.Logger, httpHelper *helper.HTTPHelper) *FileHandler {
	return &FileHandler{
		blobs:  blobs,
		logger: logger,
		Helper: httpHelper,
	}
}

func (h *FileHandler) GetFile(c *gin.Context) {
	id := c.Param("id")

	rc, blob, err := h.blobs.Open(c.Request.Context(), id)
	if err != nil {
		h.Helper.HandleError(c, err)
		return
	}
	defer rc.Close()

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename=%q`, blob.Name),
	}

	// DataFromReader pipes chunk by chunk; the whole blob is never held in
	// memory.
	c.DataFromReader(http.StatusOK, blob.Size, blob.ContentType, rc, extraHeaders)
}
