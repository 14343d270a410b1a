package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/infrastructure/storage"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/dto/request"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/dto/response"
)

// StorageHandler exposes operational visibility into the document store.
// The uploader is nil when object storage is not configured.
type StorageHandler struct {
	uploader *storage.Uploader
	cfg      *config.Config
}

// NewStorageHandler creates a new storage handler
func NewStorageHandler(uploader *storage.Uploader, cfg *config.Config) *StorageHandler {
	return &StorageHandler{uploader: uploader, cfg: cfg}
}

// ListDocuments handles listing all stored invoice documents
func (h *StorageHandler) ListDocuments(c *gin.Context) {
	if h.uploader == nil {
		response.ServiceUnavailable(c, "Object storage is not configured")
		return
	}

	objects, err := h.uploader.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Documents retrieved successfully", gin.H{
		"documents": objects,
		"count":     len(objects),
	})
}

// Stats handles aggregate storage statistics
func (h *StorageHandler) Stats(c *gin.Context) {
	if h.uploader == nil {
		response.ServiceUnavailable(c, "Object storage is not configured")
		return
	}

	stats, err := h.uploader.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Storage statistics retrieved successfully", stats)
}

// Cleanup handles deleting documents older than the retention window
func (h *StorageHandler) Cleanup(c *gin.Context) {
	if h.uploader == nil {
		response.ServiceUnavailable(c, "Object storage is not configured")
		return
	}

	var req request.CleanupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	days := h.cfg.Storage.RetentionDays
	if req.OlderThanDays != nil {
		days = *req.OlderThanDays
	}
	if days <= 0 {
		response.BadRequest(c, "Retention cleanup is disabled; provide older_than_days")
		return
	}

	deleted, err := h.uploader.DeleteOlderThan(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cleanup completed successfully", gin.H{
		"deleted_count":   len(deleted),
		"deleted_keys":    deleted,
		"older_than_days": days,
	})
}
