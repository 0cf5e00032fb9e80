package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lcensies/task-trackers-synchronizer/internal/crud"
)

// SnapshotUploader stores exported snapshots; storage.S3Deps implements it.
type SnapshotUploader interface {
	SnapshotKey(t time.Time) string
	Upload(ctx context.Context, key string, body []byte) (string, error)
	URLTTL() time.Duration
}

type ExportHandler struct {
	svc      *crud.Service
	uploader SnapshotUploader
	log      zerolog.Logger
	now      func() time.Time
}

// NewExportHandler returns a handler answering 503 while uploader is nil.
func NewExportHandler(svc *crud.Service, uploader SnapshotUploader, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, uploader: uploader, log: log, now: time.Now}
}

// Export godoc
// @Summary Export all documents to object storage
// @Tags    export
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]string
// @Router  /api/export [post]
func (h *ExportHandler) Export(c *gin.Context) {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "export storage not configured"})
		return
	}
	ctx := c.Request.Context()

	snap, err := h.svc.Snapshot(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "snapshot failed"})
		return
	}
	body, err := json.Marshal(snap)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "encode failed"})
		return
	}

	now := h.now()
	key := h.uploader.SnapshotKey(now)
	url, err := h.uploader.Upload(ctx, key, body)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("upload snapshot")
		c.JSON(http.StatusBadGateway, gin.H{"detail": "upload failed"})
		return
	}
	h.log.Info().Str("key", key).Int("bytes", len(body)).Msg("snapshot exported")

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"key":        key,
		"expires_at": now.Add(h.uploader.URLTTL()),
	})
}
