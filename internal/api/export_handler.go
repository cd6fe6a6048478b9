package api

import (
	"net/http"

	"github.com/blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamPosts handles GET /admin/export/posts?format=ndjson|json.
// Streams the export directly to the response; staff only.
func (h *ExportHandler) StreamPosts(c *gin.Context) {
	user := currentUser(c)
	if user == nil || !user.IsStaff {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Staff access required"})
		return
	}

	format := c.DefaultQuery("format", "ndjson")
	if format != "ndjson" && format != "json" {
		badRequest(c, "format must be one of: ndjson, json")
		return
	}

	h.log.Info().Str("format", format).Str("by", user.Username).Msg("Starting streaming export")

	if err := h.services.Export.StreamPosts(c.Request.Context(), c.Writer, format); err != nil {
		// Can't return error JSON after streaming has started
		h.log.Error().Err(err).Msg("Export failed")
	}
}
