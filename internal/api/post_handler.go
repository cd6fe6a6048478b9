package api

import (
	"net/http"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/service"
	"github.com/blog-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PostHandler handles post endpoints
type PostHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(services *service.Services, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		services: services,
		log:      log.With().Str("handler", "post").Logger(),
	}
}

// List handles GET /posts?offset=&limit=
func (h *PostHandler) List(c *gin.Context) {
	offset, limit, ok := pagination(c, validation.DefaultPageSize)
	if !ok {
		return
	}
	posts, err := h.services.Post.List(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetBySlug handles GET /posts/:slug
func (h *PostHandler) GetBySlug(c *gin.Context) {
	post, err := h.services.Post.GetBySlug(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Trending handles GET /posts/trending?timeframe=24h|7d|30d
func (h *PostHandler) Trending(c *gin.Context) {
	tf := models.Timeframe(c.DefaultQuery("timeframe", string(models.Timeframe7d)))
	posts, err := h.services.Post.Trending(c.Request.Context(), tf)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Search handles GET /posts/search?q=
func (h *PostHandler) Search(c *gin.Context) {
	offset, limit, ok := pagination(c, validation.DefaultPageSize)
	if !ok {
		return
	}
	posts, err := h.services.Post.Search(c.Request.Context(), c.Query("q"), offset, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Create handles POST /posts. Anonymous posts are authored by the
// system account.
func (h *PostHandler) Create(c *gin.Context) {
	var req models.PostCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	post, err := h.services.Post.Create(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Update handles PUT /posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	var req models.PostUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	post, err := h.services.Post.Update(c.Request.Context(), currentUser(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.services.Post.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// View handles POST /posts/:id/view
func (h *PostHandler) View(c *gin.Context) {
	counter, err := h.services.Post.RecordView(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, counter)
}

// Like handles POST /posts/:id/like
func (h *PostHandler) Like(c *gin.Context) {
	counter, err := h.services.Post.Like(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, counter)
}

// Related handles GET /posts/:id/related
func (h *PostHandler) Related(c *gin.Context) {
	posts, err := h.services.Post.Related(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Share handles POST /posts/:id/share
func (h *PostHandler) Share(c *gin.Context) {
	links, err := h.services.Post.ShareLinks(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// React handles POST /posts/:id/reactions
func (h *PostHandler) React(c *gin.Context) {
	var req models.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	reaction, err := h.services.Engagement.React(c.Request.Context(), currentUser(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reaction)
}

// Bookmark handles POST /posts/:id/bookmark. Repeating the call returns
// the existing bookmark with 200.
func (h *PostHandler) Bookmark(c *gin.Context) {
	bookmark, created, err := h.services.Engagement.Bookmark(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, bookmark)
}
