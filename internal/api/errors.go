package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const internalErrorDetail = "Internal server error"

// statusFor maps a service error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes {"detail": ...}. Unexpected errors are logged and
// replaced with a fixed message.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	status := statusFor(err)

	detail := internalErrorDetail
	var svcErr *service.Error
	if status != http.StatusInternalServerError && errors.As(err, &svcErr) {
		detail = svcErr.Message
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func badRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": detail})
}

// pagination reads offset and limit query parameters
func pagination(c *gin.Context, defaultLimit int) (offset, limit int, ok bool) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		badRequest(c, "offset must be an integer")
		return 0, 0, false
	}
	limit, err = queryInt(c, "limit", defaultLimit)
	if err != nil {
		badRequest(c, "limit must be an integer")
		return 0, 0, false
	}
	return offset, limit, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
