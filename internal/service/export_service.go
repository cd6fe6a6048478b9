package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"github.com/rs/zerolog"
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamPosts streams every post, drafts included, in the requested format
func (s *exportService) StreamPosts(ctx context.Context, w http.ResponseWriter, format string) error {
	switch format {
	case "", "ndjson":
		format = "ndjson"
	case "json":
	default:
		return newError(ErrValidation, "format: unsupported format %q, use ndjson or json", format)
	}

	s.log.Info().Str("format", format).Msg("Starting posts export")
	if format == "json" {
		return s.streamPostsJSON(ctx, w)
	}
	return s.streamPostsNDJSON(ctx, w)
}

func (s *exportService) streamPostsNDJSON(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=posts.ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repos.Post.StreamAll(ctx, func(post *models.Post) error {
		data, err := json.Marshal(SerializePost(post))
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.log.Info().Int("count", count).Msg("Posts export completed")
	return err
}

func (s *exportService) streamPostsJSON(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=posts.json")

	w.Write([]byte("["))
	first := true
	count := 0

	err := s.repos.Post.StreamAll(ctx, func(post *models.Post) error {
		if !first {
			w.Write([]byte(","))
		}
		first = false

		data, err := json.Marshal(SerializePost(post))
		if err != nil {
			return err
		}
		w.Write(data)
		count++
		return nil
	})

	w.Write([]byte("]"))
	s.log.Info().Int("count", count).Msg("Posts export completed")
	return err
}
