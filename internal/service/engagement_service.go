package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// engagementService is the concrete implementation of EngagementService
type engagementService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newEngagementService(repos *repository.Repositories, log zerolog.Logger) *engagementService {
	return &engagementService{
		repos: repos,
		log:   log.With().Str("service", "engagement").Logger(),
	}
}

// React records the caller's reaction, replacing any earlier one.
// Repeating the current reaction returns it unchanged.
func (s *engagementService) React(ctx context.Context, caller *models.User, postID string, req *models.ReactionRequest) (*models.Reaction, error) {
	if caller == nil {
		return nil, newError(ErrUnauthorized, "Not authenticated")
	}
	if errs := validation.ValidateReactionType(req.ReactionType); len(errs) > 0 {
		return nil, invalid(errs)
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	current, err := s.repos.Reaction.Get(ctx, postID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("get reaction: %w", err)
	}
	if current != nil && current.ReactionType == req.ReactionType {
		return current, nil
	}

	reaction, err := s.repos.Reaction.Upsert(ctx, &models.Reaction{
		ID:           uuid.New().String(),
		PostID:       postID,
		UserID:       caller.ID,
		ReactionType: req.ReactionType,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, notFound("Post")
		}
		return nil, fmt.Errorf("upsert reaction: %w", err)
	}

	s.log.Debug().Str("post_id", postID).Str("user", caller.Username).Str("type", string(req.ReactionType)).Msg("Reaction recorded")
	return reaction, nil
}

// Bookmark saves the post for the caller. created is false when the
// bookmark already existed.
func (s *engagementService) Bookmark(ctx context.Context, caller *models.User, postID string) (*models.Bookmark, bool, error) {
	if caller == nil {
		return nil, false, newError(ErrUnauthorized, "Not authenticated")
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, false, err
	}

	bookmark, created, err := s.repos.Bookmark.GetOrCreate(ctx, &models.Bookmark{
		ID:     uuid.New().String(),
		PostID: postID,
		UserID: caller.ID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, false, notFound("Post")
		}
		return nil, false, fmt.Errorf("bookmark post: %w", err)
	}
	return bookmark, created, nil
}

func (s *engagementService) ListBookmarks(ctx context.Context, caller *models.User) ([]*models.PostResponse, error) {
	if caller == nil {
		return nil, newError(ErrUnauthorized, "Not authenticated")
	}
	posts, err := s.repos.Post.ListBookmarkedBy(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return SerializePosts(posts), nil
}

func (s *engagementService) requirePost(ctx context.Context, postID string) error {
	post, err := s.repos.Post.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return notFound("Post")
	}
	return nil
}
