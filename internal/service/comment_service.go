package service

import (
	"context"
	"fmt"

	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos    *repository.Repositories
	maxDepth int
	log      zerolog.Logger
}

func newCommentService(repos *repository.Repositories, cfg config.BlogConfig, log zerolog.Logger) *commentService {
	return &commentService{
		repos:    repos,
		maxDepth: cfg.CommentMaxDepth,
		log:      log.With().Str("service", "comment").Logger(),
	}
}

func (s *commentService) Create(ctx context.Context, caller *models.User, postID string, req *models.CommentCreateRequest) (*models.CommentResponse, error) {
	if caller == nil {
		return nil, newError(ErrUnauthorized, "Not authenticated")
	}
	if errs := validation.ValidateComment(req); len(errs) > 0 {
		return nil, invalid(errs)
	}

	post, err := s.repos.Post.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, notFound("Post")
	}

	if req.ParentID != nil {
		parent, err := s.repos.Comment.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("get parent comment: %w", err)
		}
		if parent == nil || parent.PostID != post.ID {
			return nil, newError(ErrValidation, "Parent comment does not belong to this post")
		}
	}

	comment := &models.Comment{
		ID:       uuid.New().String(),
		PostID:   post.ID,
		AuthorID: caller.ID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		return nil, fromRepository("create comment", err, "Comment already exists")
	}

	s.log.Info().Str("comment_id", comment.ID).Str("post_id", post.ID).Str("author", caller.Username).Msg("Comment created")

	username := caller.Username
	comment.AuthorUsername = &username
	return SerializeComment(comment), nil
}

func (s *commentService) ListTree(ctx context.Context, postID string) ([]*models.CommentResponse, error) {
	post, err := s.repos.Post.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, notFound("Post")
	}

	comments, err := s.repos.Comment.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return BuildCommentTree(comments, s.maxDepth), nil
}
