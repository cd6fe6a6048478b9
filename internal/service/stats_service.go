package service

import (
	"context"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"golang.org/x/sync/errgroup"
)

type statsService struct {
	repos *repository.Repositories
}

func newStatsService(repos *repository.Repositories) *statsService {
	return &statsService{repos: repos}
}

// Stats counts posts, users and comments concurrently
func (s *statsService) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.Posts, err = s.repos.Post.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Users, err = s.repos.User.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Comments, err = s.repos.Comment.Count(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
