package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/blog-api/internal/cache"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
)

// taxonomyService is the concrete implementation of TaxonomyService
type taxonomyService struct {
	repos *repository.Repositories
	cache cache.Cache
	log   zerolog.Logger
}

func newTaxonomyService(repos *repository.Repositories, c cache.Cache, log zerolog.Logger) *taxonomyService {
	return &taxonomyService{
		repos: repos,
		cache: c,
		log:   log.With().Str("service", "taxonomy").Logger(),
	}
}

// taxonomySlug validates req and returns the slug to store. A derived
// slug can be longer than the name it came from, so it is cut to fit
// the slug column.
func taxonomySlug(req *models.TaxonomyCreateRequest, limits validation.TaxonomyLimits) (string, error) {
	if errs := validation.ValidateTaxonomy(req, limits); len(errs) > 0 {
		return "", invalid(errs)
	}
	if req.Slug != "" {
		return req.Slug, nil
	}
	s := slug.Make(req.Name)
	if len(s) > limits.Slug {
		s = strings.TrimRight(s[:limits.Slug], "-")
	}
	if s == "" {
		return "", newError(ErrValidation, "slug: cannot derive a slug from name, provide one")
	}
	return s, nil
}

func (s *taxonomyService) CreateCategory(ctx context.Context, req *models.TaxonomyCreateRequest) (*models.Category, error) {
	categorySlug, err := taxonomySlug(req, validation.CategoryLimits)
	if err != nil {
		return nil, err
	}

	category := &models.Category{ID: uuid.New().String(), Name: req.Name, Slug: categorySlug}
	if err := s.repos.Category.Create(ctx, category); err != nil {
		return nil, fromRepository("create category", err, "Category with this slug already exists")
	}
	s.log.Info().Str("category_id", category.ID).Str("slug", category.Slug).Msg("Category created")
	return category, nil
}

func (s *taxonomyService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repos.Category.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory removes a category; its posts become uncategorized
func (s *taxonomyService) DeleteCategory(ctx context.Context, caller *models.User, id string) error {
	if caller == nil {
		return newError(ErrUnauthorized, "Not authenticated")
	}
	if !caller.IsStaff {
		return newError(ErrForbidden, "Only staff may delete categories")
	}

	deleted, err := s.repos.Category.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if !deleted {
		return notFound("Category")
	}

	s.log.Info().Str("category_id", id).Str("by", caller.Username).Msg("Category deleted")
	invalidatePostCaches(ctx, s.cache, s.log)
	return nil
}

func (s *taxonomyService) CreateTag(ctx context.Context, req *models.TaxonomyCreateRequest) (*models.Tag, error) {
	tagSlug, err := taxonomySlug(req, validation.TagLimits)
	if err != nil {
		return nil, err
	}

	tag := &models.Tag{ID: uuid.New().String(), Name: req.Name, Slug: tagSlug}
	if err := s.repos.Tag.Create(ctx, tag); err != nil {
		return nil, fromRepository("create tag", err, "Tag with this slug already exists")
	}
	s.log.Info().Str("tag_id", tag.ID).Str("slug", tag.Slug).Msg("Tag created")
	return tag, nil
}

func (s *taxonomyService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	tags, err := s.repos.Tag.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}
