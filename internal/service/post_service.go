package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/blog-api/internal/cache"
	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
)

const (
	trendingLimit = 10
	relatedLimit  = 5
	maxSlugTries  = 100
)

// postService is the concrete implementation of PostService
type postService struct {
	repos  *repository.Repositories
	cache  cache.Cache
	system *systemAccount
	cfg    config.BlogConfig
	log    zerolog.Logger
}

// newPostService creates a new PostService
func newPostService(repos *repository.Repositories, c cache.Cache, system *systemAccount, cfg config.BlogConfig, log zerolog.Logger) *postService {
	return &postService{
		repos:  repos,
		cache:  c,
		system: system,
		cfg:    cfg,
		log:    log.With().Str("service", "post").Logger(),
	}
}

func (s *postService) List(ctx context.Context, offset, limit int) ([]*models.PostResponse, error) {
	limit, errs := validation.ValidatePagination(offset, limit)
	if len(errs) > 0 {
		return nil, invalid(errs)
	}
	posts, err := s.repos.Post.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return SerializePosts(posts), nil
}

func (s *postService) GetBySlug(ctx context.Context, slug string) (*models.PostResponse, error) {
	post, err := s.repos.Post.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, notFound("Post")
	}
	return SerializePost(post), nil
}

// Trending serves from the cache when possible; entries expire after
// the cache TTL and are dropped whenever a post is written.
func (s *postService) Trending(ctx context.Context, timeframe models.Timeframe) ([]*models.PostResponse, error) {
	if errs := validation.ValidateTimeframe(timeframe); len(errs) > 0 {
		return nil, invalid(errs)
	}

	key := cache.KeyTrendingPrefix + string(timeframe)
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached []*models.PostResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	since := time.Now().Add(-models.TimeframeDurations[timeframe])
	posts, err := s.repos.Post.Trending(ctx, since, trendingLimit)
	if err != nil {
		return nil, fmt.Errorf("trending posts: %w", err)
	}
	out := SerializePosts(posts)

	if data, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, key, data); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache trending posts")
		}
	}
	return out, nil
}

func (s *postService) Create(ctx context.Context, caller *models.User, req *models.PostCreateRequest) (*models.PostResponse, error) {
	if errs := validation.ValidatePostCreate(req); len(errs) > 0 {
		return nil, invalid(errs)
	}

	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	author := caller
	if author == nil {
		var err error
		if author, err = s.system.get(ctx); err != nil {
			return nil, fmt.Errorf("resolve system account: %w", err)
		}
	}

	postSlug := req.Slug
	if postSlug == "" {
		var err error
		if postSlug, err = s.uniqueSlug(ctx, req.Title); err != nil {
			return nil, err
		}
	} else {
		exists, err := s.repos.Post.SlugExists(ctx, postSlug)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if exists {
			return nil, newError(ErrConflict, "Slug already exists")
		}
	}

	post := &models.Post{
		ID:         uuid.New().String(),
		Title:      req.Title,
		Content:    req.Content,
		Slug:       postSlug,
		AuthorID:   author.ID,
		Image:      emptyToNil(req.Image),
		CategoryID: emptyToNil(req.CategoryID),
		TagIDs:     dedupe(req.TagIDs),
		IsDraft:    req.IsDraft,
	}
	post.EnsureReadTime()

	if err := s.repos.Post.Create(ctx, post); err != nil {
		return nil, fromRepository("create post", err, "Slug already exists")
	}

	s.log.Info().Str("post_id", post.ID).Str("slug", post.Slug).Str("author", author.Username).Msg("Post created")
	invalidatePostCaches(ctx, s.cache, s.log)

	return s.reload(ctx, post.ID)
}

// uniqueSlug derives a slug from the title, appending -2, -3, ... until
// it is free. A concurrent writer can still take the slug first; the
// unique constraint turns that into a conflict.
func (s *postService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}
	if len(base) > validation.MaxSlugLength-4 {
		base = strings.TrimRight(base[:validation.MaxSlugLength-4], "-")
	}

	candidate := base
	for i := 2; i <= maxSlugTries+1; i++ {
		exists, err := s.repos.Post.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", newError(ErrConflict, "Slug already exists")
}

func (s *postService) Update(ctx context.Context, caller *models.User, id string, req *models.PostUpdateRequest) (*models.PostResponse, error) {
	if errs := validation.ValidatePostUpdate(req); len(errs) > 0 {
		return nil, invalid(errs)
	}

	post, err := s.authorize(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Image != nil {
		post.Image = emptyToNil(req.Image)
	}
	if req.CategoryID != nil {
		post.CategoryID = emptyToNil(req.CategoryID)
	}
	if req.IsDraft != nil {
		post.IsDraft = *req.IsDraft
	}
	if req.TagIDs != nil {
		post.TagIDs = dedupe(*req.TagIDs)
	}

	if err := s.repos.Post.Update(ctx, post, req.TagIDs != nil); err != nil {
		return nil, fromRepository("update post", err, "Slug already exists")
	}

	s.log.Info().Str("post_id", post.ID).Str("by", caller.Username).Msg("Post updated")
	invalidatePostCaches(ctx, s.cache, s.log)

	return s.reload(ctx, post.ID)
}

func (s *postService) Delete(ctx context.Context, caller *models.User, id string) error {
	if _, err := s.authorize(ctx, caller, id); err != nil {
		return err
	}

	deleted, err := s.repos.Post.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if !deleted {
		return notFound("Post")
	}

	s.log.Info().Str("post_id", id).Str("by", caller.Username).Msg("Post deleted")
	invalidatePostCaches(ctx, s.cache, s.log)
	return nil
}

// authorize loads the post and checks the caller may modify it
func (s *postService) authorize(ctx context.Context, caller *models.User, id string) (*models.Post, error) {
	if caller == nil {
		return nil, newError(ErrUnauthorized, "Not authenticated")
	}
	post, err := s.repos.Post.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, notFound("Post")
	}
	if post.AuthorID != caller.ID && !caller.IsStaff {
		return nil, newError(ErrForbidden, "Only the author or staff may modify this post")
	}
	return post, nil
}

// requireCategory rejects a category_id that does not resolve. An empty
// id means no category.
func (s *postService) requireCategory(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	category, err := s.repos.Category.GetByID(ctx, *id)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return newError(ErrValidation, "category_id: category not found")
	}
	return nil
}

func (s *postService) reload(ctx context.Context, id string) (*models.PostResponse, error) {
	post, err := s.repos.Post.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload post: %w", err)
	}
	if post == nil {
		return nil, notFound("Post")
	}
	return SerializePost(post), nil
}

func (s *postService) RecordView(ctx context.Context, id string) (*models.CounterResponse, error) {
	views, ok, err := s.repos.Post.IncrementViews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	if !ok {
		return nil, notFound("Post")
	}
	invalidateTrending(ctx, s.cache, s.log)
	return &models.CounterResponse{ID: id, ViewCount: &views}, nil
}

func (s *postService) Like(ctx context.Context, id string) (*models.CounterResponse, error) {
	likes, ok, err := s.repos.Post.IncrementLikes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("increment likes: %w", err)
	}
	if !ok {
		return nil, notFound("Post")
	}
	invalidateTrending(ctx, s.cache, s.log)
	return &models.CounterResponse{ID: id, Likes: &likes}, nil
}

func (s *postService) Search(ctx context.Context, query string, offset, limit int) ([]*models.PostResponse, error) {
	errs := validation.ValidateSearchQuery(query)
	limit, pageErrs := validation.ValidatePagination(offset, limit)
	if errs = append(errs, pageErrs...); len(errs) > 0 {
		return nil, invalid(errs)
	}

	posts, err := s.repos.Post.Search(ctx, strings.TrimSpace(query), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return SerializePosts(posts), nil
}

func (s *postService) Related(ctx context.Context, id string) ([]*models.PostResponse, error) {
	post, err := s.repos.Post.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, notFound("Post")
	}
	if post.CategoryID == nil && len(post.TagIDs) == 0 {
		return []*models.PostResponse{}, nil
	}

	related, err := s.repos.Post.Related(ctx, post, relatedLimit)
	if err != nil {
		return nil, fmt.Errorf("related posts: %w", err)
	}
	return SerializePosts(related), nil
}

func (s *postService) ShareLinks(ctx context.Context, id string) (*models.ShareLinks, error) {
	post, err := s.repos.Post.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, notFound("Post")
	}
	return BuildShareLinks(s.cfg.SiteURL, post), nil
}

// PostURL returns the public URL of a post
func PostURL(siteURL, postSlug string) string {
	return siteURL + "/posts/" + url.PathEscape(postSlug)
}

// BuildShareLinks formats share URLs for the supported platforms
func BuildShareLinks(siteURL string, post *models.Post) *models.ShareLinks {
	link := url.QueryEscape(PostURL(siteURL, post.Slug))
	title := url.QueryEscape(post.Title)

	return &models.ShareLinks{
		PostID: post.ID,
		URL:    PostURL(siteURL, post.Slug),
		Links: map[string]string{
			"twitter":  "https://twitter.com/intent/tweet?url=" + link + "&text=" + title,
			"facebook": "https://www.facebook.com/sharer/sharer.php?u=" + link,
			"linkedin": "https://www.linkedin.com/sharing/share-offsite/?url=" + link,
			"reddit":   "https://www.reddit.com/submit?url=" + link + "&title=" + title,
			"email":    "mailto:?subject=" + title + "&body=" + link,
		},
	}
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
