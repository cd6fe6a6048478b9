package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/blog-api/internal/auth"
	"github.com/blog-api/internal/cache"
	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PostService defines post operations. A nil caller means anonymous.
type PostService interface {
	List(ctx context.Context, offset, limit int) ([]*models.PostResponse, error)
	GetBySlug(ctx context.Context, slug string) (*models.PostResponse, error)
	Trending(ctx context.Context, timeframe models.Timeframe) ([]*models.PostResponse, error)
	Create(ctx context.Context, caller *models.User, req *models.PostCreateRequest) (*models.PostResponse, error)
	Update(ctx context.Context, caller *models.User, id string, req *models.PostUpdateRequest) (*models.PostResponse, error)
	Delete(ctx context.Context, caller *models.User, id string) error
	RecordView(ctx context.Context, id string) (*models.CounterResponse, error)
	Like(ctx context.Context, id string) (*models.CounterResponse, error)
	Search(ctx context.Context, query string, offset, limit int) ([]*models.PostResponse, error)
	Related(ctx context.Context, id string) ([]*models.PostResponse, error)
	ShareLinks(ctx context.Context, id string) (*models.ShareLinks, error)
}

// CommentService defines comment operations
type CommentService interface {
	Create(ctx context.Context, caller *models.User, postID string, req *models.CommentCreateRequest) (*models.CommentResponse, error)
	ListTree(ctx context.Context, postID string) ([]*models.CommentResponse, error)
}

// EngagementService defines reactions and bookmarks
type EngagementService interface {
	React(ctx context.Context, caller *models.User, postID string, req *models.ReactionRequest) (*models.Reaction, error)
	Bookmark(ctx context.Context, caller *models.User, postID string) (*models.Bookmark, bool, error)
	ListBookmarks(ctx context.Context, caller *models.User) ([]*models.PostResponse, error)
}

// UserService defines account and authentication operations
type UserService interface {
	Signup(ctx context.Context, req *models.SignupRequest) (*models.UserResponse, error)
	Login(ctx context.Context, username, password string) (*models.TokenResponse, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Me(ctx context.Context, caller *models.User) (*models.UserResponse, error)
	UpdateProfile(ctx context.Context, caller *models.User, req *models.ProfileUpdateRequest) (*models.UserResponse, error)
	EnsureSystemUser(ctx context.Context) (*models.User, error)
}

// TaxonomyService defines category and tag operations
type TaxonomyService interface {
	CreateCategory(ctx context.Context, req *models.TaxonomyCreateRequest) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	DeleteCategory(ctx context.Context, caller *models.User, id string) error
	CreateTag(ctx context.Context, req *models.TaxonomyCreateRequest) (*models.Tag, error)
	ListTags(ctx context.Context) ([]*models.Tag, error)
}

// FeedService renders the syndication feed
type FeedService interface {
	RSS(ctx context.Context) ([]byte, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamPosts(ctx context.Context, w http.ResponseWriter, format string) error
}

// StatsService reports row counts
type StatsService interface {
	Stats(ctx context.Context) (*models.Stats, error)
}

// Services holds all service interfaces
type Services struct {
	Post       PostService
	Comment    CommentService
	Engagement EngagementService
	User       UserService
	Taxonomy   TaxonomyService
	Feed       FeedService
	Export     ExportService
	Stats      StatsService
}

// Deps are the collaborators shared by the services
type Deps struct {
	Repos  *repository.Repositories
	Cache  cache.Cache
	Hasher *auth.PasswordHasher
	Tokens *auth.TokenManager
}

// NewServices creates all services
func NewServices(deps Deps, cfg *config.Config, log zerolog.Logger) *Services {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	system := &systemAccount{repo: deps.Repos.User, cfg: cfg.Blog}

	return &Services{
		Post:       newPostService(deps.Repos, deps.Cache, system, cfg.Blog, log),
		Comment:    newCommentService(deps.Repos, cfg.Blog, log),
		Engagement: newEngagementService(deps.Repos, log),
		User:       newUserService(deps.Repos.User, deps.Hasher, deps.Tokens, system, log),
		Taxonomy:   newTaxonomyService(deps.Repos, deps.Cache, log),
		Feed:       newFeedService(deps.Repos.Post, deps.Cache, cfg.Blog, log),
		Export:     newExportService(deps.Repos, log),
		Stats:      newStatsService(deps.Repos),
	}
}

// systemAccount resolves the account that authors anonymous posts.
// The lookup is an idempotent upsert, so a failed attempt is retried on
// the next call.
type systemAccount struct {
	repo repository.UserRepository
	cfg  config.BlogConfig

	mu   sync.Mutex
	user *models.User
}

func (s *systemAccount) get(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		return s.user, nil
	}

	user, err := s.repo.EnsureSystemUser(ctx, &models.User{
		ID:       uuid.New().String(),
		Username: s.cfg.SystemUsername,
		Email:    s.cfg.SystemEmail,
		IsStaff:  true,
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("system account %q missing after upsert", s.cfg.SystemUsername)
	}
	s.user = user
	return user, nil
}

// invalidatePostCaches drops every cached response that embeds posts
func invalidatePostCaches(ctx context.Context, c cache.Cache, log zerolog.Logger) {
	deleteKeys(ctx, c, log, append(trendingKeys(), cache.KeyRSS))
}

// invalidateTrending drops the trending lists, whose order depends on
// view and like counts
func invalidateTrending(ctx context.Context, c cache.Cache, log zerolog.Logger) {
	deleteKeys(ctx, c, log, trendingKeys())
}

func trendingKeys() []string {
	keys := make([]string, 0, len(models.TimeframeDurations))
	for tf := range models.TimeframeDurations {
		keys = append(keys, cache.KeyTrendingPrefix+string(tf))
	}
	return keys
}

func deleteKeys(ctx context.Context, c cache.Cache, log zerolog.Logger, keys []string) {
	if err := c.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("Failed to invalidate cached posts")
	}
}
