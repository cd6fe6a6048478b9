package repository

import (
	"context"
	"time"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User, profile *models.UserProfile) error
	EnsureSystemUser(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, profile *models.UserProfile) error
	Count(ctx context.Context) (int, error)
}

// PostRepository defines the interface for post data operations.
// Read methods return posts with author, category, tags and dislikes resolved.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post, replaceTags bool) error
	Delete(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.Post, error)
	ListPublished(ctx context.Context, limit int) ([]*models.Post, error)
	Trending(ctx context.Context, since time.Time, limit int) ([]*models.Post, error)
	Search(ctx context.Context, query string, offset, limit int) ([]*models.Post, error)
	Related(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error)
	ListBookmarkedBy(ctx context.Context, userID string) ([]*models.Post, error)
	IncrementViews(ctx context.Context, id string) (int, bool, error)
	IncrementLikes(ctx context.Context, id string) (int, bool, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Post) error) error
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	Count(ctx context.Context) (int, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	List(ctx context.Context) ([]*models.Tag, error)
}

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	Upsert(ctx context.Context, reaction *models.Reaction) (*models.Reaction, error)
	Get(ctx context.Context, postID, userID string) (*models.Reaction, error)
}

// BookmarkRepository defines the interface for bookmark data operations
type BookmarkRepository interface {
	GetOrCreate(ctx context.Context, bookmark *models.Bookmark) (*models.Bookmark, bool, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User     UserRepository
	Post     PostRepository
	Comment  CommentRepository
	Category CategoryRepository
	Tag      TagRepository
	Reaction ReactionRepository
	Bookmark BookmarkRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepo(db),
		Post:     NewPostRepo(db),
		Comment:  NewCommentRepo(db),
		Category: NewCategoryRepo(db),
		Tag:      NewTagRepo(db),
		Reaction: NewReactionRepo(db),
		Bookmark: NewBookmarkRepo(db),
	}
}
