package repository

import (
	"context"
	"database/sql"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
)

// reactionRepo is the concrete implementation of ReactionRepository
type reactionRepo struct {
	db *database.DB
}

// NewReactionRepo creates a new reaction repository
func NewReactionRepo(db *database.DB) ReactionRepository {
	return &reactionRepo{db: db}
}

// Upsert stores the user's reaction on a post. An existing reaction for
// the same (post, user) pair is updated in place.
func (r *reactionRepo) Upsert(ctx context.Context, reaction *models.Reaction) (*models.Reaction, error) {
	query := `
		INSERT INTO reactions (id, post_id, user_id, reaction_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (post_id, user_id) DO UPDATE SET
			reaction_type = EXCLUDED.reaction_type,
			updated_at = EXCLUDED.updated_at
		RETURNING id, post_id, user_id, reaction_type, created_at, updated_at
	`
	var out models.Reaction
	err := r.db.QueryRowContext(ctx, query,
		reaction.ID, reaction.PostID, reaction.UserID, reaction.ReactionType,
	).Scan(&out.ID, &out.PostID, &out.UserID, &out.ReactionType, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &out, nil
}

// Get returns the user's reaction on a post, or nil
func (r *reactionRepo) Get(ctx context.Context, postID, userID string) (*models.Reaction, error) {
	query := `
		SELECT id, post_id, user_id, reaction_type, created_at, updated_at
		FROM reactions WHERE post_id = $1 AND user_id = $2
	`
	var out models.Reaction
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(
		&out.ID, &out.PostID, &out.UserID, &out.ReactionType, &out.CreatedAt, &out.UpdatedAt,
	)
	if err == sql.ErrNoRows || isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// bookmarkRepo is the concrete implementation of BookmarkRepository
type bookmarkRepo struct {
	db *database.DB
}

// NewBookmarkRepo creates a new bookmark repository
func NewBookmarkRepo(db *database.DB) BookmarkRepository {
	return &bookmarkRepo{db: db}
}

// GetOrCreate inserts the bookmark unless the pair already exists and
// returns the stored row along with whether it was created.
func (r *bookmarkRepo) GetOrCreate(ctx context.Context, bookmark *models.Bookmark) (*models.Bookmark, bool, error) {
	var out models.Bookmark
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO bookmarks (id, post_id, user_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (post_id, user_id) DO NOTHING
		RETURNING id, post_id, user_id, created_at
	`, bookmark.ID, bookmark.PostID, bookmark.UserID).Scan(&out.ID, &out.PostID, &out.UserID, &out.CreatedAt)
	if err == nil {
		return &out, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, classify(err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT id, post_id, user_id, created_at FROM bookmarks WHERE post_id = $1 AND user_id = $2
	`, bookmark.PostID, bookmark.UserID).Scan(&out.ID, &out.PostID, &out.UserID, &out.CreatedAt)
	if err != nil {
		return nil, false, err
	}
	return &out, false, nil
}
