package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, c.parent_id, c.content, c.created_at, c.updated_at, u.username
	FROM comments c
	LEFT JOIN users u ON u.id = c.author_id
`

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	var parentID, username sql.NullString
	err := row.Scan(
		&c.ID, &c.PostID, &c.AuthorID, &parentID, &c.Content,
		&c.CreatedAt, &c.UpdatedAt, &username,
	)
	if err != nil {
		return nil, err
	}
	c.ParentID = stringPtr(parentID)
	c.AuthorUsername = stringPtr(username)
	return &c, nil
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, author_id, parent_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.PostID, comment.AuthorID, nullString(comment.ParentID),
		comment.Content, now, now,
	)
	if err != nil {
		return classify(err)
	}
	comment.CreatedAt, comment.UpdatedAt = now, now
	return nil
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err == sql.ErrNoRows || isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByPost returns every comment of a post, oldest first
func (r *commentRepo) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, err
}
