package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
	"github.com/lib/pq"
)

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db *database.DB
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *database.DB) PostRepository {
	return &postRepo{db: db}
}

// postSelect resolves author, category, tags and the dislike count
// alongside the post row. Tag names and ids are returned in the same order.
const postSelect = `
	SELECT p.id, p.title, p.content, p.slug, p.author_id, p.image, p.view_count, p.likes,
		p.category_id, p.is_draft, p.estimated_read_time, p.created_at, p.updated_at,
		u.username, c.name,
		ARRAY(SELECT t.name FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id ORDER BY t.name),
		ARRAY(SELECT t.id::text FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id ORDER BY t.name),
		(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.reaction_type = 'dislike')
	FROM posts p
	LEFT JOIN users u ON u.id = p.author_id
	LEFT JOIN categories c ON c.id = p.category_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var p models.Post
	var image, categoryID, username, categoryName sql.NullString
	var tags, tagIDs pq.StringArray

	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.Slug, &p.AuthorID, &image, &p.ViewCount, &p.Likes,
		&categoryID, &p.IsDraft, &p.EstimatedReadTime, &p.CreatedAt, &p.UpdatedAt,
		&username, &categoryName, &tags, &tagIDs, &p.Dislikes,
	)
	if err != nil {
		return nil, err
	}

	p.Image = stringPtr(image)
	p.CategoryID = stringPtr(categoryID)
	p.AuthorUsername = stringPtr(username)
	p.CategoryName = stringPtr(categoryName)
	p.Tags = []string(tags)
	p.TagIDs = []string(tagIDs)
	return &p, nil
}

func (r *postRepo) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *postRepo) queryPost(ctx context.Context, query string, args ...any) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows || isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a post and its tag links in one transaction
func (r *postRepo) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO posts (id, title, content, slug, author_id, image, view_count, likes,
				category_id, is_draft, estimated_read_time, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			post.ID, post.Title, post.Content, post.Slug, post.AuthorID, nullString(post.Image),
			post.ViewCount, post.Likes, nullString(post.CategoryID), post.IsDraft,
			post.EstimatedReadTime, now, now,
		)
		if err != nil {
			return classify(err)
		}
		post.CreatedAt, post.UpdatedAt = now, now
		return setTags(ctx, tx, post.ID, post.TagIDs)
	})
}

// Update writes the editable columns. estimated_read_time and the
// counters are never touched here.
func (r *postRepo) Update(ctx context.Context, post *models.Post, replaceTags bool) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		_, err := tx.ExecContext(ctx, `
			UPDATE posts SET title = $1, content = $2, image = $3, category_id = $4,
				is_draft = $5, updated_at = $6
			WHERE id = $7
		`,
			post.Title, post.Content, nullString(post.Image), nullString(post.CategoryID),
			post.IsDraft, now, post.ID,
		)
		if err != nil {
			return classify(err)
		}
		post.UpdatedAt = now

		if !replaceTags {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, post.ID); err != nil {
			return err
		}
		return setTags(ctx, tx, post.ID, post.TagIDs)
	})
}

func setTags(ctx context.Context, q database.Querier, postID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO post_tags (post_id, tag_id)
		SELECT $1, t FROM unnest($2::uuid[]) AS t
		ON CONFLICT DO NOTHING
	`, postID, pq.Array(tagIDs))
	return classify(err)
}

// Delete removes a post; comments, reactions, bookmarks and tag links
// go with it through ON DELETE CASCADE.
func (r *postRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if isInvalidUUID(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetByID retrieves a post by ID
func (r *postRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return r.queryPost(ctx, postSelect+` WHERE p.id = $1`, id)
}

// GetBySlug retrieves a post by its slug
func (r *postRepo) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return r.queryPost(ctx, postSelect+` WHERE p.slug = $1`, slug)
}

// SlugExists checks if a post with the given slug exists
func (r *postRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

// List returns a page of posts, newest first
func (r *postRepo) List(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	return r.queryPosts(ctx, postSelect+` ORDER BY p.created_at DESC, p.id OFFSET $1 LIMIT $2`, offset, limit)
}

// ListPublished returns the newest non-draft posts
func (r *postRepo) ListPublished(ctx context.Context, limit int) ([]*models.Post, error) {
	return r.queryPosts(ctx, postSelect+`
		WHERE p.is_draft = FALSE
		ORDER BY p.created_at DESC LIMIT $1`, limit)
}

// Trending returns published posts created since the given time,
// most viewed first with likes and recency as tie breakers
func (r *postRepo) Trending(ctx context.Context, since time.Time, limit int) ([]*models.Post, error) {
	return r.queryPosts(ctx, postSelect+`
		WHERE p.is_draft = FALSE AND p.created_at >= $1
		ORDER BY p.view_count DESC, p.likes DESC, p.created_at DESC
		LIMIT $2`, since, limit)
}

// Search matches the query case-insensitively against title or content
func (r *postRepo) Search(ctx context.Context, query string, offset, limit int) ([]*models.Post, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.queryPosts(ctx, postSelect+`
		WHERE p.is_draft = FALSE AND (p.title ILIKE $1 OR p.content ILIKE $1)
		ORDER BY p.created_at DESC OFFSET $2 LIMIT $3`, pattern, offset, limit)
}

// Related returns published posts sharing the category or any tag
func (r *postRepo) Related(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error) {
	return r.queryPosts(ctx, postSelect+`
		WHERE p.id <> $1 AND p.is_draft = FALSE AND (
			($2::uuid IS NOT NULL AND p.category_id = $2::uuid)
			OR EXISTS (
				SELECT 1 FROM post_tags pt
				WHERE pt.post_id = p.id AND pt.tag_id = ANY($3::uuid[])
			)
		)
		ORDER BY p.created_at DESC LIMIT $4`,
		post.ID, nullString(post.CategoryID), pq.Array(post.TagIDs), limit)
}

// ListBookmarkedBy returns posts bookmarked by the user, newest first
func (r *postRepo) ListBookmarkedBy(ctx context.Context, userID string) ([]*models.Post, error) {
	return r.queryPosts(ctx, postSelect+`
		JOIN bookmarks b ON b.post_id = p.id
		WHERE b.user_id = $1
		ORDER BY p.created_at DESC`, userID)
}

// IncrementViews adds one view in a single statement and returns the new count
func (r *postRepo) IncrementViews(ctx context.Context, id string) (int, bool, error) {
	return r.increment(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`, id)
}

// IncrementLikes adds one like in a single statement and returns the new count
func (r *postRepo) IncrementLikes(ctx context.Context, id string) (int, bool, error) {
	return r.increment(ctx, `UPDATE posts SET likes = likes + 1 WHERE id = $1 RETURNING likes`, id)
}

func (r *postRepo) increment(ctx context.Context, query, id string) (int, bool, error) {
	var value int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&value)
	if err == sql.ErrNoRows || isInvalidUUID(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// Count returns the total number of posts
func (r *postRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count)
	return count, err
}

// StreamAll streams all posts for export
func (r *postRepo) StreamAll(ctx context.Context, callback func(*models.Post) error) error {
	rows, err := r.db.QueryContext(ctx, postSelect+` ORDER BY p.created_at`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return err
		}
		if err := callback(p); err != nil {
			return err
		}
	}

	return rows.Err()
}
