package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
	"github.com/google/uuid"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, username, email, password_hash, is_staff, created_at, updated_at`

// Create inserts a user and its profile in one transaction
func (r *userRepo) Create(ctx context.Context, user *models.User, profile *models.UserProfile) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, email, password_hash, is_staff, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, user.ID, user.Username, user.Email, user.PasswordHash, user.IsStaff, now, now)
		if err != nil {
			return classify(err)
		}
		user.CreatedAt, user.UpdatedAt = now, now

		if profile == nil {
			profile = &models.UserProfile{ID: uuid.New().String()}
		}
		profile.UserID = user.ID
		return insertProfile(ctx, tx, profile)
	})
}

// EnsureSystemUser creates the account used as the author of anonymous
// posts if it does not exist yet, then returns the stored row.
func (r *userRepo) EnsureSystemUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, email, password_hash, is_staff)
			VALUES ($1, $2, $3, '', $4)
			ON CONFLICT (username) DO NOTHING
		`, user.ID, user.Username, user.Email, user.IsStaff)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return insertProfile(ctx, tx, &models.UserProfile{ID: uuid.New().String(), UserID: user.ID})
	})
	if err != nil {
		return nil, err
	}
	return r.GetByUsername(ctx, user.Username)
}

func insertProfile(ctx context.Context, q database.Querier, p *models.UserProfile) error {
	now := time.Now()
	_, err := q.ExecContext(ctx, `
		INSERT INTO user_profiles (id, user_id, bio, website, avatar, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.UserID, nullString(p.Bio), nullString(p.Website), nullString(p.Avatar), now)
	if err != nil {
		return classify(err)
	}
	p.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername retrieves a user by username
func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsStaff,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows || isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetProfile retrieves the profile of a user
func (r *userRepo) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `SELECT id, user_id, bio, website, avatar, updated_at FROM user_profiles WHERE user_id = $1`

	var p models.UserProfile
	var bio, website, avatar sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &bio, &website, &avatar, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows || isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Bio, p.Website, p.Avatar = stringPtr(bio), stringPtr(website), stringPtr(avatar)
	return &p, nil
}

// UpsertProfile writes a profile, creating it if the user has none
func (r *userRepo) UpsertProfile(ctx context.Context, p *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (id, user_id, bio, website, avatar, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			bio = EXCLUDED.bio,
			website = EXCLUDED.website,
			avatar = EXCLUDED.avatar,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, nullString(p.Bio), nullString(p.Website), nullString(p.Avatar), now,
	)
	if err != nil {
		return classify(err)
	}
	p.UpdatedAt = now
	return nil
}

// Count returns the total number of users
func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
