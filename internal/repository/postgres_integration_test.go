package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// migrationsPath returns the absolute path to the migrations directory.
func migrationsPath(t testing.TB) string {
	t.Helper()
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(currentFile)))
	return filepath.Join(projectRoot, "migrations")
}

// openTestDB connects to the database named by TEST_DB_* variables and
// empties every table. Tests are skipped when TEST_DB_HOST is unset.
func openTestDB(t *testing.T) *repository.Repositories {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres tests")
	}

	cfg := &config.DatabaseConfig{
		Host:         host,
		Port:         envOr("TEST_DB_PORT", "5432"),
		User:         envOr("TEST_DB_USER", "postgres"),
		Password:     envOr("TEST_DB_PASSWORD", "postgres"),
		Name:         envOr("TEST_DB_NAME", "blog_test"),
		SSLMode:      "disable",
		MaxOpenConns: 20,
		MaxIdleConns: 5,
		MaxLifetime:  time.Minute,
	}

	db, err := database.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(migrationsPath(t)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	_, err = db.Exec(`TRUNCATE users, categories, tags, posts, post_tags, comments, reactions, bookmarks, user_profiles CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return repository.New(db)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func createUser(t *testing.T, repos *repository.Repositories, username string) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.New().String(), Username: username, Email: username + "@test.com", PasswordHash: "x"}
	if err := repos.User.Create(context.Background(), u, nil); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createPost(t *testing.T, repos *repository.Repositories, author *models.User, slug string) *models.Post {
	t.Helper()
	p := &models.Post{ID: uuid.New().String(), Title: slug, Content: "body", Slug: slug, AuthorID: author.ID, EstimatedReadTime: 1}
	if err := repos.Post.Create(context.Background(), p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestPostgres_ConcurrentViewIncrements(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()
	post := createPost(t, repos, createUser(t, repos, "alice"), "concurrent")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := repos.Post.IncrementViews(ctx, post.ID); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repos.Post.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ViewCount != n {
		t.Errorf("Expected view_count %d, got %d", n, got.ViewCount)
	}
}

func TestPostgres_ReactionUpsertAndDislikes(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()
	alice := createUser(t, repos, "alice")
	bob := createUser(t, repos, "bob")
	post := createPost(t, repos, alice, "reactions")

	for _, r := range []*models.Reaction{
		{ID: uuid.New().String(), PostID: post.ID, UserID: alice.ID, ReactionType: models.ReactionLike},
		{ID: uuid.New().String(), PostID: post.ID, UserID: alice.ID, ReactionType: models.ReactionDislike},
		{ID: uuid.New().String(), PostID: post.ID, UserID: bob.ID, ReactionType: models.ReactionDislike},
	} {
		if _, err := repos.Reaction.Upsert(ctx, r); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, _ := repos.Post.GetByID(ctx, post.ID)
	if got.Dislikes != 2 {
		t.Errorf("Expected 2 dislikes, got %d", got.Dislikes)
	}
	r, _ := repos.Reaction.Get(ctx, post.ID, alice.ID)
	if r == nil || r.ReactionType != models.ReactionDislike {
		t.Errorf("Expected alice's reaction to be dislike, got %+v", r)
	}
}

func TestPostgres_DeletePostCascades(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()
	alice := createUser(t, repos, "alice")
	post := createPost(t, repos, alice, "cascade")

	comment := &models.Comment{ID: uuid.New().String(), PostID: post.ID, AuthorID: alice.ID, Content: "hi"}
	if err := repos.Comment.Create(ctx, comment); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, _, err := repos.Bookmark.GetOrCreate(ctx, &models.Bookmark{ID: uuid.New().String(), PostID: post.ID, UserID: alice.ID}); err != nil {
		t.Fatalf("bookmark: %v", err)
	}

	deleted, err := repos.Post.Delete(ctx, post.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}

	if c, _ := repos.Comment.GetByID(ctx, comment.ID); c != nil {
		t.Error("Expected comment removed with its post")
	}
	if posts, _ := repos.Post.ListBookmarkedBy(ctx, alice.ID); len(posts) != 0 {
		t.Errorf("Expected no bookmarks, got %d", len(posts))
	}
}

func TestPostgres_MalformedIDIsNotFound(t *testing.T) {
	repos := openTestDB(t)

	post, err := repos.Post.GetByID(context.Background(), "not-a-uuid")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if post != nil {
		t.Error("Expected nil post")
	}
}

func TestPostgres_ValueTooLong(t *testing.T) {
	repos := openTestDB(t)

	err := repos.Tag.Create(context.Background(), &models.Tag{
		ID:   uuid.New().String(),
		Name: strings.Repeat("a", 51),
		Slug: "long",
	})
	if !errors.Is(err, repository.ErrValueTooLong) {
		t.Errorf("Expected ErrValueTooLong, got %v", err)
	}
}
