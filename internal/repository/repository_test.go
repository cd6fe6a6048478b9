package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blog-api/internal/mocks"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
)

func seedAuthor(t *testing.T, repos *repository.Repositories, id, username string) {
	t.Helper()
	err := repos.User.Create(context.Background(), &models.User{ID: id, Username: username, Email: username + "@test.com"}, nil)
	if err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
}

func TestMockUserRepository_DuplicateUsername(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()

	seedAuthor(t, repos, "user-1", "alice")

	err := repos.User.Create(ctx, &models.User{ID: "user-2", Username: "alice"}, nil)
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	profile, err := repos.User.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile == nil {
		t.Error("Expected an empty profile to be created alongside the user")
	}
}

func TestMockUserRepository_EnsureSystemUserIsIdempotent(t *testing.T) {
	repos, store := mocks.NewRepositories()
	ctx := context.Background()

	first, err := repos.User.EnsureSystemUser(ctx, &models.User{ID: "sys-1", Username: "default_user", IsStaff: true})
	if err != nil {
		t.Fatalf("EnsureSystemUser failed: %v", err)
	}
	second, err := repos.User.EnsureSystemUser(ctx, &models.User{ID: "sys-2", Username: "default_user", IsStaff: true})
	if err != nil {
		t.Fatalf("EnsureSystemUser failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected the same account, got %s and %s", first.ID, second.ID)
	}
	if len(store.Users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(store.Users))
	}
}

func TestMockPostRepository_ResolvesJoins(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()
	seedAuthor(t, repos, "user-1", "alice")

	cat := &models.Category{ID: "cat-1", Name: "Go", Slug: "go"}
	if err := repos.Category.Create(ctx, cat); err != nil {
		t.Fatalf("Create category failed: %v", err)
	}
	tag := &models.Tag{ID: "tag-1", Name: "web", Slug: "web"}
	if err := repos.Tag.Create(ctx, tag); err != nil {
		t.Fatalf("Create tag failed: %v", err)
	}

	post := &models.Post{ID: "post-1", Title: "Hello", Slug: "hello", AuthorID: "user-1", CategoryID: &cat.ID, TagIDs: []string{"tag-1"}}
	if err := repos.Post.Create(ctx, post); err != nil {
		t.Fatalf("Create post failed: %v", err)
	}

	got, err := repos.Post.GetBySlug(ctx, "hello")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got.AuthorUsername == nil || *got.AuthorUsername != "alice" {
		t.Errorf("Expected author alice, got %v", got.AuthorUsername)
	}
	if got.CategoryName == nil || *got.CategoryName != "Go" {
		t.Errorf("Expected category Go, got %v", got.CategoryName)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "web" {
		t.Errorf("Expected tags [web], got %v", got.Tags)
	}
}

func TestMockPostRepository_InvalidReference(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	seedAuthor(t, repos, "user-1", "alice")

	missing := "no-such-category"
	err := repos.Post.Create(context.Background(), &models.Post{ID: "p", Slug: "p", AuthorID: "user-1", CategoryID: &missing})
	if !errors.Is(err, repository.ErrInvalidReference) {
		t.Errorf("Expected ErrInvalidReference, got %v", err)
	}
}

func TestMockPostRepository_DeleteCascades(t *testing.T) {
	repos, store := mocks.NewRepositories()
	ctx := context.Background()
	seedAuthor(t, repos, "user-1", "alice")

	if err := repos.Post.Create(ctx, &models.Post{ID: "post-1", Slug: "a", AuthorID: "user-1"}); err != nil {
		t.Fatalf("Create post failed: %v", err)
	}
	if err := repos.Comment.Create(ctx, &models.Comment{ID: "c-1", PostID: "post-1", AuthorID: "user-1", Content: "hi"}); err != nil {
		t.Fatalf("Create comment failed: %v", err)
	}
	if _, err := repos.Reaction.Upsert(ctx, &models.Reaction{ID: "r-1", PostID: "post-1", UserID: "user-1", ReactionType: models.ReactionLike}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if _, _, err := repos.Bookmark.GetOrCreate(ctx, &models.Bookmark{ID: "b-1", PostID: "post-1", UserID: "user-1"}); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	deleted, err := repos.Post.Delete(ctx, "post-1")
	if err != nil || !deleted {
		t.Fatalf("Delete failed: deleted=%v err=%v", deleted, err)
	}

	if len(store.Comments) != 0 || len(store.Reactions) != 0 || len(store.Bookmarks) != 0 {
		t.Errorf("Expected dependents removed, got %d comments %d reactions %d bookmarks",
			len(store.Comments), len(store.Reactions), len(store.Bookmarks))
	}

	deleted, _ = repos.Post.Delete(ctx, "post-1")
	if deleted {
		t.Error("Expected second delete to report nothing removed")
	}
}

func TestMockCategoryRepository_DeleteClearsPostCategory(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()
	seedAuthor(t, repos, "user-1", "alice")

	cat := &models.Category{ID: "cat-1", Name: "Go", Slug: "go"}
	_ = repos.Category.Create(ctx, cat)
	_ = repos.Post.Create(ctx, &models.Post{ID: "post-1", Slug: "a", AuthorID: "user-1", CategoryID: &cat.ID})

	if _, err := repos.Category.Delete(ctx, "cat-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	post, _ := repos.Post.GetByID(ctx, "post-1")
	if post == nil {
		t.Fatal("Expected post to survive category deletion")
	}
	if post.CategoryID != nil {
		t.Errorf("Expected category cleared, got %v", *post.CategoryID)
	}
}

func TestMockReactionRepository_UpsertKeepsOneRow(t *testing.T) {
	repos, store := mocks.NewRepositories()
	ctx := context.Background()
	seedAuthor(t, repos, "user-1", "alice")
	_ = repos.Post.Create(ctx, &models.Post{ID: "post-1", Slug: "a", AuthorID: "user-1"})

	for _, rt := range []models.ReactionType{models.ReactionLike, models.ReactionDislike, models.ReactionDislike} {
		if _, err := repos.Reaction.Upsert(ctx, &models.Reaction{ID: "r", PostID: "post-1", UserID: "user-1", ReactionType: rt}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	if len(store.Reactions) != 1 {
		t.Errorf("Expected 1 reaction row, got %d", len(store.Reactions))
	}
	post, _ := repos.Post.GetByID(ctx, "post-1")
	if post.Dislikes != 1 {
		t.Errorf("Expected 1 dislike, got %d", post.Dislikes)
	}
}

func TestMockPostRepository_TrendingOrder(t *testing.T) {
	repos, store := mocks.NewRepositories()
	ctx := context.Background()
	seedAuthor(t, repos, "user-1", "alice")

	now := time.Now()
	posts := []*models.Post{
		{ID: "low", Slug: "low", AuthorID: "user-1", CreatedAt: now.Add(-time.Hour)},
		{ID: "high", Slug: "high", AuthorID: "user-1", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "old", Slug: "old", AuthorID: "user-1", CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "draft", Slug: "draft", AuthorID: "user-1", CreatedAt: now, IsDraft: true},
	}
	for _, p := range posts {
		_ = repos.Post.Create(ctx, p)
	}
	store.Posts["high"].ViewCount = 10
	store.Posts["low"].ViewCount = 1
	store.Posts["old"].ViewCount = 100
	store.Posts["draft"].ViewCount = 1000

	got, err := repos.Post.Trending(ctx, now.Add(-24*time.Hour), 5)
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "high" || got[1].ID != "low" {
		ids := make([]string, len(got))
		for i, p := range got {
			ids[i] = p.ID
		}
		t.Errorf("Expected [high low], got %v", ids)
	}
}
