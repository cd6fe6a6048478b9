package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
)

// Store is the shared in-memory state behind the mock repositories so
// that joins (author names, tags, bookmarks, cascades) behave like the
// real schema.
type Store struct {
	mu         sync.Mutex
	Users      map[string]*models.User
	Profiles   map[string]*models.UserProfile
	Posts      map[string]*models.Post
	Comments   map[string]*models.Comment
	Categories map[string]*models.Category
	Tags       map[string]*models.Tag
	Reactions  map[string]*models.Reaction
	Bookmarks  map[string]*models.Bookmark
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		Users:      make(map[string]*models.User),
		Profiles:   make(map[string]*models.UserProfile),
		Posts:      make(map[string]*models.Post),
		Comments:   make(map[string]*models.Comment),
		Categories: make(map[string]*models.Category),
		Tags:       make(map[string]*models.Tag),
		Reactions:  make(map[string]*models.Reaction),
		Bookmarks:  make(map[string]*models.Bookmark),
	}
}

// NewRepositories returns mock repositories sharing one store
func NewRepositories() (*repository.Repositories, *Store) {
	s := NewStore()
	return &repository.Repositories{
		User:     &MockUserRepository{s: s},
		Post:     &MockPostRepository{s: s},
		Comment:  &MockCommentRepository{s: s},
		Category: &MockCategoryRepository{s: s},
		Tag:      &MockTagRepository{s: s},
		Reaction: &MockReactionRepository{s: s},
		Bookmark: &MockBookmarkRepository{s: s},
	}, s
}

func pairKey(postID, userID string) string { return postID + "|" + userID }

// resolve returns a copy of the post with joined fields filled in.
// Caller holds s.mu.
func (s *Store) resolve(p *models.Post) *models.Post {
	out := *p
	out.AuthorUsername = nil
	if u, ok := s.Users[p.AuthorID]; ok {
		name := u.Username
		out.AuthorUsername = &name
	}
	out.CategoryName = nil
	if p.CategoryID != nil {
		if c, ok := s.Categories[*p.CategoryID]; ok {
			name := c.Name
			out.CategoryName = &name
		}
	}
	out.Tags = make([]string, 0, len(p.TagIDs))
	out.TagIDs = append([]string(nil), p.TagIDs...)
	for _, id := range p.TagIDs {
		if t, ok := s.Tags[id]; ok {
			out.Tags = append(out.Tags, t.Name)
		}
	}
	out.Dislikes = 0
	for _, r := range s.Reactions {
		if r.PostID == p.ID && r.ReactionType == models.ReactionDislike {
			out.Dislikes++
		}
	}
	return &out
}

func (s *Store) sortedPosts(filter func(*models.Post) bool) []*models.Post {
	out := make([]*models.Post, 0)
	for _, p := range s.Posts {
		if filter == nil || filter(p) {
			out = append(out, s.resolve(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func page(posts []*models.Post, offset, limit int) []*models.Post {
	if offset >= len(posts) {
		return []*models.Post{}
	}
	posts = posts[offset:]
	if limit >= 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}

// deletePost mirrors ON DELETE CASCADE for a post
func (s *Store) deletePost(id string) bool {
	if _, ok := s.Posts[id]; !ok {
		return false
	}
	delete(s.Posts, id)
	for k, c := range s.Comments {
		if c.PostID == id {
			delete(s.Comments, k)
		}
	}
	for k, r := range s.Reactions {
		if r.PostID == id {
			delete(s.Reactions, k)
		}
	}
	for k, b := range s.Bookmarks {
		if b.PostID == id {
			delete(s.Bookmarks, k)
		}
	}
	return true
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	s           *Store
	CreateError error
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User, profile *models.UserProfile) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.Users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: users_username_key", repository.ErrDuplicate)
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	m.s.Users[user.ID] = &stored
	if profile == nil {
		profile = &models.UserProfile{ID: "profile-" + user.ID}
	}
	profile.UserID = user.ID
	p := *profile
	m.s.Profiles[user.ID] = &p
	return nil
}

func (m *MockUserRepository) EnsureSystemUser(ctx context.Context, user *models.User) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.Users {
		if u.Username == user.Username {
			out := *u
			return &out, nil
		}
	}
	stored := *user
	stored.CreatedAt = time.Now()
	m.s.Users[user.ID] = &stored
	m.s.Profiles[user.ID] = &models.UserProfile{ID: "profile-" + user.ID, UserID: user.ID}
	out := stored
	return &out, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.Users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.Users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if p, ok := m.s.Profiles[userID]; ok {
		out := *p
		return &out, nil
	}
	return nil, nil
}

func (m *MockUserRepository) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	profile.UpdatedAt = time.Now()
	p := *profile
	m.s.Profiles[profile.UserID] = &p
	return nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.Users), nil
}

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	s           *Store
	CreateError error
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.Posts {
		if p.Slug == post.Slug {
			return fmt.Errorf("%w: posts_slug_key", repository.ErrDuplicate)
		}
	}
	if err := m.checkRefs(post); err != nil {
		return err
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.UpdatedAt = post.CreatedAt
	stored := *post
	stored.TagIDs = append([]string(nil), post.TagIDs...)
	m.s.Posts[post.ID] = &stored
	return nil
}

func (m *MockPostRepository) checkRefs(post *models.Post) error {
	if post.CategoryID != nil {
		if _, ok := m.s.Categories[*post.CategoryID]; !ok {
			return fmt.Errorf("%w: posts_category_id_fkey", repository.ErrInvalidReference)
		}
	}
	for _, id := range post.TagIDs {
		if _, ok := m.s.Tags[id]; !ok {
			return fmt.Errorf("%w: post_tags_tag_id_fkey", repository.ErrInvalidReference)
		}
	}
	return nil
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post, replaceTags bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.Posts[post.ID]
	if !ok {
		return nil
	}
	if err := m.checkRefs(post); err != nil {
		return err
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.Image = post.Image
	stored.CategoryID = post.CategoryID
	stored.IsDraft = post.IsDraft
	stored.UpdatedAt = time.Now()
	if replaceTags {
		stored.TagIDs = append([]string(nil), post.TagIDs...)
	}
	post.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MockPostRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.deletePost(id), nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if p, ok := m.s.Posts[id]; ok {
		return m.s.resolve(p), nil
	}
	return nil, nil
}

func (m *MockPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.Posts {
		if p.Slug == slug {
			return m.s.resolve(p), nil
		}
	}
	return nil, nil
}

func (m *MockPostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	p, _ := m.GetBySlug(ctx, slug)
	return p != nil, nil
}

func (m *MockPostRepository) List(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return page(m.s.sortedPosts(nil), offset, limit), nil
}

func (m *MockPostRepository) ListPublished(ctx context.Context, limit int) ([]*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return page(m.s.sortedPosts(func(p *models.Post) bool { return !p.IsDraft }), 0, limit), nil
}

func (m *MockPostRepository) Trending(ctx context.Context, since time.Time, limit int) ([]*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	posts := m.s.sortedPosts(func(p *models.Post) bool {
		return !p.IsDraft && !p.CreatedAt.Before(since)
	})
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].ViewCount != posts[j].ViewCount {
			return posts[i].ViewCount > posts[j].ViewCount
		}
		if posts[i].Likes != posts[j].Likes {
			return posts[i].Likes > posts[j].Likes
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return page(posts, 0, limit), nil
}

func (m *MockPostRepository) Search(ctx context.Context, query string, offset, limit int) ([]*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	q := strings.ToLower(query)
	return page(m.s.sortedPosts(func(p *models.Post) bool {
		return !p.IsDraft && (strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Content), q))
	}), offset, limit), nil
}

func (m *MockPostRepository) Related(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	tags := make(map[string]bool, len(post.TagIDs))
	for _, id := range post.TagIDs {
		tags[id] = true
	}
	return page(m.s.sortedPosts(func(p *models.Post) bool {
		if p.ID == post.ID || p.IsDraft {
			return false
		}
		if post.CategoryID != nil && p.CategoryID != nil && *p.CategoryID == *post.CategoryID {
			return true
		}
		for _, id := range p.TagIDs {
			if tags[id] {
				return true
			}
		}
		return false
	}), 0, limit), nil
}

func (m *MockPostRepository) ListBookmarkedBy(ctx context.Context, userID string) ([]*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	marked := make(map[string]bool)
	for _, b := range m.s.Bookmarks {
		if b.UserID == userID {
			marked[b.PostID] = true
		}
	}
	return m.s.sortedPosts(func(p *models.Post) bool { return marked[p.ID] }), nil
}

func (m *MockPostRepository) IncrementViews(ctx context.Context, id string) (int, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.Posts[id]
	if !ok {
		return 0, false, nil
	}
	p.ViewCount++
	return p.ViewCount, true, nil
}

func (m *MockPostRepository) IncrementLikes(ctx context.Context, id string) (int, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.Posts[id]
	if !ok {
		return 0, false, nil
	}
	p.Likes++
	return p.Likes, true, nil
}

func (m *MockPostRepository) Count(ctx context.Context) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.Posts), nil
}

func (m *MockPostRepository) StreamAll(ctx context.Context, callback func(*models.Post) error) error {
	m.s.mu.Lock()
	posts := m.s.sortedPosts(nil)
	m.s.mu.Unlock()
	for i := len(posts) - 1; i >= 0; i-- {
		if err := callback(posts[i]); err != nil {
			return err
		}
	}
	return nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	s *Store
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.Posts[comment.PostID]; !ok {
		return fmt.Errorf("%w: comments_post_id_fkey", repository.ErrInvalidReference)
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	comment.UpdatedAt = comment.CreatedAt
	stored := *comment
	m.s.Comments[comment.ID] = &stored
	return nil
}

func (m *MockCommentRepository) withAuthor(c *models.Comment) *models.Comment {
	out := *c
	if u, ok := m.s.Users[c.AuthorID]; ok {
		name := u.Username
		out.AuthorUsername = &name
	}
	return &out
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.s.Comments[id]; ok {
		return m.withAuthor(c), nil
	}
	return nil, nil
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]*models.Comment, 0)
	for _, c := range m.s.Comments {
		if c.PostID == postID {
			out = append(out, m.withAuthor(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.Comments), nil
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	s *Store
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.Categories {
		if c.Slug == category.Slug {
			return fmt.Errorf("%w: categories_slug_key", repository.ErrDuplicate)
		}
	}
	category.CreatedAt = time.Now()
	stored := *category
	m.s.Categories[category.ID] = &stored
	return nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.s.Categories[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, nil
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]*models.Category, 0, len(m.s.Categories))
	for _, c := range m.s.Categories {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete mirrors ON DELETE SET NULL on posts.category_id
func (m *MockCategoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.Categories[id]; !ok {
		return false, nil
	}
	delete(m.s.Categories, id)
	for _, p := range m.s.Posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	return true, nil
}

// MockTagRepository is a mock implementation of TagRepository
type MockTagRepository struct {
	s *Store
}

func (m *MockTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, t := range m.s.Tags {
		if t.Slug == tag.Slug {
			return fmt.Errorf("%w: tags_slug_key", repository.ErrDuplicate)
		}
	}
	tag.CreatedAt = time.Now()
	stored := *tag
	m.s.Tags[tag.ID] = &stored
	return nil
}

func (m *MockTagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]*models.Tag, 0, len(m.s.Tags))
	for _, t := range m.s.Tags {
		tt := *t
		out = append(out, &tt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MockReactionRepository is a mock implementation of ReactionRepository
type MockReactionRepository struct {
	s *Store
}

func (m *MockReactionRepository) Upsert(ctx context.Context, reaction *models.Reaction) (*models.Reaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.Posts[reaction.PostID]; !ok {
		return nil, fmt.Errorf("%w: reactions_post_id_fkey", repository.ErrInvalidReference)
	}
	key := pairKey(reaction.PostID, reaction.UserID)
	now := time.Now()
	if existing, ok := m.s.Reactions[key]; ok {
		existing.ReactionType = reaction.ReactionType
		existing.UpdatedAt = now
		out := *existing
		return &out, nil
	}
	stored := *reaction
	stored.CreatedAt, stored.UpdatedAt = now, now
	m.s.Reactions[key] = &stored
	out := stored
	return &out, nil
}

func (m *MockReactionRepository) Get(ctx context.Context, postID, userID string) (*models.Reaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if r, ok := m.s.Reactions[pairKey(postID, userID)]; ok {
		out := *r
		return &out, nil
	}
	return nil, nil
}

// MockBookmarkRepository is a mock implementation of BookmarkRepository
type MockBookmarkRepository struct {
	s *Store
}

func (m *MockBookmarkRepository) GetOrCreate(ctx context.Context, bookmark *models.Bookmark) (*models.Bookmark, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.Posts[bookmark.PostID]; !ok {
		return nil, false, fmt.Errorf("%w: bookmarks_post_id_fkey", repository.ErrInvalidReference)
	}
	key := pairKey(bookmark.PostID, bookmark.UserID)
	if existing, ok := m.s.Bookmarks[key]; ok {
		out := *existing
		return &out, false, nil
	}
	stored := *bookmark
	stored.CreatedAt = time.Now()
	m.s.Bookmarks[key] = &stored
	out := stored
	return &out, true, nil
}

// Verify interface compliance
var (
	_ repository.UserRepository     = (*MockUserRepository)(nil)
	_ repository.PostRepository     = (*MockPostRepository)(nil)
	_ repository.CommentRepository  = (*MockCommentRepository)(nil)
	_ repository.CategoryRepository = (*MockCategoryRepository)(nil)
	_ repository.TagRepository      = (*MockTagRepository)(nil)
	_ repository.ReactionRepository = (*MockReactionRepository)(nil)
	_ repository.BookmarkRepository = (*MockBookmarkRepository)(nil)
)
