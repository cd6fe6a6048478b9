package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/blog-api/internal/auth"
	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/mocks"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *mocks.Store
	health *mocks.MockHealthChecker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
		Blog: config.BlogConfig{
			Title:           "Test Blog",
			SiteURL:         "https://blog.example.com",
			SystemUsername:  "default_user",
			SystemEmail:     "default@example.com",
			CommentMaxDepth: 50,
		},
	}

	repos, store := mocks.NewRepositories()
	services := service.NewServices(service.Deps{
		Repos:  repos,
		Cache:  mocks.NewMockCache(),
		Hasher: auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens: auth.NewTokenManager([][]byte{[]byte("0123456789abcdef0123456789abcdef")}, 30*time.Minute),
	}, cfg, zerolog.Nop())

	health := &mocks.MockHealthChecker{}
	return &testServer{
		router: NewRouter(services, cfg, health, zerolog.Nop()),
		store:  store,
		health: health,
	}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}, "grant_type": {"password"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers a user and returns a bearer token for it
func (s *testServer) signup(t *testing.T, username string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/users", "", models.SignupRequest{
		Username: username, Email: username + "@example.com", Password: "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Signup: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w = s.login(username, "password123")
	if w.Code != http.StatusOK {
		t.Fatalf("Login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var tok models.TokenResponse
	json.Unmarshal(w.Body.Bytes(), &tok)
	return tok.AccessToken
}

func (s *testServer) makeStaff(username string) {
	for _, u := range s.store.Users {
		if u.Username == username {
			u.IsStaff = true
		}
	}
}

func (s *testServer) createPost(t *testing.T, token string, req models.PostCreateRequest) models.PostResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/posts", token, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create post: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var post models.PostResponse
	json.Unmarshal(w.Body.Bytes(), &post)
	return post
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body, got %s", w.Body.String())
	}
	d, _ := body["detail"].(string)
	return d
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "healthy" || body["version"] != Version {
		t.Errorf("Unexpected body %v", body)
	}

	s.health.Err = errors.New("connection refused")
	w = s.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
}

func TestStatsAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.createPost(t, "", models.PostCreateRequest{Title: "Counted", Content: "body"})

	w := s.do(http.MethodGet, "/stats", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Database models.Stats `json:"database"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Database.Posts != 1 {
		t.Errorf("Expected 1 post, got %d", body.Database.Posts)
	}

	w = s.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "blog_http_requests_total") {
		t.Error("Expected request counter in metrics output")
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	w := s.do(http.MethodGet, "/users/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var me models.UserResponse
	json.Unmarshal(w.Body.Bytes(), &me)
	if me.Username != "alice" {
		t.Errorf("Expected alice, got %s", me.Username)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("Response must not expose the password hash")
	}

	w = s.do(http.MethodPost, "/users", "", models.SignupRequest{Username: "alice", Email: "x@example.com", Password: "password123"})
	if w.Code != http.StatusBadRequest || detail(t, w) != "Username already registered" {
		t.Errorf("Expected 400 duplicate, got %d %s", w.Code, w.Body.String())
	}

	w = s.login("alice", "wrong-password")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Error("Expected WWW-Authenticate header")
	}

	w = s.login("", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing form fields, got %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"me without token", http.MethodGet, "/users/me", ""},
		{"me with garbage token", http.MethodGet, "/users/me", "garbage"},
		{"comment without token", http.MethodPost, "/posts/x/comments", ""},
		{"category without token", http.MethodPost, "/categories", ""},
		{"export without token", http.MethodGet, "/admin/export/posts", ""},
		{"anonymous post with bad token", http.MethodPost, "/posts", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.token, map[string]string{"title": "t", "content": "c"})
			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", w.Code)
			}
			if w.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("Expected WWW-Authenticate header")
			}
		})
	}
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	post := s.createPost(t, alice, models.PostCreateRequest{Title: "Hello World", Content: "body"})
	if post.Slug != "hello-world" || post.AuthorUsername == nil || *post.AuthorUsername != "alice" {
		t.Fatalf("Unexpected post %+v", post)
	}

	w := s.do(http.MethodGet, "/posts/hello-world", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = s.do(http.MethodPut, "/posts/"+post.ID, bob, map[string]string{"title": "Stolen"})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w.Code)
	}

	w = s.do(http.MethodPut, "/posts/"+post.ID, alice, map[string]string{"title": "Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, "/posts/"+post.ID+"/view", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"view_count":1`) {
		t.Errorf("Expected view_count 1, got %d %s", w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/posts/"+post.ID+"/like", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"likes":1`) {
		t.Errorf("Expected likes 1, got %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodDelete, "/posts/"+post.ID, alice, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}

	w = s.do(http.MethodGet, "/posts/hello-world", "", nil)
	if w.Code != http.StatusNotFound || detail(t, w) != "Post not found" {
		t.Errorf("Expected 404 Post not found, got %d %s", w.Code, w.Body.String())
	}
}

func TestCreatePost_Anonymous(t *testing.T) {
	s := newTestServer(t)

	post := s.createPost(t, "", models.PostCreateRequest{Title: "Guest", Content: "body"})
	if post.AuthorUsername == nil || *post.AuthorUsername != "default_user" {
		t.Errorf("Expected default_user, got %v", post.AuthorUsername)
	}

	w := s.do(http.MethodPost, "/posts", "", map[string]string{"title": "", "content": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || detail(t, rec) != "Invalid request body" {
		t.Errorf("Expected 400 Invalid request body, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestQueryValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"short search", "/posts/search?q=ab", http.StatusBadRequest},
		{"valid search", "/posts/search?q=abc", http.StatusOK},
		{"negative offset", "/posts?offset=-1", http.StatusBadRequest},
		{"non numeric limit", "/posts?limit=ten", http.StatusBadRequest},
		{"zero limit", "/posts?limit=0", http.StatusBadRequest},
		{"large limit is capped", "/posts?limit=1000", http.StatusOK},
		{"bad timeframe", "/posts/trending?timeframe=1y", http.StatusBadRequest},
		{"default timeframe", "/posts/trending", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodGet, tt.path, "", nil)
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestCommentsAndEngagement(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	post := s.createPost(t, alice, models.PostCreateRequest{Title: "Discuss", Content: "body"})

	w := s.do(http.MethodPost, "/posts/"+post.ID+"/comments", alice, map[string]string{"content": "first"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var root models.CommentResponse
	json.Unmarshal(w.Body.Bytes(), &root)

	w = s.do(http.MethodPost, "/posts/"+post.ID+"/comments", alice, map[string]interface{}{"content": "reply", "parent_id": root.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}

	w = s.do(http.MethodGet, "/posts/"+post.ID+"/comments", "", nil)
	var tree []models.CommentResponse
	json.Unmarshal(w.Body.Bytes(), &tree)
	if len(tree) != 1 || len(tree[0].Replies) != 1 {
		t.Errorf("Expected one thread with one reply, got %s", w.Body.String())
	}

	w = s.do(http.MethodGet, "/posts/missing/comments", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	w = s.do(http.MethodPost, "/posts/"+post.ID+"/reactions", alice, map[string]string{"reaction_type": "dislike"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/posts/"+post.ID+"/reactions", alice, map[string]string{"reaction_type": "meh"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}

	w = s.do(http.MethodPost, "/posts/"+post.ID+"/bookmark", alice, nil)
	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201 on first bookmark, got %d", w.Code)
	}
	w = s.do(http.MethodPost, "/posts/"+post.ID+"/bookmark", alice, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 on repeat bookmark, got %d", w.Code)
	}

	w = s.do(http.MethodGet, "/users/me/bookmarks", alice, nil)
	var bookmarks []models.PostResponse
	json.Unmarshal(w.Body.Bytes(), &bookmarks)
	if len(bookmarks) != 1 || bookmarks[0].Dislikes != 1 {
		t.Errorf("Expected one bookmarked post with one dislike, got %s", w.Body.String())
	}
}

func TestTaxonomyEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	editor := s.signup(t, "editor")
	s.makeStaff("editor")

	w := s.do(http.MethodPost, "/categories", alice, map[string]string{"name": "Go Tips"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var cat models.Category
	json.Unmarshal(w.Body.Bytes(), &cat)
	if cat.Slug != "go-tips" {
		t.Errorf("Expected slug go-tips, got %s", cat.Slug)
	}

	w = s.do(http.MethodPost, "/tags", alice, map[string]string{"name": "web"})
	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", w.Code)
	}
	w = s.do(http.MethodGet, "/tags", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"web"`) {
		t.Errorf("Expected tag listing, got %s", w.Body.String())
	}

	w = s.do(http.MethodDelete, "/categories/"+cat.ID, alice, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w.Code)
	}
	w = s.do(http.MethodDelete, "/categories/"+cat.ID, editor, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
}

func TestSharePostAndRelated(t *testing.T) {
	s := newTestServer(t)
	post := s.createPost(t, "", models.PostCreateRequest{Title: "Shared", Content: "body"})

	w := s.do(http.MethodPost, "/posts/"+post.ID+"/share", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var links models.ShareLinks
	json.Unmarshal(w.Body.Bytes(), &links)
	if links.URL != "https://blog.example.com/posts/shared" || len(links.Links) != 5 {
		t.Errorf("Unexpected share links %+v", links)
	}

	w = s.do(http.MethodGet, "/posts/"+post.ID+"/related", "", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("Expected empty list, got %d %s", w.Code, w.Body.String())
	}
}

func TestRSSFeed(t *testing.T) {
	s := newTestServer(t)
	s.createPost(t, "", models.PostCreateRequest{Title: "In the feed", Content: "body"})

	w := s.do(http.MethodGet, "/feed/rss", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("Expected rss content type, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), "In the feed") {
		t.Error("Expected the post in the feed")
	}
}

func TestExportPosts(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")
	editor := s.signup(t, "editor")
	s.makeStaff("editor")
	s.createPost(t, alice, models.PostCreateRequest{Title: "Exported", Content: "body", IsDraft: true})

	w := s.do(http.MethodGet, "/admin/export/posts", alice, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w.Code)
	}

	w = s.do(http.MethodGet, "/admin/export/posts?format=xml", editor, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}

	w = s.do(http.MethodGet, "/admin/export/posts", editor, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/x-ndjson" {
		t.Errorf("Expected ndjson, got %s", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "Exported") {
		t.Error("Expected drafts to be exported")
	}
}

func TestExportHandler_StreamsFromService(t *testing.T) {
	export := &mocks.MockExportService{}
	services := &service.Services{Export: export}
	h := NewExportHandler(services, zerolog.Nop())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/export/posts?format=json", nil)
	c.Set(userKey, &models.User{Username: "root", IsStaff: true})

	h.StreamPosts(c)

	if len(export.Formats) != 1 || export.Formats[0] != "json" {
		t.Errorf("Expected one json export, got %v", export.Formats)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(recoveryMiddleware(zerolog.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError || detail(t, w) != internalErrorDetail {
		t.Errorf("Expected 500 with fixed detail, got %d %s", w.Code, w.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrValidation, http.StatusBadRequest},
		{service.ErrConflict, http.StatusBadRequest},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{errors.New("db down"), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestOversizedFieldsAreRejected(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice")

	tests := []struct {
		name   string
		method string
		path   string
		body   map[string]string
	}{
		{"tag name", http.MethodPost, "/tags", map[string]string{"name": strings.Repeat("a", 60)}},
		{"category slug", http.MethodPost, "/categories", map[string]string{"name": "Go", "slug": strings.Repeat("a", 150)}},
		{"post image", http.MethodPost, "/posts", map[string]string{"title": "t", "content": "c", "image": strings.Repeat("a", 300)}},
		{"profile avatar", http.MethodPut, "/users/me/profile", map[string]string{"avatar": strings.Repeat("a", 300)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, alice, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
