package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/service"
)

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamPostsFunc func(ctx context.Context, w http.ResponseWriter, format string) error
	Formats         []string
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{Formats: make([]string, 0)}
}

func (m *MockExportService) StreamPosts(ctx context.Context, w http.ResponseWriter, format string) error {
	m.Formats = append(m.Formats, format)
	if m.StreamPostsFunc != nil {
		return m.StreamPostsFunc(ctx, w, format)
	}
	return nil
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	Counts models.Stats
	Err    error
}

var _ service.StatsService = (*MockStatsService)(nil)

func (m *MockStatsService) Stats(ctx context.Context) (*models.Stats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	stats := m.Counts
	return &stats, nil
}

// MockFeedService is a mock implementation of FeedService
type MockFeedService struct {
	Data []byte
	Err  error
}

var _ service.FeedService = (*MockFeedService)(nil)

func (m *MockFeedService) RSS(ctx context.Context) ([]byte, error) {
	return m.Data, m.Err
}

// MockHealthChecker reports a fixed health state
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}

// MockCache is an in-memory cache recording invalidations
type MockCache struct {
	mu      sync.Mutex
	Entries map[string][]byte
	Deleted []string
}

func NewMockCache() *MockCache {
	return &MockCache{Entries: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Entries[key]
	return v, ok
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.Entries, k)
		m.Deleted = append(m.Deleted, k)
	}
	return nil
}
