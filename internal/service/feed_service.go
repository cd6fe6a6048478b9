package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/blog-api/internal/cache"
	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"github.com/gorilla/feeds"
	"github.com/rs/zerolog"
)

const (
	feedItemCount      = 10
	feedDescriptionLen = 200
)

// feedService renders the RSS feed of recent published posts
type feedService struct {
	posts repository.PostRepository
	cache cache.Cache
	cfg   config.BlogConfig
	log   zerolog.Logger
	now   func() time.Time
}

func newFeedService(posts repository.PostRepository, c cache.Cache, cfg config.BlogConfig, log zerolog.Logger) *feedService {
	return &feedService{
		posts: posts,
		cache: c,
		cfg:   cfg,
		log:   log.With().Str("service", "feed").Logger(),
		now:   time.Now,
	}
}

func (s *feedService) RSS(ctx context.Context) ([]byte, error) {
	if data, ok := s.cache.Get(ctx, cache.KeyRSS); ok {
		return data, nil
	}

	posts, err := s.posts.ListPublished(ctx, feedItemCount)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}

	rss, err := BuildFeed(s.cfg, posts, s.now()).ToRss()
	if err != nil {
		return nil, fmt.Errorf("render rss: %w", err)
	}
	data := []byte(rss)

	if err := s.cache.Set(ctx, cache.KeyRSS, data); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache rss feed")
	}
	return data, nil
}

// BuildFeed assembles the feed document for posts
func BuildFeed(cfg config.BlogConfig, posts []*models.Post, now time.Time) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       cfg.Title,
		Link:        &feeds.Link{Href: cfg.SiteURL},
		Description: cfg.Description,
		Created:     now,
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].UpdatedAt
	}

	for _, p := range posts {
		link := PostURL(cfg.SiteURL, p.Slug)
		item := &feeds.Item{
			Id:          link,
			Title:       p.Title,
			Link:        &feeds.Link{Href: link},
			Description: Truncate(p.Content, feedDescriptionLen),
			Created:     p.CreatedAt,
			Updated:     p.UpdatedAt,
		}
		if p.AuthorUsername != nil {
			item.Author = &feeds.Author{Name: *p.AuthorUsername}
		}
		feed.Items = append(feed.Items, item)
	}
	return feed
}

// Truncate returns at most n characters of s
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
