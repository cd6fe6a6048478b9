package models

import (
	"strings"
	"time"
)

// WordsPerMinute is the reading speed used for estimated_read_time
const WordsPerMinute = 200

// Post represents a blog post. AuthorUsername, CategoryName, Tags and
// Dislikes are resolved by the read queries, not stored on the row.
type Post struct {
	ID                string    `db:"id"`
	Title             string    `db:"title"`
	Content           string    `db:"content"`
	Slug              string    `db:"slug"`
	AuthorID          string    `db:"author_id"`
	Image             *string   `db:"image"`
	ViewCount         int       `db:"view_count"`
	Likes             int       `db:"likes"`
	CategoryID        *string   `db:"category_id"`
	IsDraft           bool      `db:"is_draft"`
	EstimatedReadTime int       `db:"estimated_read_time"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`

	AuthorUsername *string  `db:"-"`
	CategoryName   *string  `db:"-"`
	TagIDs         []string `db:"-"`
	Tags           []string `db:"-"`
	Dislikes       int      `db:"-"`
}

// EnsureReadTime fills EstimatedReadTime from the content word count
// when it has not been set yet. A value that is already set is kept.
func (p *Post) EnsureReadTime() {
	if p.EstimatedReadTime > 0 {
		return
	}
	p.EstimatedReadTime = EstimateReadTime(p.Content)
}

// EstimateReadTime returns words/200 minutes, at least 1
func EstimateReadTime(content string) int {
	minutes := len(strings.Fields(content)) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// PostCreateRequest is the body of POST /posts
type PostCreateRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Slug       string   `json:"slug,omitempty"`
	Image      *string  `json:"image,omitempty"`
	CategoryID *string  `json:"category_id,omitempty"`
	TagIDs     []string `json:"tag_ids,omitempty"`
	IsDraft    bool     `json:"is_draft"`
}

// PostUpdateRequest is the body of PUT /posts/:id. Nil fields are kept.
type PostUpdateRequest struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Image      *string   `json:"image,omitempty"`
	CategoryID *string   `json:"category_id,omitempty"`
	TagIDs     *[]string `json:"tag_ids,omitempty"`
	IsDraft    *bool     `json:"is_draft,omitempty"`
}

// PostResponse is the serialized form of a post
type PostResponse struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Content           string   `json:"content"`
	Slug              string   `json:"slug"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
	IsDraft           bool     `json:"is_draft"`
	ViewCount         int      `json:"view_count"`
	Likes             int      `json:"likes"`
	Dislikes          int      `json:"dislikes"`
	AuthorUsername    *string  `json:"author_username"`
	CategoryName      *string  `json:"category_name"`
	Tags              []string `json:"tags"`
	EstimatedReadTime int      `json:"estimated_read_time"`
	Image             *string  `json:"image"`
}

// Timeframe is a trending window
type Timeframe string

const (
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
)

// TimeframeDurations maps each valid timeframe to its window
var TimeframeDurations = map[Timeframe]time.Duration{
	Timeframe24h: 24 * time.Hour,
	Timeframe7d:  7 * 24 * time.Hour,
	Timeframe30d: 30 * 24 * time.Hour,
}

// CounterResponse is returned by the view and like endpoints
type CounterResponse struct {
	ID        string `json:"id"`
	ViewCount *int   `json:"view_count,omitempty"`
	Likes     *int   `json:"likes,omitempty"`
}

// ShareLinks maps a platform name to a pre-formatted share URL
type ShareLinks struct {
	PostID string            `json:"post_id"`
	URL    string            `json:"url"`
	Links  map[string]string `json:"links"`
}
