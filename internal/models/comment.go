package models

import (
	"time"
)

// Comment represents a comment on a post. ParentID links replies.
type Comment struct {
	ID             string    `json:"id" db:"id"`
	PostID         string    `json:"post_id" db:"post_id"`
	AuthorID       string    `json:"author_id" db:"author_id"`
	ParentID       *string   `json:"parent_id" db:"parent_id"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	AuthorUsername *string   `json:"-" db:"-"`
}

// CommentCreateRequest is the body of POST /posts/:id/comments
type CommentCreateRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"`
}

// CommentResponse is a comment with its replies embedded
type CommentResponse struct {
	ID             string             `json:"id"`
	PostID         string             `json:"post_id"`
	ParentID       *string            `json:"parent_id"`
	AuthorUsername *string            `json:"author_username"`
	Content        string             `json:"content"`
	CreatedAt      string             `json:"created_at"`
	Replies        []*CommentResponse `json:"replies"`
}

// MaxCommentWords is the maximum allowed words in a comment body
const MaxCommentWords = 500
