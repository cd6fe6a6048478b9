package models

import (
	"time"
)

// ReactionType is either like or dislike
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// ValidReactionTypes defines allowed reaction types
var ValidReactionTypes = map[ReactionType]bool{
	ReactionLike:    true,
	ReactionDislike: true,
}

// Reaction is the single reaction a user holds on a post
type Reaction struct {
	ID           string       `json:"id" db:"id"`
	PostID       string       `json:"post_id" db:"post_id"`
	UserID       string       `json:"user_id" db:"user_id"`
	ReactionType ReactionType `json:"reaction_type" db:"reaction_type"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// ReactionRequest is the body of POST /posts/:id/reactions
type ReactionRequest struct {
	ReactionType ReactionType `json:"reaction_type"`
}

// Bookmark records that a user saved a post
type Bookmark struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"post_id" db:"post_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
