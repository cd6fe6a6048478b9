package models

import (
	"time"
)

// Category groups posts. Deleting a category leaves its posts uncategorized.
type Category struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Tag labels posts; a post can carry many tags
type Tag struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TaxonomyCreateRequest is the body of POST /categories and POST /tags
type TaxonomyCreateRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}
