package service

import (
	"time"

	"github.com/blog-api/internal/models"
)

// SerializePost converts a post into its response form. Unresolved
// references serialize as null; tags are always a list.
func SerializePost(p *models.Post) *models.PostResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.PostResponse{
		ID:                p.ID,
		Title:             p.Title,
		Content:           p.Content,
		Slug:              p.Slug,
		CreatedAt:         p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.UTC().Format(time.RFC3339),
		IsDraft:           p.IsDraft,
		ViewCount:         p.ViewCount,
		Likes:             p.Likes,
		Dislikes:          p.Dislikes,
		AuthorUsername:    p.AuthorUsername,
		CategoryName:      p.CategoryName,
		Tags:              tags,
		EstimatedReadTime: p.EstimatedReadTime,
		Image:             p.Image,
	}
}

// SerializePosts converts a list of posts
func SerializePosts(posts []*models.Post) []*models.PostResponse {
	out := make([]*models.PostResponse, len(posts))
	for i, p := range posts {
		out[i] = SerializePost(p)
	}
	return out
}

// SerializeComment converts a comment without its replies
func SerializeComment(c *models.Comment) *models.CommentResponse {
	return &models.CommentResponse{
		ID:             c.ID,
		PostID:         c.PostID,
		ParentID:       c.ParentID,
		AuthorUsername: c.AuthorUsername,
		Content:        c.Content,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
		Replies:        []*models.CommentResponse{},
	}
}

// BuildCommentTree nests a flat list of comments under their parents.
// Comments whose parent is not in the list become roots. Nesting stops
// at maxDepth levels: anything deeper is attached to its deepest
// ancestor that still sits within the limit. The walk is breadth first
// over an explicit queue, so arbitrarily deep threads are safe.
func BuildCommentTree(comments []*models.Comment, maxDepth int) []*models.CommentResponse {
	if maxDepth < 1 {
		maxDepth = 1
	}

	type placed struct {
		node      *models.CommentResponse
		container *models.CommentResponse // nil means the root list
		depth     int
	}

	ids := make(map[string]bool, len(comments))
	for _, c := range comments {
		ids[c.ID] = true
	}

	children := make(map[string][]*models.Comment)
	queue := make([]*models.Comment, 0, len(comments))
	for _, c := range comments {
		if c.ParentID != nil && ids[*c.ParentID] && *c.ParentID != c.ID {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		} else {
			queue = append(queue, c)
		}
	}

	roots := make([]*models.CommentResponse, 0, len(queue))
	state := make(map[string]placed, len(comments))
	for _, c := range queue {
		n := SerializeComment(c)
		roots = append(roots, n)
		state[c.ID] = placed{node: n, depth: 0}
	}

	for i := 0; i < len(queue); i++ {
		parent := state[queue[i].ID]
		for _, c := range children[queue[i].ID] {
			if _, seen := state[c.ID]; seen {
				continue
			}
			n := SerializeComment(c)
			p := placed{node: n, container: parent.node, depth: parent.depth + 1}
			if p.depth >= maxDepth {
				p.container, p.depth = parent.container, parent.depth
			}
			if p.container == nil {
				roots = append(roots, n)
			} else {
				p.container.Replies = append(p.container.Replies, n)
			}
			state[c.ID] = p
			queue = append(queue, c)
		}
	}

	return roots
}
