package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/models"
)

func chain(n int) []*models.Comment {
	comments := make([]*models.Comment, n)
	for i := range comments {
		c := &models.Comment{ID: fmt.Sprintf("c%d", i), PostID: "p", Content: "x"}
		if i > 0 {
			parent := comments[i-1].ID
			c.ParentID = &parent
		}
		comments[i] = c
	}
	return comments
}

func TestBuildCommentTree_Nesting(t *testing.T) {
	a := "a"
	comments := []*models.Comment{
		{ID: "a"},
		{ID: "b", ParentID: &a},
		{ID: "c", ParentID: &a},
		{ID: "d"},
	}

	tree := BuildCommentTree(comments, 50)
	if len(tree) != 2 {
		t.Fatalf("Expected 2 roots, got %d", len(tree))
	}
	if len(tree[0].Replies) != 2 || tree[0].Replies[0].ID != "b" || tree[0].Replies[1].ID != "c" {
		t.Errorf("Expected a to have replies [b c], got %+v", tree[0].Replies)
	}
	if tree[1].Replies == nil {
		t.Error("Expected leaf replies to be an empty list")
	}
}

func TestBuildCommentTree_OrphansBecomeRoots(t *testing.T) {
	gone := "deleted"
	tree := BuildCommentTree([]*models.Comment{{ID: "x", ParentID: &gone}}, 50)
	if len(tree) != 1 || tree[0].ID != "x" {
		t.Errorf("Expected orphan as root, got %+v", tree)
	}
}

func TestBuildCommentTree_DepthIsBounded(t *testing.T) {
	tree := BuildCommentTree(chain(10), 3)

	if len(tree) != 1 {
		t.Fatalf("Expected 1 root, got %d", len(tree))
	}
	level1 := tree[0].Replies
	if len(level1) != 1 || level1[0].ID != "c1" {
		t.Fatalf("Expected c1 under the root, got %+v", level1)
	}
	// c2 is the deepest nested level; everything below it is flattened
	// next to it.
	flattened := level1[0].Replies
	if len(flattened) != 8 {
		t.Fatalf("Expected 8 comments at the last level, got %d", len(flattened))
	}
	for _, n := range flattened {
		if len(n.Replies) != 0 {
			t.Errorf("Expected %s to have no replies, got %d", n.ID, len(n.Replies))
		}
	}
}

func TestBuildCommentTree_DeepThread(t *testing.T) {
	tree := BuildCommentTree(chain(10000), 50)

	count, depth := 0, 0
	var walk func(nodes []*models.CommentResponse, d int)
	walk = func(nodes []*models.CommentResponse, d int) {
		if d > depth {
			depth = d
		}
		for _, n := range nodes {
			count++
			walk(n.Replies, d+1)
		}
	}
	walk(tree, 1)

	if count != 10000 {
		t.Errorf("Expected every comment in the tree, got %d", count)
	}
	if depth > 50 {
		t.Errorf("Expected depth at most 50, got %d", depth)
	}
}

func TestSerializePost(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	resp := SerializePost(&models.Post{ID: "p", CreatedAt: created, UpdatedAt: created})

	if resp.CreatedAt != "2024-03-01T11:00:00Z" {
		t.Errorf("Expected UTC RFC3339, got %s", resp.CreatedAt)
	}
	if resp.Tags == nil || len(resp.Tags) != 0 {
		t.Errorf("Expected empty tag list, got %v", resp.Tags)
	}
	if resp.AuthorUsername != nil || resp.CategoryName != nil {
		t.Error("Expected unresolved references to be nil")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncate me", 8, "truncate"},
		{"héllo wörld", 5, "héllo"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestBuildFeed(t *testing.T) {
	author := "alice"
	now := time.Now()
	cfg := config.BlogConfig{Title: "Blog", Description: "d", SiteURL: "https://example.com"}
	feed := BuildFeed(cfg, []*models.Post{
		{Title: "One", Slug: "one", Content: "body", AuthorUsername: &author, CreatedAt: now},
		{Title: "Two", Slug: "two", Content: "body", CreatedAt: now},
	}, now)

	if len(feed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(feed.Items))
	}
	if feed.Items[0].Link.Href != "https://example.com/posts/one" {
		t.Errorf("Unexpected link %s", feed.Items[0].Link.Href)
	}
	if feed.Items[0].Author == nil || feed.Items[0].Author.Name != "alice" {
		t.Error("Expected author on the first item")
	}
	if feed.Items[1].Author != nil {
		t.Error("Expected no author when unknown")
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Expected [a b c], got %v", got)
	}
}
