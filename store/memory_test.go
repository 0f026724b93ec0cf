package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/qalamhq/qalam/apperr"
	"github.com/qalamhq/qalam/models"
)

func seedPosts(t *testing.T, s PostStore, n int, userID uint) {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 1; i <= n; i++ {
		post := models.Post{
			UserID:    userID,
			Title:     fmt.Sprintf("Post %d", i),
			Content:   "<p>body</p>",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Create(context.Background(), &post); err != nil {
			t.Fatalf("seed post %d: %v", i, err)
		}
	}
}

func TestListPagination(t *testing.T) {
	s := NewMemoryPostStore()
	seedPosts(t, s, 25, 1)

	page, err := s.List(context.Background(), PostFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Posts) != 10 {
		t.Fatalf("page 1 size = %d, want 10", len(page.Posts))
	}
	if page.TotalPages != 3 {
		t.Fatalf("totalPages = %d, want 3", page.TotalPages)
	}
	if page.Posts[0].Title != "Post 25" {
		t.Fatalf("first post = %q, want newest first", page.Posts[0].Title)
	}

	// out-of-range pages are empty, not an error
	page, err = s.List(context.Background(), PostFilter{Page: 4, Limit: 10})
	if err != nil {
		t.Fatalf("List page 4: %v", err)
	}
	if len(page.Posts) != 0 {
		t.Fatalf("page 4 size = %d, want 0", len(page.Posts))
	}
	if page.CurrentPage != 4 {
		t.Fatalf("currentPage = %d, want 4", page.CurrentPage)
	}
}

func TestListSearchMatchesTitleOnly(t *testing.T) {
	s := NewMemoryPostStore()
	one := models.Post{UserID: 1, Title: "Go Concurrency", Content: "<p>channels</p>"}
	two := models.Post{UserID: 1, Title: "Cooking", Content: "<p>all about go routines</p>"}
	if err := s.Create(context.Background(), &one); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(context.Background(), &two); err != nil {
		t.Fatal(err)
	}

	page, err := s.List(context.Background(), PostFilter{Search: "gO cOnCuR"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Posts) != 1 || page.Posts[0].Title != "Go Concurrency" {
		t.Fatalf("case-insensitive title search failed: %+v", page.Posts)
	}

	// content is not searched
	page, err = s.List(context.Background(), PostFilter{Search: "routines"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Posts) != 0 {
		t.Fatalf("search matched content, want title only: %+v", page.Posts)
	}
}

func TestListFiltersByAuthor(t *testing.T) {
	s := NewMemoryPostStore()
	seedPosts(t, s, 3, 1)
	seedPosts(t, s, 2, 2)

	page, err := s.List(context.Background(), PostFilter{AuthorID: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Posts) != 2 || page.Total != 2 {
		t.Fatalf("author filter: got %d posts, want 2", len(page.Posts))
	}
}

func TestMutateAbortsOnError(t *testing.T) {
	s := NewMemoryPostStore()
	post := models.Post{UserID: 1, Title: "before", Content: "<p>x</p>"}
	if err := s.Create(context.Background(), &post); err != nil {
		t.Fatal(err)
	}

	_, err := s.Mutate(context.Background(), post.ID, func(p *models.Post) error {
		p.Title = "after"
		return apperr.Forbidden("denied")
	})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("Mutate error = %v, want Forbidden", err)
	}

	got, err := s.ByID(context.Background(), post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "before" {
		t.Fatalf("aborted mutation leaked: title = %q", got.Title)
	}
}

func TestMutateUnknownPost(t *testing.T) {
	s := NewMemoryPostStore()
	_, err := s.Mutate(context.Background(), 99, func(p *models.Post) error { return nil })
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
	if err := s.Delete(context.Background(), 99); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("Delete err = %v, want NotFound", err)
	}
}

func TestUserStatsRecomputed(t *testing.T) {
	s := NewMemoryPostStore()
	post := models.Post{UserID: 5, Title: "stats", Content: "<p>x</p>"}
	if err := s.Create(context.Background(), &post); err != nil {
		t.Fatal(err)
	}
	_, err := s.Mutate(context.Background(), post.ID, func(p *models.Post) error {
		p.Likes.Toggle(1)
		p.Likes.Toggle(2)
		p.Comments.Append(1, "nice")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	stats, err := s.UserStats(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if stats.PostsCount != 1 || stats.TotalLikes != 2 || stats.TotalComments != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	if err := s.Delete(context.Background(), post.ID); err != nil {
		t.Fatal(err)
	}
	stats, err = s.UserStats(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if stats.PostsCount != 0 || stats.TotalLikes != 0 || stats.TotalComments != 0 {
		t.Fatalf("stats not recomputed after delete: %+v", stats)
	}
}

func TestUserStoreUniqueness(t *testing.T) {
	s := NewMemoryUserStore()
	alice := models.User{Username: "alice", Email: "alice@x.com", PasswordHash: "h"}
	if err := s.Create(context.Background(), &alice); err != nil {
		t.Fatal(err)
	}

	dupName := models.User{Username: "alice", Email: "other@x.com", PasswordHash: "h"}
	if err := s.Create(context.Background(), &dupName); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("duplicate username err = %v, want Conflict", err)
	}
	dupMail := models.User{Username: "bob", Email: "alice@x.com", PasswordHash: "h"}
	if err := s.Create(context.Background(), &dupMail); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("duplicate email err = %v, want Conflict", err)
	}

	bob := models.User{Username: "bob", Email: "bob@x.com", PasswordHash: "h"}
	if err := s.Create(context.Background(), &bob); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateUsername(context.Background(), bob.ID, "alice"); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("rename onto taken username err = %v, want Conflict", err)
	}
	// renaming to your own current name is a no-op success
	if _, err := s.UpdateUsername(context.Background(), bob.ID, "bob"); err != nil {
		t.Fatalf("no-op rename failed: %v", err)
	}
}
