// Package store provides persistence for users and posts behind small
// interfaces: a MySQL implementation for production and an in-memory one
// for tests. A post row is the single document holding its embedded
// comments and likes, so cascade delete and atomic append never span rows.
package store

import (
	"context"

	"github.com/qalamhq/qalam/models"
)

// UserStore persists registered users.
type UserStore interface {
	// Create inserts a new user. A duplicate username or email yields
	// a Conflict error.
	Create(ctx context.Context, user *models.User) error
	ByID(ctx context.Context, id uint) (*models.User, error)
	// ByIDs resolves users in bulk, keyed by ID. Missing IDs are simply
	// absent from the map.
	ByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateUsername renames a user, failing with Conflict when the name
	// is already taken.
	UpdateUsername(ctx context.Context, id uint, username string) (*models.User, error)
}

// PostFilter narrows and pages a post listing. Search matches the title
// only, case-insensitively. A zero AuthorID means all authors.
type PostFilter struct {
	Search   string
	AuthorID uint
	Page     int
	Limit    int
}

// PostPage is one page of a listing, newest first. Out-of-range pages
// return an empty Posts slice, not an error.
type PostPage struct {
	Posts       []models.Post
	Total       int64
	TotalPages  int
	CurrentPage int
}

// PostStore persists posts with their embedded comments and likes.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	ByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) (*PostPage, error)
	// Mutate runs fn against the current post state under a per-post
	// write lock and persists the result, so concurrent like-toggles and
	// comment-appends on the same post serialize. An error from fn
	// aborts the write and is returned unchanged.
	Mutate(ctx context.Context, id uint, fn func(*models.Post) error) (*models.Post, error)
	// Delete removes the post row; embedded comments die with it.
	Delete(ctx context.Context, id uint) error
	// UserStats recomputes post/like/comment totals across the user's
	// posts on every call.
	UserStats(ctx context.Context, userID uint) (*models.UserStats, error)
}

// Normalize clamps paging inputs to the contract defaults: page >= 1,
// limit defaulting to 10 and capped at 100.
func (f PostFilter) Normalize() PostFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}
