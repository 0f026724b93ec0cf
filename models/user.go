package models

import "time"

// User represents a registered author. Passwords are stored as bcrypt
// hashes only and never serialized.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStats aggregates a user's authoring activity. Values are recomputed
// from the posts on every call, never cached.
type UserStats struct {
	PostsCount    int64 `json:"postsCount"`
	TotalLikes    int64 `json:"totalLikes"`
	TotalComments int64 `json:"totalComments"`
}
