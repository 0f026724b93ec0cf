package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Post is the aggregate root: comments and likes live inside the post row
// as JSON columns, so they are created, mutated, and destroyed with it.
// The author is set once at creation and never reassigned.
type Post struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"index;not null" json:"user_id"`
	Title     string      `gorm:"size:255;not null" json:"title"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Image     string      `gorm:"type:mediumtext" json:"image,omitempty"` // data URI or external reference
	Likes     LikeSet     `gorm:"type:json" json:"likes"`
	Comments  CommentList `gorm:"type:json" json:"comments"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Comment is an embedded reply. Text is stored as submitted; it is never
// HTML-sanitized and never updated in place.
type Comment struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentList keeps comments in strict insertion order inside the post row.
type CommentList []Comment

// Value serializes the list for the JSON column. An empty list is stored
// as [] rather than NULL.
func (l CommentList) Value() (driver.Value, error) {
	if l == nil {
		l = CommentList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes the JSON column back into the list.
func (l *CommentList) Scan(src interface{}) error {
	if src == nil {
		*l = CommentList{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported comment list source %T", src)
	}
	if len(b) == 0 {
		*l = CommentList{}
		return nil
	}
	return json.Unmarshal(b, l)
}

// Append adds a new comment at the end of the list with a fresh identifier
// and returns it. Insertion order is display order.
func (l *CommentList) Append(userID uint, text string) Comment {
	c := Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	*l = append(*l, c)
	return c
}

// ByID looks up a comment without changing the list.
func (l CommentList) ByID(id string) (Comment, bool) {
	for _, c := range l {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}

// Remove deletes exactly one comment, preserving the relative order of the
// rest. It reports whether the comment existed.
func (l *CommentList) Remove(id string) bool {
	for i, c := range *l {
		if c.ID == id {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

// LikeSet is the set of user IDs that like a post. Each user appears at
// most once.
type LikeSet []uint

// Value serializes the set for the JSON column, [] when empty.
func (s LikeSet) Value() (driver.Value, error) {
	if s == nil {
		s = LikeSet{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes the JSON column back into the set.
func (s *LikeSet) Scan(src interface{}) error {
	if src == nil {
		*s = LikeSet{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported like set source %T", src)
	}
	if len(b) == 0 {
		*s = LikeSet{}
		return nil
	}
	return json.Unmarshal(b, s)
}

// Has reports membership.
func (s LikeSet) Has(userID uint) bool {
	for _, id := range s {
		if id == userID {
			return true
		}
	}
	return false
}

// Toggle flips the user's membership and returns the resulting state:
// true when the user now likes the post.
func (s *LikeSet) Toggle(userID uint) bool {
	for i, id := range *s {
		if id == userID {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return false
		}
	}
	*s = append(*s, userID)
	return true
}
