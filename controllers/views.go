package controllers

import (
	"time"

	"github.com/qalamhq/qalam/models"
	"github.com/qalamhq/qalam/utils"
)

// Response views resolve author display names and apply the display-time
// sanitization pass, so handlers never return raw stored content.

type authorView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type accountView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type commentView struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Author    authorView `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
}

type postView struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Image     string         `json:"image,omitempty"`
	Author    authorView     `json:"author"`
	Likes     models.LikeSet `json:"likes"`
	Comments  []commentView  `json:"comments"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newAccountView(u models.User) accountView {
	return accountView{ID: u.ID, Username: u.Username, Email: u.Email}
}

func newAuthorView(id uint, users map[uint]models.User) authorView {
	v := authorView{ID: id}
	if u, ok := users[id]; ok {
		v.Username = u.Username
	}
	return v
}

func newCommentView(c models.Comment, users map[uint]models.User) commentView {
	return commentView{
		ID:        c.ID,
		Text:      c.Text,
		Author:    newAuthorView(c.UserID, users),
		CreatedAt: c.CreatedAt,
	}
}

func newPostView(p models.Post, users map[uint]models.User) postView {
	comments := make([]commentView, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, newCommentView(c, users))
	}
	likes := p.Likes
	if likes == nil {
		likes = models.LikeSet{}
	}
	return postView{
		ID:        p.ID,
		Title:     p.Title,
		Content:   utils.SanitizeDisplay(p.Content),
		Image:     p.Image,
		Author:    newAuthorView(p.UserID, users),
		Likes:     likes,
		Comments:  comments,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func newPostViews(posts []models.Post, users map[uint]models.User) []postView {
	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		views = append(views, newPostView(p, users))
	}
	return views
}

// authorIDs collects every user ID a set of posts references: post
// authors and comment authors, deduplicated.
func authorIDs(posts []models.Post) []uint {
	var ids []uint
	for _, p := range posts {
		ids = append(ids, p.UserID)
		for _, c := range p.Comments {
			ids = append(ids, c.UserID)
		}
	}
	return utils.UniqueUint(ids)
}
