package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qalamhq/qalam/apperr"
	"github.com/qalamhq/qalam/middleware"
	"github.com/qalamhq/qalam/store"
	"github.com/qalamhq/qalam/utils"
)

// UserController serves the authenticated user's profile, posts, and
// activity stats.
type UserController struct {
	users store.UserStore
	posts store.PostStore
}

// NewUserController creates a UserController.
func NewUserController(users store.UserStore, posts store.PostStore) *UserController {
	return &UserController{users: users, posts: posts}
}

// Me returns the caller's profile together with stats recomputed from
// their posts on every call.
func (u *UserController) Me(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Fail(ctx, apperr.Unauthorized("unauthorized"))
		return
	}

	user, err := u.users.ByID(ctx.Request.Context(), userID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	stats, err := u.posts.UserStats(ctx.Request.Context(), userID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.OK(ctx, http.StatusOK, "profile retrieved", gin.H{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"created_at": user.CreatedAt,
		},
		"stats": stats,
	})
}

// MyPosts lists the caller's posts under the same pagination contract as
// the public listing, without a search term.
func (u *UserController) MyPosts(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Fail(ctx, apperr.Unauthorized("unauthorized"))
		return
	}

	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"))
	result, err := u.posts.List(ctx.Request.Context(), store.PostFilter{
		AuthorID: userID,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	users, err := u.users.ByIDs(ctx.Request.Context(), authorIDs(result.Posts))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.OK(ctx, http.StatusOK, "posts retrieved", gin.H{
		"posts":       newPostViews(result.Posts, users),
		"totalPages":  result.TotalPages,
		"currentPage": result.CurrentPage,
	})
}

// UpdateProfile renames the caller. Username is the only mutable field;
// submitting the current name is a no-op success.
func (u *UserController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, apperr.BadRequest("username is required"))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		utils.Fail(ctx, apperr.BadRequest("username is required"))
		return
	}

	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Fail(ctx, apperr.Unauthorized("unauthorized"))
		return
	}

	user, err := u.users.UpdateUsername(ctx.Request.Context(), userID, username)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.OK(ctx, http.StatusOK, "profile updated", gin.H{
		"user": newAccountView(*user),
	})
}
