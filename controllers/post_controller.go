package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qalamhq/qalam/apperr"
	"github.com/qalamhq/qalam/middleware"
	"github.com/qalamhq/qalam/models"
	"github.com/qalamhq/qalam/store"
	"github.com/qalamhq/qalam/utils"
)

// PostController manages posts and their embedded comments and likes.
// Content is sanitized with the storage whitelist before every persist;
// the views apply the display whitelist again on the way out.
type PostController struct {
	posts store.PostStore
	users store.UserStore
	cache *utils.Cache
}

// NewPostController creates a PostController. cache may be nil.
func NewPostController(posts store.PostStore, users store.UserStore, cache *utils.Cache) *PostController {
	return &PostController{posts: posts, users: users, cache: cache}
}

// ListPosts returns paginated posts, newest first, optionally filtered by
// a case-insensitive title search.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"))
	search := strings.TrimSpace(ctx.Query("search"))

	// Cache only searchless pages to avoid cache key explosion.
	cacheKey := fmt.Sprintf("cache:posts:list:page=%d:limit=%d", page, limit)
	if search == "" {
		if b, ok := p.cache.GetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	result, err := p.posts.List(ctx.Request.Context(), store.PostFilter{
		Search: search,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	users, err := p.users.ByIDs(ctx.Request.Context(), authorIDs(result.Posts))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	body := gin.H{
		"message":     "posts retrieved",
		"posts":       newPostViews(result.Posts, users),
		"totalPages":  result.TotalPages,
		"currentPage": result.CurrentPage,
	}
	if search == "" {
		p.cache.SetJSON(cacheKey, body, time.Hour)
	}
	ctx.JSON(http.StatusOK, body)
}

// GetPost returns a single post with resolved comment author names.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, err := postIDParam(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	cacheKey := "cache:post:detail:" + strconv.FormatUint(uint64(postID), 10)
	if b, ok := p.cache.GetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	post, err := p.posts.ByID(ctx.Request.Context(), postID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	users, err := p.users.ByIDs(ctx.Request.Context(), authorIDs([]models.Post{*post}))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	body := gin.H{
		"message": "post retrieved",
		"post":    newPostView(*post, users),
	}
	p.cache.SetJSON(cacheKey, body, time.Hour)
	ctx.JSON(http.StatusOK, body)
}

// CreatePost persists a new post owned by the caller. The owner never
// changes afterwards.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Image   string `json:"image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, apperr.BadRequest("invalid request payload"))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Fail(ctx, apperr.BadRequest("title cannot be empty"))
		return
	}

	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Fail(ctx, apperr.Unauthorized("unauthorized"))
		return
	}

	post := models.Post{
		UserID:  userID,
		Title:   title,
		Content: utils.SanitizeStorage(req.Content),
		Image:   req.Image,
	}
	if err := p.posts.Create(ctx.Request.Context(), &post); err != nil {
		utils.Fail(ctx, err)
		return
	}

	p.cache.InvalidatePrefix("cache:posts:list:")

	users, _ := p.users.ByIDs(ctx.Request.Context(), []uint{userID})
	utils.OK(ctx, http.StatusCreated, "post created", gin.H{
		"post": newPostView(post, users),
	})
}

// UpdatePost patches a post; only fields present in the request change,
// and new content passes through the storage whitelist again.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
		Image   *string `json:"image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, apperr.BadRequest("invalid request payload"))
		return
	}

	postID, err := postIDParam(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Fail(ctx, apperr.Unauthorized("unauthorized"))
		return
	}

	post, err := p.posts.Mutate(ctx.Request.Context(), postID, func(post *models.Post) error {
		if post.UserID != userID {
			return apperr.Forbidden("you can only update your own posts")
		}
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return apperr.BadRequest("title cannot be empty")
			}
			post.Title = title
		}
		if req.Content != nil {
			post.Content = utils.SanitizeStorage(*req.Content)
		}
		if req.Image != nil {
			post.Image = *req.Image
		}
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	p.invalidatePost(postID)

	users, _ := p.users.ByIDs(ctx.Request.Context(), authorIDs([]models.Post{*post}))
	utils.OK(ctx, http.StatusOK, "post updated", gin.H{
		"post": newPostView(*post, users),
	})
}

// DeletePost removes a post and, with it, every embedded comment.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID, err := postIDParam(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Fail(ctx, apperr.Unauthorized("unauthorized"))
		return
	}

	post, err := p.posts.ByID(ctx.Request.Context(), postID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if post.UserID != userID {
		utils.Fail(ctx, apperr.Forbidden("you can only delete your own posts"))
		return
	}

	if err := p.posts.Delete(ctx.Request.Context(), postID); err != nil {
		utils.Fail(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, http.StatusOK, "post deleted", nil)
}

// ToggleLike flips the caller's membership in the post's like set. Any
// authenticated user may like any post, including their own.
func (p *PostController) ToggleLike(ctx *gin.Context) {
	postID, err := postIDParam(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Fail(ctx, apperr.Unauthorized("unauthorized"))
		return
	}

	var liked bool
	post, err := p.posts.Mutate(ctx.Request.Context(), postID, func(post *models.Post) error {
		liked = post.Likes.Toggle(userID)
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	p.invalidatePost(postID)

	message := "like removed"
	if liked {
		message = "post liked"
	}
	utils.OK(ctx, http.StatusOK, message, gin.H{
		"likesCount": len(post.Likes),
		"isLiked":    liked,
	})
}

// CreateComment appends a comment to the post. Text is stored as
// submitted; it is never HTML-sanitized.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, apperr.BadRequest("invalid request payload"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		utils.Fail(ctx, apperr.BadRequest("comment text cannot be empty"))
		return
	}

	postID, err := postIDParam(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Fail(ctx, apperr.Unauthorized("unauthorized"))
		return
	}

	var comment models.Comment
	_, err = p.posts.Mutate(ctx.Request.Context(), postID, func(post *models.Post) error {
		comment = post.Comments.Append(userID, req.Text)
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	p.invalidatePost(postID)

	users, _ := p.users.ByIDs(ctx.Request.Context(), []uint{userID})
	utils.OK(ctx, http.StatusCreated, "comment added", gin.H{
		"comment": newCommentView(comment, users),
	})
}

// DeleteComment removes one comment. The comment's author and the post's
// author may both delete it.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	commentID := strings.TrimSpace(ctx.Param("commentId"))
	if commentID == "" {
		utils.Fail(ctx, apperr.BadRequest("missing comment id"))
		return
	}

	postID, err := postIDParam(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Fail(ctx, apperr.Unauthorized("unauthorized"))
		return
	}

	_, err = p.posts.Mutate(ctx.Request.Context(), postID, func(post *models.Post) error {
		comment, found := post.Comments.ByID(commentID)
		if !found {
			return apperr.NotFound("comment not found")
		}
		if comment.UserID != userID && post.UserID != userID {
			return apperr.Forbidden("you can only delete your own comments")
		}
		post.Comments.Remove(commentID)
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, http.StatusOK, "comment deleted", nil)
}

func (p *PostController) invalidatePost(postID uint) {
	p.cache.InvalidatePrefix("cache:posts:list:")
	p.cache.InvalidatePrefix("cache:post:detail:" + strconv.FormatUint(uint64(postID), 10))
}

func postIDParam(ctx *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 32)
	if err != nil {
		return 0, apperr.BadRequest("invalid post id")
	}
	return uint(id), nil
}

func parsePagination(pageStr, limitStr string) (int, int) {
	page := 1
	limit := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}
