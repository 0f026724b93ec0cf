package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qalamhq/qalam/apperr"
	"github.com/qalamhq/qalam/models"
	"github.com/qalamhq/qalam/store"
	"github.com/qalamhq/qalam/utils"
)

const minPasswordLength = 6

// AuthController handles registration and login.
type AuthController struct {
	users store.UserStore
}

// NewAuthController creates an AuthController.
func NewAuthController(users store.UserStore) *AuthController {
	return &AuthController{users: users}
}

// Register creates a local account with a bcrypt password hash and issues
// a bearer token for it.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, apperr.BadRequest("username, email and password are required"))
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" {
		utils.Fail(ctx, apperr.BadRequest("username, email and password are required"))
		return
	}
	if len(req.Password) < minPasswordLength {
		utils.Fail(ctx, apperr.BadRequest("password must be at least 6 characters"))
		return
	}

	// Fast pre-checks; the unique indexes still back this up under races.
	if _, err := a.users.ByUsername(ctx.Request.Context(), username); err == nil {
		utils.Fail(ctx, apperr.Conflict("user already exists"))
		return
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		utils.Fail(ctx, err)
		return
	}
	if _, err := a.users.ByEmail(ctx.Request.Context(), email); err == nil {
		utils.Fail(ctx, apperr.Conflict("user already exists"))
		return
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		utils.Fail(ctx, err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Fail(ctx, apperr.Wrap(apperr.KindUnavailable, "failed to hash password", err))
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := a.users.Create(ctx.Request.Context(), &user); err != nil {
		utils.Fail(ctx, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.Fail(ctx, apperr.Wrap(apperr.KindUnavailable, "failed to issue token", err))
		return
	}

	utils.OK(ctx, http.StatusCreated, "registration successful", gin.H{
		"token": token,
		"user":  newAccountView(user),
	})
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password are indistinguishable to the caller.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, apperr.BadRequest("email and password are required"))
		return
	}

	badCredentials := apperr.Unauthorized("invalid email or password")

	user, err := a.users.ByEmail(ctx.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			utils.Fail(ctx, badCredentials)
			return
		}
		utils.Fail(ctx, err)
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Fail(ctx, badCredentials)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.Fail(ctx, apperr.Wrap(apperr.KindUnavailable, "failed to issue token", err))
		return
	}

	utils.OK(ctx, http.StatusOK, "login successful", gin.H{
		"token": token,
		"user":  newAccountView(*user),
	})
}
