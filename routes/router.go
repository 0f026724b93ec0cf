package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qalamhq/qalam/config"
	"github.com/qalamhq/qalam/controllers"
	"github.com/qalamhq/qalam/middleware"
	"github.com/qalamhq/qalam/store"
	"github.com/qalamhq/qalam/utils"
)

// SetupRouter wires routes, middlewares, stores, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	userStore := store.NewSQLUserStore(db)
	postStore := store.NewSQLPostStore(db)
	cache := utils.NewCache(cfg)

	authController := controllers.NewAuthController(userStore)
	postController := controllers.NewPostController(postStore, userStore, cache)
	userController := controllers.NewUserController(userStore, postStore)

	SetupAPI(r, authController, postController, userController)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "route not found"})
	})

	return r
}

// SetupAPI mounts the API routes on the engine. Paths and verbs are the
// compatibility surface and must not change.
func SetupAPI(r *gin.Engine, auth *controllers.AuthController, posts *controllers.PostController, users *controllers.UserController) {
	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit())
	authGroup.POST("/register", auth.Register)
	authGroup.POST("/login", auth.Login)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", posts.ListPosts)
	postsGroup.GET("/:id", posts.GetPost)

	protectedPosts := api.Group("/posts")
	protectedPosts.Use(middleware.AuthRequired())
	protectedPosts.POST("", posts.CreatePost)
	protectedPosts.PUT("/:id", posts.UpdatePost)
	protectedPosts.DELETE("/:id", posts.DeletePost)
	protectedPosts.POST("/:id/like", posts.ToggleLike)
	protectedPosts.POST("/:id/comments", posts.CreateComment)
	protectedPosts.DELETE("/:id/comments/:commentId", posts.DeleteComment)

	usersGroup := api.Group("/users")
	usersGroup.Use(middleware.AuthRequired())
	usersGroup.GET("/me", users.Me)
	usersGroup.GET("/me/posts", users.MyPosts)
	usersGroup.PUT("/me", users.UpdateProfile)
}
