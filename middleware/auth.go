package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qalamhq/qalam/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID
	// in the Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside the Gin context.
	ContextUsernameKey = "username"
)

// AuthRequired resolves the bearer token into an authenticated identity
// for this request only, rejecting absent, malformed, mis-signed, and
// expired tokens before the handler runs. No state survives the request.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(ctx, "authorization header missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(ctx, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			unauthorized(ctx, "empty bearer token")
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			unauthorized(ctx, "invalid or expired token")
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

func unauthorized(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": message})
}

// UserID returns the authenticated caller's identity from the context.
func UserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
