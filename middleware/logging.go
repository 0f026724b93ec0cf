package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qalamhq/qalam/utils"
)

// RequestLogger logs each request through the global zap logger.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path
		query := ctx.Request.URL.RawQuery

		ctx.Next()

		if utils.Logger == nil {
			return
		}
		utils.Logger.Info("request",
			zap.Int("status", ctx.Writer.Status()),
			zap.String("method", ctx.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", ctx.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("errors", ctx.Errors.ByType(gin.ErrorTypePrivate).String()),
		)
	}
}

// Recovery converts panics into a 500 response and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if utils.Logger != nil {
					utils.Logger.Error("panic recovered",
						zap.Any("error", err),
						zap.String("path", ctx.Request.URL.Path),
						zap.Stack("stacktrace"),
					)
				}
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			}
		}()
		ctx.Next()
	}
}
