package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qalamhq/qalam/apperr"
)

// Responses carry a human-readable message alongside the resulting
// resource fields at the top level, matching the API's wire contract.

// OK writes a success response merging the message into the payload.
func OK(ctx *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"message": message}
	for k, v := range payload {
		body[k] = v
	}
	ctx.JSON(status, body)
}

// Fail maps a tagged error onto its HTTP status and writes the message.
// Untagged errors are reported as internal without leaking detail.
func Fail(ctx *gin.Context, err error) {
	status := statusOf(apperr.KindOf(err))
	message := apperr.MessageOf(err)
	if message == "" || status == http.StatusInternalServerError {
		message = "internal server error"
	}
	if Sugar != nil && status >= 500 {
		Sugar.Errorw("request failed",
			"path", ctx.FullPath(),
			"status", status,
			"error", err.Error(),
		)
	}
	ctx.JSON(status, gin.H{"message": message})
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
