package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ayanna/internal/core/apperror"
	"ayanna/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			status := appErr.HTTPStatus
			if status == 0 {
				status = http.StatusInternalServerError
			}
			body := gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
			failIdempotency(c, status, body)
			c.JSON(status, body)
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)

		body := gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{
				"request_id": c.GetString("request_id"),
			},
		}
		failIdempotency(c, http.StatusInternalServerError, body)
		c.JSON(http.StatusInternalServerError, body)
	}
}

// failIdempotency records the error response under the request's key.
func failIdempotency(c *gin.Context, status int, body any) {
	CompleteIdempotency(c, status, "application/json", body)
}
