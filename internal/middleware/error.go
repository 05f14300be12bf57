package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "lumonew/internal/errors"
	"lumonew/internal/logger"
)

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses. AppErrors are returned with
// their code and message; unexpected errors are logged and return a generic
// internal error to avoid leaking store details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		err := c.Errors.Last().Err
		requestID := c.GetString(RequestIDKey)

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Internal != nil {
				logger.Get().Errorw("app error",
					"code", appErr.Code,
					"message", appErr.Message,
					"internal", appErr.Internal.Error(),
					"path", c.Request.URL.Path,
					"request_id", requestID,
				)
			}
			abortWithError(c, appErr)
			return
		}

		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", requestID,
		)
		abortWithError(c, apperrors.ErrInternalServer)
	}
}

// Recovery turns a handler panic into a logged 500 response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Get().Errorw("panic in handler",
			"panic", recovered,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(RequestIDKey),
		)
		abortWithError(c, apperrors.ErrInternalServer)
	})
}
