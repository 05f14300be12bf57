package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"lumonew/internal/logger"
	"lumonew/internal/uuid"
)

// RequestIDKey is the context key holding the request ID.
const RequestIDKey = "requestID"

const requestIDHeader = "X-Request-ID"

// RequestLogging returns a Gin middleware that logs each request with a request
// ID, method, route, status code, latency, and client IP using Zap. An incoming
// X-Request-ID that parses as a UUID is reused.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if !uuid.IsValid(requestID) {
			requestID = uuid.New()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID := c.GetString(ContextUserID); userID != "" {
			fields = append(fields, "user_id", userID)
		}

		log := logger.Named("http")
		if c.Writer.Status() >= 500 {
			log.Warnw("request", fields...)
			return
		}
		log.Infow("request", fields...)
	}
}
