package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// PipelineAuthMiddleware validates the X-API-Key header of ingestion calls.
// When apiKeyHash is set the key is checked against that bcrypt hash;
// otherwise it is compared in constant time with apiKey.
func PipelineAuthMiddleware(apiKey, apiKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" && apiKeyHash == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "PIPELINE_NOT_CONFIGURED", "message": "Pipeline endpoints are not configured"}})
			return
		}

		key := c.GetHeader("X-API-Key")
		var ok bool
		if apiKeyHash != "" {
			ok = key != "" && bcrypt.CompareHashAndPassword([]byte(apiKeyHash), []byte(key)) == nil
		} else {
			ok = subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "INVALID_API_KEY", "message": "Invalid or missing API key"}})
			return
		}
		c.Next()
	}
}
