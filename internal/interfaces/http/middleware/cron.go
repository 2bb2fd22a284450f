package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/posterdash/backend/internal/interfaces/http/dto"
)

// CronSecret guards the externally triggered job endpoints with a shared
// bearer secret. An empty secret rejects every call.
func CronSecret(secret string) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		got, ok := bearerToken(c)
		if !ok || len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			abortAuth(c, dto.ErrCodeUnauthorized, "Invalid cron secret")
			return
		}
		c.Next()
	}
}
