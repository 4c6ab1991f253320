package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const APIKeyHeader = "X-Api-Key"

// APIKey admits requests whose X-Api-Key header matches one of keys.
func APIKey(keys []string) gin.HandlerFunc {
	valid := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			valid = append(valid, []byte(k))
		}
	}
	return func(c *gin.Context) {
		got := []byte(strings.TrimSpace(c.GetHeader(APIKeyHeader)))
		if len(got) > 0 {
			for _, k := range valid {
				if subtle.ConstantTimeCompare(got, k) == 1 {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid api key"})
	}
}
