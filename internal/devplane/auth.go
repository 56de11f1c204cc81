package devplane

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// sourceCtxKey is the gin context key holding the authenticated source name.
const sourceCtxKey = "devplane_source"

// WriteKeyAuth authenticates requests the way a hosted data plane does: HTTP
// Basic auth with the write key as username and a blank password. The key is
// mapped to a source name so multiple SDK configurations can share one dev
// plane without seeing each other's events.
func WriteKeyAuth(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, _, ok := c.Request.BasicAuth()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "write key required"})
			return
		}
		source, found := keys[key]
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid write key"})
			return
		}
		c.Set(sourceCtxKey, source)
		c.Next()
	}
}

// Source returns the authenticated source name from the request context.
func Source(c *gin.Context) string {
	v, _ := c.Get(sourceCtxKey)
	s, _ := v.(string)
	return s
}
