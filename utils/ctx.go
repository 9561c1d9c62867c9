package utils

import "github.com/gin-gonic/gin"

// CurrentUserID returns the authenticated user's id as stored by the
// auth middlewares, zero for unauthenticated requests. Both middlewares
// store the parsed claim value, so the type is always uint.
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get("userId"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// CurrentRole returns the authenticated user's role, empty for
// unauthenticated requests.
func CurrentRole(c *gin.Context) string {
	if v, ok := c.Get("role"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
