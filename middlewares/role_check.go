package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/utils"
)

// RequireRoles lets the request through only for the listed roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role, exists := c.Get(KeyRole)
		if !exists {
			utils.RespondError(c, utils.Unauthorized("unauthorized"))
			return
		}
		if r, _ := role.(string); !allowed[r] {
			utils.RespondError(c, utils.Forbidden("your role cannot perform this action"))
			return
		}
		c.Next()
	}
}
