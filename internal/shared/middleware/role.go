package middleware

import (
	"github.com/gin-gonic/gin"

	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/response"
)

// RequireRoles rejects actors without one of roles. Services check roles
// again, this only keeps obviously wrong callers away from the handlers.
func RequireRoles(roles ...actor.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		if err := a.Require(roles...); err != nil {
			response.Fail(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
