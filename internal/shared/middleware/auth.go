package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/response"
	"fulfillment-backend/pkg/jwt"
)

const actorKey = "actor"

// AuthMiddleware verifies the bearer token and stores the actor in the context.
func AuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := manager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		a, err := actorFromClaims(claims)
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(actorKey, a)
		c.Set("userID", a.UserID)
		c.Next()
	}
}

func actorFromClaims(claims *jwt.Claims) (actor.Actor, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return actor.Actor{}, errInvalidClaim("user_id")
	}
	role := actor.Role(claims.Role)
	// The system role is reserved for the worker.
	if !role.IsValid() || role == actor.RoleSystem {
		return actor.Actor{}, errInvalidClaim("role")
	}
	a := actor.Actor{UserID: userID, Role: role}
	if claims.WarehouseID != "" {
		id, err := uuid.Parse(claims.WarehouseID)
		if err != nil {
			return actor.Actor{}, errInvalidClaim("warehouse_id")
		}
		a.WarehouseID = &id
	}
	if claims.SupplierID != "" {
		id, err := uuid.Parse(claims.SupplierID)
		if err != nil {
			return actor.Actor{}, errInvalidClaim("supplier_id")
		}
		a.SupplierID = &id
	}
	return a, nil
}

type errInvalidClaim string

func (e errInvalidClaim) Error() string { return "invalid " + string(e) + " in token" }

// CurrentActor returns the actor set by AuthMiddleware.
func CurrentActor(c *gin.Context) (actor.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return actor.Actor{}, false
	}
	a, ok := v.(actor.Actor)
	return a, ok
}

// SetActor is used by tests that skip token parsing.
func SetActor(a actor.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, a)
		c.Next()
	}
}
