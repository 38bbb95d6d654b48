package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/http/response"
	"go.uber.org/zap"
)

// SelfOrAdmin lets admins through and limits everyone else to the identity
// named by the path parameter. Runs after an auth middleware.
func SelfOrAdmin(paramName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			response.Error(c, logger, domain.ErrTokenMissing)
			return
		}
		if identity.Role == domain.RoleAdmin {
			c.Next()
			return
		}
		if c.Param(paramName) != identity.ID {
			response.Error(c, logger, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}
