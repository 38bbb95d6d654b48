package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/http/response"
	"go.uber.org/zap"
)

// CasbinMW enforces the stored role policies after authentication
type CasbinMW struct {
	policies domain.PolicyService
	audit    domain.AuditLogger
	logger   *zap.Logger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(policies domain.PolicyService, audit domain.AuditLogger, logger *zap.Logger) *CasbinMW {
	return &CasbinMW{policies: policies, audit: audit, logger: logger.Named("casbin_mw")}
}

// Enforce returns the casbin authorization middleware
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			response.Error(c, mw.logger, domain.ErrTokenMissing)
			return
		}

		// x-user-id, when sent, must name the token holder
		if headerID := c.GetHeader("x-user-id"); headerID != "" && headerID != identity.ID {
			mw.deny(c, identity, "x-user-id mismatch")
			return
		}

		allowed, err := mw.policies.CheckPermission(identity.Role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			response.Error(c, mw.logger, err)
			return
		}
		if !allowed {
			mw.deny(c, identity, "policy")
			return
		}

		c.Next()
	}
}

func (mw *CasbinMW) deny(c *gin.Context, identity *domain.Identity, reason string) {
	mw.audit.LogEvent(c.Request.Context(), domain.NewAuditEvent(domain.AccessDeniedEvent, identity.Kind, identity.ID).
		WithIP(c.ClientIP()).
		WithMetadata("path", c.Request.URL.Path).
		WithMetadata("method", c.Request.Method).
		WithMetadata("reason", reason).
		WithError(domain.ErrForbidden))
	response.Error(c, mw.logger, domain.ErrForbidden)
}
