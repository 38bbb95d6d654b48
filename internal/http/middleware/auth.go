package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/http/response"
	"github.com/you/homeauth/internal/services"
	"go.uber.org/zap"
)

// AuthMW wraps the token service and credential stores for middleware
type AuthMW struct {
	tokenSvc      domain.TokenService
	users         domain.IdentityRepository
	workers       domain.WorkerRepository
	guard         *services.AccountGuard
	logger        *zap.Logger
	trackActivity bool
	now           func() time.Time
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(
	tokenSvc domain.TokenService,
	users domain.IdentityRepository,
	workers domain.WorkerRepository,
	guard *services.AccountGuard,
	logger *zap.Logger,
	trackActivity bool,
) *AuthMW {
	return &AuthMW{
		tokenSvc:      tokenSvc,
		users:         users,
		workers:       workers,
		guard:         guard,
		logger:        logger.Named("auth_mw"),
		trackActivity: trackActivity,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// RequireUser admits user identities, optionally restricted to roles
func (mw *AuthMW) RequireUser(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, claims, err := mw.authenticate(c, domain.KindUser)
		if err != nil {
			response.Error(c, mw.logger, err)
			return
		}
		if len(roles) > 0 && !hasRole(identity.Role, roles) {
			response.Error(c, mw.logger, domain.ErrForbidden)
			return
		}

		setIdentity(c, identity, claims)
		c.Next()
	}
}

// RequireWorker admits workers passing the status gates.
// With requireActive false, pending_approval workers pass.
func (mw *AuthMW) RequireWorker(requireActive bool) gin.HandlerFunc {
	return mw.worker(services.AccessOptions{RequireActive: requireActive})
}

// RequireVerifiedWorker admits active workers carrying the verified flag
func (mw *AuthMW) RequireVerifiedWorker() gin.HandlerFunc {
	return mw.worker(services.AccessOptions{RequireActive: true, RequireVerified: true})
}

func (mw *AuthMW) worker(opts services.AccessOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, claims, err := mw.authenticate(c, domain.KindWorker)
		if err != nil {
			response.Error(c, mw.logger, err)
			return
		}
		if err := mw.guard.CheckAccess(identity, opts); err != nil {
			response.Error(c, mw.logger, err)
			return
		}

		setIdentity(c, identity, claims)
		mw.touch(c, identity)
		c.Next()
	}
}

// OptionalUser attaches a user identity when a valid token is present and never rejects
func (mw *AuthMW) OptionalUser() gin.HandlerFunc {
	return mw.optional(domain.KindUser)
}

// OptionalWorker attaches a usable worker identity when present and never rejects
func (mw *AuthMW) OptionalWorker() gin.HandlerFunc {
	return mw.optional(domain.KindWorker)
}

func (mw *AuthMW) optional(kind domain.IdentityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		identity, claims, err := mw.authenticate(c, kind)
		if err != nil {
			mw.logger.Debug("optional auth ignored", zap.Error(err))
			c.Next()
			return
		}
		if mw.guard.CheckLoginStatus(identity) != nil {
			c.Next()
			return
		}
		setIdentity(c, identity, claims)
		c.Next()
	}
}

// AdminOrWorker branches on the role claim before the store lookup:
// workers go through the worker gates, everyone else must be an admin user.
func (mw *AuthMW) AdminOrWorker() gin.HandlerFunc {
	workerMW := mw.RequireWorker(false)
	adminMW := mw.RequireUser(domain.RoleAdmin)
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			response.Error(c, mw.logger, err)
			return
		}
		claims, err := mw.tokenSvc.ValidateAccessToken(token)
		if err != nil {
			response.Error(c, mw.logger, err)
			return
		}

		if claims.Role == domain.RoleWorker {
			workerMW(c)
			return
		}
		adminMW(c)
	}
}

// touch records worker activity; failures never affect the request
func (mw *AuthMW) touch(c *gin.Context, identity *domain.Identity) {
	if !mw.trackActivity {
		return
	}
	if err := mw.workers.TouchActivity(c.Request.Context(), identity.ID, mw.now(), c.ClientIP()); err != nil {
		mw.logger.Warn("activity tracking failed", zap.String("worker_id", identity.ID), zap.Error(err))
	}
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
