package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
)

// Context keys set by the auth middleware
const (
	ContextIdentity = "identity"
	ContextClaims   = "claims"
	ContextUserID   = "user_id"
	ContextRole     = "user_role"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", domain.ErrTokenMissing
	}

	tokenParts := strings.SplitN(authHeader, " ", 2)
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" || tokenParts[1] == "" {
		return "", domain.ErrTokenInvalid
	}
	return tokenParts[1], nil
}

// authenticate validates the access token and loads the identity it names.
// A token issued before the last revocation is stale.
func (mw *AuthMW) authenticate(c *gin.Context, kind domain.IdentityKind) (*domain.Identity, *domain.TokenClaims, error) {
	token, err := bearerToken(c)
	if err != nil {
		return nil, nil, err
	}

	claims, err := mw.tokenSvc.ValidateAccessToken(token)
	if err != nil {
		return nil, nil, err
	}

	if kindOfRole(claims.Role) != kind {
		return nil, nil, domain.ErrTokenInvalid
	}

	repo := mw.repoFor(kind)
	identity, err := repo.FindByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, nil, domain.ErrTokenInvalid
		}
		return nil, nil, err
	}

	if identity.TokenVersion != claims.TokenVersion {
		return nil, nil, domain.ErrStaleToken
	}
	return identity, claims, nil
}

func (mw *AuthMW) repoFor(kind domain.IdentityKind) domain.IdentityRepository {
	if kind == domain.KindWorker {
		return mw.workers
	}
	return mw.users
}

func kindOfRole(role string) domain.IdentityKind {
	if role == domain.RoleWorker {
		return domain.KindWorker
	}
	return domain.KindUser
}

func setIdentity(c *gin.Context, identity *domain.Identity, claims *domain.TokenClaims) {
	c.Set(ContextIdentity, identity)
	c.Set(ContextClaims, claims)
	c.Set(ContextUserID, identity.ID)
	c.Set(ContextRole, identity.Role)
}

// CurrentIdentity returns the identity attached by the auth middleware
func CurrentIdentity(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*domain.Identity)
	return identity, ok && identity != nil
}

// CurrentClaims returns the validated access token claims
func CurrentClaims(c *gin.Context) (*domain.TokenClaims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*domain.TokenClaims)
	return claims, ok && claims != nil
}
