package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/infrastructure/auth"
	"github.com/you/homeauth/internal/mocks"
	"github.com/you/homeauth/internal/services"
	"go.uber.org/zap"
)

// createTestEnforcer builds an in-memory enforcer carrying the default policies
func createTestEnforcer(t *testing.T) *casbin.Enforcer {
	t.Helper()
	m, err := model.NewModelFromString(auth.DefaultModel)
	require.NoError(t, err)
	e, err := casbin.NewEnforcer(m)
	require.NoError(t, err)
	_, err = e.AddPolicies(auth.DefaultPolicies)
	require.NoError(t, err)
	return e
}

func TestCasbinMW_Enforce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		identity       *domain.Identity
		method         string
		path           string
		header         string
		expectedStatus int
		expectDenied   bool
	}{
		{"missing identity", nil, http.MethodGet, "/admin/policies", "", http.StatusUnauthorized, false},
		{"admin on admin route", &domain.Identity{ID: "a1", Role: domain.RoleAdmin}, http.MethodPut, "/admin/workers/w1/status", "", http.StatusOK, false},
		{"user on admin route", &domain.Identity{ID: "u1", Role: domain.RoleUser}, http.MethodGet, "/admin/policies", "", http.StatusForbidden, true},
		{"worker reads worker route", &domain.Identity{ID: "w1", Role: domain.RoleWorker, Kind: domain.KindWorker}, http.MethodGet, "/workers/w1", "", http.StatusOK, false},
		{"worker writes worker route", &domain.Identity{ID: "w1", Role: domain.RoleWorker, Kind: domain.KindWorker}, http.MethodDelete, "/workers/w1", "", http.StatusForbidden, true},
		{"header mismatch", &domain.Identity{ID: "a1", Role: domain.RoleAdmin}, http.MethodGet, "/admin/policies", "someone-else", http.StatusForbidden, true},
		{"header match", &domain.Identity{ID: "a1", Role: domain.RoleAdmin}, http.MethodGet, "/admin/policies", "a1", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := mocks.NewMockAuditLogger()
			mw := NewCasbinMW(services.NewPolicyService(createTestEnforcer(t)), audit, zap.NewNop())

			r := gin.New()
			r.Any("/*path", func(c *gin.Context) {
				if tt.identity != nil {
					c.Set(ContextIdentity, tt.identity)
				}
				c.Next()
			}, mw.Enforce(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("x-user-id", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectDenied, audit.Has(domain.AccessDeniedEvent))
		})
	}
}

func TestCasbinMW_EnforcerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	policies := mocks.NewMockPolicyService()
	policies.CheckPermissionFunc = func(role, resource, action string) (bool, error) {
		return false, errors.New("adapter closed")
	}
	mw := NewCasbinMW(policies, mocks.NewMockAuditLogger(), zap.NewNop())

	r := gin.New()
	r.GET("/admin/policies", func(c *gin.Context) {
		c.Set(ContextIdentity, &domain.Identity{ID: "a1", Role: domain.RoleAdmin})
		c.Next()
	}, mw.Enforce(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/policies", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
