package services

import (
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/infrastructure/auth"
)

// CasbinEnforcerWrapper wraps the real Casbin enforcer to implement our interface
type CasbinEnforcerWrapper struct {
	enforcer *casbin.Enforcer
}

// NewCasbinEnforcerWrapper creates a wrapper for the real Casbin enforcer
func NewCasbinEnforcerWrapper(enforcer *casbin.Enforcer) domain.CasbinEnforcer {
	return &CasbinEnforcerWrapper{enforcer: enforcer}
}

func (w *CasbinEnforcerWrapper) AddPolicy(params ...interface{}) (bool, error) {
	return w.enforcer.AddPolicy(params...)
}

func (w *CasbinEnforcerWrapper) RemovePolicy(params ...interface{}) (bool, error) {
	return w.enforcer.RemovePolicy(params...)
}

func (w *CasbinEnforcerWrapper) Enforce(rvals ...interface{}) (bool, error) {
	return w.enforcer.Enforce(rvals...)
}

func (w *CasbinEnforcerWrapper) GetPolicy() ([][]string, error) {
	return w.enforcer.GetPolicy()
}

// PolicyServiceImpl implements domain.PolicyService using Casbin.
// Callers pass token roles; rules are stored against role_<role> subjects.
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer *casbin.Enforcer) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: NewCasbinEnforcerWrapper(enforcer),
	}
}

// NewPolicyServiceWithEnforcer creates a new policy service with a CasbinEnforcer interface (for testing)
func NewPolicyServiceWithEnforcer(enforcer domain.CasbinEnforcer) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: enforcer,
	}
}

// AddPolicy implements domain.PolicyService. The adapter's auto-save persists the rule.
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	if err := validateRule(role, resource, action); err != nil {
		return err
	}
	_, err := p.enforcer.AddPolicy(subject(role), resource, action)
	return err
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	if err := validateRule(role, resource, action); err != nil {
		return err
	}
	_, err := p.enforcer.RemovePolicy(subject(role), resource, action)
	return err
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	return p.enforcer.Enforce(subject(role), resource, action)
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, _ := p.enforcer.GetPolicy()
	return policies
}

// subject accepts both "admin" and "role_admin"
func subject(role string) string {
	if strings.HasPrefix(role, "role_") {
		return role
	}
	return auth.RoleSubject(role)
}

func validateRule(role, resource, action string) error {
	if strings.TrimSpace(role) == "" || strings.TrimSpace(resource) == "" || strings.TrimSpace(action) == "" {
		return domain.NewValidationError("role, resource and action are required")
	}
	return nil
}
