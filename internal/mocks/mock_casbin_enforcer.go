package mocks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/you/homeauth/domain"
)

// MockCasbinEnforcer implements the CasbinEnforcer interface for testing.
// The default Enforce mimics keyMatch2 on paths ending in /* and regexMatch on actions.
type MockCasbinEnforcer struct {
	AddPolicyFunc    func(params ...interface{}) (bool, error)
	RemovePolicyFunc func(params ...interface{}) (bool, error)
	EnforceFunc      func(rvals ...interface{}) (bool, error)
	GetPolicyFunc    func() ([][]string, error)
	policies         [][]string
}

// Compile-time interface compliance verification
var _ domain.CasbinEnforcer = (*MockCasbinEnforcer)(nil)

// NewMockCasbinEnforcer creates a new MockCasbinEnforcer seeded with the admin policy
func NewMockCasbinEnforcer() *MockCasbinEnforcer {
	return &MockCasbinEnforcer{
		policies: [][]string{
			{"role_admin", "/admin/*", "(GET|POST|PUT|DELETE)"},
		},
	}
}

// AddPolicy adds a new policy rule; duplicates report false
func (m *MockCasbinEnforcer) AddPolicy(params ...interface{}) (bool, error) {
	if m.AddPolicyFunc != nil {
		return m.AddPolicyFunc(params...)
	}
	rule := toRule(params)
	if m.index(rule) >= 0 {
		return false, nil
	}
	m.policies = append(m.policies, rule)
	return true, nil
}

// RemovePolicy removes a policy rule; missing rules report false
func (m *MockCasbinEnforcer) RemovePolicy(params ...interface{}) (bool, error) {
	if m.RemovePolicyFunc != nil {
		return m.RemovePolicyFunc(params...)
	}
	i := m.index(toRule(params))
	if i < 0 {
		return false, nil
	}
	m.policies = append(m.policies[:i], m.policies[i+1:]...)
	return true, nil
}

// Enforce checks (sub, obj, act) against the stored rules
func (m *MockCasbinEnforcer) Enforce(rvals ...interface{}) (bool, error) {
	if m.EnforceFunc != nil {
		return m.EnforceFunc(rvals...)
	}
	if len(rvals) != 3 {
		return false, fmt.Errorf("expected 3 request values, got %d", len(rvals))
	}
	req := toRule(rvals)
	for _, p := range m.policies {
		if p[0] != req[0] || !matchPath(req[1], p[1]) {
			continue
		}
		if ok, _ := regexp.MatchString(p[2], req[2]); ok {
			return true, nil
		}
	}
	return false, nil
}

// GetPolicy returns a copy of all policies
func (m *MockCasbinEnforcer) GetPolicy() ([][]string, error) {
	if m.GetPolicyFunc != nil {
		return m.GetPolicyFunc()
	}
	result := make([][]string, len(m.policies))
	for i, policy := range m.policies {
		result[i] = append([]string(nil), policy...)
	}
	return result, nil
}

// SetPolicies replaces the stored policies (test helper)
func (m *MockCasbinEnforcer) SetPolicies(policies [][]string) {
	m.policies = nil
	for _, policy := range policies {
		m.policies = append(m.policies, append([]string(nil), policy...))
	}
}

func (m *MockCasbinEnforcer) index(rule []string) int {
	for i, p := range m.policies {
		if strings.Join(p, "\x00") == strings.Join(rule, "\x00") {
			return i
		}
	}
	return -1
}

func toRule(params []interface{}) []string {
	rule := make([]string, len(params))
	for i, p := range params {
		rule[i] = fmt.Sprint(p)
	}
	return rule
}

func matchPath(path, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}
