package mocks

import (
	"context"
	"sync/atomic"

	"github.com/you/homeauth/domain"
)

// MockVerificationProvider implements domain.VerificationProvider for testing
type MockVerificationProvider struct {
	EnabledValue          bool
	SendVerificationFunc  func(ctx context.Context, phone string) (string, error)
	CheckVerificationFunc func(ctx context.Context, phone, code string) (string, error)

	SendCalls  atomic.Int32
	CheckCalls atomic.Int32
}

// NewMockVerificationProvider creates a provider that is enabled and approves every code
func NewMockVerificationProvider(enabled bool) *MockVerificationProvider {
	return &MockVerificationProvider{EnabledValue: enabled}
}

func (m *MockVerificationProvider) Enabled() bool {
	return m.EnabledValue
}

func (m *MockVerificationProvider) SendVerification(ctx context.Context, phone string) (string, error) {
	m.SendCalls.Add(1)
	if m.SendVerificationFunc != nil {
		return m.SendVerificationFunc(ctx, phone)
	}
	return "pending", nil
}

func (m *MockVerificationProvider) CheckVerification(ctx context.Context, phone, code string) (string, error) {
	m.CheckCalls.Add(1)
	if m.CheckVerificationFunc != nil {
		return m.CheckVerificationFunc(ctx, phone, code)
	}
	return "approved", nil
}

// Compile-time interface compliance verification
var _ domain.VerificationProvider = (*MockVerificationProvider)(nil)
