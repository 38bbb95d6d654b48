package mocks

import (
	"context"

	"github.com/you/homeauth/domain"
)

// MockUserAuthService implements domain.UserAuthService interface for testing.
// Unset funcs return domain.ErrUnauthorized so unexpected calls are visible.
type MockUserAuthService struct {
	LoginFunc          func(ctx context.Context, identifier, password, ip string) (*domain.AuthResult, error)
	RequestOTPFunc     func(ctx context.Context, phone string) error
	VerifyOTPFunc      func(ctx context.Context, phone, code string) (*domain.AuthResult, error)
	RefreshTokenFunc   func(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	LogoutFunc         func(ctx context.Context, identityID string) error
	ChangePasswordFunc func(ctx context.Context, identityID, currentPassword, newPassword string) error
	GetProfileFunc     func(ctx context.Context, identityID string) (*domain.Identity, error)
	RegisterFunc       func(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResult, error)
	ForgotPasswordFunc func(ctx context.Context, email string) (*domain.PasswordResetTicket, error)
	ResetPasswordFunc  func(ctx context.Context, token, newPassword string) error
}

// Compile-time interface compliance verification
var _ domain.UserAuthService = (*MockUserAuthService)(nil)

// NewMockUserAuthService creates a new MockUserAuthService
func NewMockUserAuthService() *MockUserAuthService {
	return &MockUserAuthService{}
}

func (m *MockUserAuthService) Login(ctx context.Context, identifier, password, ip string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, identifier, password, ip)
	}
	return nil, domain.ErrUnauthorized
}

func (m *MockUserAuthService) RequestOTP(ctx context.Context, phone string) error {
	if m.RequestOTPFunc != nil {
		return m.RequestOTPFunc(ctx, phone)
	}
	return domain.ErrUnauthorized
}

func (m *MockUserAuthService) VerifyOTP(ctx context.Context, phone, code string) (*domain.AuthResult, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, phone, code)
	}
	return nil, domain.ErrUnauthorized
}

func (m *MockUserAuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return nil, domain.ErrUnauthorized
}

func (m *MockUserAuthService) Logout(ctx context.Context, identityID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, identityID)
	}
	return domain.ErrUnauthorized
}

func (m *MockUserAuthService) ChangePassword(ctx context.Context, identityID, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, identityID, currentPassword, newPassword)
	}
	return domain.ErrUnauthorized
}

func (m *MockUserAuthService) GetProfile(ctx context.Context, identityID string) (*domain.Identity, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, identityID)
	}
	return nil, domain.ErrUnauthorized
}

func (m *MockUserAuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return nil, domain.ErrUnauthorized
}

func (m *MockUserAuthService) ForgotPassword(ctx context.Context, email string) (*domain.PasswordResetTicket, error) {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil, domain.ErrUnauthorized
}

func (m *MockUserAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, newPassword)
	}
	return domain.ErrUnauthorized
}
