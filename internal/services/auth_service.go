package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/you/homeauth/domain"
	"go.uber.org/zap"
)

// AuthDeps are the collaborators shared by the user and worker auth services
type AuthDeps struct {
	Passwords domain.PasswordService
	Tokens    domain.TokenService
	Verifier  domain.VerificationService
	Guard     *AccountGuard
	Audit     domain.AuditLogger
	Logger    *zap.Logger
}

// AuthServiceImpl implements domain.AuthService over one identity repository
type AuthServiceImpl struct {
	repo        domain.IdentityRepository
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	verifier    domain.VerificationService
	guard       *AccountGuard
	audit       domain.AuditLogger
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates the authentication core for the repository's identity kind
func NewAuthService(repo domain.IdentityRepository, deps AuthDeps) *AuthServiceImpl {
	return &AuthServiceImpl{
		repo:        repo,
		passwordSvc: deps.Passwords,
		tokenSvc:    deps.Tokens,
		verifier:    deps.Verifier,
		guard:       deps.Guard,
		audit:       deps.Audit,
		logger:      deps.Logger.Named(string(repo.Kind())),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Login implements domain.AuthService.
// The lock is checked before the password so a locked account never reveals a correct guess.
func (s *AuthServiceImpl) Login(ctx context.Context, identifier, password, ip string) (*domain.AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, domain.NewValidationError("identifier and password are required")
	}

	identity, err := s.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginFailureEvent, s.repo.Kind(), "").
				WithIP(ip).
				WithError(domain.ErrInvalidCredentials))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}

	now := s.now()
	if err := s.guard.CheckLock(identity, now); err != nil {
		return nil, err
	}
	if err := s.guard.CheckLoginStatus(identity); err != nil {
		return nil, err
	}

	if !s.passwordSvc.Verify(identity.PasswordHash, password) {
		if err := s.guard.RecordFailure(ctx, s.repo, identity, ip, now); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidCredentials
	}

	if identity.Kind == domain.KindWorker && !identity.IsPhoneVerified && identity.Role != domain.RoleAdmin {
		return nil, domain.ErrVerificationRequired
	}

	s.guard.RecordSuccess(ctx, s.repo, identity, ip, now)
	return s.issue(ctx, identity, domain.LoginEvent, ip, "password")
}

// RequestOTP implements domain.AuthService
func (s *AuthServiceImpl) RequestOTP(ctx context.Context, phone string) error {
	normalized, err := s.verifier.NormalizePhone(phone)
	if err != nil {
		return err
	}

	identity, err := s.repo.FindByPhone(ctx, normalized)
	if err != nil {
		return err
	}
	if err := s.guard.CheckLoginStatus(identity); err != nil {
		return err
	}

	return s.verifier.SendOTP(ctx, s.repo, identity, normalized, domain.PurposeLogin)
}

// VerifyOTP implements domain.AuthService. Consuming a signup, login or
// verification code marks the phone verified and signs the identity in.
func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, phone, code string) (*domain.AuthResult, error) {
	if strings.TrimSpace(phone) == "" || strings.TrimSpace(code) == "" {
		return nil, domain.NewValidationError("phone and code are required")
	}
	normalized, err := s.verifier.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	identity, err := s.repo.FindByPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckLoginStatus(identity); err != nil {
		return nil, err
	}

	state, err := s.verifier.CheckOTP(ctx, s.repo, identity, code,
		domain.PurposeSignup, domain.PurposeLogin, domain.PurposeVerification)
	if err != nil {
		return nil, err
	}

	if state.Purpose.VerifiesPhone() && !identity.IsPhoneVerified {
		identity.IsPhoneVerified = true
		if err := s.repo.Update(ctx, identity); err != nil {
			return nil, fmt.Errorf("failed to mark phone verified: %w", err)
		}
	}

	return s.issue(ctx, identity, domain.LoginEvent, "", "otp")
}

// RefreshToken implements domain.AuthService.
// The token must belong to this identity kind and carry the current token version.
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domain.NewValidationError("refresh token is required")
	}

	claims, err := s.tokenSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidRefreshToken
	}
	if (claims.Role == domain.RoleWorker) != (s.repo.Kind() == domain.KindWorker) {
		return nil, domain.ErrInvalidRefreshToken
	}

	identity, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}
	if identity.TokenVersion != claims.TokenVersion {
		return nil, domain.ErrInvalidRefreshToken
	}
	if err := s.guard.CheckLoginStatus(identity); err != nil {
		return nil, err
	}

	tokens, err := s.tokenSvc.IssueTokens(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.TokenRefreshEvent, identity.Kind, identity.ID))
	return tokens, nil
}

// Logout implements domain.AuthService. Bumping the token version revokes
// every outstanding token of the identity.
func (s *AuthServiceImpl) Logout(ctx context.Context, identityID string) error {
	if err := s.repo.IncrementTokenVersion(ctx, identityID); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LogoutEvent, s.repo.Kind(), identityID))
	return nil
}

// ChangePassword implements domain.AuthService
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, identityID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return domain.NewValidationError("current and new password are required")
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	identity, err := s.repo.FindByID(ctx, identityID)
	if err != nil {
		return err
	}
	if !s.passwordSvc.Verify(identity.PasswordHash, currentPassword) {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordChangeEvent, identity.Kind, identity.ID).
			WithError(domain.ErrCurrentPasswordWrong))
		return domain.ErrCurrentPasswordWrong
	}

	if err := s.setPassword(ctx, identity, newPassword); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordChangeEvent, identity.Kind, identity.ID))
	return nil
}

// GetProfile implements domain.AuthService
func (s *AuthServiceImpl) GetProfile(ctx context.Context, identityID string) (*domain.Identity, error) {
	return s.repo.FindByID(ctx, identityID)
}

// lookup finds by handle first and retries with the normalized phone
func (s *AuthServiceImpl) lookup(ctx context.Context, identifier string) (*domain.Identity, error) {
	identity, err := s.repo.FindByHandle(ctx, identifier)
	if err == nil || !errors.Is(err, domain.ErrIdentityNotFound) {
		return identity, err
	}
	phone, perr := s.verifier.NormalizePhone(identifier)
	if perr != nil || phone == identifier {
		return nil, err
	}
	return s.repo.FindByPhone(ctx, phone)
}

// setPassword stores a new hash, drops any reset token and revokes outstanding tokens
func (s *AuthServiceImpl) setPassword(ctx context.Context, identity *domain.Identity, password string) error {
	hash, err := s.passwordSvc.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	identity.PasswordHash = hash
	identity.LegacyPassword = ""
	identity.PasswordResetTokenHash = ""
	identity.PasswordResetExpires = nil
	if err := s.repo.Update(ctx, identity); err != nil {
		return fmt.Errorf("failed to save password: %w", err)
	}
	if err := s.repo.IncrementTokenVersion(ctx, identity.ID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	identity.TokenVersion++
	return nil
}

func (s *AuthServiceImpl) issue(ctx context.Context, identity *domain.Identity, event domain.AuditEventType, ip, method string) (*domain.AuthResult, error) {
	tokens, err := s.tokenSvc.IssueTokens(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(event, identity.Kind, identity.ID).
		WithIP(ip).
		WithMetadata("method", method))
	s.logger.Debug("tokens issued",
		zap.String("identity_id", identity.ID),
		zap.String("method", method))
	return &domain.AuthResult{Identity: identity, Tokens: tokens}, nil
}
