package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/you/homeauth/domain"
	"go.uber.org/zap"
)

type UserAuthConfig struct {
	ResetTokenTTL time.Duration
}

// UserAuthServiceImpl implements domain.UserAuthService
type UserAuthServiceImpl struct {
	*AuthServiceImpl
	notifier domain.NotificationService
	config   UserAuthConfig
}

// NewUserAuthService creates the user account service
func NewUserAuthService(
	repo domain.IdentityRepository,
	notifier domain.NotificationService,
	deps AuthDeps,
	config UserAuthConfig,
) domain.UserAuthService {
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = 10 * time.Minute
	}
	return &UserAuthServiceImpl{
		AuthServiceImpl: NewAuthService(repo, deps),
		notifier:        notifier,
		config:          config,
	}
}

// Register implements domain.UserAuthService
func (s *UserAuthServiceImpl) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResult, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username != "" {
		if err := domain.ValidateUsername(username); err != nil {
			return nil, err
		}
	}
	if username == "" && email == "" {
		return nil, domain.ErrMissingIdentifier
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.NewValidationError("email is invalid")
		}
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	var phone string
	if strings.TrimSpace(req.Phone) != "" {
		normalized, err := s.verifier.NormalizePhone(req.Phone)
		if err != nil {
			return nil, err
		}
		phone = normalized
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if exists {
		return nil, domain.ErrIdentityExists
	}

	hash, err := s.passwordSvc.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	identity := &domain.Identity{
		Username:     username,
		Email:        email,
		Phone:        phone,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.repo.Create(ctx, identity); err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.RegistrationEvent, identity.Kind, identity.ID))
	return s.issue(ctx, identity, domain.LoginEvent, "", "registration")
}

// ForgotPassword implements domain.UserAuthService. An unknown email yields an
// empty ticket and no error so callers cannot discover accounts.
func (s *UserAuthServiceImpl) ForgotPassword(ctx context.Context, email string) (*domain.PasswordResetTicket, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}

	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return &domain.PasswordResetTicket{}, nil
		}
		return nil, err
	}

	token, err := newResetToken()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(s.config.ResetTokenTTL)
	identity.PasswordResetTokenHash = hashResetToken(token)
	identity.PasswordResetExpires = &expires
	if err := s.repo.Update(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to save reset token: %w", err)
	}

	body := fmt.Sprintf("Use this token to reset your password: %s\nIt expires in %d minutes.",
		token, int(s.config.ResetTokenTTL.Minutes()))
	if err := s.notifier.SendEmail(ctx, identity.Email, "Password reset", body); err != nil {
		s.logger.Warn("failed to send reset email",
			zap.String("identity_id", identity.ID),
			zap.Error(err))
	}
	return &domain.PasswordResetTicket{Token: token}, nil
}

// ResetPassword implements domain.UserAuthService
func (s *UserAuthServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return domain.NewValidationError("token and new password are required")
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	identity, err := s.repo.FindByResetTokenHash(ctx, hashResetToken(token), s.now())
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}

	if err := s.setPassword(ctx, identity, newPassword); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, identity.Kind, identity.ID).
		WithMetadata("method", "email_token"))
	return nil
}

// newResetToken returns 32 random bytes, hex encoded
func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
