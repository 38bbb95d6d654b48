package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/you/homeauth/domain"
	"go.uber.org/zap"
)

// WorkerAuthServiceImpl implements domain.WorkerAuthService
type WorkerAuthServiceImpl struct {
	*AuthServiceImpl
	workers domain.WorkerRepository
}

// NewWorkerAuthService creates the worker account service
func NewWorkerAuthService(workers domain.WorkerRepository, deps AuthDeps) domain.WorkerAuthService {
	return &WorkerAuthServiceImpl{
		AuthServiceImpl: NewAuthService(workers, deps),
		workers:         workers,
	}
}

// Register implements domain.WorkerAuthService. A phone that is already
// registered gets a login OTP instead of a conflict.
func (s *WorkerAuthServiceImpl) Register(ctx context.Context, req domain.WorkerRegisterRequest) (*domain.RegisterOutcome, error) {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.PrimaryCategory)
	if name == "" || strings.TrimSpace(req.Phone) == "" || req.Password == "" || category == "" {
		return nil, domain.NewValidationError("name, phone, password and primaryCategory are required")
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	phone, err := s.verifier.NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	existing, err := s.workers.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		if err := s.guard.CheckLoginStatus(existing); err != nil {
			return nil, err
		}
		if err := s.verifier.SendOTP(ctx, s.workers, existing, phone, domain.PurposeLogin); err != nil {
			return nil, err
		}
		return &domain.RegisterOutcome{Identity: existing, ExistingPhone: true}, nil
	case !errors.Is(err, domain.ErrIdentityNotFound):
		return nil, fmt.Errorf("failed to check existing phone: %w", err)
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username != "" {
		if err := domain.ValidateUsername(username); err != nil {
			return nil, err
		}
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.NewValidationError("email is invalid")
		}
	}
	exists, err := s.workers.ExistsByUsernameOrEmail(ctx, username, email)
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
		Name:         name,
		PasswordHash: hash,
		Role:         domain.RoleWorker,
		Worker: &domain.WorkerProfile{
			AccountStatus:   domain.StatusPendingApproval,
			PrimaryCategory: category,
			Skills:          req.Skills,
			YearsExperience: req.YearsExperience,
			PricePerHour:    req.PricePerHour,
			Latitude:        req.Latitude,
			Longitude:       req.Longitude,
			ServiceRadiusKM: 10,
		},
	}
	if err := s.workers.Create(ctx, identity); err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.RegistrationEvent, identity.Kind, identity.ID).
		WithPhone(phone).
		WithMetadata("primary_category", category))

	if err := s.verifier.SendOTP(ctx, s.workers, identity, phone, domain.PurposeSignup); err != nil {
		return nil, err
	}
	return &domain.RegisterOutcome{Identity: identity}, nil
}

// ForgotPassword implements domain.WorkerAuthService. Unknown or malformed
// phones succeed silently so callers cannot discover accounts.
func (s *WorkerAuthServiceImpl) ForgotPassword(ctx context.Context, phone string) error {
	if strings.TrimSpace(phone) == "" {
		return domain.NewValidationError("phone is required")
	}
	normalized, err := s.verifier.NormalizePhone(phone)
	if err != nil {
		return nil
	}

	identity, err := s.workers.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil
		}
		return err
	}
	return s.verifier.SendOTP(ctx, s.workers, identity, normalized, domain.PurposeReset)
}

// ResetPassword implements domain.WorkerAuthService
func (s *WorkerAuthServiceImpl) ResetPassword(ctx context.Context, phone, code, newPassword string) error {
	if strings.TrimSpace(phone) == "" || strings.TrimSpace(code) == "" || newPassword == "" {
		return domain.NewValidationError("phone, code and new password are required")
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}
	normalized, err := s.verifier.NormalizePhone(phone)
	if err != nil {
		return err
	}

	identity, err := s.workers.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return domain.ErrNoOTPPending
		}
		return err
	}
	if _, err := s.verifier.CheckOTP(ctx, s.workers, identity, code, domain.PurposeReset); err != nil {
		return err
	}

	if err := s.setPassword(ctx, identity, newPassword); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, identity.Kind, identity.ID).
		WithMetadata("method", "phone_otp"))
	return nil
}

// UpdateProfile implements domain.WorkerAuthService
func (s *WorkerAuthServiceImpl) UpdateProfile(ctx context.Context, identityID string, update *domain.WorkerProfileUpdate) (*domain.Identity, error) {
	if update == nil {
		return nil, domain.NewValidationError("no profile fields supplied")
	}
	if err := validateProfileUpdate(update); err != nil {
		return nil, err
	}
	return s.workers.UpdateProfile(ctx, identityID, update)
}

// SetAvailability implements domain.WorkerAuthService
func (s *WorkerAuthServiceImpl) SetAvailability(ctx context.Context, identityID string, available bool) error {
	identity, err := s.workers.FindByID(ctx, identityID)
	if err != nil {
		return err
	}
	if err := s.guard.CheckAccess(identity, AccessOptions{RequireActive: true}); err != nil {
		return err
	}
	return s.workers.SetAvailability(ctx, identityID, available)
}

// SetAccountStatus implements domain.WorkerAuthService. Suspending or
// deactivating a worker also revokes its outstanding tokens.
func (s *WorkerAuthServiceImpl) SetAccountStatus(ctx context.Context, workerID string, status domain.AccountStatus, reason string) error {
	if !status.Valid() {
		return domain.ErrInvalidAccountStatus
	}

	identity, err := s.workers.FindByID(ctx, workerID)
	if err != nil {
		return err
	}
	from := identity.Status()

	if err := s.workers.SetAccountStatus(ctx, workerID, status, strings.TrimSpace(reason)); err != nil {
		return err
	}
	if status == domain.StatusSuspended || status == domain.StatusDeactivated {
		if err := s.workers.IncrementTokenVersion(ctx, workerID); err != nil {
			s.logger.Warn("failed to revoke worker tokens",
				zap.String("worker_id", workerID),
				zap.Error(err))
		}
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.WorkerStatusEvent, domain.KindWorker, workerID).
		WithMetadata("from", string(from)).
		WithMetadata("to", string(status)))
	return nil
}

// SetVerified implements domain.WorkerAuthService
func (s *WorkerAuthServiceImpl) SetVerified(ctx context.Context, workerID string, verified bool) error {
	if _, err := s.workers.FindByID(ctx, workerID); err != nil {
		return err
	}
	if err := s.workers.SetVerified(ctx, workerID, verified); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.WorkerVerifiedEvent, domain.KindWorker, workerID).
		WithMetadata("verified", verified))
	return nil
}

func validateProfileUpdate(u *domain.WorkerProfileUpdate) error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return domain.NewValidationError("name cannot be empty")
	}
	if u.Email != nil && *u.Email != "" {
		if _, err := mail.ParseAddress(*u.Email); err != nil {
			return domain.NewValidationError("email is invalid")
		}
	}
	if u.YearsExperience != nil && *u.YearsExperience < 0 {
		return domain.NewValidationError("yearsExperience cannot be negative")
	}
	if u.PricePerHour != nil && *u.PricePerHour < 0 {
		return domain.NewValidationError("pricePerHour cannot be negative")
	}
	if u.MinimumCharge != nil && *u.MinimumCharge < 0 {
		return domain.NewValidationError("minimumCharge cannot be negative")
	}
	if u.Latitude != nil && (*u.Latitude < -90 || *u.Latitude > 90) {
		return domain.NewValidationError("latitude out of range")
	}
	if u.Longitude != nil && (*u.Longitude < -180 || *u.Longitude > 180) {
		return domain.NewValidationError("longitude out of range")
	}
	if u.ServiceRadiusKM != nil && *u.ServiceRadiusKM <= 0 {
		return domain.NewValidationError("serviceRadiusKm must be positive")
	}
	return nil
}
