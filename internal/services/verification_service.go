package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/you/homeauth/domain"
	"go.uber.org/zap"
)

// StatusApproved is the provider status of an accepted code
const StatusApproved = "approved"

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

type VerificationConfig struct {
	DefaultCountryCode string
	ProviderTimeout    time.Duration
	ProviderAttempts   int
}

// VerificationServiceImpl implements domain.VerificationService.
// The remote provider is preferred; after its attempts are exhausted a local code is sent by SMS.
type VerificationServiceImpl struct {
	provider domain.VerificationProvider
	engine   domain.OTPEngine
	notifier domain.NotificationService
	audit    domain.AuditLogger
	logger   *zap.Logger
	config   VerificationConfig
	now      func() time.Time
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	provider domain.VerificationProvider,
	engine domain.OTPEngine,
	notifier domain.NotificationService,
	audit domain.AuditLogger,
	logger *zap.Logger,
	config VerificationConfig,
) domain.VerificationService {
	if config.ProviderAttempts < 1 {
		config.ProviderAttempts = 1
	}
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = 10 * time.Second
	}
	return &VerificationServiceImpl{
		provider: provider,
		engine:   engine,
		notifier: notifier,
		audit:    audit,
		logger:   logger.Named("verification"),
		config:   config,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NormalizePhone implements domain.VerificationService
func (s *VerificationServiceImpl) NormalizePhone(raw string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	if p == "" {
		return "", domain.NewValidationError("phone is required")
	}
	if !strings.HasPrefix(p, "+") {
		if s.config.DefaultCountryCode == "" {
			return "", domain.ErrInvalidPhoneFormat
		}
		p = s.config.DefaultCountryCode + p
	}
	if !e164.MatchString(p) {
		return "", domain.ErrInvalidPhoneFormat
	}
	return p, nil
}

// SendOTP implements domain.VerificationService
func (s *VerificationServiceImpl) SendOTP(ctx context.Context, store domain.OTPStore, identity *domain.Identity, phone string, purpose domain.OTPPurpose) error {
	if s.provider.Enabled() {
		err := s.sendViaProvider(ctx, phone)
		if err == nil {
			if err := s.engine.Issue(identity, "", purpose, domain.ChannelProvider, s.now()); err != nil {
				return err
			}
			if err := store.SaveOTP(ctx, identity.ID, identity.OTP); err != nil {
				return fmt.Errorf("failed to save OTP state: %w", err)
			}
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PhoneOTPRequestEvent, identity.Kind, identity.ID).
				WithPhone(phone).
				WithMetadata("purpose", string(purpose)).
				WithMetadata("channel", string(domain.ChannelProvider)))
			return nil
		}
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PhoneOTPFallbackEvent, identity.Kind, identity.ID).
			WithPhone(phone).
			WithMetadata("purpose", string(purpose)).
			WithError(err))
	}

	code, err := s.engine.Generate()
	if err != nil {
		return err
	}
	if err := s.engine.Issue(identity, code, purpose, domain.ChannelLocal, s.now()); err != nil {
		return err
	}
	if err := store.SaveOTP(ctx, identity.ID, identity.OTP); err != nil {
		return fmt.Errorf("failed to save OTP state: %w", err)
	}

	s.logger.Info("local otp issued",
		zap.String("identity_id", identity.ID),
		zap.String("purpose", string(purpose)))
	if err := s.notifier.SendSMS(ctx, phone, otpMessage(identity.Kind, purpose, code)); err != nil {
		return fmt.Errorf("failed to send OTP SMS: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PhoneOTPRequestEvent, identity.Kind, identity.ID).
		WithPhone(phone).
		WithMetadata("purpose", string(purpose)).
		WithMetadata("channel", string(domain.ChannelLocal)))
	return nil
}

// CheckOTP implements domain.VerificationService. On success the pending code is
// cleared in memory and in the store; an expired code is cleared as well.
func (s *VerificationServiceImpl) CheckOTP(ctx context.Context, store domain.OTPStore, identity *domain.Identity, code string, purposes ...domain.OTPPurpose) (*domain.OTPState, error) {
	code = strings.TrimSpace(code)
	now := s.now()

	state, err := s.engine.Pending(identity, purposes, now)
	if err != nil {
		if errors.Is(err, domain.ErrOTPExpired) {
			if saveErr := store.SaveOTP(ctx, identity.ID, nil); saveErr != nil {
				return nil, fmt.Errorf("failed to clear expired OTP: %w", saveErr)
			}
		}
		s.auditFailure(ctx, identity, err)
		return nil, err
	}

	switch state.Channel {
	case domain.ChannelProvider:
		if err := s.checkViaProvider(ctx, identity.Phone, code); err != nil {
			s.auditFailure(ctx, identity, err)
			return nil, err
		}
		identity.OTP = nil
	default:
		if _, err := s.engine.Consume(identity, code, purposes, now); err != nil {
			s.auditFailure(ctx, identity, err)
			return nil, err
		}
	}

	if err := store.SaveOTP(ctx, identity.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to clear OTP state: %w", err)
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PhoneOTPVerifyEvent, identity.Kind, identity.ID).
		WithPhone(identity.Phone).
		WithMetadata("purpose", string(state.Purpose)).
		WithMetadata("channel", string(state.Channel)))
	return state, nil
}

// sendViaProvider makes up to ProviderAttempts bounded attempts and logs each failure
func (s *VerificationServiceImpl) sendViaProvider(ctx context.Context, phone string) error {
	var lastErr error
	for attempt := 1; attempt <= s.config.ProviderAttempts; attempt++ {
		status, err := s.withTimeout(ctx, func(ctx context.Context) (string, error) {
			return s.provider.SendVerification(ctx, phone)
		})
		if err == nil {
			s.logger.Info("provider verification sent",
				zap.String("status", status),
				zap.Int("attempt", attempt))
			return nil
		}
		lastErr = err
		s.logger.Warn("provider verification send failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.config.ProviderAttempts),
			zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	s.logger.Warn("provider unavailable, falling back to local otp", zap.Error(lastErr))
	return lastErr
}

func (s *VerificationServiceImpl) checkViaProvider(ctx context.Context, phone, code string) error {
	if !s.provider.Enabled() {
		return domain.ErrProviderDisabled
	}
	status, err := s.withTimeout(ctx, func(ctx context.Context) (string, error) {
		return s.provider.CheckVerification(ctx, phone, code)
	})
	if err != nil {
		return fmt.Errorf("provider verification check: %w", err)
	}
	if status != StatusApproved {
		return domain.ErrOTPInvalid
	}
	return nil
}

// withTimeout bounds a provider call whose client does not honour contexts itself
func (s *VerificationServiceImpl) withTimeout(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ProviderTimeout)
	defer cancel()

	type result struct {
		status string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		status, err := call(ctx)
		done <- result{status: status, err: err}
	}()

	select {
	case r := <-done:
		return r.status, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *VerificationServiceImpl) auditFailure(ctx context.Context, identity *domain.Identity, err error) {
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PhoneOTPFailureEvent, identity.Kind, identity.ID).
		WithPhone(identity.Phone).
		WithError(err))
}

func otpMessage(kind domain.IdentityKind, purpose domain.OTPPurpose, code string) string {
	if kind == domain.KindWorker {
		return fmt.Sprintf("Your %s code for worker account is %s", purpose, code)
	}
	return fmt.Sprintf("Your %s code is %s", purpose, code)
}
