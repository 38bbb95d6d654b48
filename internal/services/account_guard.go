package services

import (
	"context"
	"fmt"
	"time"

	"github.com/you/homeauth/domain"
	"go.uber.org/zap"
)

type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// AccessOptions selects the worker gates applied to an authenticated request
type AccessOptions struct {
	RequireActive   bool
	RequireVerified bool
}

// AccountGuard owns failed-attempt counting, lockout and worker status gates
type AccountGuard struct {
	policy LockoutPolicy
	audit  domain.AuditLogger
	logger *zap.Logger
}

// NewAccountGuard creates a guard with the given lockout policy
func NewAccountGuard(policy LockoutPolicy, audit domain.AuditLogger, logger *zap.Logger) *AccountGuard {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 5
	}
	if policy.Duration <= 0 {
		policy.Duration = 30 * time.Minute
	}
	return &AccountGuard{policy: policy, audit: audit, logger: logger.Named("guard")}
}

// CheckLock returns a *domain.LockedError while the lock window is open
func (g *AccountGuard) CheckLock(identity *domain.Identity, now time.Time) error {
	if identity.IsLocked(now) {
		return &domain.LockedError{Remaining: identity.LockUntil.Sub(now)}
	}
	return nil
}

// CheckLoginStatus rejects suspended and deactivated workers before the password is compared
func (g *AccountGuard) CheckLoginStatus(identity *domain.Identity) error {
	switch identity.Status() {
	case domain.StatusSuspended:
		return domain.ErrAccountSuspended
	case domain.StatusDeactivated:
		return domain.ErrAccountDeactivated
	}
	return nil
}

// CheckAccess applies the worker gates in order: suspended, deactivated,
// pending approval, unverified phone, then the manual verified flag.
func (g *AccountGuard) CheckAccess(identity *domain.Identity, opts AccessOptions) error {
	if identity.Kind != domain.KindWorker {
		return nil
	}
	if err := g.CheckLoginStatus(identity); err != nil {
		return err
	}
	if opts.RequireActive && identity.Status() == domain.StatusPendingApproval {
		return domain.ErrPendingApproval
	}
	if !identity.IsPhoneVerified && identity.Role != domain.RoleAdmin {
		return domain.ErrVerificationRequired
	}
	if opts.RequireVerified && (identity.Worker == nil || !identity.Worker.Verified) {
		return domain.ErrWorkerNotVerified
	}
	return nil
}

// RecordFailure counts a bad password and opens the lock window once the threshold is reached
func (g *AccountGuard) RecordFailure(ctx context.Context, repo domain.IdentityRepository, identity *domain.Identity, ip string, now time.Time) error {
	attempts := identity.LoginAttempts + 1

	var lockUntil *time.Time
	if attempts >= g.policy.MaxAttempts && !identity.IsLocked(now) {
		until := now.Add(g.policy.Duration)
		lockUntil = &until
	}

	if err := repo.RecordFailedLogin(ctx, identity.ID, lockUntil); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	identity.LoginAttempts = attempts
	if lockUntil != nil {
		identity.LockUntil = lockUntil
	}

	g.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginFailureEvent, identity.Kind, identity.ID).
		WithIP(ip).
		WithMetadata("attempts", attempts).
		WithError(domain.ErrInvalidCredentials))
	if lockUntil != nil {
		g.audit.LogEvent(ctx, domain.NewAuditEvent(domain.AccountLockedEvent, identity.Kind, identity.ID).
			WithIP(ip).
			WithMetadata("lock_until", lockUntil.Format(time.RFC3339)))
	}
	return nil
}

// RecordSuccess clears the counters and records the login; failures are logged only
func (g *AccountGuard) RecordSuccess(ctx context.Context, repo domain.IdentityRepository, identity *domain.Identity, ip string, now time.Time) {
	if err := repo.RecordSuccessfulLogin(ctx, identity.ID, now, ip); err != nil {
		g.logger.Warn("failed to record successful login",
			zap.String("identity_id", identity.ID),
			zap.Error(err))
		return
	}
	identity.LoginAttempts = 0
	identity.LockUntil = nil
	identity.LastLoginAt = &now
	identity.LastLoginIP = ip
}
