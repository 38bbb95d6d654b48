package services

import (
	"strings"
	"testing"
	"time"

	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/mocks"
	"go.uber.org/zap"
)

const testPassword = "Abcd123!"

// serviceFixture wires the services over in-memory mocks
type serviceFixture struct {
	users     *mocks.MockIdentityRepository
	workers   *mocks.MockWorkerRepository
	passwords *mocks.MockPasswordService
	tokens    *mocks.MockTokenService
	provider  *mocks.MockVerificationProvider
	notifier  *mocks.MockNotificationService
	audit     *mocks.MockAuditLogger
	engine    domain.OTPEngine
	verifier  *VerificationServiceImpl
	guard     *AccountGuard
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		users:     mocks.NewMockIdentityRepository(domain.KindUser),
		workers:   mocks.NewMockWorkerRepository(),
		passwords: mocks.NewMockPasswordService(),
		tokens:    mocks.NewMockTokenService(),
		provider:  mocks.NewMockVerificationProvider(false),
		notifier:  mocks.NewMockNotificationService(),
		audit:     mocks.NewMockAuditLogger(),
	}
	f.engine = NewOTPEngine(OTPConfig{Length: 6, TTL: 10 * time.Minute, HashCost: 10})
	f.verifier = NewVerificationService(f.provider, f.engine, f.notifier, f.audit, zap.NewNop(), VerificationConfig{
		DefaultCountryCode: "+91",
		ProviderTimeout:    time.Second,
		ProviderAttempts:   2,
	}).(*VerificationServiceImpl)
	f.guard = NewAccountGuard(LockoutPolicy{MaxAttempts: 5, Duration: 30 * time.Minute}, f.audit, zap.NewNop())
	return f
}

func (f *serviceFixture) deps() AuthDeps {
	return AuthDeps{
		Passwords: f.passwords,
		Tokens:    f.tokens,
		Verifier:  f.verifier,
		Guard:     f.guard,
		Audit:     f.audit,
		Logger:    zap.NewNop(),
	}
}

func (f *serviceFixture) userService() *UserAuthServiceImpl {
	return NewUserAuthService(f.users, f.notifier, f.deps(), UserAuthConfig{ResetTokenTTL: 10 * time.Minute}).(*UserAuthServiceImpl)
}

func (f *serviceFixture) workerService() *WorkerAuthServiceImpl {
	return NewWorkerAuthService(f.workers, f.deps()).(*WorkerAuthServiceImpl)
}

// seedUser stores a user whose password is testPassword
func (f *serviceFixture) seedUser(username, phone string) *domain.Identity {
	return f.users.Seed(&domain.Identity{
		Username:     username,
		Email:        username + "@example.com",
		Phone:        phone,
		PasswordHash: "hashed_" + testPassword,
		Role:         domain.RoleUser,
	})
}

// seedWorker stores a phone-verified worker in the given status
func (f *serviceFixture) seedWorker(phone string, status domain.AccountStatus) *domain.Identity {
	return f.workers.Seed(&domain.Identity{
		Name:            "Ravi",
		Phone:           phone,
		PasswordHash:    "hashed_" + testPassword,
		Role:            domain.RoleWorker,
		IsPhoneVerified: true,
		Worker: &domain.WorkerProfile{
			AccountStatus:   status,
			PrimaryCategory: "plumbing",
		},
	})
}

// lastCode extracts the code from the most recent OTP SMS
func lastCode(t *testing.T, notifier *mocks.MockNotificationService) string {
	t.Helper()
	msg := notifier.LastSMS()
	fields := strings.Fields(msg.Body)
	if len(fields) == 0 {
		t.Fatal("no OTP SMS was sent")
	}
	return fields[len(fields)-1]
}
