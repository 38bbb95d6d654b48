package domain

import (
	"context"
	"time"
)

// IdentityRepository defines credential store operations for one identity kind
type IdentityRepository interface {
	Kind() IdentityKind
	Create(ctx context.Context, identity *Identity) error
	FindByID(ctx context.Context, id string) (*Identity, error)
	// FindByHandle looks up the one column ClassifyHandle picks for handle
	FindByHandle(ctx context.Context, handle string) (*Identity, error)
	FindByPhone(ctx context.Context, phone string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*Identity, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Update(ctx context.Context, identity *Identity) error
	SaveOTP(ctx context.Context, id string, otp *OTPState) error
	IncrementTokenVersion(ctx context.Context, id string) error
	RecordFailedLogin(ctx context.Context, id string, lockUntil *time.Time) error
	RecordSuccessfulLogin(ctx context.Context, id string, at time.Time, ip string) error
	ListLegacyPasswords(ctx context.Context, limit int) ([]*Identity, error)
}

// WorkerRepository adds worker-only mutations
type WorkerRepository interface {
	IdentityRepository
	UpdateProfile(ctx context.Context, id string, update *WorkerProfileUpdate) (*Identity, error)
	SetAvailability(ctx context.Context, id string, available bool) error
	SetAccountStatus(ctx context.Context, id string, status AccountStatus, reason string) error
	SetVerified(ctx context.Context, id string, verified bool) error
	// TouchActivity records the last authenticated request without touching lockout state
	TouchActivity(ctx context.Context, id string, at time.Time, ip string) error
}

// AuthService defines authentication business logic shared by users and workers
type AuthService interface {
	Login(ctx context.Context, identifier, password, ip string) (*AuthResult, error)
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, identityID string) error
	ChangePassword(ctx context.Context, identityID, currentPassword, newPassword string) error
	GetProfile(ctx context.Context, identityID string) (*Identity, error)
}

// UserAuthService adds the user-only flows
type UserAuthService interface {
	AuthService
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	ForgotPassword(ctx context.Context, email string) (*PasswordResetTicket, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// WorkerAuthService adds the worker-only flows
type WorkerAuthService interface {
	AuthService
	Register(ctx context.Context, req WorkerRegisterRequest) (*RegisterOutcome, error)
	ForgotPassword(ctx context.Context, phone string) error
	ResetPassword(ctx context.Context, phone, code, newPassword string) error
	UpdateProfile(ctx context.Context, identityID string, update *WorkerProfileUpdate) (*Identity, error)
	SetAvailability(ctx context.Context, identityID string, available bool) error
	SetAccountStatus(ctx context.Context, workerID string, status AccountStatus, reason string) error
	SetVerified(ctx context.Context, workerID string, verified bool) error
}

// OTPEngine generates, hashes and consumes one-time codes held on an identity
type OTPEngine interface {
	Generate() (string, error)
	Hash(code string) (string, error)
	Compare(code, hash string) bool
	// Issue replaces any pending code; provider-channel codes carry no hash
	Issue(identity *Identity, code string, purpose OTPPurpose, channel OTPChannel, now time.Time) error
	// Pending returns the usable pending code, clearing it when expired
	Pending(identity *Identity, purposes []OTPPurpose, now time.Time) (*OTPState, error)
	// Consume checks a local code and clears it on success
	Consume(identity *Identity, code string, purposes []OTPPurpose, now time.Time) (*OTPState, error)
	TTL() time.Duration
}

// OTPStore persists the pending code of an identity
type OTPStore interface {
	SaveOTP(ctx context.Context, id string, otp *OTPState) error
}

// VerificationProvider is a remote SMS verification service
type VerificationProvider interface {
	Enabled() bool
	SendVerification(ctx context.Context, phone string) (string, error)
	CheckVerification(ctx context.Context, phone, code string) (string, error)
}

// VerificationService sends and checks OTPs with provider fallback
type VerificationService interface {
	NormalizePhone(raw string) (string, error)
	SendOTP(ctx context.Context, store OTPStore, identity *Identity, phone string, purpose OTPPurpose) error
	CheckOTP(ctx context.Context, store OTPStore, identity *Identity, code string, purposes ...OTPPurpose) (*OTPState, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines token operations
type TokenService interface {
	IssueTokens(identity *Identity) (*TokenPair, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (*TokenClaims, error)
}

// NotificationService defines notification operations
type NotificationService interface {
	SendSMS(ctx context.Context, to, message string) error
	SendEmail(ctx context.Context, to, subject, body string) error
}

// RateLimiter is a fixed-window counter
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	Subject      string `json:"sub"`
	Role         string `json:"role"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	TokenVersion int    `json:"token_version"`
	TokenType    string `json:"typ"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
}
