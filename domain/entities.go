package domain

import "time"

// IdentityKind distinguishes the two account variants sharing the auth core
type IdentityKind string

const (
	KindUser   IdentityKind = "user"
	KindWorker IdentityKind = "worker"
)

// Roles carried in tokens
const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// AccountStatus is the worker approval lifecycle
type AccountStatus string

const (
	StatusPendingApproval AccountStatus = "pending_approval"
	StatusActive          AccountStatus = "active"
	StatusSuspended       AccountStatus = "suspended"
	StatusDeactivated     AccountStatus = "deactivated"
)

// Valid reports whether s is one of the known statuses
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPendingApproval, StatusActive, StatusSuspended, StatusDeactivated:
		return true
	}
	return false
}

// OTPPurpose tags what a pending code may be used for
type OTPPurpose string

const (
	PurposeSignup       OTPPurpose = "signup"
	PurposeLogin        OTPPurpose = "login"
	PurposeReset        OTPPurpose = "reset"
	PurposeVerification OTPPurpose = "verification"
)

// VerifiesPhone reports whether consuming an OTP of this purpose proves phone ownership
func (p OTPPurpose) VerifiesPhone() bool {
	return p == PurposeSignup || p == PurposeLogin || p == PurposeVerification
}

// OTPChannel records who holds the secret for a pending OTP
type OTPChannel string

const (
	ChannelLocal    OTPChannel = "local"
	ChannelProvider OTPChannel = "provider"
)

// OTPState is the single pending one-time code of an identity.
// CodeHash is empty when the provider owns the code.
type OTPState struct {
	CodeHash  string
	Purpose   OTPPurpose
	Channel   OTPChannel
	ExpiresAt time.Time
}

// Identity is a User or Worker account record
type Identity struct {
	ID           string
	Kind         IdentityKind
	Username     string
	Email        string
	Phone        string
	Name         string
	PasswordHash string
	Role         string

	TokenVersion  int
	LoginAttempts int
	LockUntil     *time.Time

	IsPhoneVerified bool
	IsEmailVerified bool
	OTP             *OTPState

	PasswordResetTokenHash string
	PasswordResetExpires   *time.Time

	// LegacyPassword is plaintext from the previous schema; only the migration command reads it
	LegacyPassword string

	LastLoginAt *time.Time
	LastLoginIP string

	Worker *WorkerProfile

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkerProfile holds the worker-only state
type WorkerProfile struct {
	AccountStatus      AccountStatus
	SuspensionReason   string
	Verified           bool
	PrimaryCategory    string
	Skills             []string
	Bio                string
	YearsExperience    int
	PricePerHour       float64
	MinimumCharge      float64
	Latitude           float64
	Longitude          float64
	ServiceRadiusKM    int
	Language           string
	CurrentlyAvailable bool
}

// IsLocked reports whether the lockout window is still open at now
func (i *Identity) IsLocked(now time.Time) bool {
	return i.LockUntil != nil && i.LockUntil.After(now)
}

// HasHandle reports whether at least one login handle is present
func (i *Identity) HasHandle() bool {
	return i.Username != "" || i.Email != "" || i.Phone != ""
}

// Status returns the worker account status, or active for users
func (i *Identity) Status() AccountStatus {
	if i.Worker == nil {
		return StatusActive
	}
	return i.Worker.AccountStatus
}

// WorkerProfileUpdate carries optional profile fields; nil means unchanged
type WorkerProfileUpdate struct {
	Name            *string
	Email           *string
	Bio             *string
	Skills          []string
	YearsExperience *int
	PricePerHour    *float64
	MinimumCharge   *float64
	Latitude        *float64
	Longitude       *float64
	ServiceRadiusKM *int
	Language        *string
}

// TokenPair is the result of issuing tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AuthResult represents authentication outcome
type AuthResult struct {
	Identity *Identity
	Tokens   *TokenPair
}

// RegisterRequest is the input of a user registration
type RegisterRequest struct {
	Username string
	Email    string
	Phone    string
	Password string
	Name     string
}

// WorkerRegisterRequest is the input of a worker self-registration
type WorkerRegisterRequest struct {
	Name            string
	Username        string
	Email           string
	Phone           string
	Password        string
	PrimaryCategory string
	Skills          []string
	YearsExperience int
	PricePerHour    float64
	Latitude        float64
	Longitude       float64
}

// RegisterOutcome tells the caller what a worker registration did
type RegisterOutcome struct {
	Identity *Identity
	// ExistingPhone is set when the phone was already registered and a login OTP was sent instead
	ExistingPhone bool
}

// PasswordResetTicket is returned by a user forgot-password request.
// Token is empty when the email is unknown.
type PasswordResetTicket struct {
	Token string
}
