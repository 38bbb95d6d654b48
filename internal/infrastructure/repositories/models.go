package repositories

import (
	"strings"
	"time"

	"github.com/you/homeauth/domain"
)

// DBIdentity holds the columns shared by users and workers.
// Optional handles are nullable so the unique indexes ignore absent values.
type DBIdentity struct {
	ID              string  `gorm:"primaryKey;size:36"`
	Username        *string `gorm:"uniqueIndex;size:64"`
	Email           *string `gorm:"uniqueIndex;size:255"`
	Phone           *string `gorm:"uniqueIndex;size:32"`
	Name            string  `gorm:"size:255"`
	PasswordHash    string  `gorm:"column:password_hash;size:255"`
	LegacyPassword  string  `gorm:"column:password;size:255"`
	Role            string  `gorm:"index;size:32"`
	TokenVersion    int     `gorm:"not null;default:0"`
	LoginAttempts   int     `gorm:"not null;default:0"`
	LockUntil       *time.Time
	IsPhoneVerified bool `gorm:"index"`
	IsEmailVerified bool

	OTPHash      string `gorm:"column:otp_hash;size:255"`
	OTPPurpose   string `gorm:"column:otp_purpose;size:16"`
	OTPChannel   string `gorm:"column:otp_channel;size:16"`
	OTPExpiresAt *time.Time

	PasswordResetTokenHash *string `gorm:"index;size:64"`
	PasswordResetExpires   *time.Time

	LastLoginAt *time.Time
	LastLoginIP string `gorm:"size:64"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// DBUser is the users table
type DBUser struct {
	DBIdentity
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// DBWorker is the workers table
type DBWorker struct {
	DBIdentity
	AccountStatus      string   `gorm:"index;size:32;not null;default:pending_approval"`
	SuspensionReason   string   `gorm:"size:512"`
	Verified           bool     `gorm:"index"`
	PrimaryCategory    string   `gorm:"index;size:64"`
	Skills             []string `gorm:"serializer:json"`
	Bio                string
	YearsExperience    int
	PricePerHour       float64
	MinimumCharge      float64
	Latitude           float64
	Longitude          float64
	ServiceRadiusKM    int    `gorm:"column:service_radius_km;default:10"`
	Language           string `gorm:"size:16"`
	CurrentlyAvailable bool   `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBWorker) TableName() string {
	return "workers"
}

func (u *DBUser) base() *DBIdentity { return &u.DBIdentity }

func (u *DBUser) toDomain() *domain.Identity {
	return u.DBIdentity.toDomain(domain.KindUser)
}

func (u *DBUser) fromDomain(identity *domain.Identity) {
	u.DBIdentity = identityFromDomain(identity)
}

func (w *DBWorker) base() *DBIdentity { return &w.DBIdentity }

func (w *DBWorker) toDomain() *domain.Identity {
	identity := w.DBIdentity.toDomain(domain.KindWorker)
	identity.Worker = &domain.WorkerProfile{
		AccountStatus:      domain.AccountStatus(w.AccountStatus),
		SuspensionReason:   w.SuspensionReason,
		Verified:           w.Verified,
		PrimaryCategory:    w.PrimaryCategory,
		Skills:             w.Skills,
		Bio:                w.Bio,
		YearsExperience:    w.YearsExperience,
		PricePerHour:       w.PricePerHour,
		MinimumCharge:      w.MinimumCharge,
		Latitude:           w.Latitude,
		Longitude:          w.Longitude,
		ServiceRadiusKM:    w.ServiceRadiusKM,
		Language:           w.Language,
		CurrentlyAvailable: w.CurrentlyAvailable,
	}
	return identity
}

func (w *DBWorker) fromDomain(identity *domain.Identity) {
	w.DBIdentity = identityFromDomain(identity)
	p := identity.Worker
	if p == nil {
		p = &domain.WorkerProfile{AccountStatus: domain.StatusPendingApproval}
	}
	w.AccountStatus = string(p.AccountStatus)
	w.SuspensionReason = p.SuspensionReason
	w.Verified = p.Verified
	w.PrimaryCategory = p.PrimaryCategory
	w.Skills = p.Skills
	w.Bio = p.Bio
	w.YearsExperience = p.YearsExperience
	w.PricePerHour = p.PricePerHour
	w.MinimumCharge = p.MinimumCharge
	w.Latitude = p.Latitude
	w.Longitude = p.Longitude
	w.ServiceRadiusKM = p.ServiceRadiusKM
	w.Language = p.Language
	w.CurrentlyAvailable = p.CurrentlyAvailable
}

func (d *DBIdentity) toDomain(kind domain.IdentityKind) *domain.Identity {
	identity := &domain.Identity{
		ID:                     d.ID,
		Kind:                   kind,
		Username:               deref(d.Username),
		Email:                  deref(d.Email),
		Phone:                  deref(d.Phone),
		Name:                   d.Name,
		PasswordHash:           d.PasswordHash,
		LegacyPassword:         d.LegacyPassword,
		Role:                   d.Role,
		TokenVersion:           d.TokenVersion,
		LoginAttempts:          d.LoginAttempts,
		LockUntil:              d.LockUntil,
		IsPhoneVerified:        d.IsPhoneVerified,
		IsEmailVerified:        d.IsEmailVerified,
		PasswordResetTokenHash: deref(d.PasswordResetTokenHash),
		PasswordResetExpires:   d.PasswordResetExpires,
		LastLoginAt:            d.LastLoginAt,
		LastLoginIP:            d.LastLoginIP,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
	if d.OTPPurpose != "" && d.OTPExpiresAt != nil {
		identity.OTP = &domain.OTPState{
			CodeHash:  d.OTPHash,
			Purpose:   domain.OTPPurpose(d.OTPPurpose),
			Channel:   domain.OTPChannel(d.OTPChannel),
			ExpiresAt: *d.OTPExpiresAt,
		}
	}
	return identity
}

func identityFromDomain(identity *domain.Identity) DBIdentity {
	d := DBIdentity{
		ID:                     identity.ID,
		Username:               nullable(strings.ToLower(identity.Username)),
		Email:                  nullable(strings.ToLower(identity.Email)),
		Phone:                  nullable(identity.Phone),
		Name:                   identity.Name,
		PasswordHash:           identity.PasswordHash,
		LegacyPassword:         identity.LegacyPassword,
		Role:                   identity.Role,
		TokenVersion:           identity.TokenVersion,
		LoginAttempts:          identity.LoginAttempts,
		LockUntil:              identity.LockUntil,
		IsPhoneVerified:        identity.IsPhoneVerified,
		IsEmailVerified:        identity.IsEmailVerified,
		PasswordResetTokenHash: nullable(identity.PasswordResetTokenHash),
		PasswordResetExpires:   identity.PasswordResetExpires,
		LastLoginAt:            identity.LastLoginAt,
		LastLoginIP:            identity.LastLoginIP,
		CreatedAt:              identity.CreatedAt,
		UpdatedAt:              identity.UpdatedAt,
	}
	if identity.OTP != nil {
		expires := identity.OTP.ExpiresAt
		d.OTPHash = identity.OTP.CodeHash
		d.OTPPurpose = string(identity.OTP.Purpose)
		d.OTPChannel = string(identity.OTP.Channel)
		d.OTPExpiresAt = &expires
	}
	return d
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
