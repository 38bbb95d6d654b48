package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/you/homeauth/domain"
	"gorm.io/gorm"
)

// identityRecord is implemented by the pointer types of the table models
type identityRecord[T any] interface {
	*T
	base() *DBIdentity
	toDomain() *domain.Identity
	fromDomain(identity *domain.Identity)
}

// identityRepository implements domain.IdentityRepository for one table model
type identityRepository[T any, PT identityRecord[T]] struct {
	db   *gorm.DB
	kind domain.IdentityKind
}

// Kind implements domain.IdentityRepository
func (r *identityRepository[T, PT]) Kind() domain.IdentityKind {
	return r.kind
}

// Create implements domain.IdentityRepository
func (r *identityRepository[T, PT]) Create(ctx context.Context, identity *domain.Identity) error {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	identity.Kind = r.kind

	row := PT(new(T))
	row.fromDomain(identity)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate(err)
	}

	identity.CreatedAt = row.base().CreatedAt
	identity.UpdatedAt = row.base().UpdatedAt
	return nil
}

// FindByID implements domain.IdentityRepository
func (r *identityRepository[T, PT]) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByHandle implements domain.IdentityRepository
func (r *identityRepository[T, PT]) FindByHandle(ctx context.Context, handle string) (*domain.Identity, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, domain.ErrIdentityNotFound
	}
	switch domain.ClassifyHandle(handle) {
	case domain.HandleEmail:
		return r.first(ctx, "email = ?", strings.ToLower(handle))
	case domain.HandlePhone:
		return r.first(ctx, "phone = ?", handle)
	default:
		return r.first(ctx, "username = ?", strings.ToLower(handle))
	}
}

// FindByPhone implements domain.IdentityRepository
func (r *identityRepository[T, PT]) FindByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	if phone == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return r.first(ctx, "phone = ?", phone)
}

// FindByEmail implements domain.IdentityRepository
func (r *identityRepository[T, PT]) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return r.first(ctx, "email = ?", email)
}

// FindByResetTokenHash implements domain.IdentityRepository
func (r *identityRepository[T, PT]) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*domain.Identity, error) {
	if hash == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return r.first(ctx, "password_reset_token_hash = ? AND password_reset_expires > ?", hash, now)
}

// ExistsByUsernameOrEmail implements domain.IdentityRepository
func (r *identityRepository[T, PT]) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" && email == "" {
		return false, nil
	}

	q := r.db.WithContext(ctx).Model(PT(new(T)))
	switch {
	case username != "" && email != "":
		q = q.Where("username = ? OR email = ?", username, email)
	case username != "":
		q = q.Where("username = ?", username)
	default:
		q = q.Where("email = ?", email)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// updatableColumns are the columns Update writes. Token version, login counters,
// OTP state and worker status each have their own SQL writers.
var updatableColumns = []string{
	"username", "email", "phone", "name", "role",
	"password_hash", "password",
	"is_phone_verified", "is_email_verified",
	"password_reset_token_hash", "password_reset_expires",
	"updated_at",
}

// Update implements domain.IdentityRepository
func (r *identityRepository[T, PT]) Update(ctx context.Context, identity *domain.Identity) error {
	row := PT(new(T))
	row.fromDomain(identity)
	result := r.db.WithContext(ctx).Model(row).Select(updatableColumns).Updates(row)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrIdentityNotFound
	}
	identity.UpdatedAt = row.base().UpdatedAt
	return nil
}

// SaveOTP implements domain.IdentityRepository; a nil state clears the pending code
func (r *identityRepository[T, PT]) SaveOTP(ctx context.Context, id string, otp *domain.OTPState) error {
	values := map[string]interface{}{
		"otp_hash":       "",
		"otp_purpose":    "",
		"otp_channel":    "",
		"otp_expires_at": nil,
	}
	if otp != nil {
		values["otp_hash"] = otp.CodeHash
		values["otp_purpose"] = string(otp.Purpose)
		values["otp_channel"] = string(otp.Channel)
		values["otp_expires_at"] = otp.ExpiresAt
	}
	return r.updateByID(ctx, id, values)
}

// IncrementTokenVersion implements domain.IdentityRepository
func (r *identityRepository[T, PT]) IncrementTokenVersion(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, map[string]interface{}{
		"token_version": gorm.Expr("token_version + 1"),
	})
}

// RecordFailedLogin implements domain.IdentityRepository.
// The counter is incremented in SQL; lockUntil is only written when set.
func (r *identityRepository[T, PT]) RecordFailedLogin(ctx context.Context, id string, lockUntil *time.Time) error {
	values := map[string]interface{}{
		"login_attempts": gorm.Expr("login_attempts + 1"),
	}
	if lockUntil != nil {
		values["lock_until"] = *lockUntil
	}
	return r.updateByID(ctx, id, values)
}

// RecordSuccessfulLogin implements domain.IdentityRepository
func (r *identityRepository[T, PT]) RecordSuccessfulLogin(ctx context.Context, id string, at time.Time, ip string) error {
	return r.updateByID(ctx, id, map[string]interface{}{
		"login_attempts": 0,
		"lock_until":     nil,
		"last_login_at":  at,
		"last_login_ip":  ip,
	})
}

// ListLegacyPasswords implements domain.IdentityRepository
func (r *identityRepository[T, PT]) ListLegacyPasswords(ctx context.Context, limit int) ([]*domain.Identity, error) {
	var rows []T
	err := r.db.WithContext(ctx).
		Where("password IS NOT NULL AND password <> ''").
		Order("created_at").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	identities := make([]*domain.Identity, 0, len(rows))
	for i := range rows {
		identities = append(identities, PT(&rows[i]).toDomain())
	}
	return identities, nil
}

func (r *identityRepository[T, PT]) first(ctx context.Context, query string, args ...interface{}) (*domain.Identity, error) {
	var row T
	err := r.db.WithContext(ctx).Where(query, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	return PT(&row).toDomain(), nil
}

func (r *identityRepository[T, PT]) updateByID(ctx context.Context, id string, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(PT(new(T))).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// translate maps unique violations to ErrIdentityExists
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrIdentityExists
	}
	return fmt.Errorf("identity store: %w", err)
}
