package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/you/homeauth/domain"
)

// MockIdentityRepository implements domain.IdentityRepository for testing.
// Unset funcs fall back to an in-memory store so flows can be exercised end to end.
type MockIdentityRepository struct {
	KindValue domain.IdentityKind

	CreateFunc                  func(ctx context.Context, identity *domain.Identity) error
	FindByIDFunc                func(ctx context.Context, id string) (*domain.Identity, error)
	FindByHandleFunc            func(ctx context.Context, handle string) (*domain.Identity, error)
	FindByPhoneFunc             func(ctx context.Context, phone string) (*domain.Identity, error)
	FindByEmailFunc             func(ctx context.Context, email string) (*domain.Identity, error)
	FindByResetTokenHashFunc    func(ctx context.Context, hash string, now time.Time) (*domain.Identity, error)
	ExistsByUsernameOrEmailFunc func(ctx context.Context, username, email string) (bool, error)
	UpdateFunc                  func(ctx context.Context, identity *domain.Identity) error
	SaveOTPFunc                 func(ctx context.Context, id string, otp *domain.OTPState) error
	IncrementTokenVersionFunc   func(ctx context.Context, id string) error
	RecordFailedLoginFunc       func(ctx context.Context, id string, lockUntil *time.Time) error
	RecordSuccessfulLoginFunc   func(ctx context.Context, id string, at time.Time, ip string) error
	ListLegacyPasswordsFunc     func(ctx context.Context, limit int) ([]*domain.Identity, error)

	mu    sync.Mutex
	store map[string]*domain.Identity
}

// Compile-time interface compliance verification
var _ domain.IdentityRepository = (*MockIdentityRepository)(nil)

// NewMockIdentityRepository creates an empty repository of the given kind
func NewMockIdentityRepository(kind domain.IdentityKind) *MockIdentityRepository {
	return &MockIdentityRepository{KindValue: kind, store: map[string]*domain.Identity{}}
}

// Seed stores a copy of identity (test helper)
func (m *MockIdentityRepository) Seed(identity *domain.Identity) *domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	identity.Kind = m.KindValue
	m.store[identity.ID] = clone(identity)
	return identity
}

// Get returns a copy of the stored identity or nil (test helper)
func (m *MockIdentityRepository) Get(id string) *domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.store[id]; ok {
		return clone(stored)
	}
	return nil
}

// Count returns the number of stored identities (test helper)
func (m *MockIdentityRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

func (m *MockIdentityRepository) Kind() domain.IdentityKind {
	return m.KindValue
}

func (m *MockIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, identity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if sameHandle(existing.Username, identity.Username) || sameHandle(existing.Email, identity.Email) ||
			(identity.Phone != "" && existing.Phone == identity.Phone) {
			return domain.ErrIdentityExists
		}
	}
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	identity.Kind = m.KindValue
	identity.Username = strings.ToLower(identity.Username)
	identity.Email = strings.ToLower(identity.Email)
	identity.CreatedAt = time.Now()
	identity.UpdatedAt = identity.CreatedAt
	m.store[identity.ID] = clone(identity)
	return nil
}

func (m *MockIdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return m.find(func(i *domain.Identity) bool { return i.ID == id })
}

func (m *MockIdentityRepository) FindByHandle(ctx context.Context, handle string) (*domain.Identity, error) {
	if m.FindByHandleFunc != nil {
		return m.FindByHandleFunc(ctx, handle)
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return m.find(func(i *domain.Identity) bool {
		switch domain.ClassifyHandle(handle) {
		case domain.HandleEmail:
			return sameHandle(i.Email, handle)
		case domain.HandlePhone:
			return i.Phone == handle
		default:
			return sameHandle(i.Username, handle)
		}
	})
}

func (m *MockIdentityRepository) FindByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	if phone == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return m.find(func(i *domain.Identity) bool { return i.Phone == phone })
}

func (m *MockIdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return m.find(func(i *domain.Identity) bool { return sameHandle(i.Email, email) })
}

func (m *MockIdentityRepository) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*domain.Identity, error) {
	if m.FindByResetTokenHashFunc != nil {
		return m.FindByResetTokenHashFunc(ctx, hash, now)
	}
	if hash == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return m.find(func(i *domain.Identity) bool {
		return i.PasswordResetTokenHash == hash && i.PasswordResetExpires != nil && i.PasswordResetExpires.After(now)
	})
}

func (m *MockIdentityRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if m.ExistsByUsernameOrEmailFunc != nil {
		return m.ExistsByUsernameOrEmailFunc(ctx, username, email)
	}
	_, err := m.find(func(i *domain.Identity) bool {
		return sameHandle(i.Username, username) || sameHandle(i.Email, email)
	})
	return err == nil, nil
}

// Update copies only the columns the store's Update writes
func (m *MockIdentityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, identity)
	}
	return m.mutate(identity.ID, func(stored *domain.Identity) {
		copied := clone(identity)
		stored.Username = copied.Username
		stored.Email = copied.Email
		stored.Phone = copied.Phone
		stored.Name = copied.Name
		stored.Role = copied.Role
		stored.PasswordHash = copied.PasswordHash
		stored.LegacyPassword = copied.LegacyPassword
		stored.IsPhoneVerified = copied.IsPhoneVerified
		stored.IsEmailVerified = copied.IsEmailVerified
		stored.PasswordResetTokenHash = copied.PasswordResetTokenHash
		stored.PasswordResetExpires = copied.PasswordResetExpires
		stored.UpdatedAt = time.Now()
	})
}

func (m *MockIdentityRepository) SaveOTP(ctx context.Context, id string, otp *domain.OTPState) error {
	if m.SaveOTPFunc != nil {
		return m.SaveOTPFunc(ctx, id, otp)
	}
	return m.mutate(id, func(stored *domain.Identity) {
		if otp == nil {
			stored.OTP = nil
			return
		}
		copied := *otp
		stored.OTP = &copied
	})
}

func (m *MockIdentityRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	if m.IncrementTokenVersionFunc != nil {
		return m.IncrementTokenVersionFunc(ctx, id)
	}
	return m.mutate(id, func(stored *domain.Identity) { stored.TokenVersion++ })
}

func (m *MockIdentityRepository) RecordFailedLogin(ctx context.Context, id string, lockUntil *time.Time) error {
	if m.RecordFailedLoginFunc != nil {
		return m.RecordFailedLoginFunc(ctx, id, lockUntil)
	}
	return m.mutate(id, func(stored *domain.Identity) {
		stored.LoginAttempts++
		if lockUntil != nil {
			until := *lockUntil
			stored.LockUntil = &until
		}
	})
}

func (m *MockIdentityRepository) RecordSuccessfulLogin(ctx context.Context, id string, at time.Time, ip string) error {
	if m.RecordSuccessfulLoginFunc != nil {
		return m.RecordSuccessfulLoginFunc(ctx, id, at, ip)
	}
	return m.mutate(id, func(stored *domain.Identity) {
		stored.LoginAttempts = 0
		stored.LockUntil = nil
		stored.LastLoginAt = &at
		stored.LastLoginIP = ip
	})
}

func (m *MockIdentityRepository) ListLegacyPasswords(ctx context.Context, limit int) ([]*domain.Identity, error) {
	if m.ListLegacyPasswordsFunc != nil {
		return m.ListLegacyPasswordsFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Identity
	for _, stored := range m.store {
		if stored.LegacyPassword != "" && len(out) < limit {
			out = append(out, clone(stored))
		}
	}
	return out, nil
}

func (m *MockIdentityRepository) find(match func(*domain.Identity) bool) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stored := range m.store {
		if match(stored) {
			return clone(stored), nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (m *MockIdentityRepository) mutate(id string, fn func(*domain.Identity)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.store[id]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	fn(stored)
	return nil
}

func sameHandle(stored, candidate string) bool {
	return candidate != "" && strings.EqualFold(stored, strings.TrimSpace(candidate))
}

func clone(identity *domain.Identity) *domain.Identity {
	c := *identity
	if identity.OTP != nil {
		otp := *identity.OTP
		c.OTP = &otp
	}
	if identity.Worker != nil {
		w := *identity.Worker
		w.Skills = append([]string(nil), identity.Worker.Skills...)
		c.Worker = &w
	}
	return &c
}
