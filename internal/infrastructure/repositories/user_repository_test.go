package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/you/homeauth/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// a single connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&DBUser{}, &DBWorker{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func createUser(t *testing.T, repo domain.IdentityRepository, identity *domain.Identity) *domain.Identity {
	t.Helper()
	if identity.Role == "" {
		identity.Role = domain.RoleUser
	}
	if err := repo.Create(context.Background(), identity); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return identity
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	alice := createUser(t, repo, &domain.Identity{
		Username:     "Alice",
		Email:        "Alice@Example.com",
		Phone:        "+919012345678",
		PasswordHash: "hash",
	})
	if alice.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}
	if alice.Kind != domain.KindUser {
		t.Errorf("expected kind user, got %s", alice.Kind)
	}

	tests := []struct {
		name   string
		find   func() (*domain.Identity, error)
		wantID string
		err    error
	}{
		{name: "by id", find: func() (*domain.Identity, error) { return repo.FindByID(ctx, alice.ID) }, wantID: alice.ID},
		{name: "by username any case", find: func() (*domain.Identity, error) { return repo.FindByHandle(ctx, "ALICE") }, wantID: alice.ID},
		{name: "by email handle", find: func() (*domain.Identity, error) { return repo.FindByHandle(ctx, "alice@example.com") }, wantID: alice.ID},
		{name: "by phone handle", find: func() (*domain.Identity, error) { return repo.FindByHandle(ctx, "+919012345678") }, wantID: alice.ID},
		{name: "by email", find: func() (*domain.Identity, error) { return repo.FindByEmail(ctx, " ALICE@example.com ") }, wantID: alice.ID},
		{name: "by phone", find: func() (*domain.Identity, error) { return repo.FindByPhone(ctx, "+919012345678") }, wantID: alice.ID},
		{name: "unknown handle", find: func() (*domain.Identity, error) { return repo.FindByHandle(ctx, "bob") }, err: domain.ErrIdentityNotFound},
		{name: "empty handle", find: func() (*domain.Identity, error) { return repo.FindByHandle(ctx, "  ") }, err: domain.ErrIdentityNotFound},
		{name: "empty phone", find: func() (*domain.Identity, error) { return repo.FindByPhone(ctx, "") }, err: domain.ErrIdentityNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.find()
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("expected id %s, got %s", tt.wantID, got.ID)
			}
			if got.Username != "alice" || got.Email != "alice@example.com" {
				t.Errorf("handles should be stored lower-cased: %+v", got)
			}
		})
	}
}

func TestUserRepository_FindByHandleUsesOneColumn(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	victim := createUser(t, repo, &domain.Identity{Email: "victim@example.com", PasswordHash: "hash"})
	squatter := createUser(t, repo, &domain.Identity{Username: "victim@example.com", PasswordHash: "hash"})
	dialer := createUser(t, repo, &domain.Identity{Username: "+919012345678", PasswordHash: "hash"})
	owner := createUser(t, repo, &domain.Identity{Phone: "+919012345678", PasswordHash: "hash"})

	tests := []struct {
		name   string
		handle string
		wantID string
	}{
		{name: "email handle reads email column", handle: "VICTIM@example.com", wantID: victim.ID},
		{name: "phone handle reads phone column", handle: "+919012345678", wantID: owner.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindByHandle(ctx, tt.handle)
			if err != nil {
				t.Fatalf("FindByHandle failed: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("expected %s, got %s (squatter %s, dialer %s)", tt.wantID, got.ID, squatter.ID, dialer.ID)
			}
		})
	}
}

func TestUserRepository_Uniqueness(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	createUser(t, repo, &domain.Identity{Username: "alice", PasswordHash: "hash"})

	err := repo.Create(ctx, &domain.Identity{Username: "ALICE", PasswordHash: "hash", Role: domain.RoleUser})
	if !errors.Is(err, domain.ErrIdentityExists) {
		t.Fatalf("expected ErrIdentityExists, got %v", err)
	}

	// absent emails and phones must not collide
	createUser(t, repo, &domain.Identity{Username: "bob", PasswordHash: "hash"})
	createUser(t, repo, &domain.Identity{Username: "carol", PasswordHash: "hash"})

	exists, err := repo.ExistsByUsernameOrEmail(ctx, "Alice", "")
	if err != nil || !exists {
		t.Errorf("expected alice to exist, got %v %v", exists, err)
	}
	exists, err = repo.ExistsByUsernameOrEmail(ctx, "dave", "dave@example.com")
	if err != nil || exists {
		t.Errorf("expected dave to be free, got %v %v", exists, err)
	}
	exists, err = repo.ExistsByUsernameOrEmail(ctx, "", "")
	if err != nil || exists {
		t.Errorf("expected no match for empty handles, got %v %v", exists, err)
	}
}

func TestUserRepository_TokenVersionAndLoginCounters(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()
	user := createUser(t, repo, &domain.Identity{Username: "alice", PasswordHash: "hash"})

	if err := repo.IncrementTokenVersion(ctx, user.ID); err != nil {
		t.Fatalf("IncrementTokenVersion failed: %v", err)
	}
	if err := repo.IncrementTokenVersion(ctx, user.ID); err != nil {
		t.Fatalf("IncrementTokenVersion failed: %v", err)
	}

	lockUntil := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)
	if err := repo.RecordFailedLogin(ctx, user.ID, nil); err != nil {
		t.Fatalf("RecordFailedLogin failed: %v", err)
	}
	if err := repo.RecordFailedLogin(ctx, user.ID, &lockUntil); err != nil {
		t.Fatalf("RecordFailedLogin failed: %v", err)
	}

	got, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.TokenVersion != 2 {
		t.Errorf("expected token version 2, got %d", got.TokenVersion)
	}
	if got.LoginAttempts != 2 {
		t.Errorf("expected 2 login attempts, got %d", got.LoginAttempts)
	}
	if got.LockUntil == nil || !got.LockUntil.Equal(lockUntil) {
		t.Errorf("expected lock until %v, got %v", lockUntil, got.LockUntil)
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := repo.RecordSuccessfulLogin(ctx, user.ID, at, "10.0.0.1"); err != nil {
		t.Fatalf("RecordSuccessfulLogin failed: %v", err)
	}
	got, _ = repo.FindByID(ctx, user.ID)
	if got.LoginAttempts != 0 || got.LockUntil != nil {
		t.Errorf("expected counters cleared, got attempts=%d lock=%v", got.LoginAttempts, got.LockUntil)
	}
	if got.LastLoginIP != "10.0.0.1" || got.LastLoginAt == nil {
		t.Errorf("expected last login recorded, got %+v", got)
	}

	if err := repo.IncrementTokenVersion(ctx, "missing"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestUserRepository_UpdateKeepsConcurrentCounters(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()
	user := createUser(t, repo, &domain.Identity{Username: "alice", Phone: "+919012345678", PasswordHash: "hash"})

	stale, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	// logout and a failed login land between the read and the write
	if err := repo.IncrementTokenVersion(ctx, user.ID); err != nil {
		t.Fatalf("IncrementTokenVersion failed: %v", err)
	}
	lockUntil := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)
	if err := repo.RecordFailedLogin(ctx, user.ID, &lockUntil); err != nil {
		t.Fatalf("RecordFailedLogin failed: %v", err)
	}

	stale.IsPhoneVerified = true
	if err := repo.Update(ctx, stale); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := repo.FindByID(ctx, user.ID)
	if got.TokenVersion != 1 {
		t.Errorf("expected token version 1 after stale update, got %d", got.TokenVersion)
	}
	if got.LoginAttempts != 1 || got.LockUntil == nil {
		t.Errorf("expected lockout kept, got attempts=%d lock=%v", got.LoginAttempts, got.LockUntil)
	}
	if !got.IsPhoneVerified {
		t.Error("expected phone verified flag written")
	}

	missing := &domain.Identity{ID: "missing", Username: "ghost"}
	if err := repo.Update(ctx, missing); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestUserRepository_OTPState(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()
	user := createUser(t, repo, &domain.Identity{Phone: "+919012345678", PasswordHash: "hash"})

	expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	otp := &domain.OTPState{CodeHash: "otp-hash", Purpose: domain.PurposeLogin, Channel: domain.ChannelLocal, ExpiresAt: expires}
	if err := repo.SaveOTP(ctx, user.ID, otp); err != nil {
		t.Fatalf("SaveOTP failed: %v", err)
	}

	got, _ := repo.FindByID(ctx, user.ID)
	if got.OTP == nil {
		t.Fatal("expected pending OTP")
	}
	if got.OTP.CodeHash != "otp-hash" || got.OTP.Purpose != domain.PurposeLogin || got.OTP.Channel != domain.ChannelLocal || !got.OTP.ExpiresAt.Equal(expires) {
		t.Errorf("unexpected OTP state: %+v", got.OTP)
	}

	if err := repo.SaveOTP(ctx, user.ID, nil); err != nil {
		t.Fatalf("SaveOTP clear failed: %v", err)
	}
	got, _ = repo.FindByID(ctx, user.ID)
	if got.OTP != nil {
		t.Errorf("expected OTP cleared, got %+v", got.OTP)
	}
}

func TestUserRepository_ResetTokenAndLegacy(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	valid := now.Add(10 * time.Minute)
	user := createUser(t, repo, &domain.Identity{
		Email:                  "reset@example.com",
		PasswordHash:           "hash",
		PasswordResetTokenHash: "abc123",
		PasswordResetExpires:   &valid,
	})
	expired := now.Add(-time.Minute)
	createUser(t, repo, &domain.Identity{
		Email:                  "stale@example.com",
		PasswordHash:           "hash",
		PasswordResetTokenHash: "def456",
		PasswordResetExpires:   &expired,
	})
	legacy := createUser(t, repo, &domain.Identity{Username: "legacy", LegacyPassword: "plain-text"})

	got, err := repo.FindByResetTokenHash(ctx, "abc123", now)
	if err != nil || got.ID != user.ID {
		t.Fatalf("expected reset token match, got %v %v", got, err)
	}
	if _, err := repo.FindByResetTokenHash(ctx, "def456", now); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("expired reset token should not match, got %v", err)
	}

	rows, err := repo.ListLegacyPasswords(ctx, 10)
	if err != nil {
		t.Fatalf("ListLegacyPasswords failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != legacy.ID || rows[0].LegacyPassword != "plain-text" {
		t.Fatalf("expected only the legacy row, got %+v", rows)
	}

	rows[0].PasswordHash = "migrated-hash"
	rows[0].LegacyPassword = ""
	if err := repo.Update(ctx, rows[0]); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	rows, _ = repo.ListLegacyPasswords(ctx, 10)
	if len(rows) != 0 {
		t.Errorf("expected no legacy rows after migration, got %d", len(rows))
	}
}
