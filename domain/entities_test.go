package domain

import (
	"testing"
	"time"
)

func TestIdentity_IsLocked(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(10 * time.Minute)
	past := now.Add(-time.Second)

	tests := []struct {
		name      string
		lockUntil *time.Time
		expected  bool
	}{
		{name: "no lock set", lockUntil: nil, expected: false},
		{name: "lock in the future", lockUntil: &future, expected: true},
		{name: "lock elapsed", lockUntil: &past, expected: false},
		{name: "lock ends exactly now", lockUntil: &now, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := &Identity{LockUntil: tt.lockUntil}
			if got := identity.IsLocked(now); got != tt.expected {
				t.Errorf("expected IsLocked=%v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIdentity_HasHandle(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		expected bool
	}{
		{name: "username only", identity: Identity{Username: "alice"}, expected: true},
		{name: "email only", identity: Identity{Email: "alice@example.com"}, expected: true},
		{name: "phone only", identity: Identity{Phone: "+919012345678"}, expected: true},
		{name: "nothing", identity: Identity{Name: "Alice"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.HasHandle(); got != tt.expected {
				t.Errorf("expected HasHandle=%v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIdentity_Status(t *testing.T) {
	user := &Identity{Kind: KindUser}
	if user.Status() != StatusActive {
		t.Errorf("users should always report active, got %s", user.Status())
	}

	worker := &Identity{Kind: KindWorker, Worker: &WorkerProfile{AccountStatus: StatusSuspended}}
	if worker.Status() != StatusSuspended {
		t.Errorf("expected suspended, got %s", worker.Status())
	}
}

func TestAccountStatus_Valid(t *testing.T) {
	for _, s := range []AccountStatus{StatusPendingApproval, StatusActive, StatusSuspended, StatusDeactivated} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if AccountStatus("banned").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestOTPPurpose_VerifiesPhone(t *testing.T) {
	tests := map[OTPPurpose]bool{
		PurposeSignup:       true,
		PurposeLogin:        true,
		PurposeVerification: true,
		PurposeReset:        false,
	}
	for purpose, expected := range tests {
		if got := purpose.VerifiesPhone(); got != expected {
			t.Errorf("%s: expected %v, got %v", purpose, expected, got)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name        string
		password    string
		expectError bool
		message     string
	}{
		{name: "strong password", password: "Abcd123!", expectError: false},
		{name: "empty", password: "", expectError: true, message: "password is required"},
		{name: "too short", password: "Ab1!", expectError: true, message: "Password must be at least 8 characters long"},
		{name: "no uppercase", password: "abcd123!", expectError: true, message: "Password must contain both uppercase and lowercase letters"},
		{name: "no lowercase", password: "ABCD123!", expectError: true, message: "Password must contain both uppercase and lowercase letters"},
		{name: "no digit", password: "Abcdefg!", expectError: true, message: "Password must contain at least one number"},
		{name: "no special", password: "Abcd1234", expectError: true, message: "Password must contain at least one special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if !tt.expectError {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if err.Error() != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, err.Error())
			}
			if KindOf(err) != KindValidation {
				t.Errorf("password errors should classify as validation, got %v", KindOf(err))
			}
		})
	}
}

func TestClassifyHandle(t *testing.T) {
	tests := []struct {
		handle   string
		expected HandleKind
	}{
		{"alice", HandleUsername},
		{"alice_99", HandleUsername},
		{"Alice@Example.com", HandleEmail},
		{"+919012345678", HandlePhone},
		{"90123 45678", HandlePhone},
		{"901-234-5678", HandlePhone},
		{"  ", HandleUsername},
	}

	for _, tt := range tests {
		if got := ClassifyHandle(tt.handle); got != tt.expected {
			t.Errorf("%q: expected %v, got %v", tt.handle, tt.expected, got)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		expectError bool
	}{
		{name: "plain username", username: "alice"},
		{name: "email shaped", username: "victim@example.com", expectError: true},
		{name: "phone shaped", username: "+919012345678", expectError: true},
		{name: "digits only", username: "9012345678", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.expectError {
				t.Fatalf("expected error=%v, got %v", tt.expectError, err)
			}
			if err != nil && KindOf(err) != KindValidation {
				t.Errorf("expected validation kind, got %v", KindOf(err))
			}
		})
	}
}
