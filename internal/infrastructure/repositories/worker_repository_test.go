package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/you/homeauth/domain"
)

func createWorker(t *testing.T, repo domain.WorkerRepository) *domain.Identity {
	t.Helper()
	worker := &domain.Identity{
		Name:         "Ravi",
		Phone:        "+919012345678",
		PasswordHash: "hash",
		Role:         domain.RoleWorker,
		Worker: &domain.WorkerProfile{
			AccountStatus:   domain.StatusPendingApproval,
			PrimaryCategory: "plumbing",
			Skills:          []string{"pipes", "leaks"},
			ServiceRadiusKM: 10,
		},
	}
	if err := repo.Create(context.Background(), worker); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return worker
}

func TestWorkerRepository_CreateAndFind(t *testing.T) {
	repo := NewWorkerRepository(setupTestDB(t))
	worker := createWorker(t, repo)

	got, err := repo.FindByPhone(context.Background(), "+919012345678")
	if err != nil {
		t.Fatalf("FindByPhone failed: %v", err)
	}
	if got.Kind != domain.KindWorker || got.Worker == nil {
		t.Fatalf("expected worker profile, got %+v", got)
	}
	if got.Worker.AccountStatus != domain.StatusPendingApproval {
		t.Errorf("expected pending_approval, got %s", got.Worker.AccountStatus)
	}
	if len(got.Worker.Skills) != 2 || got.Worker.Skills[0] != "pipes" {
		t.Errorf("skills not round-tripped: %v", got.Worker.Skills)
	}
	if got.ID != worker.ID {
		t.Errorf("expected id %s, got %s", worker.ID, got.ID)
	}
}

func TestWorkerRepository_SeparateNamespaceFromUsers(t *testing.T) {
	db := setupTestDB(t)
	workers := NewWorkerRepository(db)
	users := NewUserRepository(db)
	createWorker(t, workers)

	// the same phone may exist once per kind
	user := &domain.Identity{Phone: "+919012345678", PasswordHash: "hash", Role: domain.RoleUser}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("user with a worker's phone should be allowed: %v", err)
	}
	if _, err := users.FindByPhone(context.Background(), "+919012345678"); err != nil {
		t.Fatalf("FindByPhone on users failed: %v", err)
	}
}

func TestWorkerRepository_UpdateProfile(t *testing.T) {
	repo := NewWorkerRepository(setupTestDB(t))
	ctx := context.Background()
	worker := createWorker(t, repo)

	bio := "20 years fixing pipes"
	price := 450.0
	email := "Ravi@Example.com"
	got, err := repo.UpdateProfile(ctx, worker.ID, &domain.WorkerProfileUpdate{
		Bio:          &bio,
		PricePerHour: &price,
		Email:        &email,
		Skills:       []string{"boilers"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if got.Worker.Bio != bio || got.Worker.PricePerHour != price {
		t.Errorf("profile not updated: %+v", got.Worker)
	}
	if got.Email != "ravi@example.com" {
		t.Errorf("expected lower-cased email, got %s", got.Email)
	}
	if len(got.Worker.Skills) != 1 || got.Worker.Skills[0] != "boilers" {
		t.Errorf("expected skills replaced, got %v", got.Worker.Skills)
	}
	if got.Worker.PrimaryCategory != "plumbing" || got.Name != "Ravi" {
		t.Errorf("unset fields must be kept: %+v", got)
	}

	if _, err := repo.UpdateProfile(ctx, "missing", &domain.WorkerProfileUpdate{Bio: &bio}); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestWorkerRepository_StatusTransitions(t *testing.T) {
	repo := NewWorkerRepository(setupTestDB(t))
	ctx := context.Background()
	worker := createWorker(t, repo)

	tests := []struct {
		name       string
		status     domain.AccountStatus
		reason     string
		wantReason string
	}{
		{name: "approve", status: domain.StatusActive, reason: "ignored", wantReason: ""},
		{name: "suspend with reason", status: domain.StatusSuspended, reason: "complaints", wantReason: "complaints"},
		{name: "deactivate clears reason", status: domain.StatusDeactivated, wantReason: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.SetAccountStatus(ctx, worker.ID, tt.status, tt.reason); err != nil {
				t.Fatalf("SetAccountStatus failed: %v", err)
			}
			got, _ := repo.FindByID(ctx, worker.ID)
			if got.Worker.AccountStatus != tt.status || got.Worker.SuspensionReason != tt.wantReason {
				t.Errorf("expected %s/%q, got %s/%q", tt.status, tt.wantReason, got.Worker.AccountStatus, got.Worker.SuspensionReason)
			}
		})
	}

	if err := repo.SetVerified(ctx, worker.ID, true); err != nil {
		t.Fatalf("SetVerified failed: %v", err)
	}
	if err := repo.SetAvailability(ctx, worker.ID, true); err != nil {
		t.Fatalf("SetAvailability failed: %v", err)
	}
	got, _ := repo.FindByID(ctx, worker.ID)
	if !got.Worker.Verified || !got.Worker.CurrentlyAvailable {
		t.Errorf("expected verified and available, got %+v", got.Worker)
	}

	if err := repo.SetVerified(ctx, "missing", true); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestWorkerRepository_TouchActivityKeepsLockout(t *testing.T) {
	repo := NewWorkerRepository(setupTestDB(t))
	ctx := context.Background()
	worker := createWorker(t, repo)

	until := time.Now().Add(time.Hour).UTC()
	if err := repo.RecordFailedLogin(ctx, worker.ID, &until); err != nil {
		t.Fatalf("RecordFailedLogin failed: %v", err)
	}
	at := time.Now().UTC()
	if err := repo.TouchActivity(ctx, worker.ID, at, "10.1.1.1"); err != nil {
		t.Fatalf("TouchActivity failed: %v", err)
	}

	got, _ := repo.FindByID(ctx, worker.ID)
	if got.LastLoginIP != "10.1.1.1" || got.LastLoginAt == nil {
		t.Errorf("expected activity recorded, got %+v", got)
	}
	if got.LoginAttempts != 1 || got.LockUntil == nil {
		t.Error("expected lockout state untouched")
	}
	if err := repo.TouchActivity(ctx, "missing", at, ""); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}
