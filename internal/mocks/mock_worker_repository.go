package mocks

import (
	"context"
	"time"

	"github.com/you/homeauth/domain"
)

// MockWorkerRepository implements domain.WorkerRepository for testing
type MockWorkerRepository struct {
	*MockIdentityRepository

	UpdateProfileFunc    func(ctx context.Context, id string, update *domain.WorkerProfileUpdate) (*domain.Identity, error)
	SetAvailabilityFunc  func(ctx context.Context, id string, available bool) error
	SetAccountStatusFunc func(ctx context.Context, id string, status domain.AccountStatus, reason string) error
	SetVerifiedFunc      func(ctx context.Context, id string, verified bool) error
	TouchActivityFunc    func(ctx context.Context, id string, at time.Time, ip string) error
}

// Compile-time interface compliance verification
var _ domain.WorkerRepository = (*MockWorkerRepository)(nil)

// NewMockWorkerRepository creates an empty in-memory worker repository
func NewMockWorkerRepository() *MockWorkerRepository {
	return &MockWorkerRepository{MockIdentityRepository: NewMockIdentityRepository(domain.KindWorker)}
}

func (m *MockWorkerRepository) UpdateProfile(ctx context.Context, id string, update *domain.WorkerProfileUpdate) (*domain.Identity, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, update)
	}
	err := m.mutate(id, func(stored *domain.Identity) {
		if stored.Worker == nil {
			stored.Worker = &domain.WorkerProfile{}
		}
		if update.Name != nil {
			stored.Name = *update.Name
		}
		if update.Email != nil {
			stored.Email = *update.Email
		}
		if update.Bio != nil {
			stored.Worker.Bio = *update.Bio
		}
		if update.Skills != nil {
			stored.Worker.Skills = update.Skills
		}
		if update.YearsExperience != nil {
			stored.Worker.YearsExperience = *update.YearsExperience
		}
		if update.PricePerHour != nil {
			stored.Worker.PricePerHour = *update.PricePerHour
		}
		if update.MinimumCharge != nil {
			stored.Worker.MinimumCharge = *update.MinimumCharge
		}
		if update.Latitude != nil {
			stored.Worker.Latitude = *update.Latitude
		}
		if update.Longitude != nil {
			stored.Worker.Longitude = *update.Longitude
		}
		if update.ServiceRadiusKM != nil {
			stored.Worker.ServiceRadiusKM = *update.ServiceRadiusKM
		}
		if update.Language != nil {
			stored.Worker.Language = *update.Language
		}
	})
	if err != nil {
		return nil, err
	}
	return m.FindByID(ctx, id)
}

func (m *MockWorkerRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	if m.SetAvailabilityFunc != nil {
		return m.SetAvailabilityFunc(ctx, id, available)
	}
	return m.mutate(id, func(stored *domain.Identity) {
		if stored.Worker != nil {
			stored.Worker.CurrentlyAvailable = available
		}
	})
}

func (m *MockWorkerRepository) SetAccountStatus(ctx context.Context, id string, status domain.AccountStatus, reason string) error {
	if m.SetAccountStatusFunc != nil {
		return m.SetAccountStatusFunc(ctx, id, status, reason)
	}
	return m.mutate(id, func(stored *domain.Identity) {
		if stored.Worker == nil {
			stored.Worker = &domain.WorkerProfile{}
		}
		stored.Worker.AccountStatus = status
		stored.Worker.SuspensionReason = ""
		if status == domain.StatusSuspended {
			stored.Worker.SuspensionReason = reason
		}
		if status != domain.StatusActive {
			stored.Worker.CurrentlyAvailable = false
		}
	})
}

func (m *MockWorkerRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	if m.SetVerifiedFunc != nil {
		return m.SetVerifiedFunc(ctx, id, verified)
	}
	return m.mutate(id, func(stored *domain.Identity) {
		if stored.Worker != nil {
			stored.Worker.Verified = verified
		}
	})
}

func (m *MockWorkerRepository) TouchActivity(ctx context.Context, id string, at time.Time, ip string) error {
	if m.TouchActivityFunc != nil {
		return m.TouchActivityFunc(ctx, id, at, ip)
	}
	return m.mutate(id, func(stored *domain.Identity) {
		stored.LastLoginAt = &at
		stored.LastLoginIP = ip
	})
}
