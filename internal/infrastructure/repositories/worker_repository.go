package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/you/homeauth/domain"
	"gorm.io/gorm"
)

// WorkerRepositoryImpl implements domain.WorkerRepository for the workers table
type WorkerRepositoryImpl struct {
	identityRepository[DBWorker, *DBWorker]
}

// NewWorkerRepository creates a new worker repository
func NewWorkerRepository(db *gorm.DB) domain.WorkerRepository {
	return &WorkerRepositoryImpl{
		identityRepository: identityRepository[DBWorker, *DBWorker]{db: db, kind: domain.KindWorker},
	}
}

// UpdateProfile implements domain.WorkerRepository; only non-nil fields are written
func (r *WorkerRepositoryImpl) UpdateProfile(ctx context.Context, id string, update *domain.WorkerProfileUpdate) (*domain.Identity, error) {
	row, columns := profileColumns(update)
	if len(columns) > 0 {
		result := r.db.WithContext(ctx).Model(&DBWorker{}).Where("id = ?", id).Select(columns).Updates(&row)
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, domain.ErrIdentityNotFound
		}
	}
	return r.FindByID(ctx, id)
}

// SetAvailability implements domain.WorkerRepository
func (r *WorkerRepositoryImpl) SetAvailability(ctx context.Context, id string, available bool) error {
	return r.updateByID(ctx, id, map[string]interface{}{"currently_available": available})
}

// SetAccountStatus implements domain.WorkerRepository
func (r *WorkerRepositoryImpl) SetAccountStatus(ctx context.Context, id string, status domain.AccountStatus, reason string) error {
	values := map[string]interface{}{
		"account_status":    string(status),
		"suspension_reason": "",
	}
	if status == domain.StatusSuspended {
		values["suspension_reason"] = reason
	}
	if status != domain.StatusActive {
		values["currently_available"] = false
	}
	return r.updateByID(ctx, id, values)
}

// SetVerified implements domain.WorkerRepository
func (r *WorkerRepositoryImpl) SetVerified(ctx context.Context, id string, verified bool) error {
	return r.updateByID(ctx, id, map[string]interface{}{"verified": verified})
}

// TouchActivity implements domain.WorkerRepository
func (r *WorkerRepositoryImpl) TouchActivity(ctx context.Context, id string, at time.Time, ip string) error {
	return r.updateByID(ctx, id, map[string]interface{}{
		"last_login_at": at,
		"last_login_ip": ip,
	})
}

// profileColumns copies the set fields into a row and names the columns to write
func profileColumns(u *domain.WorkerProfileUpdate) (DBWorker, []string) {
	var row DBWorker
	var columns []string
	if u == nil {
		return row, columns
	}
	if u.Name != nil {
		row.Name = strings.TrimSpace(*u.Name)
		columns = append(columns, "name")
	}
	if u.Email != nil {
		row.Email = nullable(strings.ToLower(strings.TrimSpace(*u.Email)))
		columns = append(columns, "email")
	}
	if u.Bio != nil {
		row.Bio = *u.Bio
		columns = append(columns, "bio")
	}
	if u.Skills != nil {
		row.Skills = u.Skills
		columns = append(columns, "skills")
	}
	if u.YearsExperience != nil {
		row.YearsExperience = *u.YearsExperience
		columns = append(columns, "years_experience")
	}
	if u.PricePerHour != nil {
		row.PricePerHour = *u.PricePerHour
		columns = append(columns, "price_per_hour")
	}
	if u.MinimumCharge != nil {
		row.MinimumCharge = *u.MinimumCharge
		columns = append(columns, "minimum_charge")
	}
	if u.Latitude != nil {
		row.Latitude = *u.Latitude
		columns = append(columns, "latitude")
	}
	if u.Longitude != nil {
		row.Longitude = *u.Longitude
		columns = append(columns, "longitude")
	}
	if u.ServiceRadiusKM != nil {
		row.ServiceRadiusKM = *u.ServiceRadiusKM
		columns = append(columns, "service_radius_km")
	}
	if u.Language != nil {
		row.Language = *u.Language
		columns = append(columns, "language")
	}
	return row, columns
}
