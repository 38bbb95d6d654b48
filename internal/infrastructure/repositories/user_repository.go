package repositories

import (
	"github.com/you/homeauth/domain"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements domain.IdentityRepository for the users table
type UserRepositoryImpl struct {
	identityRepository[DBUser, *DBUser]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.IdentityRepository {
	return &UserRepositoryImpl{
		identityRepository: identityRepository[DBUser, *DBUser]{db: db, kind: domain.KindUser},
	}
}
