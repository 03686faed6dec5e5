package repository

import (
	"context"
	"errors"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Role, error)
	EnsureRoles(ctx context.Context, codes ...string) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindByCode(ctx context.Context, code string) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("role", code)
		}
		return nil, apperr.Wrap(err, apperr.CategoryDatabase, "DB_ERROR")
	}
	return &role, nil
}

// EnsureRoles creates the roles that do not exist yet.
func (r *roleRepository) EnsureRoles(ctx context.Context, codes ...string) error {
	for _, code := range codes {
		var role domain.Role
		err := r.db.WithContext(ctx).Where("code = ?", code).First(&role).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := r.db.WithContext(ctx).Create(&domain.Role{Code: code, Name: code}).Error; err != nil {
			return err
		}
	}
	return nil
}
