package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDefaults creates the roles and the month lookup rows.
func SeedDefaults(ctx context.Context, db *gorm.DB) error {
	if err := repository.NewRoleRepository(db).EnsureRoles(ctx, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	months := make([]string, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, m.String())
	}
	if err := repository.NewLookupRepository(db).EnsureNames(ctx, domain.RefMonth, months); err != nil {
		return fmt.Errorf("seed months: %w", err)
	}
	return nil
}

// SeedUser creates or updates a user with the given role.
func SeedUser(ctx context.Context, db *gorm.DB, email, password, roleCode string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := repository.NewUserRepository(db)
	user, err := users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		user.PasswordHash = string(hashed)
		if err := users.SaveUser(ctx, user); err != nil {
			return nil, err
		}
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	default:
		user, err = users.CreateUser(ctx, &domain.User{
			Email:        email,
			PasswordHash: string(hashed),
			DisplayName:  strings.Split(email, "@")[0],
			Status:       "active",
		})
		if err != nil {
			return nil, err
		}
	}

	role, err := repository.NewRoleRepository(db).FindByCode(ctx, roleCode)
	if err != nil {
		return nil, fmt.Errorf("role %s: %w", roleCode, err)
	}
	if err := repository.NewUserRoleRepository(db).ReplaceUserRoles(ctx, user.ID, []uint{role.ID}); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"email": email, "role": roleCode}).Info("user seeded")
	return user, nil
}
