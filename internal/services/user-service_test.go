package services

import (
	"context"
	"testing"

	"github.com/SundayYogurt/directory_service/infra/storage"
	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/dto"
	"github.com/SundayYogurt/directory_service/internal/helper"
	"github.com/SundayYogurt/directory_service/internal/repository"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (UserService, helper.Auth) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, storage.SeedDefaults(ctx, db))

	auth := helper.SetupAuth("test-secret")
	return NewUserService(
		repository.NewUserRepository(db),
		repository.NewRoleRepository(db),
		repository.NewUserRoleRepository(db),
		auth,
	), auth
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	ctx := context.Background()
	svc, auth := newUserService(t)

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Email:    "Admin@Example.com",
		Password: "secret123",
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", created.Email)
	require.Equal(t, []string{domain.RoleAdmin}, created.Roles)

	res, err := svc.Login(ctx, dto.UserLogin{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	claims, err := auth.VerifyToken("Bearer " + res.Token)
	require.NoError(t, err)
	require.Equal(t, created.ID, claims.UserID)

	isAdmin, err := svc.IsAdmin(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, isAdmin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	_, err := svc.CreateUser(ctx, dto.CreateUserRequest{Email: "staff@example.com", Password: "secret123", Role: domain.RoleStaff})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.UserLogin{Email: "staff@example.com", Password: "wrong-pass"})
	require.Equal(t, apperr.CategoryAuthentication, apperr.CategoryOf(err))

	_, err = svc.Login(ctx, dto.UserLogin{Email: "nobody@example.com", Password: "secret123"})
	require.Equal(t, apperr.CategoryAuthentication, apperr.CategoryOf(err))

	_, err = svc.CreateUser(ctx, dto.CreateUserRequest{Email: "staff@example.com", Password: "secret123", Role: domain.RoleStaff})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSetRolesReplacesRoles(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	u, err := svc.CreateUser(ctx, dto.CreateUserRequest{Email: "staff@example.com", Password: "secret123", Role: domain.RoleStaff})
	require.NoError(t, err)

	isAdmin, err := svc.IsAdmin(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, isAdmin)

	require.NoError(t, svc.SetRoles(ctx, u.ID, dto.SetRolesRequest{Roles: []string{"admin"}}))
	isAdmin, err = svc.IsAdmin(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, isAdmin)

	err = svc.SetRoles(ctx, u.ID, dto.SetRolesRequest{Roles: []string{"BOOSTER"}})
	require.ErrorIs(t, err, apperr.ErrValidation)

	profile, err := svc.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleAdmin}, profile.Roles)
}
