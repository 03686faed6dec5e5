package services

import (
	"context"
	"errors"
	"strings"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/dto"
	"github.com/SundayYogurt/directory_service/internal/helper"
	"github.com/SundayYogurt/directory_service/internal/repository"
	"github.com/sirupsen/logrus"
)

type UserService interface {
	// Auth
	Login(ctx context.Context, input dto.UserLogin) (*dto.LoginResponse, error)
	GetProfile(ctx context.Context, userID uint) (*dto.UserProfileResponse, error)

	// Admin: users & roles
	CreateUser(ctx context.Context, input dto.CreateUserRequest) (*dto.UserProfileResponse, error)
	SetRoles(ctx context.Context, userID uint, input dto.SetRolesRequest) error
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

type userService struct {
	userRepo     repository.UserRepository
	roleRepo     repository.RoleRepository
	userRoleRepo repository.UserRoleRepository
	auth         helper.Auth
}

func NewUserService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	userRoleRepo repository.UserRoleRepository,
	auth helper.Auth,
) UserService {
	return &userService{
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		userRoleRepo: userRoleRepo,
		auth:         auth,
	}
}

func (s *userService) Login(ctx context.Context, input dto.UserLogin) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, apperr.Validation(map[string]string{"credentials": "email and password are required"})
	}

	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("invalid email or password")
		}
		return nil, err
	}
	if user.Status != "" && user.Status != "active" {
		return nil, apperr.Forbidden("account is " + user.Status)
	}
	if err := s.auth.VerifyPassword(input.Password, user.PasswordHash); err != nil {
		logrus.WithField("user_id", user.ID).Info("login rejected")
		return nil, err
	}

	token, err := s.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: *profile}, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*dto.UserProfileResponse, error) {
	user, err := s.userRepo.FindUserById(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

func (s *userService) CreateUser(ctx context.Context, input dto.CreateUserRequest) (*dto.UserProfileResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	problems := map[string]string{}
	if !strings.Contains(email, "@") {
		problems["email"] = "must be a valid email"
	}
	if len(input.Password) < 6 {
		problems["password"] = "must be at least 6 characters"
	}
	if input.Role != domain.RoleAdmin && input.Role != domain.RoleStaff {
		problems["role"] = "must be ADMIN or STAFF"
	}
	if len(problems) > 0 {
		return nil, apperr.Validation(problems)
	}

	hashed, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.CreateUser(ctx, &domain.User{
		Email:        email,
		PasswordHash: hashed,
		DisplayName:  strings.TrimSpace(input.DisplayName),
	})
	if err != nil {
		return nil, err
	}
	if err := s.SetRoles(ctx, user.ID, dto.SetRolesRequest{Roles: []string{input.Role}}); err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

func (s *userService) SetRoles(ctx context.Context, userID uint, input dto.SetRolesRequest) error {
	if len(input.Roles) == 0 {
		return apperr.Validation(map[string]string{"roles": "is required"})
	}
	if _, err := s.userRepo.FindUserById(ctx, userID); err != nil {
		return err
	}

	roleIDs := make([]uint, 0, len(input.Roles))
	for _, code := range input.Roles {
		role, err := s.roleRepo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Validation(map[string]string{"roles": "unknown role " + code})
			}
			return err
		}
		roleIDs = append(roleIDs, role.ID)
	}
	return s.userRoleRepo.ReplaceUserRoles(ctx, userID, roleIDs)
}

func (s *userService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	return s.userRoleRepo.UserHasRole(ctx, userID, domain.RoleAdmin)
}

func (s *userService) profile(ctx context.Context, user *domain.User) (*dto.UserProfileResponse, error) {
	roles, err := s.userRoleRepo.GetRoleCodesByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.UserProfileResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       roles,
	}, nil
}
