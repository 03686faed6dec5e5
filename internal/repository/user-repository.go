package repository

import (
	"context"
	"errors"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/helper"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserById(ctx context.Context, userID uint) (*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("nil user")
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, apperr.Conflict("email already registered")
		}
		logrus.WithError(err).Error("create user failed")
		return nil, apperr.Wrap(err, apperr.CategoryDatabase, "DB_ERROR")
	}
	return user, nil
}

func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	if err := r.db.WithContext(ctx).First(user, "email = ?", email).Error; err != nil {
		return nil, userErr(err, email)
	}
	return user, nil
}

func (r *userRepository) FindUserById(ctx context.Context, userID uint) (*domain.User, error) {
	user := &domain.User{}
	if err := r.db.WithContext(ctx).First(user, userID).Error; err != nil {
		return nil, userErr(err, "")
	}
	return user, nil
}

func (r *userRepository) SaveUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("save user failed")
		return apperr.Wrap(err, apperr.CategoryDatabase, "DB_ERROR")
	}
	return nil
}

func userErr(err error, key string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("user", key)
	}
	logrus.WithError(err).Error("find user failed")
	return apperr.Wrap(err, apperr.CategoryDatabase, "DB_ERROR")
}
