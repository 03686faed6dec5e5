package repository

import (
	"context"
	"errors"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/helper"
	"gorm.io/gorm"
)

type LookupRepository interface {
	Create(ctx context.Context, l *domain.Lookup) error
	ListByKind(ctx context.Context, kind domain.RefKind) ([]domain.Lookup, error)
	ListAll(ctx context.Context) ([]domain.Lookup, error)
	EnsureNames(ctx context.Context, kind domain.RefKind, names []string) error
}

type lookupRepository struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) LookupRepository {
	return &lookupRepository{db: db}
}

func (r *lookupRepository) Create(ctx context.Context, l *domain.Lookup) error {
	if l == nil {
		return errors.New("nil lookup")
	}
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return apperr.Conflict(string(l.Kind) + " " + l.Name + " already exists")
		}
		return apperr.Wrap(err, apperr.CategoryDatabase, "DB_ERROR")
	}
	return nil
}

func (r *lookupRepository) ListByKind(ctx context.Context, kind domain.RefKind) ([]domain.Lookup, error) {
	var rows []domain.Lookup
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at ASC").
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CategoryDatabase, "DB_ERROR")
	}
	return rows, nil
}

func (r *lookupRepository) ListAll(ctx context.Context) ([]domain.Lookup, error) {
	var rows []domain.Lookup
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CategoryDatabase, "DB_ERROR")
	}
	return rows, nil
}

// EnsureNames inserts the missing names of kind.
func (r *lookupRepository) EnsureNames(ctx context.Context, kind domain.RefKind, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			var l domain.Lookup
			err := tx.Where("kind = ? AND name = ?", kind, name).First(&l).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.Create(&domain.Lookup{Kind: kind, Name: name}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
