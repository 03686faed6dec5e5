package repository

import (
	"context"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"gorm.io/gorm"
)

type ReviewLogRepository interface {
	ListByEntity(ctx context.Context, entity domain.EntityType, entityID string) ([]domain.ReviewLog, error)
}

type reviewLogRepository struct {
	db *gorm.DB
}

func NewReviewLogRepository(db *gorm.DB) ReviewLogRepository {
	return &reviewLogRepository{db: db}
}

func (r *reviewLogRepository) ListByEntity(ctx context.Context, entity domain.EntityType, entityID string) ([]domain.ReviewLog, error) {
	var logs []domain.ReviewLog
	err := r.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("decided_at DESC").
		Order("id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CategoryDatabase, "DB_ERROR")
	}
	return logs, nil
}
