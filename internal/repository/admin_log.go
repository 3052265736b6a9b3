package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// AdminLogRepository records role changes.
type AdminLogRepository interface {
	Create(ctx context.Context, entry *models.AdminLog) error
	List(ctx context.Context, limit, offset int) ([]models.AdminLog, error)
}

type adminLogRepository struct {
	db *gorm.DB
}

// NewAdminLogRepository returns a new AdminLogRepository implementation.
func NewAdminLogRepository(db *gorm.DB) AdminLogRepository {
	return &adminLogRepository{db: db}
}

func (r *adminLogRepository) Create(ctx context.Context, entry *models.AdminLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *adminLogRepository) List(ctx context.Context, limit, offset int) ([]models.AdminLog, error) {
	limit, offset = clampPage(limit, offset)
	var entries []models.AdminLog
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
