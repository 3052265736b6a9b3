package repository

import (
	"context"

	"agora/internal/database"
	"agora/internal/models"

	"gorm.io/gorm"
)

// ChannelRepository defines persistence operations for channels.
type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id uint) (*models.Channel, error)
	GetByName(ctx context.Context, name string) (*models.Channel, error)
	Update(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.Channel, error)
	PostCounts(ctx context.Context, ids ...uint) (map[uint]int, error)
}

type channelRepository struct {
	db *gorm.DB
}

// NewChannelRepository returns a new ChannelRepository implementation.
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) Create(ctx context.Context, channel *models.Channel) error {
	if err := r.db.WithContext(ctx).Create(channel).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return models.NewConflictError("Channel already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *channelRepository) GetByID(ctx context.Context, id uint) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).First(&channel, id).Error; err != nil {
		return nil, wrapFindErr(err, "Channel", id)
	}
	return &channel, nil
}

func (r *channelRepository) GetByName(ctx context.Context, name string) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).Where("name = ?", models.NormalizeChannelName(name)).First(&channel).Error; err != nil {
		return nil, wrapFindErr(err, "Channel", name)
	}
	return &channel, nil
}

// Update writes name and type only; post_count belongs to the counter path.
func (r *channelRepository) Update(ctx context.Context, channel *models.Channel) error {
	err := r.db.WithContext(ctx).Model(channel).
		Select("name", "type", "updated_at").
		Updates(channel).Error
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.NewConflictError("Channel already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *channelRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Channel{}, id)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *channelRepository) List(ctx context.Context, limit, offset int) ([]models.Channel, error) {
	limit, offset = clampPage(limit, offset)
	var channels []models.Channel
	if err := r.db.WithContext(ctx).Order("name ASC").Limit(limit).Offset(offset).Find(&channels).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return channels, nil
}

// PostCounts reads the current post_count of each channel. Missing ids are
// absent from the result.
func (r *channelRepository) PostCounts(ctx context.Context, ids ...uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		ID        uint
		PostCount int
	}
	if err := r.db.WithContext(ctx).Model(&models.Channel{}).
		Select("id, post_count").
		Where("id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		counts[row.ID] = row.PostCount
	}
	return counts, nil
}
