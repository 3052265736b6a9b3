package repository

import (
	"context"
	"errors"

	"agora/internal/database"
	"agora/internal/models"

	"gorm.io/gorm"
)

// ReactionRepository is the storage side of the reaction ledger.
type ReactionRepository interface {
	Exists(ctx context.Context, userID uint, target models.Target, polarity models.Polarity) (bool, error)
	Create(ctx context.Context, reaction *models.Reaction) error
	Delete(ctx context.Context, userID uint, target models.Target, polarity models.Polarity) (bool, error)
	DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []uint) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) (int64, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Reaction, error)
	CountForTarget(ctx context.Context, target models.Target) (int64, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) scope(ctx context.Context, userID uint, target models.Target, polarity models.Polarity) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND target_kind = ? AND target_id = ? AND polarity = ?", userID, target.Kind, target.ID, polarity)
}

func (r *reactionRepository) Exists(ctx context.Context, userID uint, target models.Target, polarity models.Polarity) (bool, error) {
	var reaction models.Reaction
	err := r.scope(ctx, userID, target, polarity).Select("id").Take(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

// Create inserts a ledger row. A unique index violation means a concurrent
// call already recorded the same reaction.
func (r *reactionRepository) Create(ctx context.Context, reaction *models.Reaction) error {
	if err := r.db.WithContext(ctx).Create(reaction).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return models.NewAlreadyReactedError(reaction.Polarity)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reactionRepository) Delete(ctx context.Context, userID uint, target models.Target, polarity models.Polarity) (bool, error) {
	res := r.scope(ctx, userID, target, polarity).Delete(&models.Reaction{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *reactionRepository) DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []uint) (int64, error) {
	var total int64
	err := batches(ids, func(batch []uint) error {
		res := r.db.WithContext(ctx).
			Where("target_kind = ? AND target_id IN ?", kind, batch).
			Delete(&models.Reaction{})
		total += res.RowsAffected
		return res.Error
	})
	if err != nil {
		return total, models.NewInternalError(err)
	}
	return total, nil
}

func (r *reactionRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Reaction{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *reactionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Reaction, error) {
	var reactions []models.Reaction
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&reactions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reactions, nil
}

func (r *reactionRepository) CountForTarget(ctx context.Context, target models.Target) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
