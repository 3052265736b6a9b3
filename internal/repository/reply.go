package repository

import (
	"context"
	"errors"

	"agora/internal/models"

	"gorm.io/gorm"
)

// ReplyRepository defines persistence operations for replies.
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id uint) (*models.Reply, error)
	ListByComment(ctx context.Context, commentID uint, limit, offset int) ([]models.Reply, error)
	UpdateBody(ctx context.Context, reply *models.Reply) error
	ExistsDuplicate(ctx context.Context, commentID, userID uint, body string) (bool, error)
	ChannelOf(ctx context.Context, id uint) (uint, error)
	IDsByComments(ctx context.Context, commentIDs []uint) ([]uint, error)
	IDsByAuthor(ctx context.Context, userID uint) ([]uint, error)
	CountByComment(ctx context.Context, ids []uint) (map[uint]int, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new reply repository
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(reply).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *replyRepository) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	var reply models.Reply
	if err := r.db.WithContext(ctx).Preload("User").First(&reply, id).Error; err != nil {
		return nil, wrapFindErr(err, "Reply", id)
	}
	return &reply, nil
}

func (r *replyRepository) ListByComment(ctx context.Context, commentID uint, limit, offset int) ([]models.Reply, error) {
	limit, offset = clampPage(limit, offset)
	var replies []models.Reply
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("comment_id = ?", commentID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&replies).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return replies, nil
}

func (r *replyRepository) UpdateBody(ctx context.Context, reply *models.Reply) error {
	err := r.db.WithContext(ctx).Model(reply).
		Select("body", "updated_at").
		Updates(models.Reply{Body: reply.Body}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ExistsDuplicate reports an identical (body, author, comment) reply.
func (r *replyRepository) ExistsDuplicate(ctx context.Context, commentID, userID uint, body string) (bool, error) {
	var reply models.Reply
	err := r.db.WithContext(ctx).Select("id").
		Where("comment_id = ? AND user_id = ? AND body = ?", commentID, userID, body).
		Take(&reply).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func (r *replyRepository) ChannelOf(ctx context.Context, id uint) (uint, error) {
	var channelID uint
	res := r.db.WithContext(ctx).Table("replies").
		Select("posts.channel_id").
		Joins("JOIN posts ON posts.id = replies.post_id").
		Where("replies.id = ?", id).
		Limit(1).
		Scan(&channelID)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, models.NewNotFoundError("Reply", id)
	}
	return channelID, nil
}

func (r *replyRepository) IDsByComments(ctx context.Context, commentIDs []uint) ([]uint, error) {
	return pluckIDs(ctx, r.db, &models.Reply{}, "comment_id", commentIDs)
}

func (r *replyRepository) IDsByAuthor(ctx context.Context, userID uint) ([]uint, error) {
	return pluckIDs(ctx, r.db, &models.Reply{}, "user_id", []uint{userID})
}

// CountByComment groups the given replies by parent comment.
func (r *replyRepository) CountByComment(ctx context.Context, ids []uint) (map[uint]int, error) {
	return groupCount(ctx, r.db, &models.Reply{}, "comment_id", ids)
}

func (r *replyRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	return deleteIDs(ctx, r.db, &models.Reply{}, ids)
}
