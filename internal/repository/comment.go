package repository

import (
	"context"
	"errors"

	"agora/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error)
	UpdateBody(ctx context.Context, comment *models.Comment) error
	ExistsDuplicate(ctx context.Context, postID, userID uint, body string) (bool, error)
	ChannelOf(ctx context.Context, id uint) (uint, error)
	IDsByPosts(ctx context.Context, postIDs []uint) ([]uint, error)
	IDsByAuthor(ctx context.Context, userID uint) ([]uint, error)
	CountByPost(ctx context.Context, ids []uint) (map[uint]int, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, wrapFindErr(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	limit, offset = clampPage(limit, offset)
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) UpdateBody(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Model(comment).
		Select("body", "updated_at").
		Updates(models.Comment{Body: comment.Body}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ExistsDuplicate reports an identical (body, author, post) comment.
func (r *commentRepository) ExistsDuplicate(ctx context.Context, postID, userID uint, body string) (bool, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Select("id").
		Where("post_id = ? AND user_id = ? AND body = ?", postID, userID, body).
		Take(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func (r *commentRepository) ChannelOf(ctx context.Context, id uint) (uint, error) {
	var channelID uint
	res := r.db.WithContext(ctx).Table("comments").
		Select("posts.channel_id").
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("comments.id = ?", id).
		Limit(1).
		Scan(&channelID)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, models.NewNotFoundError("Comment", id)
	}
	return channelID, nil
}

func (r *commentRepository) IDsByPosts(ctx context.Context, postIDs []uint) ([]uint, error) {
	return pluckIDs(ctx, r.db, &models.Comment{}, "post_id", postIDs)
}

func (r *commentRepository) IDsByAuthor(ctx context.Context, userID uint) ([]uint, error) {
	return pluckIDs(ctx, r.db, &models.Comment{}, "user_id", []uint{userID})
}

// CountByPost groups the given comments by parent post.
func (r *commentRepository) CountByPost(ctx context.Context, ids []uint) (map[uint]int, error) {
	return groupCount(ctx, r.db, &models.Comment{}, "post_id", ids)
}

func (r *commentRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	return deleteIDs(ctx, r.db, &models.Comment{}, ids)
}
