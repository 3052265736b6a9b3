package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByChannel(ctx context.Context, channelID uint, limit, offset int) ([]models.Post, error)
	UpdateContent(ctx context.Context, post *models.Post) error
	ChannelOf(ctx context.Context, id uint) (uint, error)
	IDsByChannel(ctx context.Context, channelIDs []uint) ([]uint, error)
	IDsByAuthor(ctx context.Context, userID uint) ([]uint, error)
	CountByChannel(ctx context.Context, ids []uint) (map[uint]int, error)
	CountByAuthor(ctx context.Context, ids []uint) (map[uint]int, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, wrapFindErr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) ListByChannel(ctx context.Context, channelID uint, limit, offset int) ([]models.Post, error) {
	limit, offset = clampPage(limit, offset)
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("channel_id = ?", channelID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// UpdateContent persists title and body; counters are never written here.
func (r *postRepository) UpdateContent(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(post).
		Select("title", "body", "updated_at").
		Updates(models.Post{Title: post.Title, Body: post.Body}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) ChannelOf(ctx context.Context, id uint) (uint, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Select("id", "channel_id").First(&post, id).Error; err != nil {
		return 0, wrapFindErr(err, "Post", id)
	}
	return post.ChannelID, nil
}

func (r *postRepository) IDsByChannel(ctx context.Context, channelIDs []uint) ([]uint, error) {
	return pluckIDs(ctx, r.db, &models.Post{}, "channel_id", channelIDs)
}

func (r *postRepository) IDsByAuthor(ctx context.Context, userID uint) ([]uint, error) {
	return pluckIDs(ctx, r.db, &models.Post{}, "user_id", []uint{userID})
}

// CountByChannel groups the given posts by owning channel.
func (r *postRepository) CountByChannel(ctx context.Context, ids []uint) (map[uint]int, error) {
	return groupCount(ctx, r.db, &models.Post{}, "channel_id", ids)
}

// CountByAuthor groups the given posts by author.
func (r *postRepository) CountByAuthor(ctx context.Context, ids []uint) (map[uint]int, error) {
	return groupCount(ctx, r.db, &models.Post{}, "user_id", ids)
}

func (r *postRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	return deleteIDs(ctx, r.db, &models.Post{}, ids)
}
