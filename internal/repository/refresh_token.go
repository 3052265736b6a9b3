package repository

import (
	"context"
	"time"

	"agora/internal/models"

	"gorm.io/gorm"
)

// RefreshTokenRepository stores the one live refresh token per user.
type RefreshTokenRepository interface {
	Replace(ctx context.Context, userID uint, tokenID string, expiresAt time.Time) error
	Rotate(ctx context.Context, userID uint, oldTokenID, newTokenID string, expiresAt time.Time) (bool, error)
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteByTokenID(ctx context.Context, tokenID string) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository returns a new RefreshTokenRepository implementation.
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Replace drops any previous token of the user and stores the new one.
func (r *refreshTokenRepository) Replace(ctx context.Context, userID uint, tokenID string, expiresAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.RefreshToken{UserID: userID, TokenID: tokenID, ExpiresAt: expiresAt}).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Rotate swaps oldTokenID for newTokenID only if oldTokenID is still the
// user's live, unexpired token. A false result means the token was already
// used, revoked or expired.
func (r *refreshTokenRepository) Rotate(ctx context.Context, userID uint, oldTokenID, newTokenID string, expiresAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND token_id = ? AND expires_at > ?", userID, oldTokenID, time.Now()).
		Updates(map[string]interface{}{"token_id": newTokenID, "expires_at": expiresAt})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *refreshTokenRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *refreshTokenRepository) DeleteByTokenID(ctx context.Context, tokenID string) error {
	if err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).Delete(&models.RefreshToken{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
