package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, postID string, userID uint) error
	HasUserLikedPost(ctx context.Context, postID string, userID uint) (bool, error)
	GetLikesCountByPostID(ctx context.Context, postID string) (int64, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(like).Error; err != nil {
		return apperrors.Persistence("create like", err)
	}
	return nil
}

func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, postID string, userID uint) error {
	res := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return apperrors.Persistence("delete like", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("like on post", postID)
	}
	return nil
}

func (r *PostgresLikeRepository) HasUserLikedPost(ctx context.Context, postID string, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Persistence("check like", err)
	}
	return count > 0, nil
}

func (r *PostgresLikeRepository) GetLikesCountByPostID(ctx context.Context, postID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, apperrors.Persistence("count likes", err)
	}
	return count, nil
}
