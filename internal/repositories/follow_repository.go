package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(ctx context.Context, follow *models.Follow) error
	DeleteFollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowers(ctx context.Context, userID uint) ([]models.User, error)
	GetFollowing(ctx context.Context, userID uint) ([]models.User, error)
	GetFollowersCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingCount(ctx context.Context, userID uint) (int64, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(follow).Error; err != nil {
		return apperrors.Persistence("create follow", err)
	}
	return nil
}

func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID uint) error {
	res := r.db.WithContext(ctx).Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
	if res.Error != nil {
		return apperrors.Persistence("delete follow", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("follow relationship", followingID)
	}
	return nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Persistence("check follow", err)
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	return r.users(ctx, "follower_id", "following_id", userID)
}

func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return r.users(ctx, "following_id", "follower_id", userID)
}

func (r *PostgresFollowRepository) users(ctx context.Context, pick, match string, userID uint) ([]models.User, error) {
	var users []models.User
	db := r.db.WithContext(ctx)
	err := db.Where("id IN (?)",
		db.Model(&models.Follow{}).Select(pick).Where(match+" = ?", userID),
	).Order("id").Find(&users).Error
	if err != nil {
		return nil, apperrors.Persistence("list follow graph", err)
	}
	return users, nil
}

func (r *PostgresFollowRepository) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "following_id = ?", userID)
}

func (r *PostgresFollowRepository) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "follower_id = ?", userID)
}

func (r *PostgresFollowRepository) count(ctx context.Context, query string, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where(query, userID).Count(&count).Error; err != nil {
		return 0, apperrors.Persistence("count follows", err)
	}
	return count, nil
}
