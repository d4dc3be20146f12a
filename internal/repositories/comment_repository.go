package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id uint) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return apperrors.Persistence("create comment", err)
	}
	return nil
}

func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("comment", id)
	}
	if err != nil {
		return nil, apperrors.Persistence("get comment", err)
	}
	return &comment, nil
}

// GetCommentsByPostID returns the comments of a post, oldest first.
func (r *PostgresCommentRepository) GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at, id").Find(&comments).Error; err != nil {
		return nil, apperrors.Persistence("list comments", err)
	}
	return comments, nil
}

func (r *PostgresCommentRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(comment).Error; err != nil {
		return apperrors.Persistence("update comment", err)
	}
	return nil
}

func (r *PostgresCommentRepository) DeleteComment(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return apperrors.Persistence("delete comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("comment", id)
	}
	return nil
}
