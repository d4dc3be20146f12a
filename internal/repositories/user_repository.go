package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	ListAllUserIDs(ctx context.Context) ([]uint, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) error
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return apperrors.Persistence("create user", err)
	}
	return nil
}

func (r *PostgresUserRepository) first(ctx context.Context, what any, query string, args ...any) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user", what)
	}
	if err != nil {
		return nil, apperrors.Persistence("get user", err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, id, "id = ?", id)
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, email, "email = ?", email)
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.first(ctx, firebaseUID, "firebase_uid = ?", firebaseUID)
}

// ListAllUserIDs returns the id of every known user in ascending order.
func (r *PostgresUserRepository) ListAllUserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Persistence("list user ids", err)
	}
	return ids, nil
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return apperrors.Persistence("update user", err)
	}
	return nil
}

func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return apperrors.Persistence("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// SearchUsers searches for users by name, username or email (case-insensitive)
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	like := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like, like).
		Order("id").
		Limit(50).
		Find(&users).Error
	if err != nil {
		return nil, apperrors.Persistence("search users", err)
	}
	return users, nil
}
