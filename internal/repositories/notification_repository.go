package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultPageLimit is the page size used when the caller passes zero.
	DefaultPageLimit = 5
	// MaxPageLimit bounds a single page.
	MaxPageLimit = 50

	// createBatchSize keeps every INSERT of a broadcast well below the bind
	// variable limits of PostgreSQL (65535) and SQLite (32766).
	createBatchSize = 500
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateOne(ctx context.Context, notification *models.Notification) error
	CreateMany(ctx context.Context, notifications []models.Notification) ([]models.Notification, error)
	Get(ctx context.Context, id string) (*models.Notification, error)
	FindPage(ctx context.Context, receiverID uint, cursor string, limit int) (*models.NotificationPage, error)
	UnreadCount(ctx context.Context, receiverID uint) (int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, receiverID uint) (int64, error)
	DeleteOne(ctx context.Context, id string) error
	DeleteByParticipants(ctx context.Context, senderID, receiverID uint, kind models.NotificationType) (int64, error)
}

type postgresNotificationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NotificationRepositoryOption customizes the repository.
type NotificationRepositoryOption func(*postgresNotificationRepository)

// WithClock replaces the timestamp source for new records.
func WithClock(now func() time.Time) NotificationRepositoryOption {
	return func(r *postgresNotificationRepository) {
		r.now = now
	}
}

func NewPostgresNotificationRepository(db *gorm.DB, opts ...NotificationRepositoryOption) NotificationRepository {
	r := &postgresNotificationRepository{
		db: db,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *postgresNotificationRepository) stamp(n *models.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	n.UpdatedAt = n.CreatedAt
	n.IsRead = false
}

func (r *postgresNotificationRepository) CreateOne(ctx context.Context, notification *models.Notification) error {
	if err := notification.Validate(); err != nil {
		return err
	}
	r.stamp(notification)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(notification).Error; err != nil {
		return apperrors.Persistence("create notification", err)
	}
	return nil
}

// CreateMany validates every record first and then writes them in bounded
// INSERT batches inside one transaction, so a batch is stored entirely or not at all.
func (r *postgresNotificationRepository) CreateMany(ctx context.Context, notifications []models.Notification) ([]models.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}
	for i := range notifications {
		if err := notifications[i].Validate(); err != nil {
			return nil, err
		}
	}

	// All records of one batch share the same timestamp.
	createdAt := r.now()
	for i := range notifications {
		if notifications[i].CreatedAt.IsZero() {
			notifications[i].CreatedAt = createdAt
		}
		r.stamp(&notifications[i])
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).CreateInBatches(&notifications, createBatchSize).Error
	})
	if err != nil {
		return nil, apperrors.Persistence("create notifications", err)
	}
	return notifications, nil
}

func (r *postgresNotificationRepository) Get(ctx context.Context, id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("notification", id)
	}
	if err != nil {
		return nil, apperrors.Persistence("get notification", err)
	}
	return &notification, nil
}

// FindPage returns up to limit unread notifications for the receiver, newest first.
// It reads limit+1 rows; when the extra row exists its id becomes the next cursor
// and the following page starts at that row.
func (r *postgresNotificationRepository) FindPage(ctx context.Context, receiverID uint, cursor string, limit int) (*models.NotificationPage, error) {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 0 || limit > MaxPageLimit {
		return nil, apperrors.Validation("limit must be between 1 and %d, got %d", MaxPageLimit, limit)
	}

	query := r.db.WithContext(ctx).
		Where("receiver_id = ? AND sender_id <> receiver_id AND is_read = ?", receiverID, false)

	if cursor != "" {
		var anchor models.Notification
		err := r.db.WithContext(ctx).
			Select("id", "created_at").
			Where("id = ? AND receiver_id = ?", cursor, receiverID).
			First(&anchor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validation("unknown cursor %q", cursor)
		}
		if err != nil {
			return nil, apperrors.Persistence("resolve cursor", err)
		}
		query = query.Where("(created_at < ? OR (created_at = ? AND id <= ?))", anchor.CreatedAt, anchor.CreatedAt, anchor.ID)
	}

	var rows []models.Notification
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Persistence("find notifications", err)
	}

	page := &models.NotificationPage{Items: rows}
	if len(rows) > limit {
		next := rows[limit].ID
		page.NextCursor = &next
		page.Items = rows[:limit]
	}
	if page.Items == nil {
		page.Items = []models.Notification{}
	}
	return page, nil
}

func (r *postgresNotificationRepository) UnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("receiver_id = ? AND sender_id <> receiver_id AND is_read = ?", receiverID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Persistence("count unread notifications", err)
	}
	return count, nil
}

// MarkRead only ever sets the flag to true, so repeating it is harmless.
func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return apperrors.Persistence("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("notification", id)
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, receiverID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperrors.Persistence("mark all notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *postgresNotificationRepository) DeleteOne(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Notification{})
	if res.Error != nil {
		return apperrors.Persistence("delete notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("notification", id)
	}
	return nil
}

func (r *postgresNotificationRepository) DeleteByParticipants(ctx context.Context, senderID, receiverID uint, kind models.NotificationType) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND type = ?", senderID, receiverID, kind).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, apperrors.Persistence("delete notifications", res.Error)
	}
	return res.RowsAffected, nil
}
