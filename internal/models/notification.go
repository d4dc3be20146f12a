package models

import (
	"time"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType is the action that produced a notification.
type NotificationType string

const (
	NotificationPost    NotificationType = "POST"
	NotificationShare   NotificationType = "SHARE"
	NotificationFollow  NotificationType = "FOLLOW"
	NotificationComment NotificationType = "COMMENT"
	NotificationLike    NotificationType = "LIKE"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationPost, NotificationShare, NotificationFollow, NotificationComment, NotificationLike:
		return true
	}
	return false
}

// ParseNotificationType validates a raw type coming from outside the process.
func ParseNotificationType(raw string) (NotificationType, error) {
	t := NotificationType(raw)
	if !t.Valid() {
		return "", apperrors.Validation("type must be one of: (POST,SHARE,FOLLOW,COMMENT,LIKE), got %q", raw)
	}
	return t, nil
}

// Notification is a persisted notice addressed to one receiver (PostgreSQL).
type Notification struct {
	ID         string           `json:"id" gorm:"type:varchar(36);primaryKey"`
	Type       NotificationType `json:"type" gorm:"size:20;not null;index"`
	SenderID   uint             `json:"sender_id" gorm:"not null;index"`
	ReceiverID uint             `json:"receiver_id" gorm:"not null;index:idx_notifications_receiver_created"`
	PostID     *string          `json:"post_id,omitempty" gorm:"size:64"`
	CommentID  *string          `json:"comment_id,omitempty" gorm:"size:64"`
	Message    string           `json:"message" gorm:"not null"`
	IsRead     bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt  time.Time        `json:"created_at" gorm:"index:idx_notifications_receiver_created"`
	UpdatedAt  time.Time        `json:"updated_at"`

	Sender   User `json:"-" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	Receiver User `json:"-" gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns the opaque identity when the caller did not.
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Validate checks a record before it is written.
func (n *Notification) Validate() error {
	if !n.Type.Valid() {
		return apperrors.Validation("unknown notification type %q", n.Type)
	}
	if n.SenderID == 0 || n.ReceiverID == 0 {
		return apperrors.Validation("sender and receiver are required")
	}
	if n.SenderID == n.ReceiverID {
		return apperrors.Validation("user %d cannot be notified of their own action", n.SenderID)
	}
	if n.Message == "" {
		return apperrors.Validation("message is required")
	}
	return nil
}

// NotificationPage is one page of a receiver's unread notifications.
type NotificationPage struct {
	Items      []Notification `json:"items"`
	NextCursor *string        `json:"next_cursor"`
}
