package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/events"
	"github.com/anonto42/nano-midea/social/internal/metrics"
	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/anonto42/nano-midea/social/internal/repositories"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Pusher delivers persisted notifications to online recipients.
type Pusher interface {
	Dispatch(recipientID uint, notifications ...models.Notification)
}

// NotificationService persists the notifications an action produces and then
// pushes them. Every record of an action is stored before any is pushed.
type NotificationService struct {
	store     repositories.NotificationRepository
	fanout    *FanoutEngine
	pusher    Pusher
	publisher events.Publisher
	log       *zap.SugaredLogger
}

func NewNotificationService(
	store repositories.NotificationRepository,
	fanout *FanoutEngine,
	pusher Pusher,
	publisher events.Publisher,
	log *zap.SugaredLogger,
) *NotificationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &NotificationService{store: store, fanout: fanout, pusher: pusher, publisher: publisher, log: log}
}

// OnPostCreated announces a new post to every other user.
func (s *NotificationService) OnPostCreated(ctx context.Context, actorID uint, postID string) ([]models.Notification, error) {
	records, err := s.fanout.ForNewPost(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	return s.deliver(ctx, records)
}

// OnPostShared tells the original author that their post was shared.
func (s *NotificationService) OnPostShared(ctx context.Context, actorID uint, original PostRef) ([]models.Notification, error) {
	return s.deliver(ctx, s.fanout.ForSharePost(actorID, original))
}

// OnFollowToggled notifies a followed user. An unfollow only removes the
// earlier follow notification and pushes nothing.
func (s *NotificationService) OnFollowToggled(ctx context.Context, followerID, followingID uint, nowFollowing bool) error {
	if !nowFollowing {
		removed, err := s.store.DeleteByParticipants(ctx, followerID, followingID, models.NotificationFollow)
		if err != nil {
			return err
		}
		s.log.Debugw("follow notifications removed", "follower_id", followerID, "following_id", followingID, "count", removed)
		return nil
	}

	_, err := s.deliver(ctx, []models.Notification{s.fanout.ForFollow(followerID, followingID)})
	return err
}

// OnPostLiked tells the author about a like. Unliking leaves the notification in place.
func (s *NotificationService) OnPostLiked(ctx context.Context, actorID uint, post PostRef) ([]models.Notification, error) {
	return s.deliver(ctx, s.fanout.ForLike(actorID, post))
}

// OnPostCommented tells the author about a new comment.
func (s *NotificationService) OnPostCommented(ctx context.Context, actorID uint, post PostRef, commentID string) ([]models.Notification, error) {
	return s.deliver(ctx, s.fanout.ForComment(actorID, post, commentID))
}

func (s *NotificationService) deliver(ctx context.Context, records []models.Notification) ([]models.Notification, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var created []models.Notification
	if len(records) == 1 {
		if err := s.store.CreateOne(ctx, &records[0]); err != nil {
			return nil, err
		}
		created = records
	} else {
		var err error
		if created, err = s.store.CreateMany(ctx, records); err != nil {
			return nil, err
		}
	}
	metrics.NotificationsCreated.WithLabelValues(string(created[0].Type)).Add(float64(len(created)))

	for _, n := range created {
		s.pusher.Dispatch(n.ReceiverID, n)
	}
	s.publish(ctx, created)
	return created, nil
}

// publish runs detached from the request; a broker outage costs a log line.
func (s *NotificationService) publish(ctx context.Context, created []models.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishNotifications(ctx, created...); err != nil {
			s.log.Warnw("publish notification events", "count", len(created), "error", err)
		}
	}()
}

// FindPage returns one page of the receiver's unread notifications.
func (s *NotificationService) FindPage(ctx context.Context, receiverID uint, cursor string, limit int) (*models.NotificationPage, error) {
	return s.store.FindPage(ctx, receiverID, cursor, limit)
}

// MarkRead marks a notification of userID as read. Someone else's
// notification is reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, userID uint, id string) error {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.ReceiverID != userID {
		return apperrors.NotFound("notification", id)
	}
	return s.store.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *NotificationService) Get(ctx context.Context, userID uint, id string) (*models.Notification, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.ReceiverID != userID {
		return nil, apperrors.NotFound("notification", id)
	}
	return n, nil
}
