// Package services holds the notification use cases behind the HTTP handlers.
package services

import (
	"context"

	"github.com/anonto42/nano-midea/social/internal/models"
)

const (
	MessageNewPost   = "Create a new post"
	MessageSharePost = "Share your post"
	MessageFollow    = "Started following you"
	MessageLike      = "Liked your post"
	MessageComment   = "Commented on your post"
)

// UserDirectory lists the users a post announcement goes to.
type UserDirectory interface {
	ListAllUserIDs(ctx context.Context) ([]uint, error)
}

// PostRef identifies a post and its author.
type PostRef struct {
	ID       string
	AuthorID uint
}

// FanoutEngine turns a user action into the notification records it produces.
// It never writes anything.
type FanoutEngine struct {
	users UserDirectory
}

func NewFanoutEngine(users UserDirectory) *FanoutEngine {
	return &FanoutEngine{users: users}
}

// ForNewPost addresses every user except the author, followers or not.
func (f *FanoutEngine) ForNewPost(ctx context.Context, actorID uint, postID string) ([]models.Notification, error) {
	ids, err := f.users.ListAllUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		if id == actorID {
			continue
		}
		out = append(out, models.Notification{
			Type:       models.NotificationPost,
			SenderID:   actorID,
			ReceiverID: id,
			PostID:     &postID,
			Message:    MessageNewPost,
		})
	}
	return out, nil
}

// ForSharePost notifies the original author, unless they shared their own post.
func (f *FanoutEngine) ForSharePost(actorID uint, original PostRef) []models.Notification {
	if original.AuthorID == actorID {
		return nil
	}
	postID := original.ID
	return []models.Notification{{
		Type:       models.NotificationShare,
		SenderID:   actorID,
		ReceiverID: original.AuthorID,
		PostID:     &postID,
		Message:    MessageSharePost,
	}}
}

func (f *FanoutEngine) ForFollow(followerID, followingID uint) models.Notification {
	return models.Notification{
		Type:       models.NotificationFollow,
		SenderID:   followerID,
		ReceiverID: followingID,
		Message:    MessageFollow,
	}
}

// ForLike notifies the post author of a like by someone else.
func (f *FanoutEngine) ForLike(actorID uint, post PostRef) []models.Notification {
	if post.AuthorID == actorID {
		return nil
	}
	postID := post.ID
	return []models.Notification{{
		Type:       models.NotificationLike,
		SenderID:   actorID,
		ReceiverID: post.AuthorID,
		PostID:     &postID,
		Message:    MessageLike,
	}}
}

// ForComment notifies the post author of a comment by someone else.
func (f *FanoutEngine) ForComment(actorID uint, post PostRef, commentID string) []models.Notification {
	if post.AuthorID == actorID {
		return nil
	}
	postID := post.ID
	return []models.Notification{{
		Type:       models.NotificationComment,
		SenderID:   actorID,
		ReceiverID: post.AuthorID,
		PostID:     &postID,
		CommentID:  &commentID,
		Message:    MessageComment,
	}}
}
