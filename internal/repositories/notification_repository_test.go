package repositories

import (
	"context"
	"testing"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/anonto42/nano-midea/social/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotification(sender, receiver uint, kind models.NotificationType) *models.Notification {
	return &models.Notification{
		Type:       kind,
		SenderID:   sender,
		ReceiverID: receiver,
		Message:    "Create a new post",
	}
}

func TestNotificationRepository_CreateOne(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := testutil.SeedUsers(t, db, 2)
	repo := NewPostgresNotificationRepository(db, WithClock(testutil.TickingClock()))

	t.Run("assigns id and timestamp", func(t *testing.T) {
		n := newNotification(users[0].ID, users[1].ID, models.NotificationFollow)
		require.NoError(t, repo.CreateOne(ctx, n))

		assert.NotEmpty(t, n.ID)
		assert.False(t, n.CreatedAt.IsZero())
		assert.False(t, n.IsRead)

		stored, err := repo.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, models.NotificationFollow, stored.Type)
	})

	t.Run("rejects self notification", func(t *testing.T) {
		err := repo.CreateOne(ctx, newNotification(users[0].ID, users[0].ID, models.NotificationPost))
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		err := repo.CreateOne(ctx, newNotification(users[0].ID, users[1].ID, "POKE"))
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown receiver is a persistence error", func(t *testing.T) {
		err := repo.CreateOne(ctx, newNotification(users[0].ID, 999, models.NotificationFollow))
		assert.ErrorIs(t, err, apperrors.ErrPersistence)
	})
}

func TestNotificationRepository_CreateManyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := testutil.SeedUsers(t, db, 3)
	repo := NewPostgresNotificationRepository(db)

	batch := []models.Notification{
		*newNotification(users[0].ID, users[1].ID, models.NotificationPost),
		*newNotification(users[0].ID, users[0].ID, models.NotificationPost),
	}
	_, err := repo.CreateMany(ctx, batch)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	count, err := repo.UnreadCount(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	created, err := repo.CreateMany(ctx, []models.Notification{
		*newNotification(users[0].ID, users[1].ID, models.NotificationPost),
		*newNotification(users[0].ID, users[2].ID, models.NotificationPost),
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	assert.Equal(t, created[0].CreatedAt, created[1].CreatedAt)

	created, err = repo.CreateMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestNotificationRepository_CreateManyLargeBroadcast(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := testutil.SeedUsers(t, db, 4000)
	repo := NewPostgresNotificationRepository(db)

	broadcast := func(last uint) []models.Notification {
		batch := make([]models.Notification, 0, len(users))
		for _, u := range users[1:] {
			batch = append(batch, *newNotification(users[0].ID, u.ID, models.NotificationPost))
		}
		batch[len(batch)-1].ReceiverID = last
		return batch
	}

	t.Run("failure in a later chunk stores nothing", func(t *testing.T) {
		_, err := repo.CreateMany(ctx, broadcast(999999))
		require.ErrorIs(t, err, apperrors.ErrPersistence)

		var stored int64
		require.NoError(t, db.Model(&models.Notification{}).Count(&stored).Error)
		assert.Zero(t, stored)
	})

	t.Run("every receiver is stored", func(t *testing.T) {
		created, err := repo.CreateMany(ctx, broadcast(users[len(users)-1].ID))
		require.NoError(t, err)
		assert.Len(t, created, len(users)-1)

		var stored int64
		require.NoError(t, db.Model(&models.Notification{}).Count(&stored).Error)
		assert.Equal(t, int64(len(users)-1), stored)
	})
}

func TestNotificationRepository_FindPage(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := testutil.SeedUsers(t, db, 3)
	sender, receiver := users[0].ID, users[1].ID
	repo := NewPostgresNotificationRepository(db, WithClock(testutil.TickingClock()))

	var ids []string
	for range 12 {
		n := newNotification(sender, receiver, models.NotificationPost)
		require.NoError(t, repo.CreateOne(ctx, n))
		ids = append(ids, n.ID)
	}
	// noise for another receiver
	require.NoError(t, repo.CreateOne(ctx, newNotification(sender, users[2].ID, models.NotificationPost)))

	newestFirst := make([]string, len(ids))
	for i, id := range ids {
		newestFirst[len(ids)-1-i] = id
	}

	collect := func(page *models.NotificationPage) []string {
		out := make([]string, 0, len(page.Items))
		for _, item := range page.Items {
			assert.Equal(t, receiver, item.ReceiverID)
			assert.False(t, item.IsRead)
			out = append(out, item.ID)
		}
		return out
	}

	first, err := repo.FindPage(ctx, receiver, "", 5)
	require.NoError(t, err)
	assert.Equal(t, newestFirst[0:5], collect(first))
	require.NotNil(t, first.NextCursor)
	assert.Equal(t, newestFirst[5], *first.NextCursor)

	second, err := repo.FindPage(ctx, receiver, *first.NextCursor, 5)
	require.NoError(t, err)
	assert.Equal(t, newestFirst[5:10], collect(second))
	require.NotNil(t, second.NextCursor)
	assert.Equal(t, newestFirst[10], *second.NextCursor)

	third, err := repo.FindPage(ctx, receiver, *second.NextCursor, 5)
	require.NoError(t, err)
	assert.Equal(t, newestFirst[10:12], collect(third))
	assert.Nil(t, third.NextCursor)

	t.Run("zero limit uses default", func(t *testing.T) {
		page, err := repo.FindPage(ctx, receiver, "", 0)
		require.NoError(t, err)
		assert.Len(t, page.Items, DefaultPageLimit)
	})

	t.Run("limit out of range", func(t *testing.T) {
		_, err := repo.FindPage(ctx, receiver, "", -1)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		_, err = repo.FindPage(ctx, receiver, "", MaxPageLimit+1)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown cursor", func(t *testing.T) {
		_, err := repo.FindPage(ctx, receiver, "00000000-0000-0000-0000-000000000000", 5)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("cursor of another receiver", func(t *testing.T) {
		_, err := repo.FindPage(ctx, users[2].ID, ids[0], 5)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("empty inbox", func(t *testing.T) {
		page, err := repo.FindPage(ctx, sender, "", 5)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.NotNil(t, page.Items)
		assert.Nil(t, page.NextCursor)
	})
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := testutil.SeedUsers(t, db, 2)
	repo := NewPostgresNotificationRepository(db, WithClock(testutil.TickingClock()))

	var created []*models.Notification
	for range 3 {
		n := newNotification(users[0].ID, users[1].ID, models.NotificationPost)
		require.NoError(t, repo.CreateOne(ctx, n))
		created = append(created, n)
	}

	require.NoError(t, repo.MarkRead(ctx, created[1].ID))
	// a second call leaves the record read
	require.NoError(t, repo.MarkRead(ctx, created[1].ID))

	stored, err := repo.Get(ctx, created[1].ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)

	page, err := repo.FindPage(ctx, users[1].ID, "", 5)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, item := range page.Items {
		assert.NotEqual(t, created[1].ID, item.ID)
	}

	count, err := repo.UnreadCount(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	err = repo.MarkRead(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	updated, err := repo.MarkAllRead(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	count, err = repo.UnreadCount(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := testutil.SeedUsers(t, db, 3)
	repo := NewPostgresNotificationRepository(db, WithClock(testutil.TickingClock()))

	follow := newNotification(users[0].ID, users[1].ID, models.NotificationFollow)
	require.NoError(t, repo.CreateOne(ctx, follow))
	require.NoError(t, repo.CreateOne(ctx, newNotification(users[0].ID, users[1].ID, models.NotificationPost)))
	require.NoError(t, repo.CreateOne(ctx, newNotification(users[0].ID, users[2].ID, models.NotificationFollow)))

	removed, err := repo.DeleteByParticipants(ctx, users[0].ID, users[1].ID, models.NotificationFollow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.DeleteByParticipants(ctx, users[0].ID, users[1].ID, models.NotificationFollow)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = repo.Get(ctx, follow.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	count, err := repo.UnreadCount(ctx, users[2].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, repo.DeleteOne(ctx, follow.ID), apperrors.ErrNotFound)
}
