package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hostel-backend/internal/db/dbtest"
	"hostel-backend/internal/model"
	"hostel-backend/internal/store"
)

type failingStore struct{}

func (failingStore) CreateNotification(context.Context, *model.Notification) error {
	return errors.New("disk full")
}

func TestStoreNotifier_PersistsAndDispatches(t *testing.T) {
	ctx := context.Background()
	s := store.NewGormStore(dbtest.Open(t))
	pool := NewWorkerPool(1, s, &webpush.Options{}, zap.NewNop(), nil)
	n := NewStoreNotifier(s, pool, zap.NewNop(), nil)

	err := n.Notify(ctx, 42, "Room change approved", "You have been moved to Room 101",
		map[string]any{"type": "ROOM_CHANGE_APPROVED", "room": "101"})
	require.NoError(t, err)

	list, err := s.ListNotifications(ctx, 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Room change approved", list[0].Title)
	assert.False(t, list[0].Read)
	assert.Equal(t, "101", list[0].Meta["room"])

	select {
	case job := <-pool.Jobs():
		assert.Equal(t, list[0].ID, job.ID)
		assert.Equal(t, int64(42), job.UserID)
	default:
		t.Fatal("notification was not queued for push")
	}
}

func TestStoreNotifier_StoreFailure(t *testing.T) {
	n := NewStoreNotifier(failingStore{}, nil, zap.NewNop(), nil)
	err := n.Notify(context.Background(), 1, "t", "b", nil)
	assert.ErrorContains(t, err, "disk full")
}
