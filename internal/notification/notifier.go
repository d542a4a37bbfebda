// Package notification persists user-visible notifications and fans them out
// to registered browser push subscriptions.
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"hostel-backend/internal/metrics"
	"hostel-backend/internal/model"
)

// Notifier receives occupancy and lifecycle events for a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, body string, meta map[string]any) error
}

// NotificationStore persists notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// StoreNotifier stores every notification and hands it to the push pool.
type StoreNotifier struct {
	store   NotificationStore
	pool    *WorkerPool
	log     *zap.Logger
	metrics *metrics.Recorder
}

// NewStoreNotifier creates a StoreNotifier. pool may be nil, in which case no push is sent.
func NewStoreNotifier(s NotificationStore, pool *WorkerPool, log *zap.Logger, m *metrics.Recorder) *StoreNotifier {
	return &StoreNotifier{store: s, pool: pool, log: log, metrics: m}
}

func (n *StoreNotifier) Notify(ctx context.Context, userID int64, title, body string, meta map[string]any) error {
	rec := model.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
		Meta:   datatypes.JSONMap(meta),
	}
	err := n.store.CreateNotification(ctx, &rec)
	n.metrics.Notification("store", err)
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	n.log.Debug("notification stored", zap.Int64("notification_id", rec.ID), zap.Int64("user_id", userID), zap.String("title", title))
	if n.pool != nil {
		n.pool.Dispatch(rec)
	}
	return nil
}
