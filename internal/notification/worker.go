package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"hostel-backend/internal/metrics"
	"hostel-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the part of the store the workers need.
type SubscriptionStore interface {
	FindSubscriptionsByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// WorkerPool pushes persisted notifications to the recipient's browsers.
type WorkerPool struct {
	size    int
	jobs    chan model.Notification
	subs    SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
	metrics *metrics.Recorder
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs SubscriptionStore, webpushOptions *webpush.Options, log *zap.Logger, m *metrics.Recorder) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Notification, size*16),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
		metrics: m,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug("push worker started", zap.Int("worker", id))
	for {
		select {
		case n := <-wp.jobs:
			wp.sendToUser(ctx, n)
		case <-ctx.Done():
			wp.log.Debug("push worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues n for delivery. It never blocks; when the queue is full the
// push is dropped and false is returned. The stored notification is unaffected.
func (wp *WorkerPool) Dispatch(n model.Notification) bool {
	select {
	case wp.jobs <- n:
		return true
	default:
		wp.log.Warn("push queue full, dropping", zap.Int64("notification_id", n.ID), zap.Int64("user_id", n.UserID))
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.Notification {
	return wp.jobs
}

type pushPayload struct {
	ID    int64          `json:"id"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Meta  map[string]any `json:"meta,omitempty"`
}

func (wp *WorkerPool) sendToUser(ctx context.Context, n model.Notification) {
	subscriptions, err := wp.subs.FindSubscriptionsByUser(ctx, n.UserID)
	if err != nil {
		wp.log.Error("failed to load push subscriptions", zap.Int64("user_id", n.UserID), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(pushPayload{ID: n.ID, Title: n.Title, Body: n.Body, Meta: n.Meta})
	if err != nil {
		wp.log.Error("failed to encode push payload", zap.Int64("notification_id", n.ID), zap.Error(err))
		return
	}

	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	wp.metrics.Notification("push", err)
	if err != nil {
		wp.log.Warn("failed to send push", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.log.Info("push subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
