package internal

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hostel-backend/internal/allocation"
	"hostel-backend/internal/audit"
	"hostel-backend/internal/db/dbtest"
	"hostel-backend/internal/inventory"
	"hostel-backend/internal/lifecycle"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/model"
	"hostel-backend/internal/notification"
	"hostel-backend/internal/store"
)

// browserKeys returns a p256dh/auth pair the way a browser would encode them.
func browserKeys(t *testing.T) (string, string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

// TestAllocationLifecycle follows one resident from request to removal and
// checks the stored state, the notifications and the push deliveries.
func TestAllocationLifecycle(t *testing.T) {
	// --- Test Setup ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := zap.NewNop()

	var pushes atomic.Int32
	var pushStatus atomic.Int32
	pushStatus.Store(http.StatusCreated)
	pushServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
		pushes.Add(1)
		w.WriteHeader(int(pushStatus.Load()))
	}))
	defer pushServer.Close()

	vapidPrivate, vapidPublic, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	options := &webpush.Options{
		VAPIDPublicKey:  vapidPublic,
		VAPIDPrivateKey: vapidPrivate,
		Subscriber:      "mailto:warden@example.com",
		TTL:             60,
	}

	s := store.NewGormStore(dbtest.Open(t))
	rec := metrics.New(prometheus.NewRegistry())
	pool := notification.NewWorkerPool(2, s, options, log, rec)
	pool.Start(ctx)
	notifier := notification.NewStoreNotifier(s, pool, log, rec)
	engine := allocation.NewEngine(s, notifier, log, rec)
	manager := lifecycle.NewManager(s, engine, notifier, log, rec)
	inv := inventory.NewService(s, log)

	block, err := inv.CreateBlock(ctx, inventory.BlockInput{Name: "A", TotalFloors: 2, Type: model.BlockBoys})
	require.NoError(t, err)
	room, err := inv.CreateRoom(ctx, inventory.RoomInput{BlockID: block.ID, Number: "201", Type: model.RoomDouble})
	require.NoError(t, err)
	warden := &model.User{Name: "Warden", Email: "warden@example.com", PasswordHash: "x", Role: model.RoleWarden, Gender: model.GenderFemale}
	require.NoError(t, s.CreateUser(ctx, warden))
	resident := &model.User{Name: "Ravi", Email: "ravi@example.com", PasswordHash: "x", Role: model.RoleResident, Gender: model.GenderMale}
	require.NoError(t, s.CreateUser(ctx, resident))

	p256dh, authSecret := browserKeys(t)
	endpoint := pushServer.URL + "/push/ravi"
	require.NoError(t, s.SaveSubscription(ctx, &model.PushSubscription{
		Endpoint: endpoint, UserID: resident.ID, P256DH: p256dh, Auth: authSecret,
	}))

	// --- Cycle 1: request approved ---
	t.Run("Cycle 1: Allocation Approved", func(t *testing.T) {
		req, err := manager.CreateAllocationRequest(ctx, resident.ID, lifecycle.AllocationInput{
			Reason:          "Joining the second year, need a bed",
			PreferredRoomID: &room.ID,
		})
		require.NoError(t, err)

		decided, err := manager.DecideAllocation(ctx, req.ID, lifecycle.Decision{Status: model.RequestApproved}, warden.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RequestApproved, decided.Status, "Request should be approved")

		stored, err := s.FindRoomByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.CurrentOccupancy, "Counter should follow the occupant set")
		assert.Equal(t, model.RoomOccupied, stored.Status, "Room should flip to OCCUPIED")
		assert.True(t, stored.HasOccupant(resident.ID))

		notes, err := s.ListNotifications(ctx, resident.ID)
		require.NoError(t, err)
		require.NotEmpty(t, notes)
		assert.Equal(t, "Room allocation approved", notes[0].Title)

		assert.Eventually(t, func() bool { return pushes.Load() >= 1 }, 5*time.Second, 20*time.Millisecond,
			"The resident's browser should receive a push")
	})

	// --- Cycle 2: resident removed, subscription expired ---
	t.Run("Cycle 2: Unassigned With Expired Subscription", func(t *testing.T) {
		pushStatus.Store(http.StatusGone)
		before := pushes.Load()

		_, err := engine.Unassign(ctx, resident.ID, 0)
		require.NoError(t, err)

		stored, err := s.FindRoomByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.CurrentOccupancy)
		assert.Equal(t, model.RoomAvailable, stored.Status, "Empty room should flip back to AVAILABLE")

		assert.Eventually(t, func() bool {
			if pushes.Load() <= before {
				return false
			}
			_, err := s.FindSubscription(ctx, endpoint)
			return err != nil
		}, 5*time.Second, 20*time.Millisecond, "A 410 response should delete the subscription")
	})

	// --- Final state is consistent ---
	report, err := audit.NewService(s, time.Minute, log, rec).Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
}
