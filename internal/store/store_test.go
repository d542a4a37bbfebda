package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hostel-backend/internal/db/dbtest"
	"hostel-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_AddOccupant(t *testing.T) {
	countSQL := regexp.QuoteMeta(`SELECT count(*) FROM "room_occupants" WHERE user_id = $1`)
	updateSQL := regexp.QuoteMeta(`UPDATE "rooms" SET "current_occupancy"=current_occupancy + $1 WHERE id = $2 AND current_occupancy < capacity`)

	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      error
	}{
		{
			name: "Free bed, counter incremented and occupant inserted",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(countSQL).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectExec(updateSQL).
					WithArgs(1, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "room_occupants"`)).
					WithArgs(3, 7, Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Room full, conditional update matches nothing",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(countSQL).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectExec(updateSQL).
					WithArgs(1, 3).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectedErr: ErrCapacityExceeded,
		},
		{
			name: "User already housed, no write issued",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(countSQL).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
				mock.ExpectRollback()
			},
			expectedErr: ErrAlreadyAssigned,
		},
		{
			name: "Concurrent insert of the same user hits the unique index",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(countSQL).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectExec(updateSQL).
					WithArgs(1, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "room_occupants"`)).
					WithArgs(3, 7, Any{}).
					WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
				mock.ExpectRollback()
			},
			expectedErr: ErrAlreadyAssigned,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			err := store.AddOccupant(context.Background(), 3, 7)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_DecideRequest_AlreadyDecided(t *testing.T) {
	gormDB, mock := newTestDB(t)
	store := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "room_change_requests" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "room_change_requests" WHERE id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := store.DecideRoomChangeRequest(context.Background(), 9, Decision{
		Status: model.RequestApproved,
		By:     1,
		At:     time.Now(),
	})
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

// --- SQLite-backed tests ---

type fixture struct {
	store    Store
	block    model.Block
	double   model.Room
	single   model.Room
	resident []model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := NewGormStore(dbtest.Open(t))

	f := &fixture{store: s}
	f.block = model.Block{Name: "A", TotalFloors: 3, Type: model.BlockBoys, Status: model.BlockActive}
	require.NoError(t, s.CreateBlock(ctx, &f.block))

	f.double = model.Room{BlockID: f.block.ID, Number: "101", Floor: 1, Type: model.RoomDouble, Capacity: 2, Status: model.RoomAvailable}
	require.NoError(t, s.CreateRoom(ctx, &f.double))
	f.single = model.Room{BlockID: f.block.ID, Number: "201", Floor: 2, Type: model.RoomSingle, Capacity: 1, Status: model.RoomAvailable}
	require.NoError(t, s.CreateRoom(ctx, &f.single))

	for _, name := range []string{"Arjun", "Bala", "Chetan"} {
		u := model.User{Name: name, Email: name + "@example.com", Role: model.RoleResident, Gender: model.GenderMale, StudentID: "S-" + name}
		require.NoError(t, s.CreateUser(ctx, &u))
		f.resident = append(f.resident, u)
	}
	return f
}

func TestGormStore_OccupancyOnSQLite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.store

	require.NoError(t, s.AddOccupant(ctx, f.double.ID, f.resident[0].ID))
	require.NoError(t, s.AddOccupant(ctx, f.double.ID, f.resident[1].ID))

	err := s.AddOccupant(ctx, f.double.ID, f.resident[2].ID)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	err = s.AddOccupant(ctx, f.single.ID, f.resident[0].ID)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)

	room, err := s.FindRoomByID(ctx, f.double.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, room.CurrentOccupancy)
	assert.ElementsMatch(t, []int64{f.resident[0].ID, f.resident[1].ID}, room.OccupantIDs())

	rooms, err := s.FindRoomsByOccupant(ctx, f.resident[1].ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, f.double.ID, rooms[0].ID)

	require.NoError(t, s.RemoveOccupant(ctx, f.double.ID, f.resident[1].ID))
	err = s.RemoveOccupant(ctx, f.double.ID, f.resident[1].ID)
	assert.ErrorIs(t, err, ErrNotOccupant)

	room, err = s.FindRoomByID(ctx, f.double.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, room.CurrentOccupancy)
	assert.Equal(t, []int64{f.resident[0].ID}, room.OccupantIDs())
}

func TestGormStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	boom := errors.New("boom")

	err := f.store.WithTx(ctx, func(tx Store) error {
		if err := tx.AddOccupant(ctx, f.single.ID, f.resident[0].ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	room, err := f.store.FindRoomByID(ctx, f.single.ID)
	require.NoError(t, err)
	assert.Zero(t, room.CurrentOccupancy)
	assert.Empty(t, room.Occupants)
}

func TestGormStore_ListUnassignedResidents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.AddOccupant(ctx, f.double.ID, f.resident[0].ID))

	warden := model.User{Name: "Warden", Email: "warden@example.com", Role: model.RoleWarden}
	require.NoError(t, f.store.CreateUser(ctx, &warden))

	users, err := f.store.ListUnassignedResidents(ctx, "", 50)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Bala", users[0].Name)
	assert.Equal(t, "Chetan", users[1].Name)

	users, err = f.store.ListUnassignedResidents(ctx, "CHET", 50)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, f.resident[2].ID, users[0].ID)

	users, err = f.store.ListUnassignedResidents(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestGormStore_RoomListingAndStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	other := model.Block{Name: "0-Annex", TotalFloors: 1, Type: model.BlockBoys, Status: model.BlockActive}
	require.NoError(t, f.store.CreateBlock(ctx, &other))
	annex := model.Room{BlockID: other.ID, Number: "101", Floor: 1, Type: model.RoomSingle, Capacity: 1, Status: model.RoomAvailable}
	require.NoError(t, f.store.CreateRoom(ctx, &annex))

	dup := model.Room{BlockID: f.block.ID, Number: "101", Floor: 1, Type: model.RoomSingle, Capacity: 1, Status: model.RoomAvailable}
	assert.ErrorIs(t, f.store.CreateRoom(ctx, &dup), ErrDuplicate)

	rooms, err := f.store.ListRooms(ctx, RoomFilter{})
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, annex.ID, rooms[0].ID)
	assert.Equal(t, f.double.ID, rooms[1].ID)
	assert.Equal(t, f.single.ID, rooms[2].ID)
	require.NotNil(t, rooms[0].Block)
	assert.Equal(t, "0-Annex", rooms[0].Block.Name)

	byNumber, err := f.store.FindRoomsByNumber(ctx, "101")
	require.NoError(t, err)
	assert.Len(t, byNumber, 2)

	room, err := f.store.FindRoomByBlockName(ctx, "a", "101")
	require.NoError(t, err)
	assert.Equal(t, f.double.ID, room.ID)

	require.NoError(t, f.store.AddOccupant(ctx, f.single.ID, f.resident[0].ID))
	require.NoError(t, f.store.SetRoomStatus(ctx, f.single.ID, model.RoomOccupied))

	stats, err := f.store.OccupancyStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, OccupancyStat{Type: model.RoomDouble, TotalRooms: 1, TotalCapacity: 2}, stats[0])
	assert.Equal(t, OccupancyStat{Type: model.RoomSingle, TotalRooms: 2, OccupiedRooms: 1, TotalCapacity: 2, TotalOccupancy: 1}, stats[1])

	assert.ErrorIs(t, f.store.DeleteRoom(ctx, f.single.ID), ErrInUse)
	assert.ErrorIs(t, f.store.DeleteBlock(ctx, other.ID), ErrInUse)
	require.NoError(t, f.store.DeleteRoom(ctx, annex.ID))
	require.NoError(t, f.store.DeleteBlock(ctx, other.ID))
	assert.ErrorIs(t, f.store.DeleteBlock(ctx, other.ID), ErrNotFound)
}

func TestGormStore_DecideOnlyPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := model.AllocationRequest{ResidentID: f.resident[0].ID, Reason: "need a quiet room", Status: model.RequestPending}
	require.NoError(t, f.store.CreateAllocationRequest(ctx, &req))

	roomID := f.single.ID
	d := Decision{Status: model.RequestApproved, By: 99, At: time.Now(), AssignedRoomID: &roomID}
	require.NoError(t, f.store.DecideAllocationRequest(ctx, req.ID, d))
	assert.ErrorIs(t, f.store.DecideAllocationRequest(ctx, req.ID, d), ErrAlreadyDecided)
	assert.ErrorIs(t, f.store.DecideAllocationRequest(ctx, req.ID+100, d), ErrNotFound)

	got, err := f.store.FindAllocationRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, got.Status)
	require.NotNil(t, got.AssignedRoomID)
	assert.Equal(t, roomID, *got.AssignedRoomID)
	require.NotNil(t, got.DecisionBy)
	assert.Equal(t, int64(99), *got.DecisionBy)
}

func TestGormStore_Notifications(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.resident[0].ID

	n := model.Notification{UserID: owner, Title: "Room change approved", Meta: map[string]any{"type": "ROOM_CHANGE_APPROVED"}}
	require.NoError(t, f.store.CreateNotification(ctx, &n))

	_, err := f.store.MarkNotificationRead(ctx, n.ID, f.resident[1].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	read, err := f.store.MarkNotificationRead(ctx, n.ID, owner)
	require.NoError(t, err)
	assert.True(t, read.Read)

	list, err := f.store.ListNotifications(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)
	assert.Equal(t, "ROOM_CHANGE_APPROVED", list[0].Meta["type"])
}

func TestGormStore_SubscriptionUpsert(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sub := model.PushSubscription{Endpoint: "https://push.example/1", UserID: f.resident[0].ID, P256DH: "k1", Auth: "a1"}
	require.NoError(t, f.store.SaveSubscription(ctx, &sub))

	again := model.PushSubscription{Endpoint: sub.Endpoint, UserID: f.resident[1].ID, P256DH: "k2", Auth: "a2"}
	require.NoError(t, f.store.SaveSubscription(ctx, &again))

	got, err := f.store.FindSubscription(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, f.resident[1].ID, got.UserID)
	assert.Equal(t, "k2", got.P256DH)

	subs, err := f.store.FindSubscriptionsByUser(ctx, f.resident[0].ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	require.NoError(t, f.store.DeleteSubscription(ctx, sub.Endpoint))
	_, err = f.store.FindSubscription(ctx, sub.Endpoint)
	assert.ErrorIs(t, err, ErrNotFound)
}
