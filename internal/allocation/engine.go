// Package allocation assigns residents to rooms, moves them between rooms
// and removes them, keeping occupant sets, occupancy counters and room
// status consistent.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/model"
	"hostel-backend/internal/notification"
	"hostel-backend/internal/rules"
	"hostel-backend/internal/store"
)

// Engine performs occupancy mutations. Every operation holds the locks of the
// rooms it touches and writes inside a single database transaction.
type Engine struct {
	store    store.Store
	notifier notification.Notifier
	locks    *roomLocks
	log      *zap.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewEngine creates an Engine. notifier and m may be nil.
func NewEngine(s store.Store, notifier notification.Notifier, log *zap.Logger, m *metrics.Recorder) *Engine {
	return &Engine{
		store:    s,
		notifier: notifier,
		locks:    newRoomLocks(),
		log:      log,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MoveResult holds both rooms of a relocation, resolved for display.
// From is nil when the resident had no room before.
type MoveResult struct {
	From *model.Room `json:"from"`
	To   *model.Room `json:"to"`
}

// Assign places a resident into a room.
func (e *Engine) Assign(ctx context.Context, userID, roomID int64) (room *model.Room, err error) {
	start := time.Now()
	defer func() { e.metrics.Observe("assign", start, err) }()

	unlock := e.locks.Lock(roomID)
	defer unlock()

	err = e.store.WithTx(ctx, func(tx store.Store) error {
		return e.assignTx(ctx, tx, userID, roomID)
	})
	if err != nil {
		return nil, err
	}

	room, err = e.details(ctx, roomID)
	if err != nil {
		return nil, err
	}
	e.log.Info("resident assigned", zap.Int64("user_id", userID), zap.Int64("room_id", roomID))
	e.notify(ctx, userID, "Room assigned", fmt.Sprintf("You have been assigned to Room %s", room.Number),
		map[string]any{"type": "ROOM_ASSIGNED", "room": room.Number})
	return room, nil
}

// Unassign removes a resident from a room. When roomID is zero the resident's
// current room is used.
func (e *Engine) Unassign(ctx context.Context, userID, roomID int64) (room *model.Room, err error) {
	start := time.Now()
	defer func() { e.metrics.Observe("unassign", start, err) }()

	if roomID == 0 {
		current, found, err := rules.CurrentRoom(ctx, e.store, userID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, apperr.Validation("Resident is not assigned to any room")
		}
		roomID = current
	}

	unlock := e.locks.Lock(roomID)
	defer unlock()

	err = e.store.WithTx(ctx, func(tx store.Store) error {
		return e.unassignTx(ctx, tx, userID, roomID)
	})
	if err != nil {
		return nil, err
	}

	room, err = e.details(ctx, roomID)
	if err != nil {
		return nil, err
	}
	e.log.Info("resident unassigned", zap.Int64("user_id", userID), zap.Int64("room_id", roomID))
	e.notify(ctx, userID, "Room unassigned", fmt.Sprintf("You have been removed from Room %s", room.Number),
		map[string]any{"type": "ROOM_UNASSIGNED", "room": room.Number})
	return room, nil
}

// Move relocates a resident from their current room to toRoomID.
func (e *Engine) Move(ctx context.Context, userID, toRoomID int64) (res *MoveResult, err error) {
	start := time.Now()
	defer func() { e.metrics.Observe("move", start, err) }()

	res, err = e.relocate(ctx, userID, toRoomID, true, nil)
	if err != nil {
		return nil, err
	}
	e.notify(ctx, userID, "Room changed", fmt.Sprintf("You have been moved to Room %s", res.To.Number),
		map[string]any{"type": "ROOM_MOVED", "room": res.To.Number})
	return res, nil
}

// MoveViaRequest approves a pending allocation request. The resident is moved
// from their live current room when they have one and assigned otherwise. The
// target is roomID, or the request's preferred room when roomID is zero. The
// request is marked APPROVED in the same transaction as the occupancy change.
func (e *Engine) MoveViaRequest(ctx context.Context, requestID, roomID, actorID int64) (req *model.AllocationRequest, res *MoveResult, err error) {
	start := time.Now()
	defer func() { e.metrics.Observe("move_via_request", start, err) }()

	req, err = e.store.FindAllocationRequestByID(ctx, requestID)
	if err != nil {
		return nil, nil, storeErr(err, "Allocation request not found")
	}
	if req.Status.Terminal() {
		return nil, nil, apperr.Conflict("Request already decided")
	}

	target := roomID
	if target == 0 && req.PreferredRoomID != nil {
		target = *req.PreferredRoomID
	}
	if target == 0 {
		return nil, nil, apperr.Validation("roomId is required when the request has no preferred room")
	}

	res, err = e.relocate(ctx, req.ResidentID, target, false, func(tx store.Store) error {
		return DecisionErr(tx.DecideAllocationRequest(ctx, requestID, store.Decision{
			Status:         model.RequestApproved,
			By:             actorID,
			At:             e.now(),
			AssignedRoomID: &target,
		}))
	})
	if err != nil {
		return nil, nil, err
	}

	req, err = e.store.FindAllocationRequestByID(ctx, requestID)
	if err != nil {
		return nil, nil, storeErr(err, "Allocation request not found")
	}
	return req, res, nil
}

// Relocate moves a resident to toRoomID, or assigns them when they have no
// room, and runs commit inside the same transaction. A commit error rolls the
// occupancy change back. No notification is sent.
func (e *Engine) Relocate(ctx context.Context, userID, toRoomID int64, commit func(tx store.Store) error) (*MoveResult, error) {
	return e.relocate(ctx, userID, toRoomID, false, commit)
}

func (e *Engine) relocate(ctx context.Context, userID, toRoomID int64, requireCurrent bool, commit func(tx store.Store) error) (*MoveResult, error) {
	fromRoomID, found, err := rules.CurrentRoom(ctx, e.store, userID)
	if err != nil {
		return nil, err
	}
	if !found && requireCurrent {
		return nil, apperr.Validation("Resident is not assigned to any room")
	}
	if found && fromRoomID == toRoomID {
		return nil, apperr.Conflict("Resident is already in the target room")
	}

	unlock := e.locks.Lock(fromRoomID, toRoomID)
	defer unlock()

	err = e.store.WithTx(ctx, func(tx store.Store) error {
		// The resident may have been moved between the lookup and the lock.
		current, stillFound, err := rules.CurrentRoom(ctx, tx, userID)
		if err != nil {
			return err
		}
		if stillFound != found || current != fromRoomID {
			return apperr.Conflict("Resident's room changed concurrently, retry the operation")
		}

		if found {
			err = e.moveTx(ctx, tx, userID, fromRoomID, toRoomID)
		} else {
			err = e.assignTx(ctx, tx, userID, toRoomID)
		}
		if err != nil {
			return err
		}
		if commit != nil {
			return commit(tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &MoveResult{}
	if found {
		if res.From, err = e.details(ctx, fromRoomID); err != nil {
			return nil, err
		}
	}
	if res.To, err = e.details(ctx, toRoomID); err != nil {
		return nil, err
	}
	e.log.Info("resident relocated",
		zap.Int64("user_id", userID),
		zap.Int64("from_room_id", fromRoomID),
		zap.Int64("to_room_id", toRoomID))
	return res, nil
}

// SetRoomStatus applies a manual status change. AVAILABLE is corrected to
// OCCUPIED when the room has occupants; OCCUPIED cannot be set by hand.
func (e *Engine) SetRoomStatus(ctx context.Context, roomID int64, status model.RoomStatus) (room *model.Room, err error) {
	start := time.Now()
	defer func() { e.metrics.Observe("set_room_status", start, err) }()

	if status != model.RoomAvailable && status != model.RoomMaintenance && status != model.RoomUnavailable {
		return nil, apperr.Validation("status must be AVAILABLE, MAINTENANCE or UNAVAILABLE")
	}

	unlock := e.locks.Lock(roomID)
	defer unlock()

	err = e.store.WithTx(ctx, func(tx store.Store) error {
		current, err := tx.FindRoomByID(ctx, roomID)
		if err != nil {
			return storeErr(err, "Room not found")
		}
		return tx.SetRoomStatus(ctx, roomID, rules.NextStatus(status, rules.OccupantCount(current)))
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("room status changed", zap.Int64("room_id", roomID), zap.String("status", string(status)))
	return e.details(ctx, roomID)
}

// assignTx validates every precondition before the first write.
func (e *Engine) assignTx(ctx context.Context, tx store.Store, userID, roomID int64) error {
	user, err := tx.FindUserByID(ctx, userID)
	if err != nil {
		return storeErr(err, "User not found")
	}
	if user.Role != model.RoleResident {
		return apperr.Validation("Only RESIDENT users can be assigned to rooms")
	}

	current, found, err := rules.CurrentRoom(ctx, tx, userID)
	if err != nil {
		return err
	}
	if found {
		if current == roomID {
			return apperr.Conflict("Resident already in this room")
		}
		return apperr.Conflict("Resident is already assigned to a room")
	}

	room, block, err := e.loadRoom(ctx, tx, roomID, "Room not found")
	if err != nil {
		return err
	}
	if err := eligible(user, room, block); err != nil {
		return err
	}
	if !rules.HasSpace(room) {
		return apperr.Conflict("Room is already at full capacity")
	}
	if room.HasOccupant(userID) {
		return apperr.Conflict("Resident already in this room")
	}

	if err := addOccupant(ctx, tx, roomID, userID, "Room is already at full capacity"); err != nil {
		return err
	}
	return e.reconcile(ctx, tx, roomID)
}

func (e *Engine) unassignTx(ctx context.Context, tx store.Store, userID, roomID int64) error {
	room, err := tx.FindRoomByID(ctx, roomID)
	if err != nil {
		return storeErr(err, "Room not found")
	}
	if !room.HasOccupant(userID) {
		return apperr.Validation("Resident is not in this room")
	}
	if err := removeOccupant(ctx, tx, roomID, userID); err != nil {
		return err
	}
	return e.reconcile(ctx, tx, roomID)
}

func (e *Engine) moveTx(ctx context.Context, tx store.Store, userID, fromRoomID, toRoomID int64) error {
	user, err := tx.FindUserByID(ctx, userID)
	if err != nil {
		return storeErr(err, "User not found")
	}
	from, err := tx.FindRoomByID(ctx, fromRoomID)
	if err != nil {
		return storeErr(err, "Current room not found")
	}
	if !from.HasOccupant(userID) {
		return apperr.Validation("Resident is not in this room")
	}

	to, block, err := e.loadRoom(ctx, tx, toRoomID, "Target room not found")
	if err != nil {
		return err
	}
	if err := eligible(user, to, block); err != nil {
		return err
	}
	if !rules.HasSpace(to) {
		return apperr.Conflict("Target room is at full capacity")
	}

	if err := removeOccupant(ctx, tx, fromRoomID, userID); err != nil {
		return err
	}
	if err := e.reconcile(ctx, tx, fromRoomID); err != nil {
		return err
	}
	if err := addOccupant(ctx, tx, toRoomID, userID, "Target room is at full capacity"); err != nil {
		return err
	}
	return e.reconcile(ctx, tx, toRoomID)
}

func (e *Engine) loadRoom(ctx context.Context, tx store.Store, roomID int64, missing string) (*model.Room, *model.Block, error) {
	room, err := tx.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, nil, storeErr(err, missing)
	}
	block, err := tx.FindBlockByID(ctx, room.BlockID)
	if err != nil {
		return nil, nil, storeErr(err, "Block not found")
	}
	return room, block, nil
}

// eligible applies the floor and gender rules.
func eligible(user *model.User, room *model.Room, block *model.Block) error {
	if !rules.FloorValid(room, block) {
		return apperr.Conflict("Room floor exceeds block total floors (%d)", block.TotalFloors)
	}
	if !rules.GenderEligible(user, block) {
		if block.Type == model.BlockBoys {
			return apperr.Conflict("Only male residents can be assigned to boys hostel")
		}
		return apperr.Conflict("Only female residents can be assigned to girls hostel")
	}
	return nil
}

// reconcile reloads the room after a write, checks the counter against the
// occupant set and applies the status flip.
func (e *Engine) reconcile(ctx context.Context, tx store.Store, roomID int64) error {
	room, err := tx.FindRoomByID(ctx, roomID)
	if err != nil {
		return storeErr(err, "Room not found")
	}

	count := rules.OccupantCount(room)
	if room.CurrentOccupancy != count || count > rules.CapacityOf(room) {
		e.log.Error("occupancy counter drift",
			zap.Int64("room_id", roomID),
			zap.Int("counter", room.CurrentOccupancy),
			zap.Int("occupants", count),
			zap.Int("capacity", rules.CapacityOf(room)))
		return apperr.Inconsistency(nil, "Room %s occupancy %d does not match %d occupants", room.Number, room.CurrentOccupancy, count)
	}

	if next := rules.NextStatus(room.Status, count); next != room.Status {
		if err := tx.SetRoomStatus(ctx, roomID, next); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) details(ctx context.Context, roomID int64) (*model.Room, error) {
	room, err := e.store.FindRoomDetails(ctx, roomID)
	if err != nil {
		return nil, storeErr(err, "Room not found")
	}
	return room, nil
}

func (e *Engine) notify(ctx context.Context, userID int64, title, body string, meta map[string]any) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, userID, title, body, meta); err != nil {
		e.log.Warn("notification failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func addOccupant(ctx context.Context, tx store.Store, roomID, userID int64, full string) error {
	err := tx.AddOccupant(ctx, roomID, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrCapacityExceeded):
		return apperr.Conflict("%s", full)
	case errors.Is(err, store.ErrAlreadyAssigned):
		return apperr.Conflict("Resident is already assigned to a room")
	}
	return err
}

func removeOccupant(ctx context.Context, tx store.Store, roomID, userID int64) error {
	err := tx.RemoveOccupant(ctx, roomID, userID)
	if errors.Is(err, store.ErrNotOccupant) {
		return apperr.Validation("Resident is not in this room")
	}
	return err
}

// storeErr turns store.ErrNotFound into a NotFound error with reason.
func storeErr(err error, reason string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("%s", reason)
	}
	return err
}

// DecisionErr maps a lost race on a request decision onto Conflict.
func DecisionErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrAlreadyDecided):
		return apperr.Conflict("Request already decided")
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Request not found")
	}
	return err
}
