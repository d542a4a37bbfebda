// Package lifecycle owns the PENDING -> APPROVED | DENIED state machine of
// allocation and room change requests.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"hostel-backend/internal/allocation"
	"hostel-backend/internal/apperr"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/model"
	"hostel-backend/internal/notification"
	"hostel-backend/internal/parse"
	"hostel-backend/internal/rules"
	"hostel-backend/internal/store"
)

const (
	minAllocationReason = 10
	maxReason           = 1000
)

// AllocationInput is what a resident submits when asking for a room.
type AllocationInput struct {
	Reason          string
	PreferredType   model.RoomType
	PreferredRoomID *int64
}

// RoomChangeInput is what a resident submits when asking to change rooms.
type RoomChangeInput struct {
	ToRoomNumber string
	Reason       string
}

// Decision is a staff verdict on a pending request. RoomID overrides the
// preferred room of an allocation request. Note is passed to the resident.
type Decision struct {
	Status model.RequestStatus
	RoomID int64
	Note   string
}

// Manager creates and decides requests. Approvals delegate the occupancy
// change to the allocation engine.
type Manager struct {
	store    store.Store
	engine   *allocation.Engine
	notifier notification.Notifier
	log      *zap.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewManager creates a Manager. notifier and m may be nil.
func NewManager(s store.Store, engine *allocation.Engine, notifier notification.Notifier, log *zap.Logger, m *metrics.Recorder) *Manager {
	return &Manager{
		store:    s,
		engine:   engine,
		notifier: notifier,
		log:      log,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateAllocationRequest records a PENDING allocation request for residentID.
func (m *Manager) CreateAllocationRequest(ctx context.Context, residentID int64, in AllocationInput) (req *model.AllocationRequest, err error) {
	start := time.Now()
	defer func() { m.metrics.Observe("create_allocation_request", start, err) }()

	reason := strings.TrimSpace(in.Reason)
	if utf8.RuneCountInString(reason) < minAllocationReason {
		return nil, apperr.Validation("Reason must be at least %d characters", minAllocationReason)
	}
	if utf8.RuneCountInString(reason) > maxReason {
		return nil, apperr.Validation("Reason must be at most %d characters", maxReason)
	}
	preferredType := model.RoomType(strings.ToUpper(strings.TrimSpace(string(in.PreferredType))))
	if preferredType != "" && !model.ValidRoomType(preferredType) {
		return nil, apperr.Validation("preferredType must be one of SINGLE, DOUBLE, TRIPLE")
	}

	if err := m.requireResident(ctx, residentID); err != nil {
		return nil, err
	}
	if in.PreferredRoomID != nil {
		if _, err := m.store.FindRoomByID(ctx, *in.PreferredRoomID); err != nil {
			return nil, notFound(err, "Preferred room not found")
		}
	}

	req = &model.AllocationRequest{
		ResidentID:      residentID,
		Reason:          reason,
		PreferredType:   preferredType,
		PreferredRoomID: in.PreferredRoomID,
		Status:          model.RequestPending,
	}
	current, found, err := rules.CurrentRoom(ctx, m.store, residentID)
	if err != nil {
		return nil, err
	}
	if found {
		req.CurrentRoomID = &current
	}

	if err := m.store.CreateAllocationRequest(ctx, req); err != nil {
		return nil, err
	}
	m.log.Info("allocation request created", zap.Int64("request_id", req.ID), zap.Int64("resident_id", residentID))
	return req, nil
}

// CreateRoomChangeRequest records a PENDING room change request. The
// resident's current room is captured as the source room.
func (m *Manager) CreateRoomChangeRequest(ctx context.Context, residentID int64, in RoomChangeInput) (req *model.RoomChangeRequest, err error) {
	start := time.Now()
	defer func() { m.metrics.Observe("create_room_change_request", start, err) }()

	target := strings.TrimSpace(in.ToRoomNumber)
	if target == "" {
		return nil, apperr.Validation("toRoomNumber is required")
	}
	if _, err := parse.ParseRoomRef(target); err != nil {
		return nil, apperr.Validation("toRoomNumber %q is not a room reference", target)
	}
	reason := strings.TrimSpace(in.Reason)
	if utf8.RuneCountInString(reason) > maxReason {
		return nil, apperr.Validation("Reason must be at most %d characters", maxReason)
	}

	if err := m.requireResident(ctx, residentID); err != nil {
		return nil, err
	}

	req = &model.RoomChangeRequest{
		ResidentID:   residentID,
		ToRoomNumber: target,
		Reason:       reason,
		Status:       model.RequestPending,
	}
	current, found, err := rules.CurrentRoom(ctx, m.store, residentID)
	if err != nil {
		return nil, err
	}
	if found {
		req.FromRoomID = &current
	}

	if err := m.store.CreateRoomChangeRequest(ctx, req); err != nil {
		return nil, err
	}
	m.log.Info("room change request created", zap.Int64("request_id", req.ID), zap.Int64("resident_id", residentID))
	return req, nil
}

// DecideAllocation approves or denies a pending allocation request. The
// request status only changes when the occupancy change succeeded.
func (m *Manager) DecideAllocation(ctx context.Context, requestID int64, d Decision, actorID int64) (req *model.AllocationRequest, err error) {
	start := time.Now()
	defer func() { m.metrics.Observe("decide_allocation", start, err) }()

	if err := validStatus(d.Status); err != nil {
		return nil, err
	}

	if d.Status == model.RequestApproved {
		req, res, err := m.engine.MoveViaRequest(ctx, requestID, d.RoomID, actorID)
		if err != nil {
			return nil, err
		}
		m.log.Info("allocation request approved",
			zap.Int64("request_id", requestID),
			zap.Int64("room_id", res.To.ID),
			zap.Int64("actor_id", actorID))
		m.notify(ctx, req.ResidentID, "Room allocation approved",
			fmt.Sprintf("You have been allocated Room %s", res.To.Number),
			withNote(map[string]any{"type": "ALLOCATION_APPROVED", "room": res.To.Number, "requestId": req.ID}, d.Note))
		return req, nil
	}

	req, err = m.store.FindAllocationRequestByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "Allocation request not found")
	}
	if req.Status.Terminal() {
		return nil, apperr.Conflict("Request already decided")
	}
	if err := allocation.DecisionErr(m.store.DecideAllocationRequest(ctx, requestID, m.denial(actorID))); err != nil {
		return nil, err
	}
	if req, err = m.store.FindAllocationRequestByID(ctx, requestID); err != nil {
		return nil, err
	}

	m.log.Info("allocation request denied", zap.Int64("request_id", requestID), zap.Int64("actor_id", actorID))
	m.notify(ctx, req.ResidentID, "Room allocation denied", "Your room allocation request was denied.",
		withNote(map[string]any{"type": "ALLOCATION_DENIED", "requestId": req.ID}, d.Note))
	return req, nil
}

// DecideRoomChange approves or denies a pending room change request. On
// approval the target is resolved by room number at decision time.
func (m *Manager) DecideRoomChange(ctx context.Context, requestID int64, d Decision, actorID int64) (req *model.RoomChangeRequest, err error) {
	start := time.Now()
	defer func() { m.metrics.Observe("decide_room_change", start, err) }()

	if err := validStatus(d.Status); err != nil {
		return nil, err
	}

	req, err = m.store.FindRoomChangeRequestByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "Room change request not found")
	}
	if req.Status.Terminal() {
		return nil, apperr.Conflict("Request already decided")
	}

	if d.Status == model.RequestDenied {
		if err := allocation.DecisionErr(m.store.DecideRoomChangeRequest(ctx, requestID, m.denial(actorID))); err != nil {
			return nil, err
		}
		if req, err = m.store.FindRoomChangeRequestByID(ctx, requestID); err != nil {
			return nil, err
		}
		m.log.Info("room change request denied", zap.Int64("request_id", requestID), zap.Int64("actor_id", actorID))
		m.notify(ctx, req.ResidentID, "Room change denied", "Your room change request was denied.",
			withNote(map[string]any{"type": "ROOM_CHANGE_DENIED", "requestId": req.ID}, d.Note))
		return req, nil
	}

	target, err := m.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err := m.engine.Relocate(ctx, req.ResidentID, target.ID, func(tx store.Store) error {
		return allocation.DecisionErr(tx.DecideRoomChangeRequest(ctx, requestID, store.Decision{
			Status: model.RequestApproved,
			By:     actorID,
			At:     m.now(),
		}))
	})
	if err != nil {
		return nil, err
	}
	if req, err = m.store.FindRoomChangeRequestByID(ctx, requestID); err != nil {
		return nil, err
	}

	m.log.Info("room change request approved",
		zap.Int64("request_id", requestID),
		zap.Int64("room_id", res.To.ID),
		zap.Int64("actor_id", actorID))
	m.notify(ctx, req.ResidentID, "Room change approved",
		fmt.Sprintf("You have been moved to Room %s", res.To.Number),
		withNote(map[string]any{"type": "ROOM_CHANGE_APPROVED", "room": res.To.Number, "requestId": req.ID}, d.Note))
	return req, nil
}

// resolveTarget finds the room named by the request. A bare number matching
// rooms in several blocks resolves to the one in the resident's current block.
func (m *Manager) resolveTarget(ctx context.Context, req *model.RoomChangeRequest) (*model.Room, error) {
	ref, err := parse.ParseRoomRef(req.ToRoomNumber)
	if err != nil {
		return nil, apperr.Validation("toRoomNumber %q is not a room reference", req.ToRoomNumber)
	}

	if ref.Block != "" {
		room, err := m.store.FindRoomByBlockName(ctx, ref.Block, ref.Number)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		// Room numbers may themselves contain a separator.
		ref = parse.RoomRef{Number: req.ToRoomNumber}
	}

	rooms, err := m.store.FindRoomsByNumber(ctx, ref.Number)
	if err != nil {
		return nil, err
	}
	switch len(rooms) {
	case 0:
		return nil, apperr.NotFound("Target room not found")
	case 1:
		return &rooms[0], nil
	}

	current, found, err := rules.CurrentRoom(ctx, m.store, req.ResidentID)
	if err != nil {
		return nil, err
	}
	if found {
		home, err := m.store.FindRoomByID(ctx, current)
		if err != nil {
			return nil, err
		}
		for i := range rooms {
			if rooms[i].BlockID == home.BlockID {
				return &rooms[i], nil
			}
		}
	}
	return nil, apperr.Validation("Room %s exists in several blocks, use Block-Number", ref.Number)
}

// ListAllocationRequests returns every request when residentID is zero.
func (m *Manager) ListAllocationRequests(ctx context.Context, residentID int64) ([]model.AllocationRequest, error) {
	return m.store.ListAllocationRequests(ctx, residentID)
}

// ListRoomChangeRequests returns every request when residentID is zero.
func (m *Manager) ListRoomChangeRequests(ctx context.Context, residentID int64) ([]model.RoomChangeRequest, error) {
	return m.store.ListRoomChangeRequests(ctx, residentID)
}

func (m *Manager) requireResident(ctx context.Context, userID int64) error {
	user, err := m.store.FindUserByID(ctx, userID)
	if err != nil {
		return notFound(err, "User not found")
	}
	if user.Role != model.RoleResident {
		return apperr.Forbidden("Only residents can submit requests")
	}
	return nil
}

func (m *Manager) denial(actorID int64) store.Decision {
	return store.Decision{Status: model.RequestDenied, By: actorID, At: m.now()}
}

// notify runs after the decision is committed; a failure is only logged.
func (m *Manager) notify(ctx context.Context, userID int64, title, body string, meta map[string]any) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, userID, title, body, meta); err != nil {
		m.log.Warn("notification failed", zap.Int64("user_id", userID), zap.String("title", title), zap.Error(err))
	}
}

func validStatus(s model.RequestStatus) error {
	if s != model.RequestApproved && s != model.RequestDenied {
		return apperr.Validation("status must be APPROVED or DENIED")
	}
	return nil
}

func withNote(meta map[string]any, note string) map[string]any {
	if note = strings.TrimSpace(note); note != "" {
		meta["note"] = note
	}
	return meta
}

func notFound(err error, reason string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("%s", reason)
	}
	return err
}
