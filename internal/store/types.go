package store

import (
	"errors"
	"time"

	"hostel-backend/internal/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrCapacityExceeded is returned when the conditional occupancy update matched no row.
	ErrCapacityExceeded = errors.New("room capacity exceeded")

	// ErrAlreadyAssigned is returned when the user already occupies a room.
	ErrAlreadyAssigned = errors.New("user already occupies a room")

	// ErrNotOccupant is returned when removing a user that is not listed in the room.
	ErrNotOccupant = errors.New("user is not an occupant of the room")

	// ErrAlreadyDecided is returned when a decision targets a non-pending request.
	ErrAlreadyDecided = errors.New("request already decided")

	// ErrDuplicate is returned when a unique business key is already taken.
	ErrDuplicate = errors.New("duplicate record")

	// ErrInUse is returned when deleting a record that is still referenced.
	ErrInUse = errors.New("record still in use")
)

// RoomFilter narrows room listings. Zero values are ignored.
type RoomFilter struct {
	BlockID int64
	Floor   int
	Type    model.RoomType
	Status  model.RoomStatus
	Number  string
}

// Decision is the terminal state written to a pending request.
type Decision struct {
	Status         model.RequestStatus
	By             int64
	At             time.Time
	AssignedRoomID *int64
}

// OccupancyStat aggregates rooms of one type.
type OccupancyStat struct {
	Type           model.RoomType `json:"type"`
	TotalRooms     int64          `json:"totalRooms"`
	OccupiedRooms  int64          `json:"occupiedRooms"`
	TotalCapacity  int64          `json:"totalCapacity"`
	TotalOccupancy int64          `json:"totalOccupancy"`
}
