// Package rules holds the capacity and eligibility checks used before any
// occupancy write. The functions never fail; callers decide which false result
// becomes a user-facing error.
package rules

import (
	"context"
	"strings"

	"hostel-backend/internal/model"
)

// CapacityOf returns the declared capacity of room, falling back to the
// canonical capacity of its type, and never less than 1.
func CapacityOf(room *model.Room) int {
	if room.Capacity > 0 {
		return room.Capacity
	}
	if c, ok := model.TypeCapacity[model.RoomType(strings.ToUpper(string(room.Type)))]; ok {
		return c
	}
	return 1
}

// OccupantCount is the size of the room's occupant set.
func OccupantCount(room *model.Room) int {
	return len(room.Occupants)
}

// HasSpace reports whether one more occupant fits.
func HasSpace(room *model.Room) bool {
	return OccupantCount(room) < CapacityOf(room)
}

// AvailableBeds is the number of free slots left in room.
func AvailableBeds(room *model.Room) int {
	if free := CapacityOf(room) - OccupantCount(room); free > 0 {
		return free
	}
	return 0
}

// GenderEligible reports whether user may live in block. Gender is compared
// case-insensitively.
func GenderEligible(user *model.User, block *model.Block) bool {
	g := model.Gender(strings.ToLower(strings.TrimSpace(string(user.Gender))))
	switch block.Type {
	case model.BlockBoys:
		return g == model.GenderMale
	case model.BlockGirls:
		return g == model.GenderFemale
	}
	return true
}

// FloorValid reports whether the room's floor lies within its block.
func FloorValid(room *model.Room, block *model.Block) bool {
	return room.Floor >= 1 && room.Floor <= block.TotalFloors
}

// Bookable reports whether room accepts new residents from availability searches.
func Bookable(room *model.Room) bool {
	return room.Status != model.RoomMaintenance && room.Status != model.RoomUnavailable
}

// NextStatus applies the occupancy-driven status flip. MAINTENANCE and
// UNAVAILABLE are never overwritten.
func NextStatus(current model.RoomStatus, occupancy int) model.RoomStatus {
	switch {
	case occupancy > 0 && current == model.RoomAvailable:
		return model.RoomOccupied
	case occupancy == 0 && current == model.RoomOccupied:
		return model.RoomAvailable
	}
	return current
}

// OccupantLookup finds the rooms a user is listed in.
type OccupantLookup interface {
	FindRoomsByOccupant(ctx context.Context, userID int64) ([]model.Room, error)
}

// CurrentRoom returns the id of the room userID currently occupies. found is
// false when the user is not listed in any room. err only reports a failed lookup.
func CurrentRoom(ctx context.Context, lookup OccupantLookup, userID int64) (roomID int64, found bool, err error) {
	rooms, err := lookup.FindRoomsByOccupant(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	if len(rooms) == 0 {
		return 0, false, nil
	}
	return rooms[0].ID, true, nil
}
