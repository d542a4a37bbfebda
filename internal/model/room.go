package model

import "time"

// RoomType is the bed layout of a room.
type RoomType string

const (
	RoomSingle RoomType = "SINGLE"
	RoomDouble RoomType = "DOUBLE"
	RoomTriple RoomType = "TRIPLE"
)

// RoomStatus is the availability state of a room.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomOccupied    RoomStatus = "OCCUPIED"
	RoomMaintenance RoomStatus = "MAINTENANCE"
	RoomUnavailable RoomStatus = "UNAVAILABLE"
)

// TypeCapacity is the canonical number of beds per room type.
var TypeCapacity = map[RoomType]int{
	RoomSingle: 1,
	RoomDouble: 2,
	RoomTriple: 3,
}

// ValidRoomType reports whether t is a known room type.
func ValidRoomType(t RoomType) bool {
	_, ok := TypeCapacity[t]
	return ok
}

// ValidRoomStatus reports whether s is a known room status.
func ValidRoomStatus(s RoomStatus) bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomMaintenance, RoomUnavailable:
		return true
	}
	return false
}

// Room is a bookable unit within a block.
type Room struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	BlockID          int64      `gorm:"not null;uniqueIndex:idx_rooms_block_number;index:idx_rooms_block_floor,priority:1" json:"blockId"`
	Number           string     `gorm:"size:32;not null;uniqueIndex:idx_rooms_block_number" json:"number"`
	Floor            int        `gorm:"not null;index:idx_rooms_block_floor,priority:2" json:"floor"`
	Type             RoomType   `gorm:"size:16;not null;index" json:"type"`
	Capacity         int        `gorm:"not null" json:"capacity"`
	Status           RoomStatus `gorm:"size:16;not null;index" json:"status"`
	CurrentOccupancy int        `gorm:"not null" json:"currentOccupancy"`

	AttachedBathroom bool `json:"attachedBathroom"`
	AirConditioned   bool `json:"airConditioned"`
	Balcony          bool `json:"balcony"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Block     *Block         `gorm:"constraint:OnDelete:RESTRICT" json:"block,omitempty"`
	Occupants []RoomOccupant `gorm:"foreignKey:RoomID" json:"occupants,omitempty"`
}

// OccupantIDs returns the user ids currently listed in the room.
func (r *Room) OccupantIDs() []int64 {
	ids := make([]int64, 0, len(r.Occupants))
	for _, o := range r.Occupants {
		ids = append(ids, o.UserID)
	}
	return ids
}

// HasOccupant reports whether userID is listed in the room.
func (r *Room) HasOccupant(userID int64) bool {
	for _, o := range r.Occupants {
		if o.UserID == userID {
			return true
		}
	}
	return false
}

// RoomOccupant is one membership row of a room's occupant set.
// The unique index on UserID keeps a resident in at most one room.
type RoomOccupant struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	RoomID    int64     `gorm:"not null;index" json:"roomId"`
	UserID    int64     `gorm:"not null;uniqueIndex" json:"userId"`
	CreatedAt time.Time `gorm:"not null" json:"since"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
