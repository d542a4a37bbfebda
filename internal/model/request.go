package model

import "time"

// RequestStatus is the decision state shared by allocation and room change requests.
// PENDING is the only non-terminal state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestDenied   RequestStatus = "DENIED"
)

// Terminal reports whether no further decision may be applied.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestDenied
}

// AllocationRequest is a resident's ask for a room, decided by staff.
type AllocationRequest struct {
	ID              int64         `gorm:"primaryKey" json:"id"`
	ResidentID      int64         `gorm:"not null;index" json:"residentId"`
	Reason          string        `gorm:"size:1000;not null" json:"reason"`
	PreferredType   RoomType      `gorm:"size:16" json:"preferredType,omitempty"`
	PreferredRoomID *int64        `json:"preferredRoomId,omitempty"`
	CurrentRoomID   *int64        `json:"currentRoomId,omitempty"`
	AssignedRoomID  *int64        `json:"assignedRoomId,omitempty"`
	Status          RequestStatus `gorm:"size:16;not null;index" json:"status"`
	DecisionBy      *int64        `json:"decisionBy,omitempty"`
	DecidedAt       *time.Time    `json:"decidedAt,omitempty"`
	CreatedAt       time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time     `gorm:"not null" json:"updatedAt"`
}

// RoomChangeRequest is a resident's ask to move to another room, decided by staff.
type RoomChangeRequest struct {
	ID           int64         `gorm:"primaryKey" json:"id"`
	ResidentID   int64         `gorm:"not null;index" json:"residentId"`
	FromRoomID   *int64        `json:"fromRoomId,omitempty"`
	ToRoomNumber string        `gorm:"size:64;not null" json:"toRoomNumber"`
	Reason       string        `gorm:"size:1000" json:"reason"`
	Status       RequestStatus `gorm:"size:16;not null;index" json:"status"`
	DecisionBy   *int64        `json:"decisionBy,omitempty"`
	DecidedAt    *time.Time    `json:"decidedAt,omitempty"`
	CreatedAt    time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time     `gorm:"not null" json:"updatedAt"`
}
