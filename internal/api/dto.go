package api

import "hostel-backend/internal/model"

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type createUserRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Role      string `json:"role"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
	StudentID string `json:"studentId"`
}

type assignRequest struct {
	UserID int64 `json:"userId" binding:"required,gt=0"`
	RoomID int64 `json:"roomId" binding:"required,gt=0"`
}

// RoomID is optional; the resident's current room is used when omitted.
type unassignRequest struct {
	UserID int64 `json:"userId" binding:"required,gt=0"`
	RoomID int64 `json:"roomId" binding:"gte=0"`
}

type moveRequest struct {
	UserID   int64 `json:"userId" binding:"required,gt=0"`
	ToRoomID int64 `json:"toRoomId" binding:"required,gt=0"`
}

type availableQuery struct {
	Type    string `form:"type"`
	BlockID int64  `form:"block" binding:"gte=0"`
}

type residentsQuery struct {
	Q     string `form:"q"`
	Limit int    `form:"limit" binding:"gte=0"`
}

type allocationRequestBody struct {
	Reason          string `json:"reason"`
	PreferredType   string `json:"preferredType"`
	PreferredRoomID *int64 `json:"preferredRoomId"`
}

type roomChangeRequestBody struct {
	ToRoomNumber string `json:"toRoomNumber"`
	Reason       string `json:"reason"`
}

type decisionBody struct {
	Status string `json:"status" binding:"required"`
	RoomID int64  `json:"roomId" binding:"gte=0"`
	Note   string `json:"note" binding:"max=1000"`
}

type blockBody struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	TotalFloors int    `json:"totalFloors" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Status      string `json:"status"`
}

type roomBody struct {
	BlockID          int64  `json:"blockId" binding:"required,gt=0"`
	Number           string `json:"number" binding:"required"`
	Floor            int    `json:"floor"`
	Type             string `json:"type" binding:"required"`
	Status           string `json:"status"`
	AttachedBathroom bool   `json:"attachedBathroom"`
	AirConditioned   bool   `json:"airConditioned"`
	Balcony          bool   `json:"balcony"`
}

type roomStatusBody struct {
	Status string `json:"status" binding:"required"`
}

type subscriptionBody struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

type deleteSubscriptionBody struct {
	Endpoint string `json:"endpoint" binding:"required"`
}
