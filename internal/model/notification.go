package model

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is a user-visible message produced by a lifecycle transition.
type Notification struct {
	ID        int64             `gorm:"primaryKey" json:"id"`
	UserID    int64             `gorm:"not null;index" json:"userId"`
	Title     string            `gorm:"size:256;not null" json:"title"`
	Body      string            `gorm:"size:2000" json:"body"`
	Read      bool              `gorm:"column:is_read;not null" json:"read"`
	Meta      datatypes.JSONMap `json:"meta,omitempty"`
	CreatedAt time.Time         `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time         `gorm:"not null" json:"updatedAt"`
}
