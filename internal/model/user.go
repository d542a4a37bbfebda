package model

import "time"

// Role is the access role of a user.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleWarden      Role = "WARDEN"
	RoleResident    Role = "RESIDENT"
	RoleMaintenance Role = "MAINTENANCE"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleWarden, RoleResident, RoleMaintenance:
		return true
	}
	return false
}

// Gender is stored lowercase.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// User is any account of the system. Residents are the only users that occupy rooms.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;index" json:"role"`
	Gender       Gender    `gorm:"size:8;not null" json:"gender"`
	Phone        string    `gorm:"size:32" json:"phone,omitempty"`
	StudentID    string    `gorm:"size:64;index" json:"studentId,omitempty"`
	AvatarURL    string    `gorm:"size:512" json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
}
