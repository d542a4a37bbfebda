package model

import "time"

// BlockType restricts which residents may live in a block.
type BlockType string

const (
	BlockBoys  BlockType = "boys"
	BlockGirls BlockType = "girls"
)

// BlockStatus is the administrative state of a block.
type BlockStatus string

const (
	BlockActive      BlockStatus = "active"
	BlockInactive    BlockStatus = "inactive"
	BlockMaintenance BlockStatus = "maintenance"
)

// Block represents a hostel building or wing.
type Block struct {
	ID          int64       `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Description string      `gorm:"size:512" json:"description"`
	TotalFloors int         `gorm:"not null" json:"totalFloors"`
	Type        BlockType   `gorm:"size:16;not null" json:"type"`
	Status      BlockStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt   time.Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updatedAt"`
}

// ValidBlockType reports whether t is a known block type.
func ValidBlockType(t BlockType) bool {
	return t == BlockBoys || t == BlockGirls
}

// ValidBlockStatus reports whether s is a known block status.
func ValidBlockStatus(s BlockStatus) bool {
	switch s {
	case BlockActive, BlockInactive, BlockMaintenance:
		return true
	}
	return false
}
