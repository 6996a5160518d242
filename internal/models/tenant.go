package models

import (
	"time"

	"gorm.io/gorm"
)

// Architect is the tenant root; every other record belongs to exactly one architect.
type Architect struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Category groups elements for the inventory views.
type Category struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	ArchitectID uint64    `gorm:"not null;index" json:"architectId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Deposit is a storage location.
type Deposit struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Address     string    `gorm:"size:255" json:"address"`
	ArchitectID uint64    `gorm:"not null;index" json:"architectId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Construction is a building site. Closing a construction soft deletes it; restore clears DeletedAt.
type Construction struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Address     string         `gorm:"size:255" json:"address"`
	ArchitectID uint64         `gorm:"not null;index" json:"architectId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

// ConstructionWorker is a restricted account owned by an architect.
type ConstructionWorker struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"size:255" json:"email,omitempty"`
	ArchitectID    uint64    `gorm:"not null;index" json:"architectId"`
	ConstructionID *uint64   `gorm:"index" json:"constructionId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName overrides the table name for ConstructionWorker
func (ConstructionWorker) TableName() string {
	return "construction_workers"
}
