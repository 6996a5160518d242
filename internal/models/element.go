package models

import (
	"time"

	"gorm.io/gorm"
)

// Element is a physical inventory item. Its current holder is denormalized onto the row.
type Element struct {
	ID                  uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                string         `gorm:"size:255;not null" json:"name"`
	Description         string         `gorm:"type:text" json:"description,omitempty"`
	Brand               string         `gorm:"size:255" json:"brand"`
	Provider            string         `gorm:"size:255" json:"provider"`
	Quantity            int            `gorm:"not null;default:1" json:"quantity"`
	BuyDate             *time.Time     `json:"buyDate"`
	CategoryID          *uint64        `gorm:"index" json:"categoryId"`
	ArchitectID         uint64         `gorm:"not null;index" json:"architectId"`
	CurrentLocationType *string        `gorm:"size:32;index:idx_element_location" json:"currentLocationType"`
	CurrentLocationID   *uint64        `gorm:"index:idx_element_location" json:"currentLocationId"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// Location returns the element's current holder.
func (e *Element) Location() Location {
	return locationFromColumns(e.CurrentLocationType, e.CurrentLocationID)
}

// SetLocation writes loc into the location columns.
func (e *Element) SetLocation(loc Location) {
	e.CurrentLocationType, e.CurrentLocationID = loc.columns()
}

// Assignment is one custody transfer of an element to a worker. A row with a nil ReturnedAt is open.
type Assignment struct {
	ID               uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ElementID        uint64     `gorm:"not null;index" json:"elementId"`
	WorkerID         uint64     `gorm:"not null;index" json:"workerId"`
	AssignedAt       time.Time  `gorm:"not null" json:"assignedAt"`
	ReturnedAt       *time.Time `gorm:"index" json:"returnedAt"`
	FromLocationType *string    `gorm:"size:32" json:"fromLocationType"`
	FromLocationID   *uint64    `json:"fromLocationId"`
	AssignedBy       uint64     `json:"assignedBy"`
	AssignedByType   string     `gorm:"size:32" json:"assignedByType"`
}

// TableName overrides the table name for Assignment
func (Assignment) TableName() string {
	return "worker_element_assignments"
}

// IsOpen reports whether the element is still with the worker.
func (a *Assignment) IsOpen() bool {
	return a.ReturnedAt == nil
}

// From returns the location the element had before it was assigned.
func (a *Assignment) From() Location {
	return locationFromColumns(a.FromLocationType, a.FromLocationID)
}

// SetFrom records the pre-assignment location.
func (a *Assignment) SetFrom(loc Location) {
	a.FromLocationType, a.FromLocationID = loc.columns()
}
