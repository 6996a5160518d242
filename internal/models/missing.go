package models

import "time"

// MissingStatus is the kind of problem reported for an element.
type MissingStatus string

const (
	MissingOutOfStock MissingStatus = "SE_QUEDO_SIN"
	MissingBroken     MissingStatus = "SE_ROMPIO"
	MissingLost       MissingStatus = "SE_PERDIO"
)

// Valid reports whether s is one of the three known statuses.
func (s MissingStatus) Valid() bool {
	switch s {
	case MissingOutOfStock, MissingBroken, MissingLost:
		return true
	}
	return false
}

// Missing is a reported problem with an element.
type Missing struct {
	ID                   uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title                string        `gorm:"size:255;not null" json:"title"`
	Text                 string        `gorm:"type:text" json:"text"`
	Status               MissingStatus `gorm:"size:32;not null;index" json:"status"`
	Urgent               bool          `gorm:"not null;default:false;index:idx_missing_triage,priority:2" json:"urgent"`
	ElementID            uint64        `gorm:"not null;index" json:"elementId"`
	ConstructionID       *uint64       `gorm:"index" json:"constructionId"`
	ConstructionWorkerID *uint64       `gorm:"index" json:"constructionWorkerId"`
	ArchitectID          uint64        `gorm:"not null;index:idx_missing_triage,priority:1" json:"architectId"`
	ReportedBy           uint64        `json:"reportedBy"`
	ReportedByType       string        `gorm:"size:32" json:"reportedByType"`
	CreatedAt            time.Time     `gorm:"index:idx_missing_triage,priority:3" json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// TableName overrides the table name for Missing
func (Missing) TableName() string {
	return "missings"
}

// Note is a free-text annotation, optionally attached to an element and/or a missing report.
type Note struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string    `gorm:"size:255" json:"title"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	Context       string    `gorm:"size:255" json:"context,omitempty"`
	ElementID     *uint64   `gorm:"index" json:"elementId"`
	MissingID     *uint64   `gorm:"index" json:"missingId"`
	ArchitectID   uint64    `gorm:"not null;index" json:"architectId"`
	CreatedBy     uint64    `gorm:"not null" json:"createdBy"`
	CreatedByType string    `gorm:"size:32;not null" json:"createdByType"`
	UpdatedBy     *uint64   `json:"updatedBy"`
	UpdatedByType *string   `gorm:"size:32" json:"updatedByType"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
