package models

import "time"

// ActorKind identifies who performed an action.
type ActorKind string

const (
	ActorArchitect ActorKind = "architect"
	ActorWorker    ActorKind = "worker"
	ActorAdmin     ActorKind = "admin"
)

// Valid reports whether k is a known actor kind.
func (k ActorKind) Valid() bool {
	switch k {
	case ActorArchitect, ActorWorker, ActorAdmin:
		return true
	}
	return false
}

// Action is the raw action code of an event history row.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionMove    Action = "move"
	ActionAssign  Action = "assign"
	ActionReturn  Action = "return"
	ActionClose   Action = "close"
	ActionRestore Action = "restore"
	ActionLogin   Action = "login"
)

// Audited table names.
const (
	TableArchitect          = "architect"
	TableCategory           = "category"
	TableConstruction       = "construction"
	TableConstructionWorker = "construction_worker"
	TableDeposit            = "deposit"
	TableElement            = "element"
	TableMissing            = "missing"
	TableNote               = "note"
)

// EventHistory is an append-only audit row. Rows are never updated or deleted.
type EventHistory struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Table         string    `gorm:"column:table_name;size:64;not null;index:idx_event_record,priority:1" json:"table"`
	RecordID      uint64    `gorm:"not null;index:idx_event_record,priority:2" json:"recordId"`
	ActionType    Action    `gorm:"size:32;not null" json:"actionType"`
	Action        string    `gorm:"size:255;not null" json:"action"`
	ChangedBy     uint64    `gorm:"not null" json:"actorId"`
	ChangedByType ActorKind `gorm:"size:32;not null" json:"actorType"`
	ArchitectID   *uint64   `gorm:"index" json:"architectId"`
	OldData       JSON      `json:"oldData"`
	NewData       JSON      `json:"newData"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
}

// TableName overrides the table name for EventHistory
func (EventHistory) TableName() string {
	return "events_history"
}
