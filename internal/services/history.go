// history.go
//
// Construction-site inventory service: element custody, missing-item triage and event history
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of obrasdb.
// obrasdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// obrasdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with obrasdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"encoding/json"
	"fmt"

	"github.com/localnerve/obrasdb/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor is the identity supplied by the auth collaborator for a mutating call.
type Actor struct {
	ID   uint64           `json:"id"`
	Kind models.ActorKind `json:"kind"`
}

// Event is one history entry before it is described and persisted.
type Event struct {
	Table       string
	RecordID    uint64
	Action      models.Action
	Actor       Actor
	ArchitectID uint64 // zero when the event has no tenant (admin actions)
	OldData     any
	NewData     any
}

// Description is the human readable text of a (table, action) pair.
// Known is false when the pair has no mapping and Text is the generic fallback.
type Description struct {
	Text  string
	Known bool
}

// UndefinedAction is the fallback description for unmapped (table, action) pairs.
const UndefinedAction = "Undefined action"

// actionDescriptions holds the pairs some operation emits; anything else falls back to UndefinedAction.
var actionDescriptions = map[string]map[models.Action]string{
	models.TableElement: {
		models.ActionCreate: "Element created",
		models.ActionUpdate: "Element updated",
		models.ActionDelete: "Element deleted",
		models.ActionMove:   "Element moved between deposit/construction",
		models.ActionAssign: "Element assigned",
		models.ActionReturn: "Element returned",
	},
	models.TableConstructionWorker: {
		models.ActionCreate: "Worker added",
		models.ActionAssign: "Worker assigned to construction",
		models.ActionLogin:  "Worker logged in",
	},
	models.TableConstruction: {
		models.ActionCreate:  "Construction created",
		models.ActionClose:   "Construction closed",
		models.ActionRestore: "Construction restored",
	},
	models.TableDeposit: {
		models.ActionCreate: "Deposit created",
		models.ActionDelete: "Deposit deleted",
	},
	models.TableNote: {
		models.ActionCreate: "Note added",
		models.ActionUpdate: "Note updated",
		models.ActionDelete: "Note deleted",
	},
	models.TableCategory: {
		models.ActionCreate: "Category created",
	},
	models.TableArchitect: {
		models.ActionCreate: "Architect account created",
		models.ActionLogin:  "Logged in",
	},
	models.TableMissing: {
		models.ActionCreate: "Missing item reported",
		models.ActionUpdate: "Missing item updated",
	},
}

// Describe looks up the description of a (table, action) pair.
func Describe(table string, action models.Action) Description {
	if text, ok := actionDescriptions[table][action]; ok {
		return Description{Text: text, Known: true}
	}
	return Description{Text: UndefinedAction, Known: false}
}

// HistoryRecorder appends event history rows.
type HistoryRecorder struct {
	log *zap.Logger
}

// NewHistoryRecorder creates a recorder logging under the "history" name.
func NewHistoryRecorder(log *zap.Logger) *HistoryRecorder {
	return &HistoryRecorder{log: log.Named("history")}
}

// Record inserts the row for ev using db, which may be a transaction.
func (r *HistoryRecorder) Record(db *gorm.DB, ev Event) (*models.EventHistory, error) {
	desc := Describe(ev.Table, ev.Action)
	if !desc.Known {
		r.log.Warn("Undefined history action",
			zap.String("table", ev.Table),
			zap.String("action", string(ev.Action)),
		)
	}

	row := &models.EventHistory{
		Table:         ev.Table,
		RecordID:      ev.RecordID,
		ActionType:    ev.Action,
		Action:        desc.Text,
		ChangedBy:     ev.Actor.ID,
		ChangedByType: ev.Actor.Kind,
		OldData:       snapshot(ev.OldData),
		NewData:       snapshot(ev.NewData),
	}
	if ev.ArchitectID != 0 {
		architectID := ev.ArchitectID
		row.ArchitectID = &architectID
	}

	if err := db.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to write history %s/%s %d: %w", ev.Table, ev.Action, ev.RecordID, err)
	}
	return row, nil
}

// RecordBestEffort writes ev under a savepoint of tx. A failed write is rolled back to the
// savepoint and logged; the enclosing transaction still commits its domain mutation.
func (r *HistoryRecorder) RecordBestEffort(tx *gorm.DB, ev Event) *models.EventHistory {
	var row *models.EventHistory
	err := tx.Transaction(func(sp *gorm.DB) error {
		var err error
		row, err = r.Record(sp, ev)
		return err
	})
	if err != nil {
		r.log.Error("History write failed",
			zap.String("table", ev.Table),
			zap.Uint64("record_id", ev.RecordID),
			zap.String("action", string(ev.Action)),
			zap.Error(err),
		)
		return nil
	}
	return row
}

// toPlain projects v through JSON, yielding maps/slices/scalars detached from v.
// Values that cannot be serialized are passed through unchanged.
func toPlain(v any) any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// snapshot encodes v for a history JSON column.
func snapshot(v any) models.JSON {
	plain := toPlain(v)
	if plain == nil {
		return models.JSON{}
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		// passthrough value that JSON cannot represent; keep its printed form
		raw, _ = json.Marshal(fmt.Sprintf("%+v", plain))
	}
	return models.NewJSON(raw)
}

// EventFilter narrows ListEvents. Zero values do not filter.
type EventFilter struct {
	ArchitectID uint64
	Table       string
	RecordID    uint64
	ActorID     uint64
	ActorType   models.ActorKind
	Limit       int
}

// ListEvents returns history rows newest first.
func ListEvents(db *gorm.DB, filter EventFilter) ([]models.EventHistory, error) {
	query := db.Model(&models.EventHistory{})

	if filter.ArchitectID != 0 {
		query = query.Where("architect_id = ?", filter.ArchitectID)
	}
	if filter.Table != "" {
		query = query.Where("table_name = ?", filter.Table)
	}
	if filter.RecordID != 0 {
		query = query.Where("record_id = ?", filter.RecordID)
	}
	if filter.ActorID != 0 {
		query = query.Where("changed_by = ?", filter.ActorID)
	}
	if filter.ActorType != "" {
		query = query.Where("changed_by_type = ?", filter.ActorType)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var events []models.EventHistory
	if err := query.Order("created_at DESC").Order("id DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
