package services

import (
	"fmt"

	"github.com/localnerve/obrasdb/internal/models"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// ReportInput describes a new missing report.
type ReportInput struct {
	ElementID      uint64
	Title          string
	Text           string
	Status         models.MissingStatus
	Urgent         bool
	ConstructionID *uint64
}

// MissingUpdate carries the editable fields of a missing report. Nil fields are left untouched.
type MissingUpdate struct {
	Title  *string
	Text   *string
	Urgent *bool
}

// NoteInput is an optional note attached to a status change.
type NoteInput struct {
	Title string
	Text  string
}

// MissingFilter narrows ListMissings. Nil fields do not filter; Urgent matches exactly.
type MissingFilter struct {
	ArchitectID    uint64
	Status         *models.MissingStatus
	Urgent         *bool
	ConstructionID *uint64
	WorkerID       *uint64
}

// ReportMissing creates a missing report for an element on behalf of reporter.
// A worker reporting without a construction reports against the construction the worker is on.
func ReportMissing(tx *gorm.DB, reporter Actor, in ReportInput) (*models.Missing, error) {
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	var element models.Element
	if err := tx.First(&element, in.ElementID).Error; err != nil {
		return nil, translate(err, models.TableElement, in.ElementID)
	}

	missing := &models.Missing{
		Title:          in.Title,
		Text:           in.Text,
		Status:         in.Status,
		Urgent:         in.Urgent,
		ElementID:      element.ID,
		ConstructionID: in.ConstructionID,
		ArchitectID:    element.ArchitectID,
		ReportedBy:     reporter.ID,
		ReportedByType: string(reporter.Kind),
	}

	if reporter.Kind == models.ActorWorker {
		var worker models.ConstructionWorker
		if err := tx.First(&worker, reporter.ID).Error; err != nil {
			return nil, translate(err, models.TableConstructionWorker, reporter.ID)
		}
		workerID := worker.ID
		missing.ConstructionWorkerID = &workerID
		if missing.ConstructionID == nil {
			missing.ConstructionID = worker.ConstructionID
		}
	}

	if missing.ConstructionID != nil {
		loc := models.Location{Kind: models.LocationConstruction, ID: *missing.ConstructionID}
		if err := checkLocation(tx, loc, element.ArchitectID); err != nil {
			return nil, err
		}
	}

	if err := tx.Create(missing).Error; err != nil {
		return nil, fmt.Errorf("failed to create missing for element %d: %w", element.ID, err)
	}
	return missing, nil
}

// lockMissing loads a missing report under a row lock.
func lockMissing(tx *gorm.DB, id uint64) (*models.Missing, error) {
	var missing models.Missing
	if err := tx.Clauses(lockForUpdate).First(&missing, id).Error; err != nil {
		return nil, translate(err, models.TableMissing, id)
	}
	return &missing, nil
}

// ChangeMissingStatus sets the status of a missing report. Any status can follow any other.
// A non-nil note is created against the report and its element in the same transaction.
func ChangeMissingStatus(tx *gorm.DB, actor Actor, id uint64, status models.MissingStatus, note *NoteInput) (before, after *models.Missing, created *models.Note, err error) {
	if !status.Valid() {
		return nil, nil, nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	missing, err := lockMissing(tx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	old := *missing

	if err := tx.Model(missing).Update("status", status).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("failed to update status of missing %d: %w", id, err)
	}
	missing.Status = status

	if note != nil {
		missingID, elementID := missing.ID, missing.ElementID
		created, err = AddNote(tx, actor, NoteCreate{
			Title:     note.Title,
			Text:      note.Text,
			ElementID: &elementID,
			MissingID: &missingID,
		})
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return &old, missing, created, nil
}

// UpdateMissing edits the title, text or urgency of a missing report.
func UpdateMissing(tx *gorm.DB, id uint64, in MissingUpdate) (before, after *models.Missing, err error) {
	missing, err := lockMissing(tx, id)
	if err != nil {
		return nil, nil, err
	}
	old := *missing

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Text != nil {
		updates["text"] = *in.Text
	}
	if in.Urgent != nil {
		updates["urgent"] = *in.Urgent
	}
	if len(updates) == 0 {
		return &old, missing, nil
	}

	if err := tx.Model(missing).Updates(updates).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to update missing %d: %w", id, err)
	}
	if in.Title != nil {
		missing.Title = *in.Title
	}
	if in.Text != nil {
		missing.Text = *in.Text
	}
	if in.Urgent != nil {
		missing.Urgent = *in.Urgent
	}
	return &old, missing, nil
}

// GetMissing loads one missing report.
func GetMissing(db *gorm.DB, id uint64) (*models.Missing, error) {
	var missing models.Missing
	if err := db.First(&missing, id).Error; err != nil {
		return nil, translate(err, models.TableMissing, id)
	}
	return &missing, nil
}

// ListMissings returns missing reports urgent first, then newest first.
func ListMissings(db *gorm.DB, filter MissingFilter) ([]models.Missing, error) {
	query := db.Model(&models.Missing{})
	if db.Dialector.Name() == "mysql" {
		query = query.Clauses(hints.UseIndex("idx_missing_triage"))
	}

	if filter.ArchitectID != 0 {
		query = query.Where("architect_id = ?", filter.ArchitectID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Urgent != nil {
		query = query.Where("urgent = ?", *filter.Urgent)
	}
	if filter.ConstructionID != nil {
		query = query.Where("construction_id = ?", *filter.ConstructionID)
	}
	if filter.WorkerID != nil {
		query = query.Where("construction_worker_id = ?", *filter.WorkerID)
	}

	var missings []models.Missing
	err := query.Order("urgent DESC").
		Order("created_at DESC").
		Order("id DESC").
		Find(&missings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list missings: %w", err)
	}
	return missings, nil
}
