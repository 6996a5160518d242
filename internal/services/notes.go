package services

import (
	"fmt"

	"github.com/localnerve/obrasdb/internal/models"
	"gorm.io/gorm"
)

// NoteCreate describes a new note. ArchitectID is only read for standalone notes;
// notes on an element or a missing report take the tenant of what they annotate.
type NoteCreate struct {
	Title       string
	Text        string
	Context     string
	ElementID   *uint64
	MissingID   *uint64
	ArchitectID uint64
}

// NoteFilter narrows ListNotes.
type NoteFilter struct {
	ArchitectID uint64
	ElementID   *uint64
	MissingID   *uint64
	AuthorID    *uint64
	AuthorType  models.ActorKind
}

// AddNote creates a note authored by actor.
func AddNote(tx *gorm.DB, author Actor, in NoteCreate) (*models.Note, error) {
	if in.Text == "" {
		return nil, fmt.Errorf("%w: note text is required", ErrInvalidInput)
	}

	architectID := in.ArchitectID
	if in.ElementID != nil {
		var element models.Element
		if err := tx.Select("id", "architect_id").First(&element, *in.ElementID).Error; err != nil {
			return nil, translate(err, models.TableElement, *in.ElementID)
		}
		architectID = element.ArchitectID
	}
	if in.MissingID != nil {
		var missing models.Missing
		if err := tx.Select("id", "architect_id").First(&missing, *in.MissingID).Error; err != nil {
			return nil, translate(err, models.TableMissing, *in.MissingID)
		}
		if in.ElementID != nil && missing.ArchitectID != architectID {
			return nil, fmt.Errorf("%w: missing %d and element %d belong to different architects",
				ErrOwnershipMismatch, *in.MissingID, *in.ElementID)
		}
		architectID = missing.ArchitectID
	}
	if architectID == 0 {
		return nil, fmt.Errorf("%w: standalone note needs an architect", ErrInvalidInput)
	}

	note := &models.Note{
		Title:         in.Title,
		Text:          in.Text,
		Context:       in.Context,
		ElementID:     in.ElementID,
		MissingID:     in.MissingID,
		ArchitectID:   architectID,
		CreatedBy:     author.ID,
		CreatedByType: string(author.Kind),
	}
	if err := tx.Create(note).Error; err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

// GetNote loads one note.
func GetNote(db *gorm.DB, id uint64) (*models.Note, error) {
	var note models.Note
	if err := db.First(&note, id).Error; err != nil {
		return nil, translate(err, models.TableNote, id)
	}
	return &note, nil
}

// UpdateNote replaces the title and text of a note and stamps the editor.
func UpdateNote(tx *gorm.DB, editor Actor, id uint64, title, text string) (before, after *models.Note, err error) {
	if text == "" {
		return nil, nil, fmt.Errorf("%w: note text is required", ErrInvalidInput)
	}

	var note models.Note
	if err := tx.Clauses(lockForUpdate).First(&note, id).Error; err != nil {
		return nil, nil, translate(err, models.TableNote, id)
	}
	old := note

	editorID, editorType := editor.ID, string(editor.Kind)
	err = tx.Model(&note).Updates(map[string]interface{}{
		"title":           title,
		"text":            text,
		"updated_by":      editorID,
		"updated_by_type": editorType,
	}).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update note %d: %w", id, err)
	}
	note.Title, note.Text = title, text
	note.UpdatedBy, note.UpdatedByType = &editorID, &editorType
	return &old, &note, nil
}

// DeleteNote removes a note and returns what was removed.
func DeleteNote(tx *gorm.DB, id uint64) (*models.Note, error) {
	var note models.Note
	if err := tx.Clauses(lockForUpdate).First(&note, id).Error; err != nil {
		return nil, translate(err, models.TableNote, id)
	}
	if err := tx.Delete(&note).Error; err != nil {
		return nil, fmt.Errorf("failed to delete note %d: %w", id, err)
	}
	return &note, nil
}

// ListNotes returns notes newest first.
func ListNotes(db *gorm.DB, filter NoteFilter) ([]models.Note, error) {
	query := db.Model(&models.Note{})
	if filter.ArchitectID != 0 {
		query = query.Where("architect_id = ?", filter.ArchitectID)
	}
	if filter.ElementID != nil {
		query = query.Where("element_id = ?", *filter.ElementID)
	}
	if filter.MissingID != nil {
		query = query.Where("missing_id = ?", *filter.MissingID)
	}
	if filter.AuthorID != nil {
		query = query.Where("created_by = ?", *filter.AuthorID)
	}
	if filter.AuthorType != "" {
		query = query.Where("created_by_type = ?", filter.AuthorType)
	}

	var notes []models.Note
	if err := query.Order("created_at DESC").Order("id DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}
