package services

import (
	"context"
	"fmt"

	"github.com/localnerve/obrasdb/internal/models"
	"gorm.io/gorm"
)

// ArchitectInput describes a new tenant.
type ArchitectInput struct {
	Name  string
	Email string
}

// CategoryInput describes a new category. ArchitectID is only read for admin actors.
type CategoryInput struct {
	Name        string
	ArchitectID uint64
}

// DepositInput describes a new deposit.
type DepositInput struct {
	Name        string
	Address     string
	ArchitectID uint64
}

// ConstructionInput describes a new construction.
type ConstructionInput struct {
	Title       string
	Description string
	Address     string
	ArchitectID uint64
}

// WorkerInput describes a new construction worker.
type WorkerInput struct {
	Name           string
	Email          string
	ArchitectID    uint64
	ConstructionID *uint64
}

// CreateArchitect registers a tenant. Only admins create architects.
func (s *Inventory) CreateArchitect(ctx context.Context, actor Actor, in ArchitectInput) (*models.Architect, error) {
	if actor.Kind != models.ActorAdmin {
		return nil, fmt.Errorf("%w: only admins create architects", ErrOwnershipMismatch)
	}
	if in.Name == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: architect name and email are required", ErrInvalidInput)
	}

	architect := &models.Architect{Name: in.Name, Email: in.Email}
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		if err := tx.Create(architect).Error; err != nil {
			return nil, translate(err, models.TableArchitect, 0)
		}
		return &Event{
			Table:       models.TableArchitect,
			RecordID:    architect.ID,
			Action:      models.ActionCreate,
			Actor:       actor,
			ArchitectID: architect.ID,
			NewData:     architect,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return architect, nil
}

// CreateCategory adds a category to the actor's tenant.
func (s *Inventory) CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (*models.Category, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}

	var category *models.Category
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := tenantFor(tx, actor, in.ArchitectID)
		if err != nil {
			return nil, err
		}
		category = &models.Category{Name: in.Name, ArchitectID: architectID}
		if err := tx.Create(category).Error; err != nil {
			return nil, fmt.Errorf("failed to create category: %w", err)
		}
		return &Event{
			Table:       models.TableCategory,
			RecordID:    category.ID,
			Action:      models.ActionCreate,
			Actor:       actor,
			ArchitectID: architectID,
			NewData:     category,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// CreateDeposit adds a deposit to the actor's tenant.
func (s *Inventory) CreateDeposit(ctx context.Context, actor Actor, in DepositInput) (*models.Deposit, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: deposit name is required", ErrInvalidInput)
	}

	var deposit *models.Deposit
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := tenantFor(tx, actor, in.ArchitectID)
		if err != nil {
			return nil, err
		}
		deposit = &models.Deposit{Name: in.Name, Address: in.Address, ArchitectID: architectID}
		if err := tx.Create(deposit).Error; err != nil {
			return nil, fmt.Errorf("failed to create deposit: %w", err)
		}
		return &Event{
			Table:       models.TableDeposit,
			RecordID:    deposit.ID,
			Action:      models.ActionCreate,
			Actor:       actor,
			ArchitectID: architectID,
			NewData:     deposit,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// depositRemoval is the history snapshot of a deleted deposit and the elements it held.
type depositRemoval struct {
	models.Deposit
	ClearedElementIDs []uint64 `json:"clearedElementIds"`
}

// DeleteDeposit removes a deposit. Elements stored there are left with no location.
func (s *Inventory) DeleteDeposit(ctx context.Context, actor Actor, depositID uint64) error {
	return s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		var deposit models.Deposit
		if err := tx.Clauses(lockForUpdate).First(&deposit, depositID).Error; err != nil {
			return nil, translate(err, models.TableDeposit, depositID)
		}
		if err := authorize(tx, actor, deposit.ArchitectID); err != nil {
			return nil, err
		}

		cleared := []uint64{}
		err := tx.Model(&models.Element{}).
			Where("current_location_type = ? AND current_location_id = ?", string(models.LocationDeposit), depositID).
			Order("id").
			Pluck("id", &cleared).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list elements of deposit %d: %w", depositID, err)
		}
		if len(cleared) > 0 {
			err := tx.Model(&models.Element{}).
				Where("id IN ?", cleared).
				Updates(map[string]interface{}{"current_location_type": nil, "current_location_id": nil}).Error
			if err != nil {
				return nil, fmt.Errorf("failed to clear elements of deposit %d: %w", depositID, err)
			}
		}
		if err := tx.Delete(&deposit).Error; err != nil {
			return nil, fmt.Errorf("failed to delete deposit %d: %w", depositID, err)
		}

		return &Event{
			Table:       models.TableDeposit,
			RecordID:    depositID,
			Action:      models.ActionDelete,
			Actor:       actor,
			ArchitectID: deposit.ArchitectID,
			OldData:     depositRemoval{Deposit: deposit, ClearedElementIDs: cleared},
		}, nil
	})
}

// CreateConstruction adds a construction to the actor's tenant.
func (s *Inventory) CreateConstruction(ctx context.Context, actor Actor, in ConstructionInput) (*models.Construction, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: construction title is required", ErrInvalidInput)
	}

	var construction *models.Construction
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := tenantFor(tx, actor, in.ArchitectID)
		if err != nil {
			return nil, err
		}
		construction = &models.Construction{
			Title:       in.Title,
			Description: in.Description,
			Address:     in.Address,
			ArchitectID: architectID,
		}
		if err := tx.Create(construction).Error; err != nil {
			return nil, fmt.Errorf("failed to create construction: %w", err)
		}
		return &Event{
			Table:       models.TableConstruction,
			RecordID:    construction.ID,
			Action:      models.ActionCreate,
			Actor:       actor,
			ArchitectID: architectID,
			NewData:     construction,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return construction, nil
}

// CloseConstruction soft deletes a construction. Closed constructions stop counting as
// locations: nothing new can be moved there and returns fall back to no location.
func (s *Inventory) CloseConstruction(ctx context.Context, actor Actor, constructionID uint64) (*models.Construction, error) {
	var construction models.Construction
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		if err := tx.Clauses(lockForUpdate).First(&construction, constructionID).Error; err != nil {
			return nil, translate(err, models.TableConstruction, constructionID)
		}
		if err := authorize(tx, actor, construction.ArchitectID); err != nil {
			return nil, err
		}
		old := construction

		if err := tx.Delete(&construction).Error; err != nil {
			return nil, fmt.Errorf("failed to close construction %d: %w", constructionID, err)
		}
		if err := tx.Unscoped().First(&construction, constructionID).Error; err != nil {
			return nil, translate(err, models.TableConstruction, constructionID)
		}

		return &Event{
			Table:       models.TableConstruction,
			RecordID:    constructionID,
			Action:      models.ActionClose,
			Actor:       actor,
			ArchitectID: construction.ArchitectID,
			OldData:     old,
			NewData:     construction,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &construction, nil
}

// RestoreConstruction reopens a closed construction.
func (s *Inventory) RestoreConstruction(ctx context.Context, actor Actor, constructionID uint64) (*models.Construction, error) {
	var construction models.Construction
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		if err := tx.Unscoped().Clauses(lockForUpdate).First(&construction, constructionID).Error; err != nil {
			return nil, translate(err, models.TableConstruction, constructionID)
		}
		if err := authorize(tx, actor, construction.ArchitectID); err != nil {
			return nil, err
		}
		old := construction

		err := tx.Unscoped().Model(&models.Construction{}).
			Where("id = ?", constructionID).
			Update("deleted_at", nil).Error
		if err != nil {
			return nil, fmt.Errorf("failed to restore construction %d: %w", constructionID, err)
		}
		construction.DeletedAt = gorm.DeletedAt{}

		return &Event{
			Table:       models.TableConstruction,
			RecordID:    constructionID,
			Action:      models.ActionRestore,
			Actor:       actor,
			ArchitectID: construction.ArchitectID,
			OldData:     old,
			NewData:     construction,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &construction, nil
}

// CreateWorker adds a worker account to the actor's tenant.
func (s *Inventory) CreateWorker(ctx context.Context, actor Actor, in WorkerInput) (*models.ConstructionWorker, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: worker name is required", ErrInvalidInput)
	}

	var worker *models.ConstructionWorker
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := tenantFor(tx, actor, in.ArchitectID)
		if err != nil {
			return nil, err
		}
		if in.ConstructionID != nil {
			loc := models.Location{Kind: models.LocationConstruction, ID: *in.ConstructionID}
			if err := checkLocation(tx, loc, architectID); err != nil {
				return nil, err
			}
		}

		worker = &models.ConstructionWorker{
			Name:           in.Name,
			Email:          in.Email,
			ArchitectID:    architectID,
			ConstructionID: in.ConstructionID,
		}
		if err := tx.Create(worker).Error; err != nil {
			return nil, fmt.Errorf("failed to create worker: %w", err)
		}
		return &Event{
			Table:       models.TableConstructionWorker,
			RecordID:    worker.ID,
			Action:      models.ActionCreate,
			Actor:       actor,
			ArchitectID: architectID,
			NewData:     worker,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return worker, nil
}

// AssignWorkerToConstruction puts a worker on a construction, or takes them off one when constructionID is nil.
func (s *Inventory) AssignWorkerToConstruction(ctx context.Context, actor Actor, workerID uint64, constructionID *uint64) (*models.ConstructionWorker, error) {
	var worker models.ConstructionWorker
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		if err := tx.Clauses(lockForUpdate).First(&worker, workerID).Error; err != nil {
			return nil, translate(err, models.TableConstructionWorker, workerID)
		}
		if err := authorize(tx, actor, worker.ArchitectID); err != nil {
			return nil, err
		}
		if constructionID != nil {
			loc := models.Location{Kind: models.LocationConstruction, ID: *constructionID}
			if err := checkLocation(tx, loc, worker.ArchitectID); err != nil {
				return nil, err
			}
		}
		old := worker

		var value interface{}
		if constructionID != nil {
			value = *constructionID
		}
		if err := tx.Model(&worker).Update("construction_id", value).Error; err != nil {
			return nil, fmt.Errorf("failed to assign worker %d: %w", workerID, err)
		}
		worker.ConstructionID = constructionID

		return &Event{
			Table:       models.TableConstructionWorker,
			RecordID:    workerID,
			Action:      models.ActionAssign,
			Actor:       actor,
			ArchitectID: worker.ArchitectID,
			OldData:     old,
			NewData:     worker,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

// RecordLogin writes the login event of an architect or worker. Credentials are checked upstream.
func (s *Inventory) RecordLogin(ctx context.Context, actor Actor) (*models.EventHistory, error) {
	var (
		table       string
		architectID uint64
	)
	switch actor.Kind {
	case models.ActorArchitect:
		var architect models.Architect
		if err := s.db.WithContext(ctx).Select("id").First(&architect, actor.ID).Error; err != nil {
			return nil, translate(err, models.TableArchitect, actor.ID)
		}
		table, architectID = models.TableArchitect, architect.ID
	case models.ActorWorker:
		var worker models.ConstructionWorker
		if err := s.db.WithContext(ctx).Select("id", "architect_id").First(&worker, actor.ID).Error; err != nil {
			return nil, translate(err, models.TableConstructionWorker, actor.ID)
		}
		table, architectID = models.TableConstructionWorker, worker.ArchitectID
	default:
		return nil, fmt.Errorf("%w: %q accounts do not log in here", ErrInvalidInput, actor.Kind)
	}

	return s.history.Record(s.db.WithContext(ctx), Event{
		Table:       table,
		RecordID:    actor.ID,
		Action:      models.ActionLogin,
		Actor:       actor,
		ArchitectID: architectID,
	})
}

// ElementFilter narrows ListElements. Zero values do not filter.
type ElementFilter struct {
	ArchitectID uint64
	CategoryID  *uint64
	Location    *models.Location
}

// ListElements returns the live elements of a tenant ordered by id.
func ListElements(db *gorm.DB, filter ElementFilter) ([]models.Element, error) {
	query := db.Model(&models.Element{})
	if filter.ArchitectID != 0 {
		query = query.Where("architect_id = ?", filter.ArchitectID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Location != nil {
		if !filter.Location.Kind.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLocationKind, filter.Location.Kind)
		}
		if filter.Location.IsNone() {
			query = query.Where("current_location_type IS NULL")
		} else {
			query = query.Where("current_location_type = ? AND current_location_id = ?",
				string(filter.Location.Kind), filter.Location.ID)
		}
	}

	elements := []models.Element{}
	if err := query.Order("id").Find(&elements).Error; err != nil {
		return nil, fmt.Errorf("failed to list elements: %w", err)
	}
	return elements, nil
}

// ListConstructions returns the constructions of a tenant ordered by id. Closed ones are only
// included when includeClosed is set.
func ListConstructions(db *gorm.DB, architectID uint64, includeClosed bool) ([]models.Construction, error) {
	query := db.Model(&models.Construction{})
	if includeClosed {
		query = query.Unscoped()
	}
	if architectID != 0 {
		query = query.Where("architect_id = ?", architectID)
	}

	constructions := []models.Construction{}
	if err := query.Order("id").Find(&constructions).Error; err != nil {
		return nil, fmt.Errorf("failed to list constructions: %w", err)
	}
	return constructions, nil
}

// ListDeposits returns the deposits of a tenant ordered by id.
func ListDeposits(db *gorm.DB, architectID uint64) ([]models.Deposit, error) {
	query := db.Model(&models.Deposit{})
	if architectID != 0 {
		query = query.Where("architect_id = ?", architectID)
	}

	deposits := []models.Deposit{}
	if err := query.Order("id").Find(&deposits).Error; err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return deposits, nil
}

// ListCategories returns the categories of a tenant ordered by name.
func ListCategories(db *gorm.DB, architectID uint64) ([]models.Category, error) {
	query := db.Model(&models.Category{})
	if architectID != 0 {
		query = query.Where("architect_id = ?", architectID)
	}

	categories := []models.Category{}
	if err := query.Order("name").Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ListWorkers returns the workers of a tenant ordered by id, optionally only those on one construction.
func ListWorkers(db *gorm.DB, architectID uint64, constructionID *uint64) ([]models.ConstructionWorker, error) {
	query := db.Model(&models.ConstructionWorker{})
	if architectID != 0 {
		query = query.Where("architect_id = ?", architectID)
	}
	if constructionID != nil {
		query = query.Where("construction_id = ?", *constructionID)
	}

	workers := []models.ConstructionWorker{}
	if err := query.Order("id").Find(&workers).Error; err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	return workers, nil
}
