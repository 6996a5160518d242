package services

import (
	"context"

	"github.com/localnerve/obrasdb/internal/models"
)

// LocationOf returns the current holder of an element.
func (s *Inventory) LocationOf(ctx context.Context, actor Actor, elementID uint64) (models.Location, error) {
	db := s.db.WithContext(ctx)
	if _, err := authorizeElement(db, actor, elementID); err != nil {
		return models.NoLocation, err
	}
	return LocationOf(db, elementID)
}

// HoldersOf lists the elements held at loc.
func (s *Inventory) HoldersOf(ctx context.Context, actor Actor, loc models.Location) ([]models.Element, error) {
	db := s.db.WithContext(ctx)
	if !loc.Kind.Valid() || loc.IsNone() {
		return HoldersOf(db, loc)
	}
	owner, err := locationOwner(db.Unscoped(), loc)
	if err != nil {
		return nil, err
	}
	if err := authorize(db, actor, owner); err != nil {
		return nil, err
	}
	return HoldersOf(db, loc)
}

// AssignmentHistory lists the assignments of an element, newest first.
func (s *Inventory) AssignmentHistory(ctx context.Context, actor Actor, elementID uint64) ([]models.Assignment, error) {
	db := s.db.WithContext(ctx)
	var element models.Element
	if err := db.Unscoped().Select("id", "architect_id").First(&element, elementID).Error; err != nil {
		return nil, translate(err, models.TableElement, elementID)
	}
	if err := authorize(db, actor, element.ArchitectID); err != nil {
		return nil, err
	}
	return AssignmentHistory(db, elementID)
}

// WorkerInventory lists what a worker currently holds.
func (s *Inventory) WorkerInventory(ctx context.Context, actor Actor, workerID uint64) ([]InventoryItem, error) {
	db := s.db.WithContext(ctx)
	if _, err := authorizeWorker(db, actor, workerID); err != nil {
		return nil, err
	}
	return WorkerInventory(db, workerID)
}

// WorkerElements lists the tenant's elements flagged by whether the worker holds them.
func (s *Inventory) WorkerElements(ctx context.Context, actor Actor, workerID uint64) ([]WorkerElement, error) {
	db := s.db.WithContext(ctx)
	if _, err := authorizeWorker(db, actor, workerID); err != nil {
		return nil, err
	}
	return WorkerElements(db, workerID)
}

// GetMissing loads one missing report.
func (s *Inventory) GetMissing(ctx context.Context, actor Actor, missingID uint64) (*models.Missing, error) {
	db := s.db.WithContext(ctx)
	if _, err := authorizeMissing(db, actor, missingID); err != nil {
		return nil, err
	}
	return GetMissing(db, missingID)
}

// ListMissings lists reports in triage order, scoped to the actor's tenant.
func (s *Inventory) ListMissings(ctx context.Context, actor Actor, filter MissingFilter) ([]models.Missing, error) {
	db := s.db.WithContext(ctx)
	tenant, err := s.scope(ctx, actor, filter.ArchitectID)
	if err != nil {
		return nil, err
	}
	filter.ArchitectID = tenant
	return ListMissings(db, filter)
}

// ListNotes lists notes newest first, scoped to the actor's tenant.
func (s *Inventory) ListNotes(ctx context.Context, actor Actor, filter NoteFilter) ([]models.Note, error) {
	db := s.db.WithContext(ctx)
	tenant, err := s.scope(ctx, actor, filter.ArchitectID)
	if err != nil {
		return nil, err
	}
	filter.ArchitectID = tenant
	return ListNotes(db, filter)
}

// ListEvents lists history newest first, scoped to the actor's tenant.
func (s *Inventory) ListEvents(ctx context.Context, actor Actor, filter EventFilter) ([]models.EventHistory, error) {
	db := s.db.WithContext(ctx)
	tenant, err := s.scope(ctx, actor, filter.ArchitectID)
	if err != nil {
		return nil, err
	}
	filter.ArchitectID = tenant
	return ListEvents(db, filter)
}

// ListElements lists live elements, scoped to the actor's tenant.
func (s *Inventory) ListElements(ctx context.Context, actor Actor, filter ElementFilter) ([]models.Element, error) {
	tenant, err := s.scope(ctx, actor, filter.ArchitectID)
	if err != nil {
		return nil, err
	}
	filter.ArchitectID = tenant
	return ListElements(s.db.WithContext(ctx), filter)
}

// ListConstructions lists constructions, scoped to the actor's tenant.
func (s *Inventory) ListConstructions(ctx context.Context, actor Actor, architectID uint64, includeClosed bool) ([]models.Construction, error) {
	tenant, err := s.scope(ctx, actor, architectID)
	if err != nil {
		return nil, err
	}
	return ListConstructions(s.db.WithContext(ctx), tenant, includeClosed)
}

// ListDeposits lists deposits, scoped to the actor's tenant.
func (s *Inventory) ListDeposits(ctx context.Context, actor Actor, architectID uint64) ([]models.Deposit, error) {
	tenant, err := s.scope(ctx, actor, architectID)
	if err != nil {
		return nil, err
	}
	return ListDeposits(s.db.WithContext(ctx), tenant)
}

// ListCategories lists categories, scoped to the actor's tenant.
func (s *Inventory) ListCategories(ctx context.Context, actor Actor, architectID uint64) ([]models.Category, error) {
	tenant, err := s.scope(ctx, actor, architectID)
	if err != nil {
		return nil, err
	}
	return ListCategories(s.db.WithContext(ctx), tenant)
}

// ListWorkers lists workers, scoped to the actor's tenant.
func (s *Inventory) ListWorkers(ctx context.Context, actor Actor, architectID uint64, constructionID *uint64) ([]models.ConstructionWorker, error) {
	tenant, err := s.scope(ctx, actor, architectID)
	if err != nil {
		return nil, err
	}
	return ListWorkers(s.db.WithContext(ctx), tenant, constructionID)
}

// scope returns the architect a list query is restricted to. Admins may list across tenants.
func (s *Inventory) scope(ctx context.Context, actor Actor, requested uint64) (uint64, error) {
	if actor.Kind == models.ActorAdmin {
		return requested, nil
	}
	return tenantFor(s.db.WithContext(ctx), actor, requested)
}
