// inventory_test.go
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

package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/localnerve/obrasdb/internal/database"
	"github.com/localnerve/obrasdb/internal/models"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	inv       *services.Inventory
	architect *models.Architect
	owner     services.Actor
	deposit   *models.Deposit
	site      *models.Construction
	w1        *models.ConstructionWorker
	w2        *models.ConstructionWorker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testhelpers.NewTestDB(t)

	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	inv := services.NewInventory(db, zaptest.NewLogger(t)).WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})

	architect := testhelpers.SeedArchitect(t, db, "Ana")
	site := testhelpers.SeedConstruction(t, db, architect.ID, "Casa Norte")
	return &fixture{
		db:        db,
		inv:       inv,
		architect: architect,
		owner:     services.Actor{ID: architect.ID, Kind: models.ActorArchitect},
		deposit:   testhelpers.SeedDeposit(t, db, architect.ID, "D1"),
		site:      site,
		w1:        testhelpers.SeedWorker(t, db, architect.ID, "W1", &site.ID),
		w2:        testhelpers.SeedWorker(t, db, architect.ID, "W2", nil),
	}
}

func (f *fixture) createElement(t *testing.T, loc models.Location) *models.Element {
	t.Helper()
	element, err := f.inv.CreateElement(context.Background(), f.owner, services.ElementInput{
		Name:     "Taladro",
		Brand:    "Bosch",
		Quantity: 1,
		Location: loc,
	})
	require.NoError(t, err)
	return element
}

func TestAssignReturnScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))
	loc, err := f.inv.LocationOf(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, testhelpers.DepositLocation(f.deposit.ID), loc)

	assigned, err := f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, e.ID)
	require.NoError(t, err)
	assert.True(t, assigned.Changed)
	assert.Equal(t, testhelpers.WorkerLocation(f.w1.ID), assigned.Element.Location())

	loc, err = f.inv.LocationOf(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, testhelpers.WorkerLocation(f.w1.ID), loc)

	open, err := services.OpenAssignment(f.db, e.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, f.w1.ID, open.WorkerID)
	assert.Equal(t, testhelpers.DepositLocation(f.deposit.ID), open.From())
	assert.EqualValues(t, 1, testhelpers.OpenAssignments(t, f.db, e.ID))

	returned, err := f.inv.ReturnFromWorker(ctx, f.owner, f.w1.ID, e.ID)
	require.NoError(t, err)
	assert.NotNil(t, returned.Assignment.ReturnedAt)

	loc, err = f.inv.LocationOf(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, testhelpers.DepositLocation(f.deposit.ID), loc)
	assert.EqualValues(t, 0, testhelpers.OpenAssignments(t, f.db, e.ID))

	history, err := f.inv.AssignmentHistory(ctx, f.owner, e.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.NotNil(t, history[0].ReturnedAt)
}

func TestReturnRestoresPriorLocation(t *testing.T) {
	ctx := context.Background()

	for name, start := range map[string]func(f *fixture) models.Location{
		"deposit":      func(f *fixture) models.Location { return testhelpers.DepositLocation(f.deposit.ID) },
		"construction": func(f *fixture) models.Location { return testhelpers.ConstructionLocation(f.site.ID) },
		"none":         func(*fixture) models.Location { return models.NoLocation },
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			e := f.createElement(t, start(f))

			before, err := f.inv.LocationOf(ctx, f.owner, e.ID)
			require.NoError(t, err)

			_, err = f.inv.AssignToWorker(ctx, f.owner, f.w2.ID, e.ID)
			require.NoError(t, err)
			_, err = f.inv.ReturnFromWorker(ctx, f.owner, f.w2.ID, e.ID)
			require.NoError(t, err)

			after, err := f.inv.LocationOf(ctx, f.owner, e.ID)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestAssignToSecondWorkerFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))

	_, err := f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, e.ID)
	require.NoError(t, err)
	eventsBefore := testhelpers.CountEvents(t, f.db, models.TableElement, e.ID)

	_, err = f.inv.AssignToWorker(ctx, f.owner, f.w2.ID, e.ID)
	require.ErrorIs(t, err, services.ErrAlreadyAssigned)

	loc, err := f.inv.LocationOf(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, testhelpers.WorkerLocation(f.w1.ID), loc)
	assert.EqualValues(t, 1, testhelpers.OpenAssignments(t, f.db, e.ID))
	assert.Equal(t, eventsBefore, testhelpers.CountEvents(t, f.db, models.TableElement, e.ID))
}

func TestAssignSameWorkerIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))

	first, err := f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, e.ID)
	require.NoError(t, err)
	eventsBefore := testhelpers.CountEvents(t, f.db, models.TableElement, e.ID)

	again, err := f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, e.ID)
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, first.Assignment.ID, again.Assignment.ID)
	assert.Equal(t, eventsBefore, testhelpers.CountEvents(t, f.db, models.TableElement, e.ID))
}

func TestReturnWithoutOpenAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))

	_, err := f.inv.ReturnFromWorker(ctx, f.owner, f.w1.ID, e.ID)
	require.ErrorIs(t, err, services.ErrNoOpenAssignment)

	_, err = f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, e.ID)
	require.NoError(t, err)
	_, err = f.inv.ReturnFromWorker(ctx, f.owner, f.w2.ID, e.ID)
	require.ErrorIs(t, err, services.ErrNoOpenAssignment)
}

// TestConcurrentAssignHasOneWinner checks the outcome only: the test pool has one connection, so the
// transactions queue. TestConcurrentAssignOnPostgres races them for real.
func TestConcurrentAssignHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))

	workers := []uint64{f.w1.ID, f.w2.ID, testhelpers.SeedWorker(t, f.db, f.architect.ID, "W3", nil).ID}
	errs := make([]error, len(workers))

	var wg sync.WaitGroup
	for i, workerID := range workers {
		wg.Add(1)
		go func(i int, workerID uint64) {
			defer wg.Done()
			_, errs[i] = f.inv.AssignToWorker(ctx, f.owner, workerID, e.ID)
		}(i, workerID)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, services.ErrAlreadyAssigned)
	}
	assert.Equal(t, 1, wins)
	assert.EqualValues(t, 1, testhelpers.OpenAssignments(t, f.db, e.ID))
}

func TestOpenAssignmentIndexRejectsSecondOpenRow(t *testing.T) {
	f := newFixture(t)
	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))

	first := models.Assignment{ElementID: e.ID, WorkerID: f.w1.ID, AssignedAt: time.Now().UTC()}
	require.NoError(t, f.db.Create(&first).Error)

	second := models.Assignment{ElementID: e.ID, WorkerID: f.w2.ID, AssignedAt: time.Now().UTC()}
	err := f.db.Create(&second).Error
	require.Error(t, err)
	assert.True(t, database.IsDuplicateKey(err), "expected a unique violation, got %v", err)
}

func TestMoveElement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))

	moved, err := f.inv.MoveElement(ctx, f.owner, e.ID, testhelpers.ConstructionLocation(f.site.ID))
	require.NoError(t, err)
	assert.Equal(t, testhelpers.ConstructionLocation(f.site.ID), moved.Location())

	// to a worker runs the assign protocol
	moved, err = f.inv.MoveElement(ctx, f.owner, e.ID, testhelpers.WorkerLocation(f.w1.ID))
	require.NoError(t, err)
	assert.Equal(t, testhelpers.WorkerLocation(f.w1.ID), moved.Location())
	open, err := services.OpenAssignment(f.db, e.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, testhelpers.ConstructionLocation(f.site.ID), open.From())

	// away from the worker closes the assignment
	moved, err = f.inv.MoveElement(ctx, f.owner, e.ID, testhelpers.DepositLocation(f.deposit.ID))
	require.NoError(t, err)
	assert.Equal(t, testhelpers.DepositLocation(f.deposit.ID), moved.Location())
	assert.EqualValues(t, 0, testhelpers.OpenAssignments(t, f.db, e.ID))

	events, err := f.inv.ListEvents(ctx, f.owner, services.EventFilter{Table: models.TableElement, RecordID: e.ID})
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, []models.Action{models.ActionMove, models.ActionAssign, models.ActionMove, models.ActionCreate},
		[]models.Action{events[0].ActionType, events[1].ActionType, events[2].ActionType, events[3].ActionType})
}

func TestMoveElementRejectsBadTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))

	_, err := f.inv.MoveElement(ctx, f.owner, e.ID, models.Location{Kind: "garage", ID: 1})
	require.ErrorIs(t, err, services.ErrInvalidLocationKind)

	_, err = f.inv.MoveElement(ctx, f.owner, e.ID, testhelpers.DepositLocation(9999))
	require.ErrorIs(t, err, services.ErrNotFound)

	other := testhelpers.SeedArchitect(t, f.db, "Bruno")
	foreign := testhelpers.SeedDeposit(t, f.db, other.ID, "Ajeno")
	_, err = f.inv.MoveElement(ctx, f.owner, e.ID, testhelpers.DepositLocation(foreign.ID))
	require.ErrorIs(t, err, services.ErrOwnershipMismatch)

	loc, err := f.inv.LocationOf(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, testhelpers.DepositLocation(f.deposit.ID), loc)
}

func TestActorOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))

	other := testhelpers.SeedArchitect(t, f.db, "Bruno")
	outsider := services.Actor{ID: other.ID, Kind: models.ActorArchitect}
	_, err := f.inv.AssignToWorker(ctx, outsider, f.w1.ID, e.ID)
	require.ErrorIs(t, err, services.ErrOwnershipMismatch)

	foreignWorker := testhelpers.SeedWorker(t, f.db, other.ID, "Intruso", nil)
	_, err = f.inv.AssignToWorker(ctx, f.owner, foreignWorker.ID, e.ID)
	require.ErrorIs(t, err, services.ErrOwnershipMismatch)

	// workers act within their architect's tenant
	worker := services.Actor{ID: f.w1.ID, Kind: models.ActorWorker}
	_, err = f.inv.AssignToWorker(ctx, worker, f.w1.ID, e.ID)
	require.NoError(t, err)

	admin := services.Actor{ID: 1, Kind: models.ActorAdmin}
	_, err = f.inv.ReturnFromWorker(ctx, admin, f.w1.ID, e.ID)
	require.NoError(t, err)
}

func TestCreateElementAtWorker(t *testing.T) {
	f := newFixture(t)
	e := f.createElement(t, testhelpers.WorkerLocation(f.w2.ID))

	assert.Equal(t, testhelpers.WorkerLocation(f.w2.ID), e.Location())
	open, err := services.OpenAssignment(f.db, e.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.True(t, open.From().IsNone())
	assert.EqualValues(t, 1, testhelpers.CountEvents(t, f.db, models.TableElement, e.ID))
}

func TestDeleteElementClosesAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))
	_, err := f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, e.ID)
	require.NoError(t, err)

	_, err = f.inv.DeleteElement(ctx, f.owner, e.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 0, testhelpers.OpenAssignments(t, f.db, e.ID))
	_, err = f.inv.LocationOf(ctx, f.owner, e.ID)
	require.ErrorIs(t, err, services.ErrNotFound)

	inventory, err := f.inv.WorkerInventory(ctx, f.owner, f.w1.ID)
	require.NoError(t, err)
	assert.Empty(t, inventory)
}

func TestReturnFallsBackWhenOriginIsGone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stored := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))
	onSite := f.createElement(t, testhelpers.ConstructionLocation(f.site.ID))
	_, err := f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, stored.ID)
	require.NoError(t, err)
	_, err = f.inv.AssignToWorker(ctx, f.owner, f.w2.ID, onSite.ID)
	require.NoError(t, err)

	require.NoError(t, f.inv.DeleteDeposit(ctx, f.owner, f.deposit.ID))
	_, err = f.inv.CloseConstruction(ctx, f.owner, f.site.ID)
	require.NoError(t, err)

	result, err := f.inv.ReturnFromWorker(ctx, f.owner, f.w1.ID, stored.ID)
	require.NoError(t, err)
	assert.True(t, result.Element.Location().IsNone())

	result, err = f.inv.ReturnFromWorker(ctx, f.owner, f.w2.ID, onSite.ID)
	require.NoError(t, err)
	assert.True(t, result.Element.Location().IsNone())
}

func TestWorkerViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))
	b := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))

	_, err := f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, b.ID)
	require.NoError(t, err)

	items, err := f.inv.WorkerInventory(ctx, f.owner, f.w1.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, b.ID, items[0].Element.ID)

	elements, err := f.inv.WorkerElements(ctx, f.owner, f.w1.ID)
	require.NoError(t, err)
	require.Len(t, elements, 2)
	assert.Equal(t, a.ID, elements[0].ID)
	assert.False(t, elements[0].IsAssigned)
	assert.Nil(t, elements[0].ActiveAssignment)
	assert.True(t, elements[1].IsAssigned)
	assert.True(t, elements[1].IsAssignedToCurrentWorker)
	require.NotNil(t, elements[1].ActiveAssignment)
	assert.Equal(t, f.w1.ID, elements[1].ActiveAssignment.WorkerID)

	others, err := f.inv.WorkerElements(ctx, f.owner, f.w2.ID)
	require.NoError(t, err)
	require.Len(t, others, 2)
	assert.True(t, others[1].IsAssigned)
	assert.False(t, others[1].IsAssignedToCurrentWorker)

	held, err := f.inv.HoldersOf(ctx, f.owner, testhelpers.DepositLocation(f.deposit.ID))
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, a.ID, held[0].ID)
}

func TestWorkerInventoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))
	second := f.createElement(t, testhelpers.ConstructionLocation(f.site.ID))

	_, err := f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, first.ID)
	require.NoError(t, err)
	_, err = f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, second.ID)
	require.NoError(t, err)

	items, err := f.inv.WorkerInventory(ctx, f.owner, f.w1.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].Element.ID)
	assert.Equal(t, first.ID, items[1].Element.ID)
	assert.True(t, items[0].Assignment.AssignedAt.After(items[1].Assignment.AssignedAt))
}

func TestEveryMutationWritesOneEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.createElement(t, testhelpers.DepositLocation(f.deposit.ID))
	assert.EqualValues(t, 1, testhelpers.CountEvents(t, f.db, models.TableElement, e.ID))

	name := "Taladro percutor"
	_, err := f.inv.UpdateElement(ctx, f.owner, e.ID, services.ElementPatch{Name: &name})
	require.NoError(t, err)
	assert.EqualValues(t, 2, testhelpers.CountEvents(t, f.db, models.TableElement, e.ID))

	_, err = f.inv.AssignToWorker(ctx, f.owner, f.w1.ID, e.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, testhelpers.CountEvents(t, f.db, models.TableElement, e.ID))

	_, err = f.inv.ReturnFromWorker(ctx, f.owner, f.w1.ID, e.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, testhelpers.CountEvents(t, f.db, models.TableElement, e.ID))

	m, err := f.inv.ReportMissing(ctx, f.owner, services.ReportInput{
		ElementID: e.ID, Title: "Sin mecha", Status: models.MissingBroken,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, testhelpers.CountEvents(t, f.db, models.TableMissing, m.ID))

	_, err = f.inv.ChangeMissingStatus(ctx, f.owner, m.ID, models.MissingLost, &services.NoteInput{Text: "No aparece"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, testhelpers.CountEvents(t, f.db, models.TableMissing, m.ID))

	_, err = f.inv.DeleteElement(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, testhelpers.CountEvents(t, f.db, models.TableElement, e.ID))

	events, err := f.inv.ListEvents(ctx, f.owner, services.EventFilter{Table: models.TableElement, RecordID: e.ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.ActionDelete, events[0].ActionType)
	assert.Equal(t, "Element deleted", events[0].Action)
	assert.Equal(t, f.architect.ID, events[0].ChangedBy)
	assert.Equal(t, models.ActorArchitect, events[0].ChangedByType)
}

func TestFailedHistoryWriteKeepsMutation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrator().DropTable(&models.EventHistory{}))

	deposit, err := f.inv.CreateDeposit(context.Background(), f.owner, services.DepositInput{Name: "D2"})
	require.NoError(t, err)

	var stored models.Deposit
	require.NoError(t, f.db.First(&stored, deposit.ID).Error)
	assert.Equal(t, "D2", stored.Name)
}

func TestFailedMutationWritesNoEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.inv.CreateElement(ctx, f.owner, services.ElementInput{
		Name:     "Escalera",
		Location: testhelpers.DepositLocation(424242),
	})
	require.ErrorIs(t, err, services.ErrNotFound)

	var n int64
	require.NoError(t, f.db.Model(&models.EventHistory{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, f.db.Model(&models.Element{}).Count(&n).Error)
	assert.Zero(t, n)
}
