// db.go
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

package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/obrasdb/internal/database"
	"github.com/localnerve/obrasdb/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory SQLite database private to the test.
// The pool holds one connection, so code under test must use the transaction it is given.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := database.Open(sqlite.Open(dsn), zaptest.NewLogger(t), false)
	require.NoError(t, err, "open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, database.AutoMigrate(db), "migrate test database")

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// SeedArchitect creates an architect.
func SeedArchitect(t *testing.T, db *gorm.DB, name string) *models.Architect {
	t.Helper()
	architect := &models.Architect{Name: name, Email: strings.ToLower(name) + "@example.com"}
	require.NoError(t, db.Create(architect).Error)
	return architect
}

// SeedDeposit creates a deposit owned by architectID.
func SeedDeposit(t *testing.T, db *gorm.DB, architectID uint64, name string) *models.Deposit {
	t.Helper()
	deposit := &models.Deposit{Name: name, ArchitectID: architectID}
	require.NoError(t, db.Create(deposit).Error)
	return deposit
}

// SeedConstruction creates a construction owned by architectID.
func SeedConstruction(t *testing.T, db *gorm.DB, architectID uint64, title string) *models.Construction {
	t.Helper()
	construction := &models.Construction{Title: title, ArchitectID: architectID}
	require.NoError(t, db.Create(construction).Error)
	return construction
}

// SeedWorker creates a worker owned by architectID, optionally on a construction.
func SeedWorker(t *testing.T, db *gorm.DB, architectID uint64, name string, constructionID *uint64) *models.ConstructionWorker {
	t.Helper()
	worker := &models.ConstructionWorker{Name: name, ArchitectID: architectID, ConstructionID: constructionID}
	require.NoError(t, db.Create(worker).Error)
	return worker
}

// SeedElement creates an element at loc. Worker locations are not valid here; assign through the services.
func SeedElement(t *testing.T, db *gorm.DB, architectID uint64, name string, loc models.Location) *models.Element {
	t.Helper()
	require.NotEqual(t, models.LocationWorker, loc.Kind, "seed elements at a deposit or construction, then assign")
	element := &models.Element{Name: name, Quantity: 1, ArchitectID: architectID}
	element.SetLocation(loc)
	require.NoError(t, db.Create(element).Error)
	return element
}

// SeedMissing inserts a missing report as given, keeping any CreatedAt set by the caller.
func SeedMissing(t *testing.T, db *gorm.DB, missing models.Missing) *models.Missing {
	t.Helper()
	if missing.Status == "" {
		missing.Status = models.MissingLost
	}
	require.NoError(t, db.Create(&missing).Error)
	return &missing
}

// CountEvents counts history rows for a record.
func CountEvents(t *testing.T, db *gorm.DB, table string, recordID uint64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.EventHistory{}).
		Where("table_name = ? AND record_id = ?", table, recordID).
		Count(&n).Error)
	return n
}

// OpenAssignments counts unreturned assignments of an element.
func OpenAssignments(t *testing.T, db *gorm.DB, elementID uint64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Assignment{}).
		Where("element_id = ? AND returned_at IS NULL", elementID).
		Count(&n).Error)
	return n
}

// DepositLocation is the location of a deposit.
func DepositLocation(id uint64) models.Location {
	return models.Location{Kind: models.LocationDeposit, ID: id}
}

// ConstructionLocation is the location of a construction.
func ConstructionLocation(id uint64) models.Location {
	return models.Location{Kind: models.LocationConstruction, ID: id}
}

// WorkerLocation is the location of a worker.
func WorkerLocation(id uint64) models.Location {
	return models.Location{Kind: models.LocationWorker, ID: id}
}
