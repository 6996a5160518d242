// inspect_schema prints the SQLite schema the models migrate to, including the open-assignment index.
//
//	go run tools/inspect_schema.go
package main

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/obrasdb/internal/database"
	"go.uber.org/zap"
)

func main() {
	db, err := database.Open(sqlite.Open(":memory:"), zap.NewNop(), false)
	if err != nil {
		log.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	var rows []struct {
		Type string
		Name string
		SQL  string
	}
	err = db.Raw("SELECT type, name, sql FROM sqlite_master WHERE sql IS NOT NULL ORDER BY tbl_name, type DESC, name").
		Scan(&rows).Error
	if err != nil {
		log.Fatal(err)
	}

	for _, row := range rows {
		fmt.Printf("\n=== %s: %s ===\n%s\n", row.Type, row.Name, row.SQL)
	}
}
