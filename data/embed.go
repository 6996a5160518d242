package data

import (
	_ "embed"
)

//go:embed sql/postgres/001-open-assignment-index.sql
var OpenAssignmentIndexPostgres string

//go:embed sql/sqlite/001-open-assignment-index.sql
var OpenAssignmentIndexSQLite string

//go:embed sql/sqlserver/001-open-assignment-index.sql
var OpenAssignmentIndexSQLServer string

//go:embed sql/mysql/001-open-assignment-index.sql
var OpenAssignmentIndexMySQL string
