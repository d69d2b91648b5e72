// Package petstore is a small worked example of queriesgen: a declaration
// file, a YAML declaration, their generated query objects and end-to-end
// tests against SQLite.
package petstore

import "database/sql"

// Pet is a row of the pets table.
type Pet struct {
	ID      int64
	Name    string
	Species string
	Age     int64
	OwnerID sql.NullInt64
}

// SpeciesCount is one row of the per-species report.
type SpeciesCount struct {
	Species string
	N       int64 `db:"n"`
}
