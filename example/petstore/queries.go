package petstore

import (
	"context"
	"iter"
)

//go:generate go run github.com/shipq/queries/cmd/queriesgen generate
//go:generate go run github.com/shipq/queries/cmd/queriesgen generate reports.yaml

// PetQueries is the data access layer of the pet store.
//
//queries:database sqlite
type PetQueries interface {
	//queries:query CREATE TABLE IF NOT EXISTS pets (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE, species TEXT NOT NULL, age INTEGER NOT NULL, owner_id INTEGER)
	CreateSchema(ctx context.Context) error

	//queries:query INSERT INTO pets (name, species, age) VALUES (?, ?, ?) RETURNING id
	AddPet(ctx context.Context, name string, species string, age int64) (int64, error)

	//queries:query SELECT id, name, species, age, owner_id FROM pets WHERE id = ?
	GetPet(ctx context.Context, id int64) (Pet, error)

	//queries:query SELECT id, name, species, age, owner_id FROM pets WHERE name = ?
	FindPet(ctx context.Context, name string) (*Pet, error)

	//queries:query SELECT id, name, species, age, owner_id FROM pets WHERE species = ? ORDER BY id
	ListBySpecies(ctx context.Context, species string) ([]Pet, error)

	//queries:query SELECT id, name, species, age, owner_id FROM pets ORDER BY id
	StreamPets(ctx context.Context) (iter.Seq2[Pet, error], error)

	//queries:file count_by_species.sql
	CountBySpecies(ctx context.Context) ([]SpeciesCount, error)

	//queries:query UPDATE pets SET owner_id = ? WHERE id = ?
	Adopt(ctx context.Context, ownerID int64, id int64) error

	//queries:query DELETE FROM pets WHERE id = ?
	RemovePet(ctx context.Context, id int64) error
}
