package core

import "context"

// Store is the external record store. Records are exchanged in their
// external shape; collection is a registered collection key.
//
// Implementations return ErrNotFound from Update and Delete when no record
// has the given id.
type Store interface {
	// SelectAll returns every record ordered by created_at descending.
	SelectAll(ctx context.Context, collection string) ([]ExternalRecord, error)

	// Insert adds records. Fails on an id conflict.
	Insert(ctx context.Context, collection string, records ...ExternalRecord) error

	// Update sets the given columns on the record with the id.
	Update(ctx context.Context, collection, id string, fields ExternalRecord) error

	// Delete removes the record with the id.
	Delete(ctx context.Context, collection, id string) error

	// DeleteAll removes every record with a non-empty id.
	DeleteAll(ctx context.Context, collection string) error

	// Upsert inserts records, overwriting existing ones with the same id.
	Upsert(ctx context.Context, collection string, records ...ExternalRecord) error
}
