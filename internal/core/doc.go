// Package core provides the business logic for the Actions & Decisions log
// and the Ideas & Issues register.
//
// The package holds all domain logic independent of any transport or storage
// engine. It is used by the HTTP server, the registerctl CLI and tests
// without modification.
//
// # Architecture
//
//   - Collection Registry: each collection registers its field specs (internal
//     name, external column, type, CSV header aliases, enum values).
//   - Record Mapper: translates between the external snake_case shape used by
//     the [Store] and the typed [ActionEntry] / [RegisterEntry] records.
//   - CSV Codec: a quote-aware tokenizer and serializer. Parsing resolves
//     header aliases, coerces values and yields typed [ImportRow] values with
//     unrecognized columns carried in a side map.
//   - Import Reconciler: commits a parsed batch in [ImportReplace] or
//     [ImportMerge] mode and always refreshes the collection cache afterwards.
//   - Service: CRUD, filtering, counts and seeding for both collections.
//
// # Collection Registry
//
// Collections are registered at init time using [Register]:
//
//	core.Register(CollectionDefinition{
//	    Info:         CollectionInfo{Key: "action_entries", Label: "Actions", ExportLabel: "Actions_Backup"},
//	    PrimaryField: "action",
//	    FieldSpecs: []FieldSpec{
//	        {Name: "id", Column: "id", Type: FieldText},
//	        {Name: "dueDate", Column: "due_date", Type: FieldDate, Aliases: []string{"due date", "duedate"}},
//	    },
//	})
//
// # Caching
//
// The store is the only source of truth. Each collection is mirrored by an
// explicit [Cache] which is refreshed after every mutation; nothing is
// mutated in memory.
//
// # Error Handling
//
// Store calls return errors to their caller. The import reconciler collects
// them into an [ImportResult] instead of aborting, so the cache refresh
// always runs. Technical errors are mapped to user-facing messages with
// [MapError]:
//
//   - CSV001-CSV004: CSV parse errors
//   - VAL001-VAL004: validation errors
//   - STORE001-STORE006: store errors
//   - IMP001-IMP003: import errors
package core
