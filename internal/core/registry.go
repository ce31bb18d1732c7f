package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]CollectionDefinition)
	registryMu sync.RWMutex
)

// FieldType represents how a field is coerced and stored.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldInt
	FieldDate      // calendar date, YYYY-MM-DD
	FieldTimestamp // instant, stored with time zone
	FieldList      // list of strings, ";" separated in CSV
)

// FieldSpec describes a single field of a collection.
type FieldSpec struct {
	Name       string    // Internal and CSV header name: "dueDate"
	Column     string    // External column name: "due_date"
	Type       FieldType // Coercion and storage type
	Required   bool      // Must be non-empty on create and update
	EnumValues []string  // Allowed values for FieldEnum
	Aliases    []string  // Additional lower-case CSV header spellings
}

// CollectionInfo contains display information about a collection.
type CollectionInfo struct {
	Key         string // Unique identifier and table name: "action_entries"
	Label       string // Display name: "Actions & Decisions"
	ExportLabel string // CSV download prefix: "Actions_Backup"
	ReportLabel string // Report download prefix: "Actions_Log"
}

// CollectionDefinition contains everything the codec, reconciler and stores
// need to know about a collection.
type CollectionDefinition struct {
	Info         CollectionInfo
	FieldSpecs   []FieldSpec
	PrimaryField string // Rows with this field empty are dropped on import

	// Normalize fills field defaults on an external record.
	Normalize func(ExternalRecord) ExternalRecord

	headers map[string]int // lower-case header spelling -> FieldSpecs index
}

// Register adds a collection definition to the registry.
// Panics if a collection with the same key is already registered.
func Register(def CollectionDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("collection already registered: %s", def.Info.Key))
	}

	def.headers = make(map[string]int)
	for i, spec := range def.FieldSpecs {
		for _, h := range append([]string{spec.Name, spec.Column}, spec.Aliases...) {
			h = strings.ToLower(strings.TrimSpace(h))
			if h == "" {
				continue
			}
			if prev, dup := def.headers[h]; dup && prev != i {
				panic(fmt.Sprintf("collection %s: header %q maps to both %s and %s",
					def.Info.Key, h, def.FieldSpecs[prev].Name, spec.Name))
			}
			def.headers[h] = i
		}
	}

	registry[def.Info.Key] = def
}

// Get returns a collection definition by key.
// Returns false if not found.
func Get(key string) (CollectionDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get with an error suitable for returning to callers.
func Lookup(key string) (CollectionDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return CollectionDefinition{}, fmt.Errorf("%w: %s", ErrUnknownCollection, key)
	}
	return def, nil
}

// All returns all registered collection definitions sorted by key.
func All() []CollectionDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]CollectionDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// CollectionCount returns the number of registered collections.
func CollectionCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// ResolveHeader maps a CSV header cell to its field.
// Matching is case-insensitive and ignores surrounding whitespace.
func (d CollectionDefinition) ResolveHeader(header string) (FieldSpec, bool) {
	i, ok := d.headers[strings.ToLower(strings.TrimSpace(header))]
	if !ok {
		return FieldSpec{}, false
	}
	return d.FieldSpecs[i], true
}

// Field returns the spec for an internal field name.
func (d CollectionDefinition) Field(name string) (FieldSpec, bool) {
	for _, spec := range d.FieldSpecs {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// FieldByColumn returns the spec for an external column name.
func (d CollectionDefinition) FieldByColumn(column string) (FieldSpec, bool) {
	for _, spec := range d.FieldSpecs {
		if spec.Column == column {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Columns returns the external column names in field order.
func (d CollectionDefinition) Columns() []string {
	cols := make([]string, len(d.FieldSpecs))
	for i, spec := range d.FieldSpecs {
		cols[i] = spec.Column
	}
	return cols
}

// Names returns the internal field names in field order. This is the CSV
// header written on export.
func (d CollectionDefinition) Names() []string {
	names := make([]string, len(d.FieldSpecs))
	for i, spec := range d.FieldSpecs {
		names[i] = spec.Name
	}
	return names
}

// HasColumn reports whether the collection has the given external column.
func (d CollectionDefinition) HasColumn(column string) bool {
	_, ok := d.FieldByColumn(column)
	return ok
}
