package core

// csv_import.go turns tokenized CSV into typed import rows.
//
// The header row is resolved against the collection's alias table. Values
// are trimmed and coerced by field type:
//
//   - FieldInt: non-digits stripped, then parsed; 0 on failure.
//   - FieldList: split on ";", empty and repeated items dropped.
//   - FieldDate: DD/MM/YYYY becomes YYYY-MM-DD; other text is kept as is.
//   - FieldTimestamp: DD/MM/YYYY becomes local midnight; RFC 3339 and a few
//     common layouts are accepted; anything else is a row warning.
//
// Columns with unrecognized headers are kept in the row's Extra map and never
// reach the typed record. Rows with an empty primary field are dropped.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dayMonthYear = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// HeaderMapping records how one CSV header cell was resolved.
type HeaderMapping struct {
	Header string `json:"header"`
	Field  string `json:"field,omitempty"` // empty when unrecognized
}

// CSVRow is a parsed data row before conversion to a typed record.
type CSVRow struct {
	Line     int
	Fields   ExternalRecord // coerced values keyed by column, present fields only
	Present  []string       // internal names of fields with a non-empty cell
	Extra    map[string]string
	Warnings []string
}

// ParsedCSV is the untyped result of parsing a file for a collection.
type ParsedCSV struct {
	Collection string
	Headers    []HeaderMapping
	Rows       []CSVRow
	Dropped    int // data rows skipped for an empty primary field
}

// ImportRow is a typed row ready for preview and reconciliation.
type ImportRow[T any] struct {
	Line     int               `json:"line"`
	Record   T                 `json:"record"`
	Present  []string          `json:"present"`
	Extra    map[string]string `json:"extra,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// ImportBatch is the typed result of parsing a CSV file.
type ImportBatch[T any] struct {
	Collection string           `json:"collection"`
	Headers    []HeaderMapping  `json:"headers"`
	Rows       []ImportRow[T]   `json:"rows"`
	Dropped    int              `json:"dropped"`
	records    []ExternalRecord // store shape of Rows, used by the reconciler
}

// Records returns the store shape of the batch in row order. Fields absent
// from the file are absent from the record, so the reconciler can fill
// defaults.
func (b *ImportBatch[T]) Records() []ExternalRecord {
	out := make([]ExternalRecord, len(b.records))
	for i, r := range b.records {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of importable rows.
func (b *ImportBatch[T]) Len() int { return len(b.Rows) }

// ParseCSV parses CSV bytes for the given collection.
// Returns a *ParseError when the input has no data rows or is not UTF-8.
func ParseCSV(def CollectionDefinition, data []byte) (*ParsedCSV, error) {
	records, err := tokenizeCSV(data)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, &ParseError{Msg: "empty file: CSV needs a header row and at least one data row"}
	}

	header := records[0].cells
	mappings := make([]HeaderMapping, len(header))
	specs := make([]*FieldSpec, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		mappings[i] = HeaderMapping{Header: h}
		if spec, ok := def.ResolveHeader(h); ok {
			s := spec
			specs[i] = &s
			mappings[i].Field = spec.Name
		}
	}

	primary, _ := def.Field(def.PrimaryField)

	result := &ParsedCSV{Collection: def.Info.Key, Headers: mappings}
	for _, rec := range records[1:] {
		row := CSVRow{Line: rec.line, Fields: ExternalRecord{}}

		for i, spec := range specs {
			var raw string
			if i < len(rec.cells) {
				raw = strings.TrimSpace(rec.cells[i])
			}

			if spec == nil {
				if mappings[i].Header == "" && raw == "" {
					continue
				}
				if row.Extra == nil {
					row.Extra = make(map[string]string)
				}
				row.Extra[mappings[i].Header] = raw
				continue
			}

			v, warn := coerceCell(*spec, raw)
			if warn != "" {
				row.Warnings = append(row.Warnings, warn)
			}
			if v == nil {
				delete(row.Fields, spec.Column)
				continue
			}
			row.Fields[spec.Column] = v
		}

		if textValue(row.Fields[primary.Column]) == "" {
			result.Dropped++
			continue
		}

		for _, spec := range def.FieldSpecs {
			if _, ok := row.Fields[spec.Column]; ok {
				row.Present = append(row.Present, spec.Name)
			}
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// coerceCell converts a trimmed cell to its external value. A nil value means
// the field is absent for this row.
func coerceCell(spec FieldSpec, raw string) (any, string) {
	if raw == "" {
		return nil, ""
	}

	switch spec.Type {
	case FieldInt:
		return parseLooseInt(raw), ""

	case FieldList:
		return splitList(raw), ""

	case FieldDate:
		if m := dayMonthYear.FindStringSubmatch(raw); m != nil {
			day, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			return fmt.Sprintf("%s-%02d-%02d", m[3], month, day), ""
		}
		return raw, ""

	case FieldTimestamp:
		if m := dayMonthYear.FindStringSubmatch(raw); m != nil {
			day, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), ""
		}
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				return t, ""
			}
		}
		return nil, fmt.Sprintf("%s: unrecognized timestamp %q ignored", spec.Name, raw)
	}

	return raw, ""
}

// NormalizeDate rewrites DD/MM/YYYY as YYYY-MM-DD and trims other input.
func NormalizeDate(s string) string {
	v, _ := coerceCell(FieldSpec{Type: FieldDate}, strings.TrimSpace(s))
	return textValue(v)
}

// parseLooseInt strips everything but digits and parses the rest.
func parseLooseInt(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// splitList splits a ";" separated cell into a clean list.
func splitList(s string) []string {
	return CleanList(strings.Split(s, ";"))
}

// CleanList trims items and drops empty and repeated ones, keeping the
// order of first occurrence.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// ParseActionsCSV parses an Actions & Decisions CSV export.
func ParseActionsCSV(data []byte) (*ImportBatch[ActionEntry], error) {
	return parseBatch(ActionsKey, data, ActionEntryFromExternal)
}

// ParseRegisterCSV parses an Ideas & Issues CSV export.
func ParseRegisterCSV(data []byte) (*ImportBatch[RegisterEntry], error) {
	return parseBatch(RegisterKey, data, RegisterEntryFromExternal)
}

func parseBatch[T any](key string, data []byte, from func(ExternalRecord) T) (*ImportBatch[T], error) {
	def, err := Lookup(key)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseCSV(def, data)
	if err != nil {
		return nil, err
	}

	batch := &ImportBatch[T]{
		Collection: key,
		Headers:    parsed.Headers,
		Rows:       make([]ImportRow[T], 0, len(parsed.Rows)),
		Dropped:    parsed.Dropped,
		records:    make([]ExternalRecord, 0, len(parsed.Rows)),
	}
	for _, row := range parsed.Rows {
		batch.Rows = append(batch.Rows, ImportRow[T]{
			Line:     row.Line,
			Record:   from(row.Fields),
			Present:  row.Present,
			Extra:    row.Extra,
			Warnings: row.Warnings,
		})
		batch.records = append(batch.records, row.Fields)
	}
	return batch, nil
}
