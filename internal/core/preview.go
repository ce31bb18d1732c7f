package core

import (
	"context"
	"time"
)

// PreviewSummary contains the summary counts for an import preview.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	NewRows         int `json:"newRows"`
	UpdateRows      int `json:"updateRows"`
	UnchangedRows   int `json:"unchangedRows"`
	WarningRows     int `json:"warningRows"`
	DuplicateInFile int `json:"duplicateInFile"`
	DroppedRows     int `json:"droppedRows"` // no value in the primary column
	Existing        int `json:"existing"`    // records a replace import would delete
	NotInFile       int `json:"notInFile"`   // existing records a replace import would lose
}

// RowPreview represents a single row for preview display.
type RowPreview struct {
	LineNumber int               `json:"lineNumber"`
	RowKey     string            `json:"rowKey,omitempty"`
	Values     map[string]string `json:"values"`
}

// UpdateDiff represents a before/after diff for a row that will overwrite a
// stored record in merge mode.
type UpdateDiff struct {
	LineNumber int               `json:"lineNumber"`
	RowKey     string            `json:"rowKey"`
	Current    map[string]string `json:"current"`
	Incoming   map[string]string `json:"incoming"`
	Changed    []string          `json:"changed"`
}

// WarningPreview represents a row with ignored values.
type WarningPreview struct {
	LineNumber int               `json:"lineNumber"`
	RowKey     string            `json:"rowKey,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// DuplicatePreview represents ids that appear on several lines. The last
// line wins on import.
type DuplicatePreview struct {
	RowKey      string `json:"rowKey"`
	LineNumbers []int  `json:"lineNumbers"`
}

// PreviewResponse is the read-only analysis of an import batch.
type PreviewResponse struct {
	Collection       string             `json:"collection"`
	Headers          []HeaderMapping    `json:"headers"`
	Summary          PreviewSummary     `json:"summary"`
	NewRowSamples    []RowPreview       `json:"newRowSamples"`
	UpdateDiffs      []UpdateDiff       `json:"updateDiffs"`
	WarningSamples   []WarningPreview   `json:"warningSamples"`
	DuplicateSamples []DuplicatePreview `json:"duplicateSamples"`
	ProcessingTimeMs int64              `json:"processingTimeMs"`
}

// Sample limits
const (
	maxNewRowSamples    = 10
	maxUpdateDiffs      = 10
	maxWarningSamples   = 20
	maxDuplicateSamples = 10
)

// PreviewActionsImport compares a parsed batch with the stored actions.
func (s *Service) PreviewActionsImport(ctx context.Context, batch *ImportBatch[ActionEntry]) (*PreviewResponse, error) {
	if batch == nil || batch.Len() == 0 {
		return nil, ErrEmptyImport
	}
	current, err := s.Actions(ctx)
	if err != nil {
		return nil, err
	}
	recs := make([]ExternalRecord, len(current))
	for i, e := range current {
		recs[i] = e.External()
	}
	return analyzeBatch(batch, recs)
}

// PreviewRegisterImport compares a parsed batch with the stored register.
func (s *Service) PreviewRegisterImport(ctx context.Context, batch *ImportBatch[RegisterEntry]) (*PreviewResponse, error) {
	if batch == nil || batch.Len() == 0 {
		return nil, ErrEmptyImport
	}
	current, err := s.RegisterEntries(ctx)
	if err != nil {
		return nil, err
	}
	recs := make([]ExternalRecord, len(current))
	for i, e := range current {
		recs[i] = e.External()
	}
	return analyzeBatch(batch, recs)
}

// analyzeBatch classifies each row as new, update or unchanged against the
// stored records. Rows without an id are always new.
func analyzeBatch[T any](batch *ImportBatch[T], current []ExternalRecord) (*PreviewResponse, error) {
	start := time.Now()

	def, err := Lookup(batch.Collection)
	if err != nil {
		return nil, err
	}

	stored := make(map[string]ExternalRecord, len(current))
	for _, rec := range current {
		stored[rec.ID()] = rec
	}

	resp := &PreviewResponse{
		Collection: batch.Collection,
		Headers:    batch.Headers,
		Summary: PreviewSummary{
			TotalRows:   batch.Len(),
			DroppedRows: batch.Dropped,
			Existing:    len(current),
		},
		NewRowSamples:    []RowPreview{},
		UpdateDiffs:      []UpdateDiff{},
		WarningSamples:   []WarningPreview{},
		DuplicateSamples: []DuplicatePreview{},
	}

	lines := make(map[string][]int)
	var order []string
	inFile := make(map[string]bool)

	for i, row := range batch.Rows {
		rec := batch.records[i]
		key := rec.ID()

		if len(row.Warnings) > 0 || len(row.Extra) > 0 {
			resp.Summary.WarningRows++
			if len(resp.WarningSamples) < maxWarningSamples {
				resp.WarningSamples = append(resp.WarningSamples, WarningPreview{
					LineNumber: row.Line,
					RowKey:     key,
					Warnings:   row.Warnings,
					Extra:      row.Extra,
				})
			}
		}

		if key != "" {
			if _, seen := lines[key]; !seen {
				order = append(order, key)
			}
			lines[key] = append(lines[key], row.Line)
			inFile[key] = true
		}

		cur, exists := stored[key]
		if key == "" || !exists {
			resp.Summary.NewRows++
			if len(resp.NewRowSamples) < maxNewRowSamples {
				resp.NewRowSamples = append(resp.NewRowSamples, RowPreview{
					LineNumber: row.Line,
					RowKey:     key,
					Values:     displayValues(def, rec, nil),
				})
			}
			continue
		}

		changed := changedColumns(def, cur, rec)
		if len(changed) == 0 {
			resp.Summary.UnchangedRows++
			continue
		}
		resp.Summary.UpdateRows++
		if len(resp.UpdateDiffs) < maxUpdateDiffs {
			resp.UpdateDiffs = append(resp.UpdateDiffs, UpdateDiff{
				LineNumber: row.Line,
				RowKey:     key,
				Current:    displayValues(def, cur, changed),
				Incoming:   displayValues(def, normalized(def, rec), changed),
				Changed:    changed,
			})
		}
	}

	for _, key := range order {
		if len(lines[key]) < 2 {
			continue
		}
		resp.Summary.DuplicateInFile++
		if len(resp.DuplicateSamples) < maxDuplicateSamples {
			resp.DuplicateSamples = append(resp.DuplicateSamples, DuplicatePreview{
				RowKey:      key,
				LineNumbers: lines[key],
			})
		}
	}

	for id := range stored {
		if !inFile[id] {
			resp.Summary.NotInFile++
		}
	}

	resp.ProcessingTimeMs = time.Since(start).Milliseconds()
	return resp, nil
}

// changedColumns lists the field names a merge would change. Absent
// timestamps are filled at import time and do not count as changes.
func changedColumns(def CollectionDefinition, cur, incoming ExternalRecord) []string {
	next := normalized(def, incoming)

	var changed []string
	for _, spec := range def.FieldSpecs {
		if spec.Column == "id" {
			continue
		}
		if spec.Type == FieldTimestamp {
			if _, present := incoming[spec.Column]; !present {
				continue
			}
		}
		if FormatValue(spec, cur[spec.Column]) != FormatValue(spec, next[spec.Column]) {
			changed = append(changed, spec.Name)
		}
	}
	return changed
}

// normalized applies the collection's default filling to a copy of rec.
func normalized(def CollectionDefinition, rec ExternalRecord) ExternalRecord {
	rec = rec.Clone()
	if def.Normalize != nil {
		rec = def.Normalize(rec)
	}
	return rec
}

// displayValues renders rec as CSV cell text keyed by field name. When only
// is non-nil, just those fields are included; otherwise the present ones.
func displayValues(def CollectionDefinition, rec ExternalRecord, only []string) map[string]string {
	values := make(map[string]string)
	for _, spec := range def.FieldSpecs {
		if only != nil {
			if !containsString(only, spec.Name) {
				continue
			}
		} else if _, present := rec[spec.Column]; !present {
			continue
		}
		values[spec.Name] = FormatValue(spec, rec[spec.Column])
	}
	return values
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
