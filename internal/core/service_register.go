package core

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

const defaultRegisterCategory = "Strategy"

// ListRegister returns the register entries matching filter, newest first.
func (s *Service) ListRegister(ctx context.Context, filter RegisterFilter) ([]RegisterEntry, error) {
	all, err := s.RegisterEntries(ctx)
	if err != nil {
		return nil, err
	}
	if filter.IsZero() {
		return all, nil
	}
	out := make([]RegisterEntry, 0, len(all))
	for _, e := range all {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// RegisterEntries returns every register entry, newest first.
func (s *Service) RegisterEntries(ctx context.Context) ([]RegisterEntry, error) {
	if err := s.register.Ensure(ctx); err != nil {
		return nil, err
	}
	return s.register.Items(), nil
}

// GetRegisterEntry returns the entry with id.
func (s *Service) GetRegisterEntry(ctx context.Context, id string) (RegisterEntry, error) {
	all, err := s.RegisterEntries(ctx)
	if err != nil {
		return RegisterEntry{}, err
	}
	for _, e := range all {
		if e.ID == id {
			return e, nil
		}
	}
	return RegisterEntry{}, fmt.Errorf("register entry %s: %w", id, ErrNotFound)
}

// CreateRegisterEntry adds an idea or issue. Empty type, category, status and
// priority get the form defaults.
func (s *Service) CreateRegisterEntry(ctx context.Context, draft RegisterEntry) (RegisterEntry, error) {
	draft = applyRegisterDefaults(draft)
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Tags = CleanList(draft.Tags)

	if err := s.registerValidator.Validate(registerFormRecord(draft)); err != nil {
		return RegisterEntry{}, err
	}

	now := s.now()
	draft.ID = uuid.NewString()
	draft.CreatedAt = now
	draft.UpdatedAt = now

	if err := s.store.Insert(ctx, RegisterKey, draft.External()); err != nil {
		return RegisterEntry{}, storeErr("insert", RegisterKey, err)
	}
	logMutation(ctx, RegisterKey, "create", draft.ID)
	afterWrite(ctx, s.register, RegisterKey, "create")

	return draft, nil
}

// UpdateRegisterEntry overwrites the editable fields of an entry and bumps
// updatedAt.
func (s *Service) UpdateRegisterEntry(ctx context.Context, id string, e RegisterEntry) (RegisterEntry, error) {
	e.Title = strings.TrimSpace(e.Title)
	e.Tags = CleanList(e.Tags)

	fields := registerFormRecord(e)
	if err := s.registerValidator.Validate(fields); err != nil {
		return RegisterEntry{}, err
	}
	fields["updated_at"] = s.now()

	if err := s.store.Update(ctx, RegisterKey, id, fields); err != nil {
		return RegisterEntry{}, storeErr("update", RegisterKey, err)
	}
	logMutation(ctx, RegisterKey, "update", id)
	afterWrite(ctx, s.register, RegisterKey, "update")

	return s.GetRegisterEntry(ctx, id)
}

// SetRegisterStatus changes only the status of an entry.
func (s *Service) SetRegisterStatus(ctx context.Context, id, status string) (RegisterEntry, error) {
	if status == "" {
		return RegisterEntry{}, &ValidationError{Field: "status", Message: "required field is empty"}
	}
	if err := ValidateEnum("status", status, RegisterStatuses); err != nil {
		return RegisterEntry{}, err
	}

	fields := ExternalRecord{"status": status, "updated_at": s.now()}
	if err := s.store.Update(ctx, RegisterKey, id, fields); err != nil {
		return RegisterEntry{}, storeErr("update", RegisterKey, err)
	}
	logMutation(ctx, RegisterKey, "status", id)
	afterWrite(ctx, s.register, RegisterKey, "status")

	return s.GetRegisterEntry(ctx, id)
}

// DeleteRegisterEntry removes an entry.
func (s *Service) DeleteRegisterEntry(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, RegisterKey, id); err != nil {
		return storeErr("delete", RegisterKey, err)
	}
	logMutation(ctx, RegisterKey, "delete", id)
	afterWrite(ctx, s.register, RegisterKey, "delete")
	return nil
}

// RegisterCounts summarizes the whole register.
func (s *Service) RegisterCounts(ctx context.Context) (RegisterCounts, error) {
	all, err := s.RegisterEntries(ctx)
	if err != nil {
		return RegisterCounts{}, err
	}
	return CountRegister(all), nil
}

// ImportRegister commits a parsed batch in the given mode.
func (s *Service) ImportRegister(ctx context.Context, batch *ImportBatch[RegisterEntry], mode ImportMode) (*ImportResult, error) {
	if batch == nil {
		return nil, ErrEmptyImport
	}
	return s.runImport(ctx, RegisterKey, batch.Records(), mode, s.register.Refresh)
}

// WriteRegisterCSV writes every register entry as CSV in store order.
func (s *Service) WriteRegisterCSV(ctx context.Context, w io.Writer) error {
	all, err := s.RegisterEntries(ctx)
	if err != nil {
		return err
	}
	def, err := Lookup(RegisterKey)
	if err != nil {
		return err
	}
	recs := make([]ExternalRecord, len(all))
	for i, e := range all {
		recs[i] = e.External()
	}
	return WriteCSV(w, def, recs)
}

// RegisterExportFilename is the download name of today's CSV backup.
func (s *Service) RegisterExportFilename() string {
	def, _ := Get(RegisterKey)
	return ExportFilename(def.Info.ExportLabel, s.now(), "csv")
}

// RegisterReportFilename is the download name of today's HTML report.
func (s *Service) RegisterReportFilename() string {
	def, _ := Get(RegisterKey)
	return ExportFilename(def.Info.ReportLabel, s.now(), "html")
}

// ParseTags splits a comma separated tag field as typed in the form.
func ParseTags(s string) []string {
	return CleanList(strings.Split(s, ","))
}

func applyRegisterDefaults(e RegisterEntry) RegisterEntry {
	if e.Type == "" {
		e.Type = TypeIdea
	}
	if e.Category == "" {
		e.Category = defaultRegisterCategory
	}
	if e.Status == "" {
		e.Status = StatusOpen
	}
	if e.Priority == "" {
		e.Priority = PriorityMedium
	}
	return e
}

// registerFormRecord is the store shape of the fields a form may edit.
func registerFormRecord(e RegisterEntry) ExternalRecord {
	return ExternalRecord{
		"type":        e.Type,
		"title":       e.Title,
		"description": e.Description,
		"category":    e.Category,
		"status":      e.Status,
		"priority":    e.Priority,
		"tags":        nonNilList(e.Tags),
	}
}
