package core

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Form defaults for new actions.
const (
	defaultActionCategory      = "Strategy"
	defaultConstitutionMeeting = "Constitution"
)

// ListActions returns the actions matching filter, newest first.
func (s *Service) ListActions(ctx context.Context, filter ActionFilter) ([]ActionEntry, error) {
	all, err := s.Actions(ctx)
	if err != nil {
		return nil, err
	}
	if filter.IsZero() {
		return all, nil
	}
	out := make([]ActionEntry, 0, len(all))
	for _, e := range all {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Actions returns every action, newest first. The cache is loaded on first
// use; afterwards the last good contents are served.
func (s *Service) Actions(ctx context.Context) ([]ActionEntry, error) {
	if err := s.actions.Ensure(ctx); err != nil {
		return nil, err
	}
	return s.actions.Items(), nil
}

// GetAction returns the action with id.
func (s *Service) GetAction(ctx context.Context, id string) (ActionEntry, error) {
	all, err := s.Actions(ctx)
	if err != nil {
		return ActionEntry{}, err
	}
	for _, e := range all {
		if e.ID == id {
			return e, nil
		}
	}
	return ActionEntry{}, fmt.Errorf("action %s: %w", id, ErrNotFound)
}

// CreateAction adds an action. The id, num and timestamps are assigned here;
// empty category, priority, status and owner get the form defaults.
func (s *Service) CreateAction(ctx context.Context, draft ActionEntry) (ActionEntry, error) {
	draft = applyActionDefaults(draft)
	draft.Action = strings.TrimSpace(draft.Action)
	draft.DueDate = NormalizeDate(strings.TrimSpace(draft.DueDate))
	draft.LinkedRules = CleanList(draft.LinkedRules)

	if err := s.actionValidator.Validate(actionFormRecord(draft)); err != nil {
		return ActionEntry{}, err
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	// Numbering needs the current collection, not a possibly stale cache.
	if err := s.actions.Refresh(ctx); err != nil {
		return ActionEntry{}, err
	}

	now := s.now()
	draft.ID = uuid.NewString()
	draft.Num = maxActionNum(s.actions.Items()) + 1
	draft.CreatedAt = now
	draft.UpdatedAt = now

	if err := s.store.Insert(ctx, ActionsKey, draft.External()); err != nil {
		return ActionEntry{}, storeErr("insert", ActionsKey, err)
	}
	logMutation(ctx, ActionsKey, "create", draft.ID)
	afterWrite(ctx, s.actions, ActionsKey, "create")

	return draft, nil
}

// UpdateAction overwrites the editable fields of an action and bumps
// updatedAt. Id, num and createdAt are kept.
func (s *Service) UpdateAction(ctx context.Context, id string, e ActionEntry) (ActionEntry, error) {
	if e.Owner == "" {
		e.Owner = OwnerUnassigned
	}
	e.DueDate = NormalizeDate(strings.TrimSpace(e.DueDate))
	e.LinkedRules = CleanList(e.LinkedRules)

	fields := actionFormRecord(e)
	if err := s.actionValidator.Validate(fields); err != nil {
		return ActionEntry{}, err
	}
	fields["updated_at"] = s.now()

	if err := s.store.Update(ctx, ActionsKey, id, fields); err != nil {
		return ActionEntry{}, storeErr("update", ActionsKey, err)
	}
	logMutation(ctx, ActionsKey, "update", id)
	afterWrite(ctx, s.actions, ActionsKey, "update")

	return s.GetAction(ctx, id)
}

// SetActionStatus changes only the status of an action.
func (s *Service) SetActionStatus(ctx context.Context, id, status string) (ActionEntry, error) {
	if status == "" {
		return ActionEntry{}, &ValidationError{Field: "status", Message: "required field is empty"}
	}
	if err := ValidateEnum("status", status, ActionStatuses); err != nil {
		return ActionEntry{}, err
	}

	fields := ExternalRecord{"status": status, "updated_at": s.now()}
	if err := s.store.Update(ctx, ActionsKey, id, fields); err != nil {
		return ActionEntry{}, storeErr("update", ActionsKey, err)
	}
	logMutation(ctx, ActionsKey, "status", id)
	afterWrite(ctx, s.actions, ActionsKey, "status")

	return s.GetAction(ctx, id)
}

// DeleteAction removes an action. Links to it from other actions are left in
// place and dropped when resolved.
func (s *Service) DeleteAction(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, ActionsKey, id); err != nil {
		return storeErr("delete", ActionsKey, err)
	}
	logMutation(ctx, ActionsKey, "delete", id)
	afterWrite(ctx, s.actions, ActionsKey, "delete")
	return nil
}

// ConstitutionRules returns the governance rule actions in num order.
func (s *Service) ConstitutionRules(ctx context.Context) ([]ActionEntry, error) {
	all, err := s.Actions(ctx)
	if err != nil {
		return nil, err
	}
	return constitutionRulesOf(all), nil
}

// LinkedRules resolves an action's linked rule ids in link order. Ids that
// no longer name a constitution rule are skipped.
func (s *Service) LinkedRules(ctx context.Context, e ActionEntry) ([]ActionEntry, error) {
	all, err := s.Actions(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveLinkedRules(e, all), nil
}

// ResolveLinkedRules looks up e's linked rules among entries.
func ResolveLinkedRules(e ActionEntry, entries []ActionEntry) []ActionEntry {
	if len(e.LinkedRules) == 0 {
		return nil
	}
	byID := make(map[string]ActionEntry, len(entries))
	for _, r := range entries {
		if r.Category == CategoryConstitutionRule {
			byID[r.ID] = r
		}
	}
	out := make([]ActionEntry, 0, len(e.LinkedRules))
	for _, id := range e.LinkedRules {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ActionCounts summarizes the whole action log as of now.
func (s *Service) ActionCounts(ctx context.Context) (ActionCounts, error) {
	all, err := s.Actions(ctx)
	if err != nil {
		return ActionCounts{}, err
	}
	return CountActions(all, s.now()), nil
}

// SeedConstitutionRules adds the governance rules as Done actions numbered
// after the current maximum. Rules whose title already exists as a
// constitution rule are skipped. The added entries are returned.
func (s *Service) SeedConstitutionRules(ctx context.Context) ([]ActionEntry, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	if err := s.actions.Refresh(ctx); err != nil {
		return nil, err
	}
	current := s.actions.Items()

	existing := make(map[string]bool)
	for _, r := range constitutionRulesOf(current) {
		existing[r.Action] = true
	}

	now := s.now()
	base := maxActionNum(current)
	var added []ActionEntry
	var recs []ExternalRecord
	for i, rule := range constitutionRules {
		if existing[rule.Action] {
			continue
		}
		e := ActionEntry{
			ID:          fmt.Sprintf("constitution-%d-%d", now.UnixMilli(), i),
			Num:         base + len(added) + 1,
			Action:      rule.Action,
			Decision:    rule.Decision,
			Owner:       s.ruleOwner,
			Category:    CategoryConstitutionRule,
			Priority:    rule.Priority,
			Status:      StatusDone,
			Meeting:     defaultConstitutionMeeting,
			Notes:       rule.Notes,
			LinkedRules: []string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		added = append(added, e)
		recs = append(recs, e.External())
	}
	if len(recs) == 0 {
		return nil, nil
	}

	if err := s.store.Insert(ctx, ActionsKey, recs...); err != nil {
		return nil, storeErr("insert", ActionsKey, err)
	}
	logMutation(ctx, ActionsKey, "seed", fmt.Sprintf("%d rules", len(added)))
	afterWrite(ctx, s.actions, ActionsKey, "seed")

	return added, nil
}

// ImportActions commits a parsed batch in the given mode.
func (s *Service) ImportActions(ctx context.Context, batch *ImportBatch[ActionEntry], mode ImportMode) (*ImportResult, error) {
	if batch == nil {
		return nil, ErrEmptyImport
	}
	return s.runImport(ctx, ActionsKey, batch.Records(), mode, s.actions.Refresh)
}

// WriteActionsCSV writes every action as CSV in store order.
func (s *Service) WriteActionsCSV(ctx context.Context, w io.Writer) error {
	all, err := s.Actions(ctx)
	if err != nil {
		return err
	}
	def, err := Lookup(ActionsKey)
	if err != nil {
		return err
	}
	recs := make([]ExternalRecord, len(all))
	for i, e := range all {
		recs[i] = e.External()
	}
	return WriteCSV(w, def, recs)
}

// ActionsExportFilename is the download name of today's CSV backup.
func (s *Service) ActionsExportFilename() string {
	def, _ := Get(ActionsKey)
	return ExportFilename(def.Info.ExportLabel, s.now(), "csv")
}

// ActionsReportFilename is the download name of today's HTML report.
func (s *Service) ActionsReportFilename() string {
	def, _ := Get(ActionsKey)
	return ExportFilename(def.Info.ReportLabel, s.now(), "html")
}

func applyActionDefaults(e ActionEntry) ActionEntry {
	if e.Category == "" {
		e.Category = defaultActionCategory
	}
	if e.Priority == "" {
		e.Priority = PriorityMedium
	}
	if e.Status == "" {
		e.Status = StatusNotStarted
	}
	if e.Owner == "" {
		e.Owner = OwnerUnassigned
	}
	return e
}

// actionFormRecord is the store shape of the fields a form may edit.
func actionFormRecord(e ActionEntry) ExternalRecord {
	return ExternalRecord{
		"action":       strings.TrimSpace(e.Action),
		"decision":     e.Decision,
		"owner":        e.Owner,
		"category":     e.Category,
		"priority":     e.Priority,
		"status":       e.Status,
		"due_date":     e.DueDate,
		"meeting":      e.Meeting,
		"notes":        e.Notes,
		"linked_rules": nonNilList(e.LinkedRules),
	}
}

func maxActionNum(entries []ActionEntry) int {
	n := 0
	for _, e := range entries {
		n = max(n, e.Num)
	}
	return n
}

func constitutionRulesOf(entries []ActionEntry) []ActionEntry {
	var rules []ActionEntry
	for _, e := range entries {
		if e.Category == CategoryConstitutionRule {
			rules = append(rules, e)
		}
	}
	slices.SortStableFunc(rules, func(a, b ActionEntry) int { return a.Num - b.Num })
	return rules
}
