package web

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/registers/internal/core"
	"github.com/JonMunkholm/registers/internal/report"
)

// ActionView is an action with its derived overdue flag.
type ActionView struct {
	core.ActionEntry
	Overdue bool `json:"overdue"`
}

// ActionDetail adds the resolved constitution rules to an action.
type ActionDetail struct {
	ActionView
	Rules []core.ActionEntry `json:"rules"`
}

// ActionsResponse is the list endpoint payload. Counts cover the whole log.
type ActionsResponse struct {
	Entries []ActionView      `json:"entries"`
	Counts  core.ActionCounts `json:"counts"`
}

// SeedResponse reports the rules added by a seed request.
type SeedResponse struct {
	Added int                `json:"added"`
	Rules []core.ActionEntry `json:"rules"`
}

func actionViews(entries []core.ActionEntry, now time.Time) []ActionView {
	views := make([]ActionView, len(entries))
	for i, e := range entries {
		views[i] = ActionView{ActionEntry: e, Overdue: e.Overdue(now)}
	}
	return views
}

// actionFilter reads status, owner, category and q from the query string.
func actionFilter(r *http.Request) core.ActionFilter {
	q := r.URL.Query()
	return core.ActionFilter{
		Status:   q.Get("status"),
		Owner:    q.Get("owner"),
		Category: q.Get("category"),
		Search:   q.Get("q"),
	}
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := s.service.ListActions(ctx, actionFilter(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	counts, err := s.service.ActionCounts(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, ActionsResponse{
		Entries: actionViews(entries, s.service.Now()),
		Counts:  counts,
	})
}

func (s *Server) handleGetAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	e, err := s.service.GetAction(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rules, err := s.service.LinkedRules(ctx, e)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if rules == nil {
		rules = []core.ActionEntry{}
	}

	writeJSON(w, ActionDetail{
		ActionView: ActionView{ActionEntry: e, Overdue: e.Overdue(s.service.Now())},
		Rules:      rules,
	})
}

func (s *Server) handleCreateAction(w http.ResponseWriter, r *http.Request) {
	var draft core.ActionEntry
	if err := decodeJSON(w, r, &draft); err != nil {
		s.fail(w, r, err)
		return
	}

	created, err := s.service.CreateAction(r.Context(), draft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, ActionView{ActionEntry: created, Overdue: created.Overdue(s.service.Now())})
}

func (s *Server) handleUpdateAction(w http.ResponseWriter, r *http.Request) {
	var e core.ActionEntry
	if err := decodeJSON(w, r, &e); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.service.UpdateAction(r.Context(), chi.URLParam(r, "id"), e)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, ActionView{ActionEntry: updated, Overdue: updated.Overdue(s.service.Now())})
}

func (s *Server) handleSetActionStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.service.SetActionStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, ActionView{ActionEntry: updated, Overdue: updated.Overdue(s.service.Now())})
}

func (s *Server) handleDeleteAction(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteAction(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConstitutionRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.service.ConstitutionRules(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, rules)
}

func (s *Server) handleSeedRules(w http.ResponseWriter, r *http.Request) {
	added, err := s.service.SeedConstitutionRules(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if added == nil {
		added = []core.ActionEntry{}
	}
	writeJSON(w, SeedResponse{Added: len(added), Rules: added})
}

// handleExportActions downloads the full log as a CSV backup.
func (s *Server) handleExportActions(w http.ResponseWriter, r *http.Request) {
	s.sendDownload(w, r, "text/csv; charset=utf-8", s.service.ActionsExportFilename(), func(out io.Writer) error {
		return s.service.WriteActionsCSV(r.Context(), out)
	})
}

// handleActionsReport downloads the HTML report. Query filters select the
// cards; the stat tiles always cover every action.
func (s *Server) handleActionsReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	all, err := s.service.Actions(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var filtered []core.ActionEntry
	if f := actionFilter(r); !f.IsZero() {
		if filtered, err = s.service.ListActions(ctx, f); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	opts := s.reportOptions()
	s.sendDownload(w, r, "text/html; charset=utf-8", s.service.ActionsReportFilename(), func(out io.Writer) error {
		return report.ActionsLog(opts, all, filtered).Render(ctx, out)
	})
}

func (s *Server) handlePreviewActions(w http.ResponseWriter, r *http.Request) {
	data, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	batch, err := core.ParseActionsCSV(data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	preview, err := s.service.PreviewActionsImport(r.Context(), batch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, preview)
}

func (s *Server) handleImportActions(w http.ResponseWriter, r *http.Request) {
	data, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	mode, err := importMode(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	batch, err := core.ParseActionsCSV(data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, cancel := s.importContext(r)
	defer cancel()

	result, err := s.service.ImportActions(ctx, batch, mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeImportResult(w, r, result)
}

func (s *Server) reportOptions() report.Options {
	return report.Options{OrgName: s.cfg.Registers.OrgName, Now: s.service.Now()}
}

// importContext bounds an import by IMPORT_TIMEOUT.
func (s *Server) importContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.cfg.Import.Timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
}
