package web

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/registers/internal/core"
	"github.com/JonMunkholm/registers/internal/report"
)

// RegisterResponse is the list endpoint payload. Counts cover the whole
// register.
type RegisterResponse struct {
	Entries []core.RegisterEntry `json:"entries"`
	Counts  core.RegisterCounts  `json:"counts"`
}

// registerFilter reads type, status, category and q from the query string.
func registerFilter(r *http.Request) core.RegisterFilter {
	q := r.URL.Query()
	return core.RegisterFilter{
		Type:     q.Get("type"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Search:   q.Get("q"),
	}
}

func (s *Server) handleListRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := s.service.ListRegister(ctx, registerFilter(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	counts, err := s.service.RegisterCounts(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.RegisterEntry{}
	}

	writeJSON(w, RegisterResponse{Entries: entries, Counts: counts})
}

func (s *Server) handleGetRegisterEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.GetRegisterEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, e)
}

func (s *Server) handleCreateRegisterEntry(w http.ResponseWriter, r *http.Request) {
	var draft core.RegisterEntry
	if err := decodeJSON(w, r, &draft); err != nil {
		s.fail(w, r, err)
		return
	}

	created, err := s.service.CreateRegisterEntry(r.Context(), draft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateRegisterEntry(w http.ResponseWriter, r *http.Request) {
	var e core.RegisterEntry
	if err := decodeJSON(w, r, &e); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.service.UpdateRegisterEntry(r.Context(), chi.URLParam(r, "id"), e)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, updated)
}

func (s *Server) handleSetRegisterStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.service.SetRegisterStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, updated)
}

func (s *Server) handleDeleteRegisterEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRegisterEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	s.sendDownload(w, r, "text/csv; charset=utf-8", s.service.RegisterExportFilename(), func(out io.Writer) error {
		return s.service.WriteRegisterCSV(r.Context(), out)
	})
}

func (s *Server) handleRegisterReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	all, err := s.service.RegisterEntries(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var filtered []core.RegisterEntry
	if f := registerFilter(r); !f.IsZero() {
		if filtered, err = s.service.ListRegister(ctx, f); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	opts := s.reportOptions()
	s.sendDownload(w, r, "text/html; charset=utf-8", s.service.RegisterReportFilename(), func(out io.Writer) error {
		return report.IdeasIssuesRegister(opts, all, filtered).Render(ctx, out)
	})
}

func (s *Server) handlePreviewRegister(w http.ResponseWriter, r *http.Request) {
	data, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	batch, err := core.ParseRegisterCSV(data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	preview, err := s.service.PreviewRegisterImport(r.Context(), batch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, preview)
}

func (s *Server) handleImportRegister(w http.ResponseWriter, r *http.Request) {
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
	batch, err := core.ParseRegisterCSV(data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, cancel := s.importContext(r)
	defer cancel()

	result, err := s.service.ImportRegister(ctx, batch, mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeImportResult(w, r, result)
}
