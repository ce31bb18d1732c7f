package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/JonMunkholm/registers/internal/auth"
	"github.com/JonMunkholm/registers/internal/core"
)

// maxJSONBody bounds form submissions.
const maxJSONBody = 1 << 20

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and other fields.
const multipartOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleSession returns the verified session behind the request.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		s.fail(w, r, auth.ErrSessionRequired)
		return
	}
	writeJSON(w, sess)
}

// StatusResponse reports cache and import state.
type StatusResponse struct {
	Collections []core.CollectionInfo       `json:"collections"`
	Caches      map[string]core.CacheStatus `json:"caches"`
	Imports     core.ImportLimiterStatus    `json:"imports"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusResponse{
		Collections: s.service.Collections(),
		Caches:      s.service.CacheStatus(),
		Imports:     s.service.ImportLimiterStatus(),
	})
}

// OptionsResponse lists the values the entry forms offer.
type OptionsResponse struct {
	Owners             []string `json:"owners"`
	ActionStatuses     []string `json:"actionStatuses"`
	ActionCategories   []string `json:"actionCategories"`
	RegisterStatuses   []string `json:"registerStatuses"`
	RegisterCategories []string `json:"registerCategories"`
	RegisterTypes      []string `json:"registerTypes"`
	Priorities         []string `json:"priorities"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, OptionsResponse{
		Owners:             s.service.Owners(),
		ActionStatuses:     core.ActionStatuses,
		ActionCategories:   core.ActionCategories,
		RegisterStatuses:   core.RegisterStatuses,
		RegisterCategories: core.RegisterCategories,
		RegisterTypes:      core.RegisterTypes,
		Priorities:         core.Priorities,
	})
}

// statusRequest is the body of a status change.
type statusRequest struct {
	Status string `json:"status"`
}

// decodeJSON reads a bounded JSON body into v. Unknown fields such as the
// derived overdue flag are ignored; malformed bodies are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return &core.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// readUpload returns the uploaded CSV. Multipart forms carry it in the
// "file" field; a text/csv body is read as is.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	maxSize := s.cfg.Import.MaxFileSize
	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return s.service.ReadImportFile(r.Body)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
		}
		return nil, &core.ValidationError{Field: "file", Message: "invalid upload form"}
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, &core.ValidationError{Field: "file", Message: "no file provided"}
	}
	defer file.Close()

	return s.service.ReadImportFile(file)
}

// importMode reads the mode from the query string or the upload form.
func importMode(r *http.Request) (core.ImportMode, error) {
	mode := r.URL.Query().Get("mode")
	if mode == "" && r.MultipartForm != nil {
		mode = r.FormValue("mode")
	}
	return core.ParseImportMode(strings.ToLower(strings.TrimSpace(mode)))
}

// sendDownload renders into a buffer first so a failure still produces a
// proper error response, then sends it as an attachment.
func (s *Server) sendDownload(w http.ResponseWriter, r *http.Request, contentType, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// writeImportResult responds with the reconciliation outcome. A result with
// store or refresh errors is a server error but still carries its counts.
func (s *Server) writeImportResult(w http.ResponseWriter, r *http.Request, result *core.ImportResult) {
	if !result.OK() {
		s.logError(r, result.Err(), http.StatusInternalServerError)
		writeJSONStatus(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, result)
}
