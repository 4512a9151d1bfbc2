// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kusari-oss/stencil/internal/core/draft"
	"github.com/kusari-oss/stencil/internal/core/editor"
	"github.com/kusari-oss/stencil/internal/core/transcode"
	"github.com/kusari-oss/stencil/internal/core/validator"
)

// draftResponse is a saved draft with the validation of its template.
type draftResponse struct {
	*draft.Draft
	Issues  []validator.Issue `json:"issues"`
	Summary validator.Summary `json:"summary"`
}

func (s *Server) draftRoutes(r chi.Router) {
	r.Get("/", s.listDrafts)
	r.Route("/{name}", func(r chi.Router) {
		r.Get("/", s.getDraft)
		r.Put("/", s.putDraft)
		r.Delete("/", s.deleteDraft)
		r.Get("/template", s.draftTemplate)
		r.Post("/commands", s.applyCommands)
	})
}

func (s *Server) listDrafts(w http.ResponseWriter, r *http.Request) {
	names, err := s.drafts.List(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"drafts": names})
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadDraft(w, r)
	if !ok {
		return
	}
	s.respondDraft(w, r, d)
}

// putDraft opens a new session on the YAML template in the body,
// replacing any draft of the same name.
func (s *Server) putDraft(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	t, err := transcode.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.saveDraft(w, r, editor.NewState(t))
}

func (s *Server) deleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.drafts.Clear(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) draftTemplate(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadDraft(w, r)
	if !ok {
		return
	}
	out, err := transcode.Encode(d.State.Template)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(out)
}

// applyCommands runs a JSON command list against a draft and saves the
// result. Commands that do not apply leave the state unchanged.
func (s *Server) applyCommands(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	cmds, err := editor.DecodeCommands(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, ok := s.loadDraft(w, r)
	if !ok {
		return
	}
	s.saveDraft(w, r, editor.ReduceAll(d.State, cmds...))
}

func (s *Server) loadDraft(w http.ResponseWriter, r *http.Request) (*draft.Draft, bool) {
	name := chi.URLParam(r, "name")
	d, found, err := s.drafts.Get(r.Context(), name)
	if err != nil {
		s.storeError(w, err)
		return nil, false
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No draft named %q", name))
		return nil, false
	}
	return d, true
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request, state editor.State) {
	name := chi.URLParam(r, "name")
	if err := s.drafts.Set(r.Context(), name, state); err != nil {
		s.storeError(w, err)
		return
	}
	d, found, err := s.drafts.Get(r.Context(), name)
	if err == nil && !found {
		err = errors.New("draft vanished after save")
	}
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.respondDraft(w, r, d)
}

func (s *Server) respondDraft(w http.ResponseWriter, r *http.Request, d *draft.Draft) {
	idx, err := s.actions.Load(r.Context())
	if err != nil {
		s.logger.Error("failed to load actions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load actions")
		return
	}
	issues := validator.Validate(d.State.Template, idx)
	if issues == nil {
		issues = []validator.Issue{}
	}
	writeJSON(w, http.StatusOK, draftResponse{Draft: d, Issues: issues, Summary: validator.GetSummary(issues)})
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	s.logger.Error("draft store failure", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "draft store failure")
}
