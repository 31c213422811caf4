package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentdesk/agentdesk/internal/templates"
)

type TemplatesHandler struct{}

func NewTemplatesHandler() *TemplatesHandler {
	return &TemplatesHandler{}
}

func (h *TemplatesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := templates.LoadRegistry()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load templates")
		return
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := []templates.Template{}
		for _, t := range list {
			if t.Category == category {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *TemplatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := templates.Get(chi.URLParam(r, "id"))
	if errors.Is(err, templates.ErrNotFound) {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load templates")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TemplatesHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := templates.Categories()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load templates")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}
