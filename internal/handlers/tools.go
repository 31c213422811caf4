package handlers

import (
	"net/http"
	"strings"

	"github.com/agentdesk/agentdesk/internal/toolcatalog"
)

type ToolsHandler struct {
	catalog *toolcatalog.Catalog
}

func NewToolsHandler(catalog *toolcatalog.Catalog) *ToolsHandler {
	return &ToolsHandler{catalog: catalog}
}

// Workspace lists the workspace tool catalog, optionally filtered by an id
// prefix such as "gmail_".
func (h *ToolsHandler) Workspace(w http.ResponseWriter, r *http.Request) {
	tools := h.catalog.WorkspaceTools()
	if prefix := strings.TrimSpace(r.URL.Query().Get("prefix")); prefix != "" {
		filtered := tools[:0]
		for _, t := range tools {
			if strings.HasPrefix(t.ID, prefix) {
				filtered = append(filtered, t)
			}
		}
		tools = filtered
	}
	writeJSON(w, http.StatusOK, tools)
}

func (h *ToolsHandler) MCP(w http.ResponseWriter, r *http.Request) {
	tools := h.catalog.MCPTools()
	if tools == nil {
		tools = []toolcatalog.MCPTool{}
	}
	writeJSON(w, http.StatusOK, tools)
}

func (h *ToolsHandler) Aliases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toolcatalog.Aliases())
}

// Normalize reduces a raw google_tools value to canonical tool ids.
func (h *ToolsHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GoogleTools any `json:"google_tools"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"tools": toolcatalog.NormalizeGoogleTools(req.GoogleTools),
	})
}
