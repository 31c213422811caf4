package toolcatalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed data/mcp-tools.json
var dataFS embed.FS

// WorkspaceTool is a Google Workspace capability the agent form can toggle.
type WorkspaceTool struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// MCPTool is an auxiliary tool from the MCP catalog. Only ID takes part in
// tool extraction; the rest is display data.
type MCPTool struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
}

var workspaceTools = []WorkspaceTool{
	{ID: "gmail_send_message", Name: "Send email", Category: "gmail", Description: "Send an email from the connected Gmail account."},
	{ID: "gmail_get_message", Name: "Read email", Category: "gmail", Description: "Read a single email by id."},
	{ID: "gmail_list_messages", Name: "List emails", Category: "gmail", Description: "List or search emails in the inbox."},
	{ID: "gmail_create_draft", Name: "Create draft", Category: "gmail", Description: "Save an email as a draft."},
	{ID: "google_calendar_create_event", Name: "Create event", Category: "calendar", Description: "Create a calendar event."},
	{ID: "google_calendar_list_events", Name: "List events", Category: "calendar", Description: "List upcoming calendar events."},
	{ID: "google_calendar_get_event", Name: "Get event", Category: "calendar", Description: "Read a calendar event."},
	{ID: "google_calendar_update_event", Name: "Update event", Category: "calendar", Description: "Change an existing calendar event."},
	{ID: "google_calendar_delete_event", Name: "Delete event", Category: "calendar", Description: "Remove a calendar event."},
	{ID: "google_docs_create_document", Name: "Create document", Category: "docs", Description: "Create a Google Doc."},
	{ID: "google_docs_get_document", Name: "Read document", Category: "docs", Description: "Read the content of a Google Doc."},
	{ID: "google_docs_list_documents", Name: "List documents", Category: "docs", Description: "List Google Docs."},
	{ID: "google_docs_append_text", Name: "Append text", Category: "docs", Description: "Append text to a Google Doc."},
	{ID: "google_docs_update_text", Name: "Update text", Category: "docs", Description: "Replace text in a Google Doc."},
	{ID: "google_docs_delete_document", Name: "Delete document", Category: "docs", Description: "Delete a Google Doc."},
	{ID: "google_sheets_create_spreadsheet", Name: "Create spreadsheet", Category: "sheets", Description: "Create a Google Sheet."},
	{ID: "google_sheets_get_values", Name: "Read values", Category: "sheets", Description: "Read a range of cells."},
	{ID: "google_sheets_update_values", Name: "Write values", Category: "sheets", Description: "Write a range of cells."},
	{ID: "google_sheets_append_values", Name: "Append rows", Category: "sheets", Description: "Append rows to a sheet."},
	{ID: "google_sheets_list_spreadsheets", Name: "List spreadsheets", Category: "sheets", Description: "List Google Sheets."},
}

// Catalog holds both tool catalogs. It is built once at startup and never
// modified afterwards, so it is safe for concurrent use.
type Catalog struct {
	workspace []WorkspaceTool
	mcp       []MCPTool
	mcpSet    map[string]bool
}

// Load builds the catalog. An empty path uses the embedded MCP catalog;
// otherwise the file at path is read from fsys as JSON, or YAML when the
// extension is .yaml or .yml.
func Load(fsys afero.Fs, path string) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = dataFS.ReadFile("data/mcp-tools.json")
	} else {
		data, err = afero.ReadFile(fsys, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read mcp catalog: %w", err)
	}

	var tools []MCPTool
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &tools)
	default:
		err = json.Unmarshal(data, &tools)
	}
	if err != nil {
		return nil, fmt.Errorf("parse mcp catalog: %w", err)
	}
	return New(tools), nil
}

// MustDefault returns the catalog built from the embedded MCP data.
func MustDefault() *Catalog {
	c, err := Load(nil, "")
	if err != nil {
		panic(err)
	}
	return c
}

// New builds a catalog from an MCP tool list. Entries without an id and
// repeated ids are skipped.
func New(mcp []MCPTool) *Catalog {
	c := &Catalog{
		workspace: workspaceTools,
		mcpSet:    make(map[string]bool, len(mcp)),
	}
	for _, t := range mcp {
		id := strings.TrimSpace(t.ID)
		if id == "" || c.mcpSet[id] {
			continue
		}
		t.ID = id
		c.mcpSet[id] = true
		c.mcp = append(c.mcp, t)
	}
	return c
}

func (c *Catalog) WorkspaceTools() []WorkspaceTool {
	return append([]WorkspaceTool(nil), c.workspace...)
}

func (c *Catalog) MCPTools() []MCPTool {
	return append([]MCPTool(nil), c.mcp...)
}

func (c *Catalog) WorkspaceIDs() []string {
	ids := make([]string, len(c.workspace))
	for i, t := range c.workspace {
		ids[i] = t.ID
	}
	return ids
}

func (c *Catalog) MCPIDs() []string {
	ids := make([]string, len(c.mcp))
	for i, t := range c.mcp {
		ids[i] = t.ID
	}
	return ids
}

// IsMCP reports whether id is in the MCP catalog.
func (c *Catalog) IsMCP(id string) bool {
	return c.mcpSet[id]
}

// WorkspaceWithPrefix returns the workspace ids starting with prefix.
func (c *Catalog) WorkspaceWithPrefix(prefix string) []string {
	var ids []string
	for _, t := range c.workspace {
		if strings.HasPrefix(t.ID, prefix) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
