package handlers

import (
	"net/http"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/agentdesk/agentdesk/internal/agentdata"
	"github.com/agentdesk/agentdesk/internal/toolcatalog"
)

type FormsHandler struct {
	catalog *toolcatalog.Catalog

	once   sync.Once
	schema *jsonschema.Schema
}

func NewFormsHandler(catalog *toolcatalog.Catalog) *FormsHandler {
	return &FormsHandler{catalog: catalog}
}

// AgentSchema serves the JSON Schema of the agent creation form. Tool maps
// are keyed by the catalog ids.
func (h *FormsHandler) AgentSchema(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() { h.schema = agentFormSchema(h.catalog) })
	writeJSON(w, http.StatusOK, h.schema)
}

func agentFormSchema(catalog *toolcatalog.Catalog) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := reflector.Reflect(&agentdata.PrefilledFormValues{})
	s.Title = "Agent"

	if p, ok := s.Properties.Get("tools"); ok {
		p.PropertyNames = &jsonschema.Schema{Enum: toEnum(catalog.WorkspaceIDs())}
	}
	if p, ok := s.Properties.Get("mcpTools"); ok {
		p.PropertyNames = &jsonschema.Schema{Enum: toEnum(catalog.MCPIDs())}
	}

	defaults := map[string]any{
		"model":             agentdata.DefaultModel,
		"temperature":       agentdata.DefaultTemperature,
		"maxTokens":         agentdata.DefaultMaxTokens,
		"memoryType":        agentdata.DefaultMemoryType,
		"reasoningStrategy": agentdata.DefaultReasoningStrategy,
	}
	for name, v := range defaults {
		if p, ok := s.Properties.Get(name); ok {
			p.Default = v
		}
	}
	return s
}

func toEnum(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
