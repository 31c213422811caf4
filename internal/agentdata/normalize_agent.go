package agentdata

import (
	"github.com/agentdesk/agentdesk/internal/toolcatalog"
)

// NormalizeAgentData returns a copy of agent data with google_tools reduced
// to canonical ids, allowed_tools extended with the MCP and Google tool ids,
// and mcp_tools forced to a list. The input map is left untouched. Non-object
// input yields nil.
func NormalizeAgentData(data any) map[string]any {
	obj, ok := asObject(data)
	if !ok {
		return nil
	}

	out := make(map[string]any, len(obj)+3)
	for k, v := range obj {
		out[k] = v
	}

	googleTools := toolcatalog.NormalizeGoogleTools(obj["google_tools"])
	mcpTools := stringEntries(obj["mcp_tools"])

	allowed := newOrderedSet()
	allowed.add(stringEntries(obj["allowed_tools"])...)
	allowed.add(mcpTools...)
	allowed.add(googleTools...)

	out["google_tools"] = toAnyList(googleTools)
	out["allowed_tools"] = toAnyList(allowed.items)
	out["mcp_tools"] = toAnyList(mcpTools)
	return out
}

func toAnyList(ids []string) []any {
	list := make([]any, len(ids))
	for i, id := range ids {
		list[i] = id
	}
	return list
}
