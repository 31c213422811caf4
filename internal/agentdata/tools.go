package agentdata

import (
	"github.com/agentdesk/agentdesk/internal/toolcatalog"
)

// Extractor derives tool selections and form values from agent data
// returned by the chat automation backend. It only reads its catalog, so a
// single Extractor can serve every session concurrently.
type Extractor struct {
	catalog *toolcatalog.Catalog
	gmail   []string
}

func NewExtractor(catalog *toolcatalog.Catalog) *Extractor {
	return &Extractor{
		catalog: catalog,
		gmail:   catalog.WorkspaceWithPrefix("gmail"),
	}
}

func (e *Extractor) Catalog() *toolcatalog.Catalog {
	return e.catalog
}

// orderedSet keeps insertion order and ignores repeats.
type orderedSet struct {
	items []string
	seen  map[string]bool
}

func newOrderedSet() *orderedSet {
	return &orderedSet{items: []string{}, seen: make(map[string]bool)}
}

func (s *orderedSet) add(ids ...string) {
	for _, id := range ids {
		if s.seen[id] {
			continue
		}
		s.seen[id] = true
		s.items = append(s.items, id)
	}
}

func (s *orderedSet) has(id string) bool {
	return s.seen[id]
}

// AllowedTools collects every tool id named anywhere in the agent data. The
// result is permissive: ids outside both catalogs are kept. A bare "gmail"
// grants every Gmail capability in the workspace catalog.
func (e *Extractor) AllowedTools(data any) []string {
	obj, ok := asObject(data)
	if !ok {
		return []string{}
	}

	set := newOrderedSet()
	for _, key := range []string{"tools", "allowed_tools", "allowedTools", "mcp_tools"} {
		set.add(stringEntries(obj[key])...)
	}
	set.add(toolcatalog.NormalizeGoogleTools(obj["google_tools"])...)

	if set.has("gmail") {
		set.add(e.gmail...)
	}
	return set.items
}

// MCPTools collects the MCP catalog ids named in the agent data. Unlike
// AllowedTools, every candidate must be a member of the MCP catalog.
func (e *Extractor) MCPTools(data any) []string {
	obj, ok := asObject(data)
	if !ok {
		return []string{}
	}

	set := newOrderedSet()
	addKnown := func(ids []string) {
		for _, id := range ids {
			if e.catalog.IsMCP(id) {
				set.add(id)
			}
		}
	}

	addKnown(stringEntries(obj["mcp_tools"]))
	addKnown(stringEntries(obj["mcpTools"]))
	addKnown(stringEntries(obj["allowed_tools"]))
	addKnown(stringEntries(obj["allowedTools"]))
	// Only list-shaped google_tools count here; strings are left to
	// NormalizeGoogleTools in AllowedTools.
	addKnown(stringEntries(obj["google_tools"]))
	addKnown(stringEntries(obj["tools"]))
	return set.items
}
