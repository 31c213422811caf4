package agentdata

// Defaults applied when the agent data leaves a form field unset.
const (
	DefaultModel             = "gpt-4o-mini"
	DefaultTemperature       = 0.7
	DefaultMaxTokens         = 1000
	DefaultMemoryType        = "buffer"
	DefaultReasoningStrategy = "react"
)

// PrefilledFormValues is the canonical agent configuration handed to the
// agent creation form.
type PrefilledFormValues struct {
	Name              string          `json:"name" jsonschema:"title=Agent name"`
	Tools             map[string]bool `json:"tools" jsonschema:"description=One entry per workspace tool id"`
	MCPTools          map[string]bool `json:"mcpTools" jsonschema:"description=One entry per MCP tool id"`
	SystemPrompt      string          `json:"systemPrompt"`
	Model             string          `json:"model"`
	Temperature       float64         `json:"temperature" jsonschema:"minimum=0,maximum=2"`
	MaxTokens         int             `json:"maxTokens" jsonschema:"minimum=1"`
	MemoryType        string          `json:"memoryType"`
	ReasoningStrategy string          `json:"reasoningStrategy"`
}

var (
	systemPromptFields = []accessor{
		at("system_prompt"), at("systemPrompt"), at("config", "system_prompt"), at("config", "systemPrompt"),
	}
	modelFields = []accessor{
		at("llm_model"), at("model"), at("config", "llm_model"), at("config", "model"),
	}
	temperatureFields = []accessor{
		at("temperature"), at("config", "temperature"), at("config", "llm_temperature"),
	}
	maxTokensFields = []accessor{
		at("max_tokens"), at("maxTokens"), at("config", "max_tokens"),
	}
	memoryTypeFields = []accessor{
		at("memory_type"), at("memoryType"), at("config", "memory_type"),
	}
	reasoningStrategyFields = []accessor{
		at("reasoning_strategy"), at("reasoningStrategy"), at("config", "reasoning_strategy"),
	}
	nameFields = []accessor{
		at("name"), at("agent_name"), at("agentName"),
	}
)

// BuildPrefilledFormValues projects agent data onto the form. Tool maps are
// closed over the catalogs: ids outside them are dropped here even though
// AllowedTools keeps them. It returns nil when data is not an object.
func (e *Extractor) BuildPrefilledFormValues(data any) *PrefilledFormValues {
	obj, ok := asObject(data)
	if !ok {
		return nil
	}

	allowed := toSet(e.AllowedTools(obj))
	mcp := toSet(e.MCPTools(obj))

	tools := make(map[string]bool)
	for _, id := range e.catalog.WorkspaceIDs() {
		tools[id] = allowed[id]
	}
	mcpTools := make(map[string]bool)
	for _, id := range e.catalog.MCPIDs() {
		mcpTools[id] = mcp[id]
	}

	return &PrefilledFormValues{
		Name:              firstString(obj, "", nameFields...),
		Tools:             tools,
		MCPTools:          mcpTools,
		SystemPrompt:      firstString(obj, "", systemPromptFields...),
		Model:             firstString(obj, DefaultModel, modelFields...),
		Temperature:       firstNumber(obj, DefaultTemperature, temperatureFields...),
		MaxTokens:         firstInt(obj, DefaultMaxTokens, maxTokensFields...),
		MemoryType:        firstString(obj, DefaultMemoryType, memoryTypeFields...),
		ReasoningStrategy: firstString(obj, DefaultReasoningStrategy, reasoningStrategyFields...),
	}
}

// EnabledTools returns the selected workspace and MCP ids, workspace first,
// each in catalog order.
func (e *Extractor) EnabledTools(v *PrefilledFormValues) (workspace, mcp []string) {
	workspace, mcp = []string{}, []string{}
	for _, id := range e.catalog.WorkspaceIDs() {
		if v.Tools[id] {
			workspace = append(workspace, id)
		}
	}
	for _, id := range e.catalog.MCPIDs() {
		if v.MCPTools[id] {
			mcp = append(mcp, id)
		}
	}
	return workspace, mcp
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
