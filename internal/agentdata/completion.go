package agentdata

import (
	"encoding/json"
	"strings"
)

// CompletionResult tells the interview controller whether the conversation
// has ended and which agent configuration it produced.
type CompletionResult struct {
	IsCompleted bool           `json:"isCompleted"`
	AgentData   map[string]any `json:"agentData"`
}

var agentDataFields = []accessor{
	at("agent_data"),
	at("agentData"),
	at("agent"),
	at("data", "agent_data"),
	at("data", "agentData"),
	at("data", "agent"),
	at("response", "agent_data"),
	at("response", "agentData"),
}

// Payload keys that mark the payload itself as an agent configuration.
var inlineAgentKeys = []string{"system_prompt", "google_tools", "mcp_tools"}

var statusFields = []accessor{
	at("status"),
	at("state"),
	at("result"),
	at("outcome"),
	at("data", "status"),
	at("data", "state"),
	at("data", "result"),
	at("data", "outcome"),
}

var completedStatuses = map[string]bool{
	"completed": true,
	"complete":  true,
	"done":      true,
	"success":   true,
	"finished":  true,
}

var completionFlags = []accessor{
	at("success"),
	at("completed"),
	at("finished"),
	at("data", "success"),
	at("data", "completed"),
	at("data", "finished"),
}

// PickAgentData locates the agent configuration inside a chat webhook
// payload. It returns nil when the payload carries none.
//
// An array payload is an envelope: only its first element is searched, the
// same way. A bare element with no inline keys and no nested candidate is a
// plain reply, not agent data.
func PickAgentData(payload any) map[string]any {
	switch p := payload.(type) {
	case []any:
		if len(p) == 0 {
			return nil
		}
		return PickAgentData(p[0])
	case map[string]any:
		if p == nil {
			return nil
		}
		for _, key := range inlineAgentKeys {
			if truthy(p[key]) {
				return p
			}
		}
		for _, get := range agentDataFields {
			raw, ok := get(p)
			if !ok {
				continue
			}
			if found := normalizeAgentData(raw); found != nil {
				return found
			}
		}
	}
	return nil
}

// normalizeAgentData accepts an object as-is and decodes strings that look
// like JSON. Any other non-empty string becomes {"summary": s}.
func normalizeAgentData(v any) map[string]any {
	if !truthy(v) {
		return nil
	}
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		if len(t) == 0 {
			return nil
		}
		return normalizeAgentData(t[0])
	case string:
		if parsed, ok := parseJSONLike(t); ok {
			if found := normalizeAgentData(parsed); found != nil {
				return found
			}
		}
		return map[string]any{"summary": t}
	}
	return nil
}

func parseJSONLike(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, false
	}
	objectLike := strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")
	arrayLike := strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")
	if !objectLike && !arrayLike {
		return nil, false
	}
	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// DetectCompletionStatus reports whether a chat webhook payload signals the
// end of the interview: a non-empty array envelope, a finished status word,
// a true completion flag, or extractable agent data.
func DetectCompletionStatus(payload any) bool {
	switch p := payload.(type) {
	case []any:
		return len(p) > 0
	case map[string]any:
		if p == nil {
			return false
		}
		for _, get := range statusFields {
			raw, ok := get(p)
			if !ok || !truthy(raw) {
				continue
			}
			if completedStatuses[strings.ToLower(DisplayString(raw))] {
				return true
			}
		}
		for _, get := range completionFlags {
			if raw, ok := get(p); ok && raw == true {
				return true
			}
		}
		return PickAgentData(p) != nil
	}
	return false
}

// BuildCompletionResult combines DetectCompletionStatus and PickAgentData.
func BuildCompletionResult(payload any) CompletionResult {
	agentData := PickAgentData(payload)
	return CompletionResult{
		IsCompleted: DetectCompletionStatus(payload) || agentData != nil,
		AgentData:   agentData,
	}
}
