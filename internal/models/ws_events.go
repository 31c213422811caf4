package models

// WebSocket event payloads broadcast to every dashboard client.

// WSAuditLogCreated is the payload for "audit_log_created" broadcasts.
type WSAuditLogCreated struct {
	Action   string `json:"action"`
	Category string `json:"category"`
}

// WSAgentCreated is the payload for "agent_created" broadcasts.
type WSAgentCreated struct {
	AgentID    string `json:"agent_id"`
	Name       string `json:"name"`
	TemplateID string `json:"template_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}
