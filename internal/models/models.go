package models

import (
	"time"

	"github.com/agentdesk/agentdesk/internal/agentdata"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type AuditLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Category  string    `json:"category"`
	Target    string    `json:"target"`
	TargetID  string    `json:"target_id"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// Interview session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// InterviewSession tracks one template interview. AgentData and Prefill are
// set once, when the conversation completes.
type InterviewSession struct {
	ID          string                         `json:"id"`
	TemplateID  string                         `json:"template_id"`
	UserID      string                         `json:"user_id,omitempty"`
	Status      string                         `json:"status"`
	AgentData   map[string]any                 `json:"agent_data,omitempty"`
	Prefill     *agentdata.PrefilledFormValues `json:"prefill,omitempty"`
	CreatedAt   time.Time                      `json:"created_at"`
	UpdatedAt   time.Time                      `json:"updated_at"`
	CompletedAt *time.Time                     `json:"completed_at,omitempty"`
}

// InterviewResult is the summary the chat automation posts when it creates
// the agent on its side.
type InterviewResult struct {
	ChatSessionID string    `json:"chatSessionId"`
	AgentID       string    `json:"agentId,omitempty"`
	AgentName     string    `json:"agentName"`
	SystemMessage string    `json:"systemMessage,omitempty"`
	ReceivedAt    time.Time `json:"timestamp"`
}

type Agent struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	SystemPrompt      string    `json:"system_prompt"`
	Model             string    `json:"model"`
	Temperature       float64   `json:"temperature"`
	MaxTokens         int       `json:"max_tokens"`
	MemoryType        string    `json:"memory_type"`
	ReasoningStrategy string    `json:"reasoning_strategy"`
	Tools             []string  `json:"tools"`
	MCPTools          []string  `json:"mcp_tools"`
	TemplateID        string    `json:"template_id,omitempty"`
	SessionID         string    `json:"session_id,omitempty"`
	CreatedBy         string    `json:"created_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
