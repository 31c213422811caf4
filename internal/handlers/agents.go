package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentdesk/agentdesk/internal/agentdata"
	"github.com/agentdesk/agentdesk/internal/database"
	"github.com/agentdesk/agentdesk/internal/logger"
	"github.com/agentdesk/agentdesk/internal/middleware"
	"github.com/agentdesk/agentdesk/internal/models"
)

// EventAgentCreated is broadcast to every dashboard client.
const EventAgentCreated = "agent_created"

// Publisher sends a websocket event. An empty topic reaches every client.
type Publisher interface {
	Publish(topic, msgType string, payload any)
}

type AgentsHandler struct {
	db        *database.DB
	extractor *agentdata.Extractor
	publisher Publisher
}

func NewAgentsHandler(db *database.DB, extractor *agentdata.Extractor, publisher Publisher) *AgentsHandler {
	return &AgentsHandler{db: db, extractor: extractor, publisher: publisher}
}

type createAgentRequest struct {
	agentdata.PrefilledFormValues
	TemplateID string `json:"template_id"`
	SessionID  string `json:"session_id"`
}

func validateAgent(req *createAgentRequest) string {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return "name is required"
	case strings.TrimSpace(req.Model) == "":
		return "model is required"
	case req.Temperature < 0 || req.Temperature > 2:
		return "temperature must be between 0 and 2"
	case req.MaxTokens < 1:
		return "max tokens must be positive"
	}
	return ""
}

// Create stores an agent from the submitted form. Only tools switched on
// in the form are kept.
func (h *AgentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateAgent(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	userID := middleware.GetUserID(r.Context())
	tools, mcpTools := h.extractor.EnabledTools(&req.PrefilledFormValues)
	now := time.Now().UTC()
	agent := &models.Agent{
		ID:                generateID(),
		Name:              strings.TrimSpace(req.Name),
		SystemPrompt:      req.SystemPrompt,
		Model:             strings.TrimSpace(req.Model),
		Temperature:       req.Temperature,
		MaxTokens:         req.MaxTokens,
		MemoryType:        req.MemoryType,
		ReasoningStrategy: req.ReasoningStrategy,
		Tools:             tools,
		MCPTools:          mcpTools,
		TemplateID:        req.TemplateID,
		SessionID:         req.SessionID,
		CreatedBy:         userID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.db.InsertAgent(r.Context(), agent); err != nil {
		logger.Error("Failed to create agent: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create agent")
		return
	}

	h.db.LogAudit(userID, "agent_created", "agent", "agent", agent.ID, "Agent: "+agent.Name)
	if h.publisher != nil {
		h.publisher.Publish("", EventAgentCreated, models.WSAgentCreated{
			AgentID:    agent.ID,
			Name:       agent.Name,
			TemplateID: agent.TemplateID,
			SessionID:  agent.SessionID,
		})
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *AgentsHandler) List(w http.ResponseWriter, r *http.Request) {
	agentList, err := h.db.ListAgents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list agents")
		return
	}
	writeJSON(w, http.StatusOK, agentList)
}

func (h *AgentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	agent, err := h.db.GetAgent(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load agent")
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.db.DeleteAgent(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete agent")
		return
	}
	h.db.LogAudit(middleware.GetUserID(r.Context()), "agent_deleted", "agent", "agent", id, "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "agent deleted"})
}
