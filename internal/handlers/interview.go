package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agentdesk/agentdesk/internal/database"
	"github.com/agentdesk/agentdesk/internal/interview"
	"github.com/agentdesk/agentdesk/internal/logger"
	"github.com/agentdesk/agentdesk/internal/middleware"
	"github.com/agentdesk/agentdesk/internal/models"
	"github.com/agentdesk/agentdesk/internal/webhook"
)

type InterviewHandler struct {
	db  *database.DB
	svc *interview.Service
}

func NewInterviewHandler(db *database.DB, svc *interview.Service) *InterviewHandler {
	return &InterviewHandler{db: db, svc: svc}
}

// writeInterviewError maps service and webhook errors onto HTTP statuses.
func writeInterviewError(w http.ResponseWriter, err error) {
	var statusErr *webhook.StatusError
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, interview.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "template not found")
	case errors.Is(err, interview.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "message is required")
	case errors.Is(err, interview.ErrInvalidResult):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, webhook.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "chat automation is not configured")
	case errors.As(err, &statusErr), errors.Is(err, webhook.ErrEmptyResponse):
		logger.Warn("Chat automation failed: %v", err)
		writeError(w, http.StatusBadGateway, "chat automation request failed")
	default:
		logger.Error("Interview request failed: %v", err)
		writeError(w, http.StatusBadGateway, "chat automation request failed")
	}
}

// Start registers a template interview and returns the opening turn.
func (h *InterviewHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req interview.StartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = middleware.GetUserID(r.Context())

	turn, err := h.svc.Start(r.Context(), req)
	if err != nil {
		writeInterviewError(w, err)
		return
	}
	h.db.LogAudit(req.UserID, "interview_started", "interview", "session", turn.SessionID, "Template: "+req.TemplateID)
	writeJSON(w, http.StatusCreated, turn)
}

func (h *InterviewHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.svc.Send(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		writeInterviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (h *InterviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeInterviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Complete accepts a completion payload pushed by the chat automation. The
// body is any JSON the automation produces.
func (h *InterviewHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var payload any
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.svc.Complete(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		writeInterviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// Prefill turns arbitrary agent data into form values without a session.
func (h *InterviewHandler) Prefill(w http.ResponseWriter, r *http.Request) {
	var payload any
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	prefill := h.svc.Prefill(payload)
	if prefill == nil {
		writeError(w, http.StatusBadRequest, "agent data must be a JSON object")
		return
	}
	writeJSON(w, http.StatusOK, prefill)
}

// Finish stores the summary the chat automation posts after it created the
// agent.
func (h *InterviewHandler) Finish(w http.ResponseWriter, r *http.Request) {
	var req models.InterviewResult
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SubmitResult(r.Context(), req); err != nil {
		writeInterviewError(w, err)
		return
	}
	h.db.LogAudit("", "interview_finished", "interview", "session", strings.TrimSpace(req.ChatSessionID), "Agent: "+req.AgentName)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *InterviewHandler) FinishResult(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("chatSessionId"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "chatSessionId is required")
		return
	}
	result, err := h.svc.Result(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load result")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": result})
}
