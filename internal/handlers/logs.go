package handlers

import (
	"net/http"

	"github.com/agentdesk/agentdesk/internal/database"
	"github.com/agentdesk/agentdesk/internal/logger"
)

type LogsHandler struct {
	db *database.DB
}

func NewLogsHandler(db *database.DB) *LogsHandler {
	return &LogsHandler{db: db}
}

func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.AuditFilter{
		Action:   q.Get("action"),
		Category: q.Get("category"),
		TargetID: q.Get("target_id"),
		Limit:    queryInt(r, "limit", 100, 1000),
		Offset:   queryInt(r, "offset", 0, 1<<30),
	}
	if filter.Limit == 0 {
		filter.Limit = 100
	}

	logs, total, err := h.db.ListAuditLogs(r.Context(), filter)
	if err != nil {
		logger.Error("Failed to list audit logs: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs, "total": total})
}
