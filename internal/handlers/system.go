package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/agentdesk/agentdesk/internal/database"
	"github.com/agentdesk/agentdesk/internal/netutil"
)

var startTime = time.Now()

// AppVersion is set from main at startup.
var AppVersion = "dev"

// WebhookStatus reports whether the chat automation URL is set.
type WebhookStatus interface {
	Configured() bool
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

type SystemHandler struct {
	db      *database.DB
	dataDir string
	port    int
	bind    string
	webhook WebhookStatus
	clients ClientCounter
}

func NewSystemHandler(db *database.DB, dataDir, bind string, port int, webhook WebhookStatus, clients ClientCounter) *SystemHandler {
	return &SystemHandler{db: db, dataDir: dataDir, bind: bind, port: port, webhook: webhook, clients: clients}
}

func (h *SystemHandler) Info(w http.ResponseWriter, r *http.Request) {
	dbSize := "unknown"
	if info, err := os.Stat(filepath.Join(h.dataDir, "agentdesk.db")); err == nil {
		dbSize = formatBytes(info.Size())
	}

	var agentCount, activeSessions, completedSessions int
	h.db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM agents").Scan(&agentCount)
	h.db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM interview_sessions WHERE status = 'active'").Scan(&activeSessions)
	h.db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM interview_sessions WHERE status = 'completed'").Scan(&completedSessions)

	clients := 0
	if h.clients != nil {
		clients = h.clients.ClientCount()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":            AppVersion,
		"go_version":         runtime.Version(),
		"os":                 runtime.GOOS,
		"arch":               runtime.GOARCH,
		"uptime":             formatDuration(time.Since(startTime)),
		"db_size":            dbSize,
		"agent_count":        agentCount,
		"active_sessions":    activeSessions,
		"completed_sessions": completedSessions,
		"webhook_configured": h.webhookConfigured(),
		"ws_clients":         clients,
		"lan_ip":             netutil.LANAddr(),
		"port":               h.port,
		"bind_address":       h.bind,
	})
}

func (h *SystemHandler) webhookConfigured() bool {
	return h.webhook != nil && h.webhook.Configured()
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SystemHandler) Prerequisites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"webhook_configured": h.webhookConfigured(),
	})
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
