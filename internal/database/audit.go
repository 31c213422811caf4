package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentdesk/agentdesk/internal/models"
)

func (db *DB) LogAudit(userID, action, category, target, targetID, details string) {
	if len(details) > 200 {
		details = details[:200]
	}
	id := uuid.New().String()
	now := time.Now().UTC()
	_, _ = db.Exec(
		"INSERT INTO audit_logs (id, user_id, action, category, target, target_id, details, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id, userID, action, category, target, targetID, details, now,
	)
	if db.OnAudit != nil {
		db.OnAudit(action, category)
	}
}

// PruneAuditLogs deletes audit entries created before cutoff.
func (db *DB) PruneAuditLogs(cutoff time.Time) (int64, error) {
	res, err := db.Exec("DELETE FROM audit_logs WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AuditFilter narrows ListAuditLogs. Empty fields match everything.
type AuditFilter struct {
	Action   string
	Category string
	TargetID string
	Limit    int
	Offset   int
}

func (f AuditFilter) where() (string, []any) {
	var conds []string
	var args []any
	for _, c := range []struct{ col, val string }{
		{"a.action", f.Action},
		{"a.category", f.Category},
		{"a.target_id", f.TargetID},
	} {
		if c.val != "" {
			conds = append(conds, c.col+" = ?")
			args = append(args, c.val)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListAuditLogs returns one page of entries, newest first, and the total
// number matching the filter. Entries by deleted users fall back to the
// user id as the display name.
func (db *DB) ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, int, error) {
	where, args := f.where()

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs a"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT a.id, a.user_id, COALESCE(u.username, a.user_id), a.action, a.category, a.target, a.target_id,
			a.details, a.created_at
		FROM audit_logs a LEFT JOIN users u ON a.user_id = u.id`+where+`
		ORDER BY a.created_at DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Username, &l.Action, &l.Category, &l.Target, &l.TargetID, &l.Details, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}
