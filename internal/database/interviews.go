package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentdesk/agentdesk/internal/agentdata"
	"github.com/agentdesk/agentdesk/internal/models"
)

// UpsertInterviewSession registers a session. Registering an existing id
// refreshes its template and user but never resets a completed session.
func (db *DB) UpsertInterviewSession(ctx context.Context, s *models.InterviewSession) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`INSERT INTO interview_sessions (id, template_id, user_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   template_id = excluded.template_id,
		   user_id = CASE WHEN excluded.user_id != '' THEN excluded.user_id ELSE interview_sessions.user_id END,
		   updated_at = excluded.updated_at`,
		s.ID, s.TemplateID, s.UserID, models.SessionActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert interview session: %w", err)
	}
	return nil
}

func (db *DB) GetInterviewSession(ctx context.Context, id string) (*models.InterviewSession, error) {
	var (
		s                  models.InterviewSession
		agentJSON, prefill sql.NullString
		completedAt        sql.NullTime
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, template_id, user_id, status, agent_data, prefill, created_at, updated_at, completed_at
		 FROM interview_sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.TemplateID, &s.UserID, &s.Status, &agentJSON, &prefill, &s.CreatedAt, &s.UpdatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get interview session: %w", err)
	}

	if agentJSON.Valid && agentJSON.String != "" {
		if err := json.Unmarshal([]byte(agentJSON.String), &s.AgentData); err != nil {
			return nil, fmt.Errorf("decode agent data: %w", err)
		}
	}
	if prefill.Valid && prefill.String != "" {
		s.Prefill = &agentdata.PrefilledFormValues{}
		if err := json.Unmarshal([]byte(prefill.String), s.Prefill); err != nil {
			return nil, fmt.Errorf("decode prefill: %w", err)
		}
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return &s, nil
}

// TouchInterviewSession bumps updated_at so active conversations survive
// retention.
func (db *DB) TouchInterviewSession(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "UPDATE interview_sessions SET updated_at = ? WHERE id = ?", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch interview session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteInterviewSession stores the outcome of a session. It reports
// false when the session had already completed, leaving the first outcome
// in place.
func (db *DB) CompleteInterviewSession(ctx context.Context, id string, agentData map[string]any, prefill *agentdata.PrefilledFormValues) (bool, error) {
	agentJSON, err := json.Marshal(agentData)
	if err != nil {
		return false, fmt.Errorf("encode agent data: %w", err)
	}
	var prefillJSON []byte
	if prefill != nil {
		if prefillJSON, err = json.Marshal(prefill); err != nil {
			return false, fmt.Errorf("encode prefill: %w", err)
		}
	}

	now := time.Now().UTC()
	res, err := db.ExecContext(ctx,
		`UPDATE interview_sessions
		 SET status = ?, agent_data = ?, prefill = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND status != ?`,
		models.SessionCompleted, string(agentJSON), nullableString(prefillJSON), now, now, id, models.SessionCompleted,
	)
	if err != nil {
		return false, fmt.Errorf("complete interview session: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}

	var exists int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM interview_sessions WHERE id = ?", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check interview session: %w", err)
	}
	if exists == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func nullableString(b []byte) sql.NullString {
	return sql.NullString{String: string(b), Valid: len(b) > 0}
}

// SaveInterviewResult stores the finish callback for a session, replacing
// any earlier one.
func (db *DB) SaveInterviewResult(ctx context.Context, r *models.InterviewResult) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO interview_results (session_id, agent_id, agent_name, system_message, received_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   agent_id = excluded.agent_id,
		   agent_name = excluded.agent_name,
		   system_message = excluded.system_message,
		   received_at = excluded.received_at`,
		r.ChatSessionID, r.AgentID, r.AgentName, r.SystemMessage, r.ReceivedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save interview result: %w", err)
	}
	return nil
}

func (db *DB) GetInterviewResult(ctx context.Context, sessionID string) (*models.InterviewResult, error) {
	var r models.InterviewResult
	err := db.QueryRowContext(ctx,
		"SELECT session_id, agent_id, agent_name, system_message, received_at FROM interview_results WHERE session_id = ?",
		sessionID,
	).Scan(&r.ChatSessionID, &r.AgentID, &r.AgentName, &r.SystemMessage, &r.ReceivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get interview result: %w", err)
	}
	return &r, nil
}

// DeleteInterviewsBefore removes sessions idle since cutoff and results
// received before it.
func (db *DB) DeleteInterviewsBefore(ctx context.Context, cutoff time.Time) (sessions, results int64, err error) {
	cutoff = cutoff.UTC()
	res, err := db.ExecContext(ctx, "DELETE FROM interview_sessions WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("delete interview sessions: %w", err)
	}
	sessions, _ = res.RowsAffected()

	res, err = db.ExecContext(ctx, "DELETE FROM interview_results WHERE received_at < ?", cutoff)
	if err != nil {
		return sessions, 0, fmt.Errorf("delete interview results: %w", err)
	}
	results, _ = res.RowsAffected()
	return sessions, results, nil
}
