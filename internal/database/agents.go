package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agentdesk/agentdesk/internal/models"
)

const agentColumns = `id, name, system_prompt, model, temperature, max_tokens, memory_type, reasoning_strategy,
	tools, mcp_tools, template_id, session_id, created_by, created_at, updated_at`

func (db *DB) InsertAgent(ctx context.Context, a *models.Agent) error {
	tools, err := json.Marshal(nonNil(a.Tools))
	if err != nil {
		return fmt.Errorf("encode tools: %w", err)
	}
	mcpTools, err := json.Marshal(nonNil(a.MCPTools))
	if err != nil {
		return fmt.Errorf("encode mcp tools: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO agents (`+agentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.SystemPrompt, a.Model, a.Temperature, a.MaxTokens, a.MemoryType, a.ReasoningStrategy,
		string(tools), string(mcpTools), a.TemplateID, a.SessionID, a.CreatedBy, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

func (db *DB) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	row := db.QueryRowContext(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = ?", id)
	a, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (db *DB) ListAgents(ctx context.Context) ([]models.Agent, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+agentColumns+" FROM agents ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	agents := []models.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

func (db *DB) DeleteAgent(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAgent(s scanner) (*models.Agent, error) {
	var (
		a               models.Agent
		tools, mcpTools string
	)
	err := s.Scan(&a.ID, &a.Name, &a.SystemPrompt, &a.Model, &a.Temperature, &a.MaxTokens, &a.MemoryType,
		&a.ReasoningStrategy, &tools, &mcpTools, &a.TemplateID, &a.SessionID, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tools), &a.Tools); err != nil {
		return nil, fmt.Errorf("decode tools of agent %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(mcpTools), &a.MCPTools); err != nil {
		return nil, fmt.Errorf("decode mcp tools of agent %s: %w", a.ID, err)
	}
	return &a, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
