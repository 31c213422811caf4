package templates

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

//go:embed catalog/registry.json
var catalogFS embed.FS

var ErrNotFound = errors.New("template not found")

// Template is a starting point for an agent interview. Config and
// AllowedTools are sent to the chat automation as template metadata.
type Template struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Category     string         `json:"category"`
	Description  string         `json:"description"`
	Icon         string         `json:"icon"`
	Config       map[string]any `json:"config"`
	AllowedTools []string       `json:"allowed_tools"`
}

// Metadata is the template block attached to every webhook turn of an
// interview started from t.
func (t *Template) Metadata() map[string]any {
	return map[string]any{
		"template_id":       t.ID,
		"template_name":     t.Name,
		"template_category": t.Category,
		"template_data": map[string]any{
			"name":          t.Name,
			"category":      t.Category,
			"description":   t.Description,
			"config":        t.Config,
			"allowed_tools": t.AllowedTools,
		},
	}
}

var (
	loadOnce sync.Once
	registry []Template
	loadErr  error
)

func LoadRegistry() ([]Template, error) {
	loadOnce.Do(func() {
		data, err := catalogFS.ReadFile("catalog/registry.json")
		if err != nil {
			loadErr = fmt.Errorf("read registry: %w", err)
			return
		}
		if err := json.Unmarshal(data, &registry); err != nil {
			loadErr = fmt.Errorf("parse registry: %w", err)
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]Template, len(registry))
	copy(out, registry)
	return out, nil
}

func Get(id string) (*Template, error) {
	list, err := LoadRegistry()
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Categories lists the distinct categories in registry order.
func Categories() ([]string, error) {
	list, err := LoadRegistry()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range list {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	return out, nil
}
