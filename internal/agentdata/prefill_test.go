package agentdata

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildPrefilledFormValuesNonObject(t *testing.T) {
	e := newTestExtractor()
	for _, in := range []any{nil, "x", 1.0, []any{map[string]any{}}} {
		if got := e.BuildPrefilledFormValues(in); got != nil {
			t.Errorf("BuildPrefilledFormValues(%#v) = %+v, want nil", in, got)
		}
	}
}

func TestBuildPrefilledFormValuesDefaults(t *testing.T) {
	e := newTestExtractor()
	got := e.BuildPrefilledFormValues(map[string]any{})

	if got.Name != "" || got.SystemPrompt != "" {
		t.Errorf("expected empty name and prompt, got %q / %q", got.Name, got.SystemPrompt)
	}
	if got.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", got.Model, DefaultModel)
	}
	if got.Temperature != DefaultTemperature {
		t.Errorf("Temperature = %v, want %v", got.Temperature, DefaultTemperature)
	}
	if got.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", got.MaxTokens, DefaultMaxTokens)
	}
	if got.MemoryType != DefaultMemoryType || got.ReasoningStrategy != DefaultReasoningStrategy {
		t.Errorf("unexpected memory/reasoning defaults: %q / %q", got.MemoryType, got.ReasoningStrategy)
	}
	if len(got.Tools) != len(e.Catalog().WorkspaceIDs()) {
		t.Errorf("Tools has %d entries, want one per workspace id (%d)", len(got.Tools), len(e.Catalog().WorkspaceIDs()))
	}
	if len(got.MCPTools) != len(e.Catalog().MCPIDs()) {
		t.Errorf("MCPTools has %d entries, want one per MCP id (%d)", len(got.MCPTools), len(e.Catalog().MCPIDs()))
	}
	for id, on := range got.Tools {
		if on {
			t.Errorf("tool %q enabled with no tool data", id)
		}
	}
}

func TestBuildPrefilledFormValuesZeroPreserved(t *testing.T) {
	e := newTestExtractor()
	got := e.BuildPrefilledFormValues(map[string]any{"temperature": 0.0, "max_tokens": 0.0})
	if got.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", got.Temperature)
	}
	if got.MaxTokens != 0 {
		t.Errorf("MaxTokens = %d, want 0", got.MaxTokens)
	}
}

func TestBuildPrefilledFormValuesNonFiniteNumbers(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name      string
		in        map[string]any
		wantTemp  float64
		wantMaxTk int
	}{
		{"NaN string", map[string]any{"temperature": "NaN", "max_tokens": "NaN"}, DefaultTemperature, DefaultMaxTokens},
		{"Infinity string", map[string]any{"temperature": "Infinity", "max_tokens": "-Infinity"}, DefaultTemperature, DefaultMaxTokens},
		{"inf string", map[string]any{"temperature": "inf", "max_tokens": "inf"}, DefaultTemperature, DefaultMaxTokens},
		{"huge max tokens", map[string]any{"max_tokens": 1e300}, DefaultTemperature, DefaultMaxTokens},
		{"huge negative max tokens", map[string]any{"max_tokens": -1e300}, DefaultTemperature, DefaultMaxTokens},
		{"falls through to nested", map[string]any{
			"temperature": "NaN",
			"max_tokens":  "1e300",
			"config":      map[string]any{"temperature": 0.3, "max_tokens": "512"},
		}, 0.3, 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.BuildPrefilledFormValues(tt.in)
			if got.Temperature != tt.wantTemp || got.MaxTokens != tt.wantMaxTk {
				t.Errorf("got temperature %v, maxTokens %d; want %v, %d", got.Temperature, got.MaxTokens, tt.wantTemp, tt.wantMaxTk)
			}
			if _, err := json.Marshal(got); err != nil {
				t.Errorf("record does not encode: %v", err)
			}
		})
	}
}

func TestBuildPrefilledFormValuesFallbacks(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name  string
		data  map[string]any
		check func(t *testing.T, v *PrefilledFormValues)
	}{
		{
			"root fields beat config",
			map[string]any{
				"system_prompt": "root",
				"model":         "gpt-4o",
				"config":        map[string]any{"system_prompt": "nested", "model": "nested-model"},
			},
			func(t *testing.T, v *PrefilledFormValues) {
				if v.SystemPrompt != "root" || v.Model != "gpt-4o" {
					t.Errorf("got prompt %q model %q", v.SystemPrompt, v.Model)
				}
			},
		},
		{
			"llm_model beats model",
			map[string]any{"llm_model": "claude", "model": "gpt"},
			func(t *testing.T, v *PrefilledFormValues) {
				if v.Model != "claude" {
					t.Errorf("Model = %q, want claude", v.Model)
				}
			},
		},
		{
			"empty strings fall through",
			map[string]any{"system_prompt": "", "systemPrompt": "camel", "name": "", "agent_name": "Snake"},
			func(t *testing.T, v *PrefilledFormValues) {
				if v.SystemPrompt != "camel" || v.Name != "Snake" {
					t.Errorf("got prompt %q name %q", v.SystemPrompt, v.Name)
				}
			},
		},
		{
			"nested config values",
			map[string]any{"config": map[string]any{
				"systemPrompt":       "cfg prompt",
				"llm_model":          "cfg-model",
				"llm_temperature":    0.2,
				"max_tokens":         512.0,
				"memory_type":        "summary",
				"reasoning_strategy": "plan",
			}},
			func(t *testing.T, v *PrefilledFormValues) {
				want := PrefilledFormValues{
					SystemPrompt: "cfg prompt", Model: "cfg-model", Temperature: 0.2, MaxTokens: 512,
					MemoryType: "summary", ReasoningStrategy: "plan",
				}
				got := *v
				got.Tools, got.MCPTools = nil, nil
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			"numeric strings coerced and junk skipped",
			map[string]any{"temperature": "0.3", "max_tokens": "lots", "maxTokens": "2048"},
			func(t *testing.T, v *PrefilledFormValues) {
				if v.Temperature != 0.3 || v.MaxTokens != 2048 {
					t.Errorf("got temperature %v max tokens %d", v.Temperature, v.MaxTokens)
				}
			},
		},
		{
			"null numbers fall through",
			map[string]any{"temperature": nil, "config": map[string]any{"temperature": 1.1}},
			func(t *testing.T, v *PrefilledFormValues) {
				if v.Temperature != 1.1 {
					t.Errorf("Temperature = %v, want 1.1", v.Temperature)
				}
			},
		},
		{
			"agentName last resort",
			map[string]any{"agentName": "Camel"},
			func(t *testing.T, v *PrefilledFormValues) {
				if v.Name != "Camel" {
					t.Errorf("Name = %q, want Camel", v.Name)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, e.BuildPrefilledFormValues(tt.data))
		})
	}
}

func TestBuildPrefilledFormValuesToolMaps(t *testing.T) {
	e := newTestExtractor()
	got := e.BuildPrefilledFormValues(map[string]any{
		"google_tools":  `calendar_create, "gmail_send"`,
		"allowed_tools": []any{"web_search", "unknown_tool"},
	})

	if !got.Tools["google_calendar_create_event"] || !got.Tools["gmail_send_message"] {
		t.Errorf("expected calendar and gmail tools enabled, got %v", got.Tools)
	}
	if got.Tools["google_docs_get_document"] {
		t.Error("unexpected docs tool enabled")
	}
	if _, ok := got.Tools["unknown_tool"]; ok {
		t.Error("ids outside the workspace catalog must not appear in Tools")
	}
	if _, ok := got.Tools["web_search"]; ok {
		t.Error("MCP ids must not appear in Tools")
	}
	if !got.MCPTools["web_search"] || got.MCPTools["deep_research"] {
		t.Errorf("unexpected MCP selection %v", got.MCPTools)
	}

	workspace, mcp := e.EnabledTools(got)
	if diff := cmp.Diff([]string{"gmail_send_message", "google_calendar_create_event"}, workspace); diff != "" {
		t.Errorf("EnabledTools workspace mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"web_search"}, mcp); diff != "" {
		t.Errorf("EnabledTools mcp mismatch (-want +got):\n%s", diff)
	}
}
