package interview

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/agentdesk/agentdesk/internal/agentdata"
	"github.com/agentdesk/agentdesk/internal/database"
	"github.com/agentdesk/agentdesk/internal/models"
	"github.com/agentdesk/agentdesk/internal/templates"
	"github.com/agentdesk/agentdesk/internal/toolcatalog"
	"github.com/agentdesk/agentdesk/internal/webhook"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]*models.InterviewSession
	results  map[string]*models.InterviewResult
	touched  int
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]*models.InterviewSession),
		results:  make(map[string]*models.InterviewResult),
	}
}

func (m *memStore) UpsertInterviewSession(_ context.Context, s *models.InterviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[s.ID]; ok {
		existing.TemplateID = s.TemplateID
		return nil
	}
	cp := *s
	cp.Status = models.SessionActive
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) GetInterviewSession(_ context.Context, id string) (*models.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) TouchInterviewSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return database.ErrNotFound
	}
	m.touched++
	return nil
}

func (m *memStore) CompleteInterviewSession(_ context.Context, id string, agentData map[string]any, prefill *agentdata.PrefilledFormValues) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, database.ErrNotFound
	}
	if s.Status == models.SessionCompleted {
		return false, nil
	}
	s.Status = models.SessionCompleted
	s.AgentData = agentData
	s.Prefill = prefill
	return true, nil
}

func (m *memStore) SaveInterviewResult(_ context.Context, r *models.InterviewResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.results[r.ChatSessionID] = &cp
	return nil
}

func (m *memStore) GetInterviewResult(_ context.Context, id string) (*models.InterviewResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return r, nil
}

type scriptedSender struct {
	mu        sync.Mutex
	responses []any
	requests  []webhook.Request
	err       error
}

func (s *scriptedSender) Send(_ context.Context, req webhook.Request) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return map[string]any{}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

type published struct {
	topic, msgType string
	payload        any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(topic, msgType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic, msgType, payload})
}

var testTemplate = &templates.Template{
	ID:           "support",
	Name:         "Support",
	Category:     "Support",
	Description:  "Answers questions",
	AllowedTools: []string{"web_search"},
}

type fixture struct {
	svc       *Service
	store     *memStore
	sender    *scriptedSender
	publisher *recordingPublisher
}

func newFixture(t *testing.T, responses ...any) *fixture {
	t.Helper()
	f := &fixture{
		store:     newMemStore(),
		sender:    &scriptedSender{responses: responses},
		publisher: &recordingPublisher{},
	}
	cache, err := webhook.NewInitCache(f.sender, 16, time.Hour, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cache.Close)

	f.svc = NewService(Options{
		Store:     f.store,
		Client:    f.sender,
		InitCache: cache,
		Extractor: agentdata.NewExtractor(toolcatalog.New([]toolcatalog.MCPTool{{ID: "web_search"}})),
		Publisher: f.publisher,
		Templates: func(id string) (*templates.Template, error) {
			if id == testTemplate.ID {
				return testTemplate, nil
			}
			return nil, templates.ErrNotFound
		},
	})
	return f
}

func TestStartGeneratesSessionAndSendsGreeting(t *testing.T) {
	f := newFixture(t, map[string]any{"output": "Welcome! What should your agent do?"})

	turn, err := f.svc.Start(context.Background(), StartRequest{TemplateID: "support", UserID: "u1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(turn.SessionID, SessionPrefix) {
		t.Errorf("session id %q lacks prefix", turn.SessionID)
	}
	if diff := cmp.Diff([]string{"Welcome! What should your agent do?"}, turn.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if turn.Status != models.SessionActive {
		t.Errorf("status = %s, want active", turn.Status)
	}

	if turn.Completion.IsCompleted || turn.Prefill != nil {
		t.Errorf("greeting must not complete the interview: %+v", turn)
	}

	if len(f.sender.requests) != 1 {
		t.Fatalf("expected 1 webhook request, got %d", len(f.sender.requests))
	}
	req := f.sender.requests[0]
	if req.ChatInput != InitialGreeting || req.SessionID != turn.SessionID {
		t.Errorf("unexpected opening request %+v", req)
	}
	if req.Metadata["template_id"] != "support" {
		t.Errorf("metadata missing template id: %v", req.Metadata)
	}

	sess, err := f.svc.Session(context.Background(), turn.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.UserID != "u1" || sess.TemplateID != "support" {
		t.Errorf("unexpected stored session %+v", sess)
	}
}

func TestArrayReplyWithoutAgentDataStaysActive(t *testing.T) {
	f := newFixture(t, []any{map[string]any{"output": "Hi there"}})

	turn, err := f.svc.Start(context.Background(), StartRequest{SessionID: "s1", TemplateID: "support"})
	if err != nil {
		t.Fatal(err)
	}
	if turn.Status != models.SessionActive || turn.Prefill != nil || turn.Completion.AgentData != nil {
		t.Errorf("array greeting must not complete the session: %+v", turn)
	}
	if diff := cmp.Diff([]string{"Hi there"}, turn.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("expected no events, got %+v", f.publisher.events)
	}
}

func TestSendNonFiniteNumbersUseDefaults(t *testing.T) {
	f := newFixture(t,
		map[string]any{"message": "Hello"},
		map[string]any{"agent_data": map[string]any{"name": "N", "temperature": "NaN", "max_tokens": 1e300}},
	)
	ctx := context.Background()
	if _, err := f.svc.Start(ctx, StartRequest{SessionID: "s1", TemplateID: "support"}); err != nil {
		t.Fatal(err)
	}
	turn, err := f.svc.Send(ctx, "s1", "done")
	if err != nil {
		t.Fatal(err)
	}
	if turn.Status != models.SessionCompleted || turn.Prefill == nil {
		t.Fatalf("expected completion, got %+v", turn)
	}
	if turn.Prefill.Temperature != agentdata.DefaultTemperature || turn.Prefill.MaxTokens != agentdata.DefaultMaxTokens {
		t.Errorf("unexpected numbers %v / %d", turn.Prefill.Temperature, turn.Prefill.MaxTokens)
	}
	if _, err := json.Marshal(turn); err != nil {
		t.Errorf("turn does not encode: %v", err)
	}
}

func TestStartIsSharedPerSession(t *testing.T) {
	f := newFixture(t, map[string]any{"message": "Hello"})

	for i := 0; i < 3; i++ {
		turn, err := f.svc.Start(context.Background(), StartRequest{SessionID: "s1", TemplateID: "support"})
		if err != nil {
			t.Fatal(err)
		}
		if turn.Messages[0] != "Hello" {
			t.Errorf("start %d got %v", i, turn.Messages)
		}
	}
	if n := len(f.sender.requests); n != 1 {
		t.Errorf("expected one opening request, got %d", n)
	}
}

func TestStartFallbackGreeting(t *testing.T) {
	f := newFixture(t, map[string]any{"status": "thinking"})
	turn, err := f.svc.Start(context.Background(), StartRequest{SessionID: "s1", TemplateID: "support"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{DefaultGreeting}, turn.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestStartErrors(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Start(context.Background(), StartRequest{TemplateID: "nope"}); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
	if _, err := f.svc.Start(context.Background(), StartRequest{}); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound for empty id, got %v", err)
	}

	f.sender.err = webhook.ErrNotConfigured
	if _, err := f.svc.Start(context.Background(), StartRequest{SessionID: "s2", TemplateID: "support"}); !errors.Is(err, webhook.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSendCompletesOnce(t *testing.T) {
	final := map[string]any{
		"output": "All set!",
		"agent_data": map[string]any{
			"name":          "Helpdesk",
			"system_prompt": "Be helpful",
			"temperature":   0.0,
			"google_tools":  `["gmail_send"]`,
			"mcp_tools":     []any{"web_search"},
		},
	}
	f := newFixture(t,
		map[string]any{"output": "Hi"},
		map[string]any{"output": "Tell me more", "status": "in_progress"},
		final,
		map[string]any{"output": "Already done", "agent_data": map[string]any{"name": "Other"}},
	)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, StartRequest{SessionID: "s1", TemplateID: "support"}); err != nil {
		t.Fatal(err)
	}

	turn, err := f.svc.Send(ctx, "s1", "  a support bot  ")
	if err != nil {
		t.Fatal(err)
	}
	if turn.Completion.IsCompleted || turn.Prefill != nil {
		t.Fatalf("conversation should still be running: %+v", turn)
	}
	if got := f.sender.requests[1].ChatInput; got != "a support bot" {
		t.Errorf("chat input = %q, want trimmed text", got)
	}

	turn, err = f.svc.Send(ctx, "s1", "yes")
	if err != nil {
		t.Fatal(err)
	}
	if turn.Status != models.SessionCompleted || turn.Prefill == nil {
		t.Fatalf("expected completion with prefill, got %+v", turn)
	}
	if turn.Prefill.Name != "Helpdesk" || turn.Prefill.Temperature != 0 {
		t.Errorf("unexpected prefill %+v", turn.Prefill)
	}
	if !turn.Prefill.Tools["gmail_send_message"] || !turn.Prefill.MCPTools["web_search"] {
		t.Errorf("expected gmail and web_search enabled: %+v", turn.Prefill)
	}

	sess, _ := f.svc.Session(ctx, "s1")
	wantData := map[string]any{
		"name":          "Helpdesk",
		"system_prompt": "Be helpful",
		"temperature":   0.0,
		"google_tools":  []any{"gmail_send_message"},
		"mcp_tools":     []any{"web_search"},
		"allowed_tools": []any{"web_search", "gmail_send_message"},
		"from_template": true,
		"template_id":   "support",
	}
	if diff := cmp.Diff(wantData, sess.AgentData); diff != "" {
		t.Errorf("stored agent data mismatch (-want +got):\n%s", diff)
	}

	if n := len(f.publisher.events); n != 2 {
		t.Fatalf("expected topic and global events, got %d", n)
	}
	if ev := f.publisher.events[0]; ev.topic != Topic("s1") || ev.msgType != EventCompleted {
		t.Errorf("unexpected topic event %+v", ev)
	}
	if ev := f.publisher.events[1]; ev.topic != "" || ev.msgType != EventCompleted {
		t.Errorf("unexpected global event %+v", ev)
	}

	// A later completion keeps the first outcome and does not re-announce.
	turn, err = f.svc.Send(ctx, "s1", "change the name")
	if err != nil {
		t.Fatal(err)
	}
	if turn.Prefill == nil || turn.Prefill.Name != "Helpdesk" {
		t.Errorf("expected first prefill to stick, got %+v", turn.Prefill)
	}
	if n := len(f.publisher.events); n != 2 {
		t.Errorf("completion announced again: %d events", n)
	}
}

func TestSendErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Send(ctx, "s1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := f.svc.Send(ctx, "missing", "hi"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCompletePushedPayload(t *testing.T) {
	f := newFixture(t, map[string]any{"output": "Hi"})
	ctx := context.Background()
	if _, err := f.svc.Start(ctx, StartRequest{SessionID: "s1", TemplateID: "support"}); err != nil {
		t.Fatal(err)
	}

	turn, err := f.svc.Complete(ctx, "s1", map[string]any{"status": "done"})
	if err != nil {
		t.Fatal(err)
	}
	if !turn.Completion.IsCompleted || turn.Status != models.SessionActive {
		t.Errorf("completion without agent data must leave the session active: %+v", turn)
	}
	if len(turn.Messages) != 0 {
		t.Errorf("pushed payloads have no fallback text, got %v", turn.Messages)
	}

	turn, err = f.svc.Complete(ctx, "s1", map[string]any{"agentData": `{"name":"Pushed"}`})
	if err != nil {
		t.Fatal(err)
	}
	if turn.Status != models.SessionCompleted || turn.Prefill.Name != "Pushed" {
		t.Errorf("unexpected turn %+v", turn)
	}

	if _, err := f.svc.Complete(ctx, "missing", map[string]any{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSubmitResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   models.InterviewResult
	}{
		{"missing session", models.InterviewResult{AgentName: "A"}},
		{"missing name", models.InterviewResult{ChatSessionID: "s1"}},
		{"blank name", models.InterviewResult{ChatSessionID: "s1", AgentName: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.svc.SubmitResult(ctx, tt.in); !errors.Is(err, ErrInvalidResult) {
				t.Errorf("expected ErrInvalidResult, got %v", err)
			}
		})
	}

	if r, err := f.svc.Result(ctx, "s1"); r != nil || err != nil {
		t.Fatalf("expected no result yet, got %+v, %v", r, err)
	}

	if err := f.svc.SubmitResult(ctx, models.InterviewResult{ChatSessionID: "s1", AgentID: "a1", AgentName: "Helper"}); err != nil {
		t.Fatal(err)
	}
	r, err := f.svc.Result(ctx, "s1")
	if err != nil || r == nil {
		t.Fatalf("Result = %+v, %v", r, err)
	}
	if r.AgentName != "Helper" || r.ReceivedAt.IsZero() {
		t.Errorf("unexpected result %+v", r)
	}
	if n := len(f.publisher.events); n != 1 || f.publisher.events[0].msgType != EventFinished {
		t.Errorf("expected one finished event, got %+v", f.publisher.events)
	}
}

func TestSubmitResultForgetsOpening(t *testing.T) {
	f := newFixture(t, map[string]any{"message": "Hello"}, map[string]any{"message": "Hello again"})
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, StartRequest{SessionID: "s1", TemplateID: "support"}); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.SubmitResult(ctx, models.InterviewResult{ChatSessionID: "s1", AgentName: "Helper"}); err != nil {
		t.Fatal(err)
	}
	turn, err := f.svc.Start(ctx, StartRequest{SessionID: "s1", TemplateID: "support"})
	if err != nil {
		t.Fatal(err)
	}
	if turn.Messages[0] != "Hello again" || len(f.sender.requests) != 2 {
		t.Errorf("expected a fresh opening, got %v after %d requests", turn.Messages, len(f.sender.requests))
	}
}

func TestReplyMessages(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		fallback string
		want     []string
	}{
		{"object", map[string]any{"text": "hi"}, "fb", []string{"hi"}},
		{"array in order", []any{map[string]any{"output": "one"}, map[string]any{}, map[string]any{"message": "two"}}, "fb", []string{"one", "two"}},
		{"nothing uses fallback", []any{}, "fb", []string{"fb"}},
		{"no fallback", nil, "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, replyMessages(tt.payload, tt.fallback)); diff != "" {
				t.Errorf("replyMessages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
