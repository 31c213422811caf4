// Package interview runs template interviews against the chat automation
// and turns the finished conversation into agent form values.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentdesk/agentdesk/internal/agentdata"
	"github.com/agentdesk/agentdesk/internal/database"
	"github.com/agentdesk/agentdesk/internal/logger"
	"github.com/agentdesk/agentdesk/internal/metrics"
	"github.com/agentdesk/agentdesk/internal/models"
	"github.com/agentdesk/agentdesk/internal/templates"
	"github.com/agentdesk/agentdesk/internal/webhook"
)

var (
	ErrSessionNotFound  = errors.New("interview session not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrInvalidResult    = errors.New("invalid interview result")
)

const (
	// InitialGreeting opens every interview on behalf of the user.
	InitialGreeting = "Hi! Please help me tailor this template to my needs."

	DefaultGreeting = "Hi! I'm ready to help you customize this agent template. Let's get started!"
	DefaultReply    = "I received your message."

	SessionPrefix = "template-session-"

	EventCompleted = "interview_completed"
	EventFinished  = "interview_finished"
)

// Topic is the websocket topic carrying events for one session.
func Topic(sessionID string) string {
	return "interview:" + sessionID
}

type Store interface {
	UpsertInterviewSession(ctx context.Context, s *models.InterviewSession) error
	GetInterviewSession(ctx context.Context, id string) (*models.InterviewSession, error)
	TouchInterviewSession(ctx context.Context, id string) error
	CompleteInterviewSession(ctx context.Context, id string, agentData map[string]any, prefill *agentdata.PrefilledFormValues) (bool, error)
	SaveInterviewResult(ctx context.Context, r *models.InterviewResult) error
	GetInterviewResult(ctx context.Context, sessionID string) (*models.InterviewResult, error)
}

// Publisher fans events out to dashboard clients. An empty topic means
// every client.
type Publisher interface {
	Publish(topic, msgType string, payload any)
}

type Options struct {
	Store     Store
	Client    webhook.Sender
	InitCache *webhook.InitCache
	Extractor *agentdata.Extractor
	Publisher Publisher
	Metrics   *metrics.Recorder
	// Templates resolves template ids. Defaults to templates.Get.
	Templates func(id string) (*templates.Template, error)
}

type Service struct {
	store     Store
	client    webhook.Sender
	init      *webhook.InitCache
	extractor *agentdata.Extractor
	publisher Publisher
	metrics   *metrics.Recorder
	templates func(id string) (*templates.Template, error)
}

func NewService(opts Options) *Service {
	lookup := opts.Templates
	if lookup == nil {
		lookup = templates.Get
	}
	return &Service{
		store:     opts.Store,
		client:    opts.Client,
		init:      opts.InitCache,
		extractor: opts.Extractor,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		templates: lookup,
	}
}

type StartRequest struct {
	SessionID  string `json:"sessionId"`
	TemplateID string `json:"templateId"`
	UserID     string `json:"-"`
}

// Turn is the outcome of one webhook exchange.
type Turn struct {
	SessionID  string                         `json:"sessionId"`
	Status     string                         `json:"status"`
	Messages   []string                       `json:"messages"`
	Completion agentdata.CompletionResult     `json:"completion"`
	Prefill    *agentdata.PrefilledFormValues `json:"prefill,omitempty"`
}

// CompletedEvent is broadcast once per session when the interview yields
// agent data.
type CompletedEvent struct {
	SessionID  string                         `json:"sessionId"`
	TemplateID string                         `json:"templateId"`
	AgentData  map[string]any                 `json:"agentData"`
	Prefill    *agentdata.PrefilledFormValues `json:"prefill"`
}

// Start registers a session and sends the opening message. Concurrent or
// repeated starts of the same session share one opening request.
func (s *Service) Start(ctx context.Context, req StartRequest) (*Turn, error) {
	tmpl, err := s.template(req.TemplateID)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = SessionPrefix + uuid.New().String()
	}

	if err := s.store.UpsertInterviewSession(ctx, &models.InterviewSession{
		ID:         id,
		TemplateID: tmpl.ID,
		UserID:     req.UserID,
	}); err != nil {
		return nil, err
	}
	logger.Interview("started", id)

	opening := webhook.Request{
		SessionID: id,
		ChatInput: InitialGreeting,
		Metadata:  tmpl.Metadata(),
	}
	var payload any
	if s.init != nil {
		payload, err = s.init.Get(ctx, opening)
	} else {
		payload, err = s.client.Send(ctx, opening)
	}
	if err != nil {
		return nil, fmt.Errorf("start interview %s: %w", id, err)
	}

	return s.turn(ctx, id, tmpl.ID, payload, DefaultGreeting)
}

// Send forwards one user message to the automation.
func (s *Service) Send(ctx context.Context, sessionID, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	sess, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.template(sess.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := s.store.TouchInterviewSession(ctx, sess.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	payload, err := s.client.Send(ctx, webhook.Request{
		SessionID: sess.ID,
		ChatInput: text,
		Metadata:  tmpl.Metadata(),
	})
	if err != nil {
		return nil, fmt.Errorf("send interview message %s: %w", sess.ID, err)
	}

	return s.turn(ctx, sess.ID, sess.TemplateID, payload, DefaultReply)
}

// Complete applies a payload the automation pushed outside the chat
// exchange, such as a final agent_data message.
func (s *Service) Complete(ctx context.Context, sessionID string, payload any) (*Turn, error) {
	sess, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.turn(ctx, sess.ID, sess.TemplateID, payload, "")
}

func (s *Service) Session(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	sess, err := s.store.GetInterviewSession(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, err
}

// Prefill projects agent data onto the creation form without a session.
func (s *Service) Prefill(data any) *agentdata.PrefilledFormValues {
	return s.extractor.BuildPrefilledFormValues(data)
}

func (s *Service) turn(ctx context.Context, sessionID, templateID string, payload any, fallback string) (*Turn, error) {
	completion := agentdata.BuildCompletionResult(payload)
	t := &Turn{
		SessionID:  sessionID,
		Status:     models.SessionActive,
		Messages:   replyMessages(payload, fallback),
		Completion: completion,
	}

	if !completion.IsCompleted {
		return t, nil
	}
	if completion.AgentData == nil {
		logger.Debug("Interview %s signalled completion without agent data", sessionID)
		return t, nil
	}

	agentData := agentdata.NormalizeAgentData(completion.AgentData)
	agentData["from_template"] = true
	agentData["template_id"] = templateID
	prefill := s.extractor.BuildPrefilledFormValues(agentData)

	first, err := s.store.CompleteInterviewSession(ctx, sessionID, agentData, prefill)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}
	t.Status = models.SessionCompleted

	if !first {
		// Keep the outcome of the first completion.
		sess, err := s.Session(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		t.Prefill = sess.Prefill
		return t, nil
	}

	t.Prefill = prefill
	s.metrics.InterviewCompleted()
	logger.Interview("completed", sessionID)

	if s.publisher != nil {
		event := CompletedEvent{
			SessionID:  sessionID,
			TemplateID: templateID,
			AgentData:  agentData,
			Prefill:    prefill,
		}
		s.publisher.Publish(Topic(sessionID), EventCompleted, event)
		s.publisher.Publish("", EventCompleted, event)
	}
	return t, nil
}

// replyMessages returns the reply text of each element of an array payload,
// or of the payload itself, falling back when none carries text.
func replyMessages(payload any, fallback string) []string {
	var out []string
	if list, ok := payload.([]any); ok {
		for _, item := range list {
			if text := agentdata.ExtractMessageText(item, ""); strings.TrimSpace(text) != "" {
				out = append(out, text)
			}
		}
	} else if text := agentdata.ExtractMessageText(payload, ""); text != "" {
		out = append(out, text)
	}
	if len(out) == 0 && fallback != "" {
		out = append(out, fallback)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func (s *Service) template(id string) (*templates.Template, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty id", ErrTemplateNotFound)
	}
	tmpl, err := s.templates(id)
	if errors.Is(err, templates.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tmpl, err
}

// SubmitResult stores the agent summary the automation posts when the
// interview finishes on its side.
func (s *Service) SubmitResult(ctx context.Context, r models.InterviewResult) error {
	r.ChatSessionID = strings.TrimSpace(r.ChatSessionID)
	if r.ChatSessionID == "" {
		return fmt.Errorf("%w: missing chatSessionId", ErrInvalidResult)
	}
	if strings.TrimSpace(r.AgentName) == "" {
		return fmt.Errorf("%w: missing agentName", ErrInvalidResult)
	}
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = time.Now().UTC()
	}
	if err := s.store.SaveInterviewResult(ctx, &r); err != nil {
		return err
	}
	logger.Interview("finished", r.ChatSessionID)
	if s.init != nil {
		s.init.Forget(r.ChatSessionID)
	}
	if s.publisher != nil {
		s.publisher.Publish(Topic(r.ChatSessionID), EventFinished, r)
	}
	return nil
}

// Result returns the stored finish callback, or nil when none arrived.
func (s *Service) Result(ctx context.Context, sessionID string) (*models.InterviewResult, error) {
	r, err := s.store.GetInterviewResult(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return r, err
}
