package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/agentdesk/agentdesk/internal/agentdata"
	"github.com/agentdesk/agentdesk/internal/auth"
	"github.com/agentdesk/agentdesk/internal/database"
	"github.com/agentdesk/agentdesk/internal/handlers"
	"github.com/agentdesk/agentdesk/internal/interview"
	"github.com/agentdesk/agentdesk/internal/metrics"
	mw "github.com/agentdesk/agentdesk/internal/middleware"
	"github.com/agentdesk/agentdesk/internal/webhook"
	ws "github.com/agentdesk/agentdesk/internal/websocket"
)

type Server struct {
	Router    *chi.Mux
	DB        *database.DB
	Auth      *auth.Service
	WSHub     *ws.Hub
	Interview *interview.Service
}

type Config struct {
	DB            *database.DB
	Auth          *auth.Service
	Hub           *ws.Hub
	Interview     *interview.Service
	Extractor     *agentdata.Extractor
	Webhook       *webhook.Client
	Metrics       *metrics.Recorder
	AllowedOrigin string
	DevMode       bool
	DataDir       string
	BindAddress   string
	Port          int
}

func New(cfg Config) *Server {
	s := &Server{
		Router:    chi.NewRouter(),
		DB:        cfg.DB,
		Auth:      cfg.Auth,
		WSHub:     cfg.Hub,
		Interview: cfg.Interview,
	}

	s.setupMiddleware(cfg)
	s.setupRoutes(cfg)

	return s
}

func (s *Server) setupMiddleware(cfg Config) {
	origins := []string{cfg.AllowedOrigin}
	if cfg.DevMode {
		origins = append(origins, mw.DevOrigin)
	}

	s.Router.Use(chiMiddleware.RealIP)
	s.Router.Use(mw.RequestID)
	s.Router.Use(mw.SecurityHeaders)
	s.Router.Use(mw.Logger)
	s.Router.Use(mw.CORS(origins...))
	s.Router.Use(chiMiddleware.Recoverer)
}

func (s *Server) setupRoutes(cfg Config) {
	authHandler := handlers.NewAuthHandler(s.DB, s.Auth)
	setupHandler := handlers.NewSetupHandler(s.DB, s.Auth)
	interviewHandler := handlers.NewInterviewHandler(s.DB, s.Interview)
	toolsHandler := handlers.NewToolsHandler(cfg.Extractor.Catalog())
	templatesHandler := handlers.NewTemplatesHandler()
	formsHandler := handlers.NewFormsHandler(cfg.Extractor.Catalog())
	logsHandler := handlers.NewLogsHandler(s.DB)

	var webhookStatus handlers.WebhookStatus
	if cfg.Webhook != nil {
		webhookStatus = cfg.Webhook
	}
	var (
		clients   handlers.ClientCounter
		publisher handlers.Publisher
	)
	if s.WSHub != nil {
		clients, publisher = s.WSHub, s.WSHub
	}
	agentsHandler := handlers.NewAgentsHandler(s.DB, cfg.Extractor, publisher)
	systemHandler := handlers.NewSystemHandler(s.DB, cfg.DataDir, cfg.BindAddress, cfg.Port, webhookStatus, clients)

	if cfg.Metrics != nil {
		s.Router.Handle("/metrics", cfg.Metrics.Handler())
	}

	s.Router.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.With(mw.RateLimit(10, time.Minute)).Post("/login", authHandler.Login)
		})

		r.Route("/setup", func(r chi.Router) {
			r.With(mw.RateLimit(5, time.Minute)).Get("/status", setupHandler.Status)
			r.With(mw.RateLimit(5, time.Minute)).Post("/init", setupHandler.Init)
		})

		r.Get("/system/prerequisites", systemHandler.Prerequisites)
		r.Get("/system/health", systemHandler.Health)

		// Callbacks from the chat automation. It holds no dashboard session.
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit(60, time.Minute))
			r.Post("/interview/finish", interviewHandler.Finish)
			r.Get("/interview/finish", interviewHandler.FinishResult)
			r.Post("/interview/sessions/{id}/complete", interviewHandler.Complete)
		})

		// WebSocket (auth handled internally)
		if s.WSHub != nil {
			r.Get("/ws", s.WSHub.HandleWS)
		}

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(s.Auth))
			r.Use(mw.CSRFProtection)

			// Auth
			r.Post("/auth/logout", authHandler.Logout)
			r.Post("/auth/change-password", authHandler.ChangePassword)
			r.Get("/auth/me", authHandler.Me)

			// Interviews
			r.Route("/interview/sessions", func(r chi.Router) {
				r.Post("/", interviewHandler.Start)
				r.Get("/{id}", interviewHandler.Get)
				r.Post("/{id}/messages", interviewHandler.Send)
			})
			r.Post("/prefill", interviewHandler.Prefill)

			// Catalogs
			r.Route("/tools", func(r chi.Router) {
				r.Get("/workspace", toolsHandler.Workspace)
				r.Get("/mcp", toolsHandler.MCP)
				r.Get("/aliases", toolsHandler.Aliases)
				r.Post("/normalize", toolsHandler.Normalize)
			})
			r.Route("/templates", func(r chi.Router) {
				r.Get("/", templatesHandler.List)
				r.Get("/categories", templatesHandler.Categories)
				r.Get("/{id}", templatesHandler.Get)
			})
			r.Get("/forms/agent/schema", formsHandler.AgentSchema)

			// Agents
			r.Route("/agents", func(r chi.Router) {
				r.Get("/", agentsHandler.List)
				r.Post("/", agentsHandler.Create)
				r.Get("/{id}", agentsHandler.Get)
				r.Delete("/{id}", agentsHandler.Delete)
			})

			// Logs
			r.Get("/logs", logsHandler.List)

			// System
			r.Get("/system/info", systemHandler.Info)
		})
	})

	s.Router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}` + "\n"))
	})
}
