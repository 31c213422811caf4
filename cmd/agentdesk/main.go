package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/agentdesk/agentdesk/internal/agentdata"
	"github.com/agentdesk/agentdesk/internal/auth"
	"github.com/agentdesk/agentdesk/internal/config"
	"github.com/agentdesk/agentdesk/internal/database"
	"github.com/agentdesk/agentdesk/internal/handlers"
	"github.com/agentdesk/agentdesk/internal/interview"
	"github.com/agentdesk/agentdesk/internal/logger"
	"github.com/agentdesk/agentdesk/internal/metrics"
	"github.com/agentdesk/agentdesk/internal/middleware"
	"github.com/agentdesk/agentdesk/internal/models"
	"github.com/agentdesk/agentdesk/internal/scheduler"
	"github.com/agentdesk/agentdesk/internal/server"
	"github.com/agentdesk/agentdesk/internal/toolcatalog"
	"github.com/agentdesk/agentdesk/internal/webhook"
	ws "github.com/agentdesk/agentdesk/internal/websocket"
)

var version = "dev"

func main() {
	if len(os.Args) == 2 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println("agentdesk " + version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.Warn("%v, using info", err)
	}

	logger.Banner(version)
	handlers.AppVersion = version

	db, err := database.New(cfg.DataDir)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}
	defer db.Close()

	jwtSecret, err := resolveJWTSecret(cfg, db)
	if err != nil {
		logger.Fatal("Failed to resolve JWT secret: %v", err)
	}
	authService := auth.NewService(jwtSecret)

	catalog, err := toolcatalog.Load(afero.NewOsFs(), cfg.MCPCatalogPath)
	if err != nil {
		logger.Fatal("Failed to load MCP tool catalog: %v", err)
	}
	logger.Info("Loaded %d workspace and %d MCP tools", len(catalog.WorkspaceIDs()), len(catalog.MCPIDs()))
	extractor := agentdata.NewExtractor(catalog)

	rec := metrics.NewDefault()

	origins := []string{cfg.AllowedOrigin}
	if cfg.DevMode {
		origins = append(origins, middleware.DevOrigin)
	}
	hub := ws.NewHub(authService, origins...)
	go hub.Run()

	db.OnAudit = func(action, category string) {
		hub.Publish("", "audit_log_created", models.WSAuditLogCreated{
			Action: action, Category: category,
		})
	}

	client := webhook.New(webhook.Options{
		URL:     cfg.WebhookURL,
		Timeout: cfg.WebhookTimeout,
		Retries: cfg.WebhookRetries,
		Metrics: rec,
	})
	if !client.Configured() {
		logger.Warn("AGENTDESK_WEBHOOK_URL is not set. Interviews are unavailable until it is configured.")
	}

	initCache, err := webhook.NewInitCache(client, cfg.InitCacheSize, cfg.SessionRetention(), rec)
	if err != nil {
		logger.Fatal("Failed to create init cache: %v", err)
	}
	defer initCache.Close()

	interviews := interview.NewService(interview.Options{
		Store:     db,
		Client:    client,
		InitCache: initCache,
		Extractor: extractor,
		Publisher: hub,
		Metrics:   rec,
	})

	sched := scheduler.New(db, cfg.SessionRetention())
	sched.Start()

	srv := server.New(server.Config{
		DB:            db,
		Auth:          authService,
		Hub:           hub,
		Interview:     interviews,
		Extractor:     extractor,
		Webhook:       client,
		Metrics:       rec,
		AllowedOrigin: cfg.AllowedOrigin,
		DevMode:       cfg.DevMode,
		DataDir:       cfg.DataDir,
		BindAddress:   cfg.BindAddress,
		Port:          cfg.Port,
	})

	hasAdmin, err := db.HasAdminUser()
	if err != nil {
		logger.Fatal("Failed to check admin user: %v", err)
	}
	if !hasAdmin {
		logger.Warn("No admin user found. Call POST /api/v1/setup/init to complete setup.")
	}

	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)
	if cfg.BindAddress != "127.0.0.1" && cfg.BindAddress != "localhost" {
		logger.Warn("Binding to %s, accessible from the network. Use AGENTDESK_BIND=127.0.0.1 for localhost-only.", cfg.BindAddress)
	}
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     srv.Router,
		ReadTimeout: 15 * time.Second,
		// Webhook turns can take as long as the automation timeout.
		WriteTimeout: cfg.WebhookTimeout*time.Duration(cfg.WebhookRetries+1) + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Listen(addr, fmt.Sprintf("http://localhost:%d", cfg.Port), cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error: %v", err)
		}
	}()

	<-done
	logger.Shutdown("Shutting down server...")

	sched.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal("Server shutdown failed: %v", err)
	}

	logger.Bye()
}

// resolveJWTSecret prefers the configured secret, then the persisted one,
// and otherwise generates and persists a new secret so tokens survive
// restarts.
func resolveJWTSecret(cfg *config.Config, db *database.DB) (string, error) {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret, nil
	}
	stored, err := db.Setting("jwt_secret")
	if err == nil && stored != "" {
		return stored, nil
	}
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return "", err
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return "", err
	}
	if err := db.SetSetting("jwt_secret", secret); err != nil {
		logger.Error("Failed to persist JWT secret: %v", err)
	} else {
		logger.Success("Generated and persisted JWT secret")
	}
	return secret, nil
}
