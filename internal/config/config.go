package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          int    `yaml:"port"`
	BindAddress   string `yaml:"bind_address"`
	DataDir       string `yaml:"data_dir"`
	LogLevel      string `yaml:"log_level"`
	JWTSecret     string `yaml:"jwt_secret"`
	DevMode       bool   `yaml:"dev_mode"`
	AllowedOrigin string `yaml:"allowed_origin"`

	// Chat automation endpoint that runs the interview conversation.
	WebhookURL     string        `yaml:"webhook_url"`
	WebhookTimeout time.Duration `yaml:"webhook_timeout"`
	WebhookRetries int           `yaml:"webhook_retries"`

	// Optional JSON or YAML file replacing the embedded MCP tool catalog.
	MCPCatalogPath string `yaml:"mcp_catalog_path"`

	InitCacheSize        int `yaml:"init_cache_size"`
	SessionRetentionDays int `yaml:"session_retention_days"`
}

func defaults() *Config {
	return &Config{
		Port:                 41295,
		BindAddress:          "127.0.0.1",
		DataDir:              resolveDataDir(),
		LogLevel:             "info",
		AllowedOrigin:        "http://localhost:5173",
		WebhookTimeout:       60 * time.Second,
		WebhookRetries:       3,
		InitCacheSize:        1000,
		SessionRetentionDays: 30,
	}
}

// Load reads configuration from the file named by AGENTDESK_CONFIG, if any,
// then applies AGENTDESK_* environment overrides.
func Load() (*Config, error) {
	return LoadFS(afero.NewOsFs())
}

// LoadFS is Load with the config file read from fsys.
func LoadFS(fsys afero.Fs) (*Config, error) {
	cfg := defaults()

	if path := getEnv("AGENTDESK_CONFIG", ""); path != "" {
		if err := cfg.readFile(fsys, path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	return cfg, nil
}

func (cfg *Config) readFile(fsys afero.Fs, path string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv() {
	if p := getEnv("AGENTDESK_PORT", ""); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			cfg.Port = port
		}
	}
	if b := getEnv("AGENTDESK_BIND", ""); b != "" {
		cfg.BindAddress = b
	}
	if d := getEnv("AGENTDESK_DATA_DIR", ""); d != "" {
		cfg.DataDir = d
	}
	if l := getEnv("AGENTDESK_LOG_LEVEL", ""); l != "" {
		cfg.LogLevel = l
	}
	if s := getEnv("AGENTDESK_JWT_SECRET", ""); s != "" {
		cfg.JWTSecret = s
	}
	if d := getEnv("AGENTDESK_DEV", ""); d != "" {
		cfg.DevMode = d == "true"
	}
	if o := getEnv("AGENTDESK_ALLOWED_ORIGIN", ""); o != "" {
		cfg.AllowedOrigin = o
	}
	if u := getEnv("AGENTDESK_WEBHOOK_URL", ""); u != "" {
		cfg.WebhookURL = u
	}
	if t := getEnv("AGENTDESK_WEBHOOK_TIMEOUT", ""); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.WebhookTimeout = d
		}
	}
	if r := getEnv("AGENTDESK_WEBHOOK_RETRIES", ""); r != "" {
		if n, err := strconv.Atoi(r); err == nil && n >= 0 {
			cfg.WebhookRetries = n
		}
	}
	if p := getEnv("AGENTDESK_MCP_CATALOG", ""); p != "" {
		cfg.MCPCatalogPath = p
	}
	if s := getEnv("AGENTDESK_INIT_CACHE_SIZE", ""); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.InitCacheSize = n
		}
	}
	if d := getEnv("AGENTDESK_RETENTION_DAYS", ""); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			cfg.SessionRetentionDays = n
		}
	}
}

// SessionRetention is SessionRetentionDays as a duration.
func (cfg *Config) SessionRetention() time.Duration {
	return time.Duration(cfg.SessionRetentionDays) * 24 * time.Hour
}

func resolveDataDir() string {
	// Resolve data dir relative to the executable, not the CWD
	exe, err := os.Executable()
	if err != nil {
		return "./data"
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "./data"
	}
	return filepath.Join(filepath.Dir(exe), "data")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
