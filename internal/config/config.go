package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for WebLoom.
type Config struct {
	General  GeneralConfig          `json:"general"`
	Server   ServerConfig           `json:"server"`
	Database DatabaseConfig         `json:"database"`
	Auth     AuthConfig             `json:"auth"`
	Models   map[string]ModelConfig `json:"models"`
	Answer   AnswerConfig           `json:"answer"`
	Capture  CaptureConfig          `json:"capture"`
	Telegram TelegramConfig         `json:"telegram"`
	Metrics  MetricsConfig          `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"` // optional log file path
	// DefaultModel names the entry in Models used for answering.
	DefaultModel string `json:"defaultModel"`
	// FailoverChain lists model names tried in order; overrides DefaultModel
	// when non-empty.
	FailoverChain []string `json:"failoverChain,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// CORSOrigin is sent as Access-Control-Allow-Origin. "*" by default so
	// the extension popup can reach the API from any page.
	CORSOrigin string `json:"corsOrigin,omitempty"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type AuthConfig struct {
	JWTSecret    string `json:"jwtSecret"`
	TokenTTLDays int    `json:"tokenTTLDays"`
}

// ModelConfig configures one remote language model.
type ModelConfig struct {
	Enabled bool   `json:"enabled"`
	APIBase string `json:"apiBase,omitempty"`
	APIKey  string `json:"apiKey,omitempty"`
	Model   string `json:"model,omitempty"`
}

// AnswerConfig tunes the question-answering pipeline.
type AnswerConfig struct {
	// SearchLimit caps substring-match retrieval.
	SearchLimit int `json:"searchLimit"`
	// RecentFallbackLimit caps the recency fallback used when no document
	// matches the question.
	RecentFallbackLimit int `json:"recentFallbackLimit"`
	// SnippetLength is the citation snippet size in characters.
	SnippetLength int `json:"snippetLength"`
	// ContextPreviewLength is the per-document preview size inside the
	// model context block. Larger than SnippetLength on purpose.
	ContextPreviewLength   int `json:"contextPreviewLength"`
	GenerateTimeoutSeconds int `json:"generateTimeoutSeconds"`
}

// CaptureConfig configures page-text capture (HTTP ingestion and the local
// chromedp capture command).
type CaptureConfig struct {
	// MaxContentLength caps stored page text, matching the extension.
	MaxContentLength int    `json:"maxContentLength"`
	ProfileDir       string `json:"profileDir,omitempty"`
	Headless         bool   `json:"headless"`
}

// TelegramConfig configures the optional Telegram Q&A channel.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token,omitempty"`
	AllowFrom []string `json:"allowFrom,omitempty"`
	// OwnerEmail scopes bot answers to one account's documents. Empty means
	// the bot answers over all stored documents (trusted local deployment).
	OwnerEmail string `json:"ownerEmail,omitempty"`
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.webloom).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".webloom"
	}
	return filepath.Join(home, ".webloom")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	Expand(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		// ${VAR:-} is a valid empty default, so presence of ":-" decides,
		// not the captured text.
		hasDefault := strings.Contains(match, ":-")
		defaultVal := ""
		if hasDefault && len(groups) >= 3 {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

// Expand resolves ${VAR} placeholders and ~/ prefixes in place. Load applies
// it after parsing; callers that fall back to Defaults must apply it too,
// since Defaults returns the unexpanded template that Save writes to disk.
func Expand(cfg *Config) *Config {
	cfg.Auth.JWTSecret = ExpandEnvVars(cfg.Auth.JWTSecret)
	cfg.Telegram.Token = ExpandEnvVars(cfg.Telegram.Token)
	for name, m := range cfg.Models {
		m.APIBase = ExpandEnvVars(m.APIBase)
		m.APIKey = ExpandEnvVars(m.APIKey)
		cfg.Models[name] = m
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Capture.ProfileDir = ExpandPath(cfg.Capture.ProfileDir)
	return cfg
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if cfg.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if cfg.Auth.TokenTTLDays < 1 {
		errs = append(errs, "auth.tokenTTLDays must be >= 1")
	}

	if cfg.Answer.SearchLimit < 1 {
		errs = append(errs, "answer.searchLimit must be >= 1")
	}
	if cfg.Answer.RecentFallbackLimit < 1 {
		errs = append(errs, "answer.recentFallbackLimit must be >= 1")
	}
	if cfg.Answer.SnippetLength < 1 {
		errs = append(errs, "answer.snippetLength must be >= 1")
	}
	if cfg.Answer.ContextPreviewLength < cfg.Answer.SnippetLength {
		errs = append(errs, "answer.contextPreviewLength must be >= answer.snippetLength")
	}
	if cfg.Answer.GenerateTimeoutSeconds < 1 {
		errs = append(errs, "answer.generateTimeoutSeconds must be >= 1")
	}

	if cfg.Capture.MaxContentLength < 100 {
		errs = append(errs, "capture.maxContentLength must be >= 100")
	}

	// Validate failover chain references exist in models.
	for _, name := range cfg.General.FailoverChain {
		if _, ok := cfg.Models[name]; !ok {
			errs = append(errs, fmt.Sprintf("general.failoverChain references unknown model: %s", name))
		}
	}
	if cfg.General.DefaultModel != "" {
		if _, ok := cfg.Models[cfg.General.DefaultModel]; !ok {
			errs = append(errs, fmt.Sprintf("general.defaultModel references unknown model: %s", cfg.General.DefaultModel))
		}
	}

	if cfg.Telegram.Enabled && cfg.Telegram.Token == "" {
		errs = append(errs, "telegram.token is required when telegram.enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
