package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative port")
	}

	cfg.Server.Port = 70000
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for port > 65535")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidate_AnswerLimits(t *testing.T) {
	cfg := Defaults()
	cfg.Answer.SearchLimit = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for searchLimit=0")
	}

	cfg = Defaults()
	cfg.Answer.RecentFallbackLimit = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for recentFallbackLimit=0")
	}

	// Preview must not be smaller than the citation snippet.
	cfg = Defaults()
	cfg.Answer.ContextPreviewLength = cfg.Answer.SnippetLength - 1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for preview < snippet")
	}
}

func TestValidate_FailoverChainReferences(t *testing.T) {
	cfg := Defaults()
	cfg.General.FailoverChain = []string{"gemini", "no-such-model"}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown model in failover chain")
	}
}

func TestValidate_DefaultModelReference(t *testing.T) {
	cfg := Defaults()
	cfg.General.DefaultModel = "no-such-model"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown default model")
	}
}

func TestValidate_TelegramNeedsToken(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Enabled = true
	cfg.Telegram.Token = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled telegram without token")
	}
}

// --- Env var expansion ---

func TestExpandEnvVars_Set(t *testing.T) {
	t.Setenv("WEBLOOM_TEST_KEY", "secret123")
	got := ExpandEnvVars(`{"apiKey": "${WEBLOOM_TEST_KEY}"}`)
	want := `{"apiKey": "secret123"}`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	os.Unsetenv("WEBLOOM_UNSET_VAR")
	got := ExpandEnvVars(`${WEBLOOM_UNSET_VAR:-fallback}`)
	if got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestExpandEnvVars_UnsetNoDefault(t *testing.T) {
	os.Unsetenv("WEBLOOM_UNSET_VAR")
	got := ExpandEnvVars(`${WEBLOOM_UNSET_VAR}`)
	if got != "${WEBLOOM_UNSET_VAR}" {
		t.Fatalf("expected original kept, got %q", got)
	}
}

// --- Expand ---

// Defaults keeps placeholders so Save writes a reusable template; anything
// that runs on defaults without a config file must expand them first.
func TestExpand_Defaults(t *testing.T) {
	t.Setenv("WEBLOOM_JWT_SECRET", "hmac-from-env")

	cfg := Expand(Defaults())

	if cfg.Auth.JWTSecret != "hmac-from-env" {
		t.Fatalf("expected jwt secret from env, got %q", cfg.Auth.JWTSecret)
	}
	if strings.HasPrefix(cfg.Database.Path, "~") {
		t.Fatalf("expected database.path resolved, got %q", cfg.Database.Path)
	}
	if strings.HasPrefix(cfg.Capture.ProfileDir, "~") {
		t.Fatalf("expected capture.profileDir resolved, got %q", cfg.Capture.ProfileDir)
	}
	if strings.Contains(cfg.Models["gemini"].APIKey, "${") {
		t.Fatalf("expected model key placeholder expanded, got %q", cfg.Models["gemini"].APIKey)
	}
}

func TestExpand_DefaultsWithoutEnv(t *testing.T) {
	os.Unsetenv("WEBLOOM_JWT_SECRET")
	os.Unsetenv("GEMINI_API_KEY")

	cfg := Expand(Defaults())

	if cfg.Auth.JWTSecret != "webloom-dev-secret" {
		t.Fatalf("expected built-in dev secret, got %q", cfg.Auth.JWTSecret)
	}
	// ${GEMINI_API_KEY:-} expands to empty, which disables the model.
	if cfg.Models["gemini"].APIKey != "" {
		t.Fatalf("expected empty api key, got %q", cfg.Models["gemini"].APIKey)
	}
}

func TestExpandEnvVars_EmptyDefault(t *testing.T) {
	os.Unsetenv("WEBLOOM_UNSET_VAR")
	if got := ExpandEnvVars(`${WEBLOOM_UNSET_VAR:-}`); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Defaults()
	cfg.Server.Port = 4000
	cfg.General.DefaultModel = "ollama"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Server.Port != 4000 {
		t.Fatalf("expected port 4000, got %d", loaded.Server.Port)
	}
	if loaded.General.DefaultModel != "ollama" {
		t.Fatalf("expected defaultModel ollama, got %q", loaded.General.DefaultModel)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_ExpandsEnvInConfig(t *testing.T) {
	t.Setenv("WEBLOOM_TEST_API_KEY", "from-env")
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Defaults()
	cfg.Models["gemini"] = ModelConfig{Enabled: true, APIKey: "${WEBLOOM_TEST_API_KEY}"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Models["gemini"].APIKey != "from-env" {
		t.Fatalf("expected expanded key, got %q", loaded.Models["gemini"].APIKey)
	}
}

// --- Path access ---

func TestGetByPath(t *testing.T) {
	cfg := Defaults()
	val, err := GetByPath(cfg, "server.port")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n, ok := val.(float64); !ok || int(n) != 3002 {
		t.Fatalf("expected 3002, got %v", val)
	}

	if _, err := GetByPath(cfg, "server.nothing"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSetByPath(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "server.port", "8088"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Server.Port != 8088 {
		t.Fatalf("expected 8088, got %d", cfg.Server.Port)
	}

	if err := SetByPath(cfg, "metrics.enabled", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("expected metrics.enabled=true")
	}
}

// --- Sanitize ---

func TestSanitize_MasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Models["gemini"] = ModelConfig{Enabled: true, APIKey: "sk-1234567890abcdef"}
	cfg.Telegram.Token = "123456:telegram-bot-token"

	s := Sanitize(cfg)
	if s.Models["gemini"].APIKey == cfg.Models["gemini"].APIKey {
		t.Fatal("expected API key masked")
	}
	if s.Auth.JWTSecret != "***" {
		t.Fatalf("expected jwt secret masked, got %q", s.Auth.JWTSecret)
	}
	if s.Telegram.Token == cfg.Telegram.Token {
		t.Fatal("expected telegram token masked")
	}

	// Original untouched.
	if cfg.Models["gemini"].APIKey != "sk-1234567890abcdef" {
		t.Fatal("sanitize mutated the original config")
	}
}
