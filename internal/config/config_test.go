package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fakeEnv(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

// --- build ---

func TestBuild_Defaults(t *testing.T) {
	cfg, err := build(fakeEnv(nil), fileConfig{})
	if err != nil {
		t.Fatalf("build() error: %v", err)
	}

	if cfg.DatabaseURL != DefaultDatabaseURL {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, DefaultDatabaseURL)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("LLMProvider = %q, want openai", cfg.LLMProvider)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want :8000", cfg.HTTPAddr)
	}
	if cfg.APIPrefix != "/api" {
		t.Errorf("APIPrefix = %q, want /api", cfg.APIPrefix)
	}
	if cfg.AgentTimeout != 60*time.Second {
		t.Errorf("AgentTimeout = %v, want 60s", cfg.AgentTimeout)
	}
	if cfg.AgentMaxSteps != 8 {
		t.Errorf("AgentMaxSteps = %d, want 8", cfg.AgentMaxSteps)
	}
	if cfg.HistoryLimit != 30 {
		t.Errorf("HistoryLimit = %d, want 30", cfg.HistoryLimit)
	}
	if cfg.ToolTransport != TransportStdio {
		t.Errorf("ToolTransport = %q, want stdio", cfg.ToolTransport)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != DefaultCORSOrigins[0] {
		t.Errorf("CORSOrigins = %v, want %v", cfg.CORSOrigins, DefaultCORSOrigins)
	}
}

func TestBuild_EnvOverridesFile(t *testing.T) {
	var fc fileConfig
	fc.LLM.Model = "from-file"
	fc.Agent.HistoryLimit = "10"
	fc.HTTP.Addr = ":9000"

	cfg, err := build(fakeEnv(map[string]string{
		"LLM_MODEL":              "from-env",
		"TASKCHAT_AGENT_TIMEOUT": "15",
		"TASKCHAT_CORS_ORIGINS":  "https://a.example, https://b.example ,",
		"LOG_LEVEL":              "debug",
	}), fc)
	if err != nil {
		t.Fatalf("build() error: %v", err)
	}

	if cfg.Model != "from-env" {
		t.Errorf("Model = %q, want from-env", cfg.Model)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d, want 10 from file", cfg.HistoryLimit)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want :9000 from file", cfg.HTTPAddr)
	}
	if cfg.AgentTimeout != 15*time.Second {
		t.Errorf("AgentTimeout = %v, want 15s for bare integer", cfg.AgentTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v, want two trimmed origins", cfg.CORSOrigins)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
}

func TestBuild_ModelDefaultsPerProvider(t *testing.T) {
	cfg, err := build(fakeEnv(map[string]string{"LLM_PROVIDER": "anthropic"}), fileConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != DefaultModels[ProviderAnthropic] {
		t.Errorf("Model = %q, want anthropic default", cfg.Model)
	}

	cfg, err = build(fakeEnv(map[string]string{"OPENAI_MODEL": "gpt-5"}), fileConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "gpt-5" {
		t.Errorf("Model = %q, want OPENAI_MODEL fallback", cfg.Model)
	}
}

func TestBuild_ModelEnvBeatsFile(t *testing.T) {
	var fc fileConfig
	fc.LLM.Model = "from-file"

	cfg, err := build(fakeEnv(map[string]string{"OPENAI_MODEL": "from-openai-env"}), fc)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "from-openai-env" {
		t.Errorf("Model = %q, want OPENAI_MODEL over file", cfg.Model)
	}

	cfg, err = build(fakeEnv(map[string]string{"LLM_MODEL": "neutral", "OPENAI_MODEL": "openai"}), fc)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "neutral" {
		t.Errorf("Model = %q, want LLM_MODEL first", cfg.Model)
	}

	cfg, err = build(fakeEnv(nil), fc)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "from-file" {
		t.Errorf("Model = %q, want file value without env", cfg.Model)
	}
}

func TestBuild_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"provider", map[string]string{"LLM_PROVIDER": "bard"}},
		{"transport", map[string]string{"TASKCHAT_TOOL_TRANSPORT": "carrier-pigeon"}},
		{"max steps", map[string]string{"TASKCHAT_AGENT_MAX_STEPS": "0"}},
		{"history not int", map[string]string{"TASKCHAT_HISTORY_LIMIT": "lots"}},
		{"timeout", map[string]string{"TASKCHAT_AGENT_TIMEOUT": "soon"}},
		{"prefix", map[string]string{"TASKCHAT_API_PREFIX": "api"}},
		{"regex", map[string]string{"TASKCHAT_CORS_ORIGIN_REGEX": "(unclosed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := build(fakeEnv(tt.env), fileConfig{}); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestBuild_MissingCredentialIsNotAnError(t *testing.T) {
	cfg, err := build(fakeEnv(nil), fileConfig{})
	if err != nil {
		t.Fatalf("build() error: %v", err)
	}
	if cfg.HasCredential() {
		t.Error("HasCredential() = true with no OPENAI_API_KEY")
	}
	if cfg.CredentialEnv() != "OPENAI_API_KEY" {
		t.Errorf("CredentialEnv() = %q", cfg.CredentialEnv())
	}
}

// --- Credential ---

func TestCredential_PerProvider(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "sk-openai", AnthropicAPIKey: "sk-ant"}

	cfg.LLMProvider = ProviderOpenAI
	if cfg.Credential() != "sk-openai" {
		t.Errorf("openai credential = %q", cfg.Credential())
	}
	cfg.LLMProvider = ProviderAnthropic
	if cfg.Credential() != "sk-ant" || cfg.CredentialEnv() != "ANTHROPIC_API_KEY" {
		t.Errorf("anthropic credential = %q env = %q", cfg.Credential(), cfg.CredentialEnv())
	}
	cfg.LLMProvider = ProviderOllama
	if !cfg.HasCredential() {
		t.Error("ollama should not need a credential")
	}
}

// --- NormalizeDatabaseURL ---

func TestNormalizeDatabaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"sqlite://taskchat.db", "sqlite://taskchat.db"},
		{"postgres://u:p@db.example/app", "postgres://u:p@db.example/app?sslmode=require"},
		{"postgresql://u@db.example/app?connect_timeout=5", "postgresql://u@db.example/app?connect_timeout=5&sslmode=require"},
		{"postgres://u@db.example/app?sslmode=disable", "postgres://u@db.example/app?sslmode=disable"},
	}
	for _, tt := range tests {
		if got := NormalizeDatabaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeDatabaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- loadFile ---

func TestLoadFile_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TASKCHAT_TEST_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "taskchat.yaml")
	content := `
database_url: sqlite://file.db
llm:
  provider: anthropic
  anthropic_api_key: ${TASKCHAT_TEST_KEY}
agent:
  max_steps: "4"
http:
  cors_origins:
    - https://one.example
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	fc, err := loadFile(path)
	if err != nil {
		t.Fatalf("loadFile() error: %v", err)
	}
	if fc.LLM.AnthropicAPIKey != "sk-from-env" {
		t.Errorf("AnthropicAPIKey = %q, want expanded value", fc.LLM.AnthropicAPIKey)
	}

	cfg, err := build(fakeEnv(nil), fc)
	if err != nil {
		t.Fatalf("build() error: %v", err)
	}
	if cfg.LLMProvider != ProviderAnthropic || cfg.AgentMaxSteps != 4 || cfg.DatabaseURL != "sqlite://file.db" {
		t.Errorf("unexpected config from file: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://one.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadFile_EmptyPath(t *testing.T) {
	fc, err := loadFile("")
	if err != nil {
		t.Fatalf("loadFile(\"\") error: %v", err)
	}
	if fc.DatabaseURL != "" {
		t.Errorf("expected zero fileConfig, got %+v", fc)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := loadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// --- logging ---

func TestSetupLoggerWithWriters_FansOut(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("task added", "task_id", 7)

	if !strings.Contains(stderr.String(), "task added") {
		t.Errorf("stderr missing record: %q", stderr.String())
	}
	if !strings.Contains(file.String(), `"task_id":7`) {
		t.Errorf("file missing JSON record: %q", file.String())
	}
	if strings.Contains(stderr.String()+file.String(), "hidden") {
		t.Error("debug record should be filtered at INFO")
	}
}

func TestSetupLogger_FileCleanup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskchat.log")
	logger, cleanup := SetupLogger(path, slog.LevelInfo)
	logger.Info("hello")
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file = %q, want record", data)
	}
}
