// Package config builds the process-wide configuration for taskchat.
//
// Values are resolved once at startup, in increasing priority:
// built-in defaults, an optional YAML file (TASKCHAT_CONFIG), an optional
// .env file in the working directory, and the process environment.
// The resulting *Config is treated as immutable and passed by pointer
// into the store, the MCP server, the agent and the HTTP API.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider selects the language-model backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// ToolTransport selects how the agent reaches the task tools.
type ToolTransport string

const (
	// TransportStdio spawns `taskchat mcp` and talks MCP over its stdin/stdout.
	TransportStdio ToolTransport = "stdio"
	// TransportInProcess binds an MCP client directly to an in-process server.
	TransportInProcess ToolTransport = "inprocess"
)

// Defaults.
const (
	DefaultDatabaseURL       = "sqlite://taskchat.db"
	DefaultModel             = "gpt-4o-mini"
	DefaultOllamaHost        = "http://localhost:11434"
	DefaultHTTPAddr          = ":8000"
	DefaultAPIPrefix         = "/api"
	DefaultCORSOriginPattern = `^http://(localhost|127\.0\.0\.1)(:\d+)?$`
	DefaultAgentTimeout      = 60 * time.Second
	DefaultAgentMaxSteps     = 8
	DefaultHistoryLimit      = 30
)

// DefaultModels is the model used per provider when none is configured.
var DefaultModels = map[Provider]string{
	ProviderOpenAI:    DefaultModel,
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderOllama:    "llama3.1",
}

// DefaultCORSOrigins are the deployed frontends allowed in addition to
// anything matching the origin pattern.
var DefaultCORSOrigins = []string{"https://mehreenasghar-phase3-chatbot.vercel.app"}

// Config holds all configuration values.
type Config struct {
	// Storage
	DatabaseURL string

	// Language model
	LLMProvider     Provider
	OpenAIAPIKey    string
	AnthropicAPIKey string
	Model           string
	OpenAIBaseURL   string
	OllamaHost      string

	// HTTP
	HTTPAddr          string
	APIPrefix         string
	CORSOrigins       []string
	CORSOriginPattern string

	// Agent
	AgentTimeout  time.Duration
	AgentMaxSteps int
	HistoryLimit  int
	ToolTransport ToolTransport

	// Logging
	LogLevel slog.Level
	LogFile  string
}

// Load reads .env (if present), the optional YAML file named by
// TASKCHAT_CONFIG, and the environment, then validates the result.
func Load() (*Config, error) {
	// .env is optional; a missing file is the common case in production.
	_ = godotenv.Load()

	fc, err := loadFile(os.Getenv("TASKCHAT_CONFIG"))
	if err != nil {
		return nil, err
	}
	return build(os.Getenv, fc)
}

// build resolves every field from env, then the file, then defaults.
// It is separated from Load so tests can supply a fake environment.
func build(getenv func(string) string, fc fileConfig) (*Config, error) {
	pick := func(key, fileVal, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		if v := strings.TrimSpace(fileVal); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		DatabaseURL: NormalizeDatabaseURL(pick("DATABASE_URL", fc.DatabaseURL, DefaultDatabaseURL)),

		LLMProvider:     Provider(strings.ToLower(pick("LLM_PROVIDER", fc.LLM.Provider, string(ProviderOpenAI)))),
		OpenAIAPIKey:    pick("OPENAI_API_KEY", fc.LLM.OpenAIAPIKey, ""),
		AnthropicAPIKey: pick("ANTHROPIC_API_KEY", fc.LLM.AnthropicAPIKey, ""),
		OpenAIBaseURL:   pick("OPENAI_BASE_URL", fc.LLM.OpenAIBaseURL, ""),
		OllamaHost:      pick("OLLAMA_HOST", fc.LLM.OllamaHost, DefaultOllamaHost),

		HTTPAddr:          pick("TASKCHAT_HTTP_ADDR", fc.HTTP.Addr, DefaultHTTPAddr),
		APIPrefix:         pick("TASKCHAT_API_PREFIX", fc.HTTP.APIPrefix, DefaultAPIPrefix),
		CORSOriginPattern: pick("TASKCHAT_CORS_ORIGIN_REGEX", fc.HTTP.CORSOriginRegex, DefaultCORSOriginPattern),

		ToolTransport: ToolTransport(strings.ToLower(pick("TASKCHAT_TOOL_TRANSPORT", fc.Agent.ToolTransport, string(TransportStdio)))),

		LogLevel: parseLogLevel(pick("LOG_LEVEL", fc.Logging.Level, "INFO")),
		LogFile:  pick("TASKCHAT_LOG_FILE", fc.Logging.File, ""),
	}

	// LLM_MODEL is provider-neutral; OPENAI_MODEL is honoured for
	// existing deployments. Both env vars win over the file.
	cfg.Model = pick("LLM_MODEL", "", pick("OPENAI_MODEL", fc.LLM.Model, DefaultModels[cfg.LLMProvider]))

	cfg.CORSOrigins = DefaultCORSOrigins
	if raw := pick("TASKCHAT_CORS_ORIGINS", strings.Join(fc.HTTP.CORSOrigins, ","), ""); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}

	var err error
	if cfg.AgentTimeout, err = parseDuration("TASKCHAT_AGENT_TIMEOUT", pick("TASKCHAT_AGENT_TIMEOUT", fc.Agent.Timeout, ""), DefaultAgentTimeout); err != nil {
		return nil, err
	}
	if cfg.AgentMaxSteps, err = parseInt("TASKCHAT_AGENT_MAX_STEPS", pick("TASKCHAT_AGENT_MAX_STEPS", fc.Agent.MaxSteps, ""), DefaultAgentMaxSteps); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = parseInt("TASKCHAT_HISTORY_LIMIT", pick("TASKCHAT_HISTORY_LIMIT", fc.Agent.HistoryLimit, ""), DefaultHistoryLimit); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks that enumerated and numeric fields are usable.
// A missing model credential is NOT a validation error: it is reported
// per chat request so the CRUD surface keeps working without one.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM provider %q", c.LLMProvider))
	}

	switch c.ToolTransport {
	case TransportStdio, TransportInProcess:
	default:
		errs = append(errs, fmt.Errorf("unsupported tool transport %q", c.ToolTransport))
	}

	if c.Model == "" {
		errs = append(errs, errors.New("no model configured"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is empty"))
	}
	if c.AgentTimeout <= 0 {
		errs = append(errs, errors.New("agent timeout must be positive"))
	}
	if c.AgentMaxSteps < 1 {
		errs = append(errs, errors.New("agent max steps must be at least 1"))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, errors.New("history limit must not be negative"))
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("api prefix %q must start with /", c.APIPrefix))
	}
	if c.CORSOriginPattern != "" {
		if _, err := regexp.Compile(c.CORSOriginPattern); err != nil {
			errs = append(errs, fmt.Errorf("cors origin regex: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Credential returns the API key for the configured provider.
// Ollama needs none and always returns "".
func (c *Config) Credential() string {
	switch c.LLMProvider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

// CredentialEnv names the environment variable holding the credential,
// or "" when the provider does not need one.
func (c *Config) CredentialEnv() string {
	switch c.LLMProvider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// HasCredential reports whether the configured provider can be called.
func (c *Config) HasCredential() bool {
	return c.CredentialEnv() == "" || c.Credential() != ""
}

// NormalizeDatabaseURL enforces sslmode=require on postgres URLs that do
// not set sslmode. Managed Postgres endpoints drop plaintext sessions.
// Other URLs are returned unchanged.
func NormalizeDatabaseURL(raw string) string {
	if !strings.HasPrefix(raw, "postgres://") && !strings.HasPrefix(raw, "postgresql://") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("sslmode") {
		return raw
	}
	q.Set("sslmode", "require")
	u.RawQuery = q.Encode()
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(key, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		// Bare integers are seconds.
		if n, nerr := strconv.Atoi(s); nerr == nil {
			return time.Duration(n) * time.Second, nil
		}
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, s, err)
	}
	return d, nil
}

func parseInt(key, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, s, err)
	}
	return n, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
