package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML configuration file. Every value is
// a string so env-style values ("60s", "30") parse the same way from both
// sources.
type fileConfig struct {
	DatabaseURL string `yaml:"database_url"`

	LLM struct {
		Provider        string `yaml:"provider"`
		Model           string `yaml:"model"`
		OpenAIAPIKey    string `yaml:"openai_api_key"`
		AnthropicAPIKey string `yaml:"anthropic_api_key"`
		OpenAIBaseURL   string `yaml:"openai_base_url"`
		OllamaHost      string `yaml:"ollama_host"`
	} `yaml:"llm"`

	HTTP struct {
		Addr            string   `yaml:"addr"`
		APIPrefix       string   `yaml:"api_prefix"`
		CORSOrigins     []string `yaml:"cors_origins"`
		CORSOriginRegex string   `yaml:"cors_origin_regex"`
	} `yaml:"http"`

	Agent struct {
		Timeout       string `yaml:"timeout"`
		MaxSteps      string `yaml:"max_steps"`
		HistoryLimit  string `yaml:"history_limit"`
		ToolTransport string `yaml:"tool_transport"`
	} `yaml:"agent"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// loadFile reads the YAML file at path. An empty path yields an empty
// fileConfig. ${VAR_NAME} references are expanded from the environment
// before parsing so secrets can stay out of the file.
func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
		return fc, fmt.Errorf("parsing config file: %w", err)
	}
	return fc, nil
}

// expandEnvVars replaces ${VAR_NAME} with the variable's value, or "" if unset.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envRef.FindStringSubmatch(match)[1])
	})
}
