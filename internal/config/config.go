package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

// OracleConfig holds the prompt templates fed to the LLM. Empty fields
// fall back to the defaults embedded in the oracle package. Templates
// are fmt strings: Related receives (term, max items), Explanation
// receives (term), Precise is appended verbatim in precise mode.
type OracleConfig struct {
	RelatedPrompt     string `toml:"related_prompt"`
	PreciseAddendum   string `toml:"precise_addendum"`
	ExplanationPrompt string `toml:"explanation_prompt"`
	MaxItems          int    `toml:"max_items"`
}

type ServerConfig struct {
	Port               string `toml:"port"`
	RequestTimeoutSecs int    `toml:"request_timeout_secs"`
}

type Config struct {
	LLM    LLMConfig    `toml:"llm"`
	Oracle OracleConfig `toml:"oracle"`
	Server ServerConfig `toml:"server"`
}

func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "gpt-oss:latest",
			BaseURL:  "http://localhost:11434",
		},
		Oracle: OracleConfig{
			MaxItems: 8,
		},
		Server: ServerConfig{
			Port:               "8080",
			RequestTimeoutSecs: 30,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return cfg, nil
}

// ApplyEnv layers environment variables over the file values so
// deployments can override credentials without editing TOML.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
}
