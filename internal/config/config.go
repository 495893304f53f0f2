// Package config loads star_builder settings from a JSON or YAML file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the CLI and server read. File values are
// overridden by environment variables, which are overridden by flags.
type Config struct {
	// BaseURL is the backend the client façade and TUI talk to.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// DatabaseURL selects the store: postgres://, mongodb:// or memory://.
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`

	LLMProvider string `json:"llm_provider,omitempty" yaml:"llm_provider,omitempty"`
	APIKey      string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model       string `json:"model,omitempty" yaml:"model,omitempty"`
	LLMBaseURL  string `json:"llm_base_url,omitempty" yaml:"llm_base_url,omitempty"`

	JWTSecret          string `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty" yaml:"jwt_expiration_hours,omitempty"`

	RateLimitPerMinute int      `json:"rate_limit_per_minute,omitempty" yaml:"rate_limit_per_minute,omitempty"`
	AllowedOrigins     []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	// RateLimitAllowlist holds client IPs that bypass rate limiting.
	RateLimitAllowlist []string `json:"rate_limit_allowlist,omitempty" yaml:"rate_limit_allowlist,omitempty"`

	Token   string `json:"token,omitempty" yaml:"token,omitempty"`
	Verbose bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the values used when nothing else is set.
func Defaults() Config {
	return Config{
		BaseURL:            "http://localhost:8080",
		DatabaseURL:        "memory://",
		Port:               8080,
		LLMProvider:        "gemini",
		JWTExpirationHours: 24,
		RateLimitPerMinute: 10,
		AllowedOrigins:     []string{"*"},
	}
}

// LoadConfig reads a config file. Files ending in .yaml or .yml are parsed
// as YAML, anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return &cfg, nil
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv() error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	num := func(dst *int, key string) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str(&c.BaseURL, "STAR_BASE_URL")
	str(&c.DatabaseURL, "DATABASE_URL")
	str(&c.LLMProvider, "LLM_PROVIDER")
	str(&c.Model, "LLM_MODEL")
	str(&c.LLMBaseURL, "LLM_BASE_URL")
	str(&c.JWTSecret, "JWT_SECRET")
	str(&c.Token, "STAR_TOKEN")
	switch strings.ToLower(c.LLMProvider) {
	case "openai":
		str(&c.APIKey, "OPENAI_API_KEY", "LLM_API_KEY")
	default:
		str(&c.APIKey, "GEMINI_API_KEY", "LLM_API_KEY")
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("RATE_LIMIT_ALLOWLIST"); v != "" {
		c.RateLimitAllowlist = splitList(v)
	}
	if v := os.Getenv("VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid VERBOSE: %w", err)
		}
		c.Verbose = b
	}
	for key, dst := range map[string]*int{
		"PORT":                  &c.Port,
		"JWT_EXPIRATION_HOURS":  &c.JWTExpirationHours,
		"RATE_LIMIT_PER_MINUTE": &c.RateLimitPerMinute,
	} {
		if err := num(dst, key); err != nil {
			return err
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks value ranges. Required-ness is checked by the command that needs the value.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.JWTExpirationHours < 0 {
		return fmt.Errorf("config error: 'jwt_expiration_hours' must be non-negative")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("config error: 'rate_limit_per_minute' must be non-negative")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config error: 'base_url' must be an absolute http(s) URL: %q", c.BaseURL)
		}
	}
	switch strings.ToLower(c.LLMProvider) {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("config error: unsupported 'llm_provider' %q", c.LLMProvider)
	}
	return nil
}

// MergeWithDefaults returns a copy with zero fields filled from defaults.
// Booleans are not merged since unset and false look the same.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fillInt := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}

	fill(&result.BaseURL, defaults.BaseURL)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.LLMProvider, defaults.LLMProvider)
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.Model, defaults.Model)
	fill(&result.LLMBaseURL, defaults.LLMBaseURL)
	fill(&result.JWTSecret, defaults.JWTSecret)
	fill(&result.Token, defaults.Token)
	fillInt(&result.Port, defaults.Port)
	fillInt(&result.JWTExpirationHours, defaults.JWTExpirationHours)
	fillInt(&result.RateLimitPerMinute, defaults.RateLimitPerMinute)
	if len(result.AllowedOrigins) == 0 {
		result.AllowedOrigins = defaults.AllowedOrigins
	}
	return result
}

// Load reads path (if any), applies the environment, fills defaults and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// JWT returns the token settings derived from c.
func (c *Config) JWT() (*JWTConfig, error) {
	jc := &JWTConfig{Secret: c.JWTSecret, ExpirationHours: c.JWTExpirationHours}
	if jc.ExpirationHours == 0 {
		jc.ExpirationHours = 24
	}
	if err := jc.normalize(); err != nil {
		return nil, err
	}
	return jc, nil
}
