package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"base_url": "https://stars.example.com",
		"database_url": "postgres://u:p@localhost/db",
		"port": 9090,
		"llm_provider": "openai",
		"allowed_origins": ["https://app.example.com"]
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://stars.example.com", cfg.BaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.AllowedOrigins)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "config.yml", "base_url: http://localhost:9999\nrate_limit_per_minute: 3\nverbose: true\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", cfg.BaseURL)
	assert.Equal(t, 3, cfg.RateLimitPerMinute)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "config path is empty")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadConfig(writeFile(t, "bad.json", "{ nope"))
	assert.ErrorContains(t, err, "failed to parse config JSON")

	_, err = LoadConfig(writeFile(t, "bad.yaml", "port: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config YAML")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017/stars")
	t.Setenv("PORT", "7000")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "gemini-test")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_ALLOWLIST", "10.0.0.1,127.0.0.1")
	t.Setenv("VERBOSE", "true")

	cfg := &Config{Port: 1}
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "mongodb://localhost:27017/stars", cfg.DatabaseURL)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.1", "127.0.0.1"}, cfg.RateLimitAllowlist)
	assert.True(t, cfg.Verbose)
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")
	err := (&Config{}).ApplyEnv()
	assert.ErrorContains(t, err, "invalid RATE_LIMIT_PER_MINUTE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults", cfg: Defaults()},
		{name: "bad port", cfg: Config{Port: 70000}, wantErr: "'port'"},
		{name: "negative rate", cfg: Config{RateLimitPerMinute: -1}, wantErr: "rate_limit_per_minute"},
		{name: "relative base url", cfg: Config{BaseURL: "/api"}, wantErr: "base_url"},
		{name: "ftp base url", cfg: Config{BaseURL: "ftp://x"}, wantErr: "base_url"},
		{name: "provider", cfg: Config{LLMProvider: "llama"}, wantErr: "llm_provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Port: 9000, APIKey: "mine"}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, "mine", merged.APIKey)
	assert.Equal(t, "memory://", merged.DatabaseURL)
	assert.Equal(t, 24, merged.JWTExpirationHours)
	assert.Equal(t, []string{"*"}, merged.AllowedOrigins)
	assert.Equal(t, 0, cfg.JWTExpirationHours, "receiver is not modified")
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "c.json", `{"port": 8181}`)
	t.Setenv("DATABASE_URL", "memory://")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)

	_, err = Load(writeFile(t, "bad.json", `{"port": -5}`))
	assert.Error(t, err)
}

func TestConfigJWT(t *testing.T) {
	_, err := (&Config{}).JWT()
	assert.ErrorContains(t, err, "JWT_SECRET is required")

	_, err = (&Config{JWTSecret: "short"}).JWT()
	assert.ErrorContains(t, err, "at least 16")

	jc, err := (&Config{JWTSecret: "0123456789abcdef"}).JWT()
	require.NoError(t, err)
	assert.Equal(t, 24, jc.ExpirationHours)
}
