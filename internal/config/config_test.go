package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, MailLog, cfg.Mail.Provider)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
bot:
  version: "2"
  min_confidence: 0.6
server:
  addr: ":9000"
  metrics: true
storage:
  backend: redis
  redis_addr: localhost:6379
  ttl: 24h
  pii_patterns: ["(?i)email"]
mail:
  provider: smtp
  from_email: bot@example.com
  smtp_host: smtp.example.com
`), 0o644))

	t.Setenv("FOLIO_ADDR", ":7000")
	t.Setenv("FOLIO_REDIS_DB", "3")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "2", cfg.Bot.Version)
	assert.InDelta(t, 0.6, cfg.Bot.MinConfidence, 1e-9)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Metrics)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, 3, cfg.Storage.RedisDB)
	assert.Equal(t, 24*time.Hour, cfg.Storage.TTL)
	assert.Equal(t, []string{"(?i)email"}, cfg.Storage.PIIPatterns)
	assert.Equal(t, "smtp.example.com", cfg.Mail.SMTPHost)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FOLIO_MAIL_TO=owner@example.com\n"), 0o644))
	// Setenv registers the restore; godotenv only fills unset variables.
	t.Setenv("FOLIO_MAIL_TO", "")
	require.NoError(t, os.Unsetenv("FOLIO_MAIL_TO"))

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", cfg.Mail.To)

	_, err = Load("", filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0o644))
	_, err = Load(path, "")
	assert.Error(t, err)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	env := map[string]string{
		"FOLIO_REDIS_DB":       "three",
		"FOLIO_METRICS":        "maybe",
		"FOLIO_STORAGE_TTL":    "1 day",
		"FOLIO_MIN_CONFIDENCE": "high",
	}
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	for key := range env {
		assert.Contains(t, err.Error(), key)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"defaults", func(*AppConfig) {}, ""},
		{"unknown backend", func(c *AppConfig) { c.Storage.Backend = "mongo" }, "unknown backend"},
		{"redis without addr", func(c *AppConfig) { c.Storage.Backend = BackendRedis }, "redis_addr"},
		{"dynamodb without table", func(c *AppConfig) { c.Storage.Backend = BackendDynamoDB }, "dynamodb_table"},
		{"sendgrid without key", func(c *AppConfig) {
			c.Mail.Provider = MailSendGrid
			c.Mail.FromEmail = "bot@example.com"
		}, "api key"},
		{"ses without from", func(c *AppConfig) { c.Mail.Provider = MailSES }, "from_email"},
		{"unknown provider", func(c *AppConfig) { c.Mail.Provider = "pigeon" }, "unknown provider"},
		{"bad log format", func(c *AppConfig) { c.LogFormat = "xml" }, "log_format"},
		{"bad pii pattern", func(c *AppConfig) { c.Storage.PIIPatterns = []string{"(email"} }, "pii pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
