// Package config loads the process configuration of the folio binaries:
// an optional .env file, an optional YAML file, then FOLIO_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

// Mail providers.
const (
	MailLog      = "log"
	MailSMTP     = "smtp"
	MailSendGrid = "sendgrid"
	MailSES      = "ses"
)

// AppConfig is the whole process configuration.
type AppConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text or json

	Bot        BotConfig        `yaml:"bot"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Mail       MailConfig       `yaml:"mail"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	AWS        AWSConfig        `yaml:"aws"`
}

// BotConfig overrides the engine policy. Zero values keep the engine defaults.
type BotConfig struct {
	Version          string        `yaml:"version"`
	MinConfidence    float64       `yaml:"min_confidence"`
	MaxPromptRetries int           `yaml:"max_prompt_retries"`
	MaxStackDepth    int           `yaml:"max_stack_depth"`
	LockTTL          time.Duration `yaml:"lock_ttl"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
	// MaxInputSize bounds accepted utterances in bytes.
	MaxInputSize int `yaml:"max_input_size"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisPrefix   string        `yaml:"redis_prefix"`
	TTL           time.Duration `yaml:"ttl"`

	DynamoDBTable string `yaml:"dynamodb_table"`

	// EncryptionKey is a base64 AES-256 key; state is encrypted at rest when set.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys are previous keys still accepted for decryption.
	FallbackKeys []string `yaml:"fallback_keys"`
	// PIIPatterns are regular expressions masked in user data before saving.
	PIIPatterns []string `yaml:"pii_patterns"`
}

type MailConfig struct {
	Provider  string `yaml:"provider"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	// To is the site owner receiving contact requests.
	To string `yaml:"to"`

	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`

	SendGridAPIKey string `yaml:"sendgrid_api_key"`
}

type RecognizerConfig struct {
	// RulesPath and QnAPath replace the embedded portfolio files when set.
	RulesPath string `yaml:"rules_path"`
	QnAPath   string `yaml:"qna_path"`
	// Watch reloads the files when they change.
	Watch bool `yaml:"watch"`
}

type AWSConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	// Endpoint overrides the service endpoint, e.g. DynamoDB Local.
	Endpoint string `yaml:"endpoint"`
}

// Default returns the configuration used when nothing is set.
func Default() *AppConfig {
	return &AppConfig{
		LogLevel:  "info",
		LogFormat: "text",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Dir:     ".folio/conversations",
		},
		Mail: MailConfig{
			Provider: MailLog,
			SMTPPort: 587,
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
	}
}

// Load builds the configuration. envFile is loaded into the environment first
// when it exists (variables already set win); path is the YAML file, optional
// when empty.
func Load(path, envFile string) (*AppConfig, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FOLIO_* variables (and the standard AWS and
// SendGrid ones).
func (c *AppConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	env := envReader{lookup: lookup}

	env.str("FOLIO_LOG_LEVEL", &c.LogLevel)
	env.str("FOLIO_LOG_FORMAT", &c.LogFormat)

	env.str("FOLIO_BOT_VERSION", &c.Bot.Version)
	env.float("FOLIO_MIN_CONFIDENCE", &c.Bot.MinConfidence)
	env.int("FOLIO_MAX_PROMPT_RETRIES", &c.Bot.MaxPromptRetries)

	env.str("FOLIO_ADDR", &c.Server.Addr)
	env.bool("FOLIO_METRICS", &c.Server.Metrics)

	env.str("FOLIO_STORAGE_BACKEND", &c.Storage.Backend)
	env.str("FOLIO_STORAGE_DIR", &c.Storage.Dir)
	env.str("FOLIO_REDIS_ADDR", &c.Storage.RedisAddr)
	env.str("FOLIO_REDIS_PASSWORD", &c.Storage.RedisPassword)
	env.int("FOLIO_REDIS_DB", &c.Storage.RedisDB)
	env.duration("FOLIO_STORAGE_TTL", &c.Storage.TTL)
	env.str("FOLIO_DYNAMODB_TABLE", &c.Storage.DynamoDBTable)
	env.str("FOLIO_ENCRYPTION_KEY", &c.Storage.EncryptionKey)

	env.str("FOLIO_MAIL_PROVIDER", &c.Mail.Provider)
	env.str("FOLIO_MAIL_FROM", &c.Mail.FromEmail)
	env.str("FOLIO_MAIL_FROM_NAME", &c.Mail.FromName)
	env.str("FOLIO_MAIL_TO", &c.Mail.To)
	env.str("FOLIO_SMTP_HOST", &c.Mail.SMTPHost)
	env.int("FOLIO_SMTP_PORT", &c.Mail.SMTPPort)
	env.str("FOLIO_SMTP_USERNAME", &c.Mail.SMTPUsername)
	env.str("FOLIO_SMTP_PASSWORD", &c.Mail.SMTPPassword)
	env.str("SENDGRID_API_KEY", &c.Mail.SendGridAPIKey)

	env.str("FOLIO_RULES", &c.Recognizer.RulesPath)
	env.str("FOLIO_QNA", &c.Recognizer.QnAPath)
	env.bool("FOLIO_WATCH", &c.Recognizer.Watch)

	env.str("AWS_REGION", &c.AWS.Region)
	env.str("AWS_ACCESS_KEY_ID", &c.AWS.AccessKeyID)
	env.str("AWS_SECRET_ACCESS_KEY", &c.AWS.SecretAccessKey)
	env.str("FOLIO_AWS_ENDPOINT", &c.AWS.Endpoint)

	return errors.Join(env.errs...)
}

// Validate checks the enumerations and the settings each choice requires.
func (c *AppConfig) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			errs = append(errs, errors.New("storage: redis backend needs redis_addr"))
		}
	case BackendDynamoDB:
		if c.Storage.DynamoDBTable == "" {
			errs = append(errs, errors.New("storage: dynamodb backend needs dynamodb_table"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unknown backend %q", c.Storage.Backend))
	}

	for _, p := range c.Storage.PIIPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("storage: pii pattern %q: %w", p, err))
		}
	}

	switch c.Mail.Provider {
	case MailLog:
	case MailSMTP:
		if c.Mail.SMTPHost == "" {
			errs = append(errs, errors.New("mail: smtp provider needs smtp_host"))
		}
	case MailSendGrid:
		if c.Mail.SendGridAPIKey == "" {
			errs = append(errs, errors.New("mail: sendgrid provider needs an api key"))
		}
	case MailSES:
	default:
		errs = append(errs, fmt.Errorf("mail: unknown provider %q", c.Mail.Provider))
	}
	if c.Mail.Provider != MailLog && c.Mail.FromEmail == "" {
		errs = append(errs, errors.New("mail: from_email is required"))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (e *envReader) bool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
}
