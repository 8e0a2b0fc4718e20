package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for ivv-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8443"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI model endpoints (chat + embeddings)
	AI AIConfig `yaml:"ai"`

	// Blob storage for report attachments
	Storage StorageConfig `yaml:"storage"`

	// Orphan attachment reaper
	Reaper ReaperConfig `yaml:"reaper"`

	// Semantic search tuning
	Search SearchConfig `yaml:"search"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without an identity provider.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`

	// WebhookSecret signs identity-provider webhook payloads (HMAC-SHA256).
	WebhookSecret string `yaml:"-" env:"IDENTITY_WEBHOOK_SECRET"` // Secret - not in YAML
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ivv"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ivv_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// AIConfig holds generative model and embedding endpoints.
type AIConfig struct {
	LLMBaseURL     string `yaml:"llm_base_url" env:"AI_LLM_BASE_URL" env-default:"https://api.openai.com/v1"`
	LLMModel       string `yaml:"llm_model" env:"AI_LLM_MODEL" env-default:"gpt-4o-mini"`
	EmbeddingModel string `yaml:"embedding_model" env:"AI_EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
	APIKey         string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
}

// StorageConfig holds blob storage settings for report attachments.
type StorageConfig struct {
	Bucket string `yaml:"bucket" env:"GCS_BUCKET" env-default:""`
	// CredentialsJSON allows passing explicit service-account JSON locally.
	// Leave empty to use application default credentials.
	CredentialsJSON string `yaml:"-" env:"GCS_CREDENTIALS_JSON"` // Secret - not in YAML
	// UploadURLTTLMinutes bounds how long a signed upload URL stays valid.
	UploadURLTTLMinutes int `yaml:"upload_url_ttl_minutes" env:"STORAGE_UPLOAD_URL_TTL_MINUTES" env-default:"15"`
}

// ReaperConfig holds orphan attachment reaper settings.
type ReaperConfig struct {
	Enabled bool `yaml:"enabled" env:"REAPER_ENABLED" env-default:"true"`
	// IntervalMinutes is how often the reaper sweeps the bucket.
	IntervalMinutes int `yaml:"interval_minutes" env:"REAPER_INTERVAL_MINUTES" env-default:"60"`
	// GraceMinutes protects freshly uploaded blobs that are not yet linked
	// to a report. Defaults to one sweep interval when zero.
	GraceMinutes int `yaml:"grace_minutes" env:"REAPER_GRACE_MINUTES" env-default:"0"`
}

// SearchConfig holds semantic search tuning.
type SearchConfig struct {
	// TopK is the default number of search hits returned.
	TopK int `yaml:"top_k" env:"SEARCH_TOP_K" env-default:"5"`
	// AnswerContextSize is how many entries ground a synthesized answer.
	AnswerContextSize int `yaml:"answer_context_size" env:"SEARCH_ANSWER_CONTEXT_SIZE" env-default:"10"`
}

// Interval returns the sweep interval as a duration.
func (c *ReaperConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Grace returns the minimum blob age before a blob is eligible for deletion.
// Falls back to one sweep interval when unset.
func (c *ReaperConfig) Grace() time.Duration {
	if c.GraceMinutes <= 0 {
		return c.Interval()
	}
	return time.Duration(c.GraceMinutes) * time.Minute
}

// UploadURLTTL returns the signed upload URL lifetime.
func (c *StorageConfig) UploadURLTTL() time.Duration {
	return time.Duration(c.UploadURLTTLMinutes) * time.Minute
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if cfg.Auth.EnableVerification && len(cfg.Auth.JWKSEndpoints) == 0 {
		return nil, fmt.Errorf("auth verification enabled but no JWKS endpoints configured")
	}

	return cfg, nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, "=")
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
