package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3030
	defaultEnv        = "development"
	defaultRedisURL   = "redis://localhost:6379/0"

	defaultAssetPrefix        = "kurz"
	defaultMaxUploadMB        = 100
	defaultHistoryMax         = 30
	defaultTranscriptMaxChars = 15000
	defaultPDFMaxPages        = 10
	defaultSummaryModel       = "gemini-2.0-flash"
)

// AppConfig holds runtime configuration loaded from YAML and overlaid with
// process environment variables.
type AppConfig struct {
	Port           int           `yaml:"port"`
	Env            string        `yaml:"env"` // "development" | "production"
	RedisURL       string        `yaml:"redis_url"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	S3             S3Options     `yaml:"s3"`
	AI             AIConfig      `yaml:"ai"`
	AssemblyAI     AssemblyAI    `yaml:"assemblyai"`
	Limits         Limits        `yaml:"limits"`
	WebPush        WebPushConfig `yaml:"webpush"`
}

// S3Options configures the asset host (any S3-compatible store).
type S3Options struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	CustomDomain    string `yaml:"custom_domain"`
	PathStyleAccess bool   `yaml:"path_style_access"`
	Prefix          string `yaml:"prefix"` // grouping label for uploaded videos
}

// AIConfig lists the generative-text providers, first enabled wins unless a
// summary model assignment names one explicitly.
type AIConfig struct {
	Providers    []AIProvider     `yaml:"providers"`
	SummaryModel *ModelAssignment `yaml:"summary_model,omitempty"`
}

// AIProvider describes a single generative-text backend.
type AIProvider struct {
	ID           string `yaml:"id"`
	Type         string `yaml:"type"` // gemini | openai | anthropic | openai-compatible
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	DefaultModel string `yaml:"default_model"`
	Enabled      bool   `yaml:"enabled"`
}

// ModelAssignment pins a task to a provider/model pair.
type ModelAssignment struct {
	ProviderID string `yaml:"provider_id"`
	Model      string `yaml:"model"`
}

// AssemblyAI configures the paid speech-to-text service used for uploaded media.
type AssemblyAI struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"` // override for tests; empty = production API
}

// Limits bounds request payloads and provider inputs.
type Limits struct {
	MaxUploadMB        int `yaml:"max_upload_mb"`
	HistoryMax         int `yaml:"history_max"`
	TranscriptMaxChars int `yaml:"transcript_max_chars"`
	PDFMaxPages        int `yaml:"pdf_max_pages"`
}

// WebPushConfig configures the optional terminal-event webhook notifier.
type WebPushConfig struct {
	Enable bool   `yaml:"enable"`
	URL    string `yaml:"url"`
}

// Load reads the YAML config at path (missing file is not an error), applies
// defaults, then environment overrides. Provider credentials are deliberately
// not validated here: a missing key fails at invocation time.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = defaultPort
	}
	if strings.TrimSpace(c.Env) == "" {
		c.Env = defaultEnv
	}
	if strings.TrimSpace(c.RedisURL) == "" {
		c.RedisURL = defaultRedisURL
	}
	if strings.TrimSpace(c.S3.Prefix) == "" {
		c.S3.Prefix = defaultAssetPrefix
	}
	if c.Limits.MaxUploadMB <= 0 {
		c.Limits.MaxUploadMB = defaultMaxUploadMB
	}
	if c.Limits.HistoryMax <= 0 {
		c.Limits.HistoryMax = defaultHistoryMax
	}
	if c.Limits.TranscriptMaxChars <= 0 {
		c.Limits.TranscriptMaxChars = defaultTranscriptMaxChars
	}
	if c.Limits.PDFMaxPages <= 0 {
		c.Limits.PDFMaxPages = defaultPDFMaxPages
	}
}

func (c *AppConfig) applyEnvOverrides() {
	if v, ok := envInt("PORT"); ok {
		c.Port = v
	}
	if v := envStr("KURZ_ENV"); v != "" {
		c.Env = v
	}
	if v := envStr("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := envStr("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitCSV(v)
	}

	if v := envStr("S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := envStr("S3_ACCESS_KEY_ID"); v != "" {
		c.S3.AccessKeyID = v
	}
	if v := envStr("S3_SECRET_ACCESS_KEY"); v != "" {
		c.S3.SecretAccessKey = v
	}
	if v := envStr("S3_BUCKET"); v != "" {
		c.S3.Bucket = v
	}
	if v := envStr("S3_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := envStr("S3_CUSTOM_DOMAIN"); v != "" {
		c.S3.CustomDomain = v
	}
	if v := envStr("S3_PREFIX"); v != "" {
		c.S3.Prefix = v
	}

	if v := envStr("ASSEMBLYAI_API_KEY"); v != "" {
		c.AssemblyAI.APIKey = v
	}

	// GEMINI_API_KEY alone is enough to stand up a working provider list.
	if v := envStr("GEMINI_API_KEY"); v != "" {
		c.upsertProvider(AIProvider{
			ID:           "gemini",
			Type:         "gemini",
			APIKey:       v,
			DefaultModel: defaultSummaryModel,
			Enabled:      true,
		})
	}
	if v := envStr("OPENAI_API_KEY"); v != "" {
		c.upsertProvider(AIProvider{
			ID:      "openai",
			Type:    "openai",
			APIKey:  v,
			Enabled: true,
		})
	}
	if v := envStr("ANTHROPIC_API_KEY"); v != "" {
		c.upsertProvider(AIProvider{
			ID:      "anthropic",
			Type:    "anthropic",
			APIKey:  v,
			Enabled: true,
		})
	}

	if v := envStr("WEBPUSH_URL"); v != "" {
		c.WebPush.Enable = true
		c.WebPush.URL = v
	}
}

// upsertProvider fills the API key of an existing provider with the same ID, or
// appends a new entry. Env keys take precedence over YAML keys.
func (c *AppConfig) upsertProvider(p AIProvider) {
	for i := range c.AI.Providers {
		if strings.EqualFold(strings.TrimSpace(c.AI.Providers[i].ID), p.ID) {
			c.AI.Providers[i].APIKey = p.APIKey
			c.AI.Providers[i].Enabled = true
			if strings.TrimSpace(c.AI.Providers[i].DefaultModel) == "" {
				c.AI.Providers[i].DefaultModel = p.DefaultModel
			}
			return
		}
	}
	c.AI.Providers = append(c.AI.Providers, p)
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.ToLower(strings.TrimSpace(c.Env)) != "production"
}

func envStr(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envInt(key string) (int, bool) {
	raw := envStr(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
