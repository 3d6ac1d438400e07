package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	defaultDriver   = "sqlite"

	configPathEnv      = "GTM_ENGINE_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	databaseDriverEnv  = "DATABASE_DRIVER"
	githubTokenEnv     = "GITHUB_TOKEN"
	openAIAPIKeyEnv    = "OPENAI_API_KEY"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	llmProviderEnv     = "LLM_PROVIDER"
	llmModelEnv        = "LLM_MODEL"
	resendAPIKeyEnv    = "RESEND_API_KEY"
	emailFromEnv       = "EMAIL_FROM"
	apolloAPIKeyEnv    = "APOLLO_API_KEY"
	attioAPIKeyEnv     = "ATTIO_API_KEY"
	logLevelEnv        = "LOG_LEVEL"
	metricsAddrEnv     = "METRICS_ADDR"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	LLM       LLMConfig       `yaml:"llm"`
	Email     EmailConfig     `yaml:"email"`
	GitHub    GitHubConfig    `yaml:"github"`
	Apollo    ApolloConfig    `yaml:"apollo"`
	Attio     AttioConfig     `yaml:"attio"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Feeds     []FeedConfig    `yaml:"feeds"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the SQL backend. Driver is postgres or sqlite.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines how often feeds are ingested.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LLMConfig selects the chat provider and generation parameters.
type LLMConfig struct {
	Provider    string          `yaml:"provider"`
	Model       string          `yaml:"model"`
	Temperature float64         `yaml:"temperature"`
	MaxTokens   int             `yaml:"maxTokens"`
	OpenAI      OpenAIConfig    `yaml:"openai"`
	Anthropic   AnthropicConfig `yaml:"anthropic"`
}

// OpenAIConfig defines how to contact the chat completions API.
type OpenAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// AnthropicConfig defines how to contact the messages API.
type AnthropicConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	Version  string `yaml:"version"`
}

// EmailConfig wires outbound email and its send budget.
type EmailConfig struct {
	From      string        `yaml:"from"`
	RateLimit int           `yaml:"rateLimit"`
	Window    time.Duration `yaml:"window"`
	Resend    ResendConfig  `yaml:"resend"`
}

// ResendConfig holds Resend API access.
type ResendConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// GitHubConfig holds GitHub API access for the github connector.
type GitHubConfig struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"apiUrl"`
}

// ApolloConfig holds Apollo people-match API access.
type ApolloConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// AttioConfig holds Attio CRM API access.
type AttioConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// MetricsConfig sets the listen address for the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// FeedConfig describes one scheduled ingestion input. Connector defaults to rss.
type FeedConfig struct {
	Name      string `yaml:"name"`
	Connector string `yaml:"connector"`
	Input     string `yaml:"input"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{databaseDSNEnv, &c.Database.DSN},
		{databaseDriverEnv, &c.Database.Driver},
		{githubTokenEnv, &c.GitHub.Token},
		{openAIAPIKeyEnv, &c.LLM.OpenAI.APIKey},
		{anthropicAPIKeyEnv, &c.LLM.Anthropic.APIKey},
		{llmProviderEnv, &c.LLM.Provider},
		{llmModelEnv, &c.LLM.Model},
		{resendAPIKeyEnv, &c.Email.Resend.APIKey},
		{emailFromEnv, &c.Email.From},
		{apolloAPIKeyEnv, &c.Apollo.APIKey},
		{attioAPIKeyEnv, &c.Attio.APIKey},
		{logLevelEnv, &c.Logging.Level},
		{metricsAddrEnv, &c.Metrics.Addr},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

func (c *Config) normalize() {
	switch strings.ToLower(c.Database.Driver) {
	case DriverPostgres, "postgresql", "pg":
		c.Database.Driver = DriverPostgres
	case DriverSQLite, "sqlite3":
		c.Database.Driver = DriverSQLite
	default:
		log.Printf("config: unknown database driver %q, reverting to %s", c.Database.Driver, defaultDriver)
		c.Database.Driver = defaultDriver
	}

	switch strings.ToLower(c.LLM.Provider) {
	case ProviderOpenAI, ProviderAnthropic:
		c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	default:
		log.Printf("config: unknown llm provider %q, reverting to %s", c.LLM.Provider, ProviderOpenAI)
		c.LLM.Provider = ProviderOpenAI
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	setString(&base.Logging.Level, override.Logging.Level)

	setString(&base.Database.Driver, override.Database.Driver)
	setString(&base.Database.DSN, override.Database.DSN)

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	setString(&base.Scheduler.Timezone, override.Scheduler.Timezone)

	setString(&base.LLM.Provider, override.LLM.Provider)
	setString(&base.LLM.Model, override.LLM.Model)
	if override.LLM.Temperature > 0 {
		base.LLM.Temperature = override.LLM.Temperature
	}
	if override.LLM.MaxTokens > 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}
	setString(&base.LLM.OpenAI.Endpoint, override.LLM.OpenAI.Endpoint)
	setString(&base.LLM.OpenAI.APIKey, override.LLM.OpenAI.APIKey)
	setString(&base.LLM.Anthropic.Endpoint, override.LLM.Anthropic.Endpoint)
	setString(&base.LLM.Anthropic.APIKey, override.LLM.Anthropic.APIKey)
	setString(&base.LLM.Anthropic.Version, override.LLM.Anthropic.Version)

	setString(&base.Email.From, override.Email.From)
	if override.Email.RateLimit > 0 {
		base.Email.RateLimit = override.Email.RateLimit
	}
	if override.Email.Window > 0 {
		base.Email.Window = override.Email.Window
	}
	setString(&base.Email.Resend.Endpoint, override.Email.Resend.Endpoint)
	setString(&base.Email.Resend.APIKey, override.Email.Resend.APIKey)

	setString(&base.GitHub.Token, override.GitHub.Token)
	setString(&base.GitHub.APIURL, override.GitHub.APIURL)

	setString(&base.Apollo.Endpoint, override.Apollo.Endpoint)
	setString(&base.Apollo.APIKey, override.Apollo.APIKey)

	setString(&base.Attio.BaseURL, override.Attio.BaseURL)
	setString(&base.Attio.APIKey, override.Attio.APIKey)

	setString(&base.Metrics.Addr, override.Metrics.Addr)

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	return base
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{Driver: defaultDriver, DSN: "file:gtmengine.db?_pragma=foreign_keys(1)"},
		Scheduler: SchedulerConfig{Interval: time.Hour, Timezone: defaultTimezone, location: tz},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   1024,
			OpenAI:      OpenAIConfig{Endpoint: "https://api.openai.com/v1/chat/completions"},
			Anthropic: AnthropicConfig{
				Endpoint: "https://api.anthropic.com/v1/messages",
				Version:  "2023-06-01",
			},
		},
		Email: EmailConfig{
			From:      "onboarding@resend.dev",
			RateLimit: 5,
			Window:    time.Minute,
			Resend:    ResendConfig{Endpoint: "https://api.resend.com/emails"},
		},
		GitHub:  GitHubConfig{APIURL: "https://api.github.com/"},
		Apollo:  ApolloConfig{Endpoint: "https://api.apollo.io/v1/people/match"},
		Attio:   AttioConfig{BaseURL: "https://api.attio.com/v2"},
		Metrics: MetricsConfig{Addr: ":9090"},
	}
}
