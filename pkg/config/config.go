package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:digestly.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Schedule struct {
		ScrapeInterval   time.Duration `yaml:"scrape_interval" json:"scrape_interval" jsonschema:"default=30m,description=How often to scrape all configured sources"`
		GenerateInterval time.Duration `yaml:"generate_interval" json:"generate_interval" jsonschema:"description=How often to auto-generate a newsletter (0 disables)"`
		MaxWorkers       int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,description=Maximum concurrent scrape workers"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Sources SourcesConfig `yaml:"sources" json:"sources" jsonschema:"description=Content sources to scrape"`

	Curation CurationConfig `yaml:"curation" json:"curation" jsonschema:"description=Selection defaults for newsletter generation"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for newsletter drafting"`

	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Full-text extraction for blog items"`
}

// SourcesConfig lists content sources by kind
type SourcesConfig struct {
	Subreddits      []string      `yaml:"subreddits" json:"subreddits" jsonschema:"description=Subreddit names to scrape (without /r/ prefix)"`
	RedditLimit     int           `yaml:"reddit_limit" json:"reddit_limit" jsonschema:"default=25,description=Posts per subreddit per scrape"`
	Feeds           []string      `yaml:"feeds" json:"feeds" jsonschema:"description=RSS/Atom feed URLs"`
	YouTubeChannels []string      `yaml:"youtube_channels" json:"youtube_channels" jsonschema:"description=YouTube channel IDs"`
	Blogs           []string      `yaml:"blogs" json:"blogs" jsonschema:"description=Blog feed URLs processed with full-text extraction"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP timeout per source request"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Digestly/1.0,description=User agent for scraper requests"`
}

// CurationConfig holds selection defaults applied when a request omits them
type CurationConfig struct {
	MaxItems      int `yaml:"max_items" json:"max_items" jsonschema:"default=10,description=Default number of items per newsletter"`
	LookbackHours int `yaml:"lookback_hours" json:"lookback_hours" jsonschema:"default=48,description=Default candidate lookback window in hours"`
	MinItems      int `yaml:"min_items" json:"min_items" jsonschema:"default=1,description=Minimum selected items required to draft a newsletter"`
}

// LLMConfig holds LLM configuration for newsletter drafting
type LLMConfig struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model       string        `yaml:"model" json:"model" jsonschema:"description=Model name (e.g. gpt-4o-mini or llama3)"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.7,description=Temperature for response generation"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=2000,description=Maximum tokens in response"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=60s,description=Request timeout"`
	UseJSONMode bool          `yaml:"use_json_mode" json:"use_json_mode" jsonschema:"default=false,description=Use JSON response format (not all models support this)"`
}

// ExtractionConfig holds full-text extraction settings for blog sources
type ExtractionConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Enable full-text extraction for blog items"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Extraction timeout per page"`
	MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=100,description=Minimum extracted text length to keep"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// set defaults for database
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:digestly.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	// set defaults for schedule
	if cfg.Schedule.ScrapeInterval == 0 {
		cfg.Schedule.ScrapeInterval = 30 * time.Minute
	}
	if cfg.Schedule.MaxWorkers == 0 {
		cfg.Schedule.MaxWorkers = 5
	}

	// set defaults for sources
	if cfg.Sources.RedditLimit == 0 {
		cfg.Sources.RedditLimit = 25
	}
	if cfg.Sources.Timeout == 0 {
		cfg.Sources.Timeout = 30 * time.Second
	}
	if cfg.Sources.UserAgent == "" {
		cfg.Sources.UserAgent = "Digestly/1.0"
	}

	// set defaults for curation
	if cfg.Curation.MaxItems == 0 {
		cfg.Curation.MaxItems = 10
	}
	if cfg.Curation.LookbackHours == 0 {
		cfg.Curation.LookbackHours = 48
	}
	if cfg.Curation.MinItems == 0 {
		cfg.Curation.MinItems = 1
	}

	// set defaults for LLM
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2000
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}

	// set defaults for extraction
	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = 30 * time.Second
	}
	if cfg.Extraction.MinTextLength == 0 {
		cfg.Extraction.MinTextLength = 100
	}

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	// validate LLM config when drafting is configured
	if cfg.LLM.Model != "" {
		if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
			return fmt.Errorf("llm.temperature must be between 0 and 2")
		}
	}

	// validate curation config
	if cfg.Curation.MaxItems < 1 {
		return fmt.Errorf("curation.max_items must be at least 1")
	}
	if cfg.Curation.LookbackHours < 1 {
		return fmt.Errorf("curation.lookback_hours must be at least 1")
	}
	if cfg.Curation.MinItems > cfg.Curation.MaxItems {
		return fmt.Errorf("curation.min_items cannot exceed curation.max_items")
	}

	// validate sources
	if cfg.Sources.RedditLimit < 1 || cfg.Sources.RedditLimit > 100 {
		return fmt.Errorf("sources.reddit_limit must be between 1 and 100")
	}

	// validate extraction config
	if cfg.Extraction.Enabled {
		if cfg.Extraction.Timeout < time.Second {
			return fmt.Errorf("extraction timeout must be at least 1 second")
		}
		if cfg.Extraction.MinTextLength < 0 {
			return fmt.Errorf("extraction min_text_length must be non-negative")
		}
	}

	// validate server config
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetSourcesConfig returns content sources configuration
func (c *Config) GetSourcesConfig() SourcesConfig {
	return c.Sources
}

// GetCurationConfig returns curation defaults
func (c *Config) GetCurationConfig() CurationConfig {
	return c.Curation
}

// GetLLMConfig returns LLM configuration
func (c *Config) GetLLMConfig() LLMConfig {
	return c.LLM
}
