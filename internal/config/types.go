package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	OCR     OCRConfig     `yaml:"ocr" mapstructure:"ocr"`
	Privacy PrivacyConfig `yaml:"privacy" mapstructure:"privacy"`
	NER     NERConfig     `yaml:"ner" mapstructure:"ner"`
	Compare CompareConfig `yaml:"compare" mapstructure:"compare"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Events  EventsConfig  `yaml:"events" mapstructure:"events"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// InputConfig describes where document images are read from
type InputConfig struct {
	Dir        string   `yaml:"dir" mapstructure:"dir"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
}

// OutputConfig describes where reports are written
type OutputConfig struct {
	Dir                 string `yaml:"dir" mapstructure:"dir"`
	SaveMaskedDocuments bool   `yaml:"save_masked_documents" mapstructure:"save_masked_documents"`
}

// OCRConfig contains text extraction configuration
type OCRConfig struct {
	Languages []string      `yaml:"languages" mapstructure:"languages"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// PatternConfig defines a single regex pattern for an entity type.
// An empty Patterns list in PrivacyConfig selects the built-in set.
type PatternConfig struct {
	Entity  string   `yaml:"entity" mapstructure:"entity"`
	Regex   string   `yaml:"regex" mapstructure:"regex"`
	Score   float64  `yaml:"score" mapstructure:"score"`
	Context []string `yaml:"context" mapstructure:"context"`
}

// PrivacyConfig contains PII detection and masking configuration
type PrivacyConfig struct {
	Enabled        bool              `yaml:"enabled" mapstructure:"enabled"`
	ScoreThreshold float64           `yaml:"score_threshold" mapstructure:"score_threshold"`
	ContextWindow  int               `yaml:"context_window" mapstructure:"context_window"`
	ContextBoost   float64           `yaml:"context_boost" mapstructure:"context_boost"`
	Patterns       []PatternConfig   `yaml:"patterns" mapstructure:"patterns"`
	Replacements   map[string]string `yaml:"replacements" mapstructure:"replacements"`
}

// NERConfig configures the statistical recognizer collaborator
type NERConfig struct {
	Mode       string        `yaml:"mode" mapstructure:"mode"` // off, service, or model
	ServiceURL string        `yaml:"service_url" mapstructure:"service_url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	ModelPath  string        `yaml:"model_path" mapstructure:"model_path"`
	VocabPath  string        `yaml:"vocab_path" mapstructure:"vocab_path"`
	LabelsPath string        `yaml:"labels_path" mapstructure:"labels_path"`
	MaxLength  int           `yaml:"max_length" mapstructure:"max_length"`
}

// CompareConfig controls pairwise comparison execution
type CompareConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig contains Redis mask-cache configuration
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
}

// StoreConfig contains the report archive database configuration
type StoreConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// RateLimitConfig contains API rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	Burst          int  `yaml:"burst" mapstructure:"burst"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int             `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration   `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration   `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MaxBodyBytes int64           `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RateLimit    RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// EventsConfig contains WebSocket event hub configuration
type EventsConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Path               string `yaml:"path" mapstructure:"path"`
	BroadcastMasking   bool   `yaml:"broadcast_masking" mapstructure:"broadcast_masking"`
	BroadcastRuns      bool   `yaml:"broadcast_runs" mapstructure:"broadcast_runs"`
	BroadcastSystem    bool   `yaml:"broadcast_system" mapstructure:"broadcast_system"`
	AllowedOrigins     []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	SendBufferMessages int    `yaml:"send_buffer_messages" mapstructure:"send_buffer_messages"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	return &Config{
		Input: InputConfig{
			Dir:        ".",
			Extensions: []string{".jpg", ".jpeg", ".png"},
		},
		Output: OutputConfig{
			Dir:                 "output",
			SaveMaskedDocuments: true,
		},
		OCR: OCRConfig{
			Languages: []string{"eng"},
			Timeout:   60 * time.Second,
		},
		Privacy: PrivacyConfig{
			Enabled:        true,
			ScoreThreshold: 0.6,
			ContextWindow:  40,
			ContextBoost:   0.35,
		},
		NER: NERConfig{
			Mode:      "off",
			Timeout:   30 * time.Second,
			MaxLength: 512,
		},
		Compare: CompareConfig{
			Workers: 1,
		},
		Cache: CacheConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			KeyPrefix:      "docsentinel:mask",
			DefaultTTL:     time.Hour,
			MaxConnections: 10,
			MinIdleConns:   2,
		},
		Store: StoreConfig{
			Enabled:         false,
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			MaxBodyBytes: 4 << 20,
			RateLimit: RateLimitConfig{
				Enabled:        true,
				RequestsPerMin: 300,
				Burst:          30,
			},
		},
		Events: EventsConfig{
			Enabled:            true,
			Path:               "/ws",
			BroadcastMasking:   true,
			BroadcastRuns:      true,
			BroadcastSystem:    true,
			AllowedOrigins:     []string{"*"},
			SendBufferMessages: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
