package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Resolver    ResolverConfig  `toml:"resolver"`
	Sources     SourcesConfig   `toml:"sources"`
	Blacklist   BlacklistConfig `toml:"blacklist"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// SchedulerConfig controls the bounded-parallel search scheduler
type SchedulerConfig struct {
	// Concurrency is the number of simultaneous per-event resolutions.
	// Encyclopedia search APIs are burst-sensitive, so this stays low; 3 is
	// the floor that still streams results perceptibly faster than
	// sequential resolution for 50-100 events.
	Concurrency int `toml:"concurrency" validate:"gt=0,lte=32"`

	// PumpInterval is the yield between pump iterations while workers are
	// in flight
	PumpInterval time.Duration `toml:"pump_interval"`
}

// ResolverConfig controls the per-event cascade
type ResolverConfig struct {
	// QueryTimeout bounds one full resolution so a hung backend cannot hold
	// a worker slot indefinitely
	QueryTimeout time.Duration `toml:"query_timeout"`

	// LenientFallback enables a third attempt tier per adapter with the
	// lenient match policy after both strict attempts fail
	LenientFallback bool `toml:"lenient_fallback"`

	// Policy maps category names to ordered adapter lists. Empty entries
	// fall back to built-in defaults; every category must resolve to a
	// non-empty list at startup.
	Policy map[string][]string `toml:"policy"`
}

// SourcesConfig configures the source adapters
type SourcesConfig struct {
	// Mode selects the backend family per session: "cascade" (default) runs
	// the prioritized adapter cascade, "altsearch" replaces the whole
	// cascade with the alternative general image-search backend.
	Mode string `toml:"mode" validate:"oneof=cascade altsearch"`

	Wikipedia WikipediaConfig `toml:"wikipedia"`
	Commons   CommonsConfig   `toml:"commons"`
	Archive   ArchiveConfig   `toml:"archive"`
	Metadata  MetadataConfig  `toml:"metadata"`
	AltSearch AltSearchConfig `toml:"altsearch"`
}

// WikipediaConfig configures the per-language encyclopedia adapter
type WikipediaConfig struct {
	Language       string        `toml:"language"` // e.g. "nl"
	Endpoint       string        `toml:"endpoint"` // empty = derive from language
	RateLimit      int           `toml:"rate_limit" validate:"gt=0"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// CommonsConfig configures the Wikimedia Commons adapter
type CommonsConfig struct {
	Endpoint       string        `toml:"endpoint"` // empty = commons.wikimedia.org
	RateLimit      int           `toml:"rate_limit" validate:"gt=0"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// ArchiveConfig configures the national-archive-flavored Commons search.
// The qualifier is appended to every query to bias results toward the
// archive's collection.
type ArchiveConfig struct {
	Qualifier      string        `toml:"qualifier"`
	Endpoint       string        `toml:"endpoint"` // empty = commons.wikimedia.org
	RateLimit      int           `toml:"rate_limit" validate:"gt=0"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// MetadataConfig configures the proxied person/movie metadata backend.
// The proxy holds the API credential server-side.
type MetadataConfig struct {
	ProxyURL       string        `toml:"proxy_url"`
	RateLimit      int           `toml:"rate_limit" validate:"gt=0"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// AltSearchConfig configures the alternative general image-search backend
type AltSearchConfig struct {
	BaseURL        string        `toml:"base_url"`
	APIKey         string        `toml:"api_key"`
	RateLimit      int           `toml:"rate_limit" validate:"gt=0"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// BlacklistConfig configures the remote blacklist snapshot
type BlacklistConfig struct {
	RemoteURL       string `toml:"remote_url"`
	RefreshSchedule string `toml:"refresh_schedule"` // cron format, empty = no periodic refresh
}

// WebSocketConfig contains configuration for WebSocket result streaming
type WebSocketConfig struct {
	// ProgressPerSecond throttles search_progress broadcasts; found events
	// are never throttled
	ProgressPerSecond int `toml:"progress_per_second"`

	// MinLevel is the minimum log level forwarded to connected clients
	MinLevel string `toml:"min_level"`

	// ExcludePatterns drops log lines containing any of these substrings
	// from the client stream
	ExcludePatterns []string `toml:"exclude_patterns"`
}

// NewDefaultConfig returns the built-in defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Scheduler: SchedulerConfig{
			Concurrency:  3,
			PumpInterval: 100 * time.Millisecond,
		},
		Resolver: ResolverConfig{
			QueryTimeout:    45 * time.Second,
			LenientFallback: false,
		},
		Sources: SourcesConfig{
			Mode: "cascade",
			Wikipedia: WikipediaConfig{
				Language:       "nl",
				RateLimit:      5,
				RequestTimeout: 15 * time.Second,
			},
			Commons: CommonsConfig{
				RateLimit:      5,
				RequestTimeout: 15 * time.Second,
			},
			Archive: ArchiveConfig{
				Qualifier:      "Nationaal Archief",
				RateLimit:      5,
				RequestTimeout: 15 * time.Second,
			},
			Metadata: MetadataConfig{
				ProxyURL:       "",
				RateLimit:      5,
				RequestTimeout: 15 * time.Second,
			},
			AltSearch: AltSearchConfig{
				BaseURL:        "",
				RateLimit:      5,
				RequestTimeout: 15 * time.Second,
			},
		},
		Blacklist: BlacklistConfig{
			RefreshSchedule: "0 */15 * * * *", // every 15 minutes
		},
		WebSocket: WebSocketConfig{
			ProgressPerSecond: 4,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2
// -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the loaded configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MEMORIA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("MEMORIA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MEMORIA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("MEMORIA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Scheduler configuration
	if concurrency := os.Getenv("MEMORIA_SCHEDULER_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Scheduler.Concurrency = c
		}
	}

	// Sources configuration
	if mode := os.Getenv("MEMORIA_SOURCES_MODE"); mode != "" {
		config.Sources.Mode = mode
	}
	if proxyURL := os.Getenv("MEMORIA_METADATA_PROXY_URL"); proxyURL != "" {
		config.Sources.Metadata.ProxyURL = proxyURL
	}
	if apiKey := os.Getenv("MEMORIA_ALTSEARCH_API_KEY"); apiKey != "" {
		config.Sources.AltSearch.APIKey = apiKey
	}

	// Blacklist configuration
	if remoteURL := os.Getenv("MEMORIA_BLACKLIST_URL"); remoteURL != "" {
		config.Blacklist.RemoteURL = remoteURL
	}

	// Logging configuration
	if level := os.Getenv("MEMORIA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("MEMORIA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
