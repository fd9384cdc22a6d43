package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Processing  ProcessingConfig `toml:"processing"`
	DeepSeek    DeepSeekConfig   `toml:"deepseek"`
	Export      ExportConfig     `toml:"export"`
	Logs        LogStoreConfig   `toml:"logs"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// ProcessingConfig controls the batch processing pipeline
type ProcessingConfig struct {
	BatchSize         int           `toml:"batch_size"`          // Keywords per remote processing call
	PausePollInterval time.Duration `toml:"pause_poll_interval"` // Bounded sleep between pause/stop checks
	Translate         bool          `toml:"translate"`           // Invoke translation by default
	TargetLanguage    string        `toml:"target_language"`     // Translation target language
}

// DeepSeekConfig contains the remote processing API configuration
type DeepSeekConfig struct {
	APIKey         string        `toml:"api_key"`
	BaseURL        string        `toml:"base_url"`
	Model          string        `toml:"model"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	RateLimit      time.Duration `toml:"rate_limit"` // Minimum interval between API requests
	MaxTokens      int           `toml:"max_tokens"`
	Temperature    float64       `toml:"temperature"`
}

// ExportConfig contains result export configuration
type ExportConfig struct {
	Dir             string `toml:"dir"`              // Directory for exported files
	DefaultFormat   string `toml:"default_format"`   // "csv", "json", "txt", "pdf"
	DefaultTemplate string `toml:"default_template"` // "basic", "detailed", "complete", "links_only"
}

// LogStoreConfig contains configuration for the persisted log store
type LogStoreConfig struct {
	MaxEntries    int    `toml:"max_entries"`    // Maximum retained log entries
	RetentionDays int    `toml:"retention_days"` // Entries older than this are pruned
	PruneSchedule string `toml:"prune_schedule"` // Cron schedule for log pruning
}

// NewDefaultConfig returns configuration defaults applied before any file or env override
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/verba",
				ResetOnStartup: false,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Processing: ProcessingConfig{
			BatchSize:         500,
			PausePollInterval: 1 * time.Second,
			Translate:         true,
			TargetLanguage:    "Chinese",
		},
		DeepSeek: DeepSeekConfig{
			APIKey:         "", // User must provide API key in config file or env
			BaseURL:        "https://api.deepseek.com/v1",
			Model:          "deepseek-chat",
			RequestTimeout: 30 * time.Second,
			RateLimit:      1 * time.Second,
			MaxTokens:      4000,
			Temperature:    0.3,
		},
		Export: ExportConfig{
			Dir:             "./exports",
			DefaultFormat:   "csv",
			DefaultTemplate: "complete",
		},
		Logs: LogStoreConfig{
			MaxEntries:    1000,
			RetentionDays: 30,
			PruneSchedule: "0 3 * * *",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
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

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VERBA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("VERBA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VERBA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("VERBA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("VERBA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VERBA_LOG_OUTPUT"); output != "" {
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

	if batchSize := os.Getenv("VERBA_BATCH_SIZE"); batchSize != "" {
		if bs, err := strconv.Atoi(batchSize); err == nil {
			config.Processing.BatchSize = bs
		}
	}
	if translate := os.Getenv("VERBA_TRANSLATE"); translate != "" {
		if tr, err := strconv.ParseBool(translate); err == nil {
			config.Processing.Translate = tr
		}
	}

	if apiKey := os.Getenv("VERBA_DEEPSEEK_API_KEY"); apiKey != "" {
		config.DeepSeek.APIKey = apiKey
	} else if apiKey := os.Getenv("DEEPSEEK_API_KEY"); apiKey != "" {
		config.DeepSeek.APIKey = apiKey
	}
	if baseURL := os.Getenv("VERBA_DEEPSEEK_BASE_URL"); baseURL != "" {
		config.DeepSeek.BaseURL = baseURL
	}

	if exportDir := os.Getenv("VERBA_EXPORT_DIR"); exportDir != "" {
		config.Export.Dir = exportDir
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// validate rejects configurations the pipeline cannot run with
func validate(config *Config) error {
	if config.Processing.BatchSize <= 0 {
		return fmt.Errorf("processing batch_size must be positive, got %d", config.Processing.BatchSize)
	}
	if config.Processing.PausePollInterval <= 0 {
		return fmt.Errorf("processing pause_poll_interval must be positive, got %s", config.Processing.PausePollInterval)
	}
	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", config.Server.Port)
	}
	return nil
}
