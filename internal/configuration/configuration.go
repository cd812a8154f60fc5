package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/file"
)

const envPrefix = "MINDDOCK_"

// newDefaultConfig returns a fresh default configuration. Nested sections are
// allocated per call so merged configs never alias each other.
func newDefaultConfig() *Config {
	return &Config{
		APIBaseURL:     "http://localhost:8000/api/v1",
		RequestTimeout: 60,
		DebugLogPath:   "/tmp/minddock-debug.log",

		Assistant: &AssistantConfig{},

		CircuitBreaker: &CircuitBreakerConfig{
			MaxRequests:      5,
			Interval:         30,
			Timeout:          60,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},

		Templates: &TemplatesConfig{
			Memory: DefaultMemoryTemplate,
		},
	}
}

// DefaultMemoryTemplate renders a memory detail in plain terminal output.
const DefaultMemoryTemplate = `{{ .Memory.Title | upper }}
{{ .Owner }} · {{ .Memory.UpdatedAt | date "2006-01-02 15:04" }}
{{- if .Memory.Tags }}
{{ .Tags }}
{{- end }}

{{ .Memory.Content | trim }}
{{- if .Memory.Attachments }}

Attachments:
{{- range .Memory.Attachments }}
  - {{ .Filename }}
{{- end }}
{{- end }}
`

// Config holds configuration for the minddock client.
type Config struct {
	APIBaseURL     string `json:"api_base_url"`
	RequestTimeout int    `json:"request_timeout"`
	// User id selected at startup. Falls back to the first user listed by the backend.
	DefaultUser  string `json:"default_user"`
	DebugLogPath string `json:"debug_log_path"`

	Assistant      *AssistantConfig      `json:"assistant"`
	CircuitBreaker *CircuitBreakerConfig `json:"circuit_breaker"`
	Templates      *TemplatesConfig      `json:"templates"`
}

// AssistantConfig holds the optional retrieval knobs sent with chat requests.
type AssistantConfig struct {
	// Number of memories the backend retrieves. Zero omits the field.
	TopK int `json:"top_k"`
	// Whether the backend should search beyond the selected memory. Nil omits the field.
	UseRAG *bool `json:"use_rag"`
}

// CircuitBreakerConfig holds the transport circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxRequests uint32 `json:"max_requests"`
	// Seconds before failure counts reset while closed.
	Interval int `json:"interval"`
	// Seconds an open breaker waits before probing.
	Timeout          int     `json:"timeout"`
	FailureThreshold float64 `json:"failure_threshold"`
	MinRequests      uint32  `json:"min_requests"`
}

// TemplatesConfig holds sprig templates used by the non-interactive commands.
type TemplatesConfig struct {
	Memory string `json:"memory"`
}

// Default returns a copy of the default configuration.
func Default() *Config {
	return newDefaultConfig()
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Parse a configuration file.
func Parse(path string) (*Config, error) {
	path, err := file.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	config := &Config{}
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}

	// Fields missing from older config files take their defaults.
	if err := mergo.Merge(config, newDefaultConfig()); err != nil {
		return nil, errors.Wrap(err, "merging defaults")
	}

	if err := loadDotEnv(); err != nil {
		return nil, errors.Wrap(err, "loading .env")
	}
	if err := config.applyEnv(); err != nil {
		return nil, errors.Wrap(err, "applying environment")
	}

	expandedLogPath, err := file.ExpandPath(config.DebugLogPath)
	if err != nil {
		return nil, errors.Wrap(err, "expanding debug log path")
	}
	config.DebugLogPath = expandedLogPath
	return config, nil
}

// loadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func loadDotEnv() error {
	ok, err := file.Exists(".env")
	if err != nil || !ok {
		return err
	}
	return godotenv.Load(".env")
}

// applyEnv overrides fields from MINDDOCK_* variables.
func (c *Config) applyEnv() error {
	if value, ok := os.LookupEnv(envPrefix + "API_BASE_URL"); ok && value != "" {
		c.APIBaseURL = value
	}
	if value, ok := os.LookupEnv(envPrefix + "DEFAULT_USER"); ok {
		c.DefaultUser = value
	}
	if value, ok := os.LookupEnv(envPrefix + "REQUEST_TIMEOUT"); ok && value != "" {
		timeout, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "parsing %sREQUEST_TIMEOUT", envPrefix)
		}
		c.RequestTimeout = timeout
	}
	if value, ok := os.LookupEnv(envPrefix + "DEBUG_LOG_PATH"); ok && value != "" {
		c.DebugLogPath = value
	}
	return nil
}

// save a configuration file.
func (c *Config) save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	err = os.WriteFile(path, bytes, 0644)
	if err != nil {
		return errors.Wrap(err, "writing file")
	}

	return nil
}

// initializeIfNotPresent initializes a config if it does not exist.
func initializeIfNotPresent(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	// Create the directories.
	dir, _ := filepath.Split(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating folders")
	}

	if err := Default().save(path); err != nil {
		return errors.Wrap(err, "saving default config")
	}
	return nil
}
