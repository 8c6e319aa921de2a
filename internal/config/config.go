package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

// Config is built from defaults, then an optional YAML file named by
// MIRA_CONFIG, then MIRA_* environment variables (highest priority).
type Config struct {
	Mode     Mode   `yaml:"mode"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	LLM     LLMConfig     `yaml:"llm"`
	Storage StorageConfig `yaml:"storage"`
	GCP     GCPConfig     `yaml:"gcp"`
}

type LLMConfig struct {
	// Provider is one of mock, vertex, gemini, openai, anthropic.
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	// Backend is one of memory, firestore, redis.
	Backend         string        `yaml:"backend"`
	RedisURL        string        `yaml:"redis_url"`
	RedisSessionTTL time.Duration `yaml:"redis_session_ttl"`
}

type GCPConfig struct {
	ProjectID string `yaml:"project_id"`
	Location  string `yaml:"location"`
}

func defaults() *Config {
	return &Config{
		Mode:     ModeLocal,
		Port:     "8080",
		LogLevel: "info",
		LLM: LLMConfig{
			Timeout: 60 * time.Second,
		},
		Storage: StorageConfig{Backend: "memory"},
		GCP:     GCPConfig{Location: "us-central1"},
	}
}

// Load reads the config file (if MIRA_CONFIG is set) and the environment,
// and validates the result.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("MIRA_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func getBoolEnv(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	return b && err == nil, true
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MIRA_MODE"); v != "" {
		c.Mode = Mode(strings.ToLower(v))
	}

	// PORT is what Cloud Run injects.
	setString(&c.Port, "PORT")
	setString(&c.Port, "MIRA_PORT")
	setString(&c.LogLevel, "MIRA_LOG_LEVEL")

	setString(&c.LLM.Provider, "MIRA_LLM_PROVIDER")
	setString(&c.LLM.Model, "MIRA_MODEL_NAME")
	setString(&c.LLM.APIKey, "MIRA_LLM_API_KEY")
	setString(&c.LLM.BaseURL, "MIRA_LLM_BASE_URL")
	if v := os.Getenv("MIRA_LLM_MAX_OUTPUT_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MIRA_LLM_MAX_OUTPUT_TOKENS: %w", err)
		}
		c.LLM.MaxOutputTokens = n
	}
	if err := setDuration(&c.LLM.Timeout, "MIRA_MODEL_TIMEOUT"); err != nil {
		return err
	}
	if useMock, set := getBoolEnv("MIRA_USE_MOCK_LLM"); set && useMock {
		c.LLM.Provider = "mock"
	}

	setString(&c.Storage.Backend, "MIRA_STORAGE_BACKEND")
	setString(&c.Storage.RedisURL, "MIRA_REDIS_URL")
	if err := setDuration(&c.Storage.RedisSessionTTL, "MIRA_REDIS_SESSION_TTL"); err != nil {
		return err
	}

	setString(&c.GCP.ProjectID, "MIRA_GCP_PROJECT")
	setString(&c.GCP.Location, "MIRA_GCP_LOCATION")
	return nil
}

// fillDerived picks the provider and API key when they were not given
// explicitly. Local mode defaults to the mock, gcp mode to Vertex.
func (c *Config) fillDerived() {
	if c.LLM.Provider == "" {
		if c.Mode == ModeGCP {
			c.LLM.Provider = "vertex"
		} else {
			c.LLM.Provider = "mock"
		}
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "gemini":
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeLocal, ModeGCP:
	default:
		errs = append(errs, fmt.Errorf("mode must be local or gcp, got %q", c.Mode))
	}

	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		errs = append(errs, fmt.Errorf("port must be a number between 1 and 65535, got %q", c.Port))
	}

	switch c.LLM.Provider {
	case "mock":
	case "vertex":
		if c.GCP.ProjectID == "" {
			errs = append(errs, errors.New("MIRA_GCP_PROJECT is required for the vertex provider"))
		}
	case "gemini", "openai", "anthropic":
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("an API key is required for the %s provider", c.LLM.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if c.LLM.Timeout < 0 {
		errs = append(errs, errors.New("model timeout must not be negative"))
	}
	if c.LLM.MaxOutputTokens < 0 {
		errs = append(errs, errors.New("max output tokens must not be negative"))
	}

	switch c.Storage.Backend {
	case "memory":
	case "firestore":
		if c.GCP.ProjectID == "" {
			errs = append(errs, errors.New("MIRA_GCP_PROJECT is required for the firestore backend"))
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("MIRA_REDIS_URL is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.Mode == ModeGCP && c.GCP.ProjectID == "" {
		errs = append(errs, errors.New("MIRA_GCP_PROJECT must be set in gcp mode"))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
