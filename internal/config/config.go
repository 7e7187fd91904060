package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the photosearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	AWS       AWSConfig       `yaml:"aws"`
	Index     IndexConfig     `yaml:"index"`
	Storage   StorageConfig   `yaml:"storage"`
	Detection DetectionConfig `yaml:"detection"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// AWSConfig holds settings shared by every AWS client.
type AWSConfig struct {
	Region string `yaml:"region"`
}

// IndexConfig holds search index settings.
type IndexConfig struct {
	Host             string `yaml:"host"`
	Scheme           string `yaml:"scheme"` // https (default) or http
	Name             string `yaml:"name"`
	SignRequests     bool   `yaml:"sign_requests"`
	Service          string `yaml:"service"` // SigV4 signing name: es (default) or aoss
	IdempotentWrites bool   `yaml:"idempotent_writes"`
	TimeoutSec       int    `yaml:"timeout_sec"`
}

// StorageConfig holds object store settings.
type StorageConfig struct {
	Driver        string `yaml:"driver"` // s3 (default), minio
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	UseSSL        bool   `yaml:"use_ssl"`
	UsePathStyle  bool   `yaml:"use_path_style"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// DetectionConfig holds label detection settings.
type DetectionConfig struct {
	Provider      string       `yaml:"provider"` // rekognition (default), openai
	MaxLabels     int          `yaml:"max_labels"`
	MinConfidence float32      `yaml:"min_confidence"`
	OpenAI        OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig holds the vision model provider settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// CacheConfig holds label cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod, lambda).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.AWS.Region == "" {
		c.AWS.Region = "us-east-1"
	}
	if c.Index.Scheme == "" {
		c.Index.Scheme = "https"
	}
	if c.Index.Name == "" {
		c.Index.Name = "photos"
	}
	if c.Index.Service == "" {
		c.Index.Service = "es"
	}
	if c.Index.TimeoutSec <= 0 {
		c.Index.TimeoutSec = 10
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "s3"
	}
	if c.Detection.Provider == "" {
		c.Detection.Provider = "rekognition"
	}
	if c.Detection.MaxLabels <= 0 {
		c.Detection.MaxLabels = 10
	}
	if c.Detection.OpenAI.Model == "" {
		c.Detection.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24 * 30
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Index.Host == "" {
		return fmt.Errorf("index.host is required")
	}
	switch c.Index.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("index.scheme must be \"http\" or \"https\", got %q", c.Index.Scheme)
	}
	if c.Storage.PublicBaseURL == "" {
		return fmt.Errorf("storage.public_base_url is required")
	}
	switch c.Storage.Driver {
	case "s3":
	case "minio":
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("storage.endpoint is required for the minio driver")
		}
	default:
		return fmt.Errorf("storage.driver must be \"s3\" or \"minio\", got %q", c.Storage.Driver)
	}
	switch c.Detection.Provider {
	case "rekognition":
	case "openai":
		if c.Detection.OpenAI.APIKey == "" {
			return fmt.Errorf("detection.openai.api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf(
			"detection.provider must be \"rekognition\" or \"openai\", got %q", c.Detection.Provider,
		)
	}
	if c.Detection.MaxLabels > 10 {
		return fmt.Errorf("detection.max_labels must be at most 10, got %d", c.Detection.MaxLabels)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when the cache is enabled")
	}
	return nil
}

// findConfigPath locates the config file. CONFIG_PATH wins when set.
func findConfigPath(env string) string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}

	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
