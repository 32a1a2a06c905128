package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/execgate"
	ConfigFileName    = "execgate.yml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "EXECGATE"
)

// ValidEnvironments is the list of accepted environment names
var ValidEnvironments = []string{"development", "test", "production"}

// Config holds all execgate configuration settings
type Config struct {
	// DatabaseURL is the PostgreSQL connection string
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// AuditEnabled toggles the RFC5424 audit trail
	AuditEnabled bool `yaml:"audit_enabled" json:"audit_enabled"`

	// LogLevel is a zerolog level name
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Environment selects console logging in development
	Environment string `yaml:"environment" json:"environment"`

	// ExecutionTimeout bounds every executor call
	ExecutionTimeout time.Duration `yaml:"execution_timeout" json:"execution_timeout"`

	// DefaultNumTotalRequired is the quorum given to connections that do not set one
	DefaultNumTotalRequired int `yaml:"default_num_total_required" json:"default_num_total_required"`

	// RolesFile is the role document loaded by `gatectl policy load` without arguments
	RolesFile string `yaml:"roles_file" json:"roles_file"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// fileConfig mirrors Config with pointers so that zero values written in the
// file are distinguishable from absent keys.
type fileConfig struct {
	DatabaseURL             *string `yaml:"database_url"`
	AuditEnabled            *bool   `yaml:"audit_enabled"`
	LogLevel                *string `yaml:"log_level"`
	Environment             *string `yaml:"environment"`
	ExecutionTimeout        *string `yaml:"execution_timeout"`
	DefaultNumTotalRequired *int    `yaml:"default_num_total_required"`
	RolesFile               *string `yaml:"roles_file"`
}

// envConfig is decoded by envconfig from EXECGATE_* variables.
type envConfig struct {
	DatabaseURL             *string        `envconfig:"DATABASE_URL"`
	AuditEnabled            *bool          `envconfig:"AUDIT_ENABLED"`
	LogLevel                *string        `envconfig:"LOG_LEVEL"`
	Environment             *string        `envconfig:"ENVIRONMENT"`
	ExecutionTimeout        *time.Duration `envconfig:"EXECUTION_TIMEOUT"`
	DefaultNumTotalRequired *int           `envconfig:"DEFAULT_NUM_TOTAL_REQUIRED"`
	RolesFile               *string        `envconfig:"ROLES_FILE"`
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *Config {
	return &Config{
		AuditEnabled:            true,
		LogLevel:                "info",
		Environment:             "production",
		ExecutionTimeout:        30 * time.Second,
		DefaultNumTotalRequired: 1,
		sources:                 make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv(EnvPrefix + "_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		if err := config.applyFileConfig(&file); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", config.configFilePath, err)
		}
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}

	return config, config.Validate()
}

func attributeNames() []string {
	return []string{
		"database_url", "audit_enabled", "log_level", "environment",
		"execution_timeout", "default_num_total_required", "roles_file",
	}
}

func (c *Config) applyFileConfig(file *fileConfig) error {
	if file.DatabaseURL != nil {
		c.DatabaseURL = *file.DatabaseURL
		c.sources["database_url"] = "file"
	}
	if file.AuditEnabled != nil {
		c.AuditEnabled = *file.AuditEnabled
		c.sources["audit_enabled"] = "file"
	}
	if file.LogLevel != nil {
		c.LogLevel = *file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.Environment != nil {
		c.Environment = *file.Environment
		c.sources["environment"] = "file"
	}
	if file.ExecutionTimeout != nil {
		d, err := time.ParseDuration(*file.ExecutionTimeout)
		if err != nil {
			return fmt.Errorf("execution_timeout: %w", err)
		}
		c.ExecutionTimeout = d
		c.sources["execution_timeout"] = "file"
	}
	if file.DefaultNumTotalRequired != nil {
		c.DefaultNumTotalRequired = *file.DefaultNumTotalRequired
		c.sources["default_num_total_required"] = "file"
	}
	if file.RolesFile != nil {
		c.RolesFile = *file.RolesFile
		c.sources["roles_file"] = "file"
	}
	return nil
}

func (c *Config) applyEnvConfig() error {
	var env envConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	// envconfig falls back to the unprefixed name, so DATABASE_URL works too
	if env.DatabaseURL != nil {
		c.DatabaseURL = *env.DatabaseURL
		c.sources["database_url"] = "environment"
	}
	if env.AuditEnabled != nil {
		c.AuditEnabled = *env.AuditEnabled
		c.sources["audit_enabled"] = "environment"
	}
	if env.LogLevel != nil {
		c.LogLevel = *env.LogLevel
		c.sources["log_level"] = "environment"
	}
	if env.Environment != nil {
		c.Environment = *env.Environment
		c.sources["environment"] = "environment"
	}
	if env.ExecutionTimeout != nil {
		c.ExecutionTimeout = *env.ExecutionTimeout
		c.sources["execution_timeout"] = "environment"
	}
	if env.DefaultNumTotalRequired != nil {
		c.DefaultNumTotalRequired = *env.DefaultNumTotalRequired
		c.sources["default_num_total_required"] = "environment"
	}
	if env.RolesFile != nil {
		c.RolesFile = *env.RolesFile
		c.sources["roles_file"] = "environment"
	}
	return nil
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// IsDevelopment reports whether console logging should be used
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level value: %s", c.LogLevel)
	}

	valid := false
	for _, e := range ValidEnvironments {
		if c.Environment == e {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.ExecutionTimeout <= 0 {
		return fmt.Errorf("execution_timeout must be positive, got %s", c.ExecutionTimeout)
	}
	if c.DefaultNumTotalRequired < 0 {
		return fmt.Errorf("default_num_total_required must not be negative, got %d", c.DefaultNumTotalRequired)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *Config) Attributes() []Attribute {
	return []Attribute{
		{Name: "database_url", Value: redact(c.DatabaseURL), Source: c.Source("database_url")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.AuditEnabled), Source: c.Source("audit_enabled")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "environment", Value: c.Environment, Source: c.Source("environment")},
		{Name: "execution_timeout", Value: c.ExecutionTimeout.String(), Source: c.Source("execution_timeout")},
		{Name: "default_num_total_required", Value: strconv.Itoa(c.DefaultNumTotalRequired), Source: c.Source("default_num_total_required")},
		{Name: "roles_file", Value: c.RolesFile, Source: c.Source("roles_file")},
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// redact hides the password of a connection URL.
func redact(url string) string {
	scheme := strings.Index(url, "://")
	at := strings.LastIndex(url, "@")
	if scheme < 0 || at < scheme {
		return url
	}
	userinfo := url[scheme+3 : at]
	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return url
	}
	return url[:scheme+3] + userinfo[:colon] + ":****" + url[at:]
}
